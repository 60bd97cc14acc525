package domain

import "time"

// DecoyToken is a structurally plausible but deliberately unverified
// credential. It carries no real signature on purpose: the trap must let
// attackers "win", so anyone who forges or replays a token simply gets the
// level it claims. Never reuse a real JWT library here; the absence of
// verification is the design, not an omission.
type DecoyToken struct {
	Level    AccessLevel `json:"-"`
	LevelStr string      `json:"level"`
	Subject  string      `json:"sub"`
	IssuedAt int64       `json:"iat"`
}

// NewDecoyToken builds a token value for the given level and subject hint.
func NewDecoyToken(level AccessLevel, subject string, now time.Time) DecoyToken {
	return DecoyToken{
		Level:    level,
		LevelStr: level.String(),
		Subject:  subject,
		IssuedAt: now.Unix(),
	}
}
