package services

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/ports"
)

// ErrInsufficientLevel is returned when an escalation precondition is not
// met. It is the only way issuance fails; login itself never fails.
var ErrInsufficientLevel = errors.New("presented token level too low")

// tokenService encodes and decodes DecoyTokens. The wire shape is the usual
// three-part JWT layout so an attacker who inspects the credential sees a
// plausible structure, but the trailing part is a plain digest of the first
// two: the same input always produces the same token and nothing is ever
// verified against a secret.
type tokenService struct {
	now func() time.Time
}

func NewTokenService() ports.TokenService {
	return &tokenService{now: time.Now}
}

var tokenHeader = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

func encodeToken(tok domain.DecoyToken) string {
	payload, _ := json.Marshal(tok)
	body := tokenHeader + "." + base64.RawURLEncoding.EncodeToString(payload)
	sum := sha256.Sum256([]byte(body))
	return body + "." + base64.RawURLEncoding.EncodeToString(sum[:16])
}

func (s *tokenService) IssueUserToken(subject string) (string, domain.DecoyToken) {
	tok := domain.NewDecoyToken(domain.LevelUser, subject, s.now())
	return encodeToken(tok), tok
}

func (s *tokenService) IssueAdminToken(presented string) (string, domain.DecoyToken, error) {
	prev := s.Decode(presented)
	if prev.Level < domain.LevelUser {
		return "", domain.DecoyToken{}, fmt.Errorf("elevate: %w", ErrInsufficientLevel)
	}
	tok := domain.NewDecoyToken(domain.LevelAdmin, prev.Subject, s.now())
	return encodeToken(tok), tok, nil
}

func (s *tokenService) IssueInternalToken(presented string) (string, domain.DecoyToken, error) {
	prev := s.Decode(presented)
	if prev.Level < domain.LevelAdmin {
		return "", domain.DecoyToken{}, fmt.Errorf("internal: %w", ErrInsufficientLevel)
	}
	tok := domain.NewDecoyToken(domain.LevelInternal, prev.Subject, s.now())
	return encodeToken(tok), tok, nil
}

// Decode parses the payload segment and nothing else. Any malformed input,
// including an empty string, yields a public-level token rather than an
// error: a broken credential is indistinguishable from no credential.
func (s *tokenService) Decode(raw string) domain.DecoyToken {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer"))
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return domain.DecoyToken{Level: domain.LevelPublic, LevelStr: domain.LevelPublic.String()}
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return domain.DecoyToken{Level: domain.LevelPublic, LevelStr: domain.LevelPublic.String()}
	}
	var tok domain.DecoyToken
	if err := json.Unmarshal(payload, &tok); err != nil {
		return domain.DecoyToken{Level: domain.LevelPublic, LevelStr: domain.LevelPublic.String()}
	}
	tok.Level = domain.ParseLevel(tok.LevelStr)
	return tok
}
