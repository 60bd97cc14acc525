// Package domain contains the core business entities for the deception maze.
package domain

// AccessLevel is the ordered classification gating whether a path's content
// is revealed. Levels compare with the usual integer ordering:
// Public < User < Admin < Internal.
type AccessLevel int

const (
	// LevelPublic is the default level for unauthenticated callers.
	LevelPublic AccessLevel = iota
	// LevelUser is granted by the fake login endpoint.
	LevelUser
	// LevelAdmin is granted by the fake elevation endpoint.
	LevelAdmin
	// LevelInternal is granted by the fake internal-access endpoint.
	LevelInternal
)

func (l AccessLevel) String() string {
	switch l {
	case LevelUser:
		return "user"
	case LevelAdmin:
		return "admin"
	case LevelInternal:
		return "internal"
	default:
		return "public"
	}
}

// ParseLevel maps a level name back to its AccessLevel. Unknown names
// degrade to LevelPublic, never to an error.
func ParseLevel(s string) AccessLevel {
	switch s {
	case "user":
		return LevelUser
	case "admin":
		return LevelAdmin
	case "internal":
		return LevelInternal
	default:
		return LevelPublic
	}
}
