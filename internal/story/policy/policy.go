// Package policy decides what a principal may do with a story. It has no
// side effects.
package policy

import (
	"github.com/AlibekovAA/storybooks/internal/auth/principal"
	"github.com/AlibekovAA/storybooks/internal/story/domain"
)

type Operation string

const (
	OpRead  Operation = "read"
	OpWrite Operation = "write"
)

type Decision int

const (
	Allow Decision = iota
	// NotFound hides the story entirely from the requester.
	NotFound
	// DeniedRedirect refuses a mutation without revealing an error.
	DeniedRedirect
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case NotFound:
		return "not_found"
	case DeniedRedirect:
		return "denied_redirect"
	default:
		return "unknown"
	}
}

func isOwner(s domain.Story, p principal.Principal) bool {
	return p.Authenticated() && s.OwnerID != "" && p.UserID == s.OwnerID
}

func CanRead(s domain.Story, p principal.Principal) bool {
	return s.IsPublic() || isOwner(s, p)
}

func CanWrite(s domain.Story, p principal.Principal) bool {
	return isOwner(s, p)
}

func Decide(s domain.Story, p principal.Principal, op Operation) Decision {
	switch op {
	case OpRead:
		if CanRead(s, p) {
			return Allow
		}
		return NotFound
	case OpWrite:
		if CanWrite(s, p) {
			return Allow
		}
		return DeniedRedirect
	default:
		return NotFound
	}
}
