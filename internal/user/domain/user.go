package domain

import (
	"strings"
	"time"
)

// User is an account created on first Google login.
type User struct {
	ID          string
	GoogleID    string
	DisplayName string
	FirstName   string
	LastName    string
	Image       string
	CreatedAt   time.Time
}

// Profile is what the identity provider reports about a user.
type Profile struct {
	GoogleID  string
	Name      string
	FirstName string
	LastName  string
	Picture   string
}

// DisplayNameOf picks the full name, falling back to the given and family
// names joined together.
func (p Profile) DisplayNameOf() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}
