package service

import (
	"time"

	"github.com/AlibekovAA/storybooks/internal/common/clock"
	"github.com/AlibekovAA/storybooks/internal/common/jwtverify"
	userdomain "github.com/AlibekovAA/storybooks/internal/user/domain"
)

// TokenIssuer signs bearer tokens for API clients. A zero secret disables it.
type TokenIssuer struct {
	jwtSecret      []byte
	clock          clock.Clock
	accessTokenTTL time.Duration
}

func NewTokenIssuer(jwtSecret string, accessTokenTTL time.Duration, clock clock.Clock) *TokenIssuer {
	return &TokenIssuer{
		jwtSecret:      []byte(jwtSecret),
		clock:          clock,
		accessTokenTTL: accessTokenTTL,
	}
}

func (ti *TokenIssuer) Enabled() bool {
	return ti != nil && len(ti.jwtSecret) > 0
}

func (ti *TokenIssuer) IssueAccessToken(user userdomain.User) (string, time.Time, error) {
	return jwtverify.Issue(ti.jwtSecret, user.ID, user.DisplayName, ti.clock.Now(), ti.accessTokenTTL)
}

func (ti *TokenIssuer) ParseToken(tokenString string) (jwtverify.Claims, error) {
	return jwtverify.ParseToken(tokenString, ti.jwtSecret)
}
