// Package middleware attaches the request principal from a bearer token or
// the session cookie.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/AlibekovAA/storybooks/internal/auth/principal"
	commonerrors "github.com/AlibekovAA/storybooks/internal/common/errors"
	commonhttp "github.com/AlibekovAA/storybooks/internal/common/http"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
)

type SessionReader interface {
	UserID(r *http.Request) (string, bool)
}

type PrincipalSource interface {
	Principal(ctx context.Context, userID string) (principal.Principal, error)
	PrincipalFromToken(token string) (principal.Principal, error)
}

// Resolver never rejects anonymous requests; handlers decide what needs a
// principal. A bearer token that fails verification is rejected outright.
func Resolver(sessions SessionReader, source PrincipalSource, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token, ok := bearerToken(r); ok {
				p, err := source.PrincipalFromToken(token)
				if err != nil {
					log.WithFields(ctx, logger.Fields{
						"action": "bearer_rejected",
					}).Debugf("bearer token rejected: %v", err)
					commonhttp.HandleError(w, r, err, log)
					return
				}
				next.ServeHTTP(w, r.WithContext(principal.WithPrincipal(ctx, p)))
				return
			}

			userID, ok := sessions.UserID(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			p, err := source.Principal(ctx, userID)
			if err != nil {
				if errors.Is(err, commonerrors.ErrUnauthenticated) {
					log.WithFields(ctx, logger.Fields{
						"user_id": userID,
						"action":  "session_user_missing",
					}).Warn("session refers to unknown user")
					next.ServeHTTP(w, r)
					return
				}
				commonhttp.HandleError(w, r, err, log)
				return
			}
			next.ServeHTTP(w, r.WithContext(principal.WithPrincipal(ctx, p)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
