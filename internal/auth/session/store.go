// Package session keeps the signed-in user id and the OAuth state in
// encrypted cookies.
package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/AlibekovAA/storybooks/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/storybooks/internal/common/crypto"
)

const (
	userIDKey = "user_id"
	stateKey  = "state"
)

type Store struct {
	cookies *sessions.CookieStore
	maxAge  int
	secure  bool
}

func NewStore(secret string, maxAge time.Duration, secure bool) (*Store, error) {
	hashKey, blockKey, err := commoncrypto.SessionKeys(secret)
	if err != nil {
		return nil, fmt.Errorf("session keys: %w", err)
	}

	cookies := sessions.NewCookieStore(hashKey, blockKey)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	cookies.MaxAge(int(maxAge.Seconds()))

	return &Store{cookies: cookies, maxAge: int(maxAge.Seconds()), secure: secure}, nil
}

// Login binds userID to the session cookie.
func (s *Store) Login(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, _ := s.cookies.Get(r, constants.SessionCookieName)
	sess.Values[userIDKey] = userID
	sess.Options.MaxAge = s.maxAge
	return sess.Save(r, w)
}

// UserID returns the signed-in user id. Tampered or expired cookies read as
// anonymous.
func (s *Store) UserID(r *http.Request) (string, bool) {
	sess, err := s.cookies.Get(r, constants.SessionCookieName)
	if err != nil {
		return "", false
	}
	id, ok := sess.Values[userIDKey].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func (s *Store) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.cookies.Get(r, constants.SessionCookieName)
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// SaveState remembers the OAuth state for the pending login.
func (s *Store) SaveState(w http.ResponseWriter, r *http.Request, state string) error {
	sess, _ := s.cookies.Get(r, constants.OAuthStateCookie)
	sess.Values[stateKey] = state
	sess.Options.MaxAge = int(constants.OAuthStateTTL.Seconds())
	return sess.Save(r, w)
}

// TakeState returns the pending OAuth state and clears it so it cannot be
// replayed.
func (s *Store) TakeState(w http.ResponseWriter, r *http.Request) (string, bool) {
	sess, err := s.cookies.Get(r, constants.OAuthStateCookie)
	if err != nil {
		return "", false
	}
	state, ok := sess.Values[stateKey].(string)
	delete(sess.Values, stateKey)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
	return state, ok && state != ""
}
