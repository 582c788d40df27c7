package service

import (
	"context"
	"errors"
	"time"

	"github.com/AlibekovAA/storybooks/internal/auth/principal"
	"github.com/AlibekovAA/storybooks/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/storybooks/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/storybooks/internal/common/errors"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
	userdomain "github.com/AlibekovAA/storybooks/internal/user/domain"
	userrepo "github.com/AlibekovAA/storybooks/internal/user/repository"
)

type AuthService struct {
	repo        userrepo.Repository
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	tokens      *TokenIssuer
	log         *logger.Logger
}

func NewAuthService(
	repo userrepo.Repository,
	idGenerator commoncrypto.IDGenerator,
	clk clock.Clock,
	tokens *TokenIssuer,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		idGenerator: idGenerator,
		clock:       clk,
		tokens:      tokens,
		log:         log,
	}
}

// Login records a successful Google sign-in. The first login creates the
// account; later ones refresh the stored profile.
func (s *AuthService) Login(ctx context.Context, profile userdomain.Profile) (user userdomain.User, err error) {
	defer func() { recordLogin(err) }()

	if profile.GoogleID == "" {
		s.log.WithFields(ctx, logger.Fields{
			"action": "login_missing_google_id",
		}).Warn("login rejected: profile has no google id")
		return userdomain.User{}, ErrLoginFailed
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "login_id_generation_failed",
		}).Errorf("login failed: id generation error: %v", err)
		return userdomain.User{}, commonerrors.ErrInternalError.WithCause(err)
	}

	displayName := profile.DisplayNameOf()
	if displayName == "" {
		displayName = profile.GoogleID
	}

	user, err = s.repo.UpsertByGoogleID(ctx, userdomain.User{
		ID:          id,
		GoogleID:    profile.GoogleID,
		DisplayName: displayName,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		Image:       profile.Picture,
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"google_id": profile.GoogleID,
			"action":    "login_upsert_failed",
		}).Errorf("login failed: %v", err)
		return userdomain.User{}, commonerrors.ErrInternalError.WithCause(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": user.ID,
		"action":  "login_success",
	}).Info("user logged in")
	return user, nil
}

// Principal loads the identity behind a session. Users that no longer exist
// yield ErrUnauthenticated.
func (s *AuthService) Principal(ctx context.Context, userID string) (principal.Principal, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return principal.Principal{}, commonerrors.ErrUnauthenticated
		}
		return principal.Principal{}, commonerrors.ErrInternalError.WithCause(err)
	}
	return principal.Principal{UserID: user.ID, DisplayName: user.DisplayName}, nil
}

// PrincipalFromToken verifies a bearer token. The token is trusted as is;
// no storage lookup happens.
func (s *AuthService) PrincipalFromToken(token string) (principal.Principal, error) {
	if !s.tokens.Enabled() {
		return principal.Principal{}, commonerrors.ErrInvalidToken
	}
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return principal.Principal{}, commonerrors.ErrInvalidToken.WithCause(err)
	}
	return principal.Principal{UserID: claims.UserID, DisplayName: claims.DisplayName}, nil
}

func (s *AuthService) Me(ctx context.Context) (userdomain.User, error) {
	p, ok := principal.FromContext(ctx)
	if !ok {
		return userdomain.User{}, commonerrors.ErrUnauthenticated
	}

	user, err := s.repo.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return userdomain.User{}, commonerrors.ErrUnauthenticated
		}
		return userdomain.User{}, commonerrors.ErrInternalError.WithCause(err)
	}
	return user, nil
}

// IssueToken signs a bearer token for the requesting user.
func (s *AuthService) IssueToken(ctx context.Context) (string, time.Time, error) {
	if !s.tokens.Enabled() {
		return "", time.Time{}, ErrTokensDisabled
	}

	user, err := s.Me(ctx)
	if err != nil {
		return "", time.Time{}, err
	}

	token, expiresAt, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": user.ID,
			"action":  "token_issue_failed",
		}).Errorf("token issue failed: %v", err)
		return "", time.Time{}, commonerrors.ErrInternalError.WithCause(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": user.ID,
		"action":  "token_issued",
	}).Info("access token issued")
	return token, expiresAt, nil
}
