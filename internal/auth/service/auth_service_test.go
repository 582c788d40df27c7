package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AlibekovAA/storybooks/internal/auth/principal"
	"github.com/AlibekovAA/storybooks/internal/auth/service"
	"github.com/AlibekovAA/storybooks/internal/common/clock"
	commonerrors "github.com/AlibekovAA/storybooks/internal/common/errors"
	"github.com/AlibekovAA/storybooks/internal/common/jwtverify"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
	userdomain "github.com/AlibekovAA/storybooks/internal/user/domain"
	userrepo "github.com/AlibekovAA/storybooks/internal/user/repository"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

type mockUserRepo struct {
	upsertFunc   func(ctx context.Context, user userdomain.User) (userdomain.User, error)
	findByIDFunc func(ctx context.Context, id string) (userdomain.User, error)
}

func (m *mockUserRepo) UpsertByGoogleID(ctx context.Context, user userdomain.User) (userdomain.User, error) {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, user)
	}
	return user, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (userdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

type fixedIDs struct {
	id  string
	err error
}

func (f fixedIDs) NewID() (string, error) {
	return f.id, f.err
}

var now = time.Now().UTC().Truncate(time.Second)

func setupAuthService(t *testing.T, jwtSecret string) (*service.AuthService, *mockUserRepo) {
	t.Helper()
	repo := &mockUserRepo{}
	clk := clock.NewMockClock(now)
	svc := service.NewAuthService(
		repo,
		fixedIDs{id: "new-user"},
		clk,
		service.NewTokenIssuer(jwtSecret, 30*time.Minute, clk),
		logger.NewWithWriter(&bytes.Buffer{}, "", "error"),
	)
	return svc, repo
}

func TestAuthService_LoginUpsertsProfile(t *testing.T) {
	svc, repo := setupAuthService(t, "")

	var stored userdomain.User
	repo.upsertFunc = func(ctx context.Context, user userdomain.User) (userdomain.User, error) {
		stored = user
		return user, nil
	}

	user, err := svc.Login(context.Background(), userdomain.Profile{GoogleID: "g-1", FirstName: "Ann", LastName: "Lee", Picture: "p.png"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != "new-user" || stored.GoogleID != "g-1" || stored.DisplayName != "Ann Lee" || stored.Image != "p.png" {
		t.Errorf("unexpected stored user %+v", stored)
	}
	if !stored.CreatedAt.Equal(now) {
		t.Errorf("expected created_at from clock, got %v", stored.CreatedAt)
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc, repo := setupAuthService(t, "")

	if _, err := svc.Login(context.Background(), userdomain.Profile{}); !errors.Is(err, service.ErrLoginFailed) {
		t.Errorf("expected login failed for empty profile, got %v", err)
	}

	repo.upsertFunc = func(context.Context, userdomain.User) (userdomain.User, error) {
		return userdomain.User{}, errors.New("disk full")
	}
	if _, err := svc.Login(context.Background(), userdomain.Profile{GoogleID: "g-1"}); !errors.Is(err, commonerrors.ErrInternalError) {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestAuthService_Principal(t *testing.T) {
	svc, repo := setupAuthService(t, "")
	repo.findByIDFunc = func(ctx context.Context, id string) (userdomain.User, error) {
		if id == "u1" {
			return userdomain.User{ID: "u1", DisplayName: "Ann"}, nil
		}
		return userdomain.User{}, userrepo.ErrUserNotFound
	}

	p, err := svc.Principal(context.Background(), "u1")
	if err != nil || p.UserID != "u1" || p.DisplayName != "Ann" {
		t.Fatalf("unexpected principal %+v err=%v", p, err)
	}

	if _, err := svc.Principal(context.Background(), "ghost"); !errors.Is(err, commonerrors.ErrUnauthenticated) {
		t.Errorf("expected unauthenticated, got %v", err)
	}
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	svc, repo := setupAuthService(t, testJWTSecret)
	repo.findByIDFunc = func(ctx context.Context, id string) (userdomain.User, error) {
		return userdomain.User{ID: id, DisplayName: "Ann"}, nil
	}

	ctx := principal.WithPrincipal(context.Background(), principal.Principal{UserID: "u1"})
	token, expiresAt, err := svc.IssueToken(ctx)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.Equal(now.Add(30 * time.Minute)) {
		t.Errorf("unexpected expiry %v", expiresAt)
	}

	p, err := svc.PrincipalFromToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.UserID != "u1" || p.DisplayName != "Ann" {
		t.Errorf("unexpected principal %+v", p)
	}

	claims, err := jwtverify.ParseToken(token, []byte("ffffffffffffffffffffffffffffffff"))
	if err == nil {
		t.Errorf("token must not verify under another secret, got %+v", claims)
	}

	if _, err := svc.PrincipalFromToken("not-a-token"); !errors.Is(err, commonerrors.ErrInvalidToken) {
		t.Errorf("expected invalid token, got %v", err)
	}
}

func TestAuthService_TokensDisabled(t *testing.T) {
	svc, _ := setupAuthService(t, "")
	ctx := principal.WithPrincipal(context.Background(), principal.Principal{UserID: "u1"})

	if _, _, err := svc.IssueToken(ctx); !errors.Is(err, service.ErrTokensDisabled) {
		t.Errorf("expected tokens disabled, got %v", err)
	}
	if _, err := svc.PrincipalFromToken("anything"); !errors.Is(err, commonerrors.ErrInvalidToken) {
		t.Errorf("expected invalid token, got %v", err)
	}
}

func TestAuthService_MeRequiresPrincipal(t *testing.T) {
	svc, _ := setupAuthService(t, "")

	if _, err := svc.Me(context.Background()); !errors.Is(err, commonerrors.ErrUnauthenticated) {
		t.Errorf("expected unauthenticated, got %v", err)
	}
}
