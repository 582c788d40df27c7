package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AlibekovAA/storybooks/internal/common/db"
	"github.com/AlibekovAA/storybooks/internal/user/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	conn, err := db.OpenSQLite(ctx, "file::memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.MigrateSQLite(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteRepository(conn)
}

func TestSQLiteRepository_UpsertInsertsThenRefreshes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	first, err := repo.UpsertByGoogleID(ctx, domain.User{
		ID:          "u1",
		GoogleID:    "g-123",
		DisplayName: "Ann Lee",
		FirstName:   "Ann",
		LastName:    "Lee",
		CreatedAt:   created,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.ID != "u1" || !first.CreatedAt.Equal(created) {
		t.Errorf("unexpected first user %+v", first)
	}

	second, err := repo.UpsertByGoogleID(ctx, domain.User{
		ID:          "u2",
		GoogleID:    "g-123",
		DisplayName: "Ann Lee-Park",
		Image:       "https://img.test/a.png",
		CreatedAt:   created.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != "u1" {
		t.Errorf("expected existing id u1, got %s", second.ID)
	}
	if !second.CreatedAt.Equal(created) {
		t.Errorf("created_at must not change, got %v", second.CreatedAt)
	}
	if second.DisplayName != "Ann Lee-Park" || second.Image != "https://img.test/a.png" {
		t.Errorf("expected refreshed profile, got %+v", second)
	}

	found, err := repo.FindByID(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found != second {
		t.Errorf("expected %+v, got %+v", second, found)
	}
}

func TestSQLiteRepository_FindMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FindByID(context.Background(), "nobody")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
