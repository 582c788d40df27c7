package repository

import (
	"context"

	commonerrors "github.com/AlibekovAA/storybooks/internal/common/errors"
	"github.com/AlibekovAA/storybooks/internal/user/domain"
)

var ErrUserNotFound = commonerrors.ErrUserNotFound

type Repository interface {
	// UpsertByGoogleID inserts user or, when the google id is already known,
	// refreshes its profile fields. The stored record is returned; its id and
	// created_at never change after the first insert.
	UpsertByGoogleID(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}
