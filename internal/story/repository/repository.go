package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/AlibekovAA/storybooks/internal/story/domain"
)

var ErrStoryNotFound = errors.New("story not found")

// Repository stores stories. Every operation is atomic for the single record
// it touches. Listings are ordered newest first.
type Repository interface {
	Create(ctx context.Context, story domain.Story) error
	GetByID(ctx context.Context, id string) (domain.Story, error)
	ListPublic(ctx context.Context) ([]domain.Story, error)
	ListPublicByOwner(ctx context.Context, ownerID string) ([]domain.Story, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Story, error)
	SearchPublicByTitle(ctx context.Context, query string) ([]domain.Story, error)
	Update(ctx context.Context, id string, patch domain.Patch) (domain.Story, error)
	Delete(ctx context.Context, id string) error
}

// prepareCreate normalizes and validates the editable fields of s.
func prepareCreate(s domain.Story) (domain.Story, error) {
	d := s.Draft().Normalize()
	if err := domain.Validate(d); err != nil {
		return domain.Story{}, err
	}
	s.Title, s.Body, s.Status = d.Title, d.Body, d.Status
	return s, nil
}

func mergePatch(current domain.Story, patch domain.Patch) (domain.Story, error) {
	merged := patch.Apply(current)
	if err := domain.Validate(merged.Draft()); err != nil {
		return domain.Story{}, err
	}
	return merged, nil
}

// escapeLike makes query match literally inside a LIKE pattern that uses
// backslash as its escape character.
func escapeLike(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	for _, r := range query {
		switch r {
		case '\\', '%', '_':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// storageError passes validation and not-found results through unchanged and
// hands everything else to handle for wrapping and metrics.
func storageError(err error, handle func(error) error) error {
	if err == nil {
		return nil
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrStoryNotFound) {
		return err
	}
	return handle(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}
