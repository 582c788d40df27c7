package repository

import (
	"context"
	"errors"

	"github.com/AlibekovAA/storybooks/internal/common/db"
	"github.com/AlibekovAA/storybooks/internal/story/domain"
)

type breakerRepository struct {
	next Repository
	cb   *db.DBCircuitBreaker
}

// WithCircuitBreaker guards next so that repeated storage failures make
// further calls fail fast with commonerrors.ErrCircuitOpen.
func WithCircuitBreaker(next Repository, cb *db.DBCircuitBreaker) Repository {
	return &breakerRepository{next: next, cb: cb}
}

// isStorageFailure excludes outcomes that say nothing about storage health.
func isStorageFailure(err error) bool {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, ErrStoryNotFound), errors.As(err, &verr), errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}

func (r *breakerRepository) Create(ctx context.Context, story domain.Story) error {
	return r.cb.Call(ctx, func(ctx context.Context) error {
		return r.next.Create(ctx, story)
	}, isStorageFailure)
}

func (r *breakerRepository) GetByID(ctx context.Context, id string) (domain.Story, error) {
	var out domain.Story
	err := r.cb.Call(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.next.GetByID(ctx, id)
		return err
	}, isStorageFailure)
	return out, err
}

func (r *breakerRepository) ListPublic(ctx context.Context) ([]domain.Story, error) {
	return r.list(ctx, r.next.ListPublic)
}

func (r *breakerRepository) ListPublicByOwner(ctx context.Context, ownerID string) ([]domain.Story, error) {
	return r.list(ctx, func(ctx context.Context) ([]domain.Story, error) {
		return r.next.ListPublicByOwner(ctx, ownerID)
	})
}

func (r *breakerRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Story, error) {
	return r.list(ctx, func(ctx context.Context) ([]domain.Story, error) {
		return r.next.ListByOwner(ctx, ownerID)
	})
}

func (r *breakerRepository) SearchPublicByTitle(ctx context.Context, query string) ([]domain.Story, error) {
	return r.list(ctx, func(ctx context.Context) ([]domain.Story, error) {
		return r.next.SearchPublicByTitle(ctx, query)
	})
}

func (r *breakerRepository) Update(ctx context.Context, id string, patch domain.Patch) (domain.Story, error) {
	var out domain.Story
	err := r.cb.Call(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.next.Update(ctx, id, patch)
		return err
	}, isStorageFailure)
	return out, err
}

func (r *breakerRepository) Delete(ctx context.Context, id string) error {
	return r.cb.Call(ctx, func(ctx context.Context) error {
		return r.next.Delete(ctx, id)
	}, isStorageFailure)
}

func (r *breakerRepository) list(ctx context.Context, fn func(context.Context) ([]domain.Story, error)) ([]domain.Story, error) {
	var out []domain.Story
	err := r.cb.Call(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	}, isStorageFailure)
	return out, err
}
