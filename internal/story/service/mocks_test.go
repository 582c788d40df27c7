package service_test

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/AlibekovAA/storybooks/internal/auth/principal"
	"github.com/AlibekovAA/storybooks/internal/common/clock"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
	"github.com/AlibekovAA/storybooks/internal/story/domain"
	"github.com/AlibekovAA/storybooks/internal/story/repository"
	"github.com/AlibekovAA/storybooks/internal/story/service"
)

type mockStoryRepo struct {
	createFunc              func(ctx context.Context, story domain.Story) error
	getByIDFunc             func(ctx context.Context, id string) (domain.Story, error)
	listPublicFunc          func(ctx context.Context) ([]domain.Story, error)
	listPublicByOwnerFunc   func(ctx context.Context, ownerID string) ([]domain.Story, error)
	listByOwnerFunc         func(ctx context.Context, ownerID string) ([]domain.Story, error)
	searchPublicByTitleFunc func(ctx context.Context, query string) ([]domain.Story, error)
	updateFunc              func(ctx context.Context, id string, patch domain.Patch) (domain.Story, error)
	deleteFunc              func(ctx context.Context, id string) error
}

func (m *mockStoryRepo) Create(ctx context.Context, story domain.Story) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, story)
	}
	return nil
}

func (m *mockStoryRepo) GetByID(ctx context.Context, id string) (domain.Story, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return domain.Story{}, repository.ErrStoryNotFound
}

func (m *mockStoryRepo) ListPublic(ctx context.Context) ([]domain.Story, error) {
	if m.listPublicFunc != nil {
		return m.listPublicFunc(ctx)
	}
	return []domain.Story{}, nil
}

func (m *mockStoryRepo) ListPublicByOwner(ctx context.Context, ownerID string) ([]domain.Story, error) {
	if m.listPublicByOwnerFunc != nil {
		return m.listPublicByOwnerFunc(ctx, ownerID)
	}
	return []domain.Story{}, nil
}

func (m *mockStoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Story, error) {
	if m.listByOwnerFunc != nil {
		return m.listByOwnerFunc(ctx, ownerID)
	}
	return []domain.Story{}, nil
}

func (m *mockStoryRepo) SearchPublicByTitle(ctx context.Context, query string) ([]domain.Story, error) {
	if m.searchPublicByTitleFunc != nil {
		return m.searchPublicByTitleFunc(ctx, query)
	}
	return []domain.Story{}, nil
}

func (m *mockStoryRepo) Update(ctx context.Context, id string, patch domain.Patch) (domain.Story, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, patch)
	}
	return domain.Story{}, repository.ErrStoryNotFound
}

func (m *mockStoryRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return repository.ErrStoryNotFound
}

// memoryStore wires a mockStoryRepo to a map so that tests can inspect
// persisted state before and after a call.
type memoryStore struct {
	mu      sync.Mutex
	stories map[string]domain.Story
	writes  int
}

func newMemoryStore(repo *mockStoryRepo) *memoryStore {
	st := &memoryStore{stories: make(map[string]domain.Story)}

	repo.createFunc = func(ctx context.Context, s domain.Story) error {
		st.mu.Lock()
		defer st.mu.Unlock()
		st.writes++
		st.stories[s.ID] = s
		return nil
	}
	repo.getByIDFunc = func(ctx context.Context, id string) (domain.Story, error) {
		st.mu.Lock()
		defer st.mu.Unlock()
		s, ok := st.stories[id]
		if !ok {
			return domain.Story{}, repository.ErrStoryNotFound
		}
		return s, nil
	}
	repo.listPublicFunc = func(ctx context.Context) ([]domain.Story, error) {
		return st.filter(func(s domain.Story) bool { return s.IsPublic() }), nil
	}
	repo.listByOwnerFunc = func(ctx context.Context, ownerID string) ([]domain.Story, error) {
		return st.filter(func(s domain.Story) bool { return s.OwnerID == ownerID }), nil
	}
	repo.updateFunc = func(ctx context.Context, id string, patch domain.Patch) (domain.Story, error) {
		st.mu.Lock()
		defer st.mu.Unlock()
		s, ok := st.stories[id]
		if !ok {
			return domain.Story{}, repository.ErrStoryNotFound
		}
		merged := patch.Apply(s)
		if err := domain.Validate(merged.Draft()); err != nil {
			return domain.Story{}, err
		}
		st.writes++
		st.stories[id] = merged
		return merged, nil
	}
	repo.deleteFunc = func(ctx context.Context, id string) error {
		st.mu.Lock()
		defer st.mu.Unlock()
		if _, ok := st.stories[id]; !ok {
			return repository.ErrStoryNotFound
		}
		st.writes++
		delete(st.stories, id)
		return nil
	}
	return st
}

func (st *memoryStore) filter(keep func(domain.Story) bool) []domain.Story {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]domain.Story, 0)
	for _, s := range st.stories {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (st *memoryStore) get(id string) (domain.Story, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.stories[id]
	return s, ok
}

type sequenceIDs struct {
	mu   sync.Mutex
	next int
	err  error
}

func (g *sequenceIDs) NewID() (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return "story-" + string(rune('0'+g.next)), nil
}

type mockNotifier struct {
	published []string
	withdrawn []string
}

func (n *mockNotifier) StoryPublished(ctx context.Context, s domain.Story) {
	n.published = append(n.published, s.ID)
}

func (n *mockNotifier) StoryWithdrawn(ctx context.Context, id string) {
	n.withdrawn = append(n.withdrawn, id)
}

var startTime = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func setupStoryService(t *testing.T) (*service.StoryService, *mockStoryRepo, *mockNotifier, *clock.MockClock) {
	t.Helper()
	repo := &mockStoryRepo{}
	notifier := &mockNotifier{}
	clk := clock.NewMockClock(startTime)
	log := logger.NewWithWriter(&bytes.Buffer{}, "stories", "error")
	svc := service.NewStoryService(repo, &sequenceIDs{}, clk, notifier, log)
	return svc, repo, notifier, clk
}

func as(userID string) context.Context {
	return principal.WithPrincipal(context.Background(), principal.Principal{UserID: userID, DisplayName: "User " + userID})
}
