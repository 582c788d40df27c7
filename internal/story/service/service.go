package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/AlibekovAA/storybooks/internal/auth/principal"
	"github.com/AlibekovAA/storybooks/internal/common/clock"
	"github.com/AlibekovAA/storybooks/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/storybooks/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/storybooks/internal/common/errors"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
	"github.com/AlibekovAA/storybooks/internal/story/domain"
	"github.com/AlibekovAA/storybooks/internal/story/policy"
	"github.com/AlibekovAA/storybooks/internal/story/repository"
)

// Outcome reports whether a write was carried out or softly refused.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeDeniedRedirect
)

func (o Outcome) String() string {
	if o == OutcomeDeniedRedirect {
		return "denied_redirect"
	}
	return "applied"
}

type FormSpec struct {
	Statuses      []domain.Status
	DefaultStatus domain.Status
}

type StoryService struct {
	repo        repository.Repository
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	notifier    Notifier
	log         *logger.Logger
}

func NewStoryService(
	repo repository.Repository,
	idGenerator commoncrypto.IDGenerator,
	clk clock.Clock,
	notifier Notifier,
	log *logger.Logger,
) *StoryService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &StoryService{
		repo:        repo,
		idGenerator: idGenerator,
		clock:       clk,
		notifier:    notifier,
		log:         log,
	}
}

func requirePrincipal(ctx context.Context) (principal.Principal, error) {
	p, ok := principal.FromContext(ctx)
	if !ok {
		return principal.Principal{}, commonerrors.ErrUnauthenticated
	}
	return p, nil
}

// AddForm describes the creation form. It never touches storage.
func (s *StoryService) AddForm(ctx context.Context) (FormSpec, error) {
	if _, err := requirePrincipal(ctx); err != nil {
		return FormSpec{}, err
	}
	statuses := make([]domain.Status, len(domain.Statuses))
	copy(statuses, domain.Statuses)
	return FormSpec{Statuses: statuses, DefaultStatus: domain.DefaultStatus}, nil
}

// Create persists draft owned by the requesting principal.
func (s *StoryService) Create(ctx context.Context, draft domain.Draft) (story domain.Story, err error) {
	defer func() { recordOperation("create", err) }()

	p, err := requirePrincipal(ctx)
	if err != nil {
		return domain.Story{}, err
	}

	draft = draft.Normalize()
	if err := domain.Validate(draft); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"owner_id": p.UserID,
			"action":   "story_create_invalid",
		}).Warnf("create rejected: %v", err)
		return domain.Story{}, translateError(err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "story_id_generation_failed",
		}).Errorf("create failed: id generation error: %v", err)
		return domain.Story{}, translateError(err)
	}

	story = domain.Story{
		ID:        id,
		Title:     draft.Title,
		Body:      draft.Body,
		Status:    draft.Status,
		OwnerID:   p.UserID,
		OwnerName: p.DisplayName,
		CreatedAt: s.clock.Now(),
	}

	if err := s.repo.Create(ctx, story); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"story_id": id,
			"owner_id": p.UserID,
			"action":   "story_create_failed",
		}).Errorf("create failed: %v", err)
		return domain.Story{}, translateError(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"story_id": id,
		"owner_id": p.UserID,
		"status":   string(story.Status),
		"action":   "story_created",
	}).Info("story created")

	if story.IsPublic() {
		s.notifier.StoryPublished(ctx, story)
	}
	return story, nil
}

func (s *StoryService) ListPublic(ctx context.Context) (stories []domain.Story, err error) {
	defer func() { recordOperation("list_public", err) }()

	if _, err := requirePrincipal(ctx); err != nil {
		return nil, err
	}

	stories, err = s.repo.ListPublic(ctx)
	if err != nil {
		s.logFailure(ctx, "list_public", "", err)
		return nil, translateError(err)
	}
	return stories, nil
}

// View returns the story when the requester may read it. Absent and hidden
// stories are indistinguishable.
func (s *StoryService) View(ctx context.Context, id string) (story domain.Story, err error) {
	defer func() { recordOperation("view", err) }()

	p, err := requirePrincipal(ctx)
	if err != nil {
		return domain.Story{}, err
	}

	story, err = s.repo.GetByID(ctx, id)
	if err != nil {
		s.logFailure(ctx, "view", id, err)
		return domain.Story{}, translateError(err)
	}

	decision := policy.Decide(story, p, policy.OpRead)
	recordDecision("view", decision)
	if decision != policy.Allow {
		s.log.WithFields(ctx, logger.Fields{
			"story_id": id,
			"user_id":  p.UserID,
			"action":   "story_read_denied",
		}).Warn("read denied, reporting not found")
		return domain.Story{}, ErrStoryNotFound
	}
	return story, nil
}

// EditForm returns the story to prefill an edit form, or
// OutcomeDeniedRedirect when the requester does not own it.
func (s *StoryService) EditForm(ctx context.Context, id string) (story domain.Story, outcome Outcome, err error) {
	defer func() { recordOperation("edit_form", err) }()

	story, outcome, err = s.authorizeWrite(ctx, "edit_form", id)
	if err != nil || outcome == OutcomeDeniedRedirect {
		return domain.Story{}, outcome, err
	}
	return story, OutcomeApplied, nil
}

func (s *StoryService) Update(ctx context.Context, id string, patch domain.Patch) (story domain.Story, outcome Outcome, err error) {
	defer func() { recordOperation("update", err) }()

	current, outcome, err := s.authorizeWrite(ctx, "update", id)
	if err != nil || outcome == OutcomeDeniedRedirect {
		return domain.Story{}, outcome, err
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.logFailure(ctx, "update", id, err)
		return domain.Story{}, OutcomeApplied, translateError(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"story_id": id,
		"status":   string(updated.Status),
		"action":   "story_updated",
	}).Info("story updated")

	switch {
	case updated.IsPublic():
		s.notifier.StoryPublished(ctx, updated)
	case current.IsPublic():
		s.notifier.StoryWithdrawn(ctx, id)
	}
	return updated, OutcomeApplied, nil
}

func (s *StoryService) Delete(ctx context.Context, id string) (outcome Outcome, err error) {
	defer func() { recordOperation("delete", err) }()

	current, outcome, err := s.authorizeWrite(ctx, "delete", id)
	if err != nil || outcome == OutcomeDeniedRedirect {
		return outcome, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logFailure(ctx, "delete", id, err)
		return OutcomeApplied, translateError(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"story_id": id,
		"action":   "story_deleted",
	}).Info("story deleted")

	if current.IsPublic() {
		s.notifier.StoryWithdrawn(ctx, id)
	}
	return OutcomeApplied, nil
}

// ListByUser returns the public stories of userID whoever asks.
func (s *StoryService) ListByUser(ctx context.Context, userID string) (stories []domain.Story, err error) {
	defer func() { recordOperation("list_by_user", err) }()

	if _, err := requirePrincipal(ctx); err != nil {
		return nil, err
	}
	if userID == "" {
		return []domain.Story{}, nil
	}

	stories, err = s.repo.ListPublicByOwner(ctx, userID)
	if err != nil {
		s.logFailure(ctx, "list_by_user", "", err)
		return nil, translateError(err)
	}
	return stories, nil
}

// Search matches query literally and case-insensitively against public
// titles. An empty query matches every public story.
func (s *StoryService) Search(ctx context.Context, query string) (stories []domain.Story, err error) {
	defer func() { recordOperation("search", err) }()

	if _, err := requirePrincipal(ctx); err != nil {
		return nil, err
	}

	if utf8.RuneCountInString(query) > constants.MaxSearchQueryLength {
		return nil, ErrValidation.WithDetails(map[string]any{
			"query": fmt.Sprintf("must be at most %d characters", constants.MaxSearchQueryLength),
		})
	}

	stories, err = s.repo.SearchPublicByTitle(ctx, query)
	if err != nil {
		s.logFailure(ctx, "search", "", err)
		return nil, translateError(err)
	}
	observeSearchResults(len(stories))
	return stories, nil
}

// Dashboard lists every story the requester owns, private ones included.
func (s *StoryService) Dashboard(ctx context.Context) (stories []domain.Story, err error) {
	defer func() { recordOperation("dashboard", err) }()

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	stories, err = s.repo.ListByOwner(ctx, p.UserID)
	if err != nil {
		s.logFailure(ctx, "dashboard", "", err)
		return nil, translateError(err)
	}
	return stories, nil
}

func (s *StoryService) authorizeWrite(ctx context.Context, operation, id string) (domain.Story, Outcome, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return domain.Story{}, OutcomeApplied, err
	}

	story, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logFailure(ctx, operation, id, err)
		return domain.Story{}, OutcomeApplied, translateError(err)
	}

	decision := policy.Decide(story, p, policy.OpWrite)
	recordDecision(operation, decision)
	if decision != policy.Allow {
		s.log.WithFields(ctx, logger.Fields{
			"story_id": id,
			"user_id":  p.UserID,
			"action":   "story_write_denied",
		}).Warnf("%s denied, redirecting", operation)
		return domain.Story{}, OutcomeDeniedRedirect, nil
	}
	return story, OutcomeApplied, nil
}

func (s *StoryService) logFailure(ctx context.Context, operation, id string, err error) {
	fields := logger.Fields{
		"operation": operation,
		"action":    "story_storage_error",
	}
	if id != "" {
		fields["story_id"] = id
	}

	entry := s.log.WithFields(ctx, fields)
	de, ok := commonerrors.AsDomainError(translateError(err))
	if ok && de.Category() != commonerrors.CategoryInternal && de.Category() != commonerrors.CategoryExternal {
		entry.Debugf("%s: %v", operation, err)
		return
	}
	entry.Errorf("%s failed: %v", operation, err)
}
