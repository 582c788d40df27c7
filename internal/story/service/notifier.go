package service

import (
	"context"

	"github.com/AlibekovAA/storybooks/internal/story/domain"
)

// Notifier is told about changes to the set of publicly visible stories.
type Notifier interface {
	StoryPublished(ctx context.Context, story domain.Story)
	StoryWithdrawn(ctx context.Context, storyID string)
}

type nopNotifier struct{}

func (nopNotifier) StoryPublished(context.Context, domain.Story) {}
func (nopNotifier) StoryWithdrawn(context.Context, string)       {}
