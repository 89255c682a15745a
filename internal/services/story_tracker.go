package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anonto42/nano-midea/stories/internal/models"
	"github.com/anonto42/nano-midea/stories/internal/repositories"
)

// ReactionNotifier is told about reactions left on someone else's story
type ReactionNotifier interface {
	NotifyReaction(ctx context.Context, story models.Story, itemID, viewerID, emoji string) error
}

// StoryTracker records views and reactions against items held by a StoryStore.
// Targets that no longer exist are ignored.
type StoryTracker struct {
	store    *StoryStore
	shares   repositories.ShareCounter
	notifier ReactionNotifier
	logger   *slog.Logger
}

// NewStoryTracker creates a tracker. shares and notifier may be nil.
func NewStoryTracker(store *StoryStore, shares repositories.ShareCounter, notifier ReactionNotifier, logger *slog.Logger) *StoryTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoryTracker{store: store, shares: shares, notifier: notifier, logger: logger}
}

// withItem applies fn to the item when it exists, saving only if fn changed it.
// It returns a copy of the story as saved, or false when nothing matched.
func (t *StoryTracker) withItem(ctx context.Context, storyID, itemID string, fn func(item *models.StoryItem) bool) (models.Story, bool, error) {
	var touched models.Story
	var found bool
	err := t.store.update(ctx, func(stories []models.Story) ([]models.Story, bool) {
		for i := range stories {
			if stories[i].ID != storyID {
				continue
			}
			idx := stories[i].FindItem(itemID)
			if idx < 0 {
				return stories, false
			}
			found = true
			changed := fn(&stories[i].Items[idx])
			touched = stories[i].Clone()
			return stories, changed
		}
		return stories, false
	})
	return touched, found, err
}

// MarkViewed adds viewerID to the item's viewers. Repeat views keep the first timestamp.
func (t *StoryTracker) MarkViewed(ctx context.Context, storyID, itemID, viewerID string) {
	now := t.store.now()
	_, _, err := t.withItem(ctx, storyID, itemID, func(item *models.StoryItem) bool {
		if _, seen := item.ViewedBy[viewerID]; seen {
			return false
		}
		if item.ViewedBy == nil {
			item.ViewedBy = make(map[string]time.Time)
		}
		item.ViewedBy[viewerID] = now
		return true
	})
	if err != nil {
		t.logger.Error("failed to record story view", "story_id", storyID, "item_id", itemID, "viewer_id", viewerID, "error", err)
	}
}

// AddReaction stores the viewer's reaction, replacing any earlier one on the same item.
// The author is notified only when the emoji differs from the viewer's previous one.
func (t *StoryTracker) AddReaction(ctx context.Context, storyID, itemID, viewerID, emoji string) {
	now := t.store.now()
	var emojiChanged bool
	story, found, err := t.withItem(ctx, storyID, itemID, func(item *models.StoryItem) bool {
		if item.Reactions == nil {
			item.Reactions = make(map[string]models.Reaction)
		}
		prev, reacted := item.Reactions[viewerID]
		emojiChanged = !reacted || prev.Emoji != emoji
		item.Reactions[viewerID] = models.Reaction{Emoji: emoji, ReactedAt: now}
		return true
	})
	if err != nil {
		t.logger.Error("failed to record story reaction", "story_id", storyID, "item_id", itemID, "viewer_id", viewerID, "error", err)
		return
	}
	if !found || !emojiChanged || t.notifier == nil || story.AuthorID == viewerID {
		return
	}
	if err := t.notifier.NotifyReaction(ctx, story, itemID, viewerID, emoji); err != nil {
		t.logger.Warn("failed to notify story author", "story_id", storyID, "author_id", story.AuthorID, "error", err)
	}
}

// RecordShare bumps the share counter of an existing story
func (t *StoryTracker) RecordShare(ctx context.Context, storyID string) int64 {
	if t.shares == nil {
		return 0
	}
	if _, ok := t.store.GetStory(ctx, storyID); !ok {
		return 0
	}
	n, err := t.shares.Increment(ctx, storyID)
	if err != nil {
		t.logger.Error("failed to record story share", "story_id", storyID, "error", err)
		return 0
	}
	return n
}

// ComputeStats counts distinct viewers and reactions across the author's story.
// A story that does not exist or belongs to someone else yields zero stats.
func (t *StoryTracker) ComputeStats(ctx context.Context, authorID, storyID string) models.StoryStats {
	story, ok := t.store.GetStory(ctx, storyID)
	if !ok || story.AuthorID != authorID {
		return models.StoryStats{}
	}

	viewers := make(map[string]struct{})
	var stats models.StoryStats
	for _, item := range story.Items {
		for viewerID := range item.ViewedBy {
			viewers[viewerID] = struct{}{}
		}
		stats.Reactions += len(item.Reactions)
	}
	stats.Views = len(viewers)

	if t.shares != nil {
		shares, err := t.shares.Count(ctx, storyID)
		if err != nil {
			t.logger.Warn("failed to read story shares", "story_id", storyID, "error", err)
		}
		stats.Shares = shares
	}
	return stats
}

// NotificationReactionNotifier persists reaction notifications for the story author
type NotificationReactionNotifier struct {
	notifications repositories.NotificationRepository
}

// NewNotificationReactionNotifier creates a ReactionNotifier backed by the notifications table
func NewNotificationReactionNotifier(repo repositories.NotificationRepository) *NotificationReactionNotifier {
	return &NotificationReactionNotifier{notifications: repo}
}

func (n *NotificationReactionNotifier) NotifyReaction(ctx context.Context, story models.Story, itemID, viewerID, emoji string) error {
	return n.notifications.CreateNotification(ctx, &models.Notification{
		Type:        models.NotificationStoryReaction,
		ActorID:     viewerID,
		RecipientID: story.AuthorID,
		TargetID:    story.ID,
		ItemID:      itemID,
		TargetType:  "story_item",
		Message:     fmt.Sprintf("reacted %s to your story", emoji),
	})
}
