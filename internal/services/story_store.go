package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/stories/internal/models"
	"github.com/anonto42/nano-midea/stories/internal/repositories"
	"github.com/google/uuid"
)

// StoryStore owns the persisted story collection. Every mutation loads the
// whole collection, changes it and saves it back.
type StoryStore struct {
	repo   repositories.StoryRepository
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
	ttl    time.Duration

	// mu serialises read-modify-write cycles within this process
	mu sync.Mutex
}

// StoreOption configures a StoryStore
type StoreOption func(*StoryStore)

// WithClock overrides the time source
func WithClock(now func() time.Time) StoreOption {
	return func(s *StoryStore) { s.now = now }
}

// WithIDGenerator overrides how story and item ids are minted
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *StoryStore) { s.newID = newID }
}

// WithStoryTTL overrides the lifetime of newly created stories
func WithStoryTTL(ttl time.Duration) StoreOption {
	return func(s *StoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the logger used to report swallowed persistence failures
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *StoryStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStoryStore creates a StoryStore on top of repo
func NewStoryStore(repo repositories.StoryRepository, opts ...StoreOption) *StoryStore {
	s := &StoryStore{
		repo:   repo,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
		ttl:    models.StoryLifetime,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// update runs fn against the current collection and saves the result when fn
// reports a change.
func (s *StoryStore) update(ctx context.Context, fn func(stories []models.Story) ([]models.Story, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stories, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	next, changed := fn(stories)
	if !changed {
		return nil
	}
	return s.repo.Save(ctx, next)
}

func (s *StoryStore) load(ctx context.Context) []models.Story {
	stories, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load stories, falling back to empty collection", "error", err)
		return []models.Story{}
	}
	return stories
}

// AppendItems adds items to the author's active story, creating a new story
// when the author has none. The story's creation and expiry times never move.
// It returns false only when the collection could not be read or written.
func (s *StoryStore) AppendItems(ctx context.Context, author models.Author, items []models.StoryItem) bool {
	if len(items) == 0 {
		return true
	}
	now := s.now()
	prepared := make([]models.StoryItem, len(items))
	for i, item := range items {
		prepared[i] = s.prepareItem(item, now)
	}

	err := s.update(ctx, func(stories []models.Story) ([]models.Story, bool) {
		for i := range stories {
			if stories[i].AuthorID == author.ID && !stories[i].IsExpired(now) {
				stories[i].Items = append(stories[i].Items, prepared...)
				return stories, true
			}
		}
		return append(stories, models.Story{
			ID:                s.newID(),
			AuthorID:          author.ID,
			AuthorDisplayName: author.DisplayName,
			AuthorAvatarRef:   author.AvatarRef,
			Items:             prepared,
			CreatedAt:         now,
			ExpiresAt:         now.Add(s.ttl),
		}), true
	})
	if err != nil {
		s.logger.Error("failed to append story items", "author_id", author.ID, "items", len(items), "error", err)
		return false
	}
	return true
}

func (s *StoryStore) prepareItem(item models.StoryItem, now time.Time) models.StoryItem {
	if item.ID == "" {
		item.ID = s.newID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.DisplayDurationSeconds = models.NormalizeDuration(item.MediaType, item.DisplayDurationSeconds)
	if item.ViewedBy == nil {
		item.ViewedBy = make(map[string]time.Time)
	}
	if item.Reactions == nil {
		item.Reactions = make(map[string]models.Reaction)
	}
	return item
}

// ListStories returns every stored story in storage order, expired ones
// included. The viewer's own story carries the viewer's current profile.
func (s *StoryStore) ListStories(ctx context.Context, viewer models.Author) []models.Story {
	stories := s.load(ctx)
	for i := range stories {
		if viewer.ID == "" || stories[i].AuthorID != viewer.ID {
			continue
		}
		if viewer.DisplayName != "" {
			stories[i].AuthorDisplayName = viewer.DisplayName
		}
		if viewer.AvatarRef != "" {
			stories[i].AuthorAvatarRef = viewer.AvatarRef
		}
	}
	return stories
}

// GetStory returns the story with the given id
func (s *StoryStore) GetStory(ctx context.Context, storyID string) (models.Story, bool) {
	for _, story := range s.load(ctx) {
		if story.ID == storyID {
			return story, true
		}
	}
	return models.Story{}, false
}

// DeleteStory removes a story with all its items. Unknown ids are ignored.
func (s *StoryStore) DeleteStory(ctx context.Context, storyID string) bool {
	err := s.update(ctx, func(stories []models.Story) ([]models.Story, bool) {
		for i := range stories {
			if stories[i].ID == storyID {
				return append(stories[:i], stories[i+1:]...), true
			}
		}
		return stories, false
	})
	if err != nil {
		s.logger.Error("failed to delete story", "story_id", storyID, "error", err)
		return false
	}
	return true
}

// DeleteItem removes one item, and the whole story if it was the last one
func (s *StoryStore) DeleteItem(ctx context.Context, storyID, itemID string) bool {
	err := s.update(ctx, func(stories []models.Story) ([]models.Story, bool) {
		for i := range stories {
			if stories[i].ID != storyID {
				continue
			}
			idx := stories[i].FindItem(itemID)
			if idx < 0 {
				return stories, false
			}
			stories[i].Items = append(stories[i].Items[:idx], stories[i].Items[idx+1:]...)
			if len(stories[i].Items) == 0 {
				return append(stories[:i], stories[i+1:]...), true
			}
			return stories, true
		}
		return stories, false
	})
	if err != nil {
		s.logger.Error("failed to delete story item", "story_id", storyID, "item_id", itemID, "error", err)
		return false
	}
	return true
}

// SweepExpired removes every story whose expiry is in the past and reports
// how many were removed.
func (s *StoryStore) SweepExpired(ctx context.Context) (int, bool) {
	now := s.now()
	removed := 0
	err := s.update(ctx, func(stories []models.Story) ([]models.Story, bool) {
		kept := stories[:0]
		for _, story := range stories {
			if story.IsExpired(now) {
				removed++
				continue
			}
			kept = append(kept, story)
		}
		return kept, removed > 0
	})
	if err != nil {
		s.logger.Error("failed to sweep expired stories", "error", err)
		return 0, false
	}
	return removed, true
}
