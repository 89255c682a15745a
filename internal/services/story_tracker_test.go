package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/stories/internal/models"
	"github.com/anonto42/nano-midea/stories/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedReaction struct {
	storyID  string
	authorID string
	itemID   string
	viewerID string
	emoji    string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []recordedReaction
	err   error
}

func (n *fakeNotifier) NotifyReaction(ctx context.Context, story models.Story, itemID, viewerID, emoji string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, recordedReaction{story.ID, story.AuthorID, itemID, viewerID, emoji})
	return n.err
}

type trackerFixture struct {
	storeFixture
	tracker  *StoryTracker
	notifier *fakeNotifier
	story    models.Story
}

// newTrackerFixture stores a two-item story by alice
func newTrackerFixture(t *testing.T) trackerFixture {
	t.Helper()
	f := newStoreFixture(t)
	notifier := &fakeNotifier{}
	tracker := NewStoryTracker(f.store, repositories.NewMemoryShareCounter(), notifier, discardLogger())

	ctx := context.Background()
	require.True(t, f.store.AppendItems(ctx, alice, []models.StoryItem{image("a1"), image("a2")}))
	stories := f.store.ListStories(ctx, models.Author{})
	require.Len(t, stories, 1)

	return trackerFixture{storeFixture: f, tracker: tracker, notifier: notifier, story: stories[0]}
}

func (f trackerFixture) item(t *testing.T, idx int) models.StoryItem {
	t.Helper()
	story, ok := f.store.GetStory(context.Background(), f.story.ID)
	require.True(t, ok)
	return story.Items[idx]
}

func TestMarkViewed_IsIdempotent(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	itemID := f.story.Items[0].ID

	f.tracker.MarkViewed(ctx, f.story.ID, itemID, "bob")
	first := f.item(t, 0).ViewedBy["bob"]

	f.clock.Advance(time.Minute)
	f.tracker.MarkViewed(ctx, f.story.ID, itemID, "bob")

	item := f.item(t, 0)
	assert.Len(t, item.ViewedBy, 1)
	assert.Equal(t, first, item.ViewedBy["bob"])
	assert.Empty(t, f.item(t, 1).ViewedBy)
}

func TestMarkViewed_MissingTargetsAreIgnored(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	before, _ := f.store.GetStory(ctx, f.story.ID)

	f.tracker.MarkViewed(ctx, "missing", f.story.Items[0].ID, "bob")
	f.tracker.MarkViewed(ctx, f.story.ID, "missing", "bob")

	after, _ := f.store.GetStory(ctx, f.story.ID)
	assert.Equal(t, before, after)
}

func TestAddReaction_OverwritesEarlierReaction(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	itemID := f.story.Items[0].ID

	f.tracker.AddReaction(ctx, f.story.ID, itemID, "bob", "❤️")
	f.clock.Advance(time.Second)
	f.tracker.AddReaction(ctx, f.story.ID, itemID, "bob", "😂")

	reactions := f.item(t, 0).Reactions
	require.Len(t, reactions, 1)
	assert.Equal(t, "😂", reactions["bob"].Emoji)
	assert.Equal(t, f.clock.now, reactions["bob"].ReactedAt)
}

func TestAddReaction_NotifiesAuthorOnlyForOthers(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	itemID := f.story.Items[1].ID

	f.tracker.AddReaction(ctx, f.story.ID, itemID, "alice", "🔥")
	assert.Empty(t, f.notifier.calls)

	f.tracker.AddReaction(ctx, f.story.ID, itemID, "bob", "🔥")
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, recordedReaction{f.story.ID, "alice", itemID, "bob", "🔥"}, f.notifier.calls[0])

	f.tracker.AddReaction(ctx, f.story.ID, "missing", "bob", "🔥")
	assert.Len(t, f.notifier.calls, 1)
}

func TestAddReaction_NotifiesOnlyWhenEmojiChanges(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	itemID := f.story.Items[0].ID

	f.tracker.AddReaction(ctx, f.story.ID, itemID, "bob", "🔥")
	f.clock.Advance(time.Second)
	f.tracker.AddReaction(ctx, f.story.ID, itemID, "bob", "🔥")
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, f.clock.now, f.item(t, 0).Reactions["bob"].ReactedAt)

	f.tracker.AddReaction(ctx, f.story.ID, itemID, "bob", "😂")
	require.Len(t, f.notifier.calls, 2)
	assert.Equal(t, "😂", f.notifier.calls[1].emoji)
}

func TestAddReaction_NotifierFailureKeepsReaction(t *testing.T) {
	f := newTrackerFixture(t)
	f.notifier.err = errors.New("notifications down")
	ctx := context.Background()

	f.tracker.AddReaction(ctx, f.story.ID, f.story.Items[0].ID, "bob", "👍")

	assert.Equal(t, "👍", f.item(t, 0).Reactions["bob"].Emoji)
}

func TestComputeStats_CountsDistinctViewersAndAllReactions(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	a1, a2 := f.story.Items[0].ID, f.story.Items[1].ID

	f.tracker.MarkViewed(ctx, f.story.ID, a1, "bob")
	f.tracker.MarkViewed(ctx, f.story.ID, a1, "carol")
	f.tracker.MarkViewed(ctx, f.story.ID, a2, "bob")
	f.tracker.MarkViewed(ctx, f.story.ID, a2, "dave")
	f.tracker.AddReaction(ctx, f.story.ID, a1, "bob", "❤️")
	f.tracker.AddReaction(ctx, f.story.ID, a2, "bob", "😂")
	f.tracker.RecordShare(ctx, f.story.ID)

	stats := f.tracker.ComputeStats(ctx, "alice", f.story.ID)
	assert.Equal(t, models.StoryStats{Views: 3, Reactions: 2, Shares: 1}, stats)
}

func TestComputeStats_ZeroForStrangersAndMissingStories(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	f.tracker.MarkViewed(ctx, f.story.ID, f.story.Items[0].ID, "bob")

	assert.Zero(t, f.tracker.ComputeStats(ctx, "bob", f.story.ID))
	assert.Zero(t, f.tracker.ComputeStats(ctx, "alice", "missing"))
}

func TestRecordShare_OnlyCountsExistingStories(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	assert.Equal(t, int64(1), f.tracker.RecordShare(ctx, f.story.ID))
	assert.Equal(t, int64(2), f.tracker.RecordShare(ctx, f.story.ID))
	assert.Zero(t, f.tracker.RecordShare(ctx, "missing"))

	noShares := NewStoryTracker(f.store, nil, nil, nil)
	assert.Zero(t, noShares.RecordShare(ctx, f.story.ID))
	assert.Zero(t, noShares.ComputeStats(ctx, "alice", f.story.ID).Shares)
}

func TestTracker_ConcurrentViewsAreAllRecorded(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	itemID := f.story.Items[0].ID

	viewers := []string{"v1", "v2", "v3", "v4", "v5", "v6", "v7", "v8"}
	var wg sync.WaitGroup
	for _, v := range viewers {
		wg.Add(1)
		go func(viewerID string) {
			defer wg.Done()
			f.tracker.MarkViewed(ctx, f.story.ID, itemID, viewerID)
		}(v)
	}
	wg.Wait()

	assert.Len(t, f.item(t, 0).ViewedBy, len(viewers))
}

type fakeNotificationRepo struct {
	repositories.NotificationRepository
	created []*models.Notification
}

func (r *fakeNotificationRepo) CreateNotification(ctx context.Context, n *models.Notification) error {
	r.created = append(r.created, n)
	return nil
}

func TestNotificationReactionNotifier_CreatesStoryReactionNotification(t *testing.T) {
	repo := &fakeNotificationRepo{}
	notifier := NewNotificationReactionNotifier(repo)
	story := models.Story{ID: "s1", AuthorID: "alice"}

	require.NoError(t, notifier.NotifyReaction(context.Background(), story, "i1", "bob", "🔥"))

	require.Len(t, repo.created, 1)
	n := repo.created[0]
	assert.Equal(t, models.NotificationStoryReaction, n.Type)
	assert.Equal(t, "bob", n.ActorID)
	assert.Equal(t, "alice", n.RecipientID)
	assert.Equal(t, "s1", n.TargetID)
	assert.Equal(t, "i1", n.ItemID)
	assert.Equal(t, "story_item", n.TargetType)
	assert.Contains(t, n.Message, "🔥")
}
