package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/stories/internal/models"
)

// DefaultTickInterval is how often progress advances while playing
const DefaultTickInterval = 50 * time.Millisecond

var (
	ErrNoStories         = errors.New("no stories to play")
	ErrSessionStarted    = errors.New("session already started")
	ErrSessionNotStarted = errors.New("session not started")
	ErrSessionClosed     = errors.New("session closed")
	ErrIndexOutOfRange   = errors.New("index out of range")
)

// State is the playback state of a viewing session
type State int

const (
	StatePlaying State = iota
	StatePaused
	StateFinished
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ViewRecorder records that a viewer saw a story item
type ViewRecorder interface {
	MarkViewed(ctx context.Context, storyID, itemID, viewerID string)
}

// Snapshot is a point-in-time view of a session's position
type Snapshot struct {
	State      State   `json:"state"`
	StoryIndex int     `json:"story_index"`
	ItemIndex  int     `json:"item_index"`
	Progress   float64 `json:"progress"`
	StoryID    string  `json:"story_id"`
	ItemID     string  `json:"item_id"`
	StoryCount int     `json:"story_count"`
	ItemCount  int     `json:"item_count"`
}

type viewTarget struct {
	storyID string
	itemID  string
}

// Session walks a viewer through a fixed list of stories, one item at a time.
// Nothing about a session is persisted.
type Session struct {
	viewerID     string
	stories      []models.Story
	views        ViewRecorder
	tickInterval time.Duration

	mu         sync.Mutex
	ctx        context.Context
	started    bool
	closed     bool
	state      State
	storyIndex int
	itemIndex  int
	progress   float64
	onFinish   func()
}

// NewSession prepares a session over stories in the given order. Stories
// without items are dropped.
func NewSession(viewerID string, stories []models.Story, views ViewRecorder, tickInterval time.Duration) (*Session, error) {
	playable := make([]models.Story, 0, len(stories))
	for _, story := range stories {
		if len(story.Items) > 0 {
			playable = append(playable, story)
		}
	}
	if len(playable) == 0 {
		return nil, ErrNoStories
	}
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	return &Session{
		viewerID:     viewerID,
		stories:      playable,
		views:        views,
		tickInterval: tickInterval,
		ctx:          context.Background(),
	}, nil
}

// OnFinish registers fn to run once when playback runs past the last story
func (s *Session) OnFinish(fn func()) {
	s.mu.Lock()
	s.onFinish = fn
	s.mu.Unlock()
}

// Stories returns the playable stories in session order
func (s *Session) Stories() []models.Story {
	return s.stories
}

// IndexOf returns the session index of the story with the given id, or -1
func (s *Session) IndexOf(storyID string) int {
	for i := range s.stories {
		if s.stories[i].ID == storyID {
			return i
		}
	}
	return -1
}

// Start begins playing at storyIndex, first item, and records the view
func (s *Session) Start(ctx context.Context, storyIndex int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrSessionStarted
	}
	if storyIndex < 0 || storyIndex >= len(s.stories) {
		s.mu.Unlock()
		return ErrIndexOutOfRange
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx = ctx
	s.started = true
	s.state = StatePlaying
	s.storyIndex = storyIndex
	s.itemIndex = 0
	s.progress = 0
	target := s.currentLocked()
	s.mu.Unlock()

	s.record(ctx, target)
	return nil
}

// Tick advances progress by one tick interval while playing and moves on
// once the current item's duration has elapsed. Ticks in any other state are dropped.
func (s *Session) Tick() Snapshot {
	return s.transition(func() (*viewTarget, bool) {
		if !s.started || s.state != StatePlaying {
			return nil, false
		}
		item := s.stories[s.storyIndex].Items[s.itemIndex]
		s.progress += float64(s.tickInterval) * 100 / float64(item.DisplayDuration())
		if s.progress >= 100 {
			return s.advanceItemLocked()
		}
		return nil, false
	})
}

// AdvanceItem moves to the next item, or the next story after the last item
func (s *Session) AdvanceItem() Snapshot {
	return s.transition(s.advanceItemLocked)
}

// AdvanceStory moves to the first item of the next story, finishing after the last
func (s *Session) AdvanceStory() Snapshot {
	return s.transition(s.advanceStoryLocked)
}

// RetreatItem moves to the previous item. From a story's first item it goes
// to the previous story's first item.
func (s *Session) RetreatItem() Snapshot {
	return s.transition(func() (*viewTarget, bool) {
		if !s.active() {
			return nil, false
		}
		if s.itemIndex > 0 {
			s.itemIndex--
			s.progress = 0
			return s.currentLocked(), false
		}
		return s.retreatStoryLocked()
	})
}

// RetreatStory moves to the first item of the previous story; on the first story it does nothing
func (s *Session) RetreatStory() Snapshot {
	return s.transition(s.retreatStoryLocked)
}

// JumpTo shows the given item of the current story from the start
func (s *Session) JumpTo(itemIndex int) (Snapshot, error) {
	var err error
	snap := s.transition(func() (*viewTarget, bool) {
		if !s.started {
			err = ErrSessionNotStarted
			return nil, false
		}
		if s.state == StateFinished {
			err = ErrSessionClosed
			return nil, false
		}
		if itemIndex < 0 || itemIndex >= len(s.stories[s.storyIndex].Items) {
			err = ErrIndexOutOfRange
			return nil, false
		}
		s.itemIndex = itemIndex
		s.progress = 0
		return s.currentLocked(), false
	})
	return snap, err
}

// TogglePause switches between playing and paused, keeping progress as is
func (s *Session) TogglePause() Snapshot {
	return s.transition(func() (*viewTarget, bool) {
		switch {
		case !s.started:
		case s.state == StatePlaying:
			s.state = StatePaused
		case s.state == StatePaused:
			s.state = StatePlaying
		}
		return nil, false
	})
}

// Close ends the session and discards partial progress
func (s *Session) Close() Snapshot {
	return s.transition(func() (*viewTarget, bool) {
		s.closed = true
		s.state = StateFinished
		s.progress = 0
		return nil, false
	})
}

// Snapshot returns the current position
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// transition runs fn under the lock, then records any newly shown item and
// fires the finish callback outside it.
func (s *Session) transition(fn func() (*viewTarget, bool)) Snapshot {
	s.mu.Lock()
	target, finished := fn()
	snap := s.snapshotLocked()
	onFinish := s.onFinish
	ctx := s.ctx
	s.mu.Unlock()

	s.record(ctx, target)
	if finished && onFinish != nil {
		onFinish()
	}
	return snap
}

func (s *Session) active() bool {
	return s.started && s.state != StateFinished
}

func (s *Session) advanceItemLocked() (*viewTarget, bool) {
	if !s.active() {
		return nil, false
	}
	if s.itemIndex < len(s.stories[s.storyIndex].Items)-1 {
		s.itemIndex++
		s.progress = 0
		return s.currentLocked(), false
	}
	return s.advanceStoryLocked()
}

func (s *Session) advanceStoryLocked() (*viewTarget, bool) {
	if !s.active() {
		return nil, false
	}
	if s.storyIndex < len(s.stories)-1 {
		s.storyIndex++
		s.itemIndex = 0
		s.progress = 0
		return s.currentLocked(), false
	}
	s.state = StateFinished
	s.progress = 0
	return nil, true
}

func (s *Session) retreatStoryLocked() (*viewTarget, bool) {
	if !s.active() || s.storyIndex == 0 {
		return nil, false
	}
	s.storyIndex--
	s.itemIndex = 0
	s.progress = 0
	return s.currentLocked(), false
}

func (s *Session) currentLocked() *viewTarget {
	story := s.stories[s.storyIndex]
	return &viewTarget{storyID: story.ID, itemID: story.Items[s.itemIndex].ID}
}

func (s *Session) snapshotLocked() Snapshot {
	story := s.stories[s.storyIndex]
	snap := Snapshot{
		State:      s.state,
		StoryIndex: s.storyIndex,
		ItemIndex:  s.itemIndex,
		Progress:   s.progress,
		StoryID:    story.ID,
		StoryCount: len(s.stories),
		ItemCount:  len(story.Items),
	}
	if s.itemIndex < len(story.Items) {
		snap.ItemID = story.Items[s.itemIndex].ID
	}
	return snap
}

func (s *Session) record(ctx context.Context, target *viewTarget) {
	if target == nil || s.views == nil {
		return
	}
	s.views.MarkViewed(ctx, target.storyID, target.itemID, s.viewerID)
}
