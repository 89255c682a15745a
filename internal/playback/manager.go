package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/stories/internal/models"
)

// Manager keeps at most one open Player per viewer.
type Manager struct {
	ctx          context.Context
	views        ViewRecorder
	tickInterval time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	players map[string]*Player
}

// NewManager creates a Manager. Players outlive individual requests and are
// closed when ctx is cancelled.
func NewManager(ctx context.Context, views ViewRecorder, tickInterval time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		ctx:          ctx,
		views:        views,
		tickInterval: tickInterval,
		logger:       logger,
		players:      make(map[string]*Player),
	}
}

// Open starts a new session for viewerID over stories, beginning at the story
// with startStoryID (or the first story when empty). Any session the viewer
// already had open is closed first.
func (m *Manager) Open(viewerID string, stories []models.Story, startStoryID string) (*Player, error) {
	session, err := NewSession(viewerID, stories, m.views, m.tickInterval)
	if err != nil {
		return nil, err
	}
	start := 0
	if startStoryID != "" {
		if start = session.IndexOf(startStoryID); start < 0 {
			return nil, ErrIndexOutOfRange
		}
	}

	m.mu.Lock()
	if old, ok := m.players[viewerID]; ok {
		delete(m.players, viewerID)
		old.Close()
	}
	player := NewPlayer(session)
	if err := player.Play(m.ctx, start); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.players[viewerID] = player
	m.mu.Unlock()

	go func() {
		<-player.Done()
		m.forget(viewerID, player)
	}()

	m.logger.Debug("viewing session opened", "viewer_id", viewerID, "stories", len(session.Stories()), "start", start)
	return player, nil
}

// Current returns the viewer's open player
func (m *Manager) Current(viewerID string) (*Player, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[viewerID]
	return p, ok
}

// Close ends the viewer's open session, if any
func (m *Manager) Close(viewerID string) bool {
	m.mu.Lock()
	p, ok := m.players[viewerID]
	delete(m.players, viewerID)
	m.mu.Unlock()

	if !ok {
		return false
	}
	p.Close()
	return true
}

// CloseAll ends every open session
func (m *Manager) CloseAll() {
	m.mu.Lock()
	players := m.players
	m.players = make(map[string]*Player)
	m.mu.Unlock()

	for _, p := range players {
		p.Close()
	}
}

func (m *Manager) forget(viewerID string, player *Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.players[viewerID] == player {
		delete(m.players, viewerID)
	}
}
