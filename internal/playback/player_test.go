package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/stories/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shortStory holds one-second items so a player with a 100ms tick advances
// every ten ticks.
func shortStory(id string, itemIDs ...string) models.Story {
	s := story(id, itemIDs...)
	for i := range s.Items {
		s.Items[i].MediaType = models.MediaVideo
		s.Items[i].DisplayDurationSeconds = 1
	}
	return s
}

const playerTick = 100 * time.Millisecond

func newTestPlayer(t *testing.T, rec ViewRecorder, stories ...models.Story) *Player {
	t.Helper()
	s, err := NewSession("viewer", stories, rec, playerTick)
	require.NoError(t, err)
	p := NewPlayer(s)
	t.Cleanup(func() { p.Close() })
	return p
}

func waitDone(t *testing.T, p *Player) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("player did not finish")
	}
}

func TestPlayer_AutoAdvancesToFinish(t *testing.T) {
	rec := &fakeRecorder{}
	p := newTestPlayer(t, rec, shortStory("A", "a1"), shortStory("B", "b1"))
	require.NoError(t, p.Play(context.Background(), 0))

	waitDone(t, p)
	assert.Equal(t, StateFinished, p.Snapshot().State)
	assert.Equal(t, []string{"A/a1@viewer", "B/b1@viewer"}, rec.seen())
}

func TestPlayer_PauseFreezesProgress(t *testing.T) {
	p := newTestPlayer(t, nil, shortStory("A", "a1"))
	require.NoError(t, p.Play(context.Background(), 0))
	require.Eventually(t, func() bool { return p.Snapshot().Progress > 0 }, time.Second, 10*time.Millisecond)

	paused := p.TogglePause()
	require.Equal(t, StatePaused, paused.State)
	time.Sleep(3 * playerTick)
	assert.Equal(t, paused.Progress, p.Snapshot().Progress)

	assert.Equal(t, StatePlaying, p.TogglePause().State)
	require.Eventually(t, func() bool { return p.Snapshot().Progress > paused.Progress }, time.Second, 10*time.Millisecond)
}

func TestPlayer_ManualNavigationPastEndFinishes(t *testing.T) {
	p := newTestPlayer(t, nil, story("A", "a1", "a2"), story("B", "b1"))
	require.NoError(t, p.Play(context.Background(), 0))

	assert.Equal(t, "a2", p.Next().ItemID)
	assert.Equal(t, "a1", p.Previous().ItemID)
	assert.Equal(t, "b1", p.NextStory().ItemID)
	assert.Equal(t, "a1", p.PreviousStory().ItemID)

	snap, err := p.JumpTo(1)
	require.NoError(t, err)
	assert.Equal(t, "a2", snap.ItemID)
	_, err = p.JumpTo(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	p.NextStory()
	assert.Equal(t, StateFinished, p.NextStory().State)
	waitDone(t, p)
}

func TestPlayer_CloseStopsPlayback(t *testing.T) {
	p := newTestPlayer(t, nil, story("A", "a1"))
	require.NoError(t, p.Play(context.Background(), 0))

	snap := p.Close()
	assert.Equal(t, StateFinished, snap.State)
	assert.Zero(t, snap.Progress)
	waitDone(t, p)

	time.Sleep(2 * playerTick)
	assert.Equal(t, snap, p.Snapshot())
}

func TestPlayer_ContextCancellationCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newTestPlayer(t, nil, story("A", "a1"))
	require.NoError(t, p.Play(ctx, 0))

	cancel()
	waitDone(t, p)
	assert.Equal(t, StateFinished, p.Snapshot().State)
}

func TestPlayer_PlayRejectsBadIndex(t *testing.T) {
	p := newTestPlayer(t, nil, story("A", "a1"))
	assert.ErrorIs(t, p.Play(context.Background(), 3), ErrIndexOutOfRange)
}

func TestPlayer_ConcurrentTogglesKeepTickerInStep(t *testing.T) {
	p := newTestPlayer(t, nil, shortStory("A", "a1"))
	require.NoError(t, p.Play(context.Background(), 0))

	for round := 0; round < 50; round++ {
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.TogglePause()
			}()
		}
		wg.Wait()

		p.ticker.mu.Lock()
		tickerPaused := p.ticker.paused
		p.ticker.mu.Unlock()
		require.Equal(t, p.Snapshot().State == StatePaused, tickerPaused, "round %d", round)
	}
}
