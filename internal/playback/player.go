package playback

import (
	"context"
	"sync"
)

// Player drives a Session with a Ticker so items advance on their own.
type Player struct {
	session *Session
	ticker  *Ticker

	// pauseMu keeps the session and ticker pause states in step
	pauseMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

// NewPlayer wraps session; ticks fire at the session's tick interval
func NewPlayer(session *Session) *Player {
	return &Player{
		session: session,
		ticker:  NewTicker(session.tickInterval),
		done:    make(chan struct{}),
	}
}

// Play starts the session at storyIndex and begins auto-advance. Cancelling
// ctx closes the player.
func (p *Player) Play(ctx context.Context, storyIndex int) error {
	if err := p.session.Start(ctx, storyIndex); err != nil {
		return err
	}
	onTick := func() bool {
		return p.session.Tick().State == StateFinished
	}
	if err := p.ticker.Start(onTick, p.markDone); err != nil {
		p.session.Close()
		p.markDone()
		return err
	}
	go func() {
		select {
		case <-ctx.Done():
			p.Close()
		case <-p.done:
		}
	}()
	return nil
}

func (p *Player) markDone() {
	p.closeOnce.Do(func() { close(p.done) })
}

// Done is closed once playback has finished or the player was closed
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Snapshot returns the session's position
func (p *Player) Snapshot() Snapshot {
	return p.session.Snapshot()
}

// Session exposes the underlying state machine
func (p *Player) Session() *Session {
	return p.session
}

// Next moves to the next item
func (p *Player) Next() Snapshot {
	return p.settle(p.session.AdvanceItem())
}

// Previous moves to the previous item
func (p *Player) Previous() Snapshot {
	return p.settle(p.session.RetreatItem())
}

// NextStory skips to the next story
func (p *Player) NextStory() Snapshot {
	return p.settle(p.session.AdvanceStory())
}

// PreviousStory goes back to the previous story
func (p *Player) PreviousStory() Snapshot {
	return p.settle(p.session.RetreatStory())
}

// JumpTo shows the given item of the current story
func (p *Player) JumpTo(itemIndex int) (Snapshot, error) {
	snap, err := p.session.JumpTo(itemIndex)
	if err != nil {
		return snap, err
	}
	return p.settle(snap), nil
}

// TogglePause pauses or resumes both the session and its ticker
func (p *Player) TogglePause() Snapshot {
	p.pauseMu.Lock()
	defer p.pauseMu.Unlock()
	snap := p.session.TogglePause()
	switch snap.State {
	case StatePaused:
		p.ticker.Pause()
	case StatePlaying:
		p.ticker.Resume()
	}
	return snap
}

// Close stops the ticker and ends the session. It must not be called from a
// finish callback.
func (p *Player) Close() Snapshot {
	snap := p.session.Close()
	p.ticker.Cancel()
	p.markDone()
	return snap
}

// settle closes the player when a manual navigation ran past the last story
func (p *Player) settle(snap Snapshot) Snapshot {
	if snap.State == StateFinished {
		p.ticker.Cancel()
		p.markDone()
	}
	return snap
}
