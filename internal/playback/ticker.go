package playback

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrTickerStarted   = errors.New("ticker already started")
	ErrTickerCancelled = errors.New("ticker cancelled")
)

// Ticker is a cancellable periodic task that can be paused and resumed.
type Ticker struct {
	interval time.Duration

	mu        sync.Mutex
	started   bool
	cancelled bool
	paused    bool

	pauseCh chan bool
	cancel  chan struct{}
	done    chan struct{}
}

// NewTicker creates a Ticker firing every interval once started
func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{
		interval: interval,
		pauseCh:  make(chan bool),
		cancel:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins ticking. onTick runs on every tick; when it returns true the
// task ends and onComplete runs once. Both run on the ticker's goroutine, so
// they must not call Cancel.
func (t *Ticker) Start(onTick func() bool, onComplete func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return ErrTickerCancelled
	}
	if t.started {
		return ErrTickerStarted
	}
	t.started = true
	go t.run(onTick, onComplete, t.paused)
	return nil
}

// run fires onTick at deadlines interval apart. Pausing freezes the time left
// until the next deadline so resuming carries it over.
func (t *Ticker) run(onTick func() bool, onComplete func(), paused bool) {
	defer close(t.done)

	remaining := t.interval
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	deadline := time.Now().Add(remaining)
	tickC := timer.C
	if paused {
		timer.Stop()
		tickC = nil
	}

	for {
		select {
		case <-t.cancel:
			return
		case p := <-t.pauseCh:
			if p {
				if tickC == nil {
					continue
				}
				timer.Stop()
				tickC = nil
				remaining = max(time.Until(deadline), 0)
			} else {
				timer.Reset(remaining)
				deadline = time.Now().Add(remaining)
				tickC = timer.C
			}
		case <-tickC:
			select {
			case <-t.cancel:
				return
			default:
			}
			if onTick() {
				if onComplete != nil {
					onComplete()
				}
				return
			}
			deadline = deadline.Add(t.interval)
			timer.Reset(max(time.Until(deadline), 0))
		}
	}
}

// Pause suspends ticking until Resume
func (t *Ticker) Pause() {
	t.setPaused(true)
}

// Resume restarts ticking after Pause. The next tick comes after whatever was
// left of the interval when Pause was called.
func (t *Ticker) Resume() {
	t.setPaused(false)
}

func (t *Ticker) setPaused(paused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused == paused || t.cancelled {
		return
	}
	t.paused = paused
	if !t.started {
		return
	}
	select {
	case t.pauseCh <- paused:
	case <-t.done:
	case <-t.cancel:
	}
}

// Cancel stops the task. Once it returns no further tick runs.
func (t *Ticker) Cancel() {
	t.mu.Lock()
	if !t.cancelled {
		t.cancelled = true
		close(t.cancel)
	}
	started := t.started
	t.mu.Unlock()

	if started {
		<-t.done
	}
}

// Done is closed when the ticking goroutine has exited
func (t *Ticker) Done() <-chan struct{} {
	return t.done
}
