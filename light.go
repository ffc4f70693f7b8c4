package crossing

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// ErrAlreadyStarted is returned by Simulate when the cycling goroutine is
// already running.
var ErrAlreadyStarted = errors.New("simulation already started")

// Rand draws a non-negative pseudo-random integer below n. *math/rand.Rand
// satisfies it; tests substitute a deterministic sequence to pin down toggle
// times.
type Rand interface {
	Intn(n int) int
}

// TrafficLight owns the phase of a single intersection. A background goroutine
// started by Simulate toggles the phase between red and green on a randomized
// timer and hands each new phase to waiters through a SignalQueue.
//
// The phase field is written only by the cycling goroutine and read through
// CurrentPhase by anyone. The queue is the transient notification channel:
// WaitForGreen trusts only values delivered through it, never the polled
// field, so a slightly stale CurrentPhase between toggle and send is harmless.
type TrafficLight struct {
	id     int
	cfg    *LightConfig
	rng    Rand
	queue  *SignalQueue[Phase]
	logger *slog.Logger

	mu      sync.RWMutex
	phase   Phase
	started atomic.Bool
}

// NewTrafficLight creates a light in the red phase with an empty queue.
// A nil cfg gets the defaults.
func NewTrafficLight(cfg *LightConfig) *TrafficLight {
	if cfg == nil {
		cfg = &LightConfig{}
	}
	cfg.applyDefaults()
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &TrafficLight{
		id:     cfg.ID,
		cfg:    cfg,
		rng:    rng,
		queue:  NewSignalQueue[Phase](),
		logger: newLightLogger(cfg.ID),
		phase:  PhaseRed,
	}
}

// ID returns the light's diagnostic label.
func (l *TrafficLight) ID() int {
	return l.id
}

// CurrentPhase returns the most recently committed phase without blocking.
// Before Simulate it is always red.
func (l *TrafficLight) CurrentPhase() Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// Simulate starts the cycling goroutine and returns immediately. The goroutine
// runs until ctx is cancelled; with a background context it runs for the life
// of the process. A second call fails fast with ErrAlreadyStarted instead of
// racing a second writer against the first.
func (l *TrafficLight) Simulate(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	go l.cycleThroughPhases(ctx)
	return nil
}

// WaitForGreen blocks the caller until the light turns green. Every green
// toggle is delivered to exactly one waiter, so with several concurrent
// callers each green releases one of them and the rest are released by
// subsequent greens. The only error is ctx's; with a background context the
// call waits as long as it takes.
func (l *TrafficLight) WaitForGreen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.cfg.Tick):
		}
		p, err := l.queue.ReceiveContext(ctx)
		if err != nil {
			return err
		}
		if p == PhaseGreen {
			return nil
		}
	}
}

// cycleThroughPhases polls every tick and, once the drawn cycle duration has
// elapsed, toggles the phase and publishes it, then redraws the duration.
func (l *TrafficLight) cycleThroughPhases(ctx context.Context) {
	cycle := l.nextCycle()
	lastToggle := time.Now()
	ticker := time.NewTicker(l.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if time.Since(lastToggle) < cycle {
			continue
		}
		p := l.toggle()
		l.logger.Info("phase changed", "phase", p, "cycle", cycle.String())
		// Drop anything a slow waiter has not collected yet, then publish.
		// A receiver must never be handed a phase older than this toggle.
		l.queue.Clear()
		l.queue.Send(p)
		lastToggle = time.Now()
		cycle = l.nextCycle()
	}
}

func (l *TrafficLight) toggle() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.phase = l.phase.Toggle()
	return l.phase
}

// nextCycle draws the next cycle duration uniformly from the configured
// inclusive range.
func (l *TrafficLight) nextCycle() time.Duration {
	min, max := l.cfg.CycleMin, l.cfg.CycleMax
	if max <= min {
		return min
	}
	return min + time.Duration(l.rng.Intn(int(max-min)+1))
}
