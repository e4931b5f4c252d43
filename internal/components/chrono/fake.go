package chrono

import (
	"context"
	"sync"
	"time"
)

// FakeImpl is a manually driven clock for tests, Sleep advances the clock
// instantly instead of blocking.
type FakeImpl struct {
	mu     sync.Mutex
	now    time.Time
	slept  []time.Duration
	onTick func(time.Time)
}

func NewFakeImpl(start time.Time) *FakeImpl {
	return &FakeImpl{now: start}
}

func (f *FakeImpl) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *FakeImpl) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	if d > 0 {
		f.now = f.now.Add(d)
	}
	f.slept = append(f.slept, d)
	now := f.now
	onTick := f.onTick
	f.mu.Unlock()

	if onTick != nil {
		onTick(now)
	}
	return nil
}

// Advance moves the clock forward without recording a sleep.
func (f *FakeImpl) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Slept returns every duration passed to Sleep so far.
func (f *FakeImpl) Slept() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.slept))
	copy(out, f.slept)
	return out
}

// OnSleep registers a callback invoked after every Sleep with the new time.
func (f *FakeImpl) OnSleep(fn func(time.Time)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onTick = fn
}

// After advances the clock by d like Sleep and returns an already fired
// channel.
func (f *FakeImpl) After(d time.Duration) <-chan time.Time {
	_ = f.Sleep(context.Background(), d)
	out := make(chan time.Time, 1)
	out <- f.Now()
	return out
}
