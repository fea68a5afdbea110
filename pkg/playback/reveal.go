package playback

import (
	"context"
	"sync"
	"time"
)

// DefaultRevealInterval matches the original 20ms-per-character pacing.
const DefaultRevealInterval = 20 * time.Millisecond

// Revealer types dialogue onto a sink one character at a time. Starting a
// new reveal cancels the previous run: every emission checks the run's
// generation under the lock, so characters from two runs can never
// interleave on the sink.
type Revealer struct {
	mu       sync.Mutex
	interval time.Duration
	sink     func(string)
	gen      uint64
	cancel   context.CancelFunc
}

// NewRevealer builds a revealer writing to sink. A non-positive interval
// falls back to DefaultRevealInterval.
func NewRevealer(interval time.Duration, sink func(string)) *Revealer {
	if interval <= 0 {
		interval = DefaultRevealInterval
	}
	return &Revealer{interval: interval, sink: sink}
}

// Start clears the sink and reveals text left to right. Any in-flight
// reveal is cancelled first.
func (r *Revealer) Start(text string) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.gen++
	gen := r.gen
	r.sink("")
	r.mu.Unlock()

	go r.run(ctx, gen, text)
}

// Stop cancels any in-flight reveal. Subsequent writes to the dialogue
// area (reaction text) cannot be clobbered by a stale tick.
func (r *Revealer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
}

func (r *Revealer) run(ctx context.Context, gen uint64, text string) {
	runes := []rune(text)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for i := 1; i <= len(runes); i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !r.emit(gen, string(runes[:i])) {
			return
		}
	}
}

// emit writes a prefix to the sink unless the run has been superseded.
func (r *Revealer) emit(gen uint64, s string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return false
	}
	r.sink(s)
	return true
}
