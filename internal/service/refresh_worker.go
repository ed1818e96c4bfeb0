package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RefreshFunc runs one refresh cycle for the given trigger.
type RefreshFunc func(ctx context.Context, trigger string)

// RefreshWorker is the periodic dashboard refresh timer. There is at most one
// running loop; Restart replaces it and Stop cancels it. Login and logout
// both go through here so timers never pile up across sessions.
type RefreshWorker struct {
	interval time.Duration
	refresh  RefreshFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	runID  uint64
}

// NewRefreshWorker creates a worker that ticks every interval. A non-positive
// interval means hourly.
func NewRefreshWorker(interval time.Duration, refresh RefreshFunc) *RefreshWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RefreshWorker{
		interval: interval,
		refresh:  refresh,
	}
}

// Restart cancels any running loop and starts a new one. The new loop runs
// one refresh immediately with the given trigger, then every interval.
func (w *RefreshWorker) Restart(parent context.Context, trigger string) {
	ctx, cancel := context.WithCancel(parent)

	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.cancel = cancel
	w.runID++
	id := w.runID
	w.mu.Unlock()

	go w.run(ctx, id, trigger)
}

// Stop cancels the running loop, if any. It does not wait for an in-flight
// refresh, so it is safe to call from inside one.
func (w *RefreshWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

// Running reports whether a loop is active.
func (w *RefreshWorker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

func (w *RefreshWorker) run(ctx context.Context, id uint64, trigger string) {
	log.Info().Uint64("run", id).Dur("interval", w.interval).Msg("refresh-worker: starting")

	w.refresh(ctx, trigger)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refresh(ctx, TriggerTimer)
		case <-ctx.Done():
			log.Info().Uint64("run", id).Msg("refresh-worker: stopping")
			return
		}
	}
}
