// Package scheduler runs the fixed-interval watch loop.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type WatchConfig struct {
	Interval     time.Duration // e.g. 1*time.Hour
	CycleTimeout time.Duration // bound on a single check cycle
	Run          func(ctx context.Context) error
}

type Watcher struct {
	cfg WatchConfig
	log *zap.SugaredLogger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func NewWatcher(cfg WatchConfig, log *zap.SugaredLogger) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Hour
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = 5 * time.Minute
	}
	return &Watcher{cfg: cfg, log: log}
}

func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.log.Warn("watcher already running")
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	// Initial check on startup.
	go w.runCycle()

	go func() {
		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				w.runCycle()
			}
		}
	}()

	w.log.Infof("watch started, checking every %s", w.cfg.Interval)
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	close(w.stopCh)
	w.running = false
	w.log.Info("watch stopped")
}

func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// CheckNow triggers a cycle outside the normal schedule.
func (w *Watcher) CheckNow(ctx context.Context) error {
	return w.cfg.Run(ctx)
}

func (w *Watcher) runCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.CycleTimeout)
	defer cancel()
	if err := w.cfg.Run(ctx); err != nil {
		w.log.Errorf("check cycle failed: %s", err)
	}
}
