package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Shutdown drains the engine's external resources on exit. Hooks run in
// parallel: closing the settings database, dropping the bundle cache
// connection and flushing sentry have no ordering dependencies between them.
type Shutdown struct {
	mu    sync.Mutex
	hooks []Hook
	log   *slog.Logger
}

func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}
	return &Shutdown{log: log}
}

// Add queues a drain hook. Hooks with a nil Fn are ignored.
func (s *Shutdown) Add(h Hook) {
	if h.Fn == nil {
		return
	}
	s.mu.Lock()
	s.hooks = append(s.hooks, h)
	s.mu.Unlock()
}

// Register queues a named drain hook built from a bare function.
func (s *Shutdown) Register(name string, fn func(context.Context) error) {
	s.Add(Hook{Name: name, Fn: fn})
}

// Execute drains every registered hook and waits for all of them. The ctx
// deadline bounds the whole drain. The returned error joins every hook
// failure, one per failed hook.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	hooks := append([]Hook(nil), s.hooks...)
	s.mu.Unlock()

	start := time.Now()
	s.log.Info("draining engine resources", slog.Int("hooks", len(hooks)))

	var wg sync.WaitGroup
	var failMu sync.Mutex
	var failed []error

	for _, h := range hooks {
		wg.Add(1)
		go func(h Hook) {
			defer wg.Done()

			hookStart := time.Now()
			if err := h.Fn(ctx); err != nil {
				s.log.Error("drain hook failed",
					slog.String("hook", h.Name),
					slog.Any("error", err),
				)
				failMu.Lock()
				failed = append(failed, fmt.Errorf("%s: %w", h.Name, err))
				failMu.Unlock()
				return
			}

			s.log.Info("drain hook finished",
				slog.String("hook", h.Name),
				slog.Duration("elapsed", time.Since(hookStart)),
			)
		}(h)
	}

	wg.Wait()
	s.log.Info("drain complete", slog.Duration("elapsed", time.Since(start)))

	return errors.Join(failed...)
}
