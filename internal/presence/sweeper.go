package presence

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Sweeper drives periodic SweepOnce passes on a fixed interval. One pass
// runs at a time: a tick that arrives while a pass is still in flight is
// skipped rather than queued.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	timeout  time.Duration

	inFlight atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewSweeper(svc *Service, interval, timeout time.Duration) *Sweeper {
	return &Sweeper{
		svc:      svc,
		interval: interval,
		timeout:  timeout,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start spawns the sweep loop and returns immediately.
func (s *Sweeper) Start() {
	go s.run()
}

// Stop halts the loop and waits for any in-flight pass to finish. Safe to
// call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("presence sweeper started",
		"interval", s.interval, "timeout", s.timeout)

	for {
		select {
		case <-s.stop:
			slog.Info("presence sweeper stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	if !s.inFlight.CompareAndSwap(false, true) {
		slog.Warn("presence sweep still in flight, skipping tick")
		return
	}
	defer s.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	if err := s.svc.SweepOnce(ctx, s.timeout); err != nil {
		slog.Error("presence sweep aborted", "error", err)
	}
}
