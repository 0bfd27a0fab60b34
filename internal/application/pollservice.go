package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// refresher is the slice of RefreshService the scheduler drives.
type refresher interface {
	ProcessAll(ctx context.Context) error
	RefreshUser(ctx context.Context, user model.User) error
}

// refreshRequest represents a manual refresh trigger for one user.
type refreshRequest struct {
	user model.User
	done chan error
}

// PollService runs the periodic refresh loop. Manual refresh requests are
// funneled through the same goroutine as the ticker, so a foreground refresh
// never races a background pass over the same user.
type PollService struct {
	refresher refresher
	notifier  driven.Notifier
	interval  time.Duration
	refreshCh chan refreshRequest
}

// NewPollService creates a PollService ticking at interval.
func NewPollService(r refresher, notifier driven.Notifier, interval time.Duration) *PollService {
	return &PollService{
		refresher: r,
		notifier:  notifier,
		interval:  interval,
		refreshCh: make(chan refreshRequest),
	}
}

// Start begins the polling loop. It runs an immediate pass, then one per
// interval, and serves manual refresh requests in between. Each completed
// iteration emits a heartbeat. Start blocks until the context is canceled.
func (s *PollService) Start(ctx context.Context) {
	n := 0
	runPass := func() {
		if err := s.refresher.ProcessAll(ctx); err != nil && ctx.Err() == nil {
			slog.Error("refresh pass failed", "error", err)
		}
		n++
		s.notifier.Tick(n)
	}

	runPass()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("poll service stopped", "iterations", n)
			return
		case <-ticker.C:
			runPass()
		case req := <-s.refreshCh:
			req.done <- s.refresher.RefreshUser(ctx, req.user)
		}
	}
}

// RefreshNow triggers an immediate refresh for one user, bypassing the
// interval and the staleness check. It blocks until the refresh completes or
// the context is canceled.
func (s *PollService) RefreshNow(ctx context.Context, user model.User) error {
	done := make(chan error, 1)
	req := refreshRequest{user: user, done: done}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
