// Package scheduler runs the background proactive session refresh.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/metrics"
)

const defaultInterval = time.Minute

// Refreshable is implemented by the token manager.
type Refreshable interface {
	RefreshIfDue(ctx context.Context) (bool, error)
}

// Refresher periodically asks the token manager to refresh a session that
// has entered its proactive refresh window, so foreground calls rarely pay
// for a refresh themselves.
type Refresher struct {
	target   Refreshable
	interval time.Duration
	log      zerolog.Logger

	wg sync.WaitGroup
}

// NewRefresher creates a Refresher. If interval <= 0, defaultInterval is used.
func NewRefresher(target Refreshable, interval time.Duration, log zerolog.Logger) *Refresher {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Refresher{target: target, interval: interval, log: log}
}

// Start launches the refresh loop. It stops when ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.run(ctx)
}

// Wait blocks until the loop started by Start has returned.
func (r *Refresher) Wait() {
	r.wg.Wait()
}

func (r *Refresher) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	refreshed, err := r.target.RefreshIfDue(ctx)
	result := "not_due"
	switch {
	case err == nil && refreshed:
		result = "refreshed"
		r.log.Debug().Msg("proactive refresh completed")
	case err == nil:
	case errors.Is(err, context.Canceled):
		return
	case errors.Is(err, domain.ErrUnsupported):
		result = "unsupported"
	default:
		result = "error"
		r.log.Warn().Err(err).Msg("proactive refresh failed")
	}
	metrics.ProactiveRefreshTicksTotal.WithLabelValues(result).Inc()
}
