package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
	"github.com/hederavault/walletd/internal/metrics"
)

const (
	DefaultPollMaxAttempts = 30
	DefaultPollInterval    = 2 * time.Second
)

// StatusTracker derives a user's provisioning state from the remote
// provisioning service. A 404 is the new-user signal, not an error.
type StatusTracker struct {
	api      ports.ProvisioningAPI
	log      zerolog.Logger
	now      func() time.Time
	defaults ports.PollOptions
}

// NewStatusTracker returns a StatusTracker. Zero poll defaults fall back to
// DefaultPollMaxAttempts and DefaultPollInterval.
func NewStatusTracker(api ports.ProvisioningAPI, defaults ports.PollOptions, log zerolog.Logger) *StatusTracker {
	if defaults.MaxAttempts <= 0 {
		defaults.MaxAttempts = DefaultPollMaxAttempts
	}
	if defaults.Interval <= 0 {
		defaults.Interval = DefaultPollInterval
	}
	return &StatusTracker{api: api, log: log, now: time.Now, defaults: defaults}
}

// Lookup queries the provisioning service once and tags the outcome.
func (t *StatusTracker) Lookup(ctx context.Context, user *domain.User) domain.StatusResult {
	resp, err := t.api.ProvisioningStatus(ctx, user.ID)
	switch {
	case err == nil:
		return domain.StatusResult{Kind: domain.StatusFound, Status: t.toStatus(resp)}
	case errors.Is(err, domain.ErrProvisioningNotFound):
		return domain.StatusResult{Kind: domain.StatusNotFound}
	case domain.IsAuthError(err):
		return domain.StatusResult{Kind: domain.StatusAuthFailure, Err: err}
	default:
		return domain.StatusResult{Kind: domain.StatusTransientError, Err: err}
	}
}

// GetStatus returns the user's provisioning status. Only authentication
// failures are returned as errors; a missing record or a transient backend
// failure yields the synthesized new-user status so onboarding can proceed.
func (t *StatusTracker) GetStatus(ctx context.Context, user *domain.User) (*domain.OnboardingStatus, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	res := t.Lookup(ctx, user)
	metrics.StatusChecksTotal.WithLabelValues(res.Kind.String()).Inc()

	switch res.Kind {
	case domain.StatusFound:
		return res.Status, nil
	case domain.StatusNotFound:
		t.log.Debug().Str("user_id", user.ID).Msg("no provisioning record, treating as new user")
		return domain.NewUserStatus(t.now().UTC()), nil
	case domain.StatusAuthFailure:
		return nil, fmt.Errorf("get onboarding status: %w: %v", domain.ErrNotAuthenticated, res.Err)
	default:
		t.log.Warn().Err(res.Err).Str("user_id", user.ID).Msg("status check failed, treating as new user")
		return domain.NewUserStatus(t.now().UTC()), nil
	}
}

// WaitForCompletion polls GetStatus at a fixed interval until the backend
// reports completed or failed, or the attempts run out. A failing poll
// counts as an attempt but does not end the loop.
func (t *StatusTracker) WaitForCompletion(ctx context.Context, user *domain.User, opts ports.PollOptions) (*domain.OnboardingStatus, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = t.defaults.MaxAttempts
	}
	if opts.Interval <= 0 {
		opts.Interval = t.defaults.Interval
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		status, err := t.GetStatus(ctx, user)
		switch {
		case err != nil:
			t.log.Warn().Err(err).Int("attempt", attempt).Msg("status poll failed")
		case status.OnboardingStatus == domain.OnboardingCompleted:
			return status, nil
		case status.OnboardingStatus == domain.OnboardingFailed:
			msg := status.OnboardingError
			if msg == "" {
				msg = "provisioning failed"
			}
			return status, fmt.Errorf("%w: %s", domain.ErrOnboardingFailed, msg)
		}

		if attempt == opts.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.Interval):
		}
	}

	return nil, fmt.Errorf("wait for completion after %d attempts: %w", opts.MaxAttempts, domain.ErrPollTimeout)
}

func (t *StatusTracker) toStatus(resp *ports.ProvisioningStatusResponse) *domain.OnboardingStatus {
	status := &domain.OnboardingStatus{
		OnboardingStatus: domain.OnboardingState(resp.OnboardingStatus),
		HederaAccountID:  resp.HederaAccountID,
		WalletExists:     resp.WalletExists && resp.HederaAccountID != "",
		OnboardingError:  resp.OnboardingError,
		Timestamp:        resp.Timestamp,
	}
	if status.OnboardingStatus == "" {
		status.OnboardingStatus = domain.OnboardingPending
	}
	if status.Timestamp.IsZero() {
		status.Timestamp = t.now().UTC()
	}
	return status
}
