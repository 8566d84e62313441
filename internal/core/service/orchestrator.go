package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
	"github.com/hederavault/walletd/internal/metrics"
)

const (
	// DefaultStepDelay paces the steps that have no remote work of their own
	// so each one is visible to the user.
	DefaultStepDelay = 800 * time.Millisecond
	// DefaultCompletionDelay is how long the success state is shown before
	// the completion callback fires.
	DefaultCompletionDelay = 2 * time.Second
)

var (
	errSuperseded       = errors.New("onboarding run superseded")
	errAlreadyCompleted = errors.New("onboarding already completed")
)

// OrchestratorOptions tunes the onboarding flow. Zero delays fall back to
// the defaults; use a negative value to disable a delay.
type OrchestratorOptions struct {
	StepDelay       time.Duration
	CompletionDelay time.Duration
	Poll            ports.PollOptions
	Wallet          ports.CreateWalletRequest
	// OnComplete runs once per completed flow, after CompletionDelay.
	OnComplete func(ctx context.Context, snap ports.OnboardingSnapshot)
}

// Orchestrator drives the user-visible onboarding step machine:
//
//	account_created → wallet_init → key_generation → account_creation → ready
//
// Steps run strictly in order. An error halts the machine until Retry.
// Every run carries a generation number; a run that has been superseded by
// a retry or a sign-out can no longer change state.
type Orchestrator struct {
	users   ports.UserSource
	status  ports.StatusService
	wallets ports.WalletService
	audit   ports.AuditLog
	opts    OrchestratorOptions
	log     zerolog.Logger
	now     func() time.Time

	mu         sync.Mutex
	steps      []domain.OnboardingStep
	current    int
	state      ports.OnboardingState
	generation uint64
	runID      string
	userID     string
	completed  bool
	wallet     *domain.SecureWalletInfo
	lastErr    string
	updatedAt  time.Time
	cancel     context.CancelFunc
}

// NewOrchestrator returns an idle Orchestrator. audit may be nil.
func NewOrchestrator(
	users ports.UserSource,
	status ports.StatusService,
	wallets ports.WalletService,
	audit ports.AuditLog,
	opts OrchestratorOptions,
	log zerolog.Logger,
) *Orchestrator {
	if opts.StepDelay == 0 {
		opts.StepDelay = DefaultStepDelay
	}
	if opts.CompletionDelay == 0 {
		opts.CompletionDelay = DefaultCompletionDelay
	}
	return &Orchestrator{
		users:     users,
		status:    status,
		wallets:   wallets,
		audit:     audit,
		opts:      opts,
		log:       log,
		now:       time.Now,
		steps:     domain.DefaultOnboardingSteps(),
		state:     ports.OnboardingIdle,
		updatedAt: time.Now().UTC(),
	}
}

// Run executes the flow and blocks until it completes or a step fails.
// Once onboarding has completed, Run is a no-op.
func (o *Orchestrator) Run(ctx context.Context) error {
	runCtx, gen, runID, err := o.begin(ctx, false)
	if errors.Is(err, errAlreadyCompleted) {
		return nil
	}
	if err != nil {
		return err
	}
	return o.run(runCtx, gen, runID)
}

// RunRetry resets every step after the first to pending and runs the flow
// again from the start, blocking until it ends.
func (o *Orchestrator) RunRetry(ctx context.Context) error {
	runCtx, gen, runID, err := o.begin(ctx, true)
	if errors.Is(err, errAlreadyCompleted) {
		return nil
	}
	if err != nil {
		return err
	}
	return o.run(runCtx, gen, runID)
}

// Start launches the flow in the background, detached from ctx
// cancellation; Reset abandons it. It reports false when the flow is
// already running, halted or completed.
func (o *Orchestrator) Start(ctx context.Context) bool {
	runCtx, gen, runID, err := o.begin(context.WithoutCancel(ctx), false)
	if err != nil {
		return false
	}
	go func() { _ = o.run(runCtx, gen, runID) }()
	return true
}

// Retry restarts a halted flow in the background.
func (o *Orchestrator) Retry(ctx context.Context) bool {
	runCtx, gen, runID, err := o.begin(context.WithoutCancel(ctx), true)
	if err != nil {
		return false
	}
	go func() { _ = o.run(runCtx, gen, runID) }()
	return true
}

// Reset abandons any run in flight and returns to a fresh, idle machine.
// Used on sign-out.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.generation++
	o.steps = domain.DefaultOnboardingSteps()
	o.current = 0
	o.state = ports.OnboardingIdle
	o.runID = ""
	o.userID = ""
	o.completed = false
	o.wallet = nil
	o.lastErr = ""
	o.updatedAt = o.now().UTC()
}

// Snapshot returns a copy of the current machine state.
func (o *Orchestrator) Snapshot() ports.OnboardingSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() ports.OnboardingSnapshot {
	steps := make([]domain.OnboardingStep, len(o.steps))
	copy(steps, o.steps)

	done := 0
	for _, s := range steps {
		if s.Status == domain.StepCompleted {
			done++
		}
	}

	var wallet *domain.SecureWalletInfo
	if o.wallet != nil {
		w := *o.wallet
		wallet = &w
	}

	return ports.OnboardingSnapshot{
		RunID:     o.runID,
		State:     o.state,
		Steps:     steps,
		Current:   o.current,
		Progress:  done * 100 / len(steps),
		Completed: o.completed,
		Wallet:    wallet,
		Error:     o.lastErr,
		UpdatedAt: o.updatedAt,
	}
}

// begin claims the machine for a new run.
func (o *Orchestrator) begin(ctx context.Context, retry bool) (context.Context, uint64, string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.completed:
		return nil, 0, "", errAlreadyCompleted
	case o.state == ports.OnboardingRunning:
		return nil, 0, "", domain.ErrOnboardingRunning
	case o.state == ports.OnboardingHalted && !retry:
		return nil, 0, "", domain.ErrOnboardingHalted
	}

	if retry {
		o.steps = domain.DefaultOnboardingSteps()
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.generation++
	o.runID = uuid.NewString()
	o.state = ports.OnboardingRunning
	o.current = 0
	o.lastErr = ""
	o.updatedAt = o.now().UTC()

	o.log.Info().Str("run_id", o.runID).Bool("retry", retry).Msg("onboarding started")
	return runCtx, o.generation, o.runID, nil
}

// runState carries what earlier steps learned to later ones.
type runState struct {
	user   *domain.User
	status *domain.OnboardingStatus
	wallet *domain.SecureWalletInfo
}

func (o *Orchestrator) run(ctx context.Context, gen uint64, runID string) error {
	defer o.release(gen)

	rs := &runState{}
	o.mu.Lock()
	total := len(o.steps)
	o.mu.Unlock()

	for i := 1; i < total; i++ {
		step, ok := o.enter(gen, i)
		if !ok {
			return errSuperseded
		}
		o.record(ctx, runID, step, domain.StepLoading, nil)

		start := time.Now()
		err := o.work(ctx, gen, step, rs)
		metrics.OnboardingStepDuration.WithLabelValues(string(step)).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.OnboardingStepsTotal.WithLabelValues(string(step), string(domain.StepError)).Inc()
			if !o.fail(gen, i, err) {
				return errSuperseded
			}
			o.record(ctx, runID, step, domain.StepError, err)
			o.log.Error().Err(err).Str("run_id", runID).Str("step", string(step)).Msg("onboarding step failed")
			return fmt.Errorf("onboarding step %s: %w", step, err)
		}

		metrics.OnboardingStepsTotal.WithLabelValues(string(step), string(domain.StepCompleted)).Inc()
		if !o.complete(gen, i, rs) {
			return errSuperseded
		}
		o.record(ctx, runID, step, domain.StepCompleted, nil)
	}

	o.log.Info().Str("run_id", runID).Msg("onboarding completed")

	if o.opts.CompletionDelay > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(o.opts.CompletionDelay):
		}
	}

	o.mu.Lock()
	current := o.generation == gen
	snap := o.snapshotLocked()
	o.mu.Unlock()
	if current && o.opts.OnComplete != nil {
		o.opts.OnComplete(ctx, snap)
	}
	return nil
}

// work performs the remote or timed work associated with a step.
func (o *Orchestrator) work(ctx context.Context, gen uint64, step domain.StepID, rs *runState) error {
	switch step {
	case domain.StepWalletInit:
		user, err := o.users.CurrentUser(ctx)
		if err != nil {
			return err
		}
		rs.user = user
		if !o.setUser(gen, user.ID) {
			return errSuperseded
		}

		status, err := o.status.GetStatus(ctx, user)
		if err != nil {
			return err
		}
		if status.OnboardingStatus == domain.OnboardingFailed {
			o.log.Info().Str("user_id", user.ID).Str("reason", status.OnboardingError).Msg("re-driving failed provisioning")
			if err := o.wallets.RetryProvisioning(ctx, user.ID); err != nil {
				return err
			}
			if status, err = o.status.WaitForCompletion(ctx, user, o.opts.Poll); err != nil {
				return err
			}
		}
		rs.status = status
		return nil

	case domain.StepKeyGeneration:
		return sleepCtx(ctx, o.opts.StepDelay)

	case domain.StepAccountCreation:
		result := o.wallets.CreateWallet(ctx, o.opts.Wallet, func(p domain.CreateWalletProgress) {
			o.log.Debug().Str("stage", string(p.Stage)).Int("percent", p.Percent).Msg(p.Message)
		})
		if !result.Success {
			return errors.New(result.Error)
		}
		wallet := result.Wallet
		if wallet.AccountAlias == "" {
			// The backend accepted the request but assigns the account asynchronously.
			status, err := o.status.WaitForCompletion(ctx, rs.user, o.opts.Poll)
			if err != nil {
				return err
			}
			wallet.AccountAlias = status.HederaAccountID
			rs.status = status
			o.wallets.AnnotateProfile(ctx, wallet)
		}
		rs.wallet = wallet
		return nil

	case domain.StepReady:
		return sleepCtx(ctx, o.opts.StepDelay)
	}
	return nil
}

func (o *Orchestrator) setUser(gen uint64, id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return false
	}
	o.userID = id
	return true
}

// enter moves step i to loading. At most one step is loading at a time.
func (o *Orchestrator) enter(gen uint64, i int) (domain.StepID, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return "", false
	}
	o.current = i
	o.steps[i].Status = domain.StepLoading
	o.steps[i].Error = ""
	o.updatedAt = o.now().UTC()
	return o.steps[i].ID, true
}

func (o *Orchestrator) complete(gen uint64, i int, rs *runState) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return false
	}
	o.steps[i].Status = domain.StepCompleted
	if rs.wallet != nil {
		o.wallet = rs.wallet
	}
	if i == len(o.steps)-1 {
		o.state = ports.OnboardingReady
		o.completed = true
	}
	o.updatedAt = o.now().UTC()
	return true
}

func (o *Orchestrator) fail(gen uint64, i int, err error) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return false
	}
	o.steps[i].Status = domain.StepError
	o.steps[i].Error = err.Error()
	o.state = ports.OnboardingHalted
	o.lastErr = err.Error()
	o.updatedAt = o.now().UTC()
	return true
}

func (o *Orchestrator) release(gen uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return
	}
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	if o.state == ports.OnboardingRunning {
		o.state = ports.OnboardingHalted
	}
}

// record writes an audit entry. Audit failures never affect the flow.
func (o *Orchestrator) record(ctx context.Context, runID string, step domain.StepID, status domain.StepStatus, stepErr error) {
	if o.audit == nil {
		return
	}
	o.mu.Lock()
	userID := o.userID
	o.mu.Unlock()

	ev := domain.OnboardingEvent{
		RunID:  runID,
		UserID: userID,
		Step:   step,
		Status: status,
		At:     o.now().UTC(),
	}
	if stepErr != nil {
		ev.Error = stepErr.Error()
	}
	if err := o.audit.Record(context.WithoutCancel(ctx), ev); err != nil {
		o.log.Warn().Err(err).Str("run_id", runID).Str("step", string(step)).Msg("failed to record onboarding event")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
