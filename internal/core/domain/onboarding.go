package domain

import "time"

// OnboardingState is the provisioning state reported by the backend.
type OnboardingState string

const (
	OnboardingPending    OnboardingState = "pending"
	OnboardingInProgress OnboardingState = "in_progress"
	OnboardingCompleted  OnboardingState = "completed"
	OnboardingFailed     OnboardingState = "failed"
)

// OnboardingStatus is the result of a single status check. It is never cached
// beyond one check or poll cycle.
type OnboardingStatus struct {
	OnboardingStatus OnboardingState `json:"onboardingStatus"`
	HederaAccountID  string          `json:"hederaAccountId,omitempty"`
	WalletExists     bool            `json:"walletExists"`
	OnboardingError  string          `json:"onboardingError,omitempty"`
	// IsNewUser is synthesized locally and never sent by the backend.
	IsNewUser bool      `json:"isNewUser"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserStatus is the status synthesized when the backend has no record of
// the user, or when a status check failed for a non-auth reason.
func NewUserStatus(now time.Time) *OnboardingStatus {
	return &OnboardingStatus{
		OnboardingStatus: OnboardingPending,
		WalletExists:     false,
		IsNewUser:        true,
		Timestamp:        now,
	}
}

// StatusResultKind tags the outcome of a provisioning status lookup.
type StatusResultKind int

const (
	StatusFound StatusResultKind = iota
	StatusNotFound
	StatusTransientError
	StatusAuthFailure
)

func (k StatusResultKind) String() string {
	switch k {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusTransientError:
		return "transient_error"
	case StatusAuthFailure:
		return "auth_failure"
	default:
		return "unknown"
	}
}

// StatusResult is the tagged outcome of a status lookup. Status is set only
// for StatusFound, Err only for the two failure kinds.
type StatusResult struct {
	Kind   StatusResultKind
	Status *OnboardingStatus
	Err    error
}

// StepID identifies a step of the onboarding flow.
type StepID string

const (
	StepAccountCreated  StepID = "account_created"
	StepWalletInit      StepID = "wallet_init"
	StepKeyGeneration   StepID = "key_generation"
	StepAccountCreation StepID = "account_creation"
	StepReady           StepID = "ready"
)

// StepStatus is the per-step state of the onboarding flow.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepLoading   StepStatus = "loading"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
)

// OnboardingStep is one entry of the ordered onboarding step list.
type OnboardingStep struct {
	ID     StepID     `json:"id"`
	Title  string     `json:"title"`
	Status StepStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// DefaultOnboardingSteps returns a fresh step list. The first step is always
// completed: the account exists by virtue of sign-up.
func DefaultOnboardingSteps() []OnboardingStep {
	return []OnboardingStep{
		{ID: StepAccountCreated, Title: "Account created", Status: StepCompleted},
		{ID: StepWalletInit, Title: "Initializing secure wallet", Status: StepPending},
		{ID: StepKeyGeneration, Title: "Generating encryption keys", Status: StepPending},
		{ID: StepAccountCreation, Title: "Creating Hedera account", Status: StepPending},
		{ID: StepReady, Title: "Wallet ready", Status: StepPending},
	}
}

// OnboardingEvent is an audit record of a single step transition.
type OnboardingEvent struct {
	RunID  string     `json:"run_id" bson:"run_id"`
	UserID string     `json:"user_id" bson:"user_id"`
	Step   StepID     `json:"step" bson:"step"`
	Status StepStatus `json:"status" bson:"status"`
	Error  string     `json:"error,omitempty" bson:"error,omitempty"`
	At     time.Time  `json:"at" bson:"at"`
}
