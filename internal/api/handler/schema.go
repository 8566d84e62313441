package handler

import (
	"time"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error   string `json:"error"`
	Support string `json:"support,omitempty"`
}

// --- Session ---

type installSessionRequest struct {
	IDToken      string `json:"id_token"      validate:"required,jwt"`
	AccessToken  string `json:"access_token"  validate:"omitempty,jwt"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	Fresh         bool         `json:"fresh"`
}

func toSessionResponse(s domain.SessionStatus) sessionResponse {
	resp := sessionResponse{
		Authenticated: s.Authenticated,
		User:          s.User,
		Fresh:         s.Fresh,
	}
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt.UTC()
		resp.ExpiresAt = &exp
	}
	return resp
}

// --- Onboarding ---

type onboardingStepResponse struct {
	ID     domain.StepID     `json:"id"`
	Title  string            `json:"title"`
	Status domain.StepStatus `json:"status"`
	Error  string            `json:"error,omitempty"`
}

type onboardingResponse struct {
	RunID     string                   `json:"run_id,omitempty"`
	State     ports.OnboardingState    `json:"state"`
	Started   *bool                    `json:"started,omitempty"`
	Steps     []onboardingStepResponse `json:"steps"`
	Current   int                      `json:"current_step"`
	Progress  int                      `json:"progress"`
	Completed bool                     `json:"completed"`
	Wallet    *domain.SecureWalletInfo `json:"wallet,omitempty"`
	Error     string                   `json:"error,omitempty"`
	Support   string                   `json:"support,omitempty"`
	UpdatedAt time.Time                `json:"updated_at"`
}

func toOnboardingResponse(s ports.OnboardingSnapshot, support string) onboardingResponse {
	steps := make([]onboardingStepResponse, 0, len(s.Steps))
	for _, st := range s.Steps {
		steps = append(steps, onboardingStepResponse{ID: st.ID, Title: st.Title, Status: st.Status, Error: st.Error})
	}
	resp := onboardingResponse{
		RunID:     s.RunID,
		State:     s.State,
		Steps:     steps,
		Current:   s.Current,
		Progress:  s.Progress,
		Completed: s.Completed,
		Wallet:    s.Wallet,
		Error:     s.Error,
		UpdatedAt: s.UpdatedAt,
	}
	if s.State == ports.OnboardingHalted {
		resp.Support = support
	}
	return resp
}

// --- Wallet ---

type createWalletRequest struct {
	InitialBalanceHBAR float64 `json:"initial_balance_hbar" validate:"gte=0,lte=1000"`
	AccountMemo        string  `json:"account_memo"         validate:"max=100"`
}

type createWalletResponse struct {
	Success        bool                          `json:"success"`
	AlreadyExisted bool                          `json:"already_existed"`
	Wallet         *domain.SecureWalletInfo      `json:"wallet,omitempty"`
	Error          string                        `json:"error,omitempty"`
	Support        string                        `json:"support,omitempty"`
	Progress       []domain.CreateWalletProgress `json:"progress"`
}

type walletResponse struct {
	Wallet *domain.SecureWalletInfo `json:"wallet"`
}

type balanceResponse struct {
	AccountID string                `json:"account_id"`
	Balance   *domain.WalletBalance `json:"balance"`
}

type transactionsQuery struct {
	Limit int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Order string `query:"order" validate:"omitempty,oneof=asc desc"`
}

type transactionsResponse struct {
	AccountID    string                     `json:"account_id"`
	Transactions []domain.LedgerTransaction `json:"transactions"`
}
