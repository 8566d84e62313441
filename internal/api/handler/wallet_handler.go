package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
)

// WalletHandler exposes the secure wallet of the signed-in user.
type WalletHandler struct {
	wallets ports.WalletService
	support string
}

func NewWalletHandler(wallets ports.WalletService, support string) *WalletHandler {
	return &WalletHandler{wallets: wallets, support: support}
}

// Get returns the user's wallet.
//
// @Summary      Get wallet
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  walletResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/wallet [get]
func (h *WalletHandler) Get(c echo.Context) error {
	wallet, err := h.wallet(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, walletResponse{Wallet: wallet})
}

// Create provisions a wallet, or returns the existing one.
//
// @Summary      Create wallet
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        body  body      createWalletRequest  false  "Optional creation parameters"
// @Success      201   {object}  createWalletResponse
// @Success      200   {object}  createWalletResponse  "Wallet already existed"
// @Failure      400   {object}  errorResponse
// @Failure      502   {object}  createWalletResponse
// @Router       /v1/wallet [post]
func (h *WalletHandler) Create(c echo.Context) error {
	if _, err := ctxUser(c); err != nil {
		return err
	}

	var req createWalletRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	progress := make([]domain.CreateWalletProgress, 0, 4)
	res := h.wallets.CreateWallet(c.Request().Context(), ports.CreateWalletRequest{
		InitialBalanceHBAR: req.InitialBalanceHBAR,
		AccountMemo:        req.AccountMemo,
	}, func(p domain.CreateWalletProgress) {
		progress = append(progress, p)
	})

	resp := createWalletResponse{
		Success:        res.Success,
		AlreadyExisted: res.AlreadyExisted,
		Wallet:         res.Wallet,
		Error:          res.Error,
		Progress:       progress,
	}
	switch {
	case !res.Success:
		resp.Support = h.support
		return c.JSON(http.StatusBadGateway, resp)
	case res.AlreadyExisted:
		return c.JSON(http.StatusOK, resp)
	default:
		return c.JSON(http.StatusCreated, resp)
	}
}

// Balance refreshes the wallet balance. Only one refresh runs at a time.
//
// @Summary      Wallet balance
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  balanceResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/wallet/balance [get]
func (h *WalletHandler) Balance(c echo.Context) error {
	ctx := c.Request().Context()
	wallet, err := h.wallet(ctx)
	if err != nil {
		return err
	}
	balance, err := h.wallets.RefreshBalance(ctx, wallet.AccountAlias)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, balanceResponse{AccountID: wallet.AccountAlias, Balance: balance})
}

// Transactions lists recent ledger transactions of the wallet account.
//
// @Summary      Wallet transactions
// @Tags         wallet
// @Produce      json
// @Param        limit  query     int     false  "Page size (1-100)"
// @Param        order  query     string  false  "asc or desc"
// @Success      200    {object}  transactionsResponse
// @Failure      400    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Failure      409    {object}  errorResponse
// @Router       /v1/wallet/transactions [get]
func (h *WalletHandler) Transactions(c echo.Context) error {
	var q transactionsQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	wallet, err := h.wallet(ctx)
	if err != nil {
		return err
	}
	txs, err := h.wallets.RefreshTransactions(ctx, wallet.AccountAlias, ports.TransactionsQuery{Limit: q.Limit, Order: q.Order})
	if err != nil {
		return err
	}
	if txs == nil {
		txs = []domain.LedgerTransaction{}
	}
	return c.JSON(http.StatusOK, transactionsResponse{AccountID: wallet.AccountAlias, Transactions: txs})
}

func (h *WalletHandler) wallet(ctx context.Context) (*domain.SecureWalletInfo, error) {
	wallet, err := h.wallets.GetWallet(ctx)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, domain.ErrWalletNotFound
	}
	return wallet, nil
}
