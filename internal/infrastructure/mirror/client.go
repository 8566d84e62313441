// Package mirror reads ledger state from the public, unauthenticated mirror node.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Client implements ports.LedgerMirror.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.LedgerMirror = (*Client)(nil)

// NewClient builds a mirror Client rooted at baseURL (e.g. ".../api/v1").
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type transactionsResponse struct {
	Transactions []struct {
		TransactionID      string `json:"transaction_id"`
		Name               string `json:"name"`
		Result             string `json:"result"`
		ConsensusTimestamp string `json:"consensus_timestamp"`
		ChargedTxFee       int64  `json:"charged_tx_fee"`
		Transfers          []struct {
			Account string `json:"account"`
			Amount  int64  `json:"amount"`
		} `json:"transfers"`
	} `json:"transactions"`
}

// AccountTransactions lists the most recent transactions touching accountID.
func (c *Client) AccountTransactions(ctx context.Context, accountID string, limit int, order string) ([]domain.LedgerTransaction, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if order != "" {
		q.Set("order", order)
	}
	u := fmt.Sprintf("%s/accounts/%s/transactions?%s", c.baseURL, url.PathEscape(accountID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("mirror transactions: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mirror transactions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.RemoteError{Op: "mirror transactions", StatusCode: resp.StatusCode}
	}

	var body transactionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("mirror transactions: decode: %w", err)
	}

	out := make([]domain.LedgerTransaction, 0, len(body.Transactions))
	for _, tx := range body.Transactions {
		lt := domain.LedgerTransaction{
			TransactionID:      tx.TransactionID,
			Name:               tx.Name,
			Result:             tx.Result,
			ConsensusTimestamp: tx.ConsensusTimestamp,
			ChargedFee:         tx.ChargedTxFee,
			Transfers:          make([]domain.Transfer, 0, len(tx.Transfers)),
		}
		for _, tr := range tx.Transfers {
			lt.Transfers = append(lt.Transfers, domain.Transfer{Account: tr.Account, Amount: tr.Amount})
		}
		out = append(out, lt)
	}
	return out, nil
}

// Demo serves a canned transaction history.
type Demo struct{}

var _ ports.LedgerMirror = Demo{}

func (Demo) AccountTransactions(_ context.Context, accountID string, limit int, _ string) ([]domain.LedgerTransaction, error) {
	txs := []domain.LedgerTransaction{
		{
			TransactionID:      "0.0.2-1700000000-000000001",
			Name:               "CRYPTOTRANSFER",
			Result:             "SUCCESS",
			ConsensusTimestamp: "1700000000.000000001",
			ChargedFee:         84412,
			Transfers: []domain.Transfer{
				{Account: "0.0.2", Amount: -10_000_000_000},
				{Account: accountID, Amount: 10_000_000_000},
			},
		},
		{
			TransactionID:      "0.0.2-1699999000-000000002",
			Name:               "CRYPTOCREATEACCOUNT",
			Result:             "SUCCESS",
			ConsensusTimestamp: "1699999000.000000002",
			ChargedFee:         5132122,
		},
	}
	if limit > 0 && limit < len(txs) {
		txs = txs[:limit]
	}
	return txs, nil
}
