package mirror

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hederavault/walletd/internal/core/domain"
)

func TestClient_AccountTransactions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/accounts/0.0.123456/transactions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "10" || r.URL.Query().Get("order") != "desc" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "" {
			t.Fatal("mirror requests must not carry credentials")
		}
		_, _ = w.Write([]byte(`{"transactions":[{"transaction_id":"0.0.2-1-2","name":"CRYPTOTRANSFER","result":"SUCCESS","consensus_timestamp":"1.2","charged_tx_fee":100,"transfers":[{"account":"0.0.123456","amount":500}]}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/v1/", srv.Client())
	txs, err := c.AccountTransactions(context.Background(), "0.0.123456", 10, "desc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	tx := txs[0]
	if tx.TransactionID != "0.0.2-1-2" || tx.ChargedFee != 100 || len(tx.Transfers) != 1 || tx.Transfers[0].Amount != 500 {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
}

func TestClient_AccountTransactions_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client()).AccountTransactions(context.Background(), "0.0.1", 5, "asc")
	var re *domain.RemoteError
	if !errors.As(err, &re) || re.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 RemoteError, got %v", err)
	}
}

func TestDemo_RespectsLimit(t *testing.T) {
	txs, err := Demo{}.AccountTransactions(context.Background(), "0.0.9", 1, "desc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
}
