package client

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Transactions(t *testing.T) {
	t.Parallel()

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()

		c := New("http://127.0.0.1:1")

		_, err := c.Transactions(context.Background(), "refund")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("filtered by type", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transactions", r.URL.Path)
			assert.Equal(t, TransactionWithdrawal, r.URL.Query().Get("type"))

			writeJSON(t, w, http.StatusOK, []map[string]any{
				{
					"transaction_id": "tx2",
					"user_id":        "u1",
					"type":           "withdrawal",
					"status":         "pending",
					"amount_input":   10,
					"amount_output":  920,
					"created_at":     "2026-01-24T10:00:00Z",
					"beneficiary_data": map[string]any{
						"full_name":      "Maria Perez",
						"account_number": "01020000000000000000",
						"id_document":    "V12345678",
						"phone_number":   "04141234567",
						"bank":           "Banco de Venezuela",
					},
				},
			})
		})

		txs, err := c.Transactions(context.Background(), TransactionWithdrawal)
		require.NoError(t, err)
		require.Len(t, txs, 1)

		assert.Equal(t, "tx2", txs[0].TransactionID)
		assert.True(t, txs[0].AmountOutput.Equal(decimal.NewFromInt(920)))
		require.NotNil(t, txs[0].Beneficiary)
		assert.Equal(t, "Maria Perez", txs[0].Beneficiary.FullName)
	})

	t.Run("all types", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.URL.RawQuery)

			writeJSON(t, w, http.StatusOK, nil)
		})

		txs, err := c.Transactions(context.Background(), "")
		require.NoError(t, err)

		assert.NotNil(t, txs)
		assert.Empty(t, txs)
	})
}

func TestClient_ExportTransactions(t *testing.T) {
	t.Parallel()

	t.Run("streams the spreadsheet", func(t *testing.T) {
		t.Parallel()

		payload := []byte("PK\x03\x04 spreadsheet")

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transactions/export", r.URL.Path)
			assert.Equal(t, exportContentType, r.Header.Get("Accept"))

			w.Header().Set("Content-Type", exportContentType)
			_, _ = w.Write(payload)
		})

		var buf bytes.Buffer

		n, err := c.ExportTransactions(context.Background(), &buf)
		require.NoError(t, err)

		assert.Equal(t, int64(len(payload)), n)
		assert.Equal(t, payload, buf.Bytes())
	})

	t.Run("not an admin", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusForbidden, map[string]any{"detail": "Admin access required"})
		})

		var buf bytes.Buffer

		_, err := c.ExportTransactions(context.Background(), &buf)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)

		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Zero(t, buf.Len())
	})
}
