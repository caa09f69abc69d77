package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/ris/client"
)

func TestAccount_Notifications(t *testing.T) {
	t.Parallel()

	t.Run("list", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{
			notificationsFn: func(context.Context) ([]*client.Notification, error) {
				return []*client.Notification{
					{ID: "n1", Title: "Recarga completada", Type: "recharge"},
				}, nil
			},
		}

		s, _ := newTestServer(t, backend, nil)

		w := serve(t, s, http.MethodGet, "/v1/notifications", "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[NotificationsResponse](t, w)
		require.Len(t, resp.Results, 1)

		assert.Equal(t, "n1", resp.Results[0].ID)
	})

	t.Run("backend down", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{
			notificationsFn: func(context.Context) ([]*client.Notification, error) {
				return nil, client.ErrNetwork
			},
		}

		s, _ := newTestServer(t, backend, nil)

		w := serve(t, s, http.MethodGet, "/v1/notifications", "")
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("mark one read", func(t *testing.T) {
		t.Parallel()

		var markedID string

		backend := &mockBackend{
			markReadFn: func(_ context.Context, id string) error {
				markedID = id

				return nil
			},
			unreadCountFn: func(context.Context) (int, error) {
				return 1, nil
			},
		}

		s, state := newTestServer(t, backend, nil)
		state.SetUnreadCount(2)

		w := serve(t, s, http.MethodPost, "/v1/notifications/n1/read", "")
		require.Equal(t, http.StatusOK, w.Code)

		assert.Equal(t, "n1", markedID)
		assert.Equal(t, 1, decodeBody[UnreadCountResponse](t, w).Count)
	})

	t.Run("mark all read", func(t *testing.T) {
		t.Parallel()

		s, state := newTestServer(t, &mockBackend{}, nil)
		state.SetUnreadCount(4)

		w := serve(t, s, http.MethodPost, "/v1/notifications/read-all", "")
		require.Equal(t, http.StatusOK, w.Code)

		assert.Zero(t, decodeBody[UnreadCountResponse](t, w).Count)
		assert.Zero(t, state.UnreadCount())
	})
}

func TestAccount_Transactions(t *testing.T) {
	t.Parallel()

	t.Run("filtered", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{
			transactionsFn: func(_ context.Context, txType string) ([]*client.Transaction, error) {
				assert.Equal(t, client.TransactionWithdrawal, txType)

				return []*client.Transaction{{TransactionID: "tx1", Type: txType}}, nil
			},
		}

		s, _ := newTestServer(t, backend, nil)

		w := serve(t, s, http.MethodGet, "/v1/transactions?type=Withdrawal", "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[TransactionsResponse](t, w)
		require.Len(t, resp.Results, 1)

		assert.Equal(t, "tx1", resp.Results[0].TransactionID)
	})

	t.Run("invalid type", func(t *testing.T) {
		t.Parallel()

		backend := &mockBackend{
			transactionsFn: func(_ context.Context, txType string) ([]*client.Transaction, error) {
				return nil, fmt.Errorf("%w: unknown transaction type %q", client.ErrValidation, txType)
			},
		}

		s, _ := newTestServer(t, backend, nil)

		w := serve(t, s, http.MethodGet, "/v1/transactions?type=refund", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAccount_Policies(t *testing.T) {
	t.Parallel()

	version := "1.0"

	backend := &mockBackend{
		policiesFn: func(context.Context) (*client.Policies, error) {
			return &client.Policies{Version: version, Content: "# Políticas RIS"}, nil
		},
		policyStatusFn: func(context.Context) (*client.PolicyStatus, error) {
			return &client.PolicyStatus{
				UserVersion:    &version,
				CurrentVersion: version,
				Accepted:       true,
			}, nil
		},
		acceptPoliciesFn: func(context.Context) (*client.PolicyAcceptance, error) {
			return &client.PolicyAcceptance{Version: version}, nil
		},
	}

	s, _ := newTestServer(t, backend, nil)

	w := serve(t, s, http.MethodGet, "/v1/policies", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, version, decodeBody[client.Policies](t, w).Version)

	w = serve(t, s, http.MethodGet, "/v1/policies/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	status := decodeBody[client.PolicyStatus](t, w)
	assert.True(t, status.Accepted)
	assert.False(t, status.NeedsAcceptance)

	w = serve(t, s, http.MethodPost, "/v1/policies/accept", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, version, decodeBody[client.PolicyAcceptance](t, w).Version)
}
