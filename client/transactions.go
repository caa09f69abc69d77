package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Transaction types, as filtered by Transactions
const (
	TransactionRecharge   = "recharge"
	TransactionWithdrawal = "withdrawal"
)

// exportContentType is the spreadsheet format of the transaction export
const exportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Transactions fetches the user's transactions, newest first.
// An empty type lists both recharges and withdrawals
func (c *Client) Transactions(ctx context.Context, txType string) ([]*Transaction, error) {
	path := "/transactions"

	switch txType {
	case "":
	case TransactionRecharge, TransactionWithdrawal:
		path += "?" + url.Values{"type": {txType}}.Encode()
	default:
		return nil, fmt.Errorf("%w: unknown transaction type %q", ErrValidation, txType)
	}

	var resp []*Transaction

	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	if resp == nil {
		return []*Transaction{}, nil
	}

	return resp, nil
}

// ExportTransactions streams the spreadsheet of every transaction into w (admin only).
// It returns the number of bytes written
func (c *Client) ExportTransactions(ctx context.Context, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, http.MethodGet, "/transactions/export", nil, exportContentType)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("%w: unable to read export: %w", ErrNetwork, err)
	}

	return n, nil
}
