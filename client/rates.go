package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sig-0/ris/rates"
)

// rateResponse is the GET /rate body. Pointers tell a missing field from a zero one
type rateResponse struct {
	RisToVes *decimal.Decimal `json:"ris_to_ves"`
	VesToRis *decimal.Decimal `json:"ves_to_ris"`
	RisToBrl *decimal.Decimal `json:"ris_to_brl"`
}

type updateRateRequest struct {
	RisToVes json.Number `json:"ris_to_ves"`
}

// FetchRates fetches the published rate table.
// A missing or non-positive field fails with rates.ErrInvalidRate
func (c *Client) FetchRates(ctx context.Context) (rates.Table, error) {
	var resp rateResponse

	if err := c.do(ctx, http.MethodGet, "/rate", nil, &resp); err != nil {
		return rates.Table{}, err
	}

	fields := []struct {
		value *decimal.Decimal
		name  string
	}{
		{resp.RisToVes, "ris_to_ves"},
		{resp.VesToRis, "ves_to_ris"},
		{resp.RisToBrl, "ris_to_brl"},
	}

	for _, f := range fields {
		if f.value == nil {
			return rates.Table{}, fmt.Errorf("%w: missing %s", rates.ErrInvalidRate, f.name)
		}
	}

	return rates.NewTable(*resp.RisToVes, *resp.VesToRis, *resp.RisToBrl)
}

// UpdateRate publishes a new RIS to VES rate (admin only)
func (c *Client) UpdateRate(ctx context.Context, risToVes decimal.Decimal) error {
	if !risToVes.IsPositive() {
		return fmt.Errorf("%w: rate must be positive", ErrValidation)
	}

	req := updateRateRequest{
		RisToVes: json.Number(risToVes.String()),
	}

	return c.do(ctx, http.MethodPost, "/rate", req, nil)
}
