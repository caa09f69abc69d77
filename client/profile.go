package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sig-0/ris/eligibility"
)

// Profile is the signed-in user's account, as far as the client needs it
type Profile struct {
	Status      eligibility.Status
	UserID      string
	Email       string
	Name        string
	BalanceRIS  decimal.Decimal
	PasswordSet bool
}

type profileResponse struct {
	UserID             string          `json:"user_id"`
	Email              string          `json:"email"`
	Name               string          `json:"name"`
	VerificationStatus string          `json:"verification_status"`
	RejectionReason    *string         `json:"rejection_reason,omitempty"`
	BalanceRIS         decimal.Decimal `json:"balance_ris"`
	PasswordSet        bool            `json:"password_set"`
}

// Me fetches the current user's profile
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var resp profileResponse

	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}

	var reason string
	if resp.RejectionReason != nil {
		reason = *resp.RejectionReason
	}

	status, err := eligibility.ParseStatus(resp.VerificationStatus, reason)
	if err != nil {
		return nil, fmt.Errorf("unable to parse profile: %w", err)
	}

	return &Profile{
		Status:      status,
		UserID:      resp.UserID,
		Email:       resp.Email,
		Name:        resp.Name,
		BalanceRIS:  resp.BalanceRIS,
		PasswordSet: resp.PasswordSet,
	}, nil
}

// MarshalJSON encodes the profile in the backend's wire shape
func (p Profile) MarshalJSON() ([]byte, error) {
	resp := profileResponse{
		UserID:             p.UserID,
		Email:              p.Email,
		Name:               p.Name,
		VerificationStatus: "unverified",
		BalanceRIS:         p.BalanceRIS,
		PasswordSet:        p.PasswordSet,
	}

	if p.Status != nil {
		resp.VerificationStatus = p.Status.String()
	}

	if reason := eligibility.Reason(p.Status); reason != "" {
		resp.RejectionReason = &reason
	}

	return json.Marshal(resp)
}
