package client

import (
	"context"
	"net/http"
	"time"
)

// Policies is the current terms of use
type Policies struct {
	Version     string `json:"version"`
	Content     string `json:"content"`
	LastUpdated string `json:"last_updated"`
}

// PolicyStatus is the user's acceptance of the terms of use
type PolicyStatus struct {
	AcceptedAt      *time.Time `json:"accepted_at,omitempty"`
	UserVersion     *string    `json:"user_version,omitempty"`
	CurrentVersion  string     `json:"current_version"`
	Accepted        bool       `json:"accepted"`
	NeedsAcceptance bool       `json:"needs_acceptance"`
}

// PolicyAcceptance is the receipt of an accepted policy version
type PolicyAcceptance struct {
	AcceptedAt time.Time `json:"accepted_at"`
	Message    string    `json:"message"`
	Version    string    `json:"version"`
}

// Policies fetches the current terms of use. The call is public
func (c *Client) Policies(ctx context.Context) (*Policies, error) {
	var resp Policies

	if err := c.do(ctx, http.MethodGet, "/policies", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// PolicyStatus fetches whether the user accepted the current terms of use
func (c *Client) PolicyStatus(ctx context.Context) (*PolicyStatus, error) {
	var resp PolicyStatus

	if err := c.do(ctx, http.MethodGet, "/policies/status", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// AcceptPolicies accepts the current terms of use
func (c *Client) AcceptPolicies(ctx context.Context) (*PolicyAcceptance, error) {
	var resp PolicyAcceptance

	if err := c.do(ctx, http.MethodPost, "/policies/accept", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}
