package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sig-0/ris/eligibility"
)

// VerificationRequest is a KYC submission. Images are base64 data URIs
type VerificationRequest struct {
	FullName        string `json:"full_name" validate:"required"`
	DocumentNumber  string `json:"document_number" validate:"required"`
	CPFNumber       string `json:"cpf_number" validate:"required"`
	IDDocumentImage string `json:"id_document_image" validate:"required,datauri"`
	CPFImage        string `json:"cpf_image" validate:"required,datauri"`
	SelfieImage     string `json:"selfie_image" validate:"required,datauri"`
}

// PendingVerification is a submission awaiting an admin decision
type PendingVerification struct {
	CreatedAt       time.Time `json:"created_at"`
	UserID          string    `json:"user_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	DocumentNumber  string    `json:"document_number"`
	CPFNumber       string    `json:"cpf_number"`
	IDDocumentImage string    `json:"id_document_image"`
	CPFImage        string    `json:"cpf_image"`
}

type verificationStatusResponse struct {
	RejectionReason *string `json:"rejection_reason"`
	Status          string  `json:"status"`
}

type decideRequest struct {
	RejectionReason *string `json:"rejection_reason,omitempty"`
	UserID          string  `json:"user_id"`
	Approved        bool    `json:"approved"`
}

// SubmitVerification submits the KYC documents, moving the account to pending
func (c *Client) SubmitVerification(ctx context.Context, req *VerificationRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty submission", ErrValidation)
	}

	if err := c.checkRequest(req); err != nil {
		return err
	}

	return c.do(ctx, http.MethodPost, "/verification/submit", req, nil)
}

// VerificationStatus fetches the current verification status
func (c *Client) VerificationStatus(ctx context.Context) (eligibility.Status, error) {
	var resp verificationStatusResponse

	if err := c.do(ctx, http.MethodGet, "/verification/status", nil, &resp); err != nil {
		return nil, err
	}

	var reason string
	if resp.RejectionReason != nil {
		reason = *resp.RejectionReason
	}

	return eligibility.ParseStatus(resp.Status, reason)
}

// PendingVerifications lists submissions awaiting review (admin only)
func (c *Client) PendingVerifications(ctx context.Context) ([]*PendingVerification, error) {
	var resp []*PendingVerification

	if err := c.do(ctx, http.MethodGet, "/admin/verifications/pending", nil, &resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// DecideVerification approves or rejects a submission (admin only).
// A rejection must carry a reason
func (c *Client) DecideVerification(
	ctx context.Context,
	userID string,
	approved bool,
	reason string,
) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user ID is required", ErrValidation)
	}

	req := decideRequest{
		UserID:   userID,
		Approved: approved,
	}

	if !approved {
		if strings.TrimSpace(reason) == "" {
			return fmt.Errorf("%w: a rejection reason is required", ErrValidation)
		}

		req.RejectionReason = &reason
	}

	return c.do(ctx, http.MethodPost, "/admin/verifications/decide", req, nil)
}
