package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// MinPixAmount is the smallest PIX recharge, in BRL
	MinPixAmount = decimal.NewFromInt(10)

	// MaxPixAmount is the largest PIX recharge per transaction, in BRL
	MaxPixAmount = decimal.NewFromInt(2000)
)

// PIX payment states reported by the backend
const (
	PixStatusPending   = "pending"
	PixStatusCompleted = "completed"
	PixStatusRejected  = "rejected"
	PixStatusCancelled = "cancelled"
	PixStatusExpired   = "expired"
)

// PixRequest is a PIX recharge request
type PixRequest struct {
	Amount decimal.Decimal `json:"amount"`
	CPF    string          `json:"cpf" validate:"required"`
}

// PixPayment is a created PIX charge, with the QR code to pay it
type PixPayment struct {
	AmountBRL     decimal.Decimal `json:"amount_brl"`
	AmountRIS     decimal.Decimal `json:"amount_ris"`
	TransactionID string          `json:"transaction_id"`
	PaymentID     json.Number     `json:"payment_id"`
	QRCode        string          `json:"qr_code"`
	QRCodeBase64  string          `json:"qr_code_base64"`
	Expiration    string          `json:"expiration"`
}

// PixStatus is the settlement state of a PIX charge
type PixStatus struct {
	AmountRIS    *decimal.Decimal `json:"amount_ris,omitempty"`
	Status       string           `json:"status"`
	StatusDetail string           `json:"status_detail,omitempty"`
	CompletedAt  string           `json:"completed_at,omitempty"`
}

// Settled reports whether the charge reached a final state
func (s *PixStatus) Settled() bool {
	switch s.Status {
	case PixStatusCompleted, PixStatusRejected, PixStatusCancelled, PixStatusExpired:
		return true
	default:
		return false
	}
}

// Beneficiary is a saved payout recipient
type Beneficiary struct {
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	BeneficiaryID string     `json:"beneficiary_id,omitempty"`
	FullName      string     `json:"full_name" validate:"required"`
	AccountNumber string     `json:"account_number" validate:"required"`
	IDDocument    string     `json:"id_document" validate:"required"`
	PhoneNumber   string     `json:"phone_number" validate:"required"`
	Bank          string     `json:"bank" validate:"required"`
	BankCode      string     `json:"bank_code,omitempty"`
}

// WithdrawalRequest sends RIS to a beneficiary, paid out in VES
type WithdrawalRequest struct {
	Beneficiary *Beneficiary    `json:"beneficiary_data" validate:"required"`
	AmountRIS   decimal.Decimal `json:"amount_ris"`
}

// Transaction is a recharge or withdrawal record
type Transaction struct {
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	Beneficiary   *Beneficiary    `json:"beneficiary_data,omitempty"`
	TransactionID string          `json:"transaction_id"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	ProcessedBy   string          `json:"processed_by,omitempty"`
	AmountInput   decimal.Decimal `json:"amount_input"`
	AmountOutput  decimal.Decimal `json:"amount_output"`
}

type pixRequestBody struct {
	Amount json.Number `json:"amount"`
	CPF    string      `json:"cpf"`
}

type withdrawalRequestBody struct {
	Beneficiary *Beneficiary `json:"beneficiary_data"`
	AmountRIS   json.Number  `json:"amount_ris"`
}

type proofRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	ProofImage    string `json:"proof_image" validate:"required,datauri"`
}

// CreatePix creates a PIX charge for a recharge. The amount must be within 10..2000 BRL
func (c *Client) CreatePix(ctx context.Context, req *PixRequest) (*PixPayment, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrValidation)
	}

	if req.Amount.LessThan(MinPixAmount) {
		return nil, fmt.Errorf("%w: the minimum amount is R$ %s", ErrValidation, MinPixAmount.StringFixed(2))
	}

	if req.Amount.GreaterThan(MaxPixAmount) {
		return nil, fmt.Errorf("%w: the maximum amount is R$ %s", ErrValidation, MaxPixAmount.StringFixed(2))
	}

	if err := c.checkRequest(req); err != nil {
		return nil, err
	}

	body := pixRequestBody{
		Amount: json.Number(req.Amount.String()),
		CPF:    req.CPF,
	}

	var resp PixPayment

	if err := c.do(ctx, http.MethodPost, "/pix/create", body, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// PixStatus fetches the settlement state of a PIX charge
func (c *Client) PixStatus(ctx context.Context, transactionID string) (*PixStatus, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transaction ID is required", ErrValidation)
	}

	var resp PixStatus

	path := "/pix/status/" + url.PathEscape(transactionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// VerifyPixWithProof submits a payment receipt for a pending PIX charge
func (c *Client) VerifyPixWithProof(ctx context.Context, transactionID, proofImage string) error {
	req := proofRequest{
		TransactionID: transactionID,
		ProofImage:    proofImage,
	}

	if err := c.checkRequest(req); err != nil {
		return err
	}

	return c.do(ctx, http.MethodPost, "/pix/verify-with-proof", req, nil)
}

// CreateWithdrawal sends RIS to a beneficiary
func (c *Client) CreateWithdrawal(ctx context.Context, req *WithdrawalRequest) (*Transaction, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrValidation)
	}

	if !req.AmountRIS.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	if err := c.checkRequest(req); err != nil {
		return nil, err
	}

	body := withdrawalRequestBody{
		Beneficiary: req.Beneficiary,
		AmountRIS:   json.Number(req.AmountRIS.String()),
	}

	var resp Transaction

	if err := c.do(ctx, http.MethodPost, "/withdrawal/create", body, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// ProcessWithdrawal marks a withdrawal as paid, with the payout receipt (admin only)
func (c *Client) ProcessWithdrawal(ctx context.Context, transactionID, proofImage string) error {
	req := proofRequest{
		TransactionID: transactionID,
		ProofImage:    proofImage,
	}

	if err := c.checkRequest(req); err != nil {
		return err
	}

	return c.do(ctx, http.MethodPost, "/withdrawal/process", req, nil)
}

// Beneficiaries lists the saved beneficiaries
func (c *Client) Beneficiaries(ctx context.Context) ([]*Beneficiary, error) {
	var resp []*Beneficiary

	if err := c.do(ctx, http.MethodGet, "/beneficiaries", nil, &resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// CreateBeneficiary saves a new beneficiary
func (c *Client) CreateBeneficiary(ctx context.Context, b *Beneficiary) (*Beneficiary, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: empty beneficiary", ErrValidation)
	}

	if err := c.checkRequest(b); err != nil {
		return nil, err
	}

	var resp Beneficiary

	if err := c.do(ctx, http.MethodPost, "/beneficiaries", b, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// DeleteBeneficiary removes a saved beneficiary
func (c *Client) DeleteBeneficiary(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: beneficiary ID is required", ErrValidation)
	}

	return c.do(ctx, http.MethodDelete, "/beneficiaries/"+url.PathEscape(id), nil, nil)
}
