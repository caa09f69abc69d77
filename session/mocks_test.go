package session

import (
	"context"

	"github.com/sig-0/ris/client"
	"github.com/sig-0/ris/rates"
)

type (
	fetchRatesDelegate         func(context.Context) (rates.Table, error)
	meDelegate                 func(context.Context) (*client.Profile, error)
	unreadCountDelegate        func(context.Context) (int, error)
	conversationDelegate       func(context.Context) (*client.Conversation, error)
	sendSupportMessageDelegate func(context.Context, string, string) (*client.SupportMessage, error)
	createPixDelegate          func(context.Context, *client.PixRequest) (*client.PixPayment, error)
	pixStatusDelegate          func(context.Context, string) (*client.PixStatus, error)
	createWithdrawalDelegate   func(context.Context, *client.WithdrawalRequest) (*client.Transaction, error)
	notificationsDelegate      func(context.Context) ([]*client.Notification, error)
	markReadDelegate           func(context.Context, string) error
	markAllReadDelegate        func(context.Context) error
	transactionsDelegate       func(context.Context, string) ([]*client.Transaction, error)
	policiesDelegate           func(context.Context) (*client.Policies, error)
	policyStatusDelegate       func(context.Context) (*client.PolicyStatus, error)
	acceptPoliciesDelegate     func(context.Context) (*client.PolicyAcceptance, error)
)

type mockBackend struct {
	fetchRatesFn         fetchRatesDelegate
	meFn                 meDelegate
	unreadCountFn        unreadCountDelegate
	conversationFn       conversationDelegate
	sendSupportMessageFn sendSupportMessageDelegate
	createPixFn          createPixDelegate
	pixStatusFn          pixStatusDelegate
	createWithdrawalFn   createWithdrawalDelegate
	notificationsFn      notificationsDelegate
	markReadFn           markReadDelegate
	markAllReadFn        markAllReadDelegate
	transactionsFn       transactionsDelegate
	policiesFn           policiesDelegate
	policyStatusFn       policyStatusDelegate
	acceptPoliciesFn     acceptPoliciesDelegate
}

func (m *mockBackend) FetchRates(ctx context.Context) (rates.Table, error) {
	if m.fetchRatesFn != nil {
		return m.fetchRatesFn(ctx)
	}

	return rates.Table{}, nil
}

func (m *mockBackend) Me(ctx context.Context) (*client.Profile, error) {
	if m.meFn != nil {
		return m.meFn(ctx)
	}

	return nil, nil
}

func (m *mockBackend) UnreadCount(ctx context.Context) (int, error) {
	if m.unreadCountFn != nil {
		return m.unreadCountFn(ctx)
	}

	return 0, nil
}

func (m *mockBackend) Conversation(ctx context.Context) (*client.Conversation, error) {
	if m.conversationFn != nil {
		return m.conversationFn(ctx)
	}

	return nil, nil
}

func (m *mockBackend) SendSupportMessage(
	ctx context.Context,
	text string,
	image string,
) (*client.SupportMessage, error) {
	if m.sendSupportMessageFn != nil {
		return m.sendSupportMessageFn(ctx, text, image)
	}

	return nil, nil
}

func (m *mockBackend) CreatePix(ctx context.Context, req *client.PixRequest) (*client.PixPayment, error) {
	if m.createPixFn != nil {
		return m.createPixFn(ctx, req)
	}

	return nil, nil
}

func (m *mockBackend) PixStatus(ctx context.Context, transactionID string) (*client.PixStatus, error) {
	if m.pixStatusFn != nil {
		return m.pixStatusFn(ctx, transactionID)
	}

	return nil, nil
}

func (m *mockBackend) CreateWithdrawal(
	ctx context.Context,
	req *client.WithdrawalRequest,
) (*client.Transaction, error) {
	if m.createWithdrawalFn != nil {
		return m.createWithdrawalFn(ctx, req)
	}

	return nil, nil
}

func (m *mockBackend) Notifications(ctx context.Context) ([]*client.Notification, error) {
	if m.notificationsFn != nil {
		return m.notificationsFn(ctx)
	}

	return nil, nil
}

func (m *mockBackend) MarkNotificationRead(ctx context.Context, notificationID string) error {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, notificationID)
	}

	return nil
}

func (m *mockBackend) MarkAllNotificationsRead(ctx context.Context) error {
	if m.markAllReadFn != nil {
		return m.markAllReadFn(ctx)
	}

	return nil
}

func (m *mockBackend) Transactions(ctx context.Context, txType string) ([]*client.Transaction, error) {
	if m.transactionsFn != nil {
		return m.transactionsFn(ctx, txType)
	}

	return nil, nil
}

func (m *mockBackend) Policies(ctx context.Context) (*client.Policies, error) {
	if m.policiesFn != nil {
		return m.policiesFn(ctx)
	}

	return nil, nil
}

func (m *mockBackend) PolicyStatus(ctx context.Context) (*client.PolicyStatus, error) {
	if m.policyStatusFn != nil {
		return m.policyStatusFn(ctx)
	}

	return nil, nil
}

func (m *mockBackend) AcceptPolicies(ctx context.Context) (*client.PolicyAcceptance, error) {
	if m.acceptPoliciesFn != nil {
		return m.acceptPoliciesFn(ctx)
	}

	return nil, nil
}
