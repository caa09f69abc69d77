package session

import (
	"context"
	"fmt"

	"github.com/sig-0/ris/client"
)

// Notifications fetches the latest notifications
func (s *Service) Notifications(ctx context.Context) ([]*client.Notification, error) {
	notifications, err := s.backend.Notifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch notifications, %w", err)
	}

	return notifications, nil
}

// MarkNotificationRead marks a notification as read, and refreshes the unread badge
func (s *Service) MarkNotificationRead(ctx context.Context, notificationID string) error {
	if err := s.backend.MarkNotificationRead(ctx, notificationID); err != nil {
		return fmt.Errorf("unable to mark notification as read, %w", err)
	}

	if _, err := s.RefreshUnreadCount(ctx); err != nil {
		s.logger.Warn(
			"unable to refresh unread count",
			"notification_id", notificationID,
			"err", err,
		)
	}

	return nil
}

// MarkAllNotificationsRead marks every notification as read, and clears the unread badge
func (s *Service) MarkAllNotificationsRead(ctx context.Context) error {
	if err := s.backend.MarkAllNotificationsRead(ctx); err != nil {
		return fmt.Errorf("unable to mark notifications as read, %w", err)
	}

	s.state.SetUnreadCount(0)

	return nil
}

// Transactions fetches the transaction history, optionally filtered by type
func (s *Service) Transactions(ctx context.Context, txType string) ([]*client.Transaction, error) {
	txs, err := s.backend.Transactions(ctx, txType)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch transactions, %w", err)
	}

	return txs, nil
}

// Policies fetches the current terms of use
func (s *Service) Policies(ctx context.Context) (*client.Policies, error) {
	policies, err := s.backend.Policies(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch policies, %w", err)
	}

	return policies, nil
}

// PolicyStatus fetches whether the user accepted the current terms of use
func (s *Service) PolicyStatus(ctx context.Context) (*client.PolicyStatus, error) {
	status, err := s.backend.PolicyStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch policy status, %w", err)
	}

	return status, nil
}

// AcceptPolicies accepts the current terms of use
func (s *Service) AcceptPolicies(ctx context.Context) (*client.PolicyAcceptance, error) {
	acceptance, err := s.backend.AcceptPolicies(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to accept policies, %w", err)
	}

	return acceptance, nil
}
