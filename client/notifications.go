package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Notification is a single in-app notification
type Notification struct {
	CreatedAt time.Time      `json:"created_at"`
	Data      map[string]any `json:"data,omitempty"`
	ID        string         `json:"_id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Type      string         `json:"type"`
	Read      bool           `json:"read"`
}

type notificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
}

type unreadCountResponse struct {
	Count int `json:"count"`
}

// Notifications fetches the latest notifications, newest first.
// The backend returns at most 50
func (c *Client) Notifications(ctx context.Context) ([]*Notification, error) {
	var resp notificationsResponse

	if err := c.do(ctx, http.MethodGet, "/notifications", nil, &resp); err != nil {
		return nil, err
	}

	if resp.Notifications == nil {
		return []*Notification{}, nil
	}

	return resp.Notifications, nil
}

// UnreadCount fetches the number of unread notifications
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp unreadCountResponse

	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, &resp); err != nil {
		return 0, err
	}

	return resp.Count, nil
}

// MarkNotificationRead marks a single notification as read
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	id := strings.TrimSpace(notificationID)
	if id == "" {
		return fmt.Errorf("%w: empty notification id", ErrValidation)
	}

	return c.do(ctx, http.MethodPost, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllNotificationsRead marks every notification as read
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/notifications/read-all", nil, nil)
}
