package client

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"
)

// SupportMessage is a single support chat message
type SupportMessage struct {
	CreatedAt time.Time `json:"created_at"`
	MessageID string    `json:"message_id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text,omitempty"`
	Image     string    `json:"image,omitempty"`
}

// Conversation is the user's support thread
type Conversation struct {
	ConversationID string            `json:"conversation_id"`
	Messages       []*SupportMessage `json:"messages"`
}

type sendSupportRequest struct {
	Text  string `json:"text,omitempty" validate:"required_without=Image,max=4000"`
	Image string `json:"image,omitempty" validate:"omitempty,datauri"`
}

// Conversation fetches the support thread
func (c *Client) Conversation(ctx context.Context) (*Conversation, error) {
	var resp Conversation

	if err := c.do(ctx, http.MethodGet, "/support/conversation", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// SendSupportMessage sends text, an image data URI, or both
func (c *Client) SendSupportMessage(ctx context.Context, text, image string) (*SupportMessage, error) {
	req := sendSupportRequest{
		Text:  text,
		Image: image,
	}

	if err := c.checkRequest(req); err != nil {
		return nil, err
	}

	var resp SupportMessage

	if err := c.do(ctx, http.MethodPost, "/support/send", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// EncodeImage wraps raw image bytes into the data URI the backend expects
func EncodeImage(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
