package server

import (
	"github.com/sig-0/ris/client"
	"github.com/sig-0/ris/session"
	"github.com/sig-0/ris/storage/types"
)

type RatesResponse struct {
	session.RatesSnapshot

	// The official reference rate, shown next to the RIS rate
	Reference *types.ExchangeRate `json:"reference,omitempty"`
}

type SourcesResponse struct {
	Results []types.Source `json:"results"`
}

type CurrenciesResponse struct {
	Results []types.Currency `json:"results"`
}

type ConvertResponse struct {
	Direction string `json:"direction"`
	Driven    string `json:"driven"`
	Input     string `json:"input"`
	Output    string `json:"output"`
}

type EligibilityResponse struct {
	Action   string `json:"action"`
	Status   string `json:"status"`
	Redirect string `json:"redirect,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	Allowed  bool   `json:"allowed"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type NotificationsResponse struct {
	Results []*client.Notification `json:"results"`
}

type TransactionsResponse struct {
	Results []*client.Transaction `json:"results"`
}

type SupportMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

type RechargeResponse struct {
	*client.PixPayment

	// Tracked is true when the charge is polled in the background until it settles
	Tracked bool `json:"tracked"`
}

type ScreenResponse struct {
	Name    string `json:"name"`
	Focused bool   `json:"focused"`
}

type ScreensResponse struct {
	Results []ScreenResponse `json:"results"`
}

type ErrorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
}
