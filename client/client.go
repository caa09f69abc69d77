package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 15 * time.Second

	// maxErrorBody caps how much of an error response is read for its detail
	maxErrorBody = 64 << 10
)

// Client is the RIS backend API client.
// Every request carries the static bearer token; there is no refresh protocol
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	validate   *validator.Validate
	logger     *slog.Logger

	baseURL string
	token   string
}

// New creates a new backend client for the given base URL (e.g. https://host/api)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		baseURL:  strings.TrimRight(baseURL, "/"),
	}

	// Apply the options
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// errorResponse is the backend error body
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// checkRequest runs the struct validation tags on a request payload
func (c *Client) checkRequest(req any) error {
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// do executes a JSON request against the backend, decoding the response into out (if set)
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body any,
	out any,
) error {
	resp, err := c.send(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: unable to decode response: %w", ErrNetwork, err)
	}

	return nil
}

// send executes a request against the backend, and returns the successful response.
// The caller closes the response body
func (c *Client) send(
	ctx context.Context,
	method string,
	path string,
	body any,
	accept string,
) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
		}
	}

	var reader io.Reader = http.NoBody

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("unable to marshal request: %w", err)
		}

		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s request: %w", method, err)
	}

	requestID := uuid.NewString()

	req.Header.Set("Accept", accept)
	req.Header.Set("X-Request-ID", requestID)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to execute %s %s: %w", ErrNetwork, method, path, err)
	}

	c.logger.Debug(
		"backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()

		return nil, parseError(resp)
	}

	return resp, nil
}

// parseError builds an *APIError from a non-2xx response
func parseError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body errorResponse
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return apiErr
	}

	// The detail is usually a string, but validation failures carry a list
	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err != nil {
		detail = string(body.Detail)
	}

	apiErr.Detail = detail

	return apiErr
}
