// Package telegram implements the Bot API boundary of the CRM: the typed
// payload schemas, the pure update parser, the outbound dispatcher, and
// the bounded-timeout poll fetch.
//
// Every operation follows the same failure policy: transport failures are
// logged and resolved to nil (or an empty batch), never propagated as
// errors, so callers treat absence of data as "try again later". A
// provider rejection (ok=false) is logged and still returned, so callers
// can surface the provider's stated reason.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// defaultPollTimeout is the client-side abort for one getUpdates call.
	defaultPollTimeout = 20 * time.Second

	// longPollHint is the server-side wait passed to getUpdates, kept
	// below the client-side abort so a quiet cycle ends cleanly.
	longPollHint = 15
)

// Client is a thin typed client for a Telegram-compatible Bot API,
// optionally reached through a reverse-proxy prefix.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	log         *slog.Logger
	pollTimeout time.Duration
}

// NewClient creates a Bot API client. baseURL is the API origin or a
// reverse-proxy prefix rewriting to it (e.g. "https://api.telegram.org"
// or "/api/telegram" behind a proxy).
func NewClient(baseURL, token string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		httpClient:  &http.Client{},
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		log:         log.With("component", "telegram_client"),
		pollTimeout: defaultPollTimeout,
	}
}

// methodURL templates the endpoint for one Bot API method.
func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// postJSON issues one POST with a JSON body and decodes the API envelope.
// Transport failures resolve to nil; ok=false envelopes are logged and
// returned.
func (c *Client) postJSON(ctx context.Context, method string, body any) *APIResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to marshal request body", "method", method, "error", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(payload))
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to build request", "method", method, "error", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(ctx, req, method)
}

// getJSON issues one GET and decodes the API envelope, with the same
// failure policy as postJSON.
func (c *Client) getJSON(ctx context.Context, method, rawQuery string) *APIResponse {
	url := c.methodURL(method)
	if rawQuery != "" {
		url += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to build request", "method", method, "error", err)
		return nil
	}

	return c.doRequest(ctx, req, method)
}

func (c *Client) doRequest(ctx context.Context, req *http.Request, method string) *APIResponse {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "Bot API request failed", "method", method, "error", err)
		return nil
	}
	defer resp.Body.Close()

	var envelope APIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&envelope); err != nil {
		c.log.WarnContext(ctx, "Failed to decode Bot API response", "method", method, "status", resp.StatusCode, "error", err)
		return nil
	}

	if !envelope.OK {
		c.log.WarnContext(ctx, "Bot API rejected request",
			"method", method,
			"error_code", envelope.ErrorCode,
			"description", envelope.Description)
	}
	return &envelope
}

// parseReplyTo converts the string message id carried by the CRM model
// into the integer the provider expects. Empty or non-numeric values mean
// no reply linkage is sent.
func parseReplyTo(replyToID string) *int64 {
	if replyToID == "" {
		return nil
	}
	id, err := strconv.ParseInt(replyToID, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}
