// Package telegram is the thin transport layer between the Telegram Bot API
// and the relay core. This file implements the outbound client: a minimal
// JSON-over-HTTP wrapper around the five Bot API methods the relay calls.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mkoval/go-anon-relay/internal/relay"
)

// DefaultAPIBase is the production Bot API endpoint prefix.
const DefaultAPIBase = "https://api.telegram.org"

// Client calls the Telegram Bot API. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string // "<base>/bot<token>"
}

// compile-time check: Client satisfies the dispatcher's outbound contract.
var _ relay.Sender = (*Client)(nil)

// NewClient returns a Client for the production API.
func NewClient(token string) *Client {
	return NewClientWithBase(DefaultAPIBase, token)
}

// NewClientWithBase returns a Client against a custom API base URL.
// Used by tests and by self-hosted Bot API servers.
func NewClientWithBase(base, token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    base + "/bot" + token,
	}
}

// apiResponse is the common Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// call POSTs a JSON payload to one API method and decodes the result into
// out when out is non-nil.
func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: encode %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var env apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("telegram: decode %s response: %w", method, err)
	}
	if !env.OK {
		return fmt.Errorf("telegram: %s failed: %s (code %d)", method, env.Description, env.ErrorCode)
	}
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("telegram: decode %s result: %w", method, err)
		}
	}
	return nil
}

// messageEntity is the outbound formatting entity; the relay only ever
// emits bold spans.
type messageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// SendText sends a text message, optionally with one bold span.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, bold *relay.BoldSpan) error {
	payload := struct {
		ChatID   int64           `json:"chat_id"`
		Text     string          `json:"text"`
		Entities []messageEntity `json:"entities,omitempty"`
	}{ChatID: chatID, Text: text}
	if bold != nil {
		payload.Entities = []messageEntity{{Type: "bold", Offset: bold.Offset, Length: bold.Length}}
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// CopyMessage copies a message without a forward header.
func (c *Client) CopyMessage(ctx context.Context, toChatID, fromChatID, messageID int64) error {
	payload := struct {
		ChatID     int64 `json:"chat_id"`
		FromChatID int64 `json:"from_chat_id"`
		MessageID  int64 `json:"message_id"`
	}{toChatID, fromChatID, messageID}
	return c.call(ctx, "copyMessage", payload, nil)
}

// ForwardMessage forwards a message and returns its ID in the destination
// chat, which becomes the correlation key.
func (c *Client) ForwardMessage(ctx context.Context, toChatID, fromChatID, messageID int64) (int64, error) {
	payload := struct {
		ChatID     int64 `json:"chat_id"`
		FromChatID int64 `json:"from_chat_id"`
		MessageID  int64 `json:"message_id"`
	}{toChatID, fromChatID, messageID}

	var sent Message
	if err := c.call(ctx, "forwardMessage", payload, &sent); err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// SetReaction replaces the reaction set on a message.
func (c *Client) SetReaction(ctx context.Context, chatID, messageID int64, reaction []relay.Reaction) error {
	payload := struct {
		ChatID    int64            `json:"chat_id"`
		MessageID int64            `json:"message_id"`
		Reaction  []relay.Reaction `json:"reaction"`
	}{chatID, messageID, reaction}
	return c.call(ctx, "setMessageReaction", payload, nil)
}

// allowedUpdates is the subscription the relay needs: plain messages and
// reaction changes.
var allowedUpdates = []string{"message", "message_reaction"}

// SetWebhook registers the push-delivery endpoint with the platform.
// Pending updates accumulated while the bot was down are dropped; replaying
// them against a fresh rate-limiter state would be unfair to users.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	payload := struct {
		URL                string   `json:"url"`
		SecretToken        string   `json:"secret_token,omitempty"`
		AllowedUpdates     []string `json:"allowed_updates"`
		DropPendingUpdates bool     `json:"drop_pending_updates"`
	}{URL: url, SecretToken: secret, AllowedUpdates: allowedUpdates, DropPendingUpdates: true}
	return c.call(ctx, "setWebhook", payload, nil)
}

// DeleteWebhook unregisters push delivery; required before long polling.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", struct{}{}, nil)
}

// GetUpdates long-polls for updates past offset, waiting up to timeout
// server-side.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := struct {
		Offset         int64    `json:"offset,omitempty"`
		Timeout        int      `json:"timeout"`
		AllowedUpdates []string `json:"allowed_updates"`
	}{Offset: offset, Timeout: int(timeout.Seconds()), AllowedUpdates: allowedUpdates}

	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}
