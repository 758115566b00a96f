// Package brevo delivers recovery codes by email through the Brevo
// transactional email API.
package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"accounts/internal/domain"
)

const (
	defaultBaseURL = "https://api.brevo.com/v3/smtp/email"
	defaultTimeout = 15 * time.Second
)

// Client sends recovery-code emails via Brevo.
// See https://developers.brevo.com/reference/sendtransacemail.
type Client struct {
	APIKey     string
	Sender     string
	BaseURL    string
	HTTPClient *http.Client
}

// Ensure the interface is met.
var _ domain.Notifier = (*Client)(nil)

// New returns a client that uses the given API key, sender address, and
// optional base URL.
func New(apiKey, sender, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		APIKey:     apiKey,
		Sender:     sender,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

type address struct {
	Email string `json:"email"`
}

type sendRequest struct {
	Sender      address   `json:"sender"`
	To          []address `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
}

// Send emails the code to the given address. The code never appears in
// errors or logs; a non-2xx response reports only the status.
func (c *Client) Send(ctx context.Context, email, code string) error {
	if c.APIKey == "" {
		return fmt.Errorf("brevo: API key not configured")
	}

	raw, err := json.Marshal(sendRequest{
		Sender:  address{Email: c.Sender},
		To:      []address{{Email: email}},
		Subject: "Recover Password",
		HTMLContent: fmt.Sprintf(
			"<html><body><p>Use this code to recover your password:</p><h2>%s</h2><p>The code expires in 10 minutes.</p></body></html>",
			code,
		),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("brevo: request failed status=%d", resp.StatusCode)
	}
	return nil
}
