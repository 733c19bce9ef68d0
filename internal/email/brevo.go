// Package email provides Brevo email provider.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const brevoBaseURL = "https://api.brevo.com/v3"

// BrevoProvider implements the Provider interface for Brevo (ex Sendinblue).
type BrevoProvider struct {
	apiKey  string
	from    string
	baseURL string
}

// NewBrevoProvider creates a new Brevo provider.
func NewBrevoProvider(apiKey, from string) *BrevoProvider {
	return NewBrevoProviderWithBaseURL(apiKey, from, brevoBaseURL)
}

// NewBrevoProviderWithBaseURL creates a Brevo provider against a custom API
// base URL. Used by tests.
func NewBrevoProviderWithBaseURL(apiKey, from, baseURL string) *BrevoProvider {
	return &BrevoProvider{
		apiKey:  apiKey,
		from:    from,
		baseURL: baseURL,
	}
}

type brevoRecipient struct {
	Email string `json:"email"`
}

type brevoEmail struct {
	Sender      brevoRecipient   `json:"sender"`
	To          []brevoRecipient `json:"to"`
	ReplyTo     *brevoRecipient  `json:"replyTo,omitempty"`
	Subject     string           `json:"subject"`
	HTMLContent string           `json:"htmlContent,omitempty"`
	TextContent string           `json:"textContent,omitempty"`
}

type brevoError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SendEmail sends an email via the Brevo transactional API.
func (b *BrevoProvider) SendEmail(ctx context.Context, email *Email) error {
	if email == nil {
		return fmt.Errorf("email is required")
	}

	payload := brevoEmail{
		Sender:      brevoRecipient{Email: b.from},
		To:          []brevoRecipient{{Email: email.To}},
		Subject:     email.Subject,
		HTMLContent: email.HTML,
		TextContent: email.Text,
	}
	if email.ReplyTo != "" {
		payload.ReplyTo = &brevoRecipient{Email: email.ReplyTo}
	}
	if payload.HTMLContent == "" && payload.TextContent == "" {
		return fmt.Errorf("email body is empty")
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+"/smtp/email", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.apiKey)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	body, readErr := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read brevo response: %w", readErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close brevo response body: %w", closeErr)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var errResp brevoError
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			return fmt.Errorf("brevo error (%s): %s", errResp.Code, errResp.Message)
		}
		return fmt.Errorf("brevo API returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// ValidateAPIKey checks if the API key is valid.
func (b *BrevoProvider) ValidateAPIKey(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", b.baseURL+"/account", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", b.apiKey)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to validate API key: %w", err)
	}
	body, readErr := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read brevo validation response: %w", readErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close brevo validation response body: %w", closeErr)
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > 0 {
			return fmt.Errorf("invalid API key: received status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("invalid API key: received status %d", resp.StatusCode)
	}

	return nil
}
