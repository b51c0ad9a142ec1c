package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
)

const (
	DefaultEmailEndpoint = "https://api.resend.com/emails"
	emailPreviewLength   = 100
)

// EmailConfig configures the email transport.
type EmailConfig struct {
	APIKey   string
	From     string
	Endpoint string
}

// EmailSender sends HTML email through a Resend compatible HTTP API.
type EmailSender struct {
	config     EmailConfig
	httpClient *http.Client
}

// NewEmailSender creates a sender. It fails without an API key or sender.
func NewEmailSender(cfg EmailConfig) (*EmailSender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("email API key is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("email sender address is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEmailEndpoint
	}
	return &EmailSender{
		config:     cfg,
		httpClient: &http.Client{Timeout: transportTimeout},
	}, nil
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type emailResponse struct {
	ID string `json:"id"`
}

// Send emails msg to address.
func (s *EmailSender) Send(ctx context.Context, address string, msg Message) (string, error) {
	body, err := json.Marshal(emailRequest{
		From:    s.config.From,
		To:      []string{address},
		Subject: msg.Title,
		HTML:    renderEmail(msg),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExternalDependency, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Idempotency-Key", msg.IdempotencyKey)

	httpResp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send email: %w", ErrExternalDependency, err)
	}
	defer httpResp.Body.Close()

	respBody, _ := io.ReadAll(httpResp.Body)
	if httpResp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: email API error %d: %s", ErrExternalDependency, httpResp.StatusCode, string(respBody))
	}

	var parsed emailResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: invalid email response: %w", ErrExternalDependency, err)
	}
	return parsed.ID, nil
}

func renderEmail(msg Message) string {
	var b strings.Builder
	b.WriteString("<h2>" + html.EscapeString(msg.Title) + "</h2>\n")
	b.WriteString("<p><em>" + html.EscapeString(Preview(msg.Content, emailPreviewLength)) + "</em></p>\n")
	b.WriteString("<hr>\n")
	b.WriteString("<div>" + strings.ReplaceAll(html.EscapeString(msg.Content), "\n", "<br>") + "</div>\n")
	return b.String()
}
