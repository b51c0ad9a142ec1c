package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultLinePushEndpoint = "https://api.line.me/v2/bot/message/push"
	linePreviewLength       = 50
	transportTimeout        = 30 * time.Second
)

// LineConfig configures the LINE push transport.
type LineConfig struct {
	ChannelToken string
	Endpoint     string
	DeepLinkURL  string
}

// LinePusher sends flex card messages through the LINE Messaging API.
type LinePusher struct {
	config     LineConfig
	httpClient *http.Client
}

// NewLinePusher creates a pusher. It fails without a channel token.
func NewLinePusher(cfg LineConfig) (*LinePusher, error) {
	if cfg.ChannelToken == "" {
		return nil, fmt.Errorf("LINE channel token is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultLinePushEndpoint
	}
	return &LinePusher{
		config: cfg,
		httpClient: &http.Client{
			Timeout: transportTimeout,
		},
	}, nil
}

type linePushResponse struct {
	SentMessages []struct {
		ID string `json:"id"`
	} `json:"sentMessages"`
}

// Push sends msg to a LINE user ID.
func (p *LinePusher) Push(ctx context.Context, accountID string, msg Message) (string, error) {
	payload := map[string]any{
		"to": accountID,
		"messages": []map[string]any{
			{
				"type":     "flex",
				"altText":  msg.Title,
				"contents": p.card(msg),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExternalDependency, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.ChannelToken)
	req.Header.Set("X-Line-Retry-Key", msg.IdempotencyKey)

	httpResp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send LINE message: %w", ErrExternalDependency, err)
	}
	defer httpResp.Body.Close()

	respBody, _ := io.ReadAll(httpResp.Body)
	if httpResp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: LINE API error %d: %s", ErrExternalDependency, httpResp.StatusCode, string(respBody))
	}

	var parsed linePushResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: invalid LINE response: %w", ErrExternalDependency, err)
	}
	if len(parsed.SentMessages) == 0 {
		return "", nil
	}
	return parsed.SentMessages[0].ID, nil
}

func (p *LinePusher) card(msg Message) map[string]any {
	bubble := map[string]any{
		"type": "bubble",
		"body": map[string]any{
			"type":   "box",
			"layout": "vertical",
			"contents": []map[string]any{
				{"type": "text", "text": msg.Title, "weight": "bold", "size": "lg", "wrap": true},
				{"type": "text", "text": Preview(msg.Content, linePreviewLength), "size": "sm", "color": "#666666", "wrap": true, "margin": "md"},
			},
		},
	}
	if p.config.DeepLinkURL != "" {
		bubble["footer"] = map[string]any{
			"type":   "box",
			"layout": "vertical",
			"contents": []map[string]any{
				{
					"type":  "button",
					"style": "primary",
					"action": map[string]any{
						"type":  "uri",
						"label": "Read the episode",
						"uri":   p.config.DeepLinkURL,
					},
				},
			},
		}
	}
	return bubble
}
