package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Slack posts alerts to an incoming-webhook URL. The title is rendered bold
// above the body, mrkdwn style.
type Slack struct {
	webhook string
	client  *http.Client
}

// NewSlack returns nil when no webhook is configured, so callers can skip
// wiring the channel entirely.
func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		webhook: webhook,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Slack) Send(ctx context.Context, title, text string) error {
	payload, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: fmt.Sprintf("*%s*\n%s", title, text)})
	if err != nil {
		return fmt.Errorf("slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhook, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("slack post: unexpected status %d", resp.StatusCode)
	}
	return nil
}
