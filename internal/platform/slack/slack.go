package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/notifications"
	"github.com/NguyenToan3107/hrm-backend/internal/platform/config"
)

const lookupByEmailURL = "https://slack.com/api/users.lookupByEmail"

type noopSender struct{}

func (noopSender) Post(ctx context.Context, payload notifications.Payload) error {
	return nil
}

func (noopSender) MemberIDByEmail(ctx context.Context, email string) (string, error) {
	return "", nil
}

type client struct {
	webhookURL string
	botToken   string
	http       *http.Client
}

// New returns a webhook sender, or a noop when no webhook is configured.
func New(cfg config.Config) notifications.Sender {
	if cfg.SlackWebhookURL == "" {
		return noopSender{}
	}
	return &client{
		webhookURL: cfg.SlackWebhookURL,
		botToken:   cfg.SlackBotToken,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *client) Post(ctx context.Context, payload notifications.Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("slack webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// MemberIDByEmail resolves a workspace member ID so messages can @-mention
// the employee. Lookup failures return an empty ID, not an error; callers
// fall back to the display name.
func (c *client) MemberIDByEmail(ctx context.Context, email string) (string, error) {
	if c.botToken == "" || email == "" {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		lookupByEmailURL+"?email="+url.QueryEscape(email), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.botToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		OK   bool `json:"ok"`
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if !out.OK {
		return "", nil
	}
	return out.User.ID, nil
}
