// Package notify forwards operational alerts to an external webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Notifier delivers one alert. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, msg AlertMessage) error
}

// AlertMessage is one operational alert.
type AlertMessage struct {
	Kind     string `json:"kind"`
	Job      string `json:"job,omitempty"`
	Building string `json:"building,omitempty"`
	Severity string `json:"severity,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Until    string `json:"until,omitempty"`
}

// WebhookNotifier sends alerts via webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends an alert to the webhook.
func (n *WebhookNotifier) Notify(ctx context.Context, msg AlertMessage) error {
	if n == nil || n.url == "" {
		return errors.New("webhook notifier: empty url")
	}
	payload := webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: formatAlertMessage(msg)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("webhook notifier: non-2xx")
	}
	return nil
}

func formatAlertMessage(msg AlertMessage) string {
	var b strings.Builder
	b.WriteString("[AP Monitor Alert]\n")
	if msg.Kind != "" {
		fmt.Fprintf(&b, "Kind: %s\n", msg.Kind)
	}
	if msg.Job != "" {
		fmt.Fprintf(&b, "Job: %s\n", msg.Job)
	}
	if msg.Building != "" {
		fmt.Fprintf(&b, "Building: %s\n", msg.Building)
	}
	if msg.Severity != "" {
		fmt.Fprintf(&b, "Severity: %s\n", msg.Severity)
	}
	if msg.Until != "" {
		fmt.Fprintf(&b, "Until: %s\n", msg.Until)
	}
	if msg.Detail != "" {
		fmt.Fprintf(&b, "Detail: %s\n", msg.Detail)
	}
	return strings.TrimSpace(b.String())
}
