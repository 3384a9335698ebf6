package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebhookNotifierSendsPayload(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL)
	err := notifier.Notify(context.Background(), AlertMessage{
		Kind:     "maintenance_window",
		Job:      "update_ap_data",
		Until:    "2026-03-01T13:00:00Z",
		Severity: "high",
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got.MsgType != "text" {
		t.Fatalf("msgtype = %q", got.MsgType)
	}
	for _, want := range []string{"maintenance_window", "update_ap_data", "high", "2026-03-01T13:00:00Z"} {
		if !strings.Contains(got.Text.Content, want) {
			t.Fatalf("content %q missing %q", got.Text.Content, want)
		}
	}
}

func TestWebhookNotifierNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL)
	if err := notifier.Notify(context.Background(), AlertMessage{Kind: "x"}); err == nil {
		t.Fatal("expected error on non-2xx")
	}
}

func TestWebhookNotifierEmptyURL(t *testing.T) {
	notifier := NewWebhookNotifier("")
	if err := notifier.Notify(context.Background(), AlertMessage{Kind: "x"}); err == nil {
		t.Fatal("expected error on empty url")
	}
}
