package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendPostsMarkdownToChatWebhook(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewWithEndpoint("token123", "-1001", server.URL)
	n.Send(context.Background(), "*hello*")

	if gotPath != "/bottoken123/sendMessage" {
		t.Errorf("unexpected webhook path: %s", gotPath)
	}
	if gotBody["chat_id"] != "-1001" {
		t.Errorf("chat_id: %q", gotBody["chat_id"])
	}
	if gotBody["text"] != "*hello*" {
		t.Errorf("text: %q", gotBody["text"])
	}
	if gotBody["parse_mode"] != "Markdown" {
		t.Errorf("parse_mode: %q", gotBody["parse_mode"])
	}
}

func TestSendWithoutCredentialsIsNoop(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	n := NewWithEndpoint("", "", server.URL)
	n.Send(context.Background(), "ignored")
	if called {
		t.Error("no webhook call may happen without credentials")
	}
}

func TestSendSwallowsWebhookFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewWithEndpoint("t", "c", server.URL)
	// Must not panic or surface an error to the caller.
	n.Send(context.Background(), "message")
}

func TestMessageFormatters(t *testing.T) {
	submitted := PaymentSubmitted("s@a.sa", "Tajweed", "Bank Transfer", 187.5, "SAR", "evening")
	for _, want := range []string{"s@a.sa", "Tajweed", "187.50 SAR", "evening"} {
		if !strings.Contains(submitted, want) {
			t.Errorf("PaymentSubmitted missing %q: %s", want, submitted)
		}
	}

	reviewed := PaymentReviewed(42, "s@a.sa", "Tajweed", "accepted")
	for _, want := range []string{"#42", "accepted", "Tajweed"} {
		if !strings.Contains(reviewed, want) {
			t.Errorf("PaymentReviewed missing %q: %s", want, reviewed)
		}
	}

	distributed := RosterDistributed(7, "Tajweed", 5, 4)
	for _, want := range []string{"#7", "Tajweed", "5", "4"} {
		if !strings.Contains(distributed, want) {
			t.Errorf("RosterDistributed missing %q: %s", want, distributed)
		}
	}
}
