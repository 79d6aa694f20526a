package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(serverURL string, retries int) *Client {
	c := NewWithOptions(serverURL, "test-key", 5*time.Second, retries)
	c.SetBackoff(time.Millisecond)
	return c
}

func TestListRetriesServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"co_id":1,"co_name":"Quran Recitation"}]`))
	}))
	defer server.Close()

	c := testClient(server.URL, 3)
	var out []map[string]interface{}
	if err := c.List(context.Background(), "courses", &out); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if len(out) != 1 {
		t.Errorf("expected 1 course, got %d", len(out))
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"course not found"}`))
	}))
	defer server.Close()

	c := testClient(server.URL, 3)
	err := c.List(context.Background(), "courses", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", apiErr.Status)
	}
	if apiErr.Message != "course not found" {
		t.Errorf("unexpected message: %q", apiErr.Message)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("4xx should not be retried, got %d attempts", got)
	}
}

func TestPostWithoutKeyIsNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := testClient(server.URL, 3)
	if _, err := c.Create(context.Background(), "payments", map[string]string{}, "", nil); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("POST without idempotency key should not be retried, got %d attempts", got)
	}
}

func TestPostWithKeyIsRetriedAndSendsHeader(t *testing.T) {
	var attempts int32
	var seenKeys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenKeys = append(seenKeys, r.Header.Get("Idempotency-Key"))
		if atomic.AddInt32(&attempts, 1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"pay_id":7}`))
	}))
	defer server.Close()

	c := testClient(server.URL, 3)
	status, err := c.Create(context.Background(), "payments", map[string]string{"email": "a@b.com"}, "key-123", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if status != http.StatusCreated {
		t.Errorf("expected 201, got %d", status)
	}
	if len(seenKeys) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(seenKeys))
	}
	for i, k := range seenKeys {
		if k != "key-123" {
			t.Errorf("attempt %d: missing or wrong Idempotency-Key: %q", i, k)
		}
	}
}

func TestTransportFailureWrapsSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	c := testClient(server.URL, 1)
	err := c.List(context.Background(), "courses", nil)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestFindSendsQueryParameters(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("email")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := testClient(server.URL, 0)
	var out []map[string]interface{}
	if err := c.Find(context.Background(), "payments", map[string]string{"email": "student@academy.sa"}, &out); err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if gotQuery != "student@academy.sa" {
		t.Errorf("filter not sent as query parameter, got %q", gotQuery)
	}
}

func TestDeleteUsesDeleteVerb(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := testClient(server.URL, 0)
	if err := c.Delete(context.Background(), "enrollments", 42); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("expected DELETE, got %s", gotMethod)
	}
	if gotPath != "/enrollments/42" {
		t.Errorf("unexpected path: %s", gotPath)
	}
}

func TestExtractMessagePrefersMessageField(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"invalid amount"}`, "invalid amount"},
		{"error field", `{"error":"bad request"}`, "bad request"},
		{"both fields", `{"message":"m","error":"e"}`, "m"},
		{"empty body", ``, "request rejected by the academy API"},
		{"non-json", `<html>oops</html>`, "request rejected by the academy API"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("extractMessage(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}
