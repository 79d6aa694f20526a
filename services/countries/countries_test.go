package countries

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"
)

func TestNamesFetchesAndSorts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/all" || r.URL.Query().Get("fields") != "name" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		w.Write([]byte(`[
			{"name":{"common":"Saudi Arabia"}},
			{"name":{"common":"Egypt"}},
			{"name":{"common":"Jordan"}}
		]`))
	}))
	defer server.Close()

	svc := NewWithOptions(server.URL, time.Minute, nil)
	names, degraded := svc.Names(context.Background())
	if degraded {
		t.Error("degraded must be false on a successful fetch")
	}
	if len(names) != 3 {
		t.Fatalf("expected 3 names, got %d", len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("names must be sorted: %v", names)
	}
}

func TestNamesFallsBackWhenAPIDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewWithOptions(server.URL, time.Minute, nil)
	names, degraded := svc.Names(context.Background())
	if !degraded {
		t.Error("degraded must be set when the lookup fails")
	}
	if len(names) == 0 {
		t.Error("fallback list must not be empty")
	}
}

func TestNamesRejectsEmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	svc := NewWithOptions(server.URL, time.Minute, nil)
	_, degraded := svc.Names(context.Background())
	if !degraded {
		t.Error("an empty upstream list must fall back, not serve an empty dropdown")
	}
}
