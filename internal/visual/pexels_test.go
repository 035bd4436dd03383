package visual

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStockClientSearch(t *testing.T) {
	var gotAuth, gotQuery, gotPerPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("query")
		gotPerPage = r.URL.Query().Get("per_page")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"photos":[
			{"src":{"original":"https://img/1.jpg","large":"https://img/1-lg.jpg"}},
			{"src":{"original":"","large":"https://img/2-lg.jpg"}},
			{"src":{"original":"","large":""}}
		]}`))
	}))
	defer srv.Close()

	c := NewStockClient(srv.URL, "test-key")
	urls, err := c.Search(context.Background(), "mumbai monsoon", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotAuth != "test-key" {
		t.Errorf("expected bare api key auth, got %q", gotAuth)
	}
	if gotQuery != "mumbai monsoon" {
		t.Errorf("expected query passed through, got %q", gotQuery)
	}
	if gotPerPage != "2" {
		t.Errorf("expected per_page 2, got %q", gotPerPage)
	}
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %v", urls)
	}
	if urls[0] != "https://img/1.jpg" {
		t.Errorf("expected original url preferred, got %q", urls[0])
	}
	if urls[1] != "https://img/2-lg.jpg" {
		t.Errorf("expected large url fallback, got %q", urls[1])
	}
}

func TestStockClientRequiresKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewStockClient(srv.URL, "")
	if _, err := c.Search(context.Background(), "anything", 5); err == nil {
		t.Error("expected error without an api key")
	}
	if called {
		t.Error("expected no request without an api key")
	}
}

func TestStockClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewStockClient(srv.URL, "test-key")
	if _, err := c.Search(context.Background(), "anything", 5); err == nil {
		t.Error("expected error on non-200 status")
	}
}

func TestStockClientDefaultLimit(t *testing.T) {
	var gotPerPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPerPage = r.URL.Query().Get("per_page")
		w.Write([]byte(`{"photos":[]}`))
	}))
	defer srv.Close()

	c := NewStockClient(srv.URL, "test-key")
	urls, err := c.Search(context.Background(), "empty", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotPerPage != "5" {
		t.Errorf("expected default per_page 5, got %q", gotPerPage)
	}
	if len(urls) != 0 {
		t.Errorf("expected no urls, got %v", urls)
	}
}
