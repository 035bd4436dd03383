package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(url string, opts ...Option) *Client {
	base := []Option{
		WithRetryBackoff(time.Millisecond, 10*time.Millisecond),
		WithSleeper(func(time.Duration) {}),
	}
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "test-model",
	}, append(base, opts...)...)
}

func TestChatJSON_FlatChoicesShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"logline\":\"A heist.\"}"}}]}`)
	}))
	defer server.Close()

	var out struct {
		Logline string `json:"logline"`
	}
	raw, err := newTestClient(server.URL).ChatJSON(context.Background(), Request{User: "go"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Logline != "A heist." {
		t.Errorf("expected logline %q, got %q", "A heist.", out.Logline)
	}
	if raw == "" {
		t.Error("expected raw payload, got empty string")
	}
}

func TestChatJSON_ContentPartsShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"content":[{"type":"text","text":"{\"a\":"},{"type":"tool_use"},{"type":"text","text":"1}"}]}`)
	}))
	defer server.Close()

	var out map[string]int
	if _, err := newTestClient(server.URL).ChatJSON(context.Background(), Request{User: "go"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["a"] != 1 {
		t.Errorf("expected a=1, got %v", out)
	}
}

func TestChatJSON_StripsCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"`+"```json\\n{\\\"a\\\":1}\\n```"+`"}}]}`)
	}))
	defer server.Close()

	var out map[string]int
	if _, err := newTestClient(server.URL).ChatJSON(context.Background(), Request{User: "go"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["a"] != 1 {
		t.Errorf("expected a=1 from fenced payload, got %v", out)
	}
}

func TestChatJSON_401IsNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	var out map[string]any
	_, err := newTestClient(server.URL).ChatJSON(context.Background(), Request{User: "go"}, &out)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", calls)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 status error, got %v", err)
	}
}

func TestChatJSON_500RetriedToCap(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	var out map[string]any
	_, err := newTestClient(server.URL, WithRetryMaxAttempts(3)).ChatJSON(context.Background(), Request{User: "go"}, &out)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected terminal 500 error, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Errorf("expected exhaustion error naming the attempt count, got %v", err)
	}
}

func TestChatJSON_429HonorsRetryAfter(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "7")
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{}"}}]}`)
	}))
	defer server.Close()

	var slept []time.Duration
	client := newTestClient(server.URL,
		WithRetryBackoff(time.Millisecond, time.Minute),
		WithSleeper(func(d time.Duration) {
			slept = append(slept, d)
		}))

	var out map[string]any
	if _, err := client.ChatJSON(context.Background(), Request{User: "go"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != 7*time.Second {
		t.Errorf("expected one 7s sleep from Retry-After, got %v", slept)
	}
}

func TestChatJSON_BadPayloadRetriesLikeTransportFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, `{"choices":[{"message":{"content":"sorry, I cannot produce JSON"}}]}`)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`)
	}))
	defer server.Close()

	var out map[string]bool
	if _, err := newTestClient(server.URL).ChatJSON(context.Background(), Request{User: "go"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected bad payload to consume one attempt, got %d calls", calls)
	}
	if !out["ok"] {
		t.Errorf("expected ok=true after recovery, got %v", out)
	}
}

func TestChatJSON_RequiresUserPromptAndKey(t *testing.T) {
	client := NewClient(Config{APIKey: "k", BaseURL: "http://example.invalid", Model: "m"})
	var out map[string]any
	if _, err := client.ChatJSON(context.Background(), Request{}, &out); err == nil {
		t.Error("expected error for empty user prompt")
	}

	noKey := NewClient(Config{BaseURL: "http://example.invalid", Model: "m"})
	if _, err := noKey.ChatJSON(context.Background(), Request{User: "hi"}, &out); err == nil {
		t.Error("expected error for missing api key")
	}
}

func TestBackoffDelayDoublesAndClamps(t *testing.T) {
	client := NewClient(Config{APIKey: "k"}, WithRetryBackoff(time.Second, 5*time.Second))
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{5, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := client.backoffDelay(tt.attempt); got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestDecodeLoose(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantOK  bool
		wantA   int
	}{
		{"direct", `{"a":2}`, true, 2},
		{"trailing object", `The result is: {"a":3}`, true, 3},
		{"fenced", "```json\n{\"a\":4}\n```", true, 4},
		{"garbage", "no json here", false, 0},
		{"empty", "   ", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				A int `json:"a"`
			}
			ok := DecodeLoose(tt.content, &out)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && out.A != tt.wantA {
				t.Errorf("expected a=%d, got %d", tt.wantA, out.A)
			}
		})
	}
}

func TestCallStats_SnapshotAggregates(t *testing.T) {
	stats := NewCallStats(time.Hour)
	for _, ms := range []int64{10, 20, 30, 40} {
		stats.Record(time.Duration(ms) * time.Millisecond)
	}
	snap := stats.Snapshot()
	if snap.Count != 4 {
		t.Fatalf("expected 4 samples, got %d", snap.Count)
	}
	if snap.MinMs != 10 || snap.MaxMs != 40 {
		t.Errorf("expected min=10 max=40, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 25 {
		t.Errorf("expected avg=25, got %v", snap.AvgMs)
	}
	if snap.P50Ms != 20 {
		t.Errorf("expected p50=20, got %d", snap.P50Ms)
	}
}
