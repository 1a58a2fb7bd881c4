package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/merittools/aktiva-client/pkg/auth"
)

// countingBudget records Acquire calls without gating.
type countingBudget struct {
	mu    sync.Mutex
	count int
}

func (b *countingBudget) Acquire(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	b.count++
	return nil
}

func (b *countingBudget) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func newTestClient(t *testing.T, serverURL string) (*Client, *countingBudget) {
	t.Helper()
	budget := &countingBudget{}
	cfg := DefaultConfig("test-id", "test-key")
	cfg.BaseURL = serverURL
	cfg.Budget = budget
	cfg.Retry.InitialBackoff = 10 * time.Millisecond
	cfg.Retry.MaxBackoff = 100 * time.Millisecond

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, budget
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{APIKey: "key"}); err == nil {
		t.Error("New() expected error for missing api id")
	}
	if _, err := New(Config{APIID: "id"}); err == nil {
		t.Error("New() expected error for missing api key")
	}
}

func TestCall_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"CustomerId":1}]`))
	}))
	defer server.Close()

	c, budget := newTestClient(t, server.URL)

	data, err := c.Call(context.Background(), "v1/getcustomers", nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if string(data) != `[{"CustomerId":1}]` {
		t.Errorf("Call() = %s", data)
	}
	if budget.Count() != 1 {
		t.Errorf("budget acquisitions = %d, want 1", budget.Count())
	}
}

func TestCall_SignsRequest(t *testing.T) {
	verifier, err := auth.NewSigner("test-id", "test-key")
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}

	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("ApiId") != "test-id" {
			t.Errorf("ApiId = %q, want %q", q.Get("ApiId"), "test-id")
		}
		gotBody, _ = io.ReadAll(r.Body)
		if !verifier.Verify(q.Get("timestamp"), q.Get("signature"), gotBody) {
			t.Error("request signature does not verify")
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c, _ := newTestClient(t, server.URL)

	if _, err := c.Call(context.Background(), "v2/getinvoices", map[string]any{"PeriodStart": "20240101"}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	var params map[string]any
	if err := json.Unmarshal(gotBody, &params); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if params["PeriodStart"] != "20240101" {
		t.Errorf("request params = %v", params)
	}
}

func TestCall_RetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	var requestTimes []time.Time

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requestTimes = append(requestTimes, time.Now())
		n := len(requestTimes)
		mu.Unlock()

		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"ok":true}]`))
	}))
	defer server.Close()

	c, budget := newTestClient(t, server.URL)

	data, err := c.Call(context.Background(), "v1/getaccounts", nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if string(data) != `[{"ok":true}]` {
		t.Errorf("Call() = %s", data)
	}

	if len(requestTimes) != 3 {
		t.Fatalf("requests = %d, want 3", len(requestTimes))
	}
	// Every attempt consumes a budget unit.
	if budget.Count() != 3 {
		t.Errorf("budget acquisitions = %d, want 3", budget.Count())
	}
	// Backoff grows between retries. Jitter is ±20%, so the second gap
	// (nominal 2x) always exceeds the first.
	gap1 := requestTimes[1].Sub(requestTimes[0])
	gap2 := requestTimes[2].Sub(requestTimes[1])
	if gap2 <= gap1 {
		t.Errorf("backoff gaps not increasing: %v then %v", gap1, gap2)
	}
}

func TestCall_ClientErrorNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "no such endpoint", http.StatusNotFound)
	}))
	defer server.Close()

	c, _ := newTestClient(t, server.URL)

	_, err := c.Call(context.Background(), "v1/getnothing", nil)
	if err == nil {
		t.Fatal("Call() expected error")
	}

	if requests != 1 {
		t.Errorf("requests = %d, want 1 (no retry for 4xx)", requests)
	}
	if !IsClientError(err) {
		t.Errorf("IsClientError() = false for %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not *APIError: %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Endpoint != "v1/getnothing" {
		t.Errorf("Endpoint = %q, want %q", apiErr.Endpoint, "v1/getnothing")
	}
}

func TestCall_TooManyRequestsIsRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c, _ := newTestClient(t, server.URL)

	if _, err := c.Call(context.Background(), "v1/gettaxes", nil); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2", requests)
	}
}

func TestCall_RetryExhaustion(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c, _ := newTestClient(t, server.URL)

	_, err := c.Call(context.Background(), "v2/getpayments", nil)
	if err == nil {
		t.Fatal("Call() expected error")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error is not *FetchError: %v", err)
	}
	if fetchErr.Endpoint != "v2/getpayments" {
		t.Errorf("Endpoint = %q, want %q", fetchErr.Endpoint, "v2/getpayments")
	}
	if fetchErr.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", fetchErr.Attempts)
	}
	if fetchErr.LastStatus != http.StatusBadGateway {
		t.Errorf("LastStatus = %d, want 502", fetchErr.LastStatus)
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Error("errors.Is(err, ErrRetryExhausted) = false")
	}
	if requests != 5 {
		t.Errorf("requests = %d, want 5", requests)
	}
}

func TestCall_ScrubsNullBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[{\"Comment\":\"a\x00b\\u0000c\"}]"))
	}))
	defer server.Close()

	c, _ := newTestClient(t, server.URL)

	data, err := c.Call(context.Background(), "v1/getitems", nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if string(data) != `[{"Comment":"abc"}]` {
		t.Errorf("Call() = %q", data)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		t.Errorf("scrubbed body is not valid JSON: %v", err)
	}
}

func TestCall_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, _ := newTestClient(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Call(ctx, "v1/getbanks", nil)
	if err == nil {
		t.Fatal("Call() expected error for cancelled context")
	}
	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("errors.Is(err, ErrContextCancelled) = false: %v", err)
	}
}
