// Package testutil provides testing utilities for the Aktiva client.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/merittools/aktiva-client/pkg/auth"
)

// MockResponse defines the behavior for a mock Aktiva endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAktiva is a configurable mock Merit Aktiva server for testing. By
// default every path answers an empty record page; per-path handlers
// override that. When created with credentials it rejects requests whose
// HMAC signature does not verify, the way the live API does.
type MockAktiva struct {
	server   *httptest.Server
	verifier *auth.Signer
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount  int
	RejectedCount int
	LastBody      []byte
}

// NewMockAktiva creates a mock server that accepts any signature.
func NewMockAktiva() *MockAktiva {
	return newMock(nil)
}

// NewSignedMockAktiva creates a mock server that verifies request
// signatures against the given credentials and answers 400 on mismatch.
func NewSignedMockAktiva(apiID, apiKey string) (*MockAktiva, error) {
	verifier, err := auth.NewSigner(apiID, apiKey)
	if err != nil {
		return nil, err
	}
	return newMock(verifier), nil
}

func newMock(verifier *auth.Signer) *MockAktiva {
	mock := &MockAktiva{
		verifier: verifier,
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastBody = body
		mock.mu.Unlock()

		if mock.verifier != nil {
			q := r.URL.Query()
			if !mock.verifier.Verify(q.Get("timestamp"), q.Get("signature"), body) {
				mock.mu.Lock()
				mock.RejectedCount++
				mock.mu.Unlock()
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`"Authentication failed"`))
				return
			}
		}

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAktiva) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAktiva) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAktiva) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.RejectedCount = 0
	m.LastBody = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAktiva) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAktiva) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAktiva) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetRejectedCount returns the number of requests that failed signature
// verification.
func (m *MockAktiva) GetRejectedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RejectedCount
}

// GetLastBody returns the request body of the most recent request.
func (m *MockAktiva) GetLastBody() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastBody
}

// defaultHandler answers an empty record page.
func (m *MockAktiva) defaultHandler(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`[]`))
}

// NewRecordPageResponse creates a 200 OK response carrying a record array.
func NewRecordPageResponse(records string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       records,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `"Rate limit exceeded"`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `"Internal server error"`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNullByteResponse creates a 200 OK response whose payload carries the
// null bytes the live API sometimes emits inside text fields.
func NewNullByteResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       "[{\"Comment\":\"ok\\u0000\",\"Code\":\"A\x00B\"}]",
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
