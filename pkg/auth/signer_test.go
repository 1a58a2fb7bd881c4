package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"testing"
	"time"
)

func testSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner("test-id", "test-key")
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	s.SetClock(func() time.Time {
		return time.Date(2024, 3, 7, 15, 30, 45, 0, time.UTC)
	})
	return s
}

func TestNewSigner_Validation(t *testing.T) {
	if _, err := NewSigner("", "key"); err == nil {
		t.Error("NewSigner() expected error for empty api id")
	}
	if _, err := NewSigner("id", ""); err == nil {
		t.Error("NewSigner() expected error for empty api key")
	}
}

func TestSignature(t *testing.T) {
	s := testSigner(t)
	body := []byte(`{"PeriodStart":"20240101"}`)

	got := s.Signature("20240307153045", body)

	mac := hmac.New(sha256.New, []byte("test-key"))
	mac.Write([]byte("test-id" + "20240307153045"))
	mac.Write(body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if got != want {
		t.Errorf("Signature() = %q, want %q", got, want)
	}
}

func TestQueryParams(t *testing.T) {
	s := testSigner(t)
	params := s.QueryParams([]byte(`{}`))

	if got := params.Get("ApiId"); got != "test-id" {
		t.Errorf("ApiId = %q, want %q", got, "test-id")
	}
	if got := params.Get("timestamp"); got != "20240307153045" {
		t.Errorf("timestamp = %q, want %q", got, "20240307153045")
	}
	if params.Get("signature") == "" {
		t.Error("signature is empty")
	}
}

func TestSign_AppendsToURL(t *testing.T) {
	s := testSigner(t)
	body := []byte(`{"WithLines":1}`)

	req, err := http.NewRequest(http.MethodPost, "https://aktiva.merit.ee/api/v1/GetGLBatchesFull", nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}

	s.Sign(req, body)

	q := req.URL.Query()
	if q.Get("ApiId") != "test-id" {
		t.Errorf("ApiId = %q, want %q", q.Get("ApiId"), "test-id")
	}
	if !s.Verify(q.Get("timestamp"), q.Get("signature"), body) {
		t.Error("Verify() = false for signature produced by Sign()")
	}
}

func TestVerify_RejectsTamperedBody(t *testing.T) {
	s := testSigner(t)
	timestamp := "20240307153045"
	sig := s.Signature(timestamp, []byte(`{"a":1}`))

	if s.Verify(timestamp, sig, []byte(`{"a":2}`)) {
		t.Error("Verify() = true for tampered body")
	}
}
