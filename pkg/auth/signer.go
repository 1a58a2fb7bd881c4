// Package auth implements the Merit Aktiva request signing scheme.
//
// Every request carries three query parameters: ApiId, timestamp
// (YYYYMMDDHHMMSS in UTC) and signature. The signature is the base64-encoded
// HMAC-SHA256 of the concatenation apiID + timestamp + requestBodyJSON,
// keyed with the API key.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/merittools/aktiva-client/pkg/dates"
)

// Signer signs Merit Aktiva requests.
type Signer struct {
	apiID  string
	apiKey []byte
	now    func() time.Time
}

// NewSigner creates a signer for the given credentials.
func NewSigner(apiID, apiKey string) (*Signer, error) {
	if apiID == "" {
		return nil, fmt.Errorf("api id is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	return &Signer{
		apiID:  apiID,
		apiKey: []byte(apiKey),
		now:    time.Now,
	}, nil
}

// APIID returns the API ID the signer was created with.
func (s *Signer) APIID() string {
	return s.apiID
}

// SetClock overrides the time source (for testing).
func (s *Signer) SetClock(now func() time.Time) {
	s.now = now
}

// Signature computes the base64 HMAC-SHA256 signature for a request body at
// the given timestamp.
func (s *Signer) Signature(timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, s.apiKey)
	mac.Write([]byte(s.apiID))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// QueryParams returns the auth query parameters for a request body.
func (s *Signer) QueryParams(body []byte) url.Values {
	timestamp := dates.AuthTimestamp(s.now())
	return url.Values{
		"ApiId":     []string{s.apiID},
		"timestamp": []string{timestamp},
		"signature": []string{s.Signature(timestamp, body)},
	}
}

// Sign appends the auth parameters to the request URL. The body must be the
// exact bytes sent as the request payload, since they are part of the
// signature.
func (s *Signer) Sign(req *http.Request, body []byte) {
	q := req.URL.Query()
	for key, vals := range s.QueryParams(body) {
		for _, v := range vals {
			q.Set(key, v)
		}
	}
	req.URL.RawQuery = q.Encode()
}

// Verify reports whether a signature matches the given timestamp and body.
// Intended for test servers standing in for the live API.
func (s *Signer) Verify(timestamp, signature string, body []byte) bool {
	want := s.Signature(timestamp, body)
	return hmac.Equal([]byte(want), []byte(signature))
}
