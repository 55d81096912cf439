package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

// Auth holds the trigger endpoint credentials. Two schemes are accepted:
// a bearer token for simple schedulers (Vercel-style cron services) and a
// body HMAC for schedulers that sign their requests. A request is
// authorized when it satisfies any configured scheme.
type Auth struct {
	// CronSecret is compared against "Authorization: Bearer <secret>".
	CronSecret string
	// SigningKey verifies the hex HMAC-SHA256 of the request body carried
	// in X-Scheduler-Signature.
	SigningKey string
}

// Enabled reports whether at least one scheme is configured.
func (a Auth) Enabled() bool {
	return a.CronSecret != "" || a.SigningKey != ""
}

// authorize checks the request against the configured schemes. All
// comparisons are constant time.
func (a Auth) authorize(r *http.Request, body []byte) bool {
	if a.CronSecret != "" {
		header := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if subtle.ConstantTimeCompare([]byte(token), []byte(a.CronSecret)) == 1 {
				return true
			}
		}
	}

	if a.SigningKey != "" {
		if sig := r.Header.Get("X-Scheduler-Signature"); sig != "" {
			expected := computeSignature(a.SigningKey, body)
			if hmac.Equal([]byte(expected), []byte(sig)) {
				return true
			}
		}
	}

	return false
}

func computeSignature(key string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ComputeSignature is exported for scheduler integrations that sign
// their trigger requests.
func ComputeSignature(key string, body []byte) string {
	return computeSignature(key, body)
}
