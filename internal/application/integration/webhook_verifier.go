package integration

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/domain/shared"
)

// DefaultTimestampTolerance is the accepted clock skew for inbound webhooks
const DefaultTimestampTolerance = 5 * time.Minute

// webhookEnvelope is the inbound wire format
type webhookEnvelope struct {
	Event     string          `json:"event"`
	StoreURL  string          `json:"store_url"`
	Timestamp json.RawMessage `json:"timestamp"`
	Signature string          `json:"signature"`
	Data      WebhookData     `json:"data"`
}

// WebhookVerifier authenticates inbound webhook bodies. The signature is
// hex(HMAC-SHA256(secret, payload)) where payload is either the canonical
// JSON body without its signature field, or the raw body when the signature
// is sent in a header.
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	clock     shared.Clock
}

// NewWebhookVerifier creates a verifier. A zero tolerance uses the default.
func NewWebhookVerifier(secret string, tolerance time.Duration, clock shared.Clock) *WebhookVerifier {
	if tolerance <= 0 {
		tolerance = DefaultTimestampTolerance
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &WebhookVerifier{secret: []byte(secret), tolerance: tolerance, clock: clock}
}

// Verify parses the body, checks freshness and then the signature.
// headerSignature is optional and takes precedence over the body field.
func (v *WebhookVerifier) Verify(body []byte, headerSignature string) (*WebhookEvent, error) {
	var env webhookEnvelope
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, integration.ErrWebhookMalformed.WithDetails(err.Error())
	}
	if strings.TrimSpace(env.StoreURL) == "" {
		return nil, integration.ErrWebhookMalformed.WithDetails("store_url is required")
	}

	if err := v.VerifyTimestamp(timestampString(env.Timestamp)); err != nil {
		return nil, err
	}

	headerSignature = strings.TrimSpace(headerSignature)
	if headerSignature != "" {
		if !v.matches(body, headerSignature) {
			return nil, integration.ErrWebhookSignatureInvalid
		}
	} else {
		canonical, err := CanonicalPayload(body)
		if err != nil {
			return nil, integration.ErrWebhookMalformed.WithDetails(err.Error())
		}
		if !v.matches(canonical, env.Signature) {
			return nil, integration.ErrWebhookSignatureInvalid
		}
	}

	return &WebhookEvent{
		Event:      env.Event,
		StoreURL:   env.StoreURL,
		Data:       env.Data,
		RawPayload: body,
	}, nil
}

// VerifyTimestamp rejects timestamps further than the tolerance from now.
// RFC 3339 strings and unix seconds are accepted.
func (v *WebhookVerifier) VerifyTimestamp(raw string) error {
	ts, ok := parseWebhookTime(raw)
	if !ok {
		return integration.ErrWebhookStale.WithDetails("timestamp is missing or unparseable")
	}
	skew := v.clock.Now().Sub(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > v.tolerance {
		return integration.ErrWebhookStale
	}
	return nil
}

// Sign returns the hex HMAC of payload. Senders and tests use it.
func (v *WebhookVerifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *WebhookVerifier) matches(payload []byte, signature string) bool {
	if signature == "" || len(v.secret) == 0 {
		return false
	}
	got, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}

// CanonicalPayload re-encodes a JSON object without its signature field.
// Keys come out sorted, numbers keep their literal form and HTML is not escaped.
func CanonicalPayload(body []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	delete(obj, "signature")

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obj); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func parseWebhookTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, true
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(n, 0), true
	}
	return time.Time{}, false
}

// timestampString accepts both "2024-01-19T12:00:00Z" and 1705665600
func timestampString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
