package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// WebhookValidator validates Mercado Pago webhook signatures.
type WebhookValidator struct {
	secret string
}

// NewWebhookValidator creates a validator with the webhook secret. An empty
// secret disables validation, which is what the stub gateway mode uses.
func NewWebhookValidator(secret string) *WebhookValidator {
	return &WebhookValidator{secret: secret}
}

// Enabled reports whether a secret is configured.
func (v *WebhookValidator) Enabled() bool { return v.secret != "" }

// ValidateSignature checks the x-signature header from Mercado Pago.
// See: https://www.mercadopago.com.br/developers/pt/docs/your-integrations/notifications/webhooks
//
// The x-signature header contains: ts=<timestamp>,v1=<signature>
// The signature is HMAC-SHA256 of: id:<data.id>;request-id:<x-request-id>;ts:<timestamp>;
func (v *WebhookValidator) ValidateSignature(xSignature, xRequestID, dataID string) bool {
	if xSignature == "" || v.secret == "" {
		return false
	}

	ts, hash := parseSignatureHeader(xSignature)
	if ts == "" || hash == "" {
		return false
	}

	manifest := buildManifest(dataID, xRequestID, ts)

	h := hmac.New(sha256.New, []byte(v.secret))
	h.Write([]byte(manifest))
	expected := hex.EncodeToString(h.Sum(nil))

	return hmac.Equal([]byte(hash), []byte(expected))
}

// parseSignatureHeader extracts the ts and v1 values from the header.
func parseSignatureHeader(header string) (ts, hash string) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			hash = value
		}
	}
	return ts, hash
}

// buildManifest constructs the string to be signed.
func buildManifest(dataID, requestID, ts string) string {
	var parts []string
	if dataID != "" {
		parts = append(parts, "id:"+dataID)
	}
	if requestID != "" {
		parts = append(parts, "request-id:"+requestID)
	}
	if ts != "" {
		parts = append(parts, "ts:"+ts)
	}
	return strings.Join(parts, ";") + ";"
}
