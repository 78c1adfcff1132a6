package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/josejalvarezm/payments-webhook-connector/internal/payload"
)

// HMACValidator implements SignatureValidator using HMAC-SHA256 over the raw body
type HMACValidator struct {
	secret string
}

// NewHMACValidator creates a new HMAC signature validator
func NewHMACValidator(secret string) *HMACValidator {
	return &HMACValidator{secret: secret}
}

// Validate checks the header signature against the raw body
func (v *HMACValidator) Validate(body []byte, _ []payload.Value, signature string) error {
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	signature = strings.TrimPrefix(signature, "sha256=")
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}

	return nil
}

// NotificationHMACValidator validates the hmacSignature carried inside each
// notification item (additionalData.hmacSignature). The key is hex encoded.
type NotificationHMACValidator struct {
	key []byte
}

// NewNotificationHMACValidator creates a validator for in-payload signatures
func NewNotificationHMACValidator(hexKey string) (*NotificationHMACValidator, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("hmac key must be hex encoded: %w", err)
	}
	return &NotificationHMACValidator{key: key}, nil
}

// Validate checks every notification item. The signing string is built from
// the same extracted values that get stored, so an unsigned member placed
// ahead of a signed one fails verification. The header signature is unused.
func (v *NotificationHMACValidator) Validate(_ []byte, items []payload.Value, _ string) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no notification items", ErrInvalidSignature)
	}

	for _, item := range items {
		given := itemSignature(item)
		if given == "" {
			return fmt.Errorf("%w: missing hmacSignature", ErrInvalidSignature)
		}
		fields := payload.ExtractNative(item, RequiredFields)
		if !hmac.Equal([]byte(given), []byte(v.Sign(fields))) {
			return ErrInvalidSignature
		}
	}

	return nil
}

// Sign computes the base64 HMAC-SHA256 signature over extracted notification
// fields, keyed by the Field* names.
func (v *NotificationHMACValidator) Sign(fields map[string]any) string {
	signing := strings.Join([]string{
		scalarString(fields[FieldPSPReference]),
		scalarString(fields[FieldOriginalReference]),
		scalarString(fields[FieldMerchantAccountCode]),
		scalarString(fields[FieldMerchantReference]),
		scalarString(fields[FieldValue]),
		scalarString(fields[FieldCurrency]),
		scalarString(fields[FieldEventCode]),
		scalarString(fields[FieldSuccess]),
	}, ":")

	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(signing))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// itemSignature reads additionalData.hmacSignature from one item
func itemSignature(item payload.Value) string {
	obj, ok := item.(payload.Object)
	if !ok {
		return ""
	}
	additional, ok := obj.Get("additionalData")
	if !ok {
		return ""
	}
	additionalObj, ok := additional.(payload.Object)
	if !ok {
		return ""
	}
	sig, ok := additionalObj.Get("hmacSignature")
	if !ok {
		return ""
	}
	scalar, ok := sig.(payload.Scalar)
	if !ok {
		return ""
	}
	s, _ := scalar.V.(string)
	return s
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}
