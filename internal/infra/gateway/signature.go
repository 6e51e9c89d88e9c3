package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"

	"edu-subscription-platform/internal/domain/model"
)

// VerifySignature validates an inbound webhook body against the provider's
// shared-secret scheme. It is pure and never returns an error: a missing
// secret, missing header or any mismatch is simply an invalid signature.
//
// Paystack signs with HMAC-SHA512 over the raw body, keyed by the secret.
// Monnify signs with plain SHA512 over secret||body. Both transmit the hex
// digest; comparison is case-insensitive but otherwise exact, since substring
// checks would accept truncated or padded forgeries.
func VerifySignature(provider model.Provider, body []byte, signatureHeader, secret string) bool {
	if secret == "" || signatureHeader == "" {
		return false
	}

	var expected string
	switch provider {
	case model.ProviderPaystack:
		h := hmac.New(sha512.New, []byte(secret))
		h.Write(body)
		expected = hex.EncodeToString(h.Sum(nil))
	case model.ProviderMonnify:
		sum := sha512.Sum512(append([]byte(secret), body...))
		expected = hex.EncodeToString(sum[:])
	default:
		return false
	}

	return strings.EqualFold(expected, signatureHeader)
}
