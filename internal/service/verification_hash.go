package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const verificationHashBytes = 16

// VerificationHasher derives the printed verification code of a certificate.
type VerificationHasher struct {
	key []byte
}

// NewVerificationHasher builds a hasher over a derived key.
func NewVerificationHasher(key []byte) *VerificationHasher {
	return &VerificationHasher{key: key}
}

// Compute returns the uppercase hex HMAC-SHA256 of cslNumber truncated to 16 bytes.
func (h *VerificationHasher) Compute(cslNumber string) string {
	mac := hmac.New(sha256.New, h.key)
	_, _ = mac.Write([]byte(cslNumber))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)[:verificationHashBytes]))
}

// Matches compares a presented code against the stored one in constant time.
func (h *VerificationHasher) Matches(stored, presented string) bool {
	presented = strings.ToUpper(strings.TrimSpace(presented))
	return hmac.Equal([]byte(stored), []byte(presented))
}
