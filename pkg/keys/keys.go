package keys

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Purposes for derived keys. Each purpose yields an independent key from the same secret.
const (
	PurposeVerificationHash = "csl/certificate-verification-hash/v1"
	PurposeDownloadURL      = "csl/document-download-url/v1"
)

// Derive expands secret into a 32-byte key bound to purpose using HKDF-SHA256.
func Derive(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("derive %s: empty secret", purpose)
	}
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive %s: %w", purpose, err)
	}
	return key, nil
}
