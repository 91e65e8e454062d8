package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// RandomHex returns n random bytes hex encoded.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateInviteCode generates a human-typeable invitation code in the
// format XXXX-XXXX-XXXX.
func GenerateInviteCode() (string, error) {
	h, err := RandomHex(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s", h[0:4], h[4:8], h[8:12]), nil
}
