package booking

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const tokenBytes = 24

// newClientToken returns 192 random bits, base64url encoded without padding.
func newClientToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
