package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateSecret returns 32 random bytes, URL-safe base64 encoded. Suitable
// as an HS256 signing key.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
