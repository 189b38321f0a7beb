// Package tokens generates the opaque identifiers used for activation codes.
package tokens

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateOpaqueToken returns nBytes of randomness as unpadded base64url.
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
