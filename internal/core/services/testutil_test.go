package services

import (
	"crypto/rand"
	"encoding/base64"
)

func generateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
