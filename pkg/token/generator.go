package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// DefaultLength is the default identifier length in bytes (256 bits).
const DefaultLength = 32

// MinLength is the smallest accepted identifier length in bytes (128 bits).
const MinLength = 16

// ErrLengthTooShort is returned when a caller asks for fewer than MinLength bytes.
var ErrLengthTooShort = errors.New("token: length below 128 bits")

// Generate generates a cryptographically secure random identifier.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates an identifier from length random bytes.
func GenerateWithLength(length int) (string, error) {
	if length < MinLength {
		return "", ErrLengthTooShort
	}
	bytes, err := GenerateBytes(length)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// GenerateBytes generates random bytes.
func GenerateBytes(length int) ([]byte, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return nil, err
	}
	return bytes, nil
}
