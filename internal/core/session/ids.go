package session

import (
	"github.com/google/uuid"

	"github.com/yndnr/kvsession/internal/core/domain"
	"github.com/yndnr/kvsession/pkg/token"
)

// IDGenerator mints session identifiers.
type IDGenerator func() (string, error)

// TokenIDs returns 32 random bytes, base64url encoded.
func TokenIDs() (string, error) {
	id, err := token.Generate()
	if err != nil {
		return "", domain.ErrIDGeneration.WithCause(err)
	}
	return id, nil
}

// UUIDIDs returns a random (version 4) UUID.
func UUIDIDs() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", domain.ErrIDGeneration.WithCause(err)
	}
	return u.String(), nil
}

func generatorFor(format string) IDGenerator {
	if format == IDFormatUUID {
		return UUIDIDs
	}
	return TokenIDs
}
