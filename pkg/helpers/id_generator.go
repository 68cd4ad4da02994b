package helpers

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateTransactionID generates a UUID v4 transaction ID
func GenerateTransactionID() string {
	return uuid.New().String()
}

// GenerateReference generates the reference sent to the provider with a
// purchase request
func GenerateReference() string {
	return uuid.New().String()
}

// GenerateIdempotencyKey derives an idempotency key for callers that did not
// supply one: lowercase hex SHA-256 of a fresh UUID. The randomness of the
// UUID guarantees the key uniqueness invariant for keyless requests.
func GenerateIdempotencyKey() string {
	hash := sha256.Sum256([]byte(uuid.New().String()))
	return hex.EncodeToString(hash[:])
}
