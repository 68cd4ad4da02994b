package helpers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTransactionID(t *testing.T) {
	id := GenerateTransactionID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, GenerateTransactionID())
}

func TestGenerateIdempotencyKey(t *testing.T) {
	key := GenerateIdempotencyKey()
	assert.Len(t, key, 64)
	assert.Regexp(t, `^[0-9a-f]{64}$`, key)
	assert.NotEqual(t, key, GenerateIdempotencyKey())
}
