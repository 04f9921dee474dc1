package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hashed)
	assert.True(t, CheckPassword("correct horse", hashed))
	assert.False(t, CheckPassword("wrong horse", hashed))
	assert.False(t, CheckPassword("anything", ""))
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("short"), ErrWeakPassword)
	assert.ErrorIs(t, ValidatePassword("   seven  "), ErrWeakPassword)
	assert.NoError(t, ValidatePassword("long enough"))
}
