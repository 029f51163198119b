package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPIN(t *testing.T) {
	hash, err := HashPIN("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", hash)
	assert.True(t, CheckPINHash("1234", hash))
	assert.False(t, CheckPINHash("4321", hash))
	assert.False(t, CheckPINHash("1234", ""))
}

func TestValidPIN(t *testing.T) {
	assert.True(t, ValidPIN("0000"))
	assert.True(t, ValidPIN("9876"))
	assert.False(t, ValidPIN("123"))
	assert.False(t, ValidPIN("12345"))
	assert.False(t, ValidPIN("12a4"))
	assert.False(t, ValidPIN(""))
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "mario.rossi", NormalizeUsername("  Mario.Rossi "))
}
