package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID_Format(t *testing.T) {
	for i := 0; i < 200; i++ {
		id, err := GenerateID()
		require.NoError(t, err)
		require.Len(t, id, IDLength)
		for _, c := range id {
			assert.Truef(t, strings.ContainsRune(idAlphabet, c), "GenerateID() produced %q with non-hex rune %q", id, c)
		}
	}
}

func TestGenerateID_CoversAlphabet(t *testing.T) {
	seen := make(map[rune]bool)
	for i := 0; i < 200; i++ {
		id, err := GenerateID()
		require.NoError(t, err)
		for _, c := range id {
			seen[c] = true
		}
	}
	// 2400 draws over 16 symbols: missing one is astronomically unlikely.
	assert.Len(t, seen, len(idAlphabet))
}

func TestGenerateSessionToken_Format(t *testing.T) {
	tokens := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := GenerateSessionToken()
		require.NoError(t, err)
		require.Len(t, tok, SessionTokenLength)
		for _, c := range tok {
			assert.Truef(t, strings.ContainsRune(tokenAlphabet, c), "token %q has rune %q outside the alphabet", tok, c)
		}
		assert.False(t, tokens[tok], "GenerateSessionToken() repeated a token")
		tokens[tok] = true
	}
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("token-a")
	h2 := HashToken("token-a")
	h3 := HashToken("token-b")

	assert.Equal(t, h1, h2, "HashToken must be deterministic")
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
	assert.NotContains(t, h1, "token-a")
}

func TestNewSessionID_Unique(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
