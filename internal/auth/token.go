package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/rs/xid"
)

const (
	// IDLength is the length of user, property and pointer identifiers.
	IDLength = 12
	// SessionTokenLength is the length of a bearer session token.
	SessionTokenLength = 32

	idAlphabet    = "0123456789ABCDEF"
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="
)

// GenerateID returns a random identifier of IDLength uppercase hex digits.
//
// Uniqueness is NOT guaranteed here. Callers insert with the identifier and
// retry on a storage uniqueness conflict.
func GenerateID() (string, error) {
	return randomString(idAlphabet, IDLength)
}

// GenerateSessionToken returns a bearer token of SessionTokenLength
// characters drawn uniformly from [A-Za-z0-9+/=].
func GenerateSessionToken() (string, error) {
	return randomString(tokenAlphabet, SessionTokenLength)
}

// NewSessionID returns the identifier for a session record.
func NewSessionID() string {
	return xid.New().String()
}

// HashToken returns the hex SHA-256 of a session token. Only this digest is
// stored, so a leaked database does not yield usable tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// randomString samples n characters uniformly from alphabet using
// crypto/rand. rand.Int rejects out-of-range draws, so there is no modulo bias.
func randomString(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("auth: reading random bytes: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
