package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// HashToken returns the SHA-256 hash of a token as a hex string. Refresh
// tokens are high-entropy, so a fast unsalted hash is sufficient; storing
// only the hash prevents stolen database entries from being replayed.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GenerateCode returns an alphanumeric one-time code of the given length,
// drawn uniformly over [A-Z0-9] from a cryptographically secure source.
func GenerateCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))

	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}

	return string(buf), nil
}
