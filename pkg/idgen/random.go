package idgen

import (
	"context"
	"crypto/rand"
	"math/big"
)

// DefaultCodeLength is the short code length used when none is configured.
const DefaultCodeLength = 6

// RandomGenerator draws codes uniformly at random from the alphanumeric
// alphabet. It makes no uniqueness guarantee of its own; callers enforce
// uniqueness against the store and retry on collision.
type RandomGenerator struct {
	length int
}

func NewRandomGenerator(length int) *RandomGenerator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &RandomGenerator{length: length}
}

// Generate returns a fresh random code.
func (g *RandomGenerator) Generate(_ context.Context) (string, error) {
	b := make([]byte, g.length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}
