package shortcode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/rs/zerolog/log"
)

// The 36-symbol alphabet codes are drawn from.
const codeCharSet = "abcdefghijklmnopqrstuvwxyz0123456789"

// The number of bits in a base-36 character.
const log36Of2 = 5.17

// DefaultCodeLength is the number of alphabet characters in a code when the
// caller doesn't ask for a specific length.
const DefaultCodeLength = 20

// DefaultAttempts is the number of candidate codes tried before
// AllocateUnique gives up.
const DefaultAttempts = 5

// ErrCollisionExhausted means every candidate code collided with an existing
// one. The configured code length has too little entropy for current
// occupancy; the caller should retry with a longer length or a different
// prefix.
var ErrCollisionExhausted = errors.New("could not allocate a unique code")

// Generate returns a random code of length base-36 characters, grouped into
// blocks of 5 joined by "-" for readability. The randomness comes from
// crypto/rand, with a byte more entropy requested than the code needs so
// that the modulo step below introduces no measurable bias.
func Generate(length int) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("code length must be positive, got %v", length)
	}

	byteLength := int(float64(length)*log36Of2)/8 + 2
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("can't read from the random source: %v", err)
	}

	value := new(big.Int).SetBytes(buf)
	base := big.NewInt(int64(len(codeCharSet)))
	digit := new(big.Int)

	code := make([]byte, length)
	for i := range code {
		value.DivMod(value, base, digit)
		code[i] = codeCharSet[digit.Int64()]
	}

	groups := make([]string, 0, length/5+1)
	for i := 0; i < length; i += 5 {
		end := i + 5
		if end > length {
			end = length
		}
		groups = append(groups, string(code[i:end]))
	}
	return strings.Join(groups, "-"), nil
}

// AllocateUnique generates candidate codes until exists reports one absent,
// prepending prefix (plus a separator) when given. It never loops forever:
// after maxAttempts consecutive collisions it returns ErrCollisionExhausted.
// A maxAttempts below 1 means DefaultAttempts.
func AllocateUnique(length int, prefix string, exists func(string) (bool, error), maxAttempts int) (string, error) {
	if maxAttempts < 1 {
		maxAttempts = DefaultAttempts
	}

	for i := 0; i < maxAttempts; i++ {
		code, err := Generate(length)
		if err != nil {
			return "", err
		}
		if prefix != "" {
			code = prefix + "-" + code
		}

		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}

		log.Debug().
			Str("candidate", code).
			Int("attempt", i+1).
			Msg("generated code collides with an existing one")
	}

	return "", ErrCollisionExhausted
}
