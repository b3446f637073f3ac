package record

import (
	"fmt"
	"math/rand/v2"
)

const fauxAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// FauxSerials returns n unique strings "faux"+<alphanumeric of the
// given length>, disjoint from existing (a set of already-used
// serials, typically every serial currently in the repository plus any
// faux serials already handed out earlier in the same batch).
//
// length must be >= 4 (62^4 ~= 14.8M combinations, the floor the spec
// asks for) and n must be >= 1. The generator is math/rand/v2, a
// non-cryptographic PRNG: faux serials are inventory placeholders, not
// security tokens, so the collision space (62^length) matters more
// than unpredictability.
func FauxSerials(existing map[string]bool, n int, length int) ([]string, error) {
	if length < 4 {
		return nil, fmt.Errorf("faux serial length must be >= 4, got %d", length)
	}
	if n < 1 {
		return nil, fmt.Errorf("faux serial count must be >= 1, got %d", n)
	}

	taken := make(map[string]bool, len(existing))
	for k := range existing {
		taken[k] = true
	}

	out := make([]string, 0, n)
	for len(out) < n {
		candidate := "faux" + randomAlphanumeric(length)
		if taken[candidate] {
			continue
		}
		taken[candidate] = true
		out = append(out, candidate)
	}
	return out, nil
}

func randomAlphanumeric(length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = fauxAlphabet[rand.IntN(len(fauxAlphabet))]
	}
	return string(buf)
}
