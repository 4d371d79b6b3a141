package game

import (
	"crypto/rand"
)

// DefaultLetters is the pool a round letter is drawn from. Ambiguous and
// rare starting letters (K, Q, W, X, Y, Z) are excluded so every category
// stays answerable.
const DefaultLetters = "ABCDEFGHIJLMNOPRSTUV"

// RollLetter picks a random round letter from the given pool, falling back
// to DefaultLetters when the pool is empty.
func RollLetter(pool string) string {
	if pool == "" {
		pool = DefaultLetters
	}
	b := make([]byte, 1)
	rand.Read(b)
	return string(pool[int(b[0])%len(pool)])
}
