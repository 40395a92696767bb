package store

import "math/rand/v2"

const labelChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// generateLabel returns a random alphanumeric string of 8 to 16 characters.
func generateLabel(r *rand.Rand) string {
	n := 8 + r.IntN(9)
	b := make([]byte, n)
	for i := range b {
		b[i] = labelChars[r.IntN(len(labelChars))]
	}
	return string(b)
}
