package ckkswrapper

import "github.com/tuneinsight/lattigo/v5/core/rlwe"

// HasLevels reports whether ct can still be rescaled n more times.
func HasLevels(ct *rlwe.Ciphertext, n int) bool {
	return ct.Level() >= n
}
