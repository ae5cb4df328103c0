package hashing

import (
	"crypto/rand"
	"fmt"
	"io"
)

// entropy returns r, or crypto/rand.Reader when r is nil.
func entropy(r io.Reader) io.Reader {
	if r == nil {
		return rand.Reader
	}
	return r
}

// readSalt fills n bytes from r. A short read is a computation failure, never
// a shorter salt.
func readSalt(r io.Reader, n int) ([]byte, error) {
	salt := make([]byte, n)
	if _, err := io.ReadFull(entropy(r), salt); err != nil {
		return nil, fmt.Errorf("%w: read %d-byte salt: %w", ErrComputationFailure, n, err)
	}
	return salt, nil
}
