package hashing

import "fmt"

// Hash returns a bcrypt record for credential at the given work factor,
// using a fresh salt from crypto/rand.
//
// Returns [ErrInvalidInput] when workFactor is outside
// [MinBcryptCost, MaxBcryptCost] or credential exceeds 72 bytes, and
// [ErrComputationFailure] when no salt can be read.
func Hash(credential string, workFactor int) (string, error) {
	h, err := NewBcryptHasher(BcryptOptions{Cost: workFactor})
	if err != nil {
		return "", err
	}
	return h.Hash(credential)
}

// Verify reports whether credential produced record. The algorithm, work
// factor and salt are all read from record; bcrypt and argon2id records are
// accepted.
//
// A mismatch is (false, nil). A record that does not parse is
// (false, [ErrMalformedRecord]).
func Verify(credential, record string) (bool, error) {
	driver, ok := DetectDriver(record)
	if !ok {
		return false, fmt.Errorf("%w: unrecognised record prefix", ErrMalformedRecord)
	}
	switch driver {
	case DriverArgon2id:
		return verifyArgon2id(credential, record)
	default:
		return verifyBcrypt(credential, record)
	}
}

// Inspect returns the parameters embedded in record without verifying it.
func Inspect(record string) (RecordInfo, error) {
	driver, ok := DetectDriver(record)
	if !ok {
		return RecordInfo{}, fmt.Errorf("%w: unrecognised record prefix", ErrMalformedRecord)
	}
	switch driver {
	case DriverArgon2id:
		return argon2Info(record)
	default:
		return bcryptInfo(record)
	}
}
