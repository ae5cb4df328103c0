package hashing

import (
	"fmt"
	"strings"
)

// DriverName identifies a hashing algorithm driver.
type DriverName string

const (
	// DriverBcrypt selects the bcrypt driver.
	DriverBcrypt DriverName = "bcrypt"
	// DriverArgon2id selects the Argon2id driver.
	DriverArgon2id DriverName = "argon2id"
)

// Hasher is satisfied by all credential-hashing drivers.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Hasher interface {
	// Hash returns a new record for credential. A fresh salt is drawn for
	// every call, so two calls with the same credential return different
	// records that both verify.
	Hash(credential string) (string, error)

	// Verify reports whether credential is the one that produced record.
	// Returns (true, nil) on match, (false, nil) on mismatch and
	// (false, err) when the record is structurally invalid.
	//
	// The digest comparison runs in constant time.
	Verify(credential, record string) (bool, error)

	// NeedsRehash reports whether record was produced with parameters that
	// differ from the hasher's current configuration.
	NeedsRehash(record string) (bool, error)

	// Info extracts the parameters embedded in record without verifying it.
	Info(record string) (RecordInfo, error)

	// Driver returns the DriverName implemented by this hasher.
	Driver() DriverName
}

// RecordInfo carries metadata parsed from a record.
type RecordInfo struct {
	// Driver is the algorithm that produced the record.
	Driver DriverName

	// WorkFactor is the cost parameter embedded in the record: the bcrypt
	// cost, or the argon2id iteration count.
	WorkFactor int

	// Params holds algorithm-specific parameters.
	//
	// For bcrypt:
	//   "version" → string ("2a", "2b" or "2y")
	//   "cost"    → int
	//
	// For Argon2id:
	//   "version"  → int (19)
	//   "memory"   → uint32 (KiB)
	//   "time"     → uint32
	//   "threads"  → uint8
	//   "key_len"  → uint32
	//   "salt_len" → uint32
	Params map[string]any
}

// DetectDriver inspects record's prefix and returns the [DriverName] that
// produced it. It does not validate the rest of the record.
//
// The second return value is false when the prefix is not recognised.
func DetectDriver(record string) (DriverName, bool) {
	switch {
	case strings.HasPrefix(record, "$argon2id$"):
		return DriverArgon2id, true
	case strings.HasPrefix(record, "$2a$"),
		strings.HasPrefix(record, "$2b$"),
		strings.HasPrefix(record, "$2y$"):
		return DriverBcrypt, true
	default:
		return "", false
	}
}

// expectDriver checks that record was produced by want. An unknown prefix is
// a malformed record; a known prefix of another driver is a mismatch.
func expectDriver(record string, want DriverName) error {
	got, ok := DetectDriver(record)
	if !ok {
		return fmt.Errorf("%w: unrecognised record prefix", ErrMalformedRecord)
	}
	if got != want {
		return fmt.Errorf("%w: record is %s, not %s", ErrAlgorithmMismatch, got, want)
	}
	return nil
}
