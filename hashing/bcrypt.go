package hashing

import (
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost is the work factor used when none is configured.
	// It matches the cost of the records already stored by the storefront.
	DefaultBcryptCost = 10

	// MinBcryptCost and MaxBcryptCost bound the supported work factor.
	MinBcryptCost = bcrypt.MinCost
	MaxBcryptCost = bcrypt.MaxCost
)

// BcryptOptions configures a [BcryptHasher].
type BcryptOptions struct {
	// Cost is the bcrypt work factor (log2 of the key-expansion rounds).
	// Valid range: [MinBcryptCost (4), MaxBcryptCost (31)].
	Cost int

	// Rand is the entropy source for salts. Nil means crypto/rand.Reader.
	Rand io.Reader
}

// DefaultBcryptOptions returns BcryptOptions with [DefaultBcryptCost].
func DefaultBcryptOptions() BcryptOptions {
	return BcryptOptions{Cost: DefaultBcryptCost}
}

// BcryptHasher hashes credentials with bcrypt.
//
// Records use the $2b$ prefix and interoperate with golang.org/x/crypto/bcrypt
// and the C and Node.js implementations in both directions.
//
// BcryptHasher is immutable after construction and safe for concurrent use.
type BcryptHasher struct {
	cost int
	rand io.Reader
}

// NewBcryptHasher constructs a BcryptHasher.
// Returns [ErrInvalidInput] if Cost is outside [MinBcryptCost, MaxBcryptCost].
func NewBcryptHasher(opts BcryptOptions) (*BcryptHasher, error) {
	if opts.Cost < MinBcryptCost || opts.Cost > MaxBcryptCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d must be in [%d, %d]",
			ErrInvalidInput, opts.Cost, MinBcryptCost, MaxBcryptCost)
	}
	return &BcryptHasher{cost: opts.Cost, rand: opts.Rand}, nil
}

// Driver returns [DriverBcrypt].
func (h *BcryptHasher) Driver() DriverName { return DriverBcrypt }

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int { return h.cost }

// Hash returns a $2b$ record for credential with a fresh 16-byte salt.
//
// Credentials longer than 72 bytes are rejected with [ErrInvalidInput]
// rather than truncated.
func (h *BcryptHasher) Hash(credential string) (string, error) {
	if len(credential) > bcryptMaxCredential {
		return "", fmt.Errorf("%w: bcrypt credential is %d bytes, limit is %d",
			ErrInvalidInput, len(credential), bcryptMaxCredential)
	}

	salt, err := readSalt(h.rand, bcryptSaltLen)
	if err != nil {
		return "", err
	}

	digest, err := bcryptDigest([]byte(credential), salt, h.cost)
	if err != nil {
		return "", err
	}

	rec := bcryptRecord{
		minor:       bcryptVersion,
		cost:        h.cost,
		salt:        salt,
		encodedSalt: bcryptEncoding.EncodeToString(salt),
		digest:      digest,
	}
	return rec.String(), nil
}

// Verify checks credential against a bcrypt record using the cost and salt
// embedded in it.
func (h *BcryptHasher) Verify(credential, record string) (bool, error) {
	if err := expectDriver(record, DriverBcrypt); err != nil {
		return false, err
	}
	return verifyBcrypt(credential, record)
}

// NeedsRehash reports whether the record's cost differs from the configured
// cost.
func (h *BcryptHasher) NeedsRehash(record string) (bool, error) {
	if err := expectDriver(record, DriverBcrypt); err != nil {
		return false, err
	}
	rec, err := parseBcrypt(record)
	if err != nil {
		return false, err
	}
	return rec.cost != h.cost, nil
}

// Info extracts the version and cost from a bcrypt record.
func (h *BcryptHasher) Info(record string) (RecordInfo, error) {
	if err := expectDriver(record, DriverBcrypt); err != nil {
		return RecordInfo{}, err
	}
	return bcryptInfo(record)
}

func bcryptInfo(record string) (RecordInfo, error) {
	rec, err := parseBcrypt(record)
	if err != nil {
		return RecordInfo{}, err
	}
	return RecordInfo{
		Driver:     DriverBcrypt,
		WorkFactor: rec.cost,
		Params: map[string]any{
			"version": "2" + string(rec.minor),
			"cost":    rec.cost,
		},
	}, nil
}

// verifyBcrypt needs nothing from a configured hasher: every parameter comes
// from the record.
func verifyBcrypt(credential, record string) (bool, error) {
	rec, err := parseBcrypt(record)
	if err != nil {
		return false, err
	}
	// Hash never accepts such input, so no record of ours can match it.
	if len(credential) > bcryptMaxCredential {
		return false, nil
	}

	digest, err := bcryptDigest([]byte(credential), rec.salt, rec.cost)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(digest), []byte(rec.digest)) == 1, nil
}
