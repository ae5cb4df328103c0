package hashing

import "errors"

// Sentinel errors returned by hashing operations.
//
// Use [errors.Is] for comparisons:
//
//	ok, err := hashing.Verify(credential, record)
//	if errors.Is(err, hashing.ErrMalformedRecord) {
//	    // stored record is corrupted
//	}
var (
	// ErrInvalidInput is returned when a work factor or option falls outside
	// the supported range, or when a credential is longer than the algorithm
	// accepts.
	ErrInvalidInput = errors.New("hashing: invalid input")

	// ErrComputationFailure is returned when the entropy source or the
	// underlying primitive is unavailable. Retrying with the same input at
	// the same level will not help.
	ErrComputationFailure = errors.New("hashing: computation failure")

	// ErrMalformedRecord is returned when a record cannot be parsed: unknown
	// prefix, missing fields, invalid encoding or out-of-range parameters.
	ErrMalformedRecord = errors.New("hashing: malformed record")

	// ErrAlgorithmMismatch is returned by a driver's Verify, NeedsRehash or
	// Info when the record was produced by a different algorithm.
	ErrAlgorithmMismatch = errors.New("hashing: record was produced by a different algorithm")

	// ErrDriverNotFound is returned by [Manager] when the requested driver
	// has not been registered.
	ErrDriverNotFound = errors.New("hashing: driver not found")

	// ErrEmptyDriverName is returned by [Manager.RegisterDriver] for an empty name.
	ErrEmptyDriverName = errors.New("hashing: driver name must not be empty")

	// ErrNilHasher is returned when a nil [Hasher] is supplied.
	ErrNilHasher = errors.New("hashing: hasher must not be nil")
)
