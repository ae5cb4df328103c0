// Package hashing turns plaintext credentials into storable, one-way hash
// records and verifies candidates against them.
//
// # Records
//
// A record is a single self-describing string. It carries the algorithm, the
// work factor, a per-record random salt and the digest, so verification never
// consults a global default:
//
//	$2b$10$<22 char salt><31 char digest>                       bcrypt
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<digest>              argon2id
//
// Raising the work factor only affects records produced afterwards; older
// records keep verifying with the parameters they were created with.
//
// # Quick start
//
//	record, err := hashing.Hash("Admin1234", 10)
//	ok, err := hashing.Verify("Admin1234", record) // true, nil
//
// [Hash] and [Verify] are stateless. Services that want a configured driver,
// rehash detection or more than one algorithm use a [Manager]:
//
//	m, _ := hashing.NewDefaultManager() // bcrypt default, argon2id registered
//	record, _ := m.Hash(password)
//	ok, err := m.Verify(password, record)
//	if ok {
//	    if stale, _ := m.NeedsRehash(record); stale {
//	        record, _ = m.Hash(password) // persist
//	    }
//	}
//
// # Errors
//
// Every failure is one of three attributable kinds, matched with [errors.Is]:
//
//   - [ErrInvalidInput]: work factor or option outside the supported range.
//   - [ErrComputationFailure]: the entropy source or primitive failed.
//   - [ErrMalformedRecord]: the record does not parse.
//
// A wrong credential is not an error: Verify returns (false, nil).
//
// # Entropy
//
// Salts are drawn from the io.Reader set on the driver options, defaulting to
// crypto/rand.Reader. Tests may substitute a deterministic reader.
//
// # Cost
//
// Hash and Verify block for time proportional to 2^cost (bcrypt) or
// memory×iterations (argon2id). Wrap a driver in [Limited] to bound how many
// run at once.
package hashing
