package hashing

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// DefaultArgon2Memory is the default memory cost in KiB (64 MiB).
	DefaultArgon2Memory uint32 = 64 * 1024

	// DefaultArgon2Time is the default number of passes over memory.
	DefaultArgon2Time uint32 = 3

	// DefaultArgon2Threads is the default degree of parallelism.
	DefaultArgon2Threads uint8 = 2

	// DefaultArgon2KeyLen is the default digest length in bytes.
	DefaultArgon2KeyLen uint32 = 32

	// DefaultArgon2SaltLen is the default salt length in bytes.
	DefaultArgon2SaltLen uint32 = 16

	// MaxArgon2Memory caps the memory cost (1 GiB) for new and stored
	// records alike, so a tampered record cannot exhaust memory on verify.
	MaxArgon2Memory uint32 = 1 << 20

	// MaxArgon2Time caps the iteration count.
	MaxArgon2Time uint32 = 64

	argon2Version = argon2.Version
)

// Argon2Options configures an [Argon2idHasher].
//
// All parameters are written into each record, so changing them affects only
// records produced afterwards.
type Argon2Options struct {
	// Memory is the memory cost in KiB. Range: [8×Threads, MaxArgon2Memory].
	Memory uint32

	// Time is the number of passes over memory; this is the argon2id work
	// factor. Range: [1, MaxArgon2Time].
	Time uint32

	// Threads is the degree of parallelism. Minimum 1.
	Threads uint8

	// KeyLen is the digest length in bytes. Minimum 4.
	KeyLen uint32

	// SaltLen is the salt length in bytes. Minimum 8.
	SaltLen uint32

	// Rand is the entropy source for salts. Nil means crypto/rand.Reader.
	Rand io.Reader
}

// DefaultArgon2Options returns Argon2Options with the recommended defaults.
func DefaultArgon2Options() Argon2Options {
	return Argon2Options{
		Memory:  DefaultArgon2Memory,
		Time:    DefaultArgon2Time,
		Threads: DefaultArgon2Threads,
		KeyLen:  DefaultArgon2KeyLen,
		SaltLen: DefaultArgon2SaltLen,
	}
}

func validateArgon2(memory, time uint32, threads uint8, keyLen, saltLen uint32) error {
	if time < 1 || time > MaxArgon2Time {
		return fmt.Errorf("argon2 time %d must be in [1, %d]", time, MaxArgon2Time)
	}
	if threads < 1 {
		return fmt.Errorf("argon2 threads must be ≥ 1, got %d", threads)
	}
	if memory < 8*uint32(threads) || memory > MaxArgon2Memory {
		return fmt.Errorf("argon2 memory %d KiB must be in [%d, %d]",
			memory, 8*uint32(threads), MaxArgon2Memory)
	}
	if keyLen < 4 {
		return fmt.Errorf("argon2 key_len must be ≥ 4, got %d", keyLen)
	}
	if saltLen < 8 {
		return fmt.Errorf("argon2 salt_len must be ≥ 8, got %d", saltLen)
	}
	return nil
}

// argon2Record holds the fields of a parsed PHC string.
type argon2Record struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	digest  []byte
}

func (r *argon2Record) String() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		DriverArgon2id,
		argon2Version,
		r.memory,
		r.time,
		r.threads,
		base64.RawStdEncoding.EncodeToString(r.salt),
		base64.RawStdEncoding.EncodeToString(r.digest),
	)
}

// parseArgon2id decodes
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<digest>
func parseArgon2id(record string) (*argon2Record, error) {
	parts := strings.Split(record, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("%w: expected 5-segment PHC string, got %d segments",
			ErrMalformedRecord, len(parts)-1)
	}
	if parts[1] != string(DriverArgon2id) {
		return nil, fmt.Errorf("%w: unknown argon2 variant %q", ErrMalformedRecord, parts[1])
	}

	version, err := parseKV(parts[2], "v")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if version != argon2Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrMalformedRecord, version)
	}

	kvs, err := parseParams(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	memory, ok1 := kvs["m"]
	time, ok2 := kvs["t"]
	threads, ok3 := kvs["p"]
	if !ok1 || !ok2 || !ok3 || len(kvs) != 3 {
		return nil, fmt.Errorf("%w: want exactly m, t and p in %q", ErrMalformedRecord, parts[3])
	}
	if memory > uint64(MaxArgon2Memory) || time > uint64(MaxArgon2Time) || threads > 255 {
		return nil, fmt.Errorf("%w: argon2 parameters out of range in %q", ErrMalformedRecord, parts[3])
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid salt base64: %v", ErrMalformedRecord, err)
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid digest base64: %v", ErrMalformedRecord, err)
	}

	rec := &argon2Record{
		memory:  uint32(memory),
		time:    uint32(time),
		threads: uint8(threads),
		salt:    salt,
		digest:  digest,
	}
	if err := validateArgon2(rec.memory, rec.time, rec.threads, uint32(len(digest)), uint32(len(salt))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return rec, nil
}

// parseKV parses "key=value" and returns the numeric value.
func parseKV(s, key string) (uint64, error) {
	prefix := key + "="
	if !strings.HasPrefix(s, prefix) {
		return 0, fmt.Errorf("expected %q prefix in %q", prefix, s)
	}
	return strconv.ParseUint(s[len(prefix):], 10, 32)
}

// parseParams splits "m=65536,t=3,p=2" into a map.
func parseParams(s string) (map[string]uint64, error) {
	out := make(map[string]uint64)
	for _, kv := range strings.Split(s, ",") {
		eq := strings.IndexByte(kv, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("malformed param %q", kv)
		}
		if _, dup := out[kv[:eq]]; dup {
			return nil, fmt.Errorf("duplicate param %q", kv[:eq])
		}
		v, err := strconv.ParseUint(kv[eq+1:], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("non-numeric value in %q: %v", kv, err)
		}
		out[kv[:eq]] = v
	}
	return out, nil
}

// Argon2idHasher hashes credentials with Argon2id and writes PHC strings.
//
// Argon2idHasher is immutable after construction and safe for concurrent use.
type Argon2idHasher struct {
	opts Argon2Options
}

// NewArgon2idHasher constructs an Argon2idHasher.
// Returns [ErrInvalidInput] if any option is out of range.
func NewArgon2idHasher(opts Argon2Options) (*Argon2idHasher, error) {
	if err := validateArgon2(opts.Memory, opts.Time, opts.Threads, opts.KeyLen, opts.SaltLen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &Argon2idHasher{opts: opts}, nil
}

// Driver returns [DriverArgon2id].
func (h *Argon2idHasher) Driver() DriverName { return DriverArgon2id }

// Options returns the configured parameter set.
func (h *Argon2idHasher) Options() Argon2Options { return h.opts }

// Hash returns a PHC record for credential with a fresh salt.
func (h *Argon2idHasher) Hash(credential string) (string, error) {
	salt, err := readSalt(h.opts.Rand, int(h.opts.SaltLen))
	if err != nil {
		return "", err
	}
	rec := argon2Record{
		memory:  h.opts.Memory,
		time:    h.opts.Time,
		threads: h.opts.Threads,
		salt:    salt,
		digest: argon2.IDKey([]byte(credential), salt,
			h.opts.Time, h.opts.Memory, h.opts.Threads, h.opts.KeyLen),
	}
	return rec.String(), nil
}

// Verify checks credential against an argon2id record. Memory, time,
// threads and digest length are read from the record.
func (h *Argon2idHasher) Verify(credential, record string) (bool, error) {
	if err := expectDriver(record, DriverArgon2id); err != nil {
		return false, err
	}
	return verifyArgon2id(credential, record)
}

// NeedsRehash reports whether any parameter in record differs from the
// configured options.
func (h *Argon2idHasher) NeedsRehash(record string) (bool, error) {
	if err := expectDriver(record, DriverArgon2id); err != nil {
		return false, err
	}
	rec, err := parseArgon2id(record)
	if err != nil {
		return false, err
	}
	return rec.memory != h.opts.Memory ||
		rec.time != h.opts.Time ||
		rec.threads != h.opts.Threads ||
		uint32(len(rec.digest)) != h.opts.KeyLen ||
		uint32(len(rec.salt)) != h.opts.SaltLen, nil
}

// Info parses the PHC string and returns the encoded parameters.
func (h *Argon2idHasher) Info(record string) (RecordInfo, error) {
	if err := expectDriver(record, DriverArgon2id); err != nil {
		return RecordInfo{}, err
	}
	return argon2Info(record)
}

func argon2Info(record string) (RecordInfo, error) {
	rec, err := parseArgon2id(record)
	if err != nil {
		return RecordInfo{}, err
	}
	return RecordInfo{
		Driver:     DriverArgon2id,
		WorkFactor: int(rec.time),
		Params: map[string]any{
			"version":  argon2Version,
			"memory":   rec.memory,
			"time":     rec.time,
			"threads":  rec.threads,
			"key_len":  uint32(len(rec.digest)),
			"salt_len": uint32(len(rec.salt)),
		},
	}, nil
}

func verifyArgon2id(credential, record string) (bool, error) {
	rec, err := parseArgon2id(record)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(credential), rec.salt,
		rec.time, rec.memory, rec.threads, uint32(len(rec.digest)))
	return subtle.ConstantTimeCompare(computed, rec.digest) == 1, nil
}
