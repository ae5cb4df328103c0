package hashing

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/blowfish"
)

const (
	bcryptSaltLen       = 16
	bcryptDigestLen     = 23
	bcryptEncodedSalt   = 22
	bcryptEncodedDigest = 31
	// "$2b$" + "NN" + "$" + salt + digest
	bcryptRecordLen = 7 + bcryptEncodedSalt + bcryptEncodedDigest

	// bcryptMaxCredential is the longest credential bcrypt consumes.
	// Longer input would be silently truncated.
	bcryptMaxCredential = 72

	// bcryptVersion is the minor version written into new records.
	bcryptVersion = 'b'
)

// bcryptEncoding is the bcrypt base64 alphabet, unpadded.
var bcryptEncoding = base64.NewEncoding("./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789").
	WithPadding(base64.NoPadding)

// bcryptMagic is encrypted 64 times by the expanded key schedule.
var bcryptMagic = [24]byte{
	'O', 'r', 'p', 'h', 'e', 'a', 'n', 'B',
	'e', 'h', 'o', 'l', 'd', 'e', 'r', 'S',
	'c', 'r', 'y', 'D', 'o', 'u', 'b', 't',
}

// bcryptRecord holds the fields of a parsed bcrypt record.
type bcryptRecord struct {
	minor       byte
	cost        int
	salt        []byte
	encodedSalt string
	digest      string
}

func (r *bcryptRecord) String() string {
	return fmt.Sprintf("$2%c$%02d$%s%s", r.minor, r.cost, r.encodedSalt, r.digest)
}

// parseBcrypt decodes a $2a$, $2b$ or $2y$ record.
func parseBcrypt(record string) (*bcryptRecord, error) {
	if len(record) != bcryptRecordLen {
		return nil, fmt.Errorf("%w: bcrypt record is %d bytes, want %d",
			ErrMalformedRecord, len(record), bcryptRecordLen)
	}
	if record[0] != '$' || record[1] != '2' || record[3] != '$' || record[6] != '$' {
		return nil, fmt.Errorf("%w: bcrypt record has misplaced separators", ErrMalformedRecord)
	}

	minor := record[2]
	switch minor {
	case 'a', 'b', 'y':
	default:
		return nil, fmt.Errorf("%w: unknown bcrypt version 2%c", ErrMalformedRecord, minor)
	}

	costField := record[4:6]
	if !isDigits(costField) {
		return nil, fmt.Errorf("%w: bcrypt cost %q is not numeric", ErrMalformedRecord, costField)
	}
	cost, _ := strconv.Atoi(costField)
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d outside [%d, %d]",
			ErrMalformedRecord, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	encodedSalt := record[7 : 7+bcryptEncodedSalt]
	salt, err := bcryptEncoding.DecodeString(encodedSalt)
	if err != nil || len(salt) != bcryptSaltLen {
		return nil, fmt.Errorf("%w: bcrypt salt is not valid base64", ErrMalformedRecord)
	}

	digest := record[7+bcryptEncodedSalt:]
	raw, err := bcryptEncoding.DecodeString(digest)
	if err != nil || len(raw) != bcryptDigestLen {
		return nil, fmt.Errorf("%w: bcrypt digest is not valid base64", ErrMalformedRecord)
	}

	return &bcryptRecord{
		minor:       minor,
		cost:        cost,
		salt:        salt,
		encodedSalt: encodedSalt,
		digest:      digest,
	}, nil
}

// bcryptDigest runs EksBlowfish over credential and salt with 2^cost rounds
// and returns the encoded 23-byte digest.
func bcryptDigest(credential, salt []byte, cost int) (string, error) {
	// The key includes the trailing NUL, as C implementations do.
	key := make([]byte, len(credential)+1)
	copy(key, credential)

	c, err := blowfish.NewSaltedCipher(key, salt)
	if err != nil {
		return "", fmt.Errorf("%w: blowfish setup: %w", ErrComputationFailure, err)
	}

	rounds := uint64(1) << uint(cost)
	for i := uint64(0); i < rounds; i++ {
		blowfish.ExpandKey(key, c)
		blowfish.ExpandKey(salt, c)
	}

	data := bcryptMagic
	for i := 0; i < len(data); i += 8 {
		for j := 0; j < 64; j++ {
			c.Encrypt(data[i:i+8], data[i:i+8])
		}
	}

	// Only 23 of the 24 bytes are encoded, matching every other bcrypt.
	return bcryptEncoding.EncodeToString(data[:bcryptDigestLen]), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
