package hashing_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hasbyte1/credhash/hashing"
)

// Example shows the stateless Hash / Verify pair.
func Example() {
	record, err := hashing.Hash("Admin1234", 10)
	if err != nil {
		log.Fatal(err)
	}

	ok, _ := hashing.Verify("Admin1234", record)
	fmt.Println(ok)
	ok, _ = hashing.Verify("admin1234", record)
	fmt.Println(ok)
	// Output:
	// true
	// false
}

// ExampleVerify_malformed shows how a corrupted stored record is reported
// separately from a wrong credential.
func ExampleVerify_malformed() {
	_, err := hashing.Verify("Admin1234", "$2b$10$truncated")
	fmt.Println(errors.Is(err, hashing.ErrMalformedRecord))
	// Output: true
}

// ExampleManager_NeedsRehash illustrates raising the work factor: old records
// keep verifying and are replaced on the next successful login.
func ExampleManager_NeedsRehash() {
	legacy, _ := hashing.Hash("user-password", 4)

	m, _ := hashing.NewDefaultManager()
	ok, err := m.Verify("user-password", legacy)
	if err != nil || !ok {
		log.Fatal("login failed")
	}

	if stale, _ := m.NeedsRehash(legacy); stale {
		fresh, _ := m.Hash("user-password")
		info, _ := hashing.Inspect(fresh)
		fmt.Println("re-hashed at cost", info.WorkFactor)
	}
	// Output: re-hashed at cost 10
}

// ExampleInspect shows the parameters embedded in a record.
func ExampleInspect() {
	record, _ := hashing.Hash("inspect-me", 5)
	info, _ := hashing.Inspect(record)
	fmt.Println(info.Driver, info.WorkFactor, info.Params["version"])
	// Output: bcrypt 5 2b
}

// ExampleLimited shows bounding concurrent hash computations.
func ExampleLimited() {
	h, _ := hashing.NewBcryptHasher(hashing.BcryptOptions{Cost: 4})
	l, _ := hashing.NewLimited(h, 4)

	record, err := l.HashContext(context.Background(), "pw")
	if err != nil {
		log.Fatal(err)
	}
	ok, _ := l.VerifyContext(context.Background(), "pw", record)
	fmt.Println(ok)
	// Output: true
}
