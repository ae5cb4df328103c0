package hashing_test

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/hasbyte1/credhash/hashing"
)

// ──────────────────────────────────────────────────────────────────────────────
// Bcrypt benchmarks
// ──────────────────────────────────────────────────────────────────────────────
//
// BenchmarkBcrypt_Cost10 is the production cost; MinCost measures overhead.

func BenchmarkBcrypt_MinCost_Hash(b *testing.B) {
	h, _ := hashing.NewBcryptHasher(hashing.BcryptOptions{Cost: bcrypt.MinCost})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = h.Hash("bench-password")
	}
}

func BenchmarkBcrypt_MinCost_Verify(b *testing.B) {
	h, _ := hashing.NewBcryptHasher(hashing.BcryptOptions{Cost: bcrypt.MinCost})
	record, _ := h.Hash("bench-password")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = h.Verify("bench-password", record)
	}
}

func BenchmarkBcrypt_Cost10_Hash(b *testing.B) {
	h, _ := hashing.NewBcryptHasher(hashing.DefaultBcryptOptions())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = h.Hash("bench-password")
	}
}

// BenchmarkXCryptoBcrypt_MinCost is the reference implementation at the same
// cost, for comparison with BenchmarkBcrypt_MinCost_Hash.
func BenchmarkXCryptoBcrypt_MinCost(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = bcrypt.GenerateFromPassword([]byte("bench-password"), bcrypt.MinCost)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Argon2id benchmarks
// ──────────────────────────────────────────────────────────────────────────────

func BenchmarkArgon2id_Fast_Hash(b *testing.B) {
	h := newTestArgon2idHasher(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = h.Hash("bench-password")
	}
}

func BenchmarkArgon2id_Default_Hash(b *testing.B) {
	h, _ := hashing.NewArgon2idHasher(hashing.DefaultArgon2Options())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = h.Hash("bench-password")
	}
}

func BenchmarkManager_Verify(b *testing.B) {
	m := newTestManager(b)
	record, _ := m.Hash("bench-password")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = m.Verify("bench-password", record)
	}
}
