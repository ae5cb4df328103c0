package hashing

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Limited wraps a [Hasher] so that at most a fixed number of Hash and Verify
// computations run at once. NeedsRehash, Info and Driver only parse and pass
// straight through.
//
// Waiting for a slot honours the context; a computation that has started
// always runs to completion.
type Limited struct {
	Hasher
	sem *semaphore.Weighted
}

// NewLimited wraps h with a limit of maxConcurrent computations.
func NewLimited(h Hasher, maxConcurrent int64) (*Limited, error) {
	if h == nil {
		return nil, ErrNilHasher
	}
	if maxConcurrent < 1 {
		return nil, fmt.Errorf("%w: max concurrent must be ≥ 1, got %d", ErrInvalidInput, maxConcurrent)
	}
	return &Limited{Hasher: h, sem: semaphore.NewWeighted(maxConcurrent)}, nil
}

// Hash waits for a free slot and hashes credential.
func (l *Limited) Hash(credential string) (string, error) {
	return l.HashContext(context.Background(), credential)
}

// Verify waits for a free slot and verifies credential against record.
func (l *Limited) Verify(credential, record string) (bool, error) {
	return l.VerifyContext(context.Background(), credential, record)
}

// HashContext is Hash with a bounded wait. It returns ctx.Err() if no slot
// frees up before ctx is done.
func (l *Limited) HashContext(ctx context.Context, credential string) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer l.sem.Release(1)
	return l.Hasher.Hash(credential)
}

// VerifyContext is Verify with a bounded wait.
func (l *Limited) VerifyContext(ctx context.Context, credential, record string) (bool, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer l.sem.Release(1)
	return l.Hasher.Verify(credential, record)
}
