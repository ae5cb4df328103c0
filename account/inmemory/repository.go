// Package inmemory provides a thread-safe in-memory implementation of
// [account.Repository].
//
// It is intended for use in tests, the CLI and prototyping. Do not use it in
// production.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/hasbyte1/credhash/account"
)

// Repository is a thread-safe in-memory implementation of [account.Repository].
type Repository struct {
	mu      sync.RWMutex
	users   map[string]account.User // keyed by user ID
	byEmail map[string]string       // normalised email -> user ID
}

// New creates an empty [Repository].
func New() *Repository {
	return &Repository{
		users:   make(map[string]account.User),
		byEmail: make(map[string]string),
	}
}

// Create stores a new user. Returns [account.ErrEmailTaken] when the email is
// already registered and an error when the ID is already in use.
func (r *Repository) Create(_ context.Context, u account.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[u.ID]; exists {
		return &duplicateIDError{id: u.ID}
	}
	email := account.NormalizeEmail(u.Email)
	if _, taken := r.byEmail[email]; taken {
		return account.ErrEmailTaken
	}
	u.Email = email
	r.users[u.ID] = u
	r.byEmail[email] = u.ID
	return nil
}

// FindByID retrieves a user by ID. Returns [account.ErrUserNotFound] when absent.
func (r *Repository) FindByID(_ context.Context, id string) (account.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return account.User{}, account.ErrUserNotFound
	}
	return u, nil
}

// FindByEmail retrieves a user by email. Returns [account.ErrUserNotFound]
// when absent.
func (r *Repository) FindByEmail(_ context.Context, email string) (account.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[account.NormalizeEmail(email)]
	if !ok {
		return account.User{}, account.ErrUserNotFound
	}
	return r.users[id], nil
}

// UpdatePasswordHash replaces the stored record of a user.
func (r *Repository) UpdatePasswordHash(_ context.Context, id, record string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return account.ErrUserNotFound
	}
	u.PasswordHash = record
	u.UpdatedAt = updatedAt
	r.users[id] = u
	return nil
}

// Len returns the number of stored users.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

type duplicateIDError struct{ id string }

func (e *duplicateIDError) Error() string {
	return "account/inmemory: duplicate user ID: " + e.id
}
