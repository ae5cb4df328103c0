// Package account implements the storefront's credential flows on top of
// package hashing: registration, password login and password change.
//
// Persistence is delegated to a [Repository]; a thread-safe in-memory
// implementation lives in account/inmemory. Only hash records are ever handed
// to the repository, never plaintext.
//
// A wrong password, an unknown email and a corrupted stored record all
// surface to callers as [ErrInvalidCredentials], so a login response cannot
// reveal which of them occurred. Corrupted records are logged at warn level
// for operators.
package account

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Roles assigned to accounts.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	// ErrInvalidCredentials is returned when an email/password pair does not
	// authenticate, whatever the underlying reason.
	ErrInvalidCredentials = errors.New("account: invalid credentials")

	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("account: email already in use")

	// ErrUserNotFound is returned by repositories and by ChangePassword when
	// no account matches.
	ErrUserNotFound = errors.New("account: user not found")
)

// User is a storefront account. PasswordHash holds a hash record, never the
// plaintext, and is excluded from JSON.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository persists accounts. Implementations must be safe for concurrent
// use.
type Repository interface {
	// Create stores a new user. Returns [ErrEmailTaken] when the email is
	// already registered.
	Create(ctx context.Context, u User) error

	// FindByID returns [ErrUserNotFound] when no user has the given ID.
	FindByID(ctx context.Context, id string) (User, error)

	// FindByEmail looks up a normalised email. Returns [ErrUserNotFound]
	// when absent.
	FindByEmail(ctx context.Context, email string) (User, error)

	// UpdatePasswordHash replaces the stored record of a user.
	// Returns [ErrUserNotFound] when no user has the given ID.
	UpdatePasswordHash(ctx context.Context, id, record string, updatedAt time.Time) error
}

// CredentialHasher is the part of a hashing.Manager the account flows use.
type CredentialHasher interface {
	Hash(credential string) (string, error)
	Verify(credential, record string) (bool, error)
	NeedsRehash(record string) (bool, error)
}

// NormalizeEmail trims surrounding space and lower-cases email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
