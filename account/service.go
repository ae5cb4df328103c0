package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hasbyte1/credhash/hashing"
)

// timingProbe is hashed once and verified against for unknown emails so a
// miss costs about as much as a wrong password.
const timingProbe = "credhash-unknown-account-probe"

// RegisterParams is the input of [Service.Register].
type RegisterParams struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,password"`
	FirstName string `json:"first_name" validate:"omitempty,max=100"`
	LastName  string `json:"last_name" validate:"omitempty,max=100"`
}

// ChangePasswordParams is the input of [Service.ChangePassword].
type ChangePasswordParams struct {
	UserID          string `json:"user_id" validate:"required"`
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,password"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service runs the account credential flows. It is safe for concurrent use.
type Service struct {
	repo      Repository
	hasher    CredentialHasher
	validator *inputValidator
	logger    *slog.Logger
	now       func() time.Time

	probeOnce   sync.Once
	probeRecord string
}

// NewService returns a Service backed by repo and hasher.
func NewService(repo Repository, hasher CredentialHasher, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("account: nil repository")
	}
	if hasher == nil {
		return nil, errors.New("account: nil hasher")
	}
	v, err := newInputValidator()
	if err != nil {
		return nil, err
	}
	s := &Service{
		repo:      repo,
		hasher:    hasher,
		validator: v,
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register validates params, hashes the password and stores a new account
// with the user role. Returns a [ValidationError] for bad input and
// [ErrEmailTaken] when the normalised email already exists.
func (s *Service) Register(ctx context.Context, params RegisterParams) (User, error) {
	params.Email = NormalizeEmail(params.Email)
	if err := s.validator.Validate(params); err != nil {
		return User{}, err
	}

	_, err := s.repo.FindByEmail(ctx, params.Email)
	switch {
	case err == nil:
		return User{}, ErrEmailTaken
	case !errors.Is(err, ErrUserNotFound):
		return User{}, fmt.Errorf("account: find user by email: %w", err)
	}

	record, err := s.hasher.Hash(params.Password)
	if err != nil {
		return User{}, fmt.Errorf("account: hash password: %w", err)
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		Email:        params.Email,
		PasswordHash: record,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("account: create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered.", slog.String("user_id", u.ID))
	return u, nil
}

// Authenticate checks an email/password pair and returns the account on
// success. Any authentication failure yields [ErrInvalidCredentials].
//
// When the stored record was produced with outdated parameters it is
// replaced after a successful check. Failure to replace it is logged and
// does not fail the login.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		s.verifyProbe(password)
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("account: find user by email: %w", err)
	}

	if err := s.checkPassword(ctx, u, password); err != nil {
		return User{}, err
	}

	s.rehashIfStale(ctx, &u, password)
	return u, nil
}

// ChangePassword replaces the password of params.UserID after checking the
// current one. Returns [ErrUserNotFound] for an unknown ID and
// [ErrInvalidCredentials] when the current password does not match.
func (s *Service) ChangePassword(ctx context.Context, params ChangePasswordParams) error {
	if err := s.validator.Validate(params); err != nil {
		return err
	}

	u, err := s.repo.FindByID(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("account: find user by id: %w", err)
	}

	if err := s.checkPassword(ctx, u, params.CurrentPassword); err != nil {
		return err
	}

	record, err := s.hasher.Hash(params.NewPassword)
	if err != nil {
		return fmt.Errorf("account: hash password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, u.ID, record, s.now()); err != nil {
		return fmt.Errorf("account: update password: %w", err)
	}

	s.logger.InfoContext(ctx, "Password changed.", slog.String("user_id", u.ID))
	return nil
}

// User returns the account with the given ID.
func (s *Service) User(ctx context.Context, id string) (User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("account: find user by id: %w", err)
	}
	return u, nil
}

func (s *Service) checkPassword(ctx context.Context, u User, password string) error {
	ok, err := s.hasher.Verify(password, u.PasswordHash)
	switch {
	case errors.Is(err, hashing.ErrMalformedRecord):
		s.logger.WarnContext(ctx, "Stored password record is malformed.",
			slog.String("user_id", u.ID), slog.Any("error", err))
		return ErrInvalidCredentials
	case err != nil:
		return fmt.Errorf("account: verify password: %w", err)
	case !ok:
		return ErrInvalidCredentials
	}
	return nil
}

func (s *Service) rehashIfStale(ctx context.Context, u *User, password string) {
	stale, err := s.hasher.NeedsRehash(u.PasswordHash)
	if err != nil {
		s.logger.WarnContext(ctx, "Could not inspect password record.",
			slog.String("user_id", u.ID), slog.Any("error", err))
		return
	}
	if !stale {
		return
	}

	record, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "Password rehash failed.",
			slog.String("user_id", u.ID), slog.Any("error", err))
		return
	}
	at := s.now()
	if err := s.repo.UpdatePasswordHash(ctx, u.ID, record, at); err != nil {
		s.logger.WarnContext(ctx, "Storing rehashed password failed.",
			slog.String("user_id", u.ID), slog.Any("error", err))
		return
	}
	u.PasswordHash = record
	u.UpdatedAt = at
	s.logger.InfoContext(ctx, "Password record upgraded.", slog.String("user_id", u.ID))
}

func (s *Service) verifyProbe(password string) {
	s.probeOnce.Do(func() {
		if record, err := s.hasher.Hash(timingProbe); err == nil {
			s.probeRecord = record
		}
	})
	if s.probeRecord != "" {
		_, _ = s.hasher.Verify(password, s.probeRecord)
	}
}
