package inmemory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hasbyte1/credhash/account"
	"github.com/hasbyte1/credhash/account/inmemory"
)

func makeUser(id, email string) account.User {
	now := time.Now()
	return account.User{
		ID:           id,
		Email:        email,
		PasswordHash: "$2b$04$record-" + id,
		Role:         account.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestRepository_CreateAndFindByID(t *testing.T) {
	r := inmemory.New()
	ctx := context.Background()

	if err := r.Create(ctx, makeUser("id1", "a@example.com")); err != nil {
		t.Fatal(err)
	}

	got, err := r.FindByID(ctx, "id1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "id1" || got.Email != "a@example.com" {
		t.Errorf("unexpected user: %+v", got)
	}
}

func TestRepository_Create_DuplicateID(t *testing.T) {
	r := inmemory.New()
	ctx := context.Background()
	_ = r.Create(ctx, makeUser("dup", "a@example.com"))
	err := r.Create(ctx, makeUser("dup", "b@example.com"))
	if err == nil {
		t.Fatal("expected error on duplicate ID")
	}
	if errors.Is(err, account.ErrEmailTaken) {
		t.Error("duplicate ID must not be reported as a taken email")
	}
}

func TestRepository_Create_DuplicateEmail(t *testing.T) {
	r := inmemory.New()
	ctx := context.Background()
	_ = r.Create(ctx, makeUser("id1", "a@example.com"))
	err := r.Create(ctx, makeUser("id2", "  A@Example.COM "))
	if !errors.Is(err, account.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	r := inmemory.New()
	_, err := r.FindByID(context.Background(), "missing")
	if !errors.Is(err, account.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRepository_FindByEmail(t *testing.T) {
	r := inmemory.New()
	ctx := context.Background()
	_ = r.Create(ctx, makeUser("id1", "a@example.com"))

	got, err := r.FindByEmail(ctx, "A@EXAMPLE.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "id1" {
		t.Errorf("wrong user ID: %q", got.ID)
	}

	if _, err := r.FindByEmail(ctx, "b@example.com"); !errors.Is(err, account.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRepository_UpdatePasswordHash(t *testing.T) {
	r := inmemory.New()
	ctx := context.Background()
	_ = r.Create(ctx, makeUser("id1", "a@example.com"))

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := r.UpdatePasswordHash(ctx, "id1", "new-record", at); err != nil {
		t.Fatal(err)
	}
	got, _ := r.FindByID(ctx, "id1")
	if got.PasswordHash != "new-record" {
		t.Errorf("PasswordHash = %q, want new-record", got.PasswordHash)
	}
	if !got.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, at)
	}

	if err := r.UpdatePasswordHash(ctx, "missing", "x", at); !errors.Is(err, account.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRepository_ReturnsCopies(t *testing.T) {
	r := inmemory.New()
	ctx := context.Background()
	_ = r.Create(ctx, makeUser("id1", "a@example.com"))

	got, _ := r.FindByID(ctx, "id1")
	got.PasswordHash = "tampered"

	again, _ := r.FindByID(ctx, "id1")
	if again.PasswordHash == "tampered" {
		t.Error("mutating a returned user changed the stored one")
	}
}

func TestRepository_ConcurrentAccess(t *testing.T) {
	r := inmemory.New()
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("id%d", i)
			_ = r.Create(ctx, makeUser(id, id+"@example.com"))
			_, _ = r.FindByEmail(ctx, id+"@example.com")
			_ = r.UpdatePasswordHash(ctx, id, "rotated", time.Now())
		}(i)
	}
	wg.Wait()

	if r.Len() != 50 {
		t.Errorf("Len = %d, want 50", r.Len())
	}
}
