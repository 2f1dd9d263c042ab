package store

import (
	"testing"

	"github.com/rowanvale/daybook/internal/database"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreateAndGet(t *testing.T) {
	s := setupUserTestDB(t)

	u, err := s.Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == "" {
		t.Error("expected assigned id")
	}
	if u.VerifiedAt != nil {
		t.Error("new user should be unverified")
	}

	byEmail, err := s.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != u.ID {
		t.Errorf("get by email = %+v, want id %q", byEmail, u.ID)
	}
}

func TestUserGetByEmailNotFound(t *testing.T) {
	s := setupUserTestDB(t)

	u, err := s.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u != nil {
		t.Error("expected nil for unknown email")
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	s := setupUserTestDB(t)

	if _, err := s.Create("alice@example.com", "Alice", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.Create("alice@example.com", "Other", "hash"); err == nil {
		t.Error("expected error for duplicate email")
	}
}

func TestUserMarkVerified(t *testing.T) {
	s := setupUserTestDB(t)

	u, _ := s.Create("alice@example.com", "Alice", "hash")
	if err := s.MarkVerified(u.ID); err != nil {
		t.Fatalf("mark verified: %v", err)
	}

	got, err := s.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.VerifiedAt == nil {
		t.Error("expected verified_at to be set")
	}
}
