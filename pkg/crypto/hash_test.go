package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("dashboard-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "dashboard-password" {
		t.Error("hash equals plaintext password")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash is not bcrypt format: %q", hash)
	}
}

func TestHashPasswordValidation(t *testing.T) {
	if _, err := HashPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("expected ErrEmptyPassword, got %v", err)
	}
	if _, err := HashPassword(strings.Repeat("a", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	t.Run("correct password", func(t *testing.T) {
		if err := VerifyPassword("correct-password", hash); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if err := VerifyPassword("wrong-password", hash); !errors.Is(err, ErrPasswordMismatch) {
			t.Errorf("expected ErrPasswordMismatch, got %v", err)
		}
	})

	t.Run("empty password", func(t *testing.T) {
		if err := VerifyPassword("", hash); !errors.Is(err, ErrEmptyPassword) {
			t.Errorf("expected ErrEmptyPassword, got %v", err)
		}
	})

	t.Run("invalid hash", func(t *testing.T) {
		if err := VerifyPassword("password", "not-a-bcrypt-hash"); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("expected ErrInvalidHash, got %v", err)
		}
	})
}

func TestCheckPasswordMatch(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !CheckPasswordMatch("secret", hash) {
		t.Error("expected true for correct password")
	}
	if CheckPasswordMatch("other", hash) {
		t.Error("expected false for wrong password")
	}
}
