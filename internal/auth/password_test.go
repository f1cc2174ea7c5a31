package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
	}{
		{name: "password is hashed", password: "hunter22"},
		{name: "empty password has no hash", password: ""},
		{name: "longest accepted password", password: strings.Repeat("p", MaxPasswordLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			if err != nil {
				t.Fatalf("Hash failed: %v", err)
			}
			if tt.password == "" {
				if hash != "" {
					t.Errorf("expected empty hash for empty password, got %q", hash)
				}
				return
			}
			if hash == tt.password {
				t.Fatal("hash must not equal the plaintext password")
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(tt.password)); err != nil {
				t.Errorf("hash does not verify: %v", err)
			}
			if cost, err := bcrypt.Cost([]byte(hash)); err != nil || cost != bcrypt.MinCost {
				t.Errorf("hash cost = %d (%v), want %d", cost, err, bcrypt.MinCost)
			}
		})
	}
}

func TestBcryptHasher_TooLong(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestNewBcryptHasher_InvalidCost(t *testing.T) {
	h := NewBcryptHasher(100)
	if h.cost != bcrypt.DefaultCost {
		t.Errorf("expected default cost, got %d", h.cost)
	}
}
