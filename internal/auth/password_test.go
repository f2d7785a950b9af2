package auth

import (
	"bytes"
	"testing"
)

func TestNewSalt(t *testing.T) {
	first, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt(): %v", err)
	}
	if len(first) != saltLength {
		t.Errorf("salt length = %d, want %d", len(first), saltLength)
	}
	second, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt(): %v", err)
	}
	if bytes.Equal(first, second) {
		t.Error("two salts should not be equal")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt(): %v", err)
	}
	hash := HashPassword("open sesame", salt)
	if len(hash) != digestLength {
		t.Errorf("digest length = %d, want %d", len(hash), digestLength)
	}

	if !VerifyPassword("open sesame", salt, hash) {
		t.Error("VerifyPassword() rejected the correct password")
	}
	if VerifyPassword("open please", salt, hash) {
		t.Error("VerifyPassword() accepted a wrong password")
	}

	otherSalt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt(): %v", err)
	}
	if VerifyPassword("open sesame", otherSalt, hash) {
		t.Error("VerifyPassword() accepted the password under a different salt")
	}
}

func TestHashPassword_Deterministic(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt(): %v", err)
	}
	if !bytes.Equal(HashPassword("pw", salt), HashPassword("pw", salt)) {
		t.Error("same password and salt should produce the same digest")
	}
}
