package crypto

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestSealerRoundTrip(t *testing.T) {
	s, err := NewSealer(testKey)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	sealed, err := s.Seal([]byte(`{"private_key":"deadbeef"}`))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if strings.Contains(sealed, "deadbeef") {
		t.Fatal("sealed output leaks plaintext")
	}

	plain, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(plain) != `{"private_key":"deadbeef"}` {
		t.Errorf("Open = %q", plain)
	}
}

func TestSealerUsesFreshNonce(t *testing.T) {
	s, _ := NewSealer(testKey)
	a, _ := s.Seal([]byte("same"))
	b, _ := s.Seal([]byte("same"))
	if a == b {
		t.Fatal("identical ciphertexts for identical plaintexts")
	}
}

func TestSealerRejectsWrongKeyAndGarbage(t *testing.T) {
	s, _ := NewSealer(testKey)
	other, _ := NewSealer(strings.Repeat("x", 32))

	sealed, _ := s.Seal([]byte("secret"))
	if _, err := other.Open(sealed); err == nil {
		t.Error("expected failure opening with another key")
	}
	if _, err := s.Open("AAAA"); err == nil {
		t.Error("expected failure on short ciphertext")
	}
	if _, err := s.Open("not base64!!"); err == nil {
		t.Error("expected failure on invalid base64")
	}
}

func TestNewSealerKeyLength(t *testing.T) {
	if _, err := NewSealer("short"); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestPasswordHashing(t *testing.T) {
	BcryptCost = bcrypt.MinCost

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword("correct horse", hash) {
		t.Error("CheckPassword rejected the right password")
	}
	if CheckPassword("wrong horse", hash) {
		t.Error("CheckPassword accepted the wrong password")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := map[string]bool{
		"short":                  false,
		"exactly8":               true,
		strings.Repeat("a", 100): true,
		strings.Repeat("a", 101): false,
	}
	for pw, want := range cases {
		if got := ValidatePasswordStrength(pw); got != want {
			t.Errorf("ValidatePasswordStrength(len=%d) = %v, want %v", len(pw), got, want)
		}
	}
}
