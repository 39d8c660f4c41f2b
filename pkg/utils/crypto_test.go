package utils

import (
	"testing"
	"time"
)

func TestTokenCipherRoundTrip(t *testing.T) {
	cipher, err := NewTokenCipher("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewTokenCipher: %v", err)
	}

	plaintext := "ya29.some-access-token"
	encrypted, err := cipher.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if encrypted == plaintext {
		t.Fatal("ciphertext equals plaintext")
	}

	decrypted, err := cipher.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if decrypted != plaintext {
		t.Fatalf("round trip = %q, want %q", decrypted, plaintext)
	}
}

func TestTokenCipherNonceVariation(t *testing.T) {
	cipher, err := NewTokenCipher("0123456789abcdef")
	if err != nil {
		t.Fatalf("NewTokenCipher: %v", err)
	}

	a, _ := cipher.Encrypt("same input")
	b, _ := cipher.Encrypt("same input")
	if a == b {
		t.Fatal("two encryptions of the same input produced identical ciphertext")
	}
}

func TestNewTokenCipherKeyLength(t *testing.T) {
	for _, key := range []string{"", "short", "0123456789abcdef0"} {
		if _, err := NewTokenCipher(key); err == nil {
			t.Fatalf("expected error for %d byte key", len(key))
		}
	}
	for _, key := range []string{"0123456789abcdef", "0123456789abcdef01234567", "0123456789abcdef0123456789abcdef"} {
		if _, err := NewTokenCipher(key); err != nil {
			t.Fatalf("unexpected error for %d byte key: %v", len(key), err)
		}
	}
}

func TestTokenCipherRejectsGarbage(t *testing.T) {
	cipher, err := NewTokenCipher("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewTokenCipher: %v", err)
	}

	for _, input := range []string{"", "not base64!!", "YWJj"} {
		if _, err := cipher.Decrypt(input); err == nil {
			t.Fatalf("expected error decrypting %q", input)
		}
	}
}

func TestTokenCipherWrongKey(t *testing.T) {
	a, _ := NewTokenCipher("0123456789abcdef0123456789abcdef")
	b, _ := NewTokenCipher("fedcba9876543210fedcba9876543210")

	encrypted, err := a.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := b.Decrypt(encrypted); err == nil {
		t.Fatal("decrypting with the wrong key should fail")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	secret := "test-jwt-secret"

	token, err := GenerateToken(secret, "42", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "42" {
		t.Fatalf("UserID = %q, want 42", claims.UserID)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", "42", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken("secret-b", token); err == nil {
		t.Fatal("expected validation to fail with the wrong secret")
	}
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	token, err := GenerateToken("secret", "42", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken("secret", token); err == nil {
		t.Fatal("expected validation to fail for an expired token")
	}
}

func TestHashKeyIsStable(t *testing.T) {
	key, err := GenerateRandomKey(24)
	if err != nil {
		t.Fatalf("GenerateRandomKey: %v", err)
	}
	if key == "" {
		t.Fatal("empty key")
	}
	if HashKey(key) != HashKey(key) {
		t.Fatal("hash not deterministic")
	}
	if HashKey(key) == key {
		t.Fatal("hash equals plaintext key")
	}

	other, _ := GenerateRandomKey(24)
	if HashKey(other) == HashKey(key) {
		t.Fatal("distinct keys hashed identically")
	}
}
