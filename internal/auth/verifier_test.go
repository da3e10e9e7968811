package auth

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("unit-test-secret")

func TestVerifier_ValidToken(t *testing.T) {
	token, err := IssueToken(testSecret, "alice", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	userID, err := NewVerifier(testSecret).Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "alice" {
		t.Errorf("Expected user id alice, got %q", userID)
	}
}

func TestVerifier_MissingToken(t *testing.T) {
	_, err := NewVerifier(testSecret).Verify("")
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("Expected ErrMissingToken, got %v", err)
	}
}

func TestVerifier_MalformedToken(t *testing.T) {
	_, err := NewVerifier(testSecret).Verify("not-a-jwt")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifier_ExpiredToken(t *testing.T) {
	token, err := IssueToken(testSecret, "alice", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	_, err = NewVerifier(testSecret).Verify(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifier_WrongSecret(t *testing.T) {
	token, err := IssueToken([]byte("other-secret"), "alice", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	_, err = NewVerifier(testSecret).Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifier_MissingSubject(t *testing.T) {
	claims := jwtlib.RegisteredClaims{
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	_, err = NewVerifier(testSecret).Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for missing subject, got %v", err)
	}
}

func TestVerifier_MissingExpiry(t *testing.T) {
	claims := jwtlib.RegisteredClaims{Subject: "alice"}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	_, err = NewVerifier(testSecret).Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for missing expiry, got %v", err)
	}
}

func TestVerifier_UnsignedAlgorithmRejected(t *testing.T) {
	claims := jwtlib.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims).
		SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	_, err = NewVerifier(testSecret).Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for alg=none, got %v", err)
	}
}
