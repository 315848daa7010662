package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestKeyPair(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, pemBytes
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestVerifyToken(t *testing.T) {
	key, pemBytes := newTestKeyPair(t)
	verifier, err := NewVerifier(pemBytes)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	token := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "user_abc",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	subject, err := verifier.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if subject != "user_abc" {
		t.Fatalf("expected subject user_abc got %q", subject)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	key, pemBytes := newTestKeyPair(t)
	verifier, err := NewVerifier(pemBytes)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	token := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "user_abc",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})

	if _, err := verifier.VerifyToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestVerifyToken_WrongKey(t *testing.T) {
	_, pemBytes := newTestKeyPair(t)
	otherKey, _ := newTestKeyPair(t)

	verifier, err := NewVerifier(pemBytes)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	token := signToken(t, otherKey, jwt.RegisteredClaims{
		Subject:   "user_abc",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	if _, err := verifier.VerifyToken(token); err == nil {
		t.Fatalf("expected token signed with another key to be rejected")
	}
}

func TestVerifyToken_MissingSubject(t *testing.T) {
	key, pemBytes := newTestKeyPair(t)
	verifier, err := NewVerifier(pemBytes)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	token := signToken(t, key, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	if _, err := verifier.VerifyToken(token); err == nil {
		t.Fatalf("expected token without subject to be rejected")
	}
}
