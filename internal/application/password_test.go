package application

import (
	"strings"
	"testing"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := hashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !strings.HasPrefix(hash, "$pbkdf2-sha256$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}
	if !verifyPassword("hunter2", hash) {
		t.Fatalf("correct password rejected")
	}
	if verifyPassword("hunter3", hash) {
		t.Fatalf("wrong password accepted")
	}
}

func TestPasswordHashesAreSalted(t *testing.T) {
	a, err := hashPassword("same")
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	b, err := hashPassword("same")
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct salts, got identical hashes")
	}
	if !verifyPassword("same", a) || !verifyPassword("same", b) {
		t.Fatalf("both hashes should verify")
	}
}

func TestVerifyAcceptsLegacyPasslibHash(t *testing.T) {
	// Hash produced by passlib's pbkdf2_sha256 for "password"; stores
	// written by the earlier tracker must keep verifying.
	legacy := "$pbkdf2-sha256$6400$0ZrzXitFSGltTQnBWOsdAw$Y11AchqV4b0sUisdZd0Xr97KWoymNE0LNNrnEgY4H9M"
	if !verifyPassword("password", legacy) {
		t.Fatalf("legacy passlib hash rejected")
	}
	if verifyPassword("not-the-password", legacy) {
		t.Fatalf("wrong password accepted against legacy hash")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	if verifyPassword("x", "not-a-hash") {
		t.Fatalf("malformed hash accepted")
	}
	if verifyPassword("x", "$pbkdf2-sha256$29000$short") {
		t.Fatalf("truncated hash accepted")
	}
}

func TestTokenPairMatchesItsHash(t *testing.T) {
	plain, hash, err := newTokenPair()
	if err != nil {
		t.Fatalf("new token pair: %v", err)
	}
	if plain == "" || hash == "" {
		t.Fatalf("empty token pair")
	}
	if hashToken(plain) != hash {
		t.Fatalf("token does not hash to stored value")
	}
	if hashToken("other") == hash {
		t.Fatalf("different tokens should not collide")
	}
}
