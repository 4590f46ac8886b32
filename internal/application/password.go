package application

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Password hashes use PBKDF2-HMAC-SHA256 in the passlib modular crypt
// encoding ($pbkdf2-sha256$rounds$salt$digest), so stores written by the
// earlier tracker keep verifying without rehashing.
const (
	pbkdf2Rounds  = 29000
	pbkdf2SaltLen = 16
	pbkdf2KeyLen  = 32
	pbkdf2Prefix  = "$pbkdf2-sha256$"
)

// passlib's adapted base64: '.' instead of '+', no padding.
var ab64 = base64.StdEncoding.WithPadding(base64.NoPadding)

func ab64Encode(raw []byte) string {
	return strings.ReplaceAll(ab64.EncodeToString(raw), "+", ".")
}

func ab64Decode(encoded string) ([]byte, error) {
	return ab64.DecodeString(strings.ReplaceAll(encoded, ".", "+"))
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Rounds, pbkdf2KeyLen, sha256.New)
	return fmt.Sprintf("%s%d$%s$%s", pbkdf2Prefix, pbkdf2Rounds, ab64Encode(salt), ab64Encode(key)), nil
}

func verifyPassword(password, encoded string) bool {
	rounds, salt, digest, err := parsePasswordHash(encoded)
	if err != nil {
		return false
	}
	key := pbkdf2.Key([]byte(password), salt, rounds, len(digest), sha256.New)
	return hmac.Equal(key, digest)
}

func parsePasswordHash(encoded string) (rounds int, salt, digest []byte, err error) {
	if !strings.HasPrefix(encoded, pbkdf2Prefix) {
		return 0, nil, nil, errors.New("unsupported hash format")
	}
	parts := strings.Split(strings.TrimPrefix(encoded, pbkdf2Prefix), "$")
	if len(parts) != 3 {
		return 0, nil, nil, errors.New("malformed hash")
	}
	rounds, err = strconv.Atoi(parts[0])
	if err != nil || rounds < 1 {
		return 0, nil, nil, errors.New("malformed rounds")
	}
	salt, err = ab64Decode(parts[1])
	if err != nil {
		return 0, nil, nil, err
	}
	digest, err = ab64Decode(parts[2])
	if err != nil {
		return 0, nil, nil, err
	}
	return rounds, salt, digest, nil
}

func newTokenPair() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)
	return plain, hashToken(plain), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum[:])
}
