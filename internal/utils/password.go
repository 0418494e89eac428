package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/scrypt"
)

// scrypt cost parameters.  These match the defaults the shop has always
// used, so hashes already on disk keep verifying.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltLen      = 16
)

// GenSalt returns saltLen random bytes, base64 encoded for storage.
func GenSalt() (string, error) {
	buf := make([]byte, saltLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// HashPassword derives a 64-byte scrypt key from password and the stored
// salt string and returns it base64 encoded.  The salt is used as the bytes
// of its encoded form, exactly as it is stored.
func HashPassword(password, salt string) (string, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// VerifyPassword recomputes the hash and compares it in constant time.  A
// KDF failure never counts as a match.
func VerifyPassword(password, salt, hash string) bool {
	got, err := HashPassword(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(hash)) == 1
}
