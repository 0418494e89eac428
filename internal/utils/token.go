package utils

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"regexp"
	"strings"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NewVerifyToken returns 24 random bytes, base64url encoded, for email
// verification links.
func NewVerifyToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewUserID derives a readable id from the email: "u-<slug>-<6 random>".
func NewUserID(email string) (string, error) {
	base := strings.ToLower(email)
	if base == "" {
		base = "user"
	}
	suffix, err := randomBase36(6)
	if err != nil {
		return "", err
	}
	return "u-" + nonAlnum.ReplaceAllString(base, "-") + "-" + suffix, nil
}

// NewProductID returns "<slug>-<6 random>".
func NewProductID(name string) (string, error) {
	suffix, err := randomBase36(6)
	if err != nil {
		return "", err
	}
	return Slug(name, "item") + "-" + suffix, nil
}

// NewCategoryID returns "cat-<slug>-<6 random>".
func NewCategoryID(name string) (string, error) {
	suffix, err := randomBase36(6)
	if err != nil {
		return "", err
	}
	return "cat-" + Slug(name, "item") + "-" + suffix, nil
}

// randomBase36 returns n characters drawn uniformly from [0-9a-z].
func randomBase36(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		k, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(base36[k.Int64()])
	}
	return b.String(), nil
}
