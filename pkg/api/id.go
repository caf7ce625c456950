package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	// UserKeyLength is the number of characters in a generated user key.
	UserKeyLength = 7

	charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var userKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9]{7}$`)

// NewUserKey generates the short public identifier of a user: 7
// cryptographically random alphanumeric characters.
func NewUserKey() string {
	return randomAlphanumeric(UserKeyLength)
}

// ValidateUserKey checks whether the given string is a well-formed user key.
func ValidateUserKey(key string) bool {
	return userKeyPattern.MatchString(key)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
