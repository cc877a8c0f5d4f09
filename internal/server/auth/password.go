package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost factor. A trade-off between brute-force
// resistance and login latency.
const HashCost = 10

// MinPasswordLength is the minimum accepted plaintext length, enforced by
// the validation layer before hashing.
const MinPasswordLength = 6

var ErrEmptyPassword = errors.New("password is empty")

// HashPassword returns a salted bcrypt hash of plaintext. The salt is random
// per call and embedded in the output, so hashing the same input twice yields
// different values.
func HashPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), HashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plaintext matches hash. A mismatch is a
// normal outcome, not an error.
func CheckPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
