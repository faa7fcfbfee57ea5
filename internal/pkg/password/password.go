// Package password hashes and verifies account passwords with bcrypt.
package password

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	// Cost is the bcrypt work factor; the encoded hash carries it alongside the salt.
	Cost = 12
	// MinLength is the minimum accepted password length.
	MinLength = 6
	// MaxBytes is the longest input bcrypt accepts.
	MaxBytes = 72
)

var (
	ErrTooShort = fmt.Errorf("must be at least %d characters", MinLength)
	ErrTooLong  = fmt.Errorf("must be at most %d bytes", MaxBytes)
)

// Hash returns the bcrypt encoding of pw.
func Hash(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Verify reports whether pw matches hash. A malformed or empty hash yields false.
func Verify(pw, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Validate applies the password policy.
func Validate(pw string) error {
	if len([]rune(pw)) < MinLength {
		return ErrTooShort
	}
	if len(pw) > MaxBytes {
		return ErrTooLong
	}
	return nil
}

// dummyHash is compared against when no account matched so that signin
// latency does not reveal whether an identifier exists.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), Cost)
	return h
})

// Burn spends one bcrypt comparison and always returns false.
func Burn(pw string) bool {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(pw))
	return false
}
