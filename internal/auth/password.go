package auth

import (
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordMinLength is the shortest accepted password, in runes.
const PasswordMinLength = 8

// PasswordViolation returns the violated password constraint, or "".
func PasswordViolation(password string) string {
	n := utf8.RuneCountInString(password)
	switch {
	case n < PasswordMinLength:
		return "password must be at least 8 characters"
	case len(password) > 72:
		// bcrypt ignores everything past 72 bytes
		return "password must be at most 72 bytes"
	}
	return ""
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// PasswordMatches reports whether plain hashes to hashed.
func PasswordMatches(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// DecoyHash hashes a random secret at the given cost. Comparing against it
// costs as much as checking a real account and never matches.
func DecoyHash(cost int) (string, error) {
	return HashPassword(uuid.NewString(), cost)
}
