package crypto

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor used by HashPassword
var BcryptCost = 12

const (
	MinPasswordLength = 8
	MaxPasswordLength = 100
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a password with a hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength reports whether the password length is acceptable
func ValidatePasswordStrength(password string) bool {
	return len(password) >= MinPasswordLength && len(password) <= MaxPasswordLength
}
