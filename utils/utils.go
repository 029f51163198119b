package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

const PINLength = 4

func HashPIN(pin string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), BcryptCost)
	return string(bytes), err
}

func CheckPINHash(pin, hash string) bool {
	if hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	return err == nil
}

// ValidPIN - ровно четыре цифры.
func ValidPIN(pin string) bool {
	if len(pin) != PINLength {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeUsername приводит логин к виду для сравнения.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
