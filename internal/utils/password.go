package utils

import "strings"

// PasswordSymbols are the characters accepted as the required symbol
const PasswordSymbols = "@$!%*?&"

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// IsStrongPassword reports whether a password has at least 8 characters
// drawn only from letters, digits and PasswordSymbols, with at least one
// lowercase letter, one uppercase letter, one digit and one symbol.
func IsStrongPassword(password string) bool {
	if len(password) < MinPasswordLength {
		return false
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		default:
			return false
		}
	}
	return lower && upper && digit && symbol
}
