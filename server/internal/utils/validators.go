package utils

import (
	"unicode"
)

// MaxComponentKeyLen bounds caller-supplied component keys.
const MaxComponentKeyLen = 128

// IsValidComponentKey reports whether key can name a component: letters,
// digits, '-', '_' and '.', at most MaxComponentKeyLen bytes.
func IsValidComponentKey(key string) bool {
	if key == "" || len(key) > MaxComponentKeyLen {
		return false
	}
	for _, char := range key {
		switch {
		case char > unicode.MaxASCII:
			return false
		case unicode.IsLetter(char), unicode.IsDigit(char):
		case char == '-', char == '_', char == '.':
		default:
			return false
		}
	}
	return true
}
