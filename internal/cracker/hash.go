package cracker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidHash is reported by ParseHashStrict for input that is not a
// hexadecimal 32-bit value.
var ErrInvalidHash = errors.New("invalid hash")

// ParseHash parses s as an unsigned hexadecimal integer. Parsing is lenient:
// characters outside [0-9A-Fa-f] still occupy a position but contribute a
// zero nibble, and input longer than eight digits keeps only the low 32 bits.
func ParseHash(s string) uint32 {
	var v uint32
	for i := 0; i < len(s); i++ {
		v = v<<4 | uint32(hexNibble(s[i]))
	}
	return v
}

// ParseHashStrict parses s as a hexadecimal 32-bit value with an optional
// "0x" prefix, reporting ErrInvalidHash for anything else.
func ParseHashStrict(s string) (uint32, error) {
	digits := s
	if rest, ok := strings.CutPrefix(digits, "0x"); ok {
		digits = rest
	} else if rest, ok := strings.CutPrefix(digits, "0X"); ok {
		digits = rest
	}
	if digits == "" || len(digits) > 8 {
		return 0, fmt.Errorf("%w %q: want 1 to 8 hex digits", ErrInvalidHash, s)
	}
	for i := 0; i < len(digits); i++ {
		if !isHex(digits[i]) {
			return 0, fmt.Errorf("%w %q: unexpected character %q", ErrInvalidHash, s, digits[i])
		}
	}
	return ParseHash(digits), nil
}

// FormatHash renders a checksum the way it is usually written, as eight
// lowercase hex digits.
func FormatHash(sum uint32) string { return fmt.Sprintf("%08x", sum) }

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
