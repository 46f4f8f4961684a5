// Package checksum implements the digit-wise CRC-32 register used by the
// target scheme: a reflected-polynomial lookup table, the elementary register
// transition, and digests over the raw decimal digits of an integer.
package checksum

import (
	"errors"
	"fmt"
	"hash/crc32"
	"slices"
)

const (
	// IEEE is the reversed IEEE 802.3 polynomial, the default for the scheme.
	IEEE = crc32.IEEE

	// PadDigits is the number of zero rounds fed by Digest when padding.
	PadDigits = 5

	// MaxWidth is the widest decimal field the scheme supports.
	MaxWidth = 9

	// Initial register and final complement of the conventional CRC-32
	initRegister = 0xFFFFFFFF
)

// ErrWidth is reported by FieldChecksum for an unusable field width.
var ErrWidth = errors.New("invalid field width")

// MakeTable builds the 256-entry lookup table for a reflected polynomial.
// For the polynomials understood by hash/crc32 the result has the same
// contents as crc32.MakeTable.
func MakeTable(poly uint32) *crc32.Table {
	t := new(crc32.Table)
	for i := range t {
		crc := uint32(i)
		for range 8 {
			if crc&1 == 1 {
				crc = crc>>1 ^ poly
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return t
}

// Update advances the register crc by one input value b.
func Update(crc uint32, tab *crc32.Table, b byte) uint32 {
	return tab[byte(crc)^b] ^ crc>>8
}

// AppendDigits appends the decimal digits of n to dst as raw values 0-9,
// most significant first. Zero has no digits.
func AppendDigits(dst []byte, n uint32) []byte {
	start := len(dst)
	for ; n > 0; n /= 10 {
		dst = append(dst, byte(n%10))
	}
	slices.Reverse(dst[start:])
	return dst
}

// Digest computes the un-finalized register after feeding the raw digits of n
// through Update, starting from a clear register. If pad is true, PadDigits
// further zero values are fed, standing in for unknown low-order digits.
func Digest(n uint32, pad bool, tab *crc32.Table) uint32 {
	var buf [10]byte
	var crc uint32
	for _, d := range AppendDigits(buf[:0], n) {
		crc = Update(crc, tab, d)
	}
	if pad {
		for range PadDigits {
			crc = Update(crc, tab, 0)
		}
	}
	return crc
}

// FieldChecksum computes the externally visible checksum of n written as an
// ASCII decimal field of the given width, left-padded with '0'. This is the
// forward direction of the scheme that Digest-based searches invert.
func FieldChecksum(n uint32, width int, tab *crc32.Table) (uint32, error) {
	var buf [10]byte
	digits := AppendDigits(buf[:0], n)
	if width < 1 || width > MaxWidth || width < len(digits) {
		return 0, fmt.Errorf("%w: %d for value %d", ErrWidth, width, n)
	}

	crc := uint32(initRegister)
	for range width - len(digits) {
		crc = Update(crc, tab, '0')
	}
	for _, d := range digits {
		crc = Update(crc, tab, '0'+d)
	}
	return crc ^ initRegister, nil
}
