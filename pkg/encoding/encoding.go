// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package encoding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Width of a machine word in bits
const WordBits = 16

// Number of octal digits used to render a machine word
const OctalDigits = 6

var (
	ErrNotDecimal = errors.New("Invalid decimal string")
	ErrNotHex     = errors.New("Invalid hex string")
	ErrNotOctal   = errors.New("Invalid octal string")
	ErrNotBinary  = errors.New("Invalid binary string")
)

// Reports whether s is an optionally negative run of decimal digits
func IsDecimal(s string) bool {
	s = strings.TrimPrefix(s, "-")

	if s == "" {
		return false
	}

	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

// Decodes a base-10 string in the formats: 123, -123
func DecodeInt(s string) (int, error) {
	if !IsDecimal(s) {
		return 0, ErrNotDecimal
	}

	result, err := strconv.ParseInt(s, 10, 32)

	if err != nil {
		return 0, err
	}

	return int(result), nil
}

// Decodes a hexidecimal string in the formats: 0xFFFF, 0XFF, 0x-1F
func DecodeHex(s string) (int, error) {
	if len(s) < 2 || !strings.EqualFold(s[:2], "0x") {
		return 0, ErrNotHex
	}

	result, err := strconv.ParseInt(s[2:], 16, 32)

	if err != nil {
		return 0, err
	}

	return int(result), nil
}

// Decodes an octal string in the formats: 017, 0o17, 0O17
func DecodeOctal(s string) (int, error) {
	if !strings.HasPrefix(s, "0") {
		return 0, ErrNotOctal
	}

	s = s[1:]

	if strings.HasPrefix(s, "o") || strings.HasPrefix(s, "O") {
		s = s[1:]
	}

	if s == "" || strings.ContainsAny(s, "+-") {
		return 0, ErrNotOctal
	}

	result, err := strconv.ParseInt(s, 8, 32)

	if err != nil {
		return 0, err
	}

	return int(result), nil
}

// Renders the low bitcount bits of value as a zero-padded binary string
func ToBinary(value int, bitcount int) string {
	mask := (1 << bitcount) - 1
	return fmt.Sprintf("%0*b", bitcount, value&mask)
}

// Decodes a binary string of at most WordBits digits
func ParseBinary(s string) (uint16, error) {
	if s == "" || len(s) > WordBits {
		return 0, ErrNotBinary
	}

	result, err := strconv.ParseUint(s, 2, WordBits)

	if err != nil {
		return 0, ErrNotBinary
	}

	return uint16(result), nil
}

// Renders a word as a zero-padded 6 digit octal string
func FormatOctal(value uint16) string {
	return fmt.Sprintf("%0*o", OctalDigits, value)
}

// Decodes a plain octal string (no prefix) that fits in a word
func ParseOctal(s string) (uint16, error) {
	if s == "" || strings.ContainsAny(s, "+-") {
		return 0, ErrNotOctal
	}

	result, err := strconv.ParseUint(s, 8, WordBits)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Converts a binary string to its 6 digit octal rendering
func BinaryToOctal(s string) (string, error) {
	value, err := ParseBinary(s)

	if err != nil {
		return "", err
	}

	return FormatOctal(value), nil
}

// Truncates value to its low bitcount bits
func Mask(value int, bitcount int) uint16 {
	return uint16(value & ((1 << bitcount) - 1))
}
