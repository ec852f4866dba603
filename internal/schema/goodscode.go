package schema

import (
	"errors"
	"strings"
)

// goodsCodeLength is the number of digits a goods code is normalized to.
const goodsCodeLength = 10

// ErrInvalidCode is returned when a goods code has fewer than ten digits.
var ErrInvalidCode = errors.New("invalid goods code")

// ResolveGoodsCode normalizes a commodity code to its most specific
// non-trivial level.
//
// The digits of raw are padded to ten and read as five two-digit groups.
// Cumulative codes of 2, 4, 6, 8 and 10 digits are scanned from the longest
// down and the first one not ending in "00" is returned, so "0301190000"
// resolves to "030119". A code that is zero at every level resolves to "00".
func ResolveGoodsCode(raw string) (string, error) {
	digits := digitsOnly(raw)
	if len(digits) < goodsCodeLength {
		return "", ErrInvalidCode
	}
	digits = digits[:goodsCodeLength]

	for end := goodsCodeLength; end >= 2; end -= 2 {
		if digits[end-2:end] != "00" {
			return digits[:end], nil
		}
	}
	return "00", nil
}

// digitsOnly drops every non-digit rune.
func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
