// Package scalar converts between ledger-native scalars and Go values.
//
// Starknet stores short text as a "short string": up to 31 ASCII bytes packed
// big-endian into a single felt. Unsigned integers travel as 0x-prefixed hex.
package scalar

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/bitfsorg/libfileproof-go/felt"
)

// MaxShortStringLen is the longest text that packs into one felt.
const MaxShortStringLen = felt.Size - 1

// FeltToShortString unpacks e as a short string. Zero bytes are padding and
// are skipped. If the remaining bytes are not printable text the hex form of e
// is returned instead.
func FeltToShortString(e felt.Element) string {
	b := e.Bytes()
	if s, ok := unpack(b[:]); ok {
		return s
	}
	return e.Hex()
}

// DecodeShortString unpacks a raw hex wire value (with or without 0x). Input
// that is not hex, or does not decode to printable text, is returned unchanged.
func DecodeShortString(s string) string {
	digits := strings.TrimPrefix(s, felt.HexPrefix)
	if digits == "" {
		return s
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	raw, err := hex.DecodeString(digits)
	if err != nil {
		return s
	}
	if out, ok := unpack(raw); ok {
		return out
	}
	return s
}

// EncodeShortString packs s into a felt. It is the inverse of FeltToShortString
// for printable ASCII of at most MaxShortStringLen bytes.
func EncodeShortString(s string) (felt.Element, error) {
	if len(s) > MaxShortStringLen {
		return felt.Element{}, fmt.Errorf("%w: %d bytes (max %d)", ErrShortStringTooLong, len(s), MaxShortStringLen)
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return felt.Element{}, fmt.Errorf("%w: byte 0x%02x at %d", ErrNotASCII, s[i], i)
		}
	}
	return felt.Reduce([]byte(s)), nil
}

// HexToUint64 parses an optional 0x prefix followed by hex digits into a
// uint64. Empty, non-hex or overflowing input fails with ErrMalformedScalar.
func HexToUint64(s string) (uint64, error) {
	digits := strings.TrimPrefix(s, felt.HexPrefix)
	if digits == "" {
		return 0, fmt.Errorf("%w: empty value %q", ErrMalformedScalar, s)
	}
	n, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrMalformedScalar, s, err)
	}
	return n, nil
}

// Uint64ToHex formats n as lowercase minimal-width hex with a 0x prefix.
func Uint64ToHex(n uint64) string {
	return felt.HexPrefix + strconv.FormatUint(n, 16)
}

// FeltToUint64 narrows a decoded felt to uint64 or fails with ErrMalformedScalar.
func FeltToUint64(e felt.Element) (uint64, error) {
	n, ok := e.Uint64()
	if !ok {
		return 0, fmt.Errorf("%w: %s overflows 64 bits", ErrMalformedScalar, e.Hex())
	}
	return n, nil
}

func unpack(raw []byte) (string, bool) {
	var sb strings.Builder
	for _, c := range raw {
		if c == 0 {
			continue
		}
		if !isText(c) {
			return "", false
		}
		sb.WriteByte(c)
	}
	return sb.String(), true
}

func isText(c byte) bool {
	return (c >= 0x20 && c <= 0x7e) || c == '\t' || c == '\n' || c == '\r'
}
