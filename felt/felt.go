// Package felt implements the native scalar of the Starknet ledger: an integer
// in [0, P) where P = 2^251 + 17*2^192 + 1.
//
// Two construction paths exist and are deliberately distinct. Reduce, FromBig
// and FromUint64 accept any input and reduce it modulo P. ParseStrict and
// SetCanonical validate untrusted encodings and reject anything at or above P.
package felt

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// Size is the length in bytes of the big-endian encoding of an Element.
const Size = fp.Bytes

// HexPrefix prefixes every hex-encoded Element.
const HexPrefix = "0x"

// Element is an immutable field element. The zero value is 0.
type Element struct {
	v fp.Element
}

var (
	// Zero is the additive identity.
	Zero = Element{}

	// One is the multiplicative identity.
	One = FromUint64(1)
)

// Modulus returns a copy of the field modulus P.
func Modulus() *big.Int {
	return fp.Modulus()
}

// Reduce interprets b as a big-endian unsigned integer of any length and
// reduces it modulo P.
func Reduce(b []byte) Element {
	var e Element
	e.v.SetBytes(b)
	return e
}

// FromBig reduces v modulo P. Negative inputs map to their non-negative residue.
func FromBig(v *big.Int) Element {
	var e Element
	e.v.SetBigInt(v)
	return e
}

// FromUint64 returns n as an Element. Every uint64 is below P.
func FromUint64(n uint64) Element {
	var e Element
	e.v.SetUint64(n)
	return e
}

// SetCanonical decodes exactly 32 big-endian bytes, rejecting values >= P.
func SetCanonical(b []byte) (Element, error) {
	if len(b) != Size {
		return Element{}, fmt.Errorf("%w: got %d bytes", ErrInvalidLength, len(b))
	}
	var e Element
	if err := e.v.SetBytesCanonical(b); err != nil {
		return Element{}, fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}
	return e, nil
}

// ParseStrict parses "0x" followed by one or more hex digits (either case).
// Values at or above P are rejected with ErrOutOfRange rather than reduced.
func ParseStrict(s string) (Element, error) {
	digits, ok := strings.CutPrefix(s, HexPrefix)
	if !ok || digits == "" || !isHexDigits(digits) {
		return Element{}, fmt.Errorf("%w: %q", ErrInvalidHex, truncate(s))
	}
	n, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return Element{}, fmt.Errorf("%w: %q", ErrInvalidHex, truncate(s))
	}
	if n.Cmp(Modulus()) >= 0 {
		return Element{}, fmt.Errorf("%w: %s", ErrOutOfRange, truncate(s))
	}
	return FromBig(n), nil
}

// MustParse is ParseStrict for compile-time constants. It panics on error.
func MustParse(s string) Element {
	e, err := ParseStrict(s)
	if err != nil {
		panic(err)
	}
	return e
}

// IsValidHex reports whether s is a strictly valid hex Element. It never panics.
func IsValidHex(s string) bool {
	_, err := ParseStrict(s)
	return err == nil
}

// Hex returns "0x" followed by lowercase hex without leading zeros ("0x0" for zero).
func (e Element) Hex() string {
	return HexPrefix + e.v.Text(16)
}

// String implements fmt.Stringer with the hex form.
func (e Element) String() string {
	return e.Hex()
}

// Bytes returns the 32-byte big-endian encoding.
func (e Element) Bytes() [Size]byte {
	return e.v.Bytes()
}

// Big returns the value as a new big.Int.
func (e Element) Big() *big.Int {
	return e.v.BigInt(new(big.Int))
}

// Uint64 returns the value and true if it fits in 64 bits.
func (e Element) Uint64() (uint64, bool) {
	if !e.v.IsUint64() {
		return 0, false
	}
	return e.v.Uint64(), true
}

// Equal reports whether e and o hold the same value.
func (e Element) Equal(o Element) bool {
	return e.v.Equal(&o.v)
}

// IsZero reports whether e is 0.
func (e Element) IsZero() bool {
	return e.v.IsZero()
}

// Cmp compares e and o as unsigned integers and returns -1, 0 or +1.
func (e Element) Cmp(o Element) int {
	return e.v.Cmp(&o.v)
}

// MarshalText implements encoding.TextMarshaler using the hex form.
func (e Element) MarshalText() ([]byte, error) {
	return []byte(e.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with strict parsing.
func (e *Element) UnmarshalText(text []byte) error {
	parsed, err := ParseStrict(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func isHexDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// truncate keeps error messages bounded when callers pass huge inputs.
func truncate(s string) string {
	const maxLen = 80
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
