package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// FeltLength is the size of a field element in bytes.
const FeltLength = 32

var (
	// ErrFeltOverflow is returned when a value is not below the field modulus.
	ErrFeltOverflow = errors.New("felt overflows field modulus")

	// feltModulus is 2^251 + 17*2^192 + 1, big-endian.
	feltModulus = [FeltLength]byte{
		0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x11,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
	}
)

// Felt is a Starknet field element stored as 32 big-endian bytes.
// The zero value is the field element 0.
type Felt [FeltLength]byte

// ZeroFelt is the field element 0.
var ZeroFelt Felt

// FeltFromBytes right-aligns b into a Felt. b may be at most 32 bytes and its
// value must be below the field modulus.
func FeltFromBytes(b []byte) (Felt, error) {
	var f Felt
	if len(b) > FeltLength {
		return f, fmt.Errorf("felt: %d bytes exceeds %d", len(b), FeltLength)
	}
	copy(f[FeltLength-len(b):], b)
	if bytes.Compare(f[:], feltModulus[:]) >= 0 {
		return ZeroFelt, ErrFeltOverflow
	}
	return f, nil
}

// MustFeltFromBytes is like FeltFromBytes but panics on error.
func MustFeltFromBytes(b []byte) Felt {
	f, err := FeltFromBytes(b)
	if err != nil {
		panic(err)
	}
	return f
}

// FeltFromHex parses a hex string with an optional 0x prefix and at most 64
// digits.
func FeltFromHex(s string) (Felt, error) {
	digits := s
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = digits[2:]
	}
	if digits == "" {
		return ZeroFelt, fmt.Errorf("felt: empty hex string %q", s)
	}
	if len(digits) > 2*FeltLength {
		return ZeroFelt, fmt.Errorf("felt: hex string %q is longer than %d digits", s, 2*FeltLength)
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	raw, err := hex.DecodeString(digits)
	if err != nil {
		return ZeroFelt, fmt.Errorf("felt: invalid hex string %q: %w", s, err)
	}
	return FeltFromBytes(raw)
}

// MustFeltFromHex is like FeltFromHex but panics on error.
func MustFeltFromHex(s string) Felt {
	f, err := FeltFromHex(s)
	if err != nil {
		panic(err)
	}
	return f
}

// IsZero reports whether f is the zero element.
func (f Felt) IsZero() bool { return f == ZeroFelt }

// Bytes returns a copy of the big-endian representation.
func (f Felt) Bytes() []byte {
	b := make([]byte, FeltLength)
	copy(b, f[:])
	return b
}

// Hex returns the 0x-prefixed lowercase hex encoding without leading zeros.
func (f Felt) Hex() string {
	s := strings.TrimLeft(hex.EncodeToString(f[:]), "0")
	if s == "" {
		return "0x0"
	}
	return "0x" + s
}

func (f Felt) String() string { return f.Hex() }

// MarshalText implements encoding.TextMarshaler.
func (f Felt) MarshalText() ([]byte, error) {
	return []byte(f.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Felt) UnmarshalText(text []byte) error {
	parsed, err := FeltFromHex(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
