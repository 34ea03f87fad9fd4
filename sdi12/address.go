package sdi12

import "fmt"

// Address is a single-character SDI-12 bus address.
//
// Standard addresses are '0'-'9'; the extended ranges 'a'-'z' and 'A'-'Z'
// are allowed for buses with more than ten sensors. The query address '?'
// is only valid in the address-query command, never as a sensor's own
// address in a response.
type Address byte

const (
	// DefaultAddress is the factory-default sensor address.
	DefaultAddress Address = '0'

	// QueryAddress is the wildcard address used by the address-query command.
	QueryAddress Address = '?'
)

// NewAddress validates c as an SDI-12 address. The query address '?' is
// accepted; use IsQuery to distinguish it.
func NewAddress(c byte) (Address, error) {
	if !IsAddressChar(c) && c != byte(QueryAddress) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, c)
	}

	return Address(c), nil
}

// IsAddressChar reports whether c is a valid sensor address character.
func IsAddressChar(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// Byte returns the address as its wire byte.
func (a Address) Byte() byte { return byte(a) }

// IsQuery reports whether a is the query address '?'.
func (a Address) IsQuery() bool { return a == QueryAddress }

// IsStandard reports whether a is in the standard range '0'-'9'.
func (a Address) IsStandard() bool { return a >= '0' && a <= '9' }

// IsExtended reports whether a is in the extended ranges 'a'-'z' or 'A'-'Z'.
func (a Address) IsExtended() bool {
	return a >= 'a' && a <= 'z' || a >= 'A' && a <= 'Z'
}

// Valid reports whether a is a valid sensor address (query excluded).
func (a Address) Valid() bool { return IsAddressChar(byte(a)) }

func (a Address) String() string { return string(byte(a)) }
