package sdi12

import (
	"fmt"
	"strconv"
)

// MaxValueLen is the longest wire encoding of a single data value:
// sign, up to 7 digits and an optional decimal point.
const MaxValueLen = 9

// MaxValueDigits is the maximum number of digits in a single data value.
const MaxValueDigits = 7

// ParseValue parses a single data value token: a mandatory '+' or '-'
// sign followed by 1-7 digits with at most one decimal point, at most
// 9 characters in total.
func ParseValue(token []byte) (float64, error) {
	if len(token) == 0 || len(token) > MaxValueLen {
		return 0, fmt.Errorf("%w: bad length %d", ErrInvalidValue, len(token))
	}

	sign := 1.0
	switch token[0] {
	case '+':
	case '-':
		sign = -1.0
	default:
		return 0, fmt.Errorf("%w: missing sign in %q", ErrInvalidValue, token)
	}

	digits := 0
	decimal := false
	for _, c := range token[1:] {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			if decimal {
				return 0, fmt.Errorf("%w: multiple decimal points in %q", ErrInvalidValue, token)
			}
			decimal = true
		default:
			return 0, fmt.Errorf("%w: bad character %q in %q", ErrInvalidValue, c, token)
		}
	}
	if digits == 0 || digits > MaxValueDigits {
		return 0, fmt.Errorf("%w: %d digits in %q", ErrInvalidValue, digits, token)
	}

	// Trailing decimal points ("+1234567.") are valid on the wire but not
	// for strconv.
	numeric := string(token[1:])
	if numeric[len(numeric)-1] == '.' {
		numeric = numeric[:len(numeric)-1]
	}
	if numeric[0] == '.' {
		numeric = "0" + numeric
	}

	v, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, token)
	}

	return sign * v, nil
}

// ParseValues splits a data payload into sign-delimited tokens and parses
// each one. The payload must start with a sign character.
func ParseValues(payload []byte) ([]float64, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	if payload[0] != '+' && payload[0] != '-' {
		return nil, fmt.Errorf("%w: missing sign in %q", ErrInvalidValue, payload)
	}

	var values []float64
	start := 0
	for i := 1; i < len(payload); i++ {
		if payload[i] == '+' || payload[i] == '-' {
			v, err := ParseValue(payload[start:i])
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			start = i
		}
	}

	v, err := ParseValue(payload[start:])
	if err != nil {
		return nil, err
	}

	return append(values, v), nil
}
