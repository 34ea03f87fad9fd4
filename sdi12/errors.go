package sdi12

import "errors"

var (
	// ErrInvalidAddress indicates that a byte is not a valid SDI-12 address.
	// Valid addresses are '0'-'9', 'a'-'z' and 'A'-'Z'.
	ErrInvalidAddress = errors.New("invalid address character")

	// ErrMeasurementIndexRange indicates an out-of-range additional
	// measurement index. Valid indices are 1-9, or MeasurementBase.
	ErrMeasurementIndexRange = errors.New("measurement index out of range, should be in range of [1, 9]")

	// ErrContinuousIndexRange indicates an out-of-range continuous
	// measurement index. Valid indices are 0-9.
	ErrContinuousIndexRange = errors.New("continuous index out of range, should be in range of [0, 9]")

	// ErrDataIndexRange indicates an out-of-range data request index.
	// Valid indices are 0-999.
	ErrDataIndexRange = errors.New("data index out of range, should be in range of [0, 999]")

	// ErrParameterIndexRange indicates an out-of-range identify-parameter
	// index. Valid indices are 1-999.
	ErrParameterIndexRange = errors.New("parameter index out of range, should be in range of [1, 999]")
)

var (
	// ErrBufferTooSmall indicates that the destination buffer cannot hold
	// the encoded command.
	ErrBufferTooSmall = errors.New("command buffer too small")

	// ErrInvalidCommand indicates a malformed command byte sequence.
	ErrInvalidCommand = errors.New("invalid command format")
)

var (
	// ErrMissingTerminator indicates a response line without the trailing <CR><LF>.
	ErrMissingTerminator = errors.New("response missing <CR><LF> terminator")

	// ErrResponseTooShort indicates a response line shorter than a bare address.
	ErrResponseTooShort = errors.New("response too short")

	// ErrInvalidResponse indicates a response body that matches no known format.
	ErrInvalidResponse = errors.New("invalid response format")

	// ErrUnexpectedAddress indicates a response from an address other than
	// the one the command was sent to.
	ErrUnexpectedAddress = errors.New("response from unexpected address")

	// ErrInvalidValue indicates a malformed data value token.
	ErrInvalidValue = errors.New("invalid data value")

	// ErrInvalidIdentification indicates a malformed identification body.
	ErrInvalidIdentification = errors.New("invalid identification format")

	// ErrInvalidBinaryType indicates an unknown binary packet data type byte.
	ErrInvalidBinaryType = errors.New("invalid binary data type")

	// ErrInconsistentPacketSize indicates a binary packet whose declared
	// payload size disagrees with the received bytes, exceeds the allowed
	// maximum, or is not a multiple of the element size.
	ErrInconsistentPacketSize = errors.New("inconsistent binary packet size")
)
