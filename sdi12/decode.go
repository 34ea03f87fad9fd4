package sdi12

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/go-sdi12/crc16"
)

const (
	identVersionLen  = 2
	identVendorLen   = 8
	identModelLen    = 6
	identRevisionLen = 3
	identOptionalMax = 13
	identMinLen      = identVersionLen + identVendorLen + identModelLen + identRevisionLen
)

// Decode classifies a complete response line, including the trailing
// <CR><LF>, into one of the Response variants.
//
// If the last 3 bytes before the terminator all have the bit pattern of
// an ASCII CRC character, they are decoded and verified against the
// preceding bytes; a pattern match with a checksum mismatch is a hard
// error, not a "no CRC present" fallback. The one exception is the
// aborted-measurement form a<CRC><CR><LF>, where the CRC has no payload
// to cover and is recorded as received.
func Decode(line []byte) (Response, error) {
	body, ok := trimCRLF(line)
	if !ok {
		return nil, ErrMissingTerminator
	}
	if len(body) == 0 {
		return nil, ErrResponseTooShort
	}

	if body[0] == byte(QueryAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, body[0])
	}
	addr, err := NewAddress(body[0])
	if err != nil {
		return nil, err
	}

	// a<CRC><CR><LF> signals an aborted measurement. The CRC covers no
	// payload so it is recorded without verification.
	if len(body) == 1+crc16.ASCIISize && isCRCTail(body[1:]) {
		var enc [crc16.ASCIISize]byte
		copy(enc[:], body[1:])

		return &Aborted{Addr: addr, CRC: crc16.DecodeASCII(enc)}, nil
	}

	hasCRC := false
	var crcVal uint16
	if len(body) > 1+crc16.ASCIISize && isCRCTail(body[len(body)-crc16.ASCIISize:]) {
		if err := crc16.VerifyASCII(body); err != nil {
			return nil, err
		}
		var enc [crc16.ASCIISize]byte
		copy(enc[:], body[len(body)-crc16.ASCIISize:])
		crcVal = crc16.DecodeASCII(enc)
		hasCRC = true
		body = body[:len(body)-crc16.ASCIISize]
	}

	rest := body[1:]

	switch {
	case len(rest) == 0:
		return &Acknowledge{Addr: addr}, nil

	case len(rest) == 1 && !hasCRC:
		newAddr, err := NewAddress(rest[0])
		if err != nil || newAddr.IsQuery() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, rest[0])
		}

		return &AddressConfirmation{Addr: newAddr}, nil

	case len(rest) >= 4 && len(rest) <= 6 && allDigits(string(rest)):
		secs, _ := strconv.Atoi(string(rest[:3]))
		count, _ := strconv.Atoi(string(rest[3:]))

		return &MeasurementTiming{
			Addr:    addr,
			Seconds: uint16(secs),  //nolint:gosec // 3 digits
			Count:   uint16(count), //nolint:gosec // 3 digits
		}, nil

	case len(rest) >= identMinLen && allDigits(string(rest[:identVersionLen])):
		return decodeIdentification(addr, rest)

	case rest[0] == ',' && rest[len(rest)-1] == ';':
		fields := strings.Split(string(rest[1:len(rest)-1]), ",")

		return &Metadata{Addr: addr, Fields: fields, CRC: crcVal, HasCRC: hasCRC}, nil

	case rest[0] == '+' || rest[0] == '-':
		values, err := ParseValues(rest)
		if err != nil {
			return nil, err
		}

		return &DataValues{Addr: addr, Values: values, CRC: crcVal, HasCRC: hasCRC}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidResponse, body)
}

func decodeIdentification(addr Address, rest []byte) (Response, error) {
	version, err := strconv.Atoi(string(rest[:identVersionLen]))
	if err != nil {
		return nil, fmt.Errorf("%w: bad version field", ErrInvalidIdentification)
	}

	vendorEnd := identVersionLen + identVendorLen
	modelEnd := vendorEnd + identModelLen
	revEnd := modelEnd + identRevisionLen

	optional := ""
	if len(rest) > revEnd {
		end := min(len(rest), revEnd+identOptionalMax)
		optional = string(rest[revEnd:end])
	}

	return &Identification{
		Addr:     addr,
		Version:  uint8(version), //nolint:gosec // 2 digits
		Vendor:   string(rest[identVersionLen:vendorEnd]),
		Model:    string(rest[vendorEnd:modelEnd]),
		Revision: string(rest[modelEnd:revEnd]),
		Optional: optional,
	}, nil
}

// DecodeBinaryPacket decodes a complete high-volume binary packet:
// address byte, 2-byte little-endian payload size, type byte, payload,
// 2-byte little-endian CRC. The CRC covers everything before it.
func DecodeBinaryPacket(buf []byte) (*BinaryPacket, error) {
	const headerSize = 4 // address + size + type

	if len(buf) < headerSize+crc16.BinarySize {
		return nil, ErrResponseTooShort
	}
	if err := crc16.VerifyBinary(buf); err != nil {
		return nil, err
	}

	if buf[0] == byte(QueryAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, buf[0])
	}
	addr, err := NewAddress(buf[0])
	if err != nil {
		return nil, err
	}

	size := binary.LittleEndian.Uint16(buf[1:3])
	typ := BinaryType(buf[3])
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: 0x%02X", ErrInvalidBinaryType, buf[3])
	}

	payloadLen := len(buf) - headerSize - crc16.BinarySize
	if int(size) != payloadLen || size > MaxBinaryPayloadSize {
		return nil, fmt.Errorf("%w: declared %d, received %d", ErrInconsistentPacketSize, size, payloadLen)
	}
	if elem := typ.Size(); size > 0 && elem > 0 && int(size)%elem != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %s element size", ErrInconsistentPacketSize, size, typ)
	}

	payload := make([]byte, payloadLen)
	copy(payload, buf[headerSize:headerSize+payloadLen])

	var enc [crc16.BinarySize]byte
	copy(enc[:], buf[len(buf)-crc16.BinarySize:])

	return &BinaryPacket{
		Addr:    addr,
		Size:    size,
		Type:    typ,
		Payload: payload,
		CRC:     crc16.DecodeBinary(enc),
	}, nil
}

// Validate runs the framing, address and CRC checks of a raw response
// line without classifying it, and returns the bounds of the payload
// between the address byte and the CRC (if crcExpected) within line.
// Passing QueryAddress as expected accepts any responding address.
//
// This is the validation subset the transaction engine applies before
// handing payload bounds back to the caller.
func Validate(line []byte, expected Address, crcExpected bool) (start, end int, err error) {
	body, ok := trimCRLF(line)
	if !ok {
		return 0, 0, ErrMissingTerminator
	}
	if len(body) == 0 {
		return 0, 0, ErrResponseTooShort
	}

	if body[0] == byte(QueryAddress) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAddress, body[0])
	}
	addr, err := NewAddress(body[0])
	if err != nil {
		return 0, 0, err
	}
	if expected != QueryAddress && addr != expected {
		return 0, 0, fmt.Errorf("%w: got %q, want %q", ErrUnexpectedAddress, byte(addr), byte(expected))
	}

	start = 1
	end = len(body)

	if crcExpected {
		if len(body) < start+crc16.ASCIISize {
			return 0, 0, ErrResponseTooShort
		}
		if err := crc16.VerifyASCII(body); err != nil {
			return 0, 0, err
		}
		end -= crc16.ASCIISize
	}

	return start, end, nil
}

func trimCRLF(line []byte) ([]byte, bool) {
	if len(line) < 2 || line[len(line)-2] != '\r' || line[len(line)-1] != '\n' {
		return nil, false
	}

	return line[:len(line)-2], true
}

func isCRCTail(tail []byte) bool {
	for _, c := range tail {
		if !crc16.IsASCIIEncoded(c) {
			return false
		}
	}

	return true
}
