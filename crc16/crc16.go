// Package crc16 implements the CRC-16/ARC checksum used by the SDI-12
// protocol (SDI-12 specification v1.4 §4.4.12), along with the two wire
// encodings SDI-12 defines for it: a 3-character printable ASCII form
// appended to text responses, and a 2-byte little-endian form appended
// to high-volume binary packets.
package crc16

import "fmt"

// Size constants for the two wire encodings.
const (
	// ASCIISize is the number of bytes of the printable ASCII CRC encoding.
	ASCIISize = 3

	// BinarySize is the number of bytes of the little-endian binary CRC encoding.
	BinarySize = 2
)

// poly is the reflected CRC-16/ARC polynomial (0x8005 bit-reversed).
const poly uint16 = 0xA001

// crcTable holds the byte-at-a-time lookup table for the reflected polynomial.
var crcTable [256]uint16

func init() {
	for i := range crcTable {
		crc := uint16(i) //nolint:gosec // i is in [0, 255]
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		crcTable[i] = crc
	}
}

// Checksum computes the CRC-16/ARC of data: reflected polynomial 0xA001,
// initial value 0, no final XOR. Checksum([]byte("123456789")) is 0xBB3D.
func Checksum(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = (crc >> 8) ^ crcTable[byte(crc)^b]
	}

	return crc
}

// Update continues a CRC computation with more data.
// Update(0, data) is equivalent to Checksum(data).
func Update(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc = (crc >> 8) ^ crcTable[byte(crc)^b]
	}

	return crc
}

// EncodeASCII encodes crc as three printable ASCII characters.
//
// The 16-bit value is split into three 6-bit groups, most significant
// first (bits 12-17 of a zero-extended 18-bit value, then bits 6-11,
// then bits 0-5), and each group is OR'd with 0x40 to land in the
// printable range '@'-0x7F.
func EncodeASCII(crc uint16) [ASCIISize]byte {
	return [ASCIISize]byte{
		0x40 | byte(crc>>12),
		0x40 | byte((crc>>6)&0x3F),
		0x40 | byte(crc&0x3F),
	}
}

// AppendASCII appends the 3-character ASCII encoding of crc to dst.
func AppendASCII(dst []byte, crc uint16) []byte {
	enc := EncodeASCII(crc)
	return append(dst, enc[:]...)
}

// DecodeASCII decodes a 3-character ASCII CRC encoding back to its 16-bit value.
// Each character contributes its low 6 bits.
func DecodeASCII(enc [ASCIISize]byte) uint16 {
	return uint16(enc[0]&0x3F)<<12 | uint16(enc[1]&0x3F)<<6 | uint16(enc[2]&0x3F)
}

// IsASCIIEncoded reports whether b has the bit pattern of an ASCII CRC
// character (0x40 OR'd with a 6-bit value).
func IsASCIIEncoded(b byte) bool {
	return b&0xC0 == 0x40
}

// EncodeBinary encodes crc as two bytes, least significant byte first.
func EncodeBinary(crc uint16) [BinarySize]byte {
	return [BinarySize]byte{byte(crc), byte(crc >> 8)}
}

// AppendBinary appends the little-endian binary encoding of crc to dst.
func AppendBinary(dst []byte, crc uint16) []byte {
	return append(dst, byte(crc), byte(crc>>8))
}

// DecodeBinary decodes a 2-byte little-endian CRC encoding.
func DecodeBinary(enc [BinarySize]byte) uint16 {
	return uint16(enc[0]) | uint16(enc[1])<<8
}

// CRCError reports a checksum mismatch between the value carried on the
// wire and the value computed over the received payload.
type CRCError struct {
	Want uint16 // CRC carried on the wire
	Got  uint16 // CRC computed over the payload
}

func (e *CRCError) Error() string {
	return fmt.Sprintf("crc16: checksum mismatch: wire=0x%04X, computed=0x%04X", e.Want, e.Got)
}

// VerifyASCII checks a buffer whose last 3 bytes are an ASCII-encoded CRC
// covering everything before them. It returns ErrShortBuffer if buf is too
// short to hold a CRC, and a *CRCError if the checksum does not match.
func VerifyASCII(buf []byte) error {
	if len(buf) < ASCIISize {
		return ErrShortBuffer
	}

	payload := buf[:len(buf)-ASCIISize]
	var enc [ASCIISize]byte
	copy(enc[:], buf[len(buf)-ASCIISize:])

	want := DecodeASCII(enc)
	got := Checksum(payload)
	if want != got {
		return &CRCError{Want: want, Got: got}
	}

	return nil
}

// VerifyBinary checks a buffer whose last 2 bytes are a little-endian CRC
// covering everything before them. It returns ErrShortBuffer if buf is too
// short to hold a CRC, and a *CRCError if the checksum does not match.
func VerifyBinary(buf []byte) error {
	if len(buf) < BinarySize {
		return ErrShortBuffer
	}

	payload := buf[:len(buf)-BinarySize]
	var enc [BinarySize]byte
	copy(enc[:], buf[len(buf)-BinarySize:])

	want := DecodeBinary(enc)
	got := Checksum(payload)
	if want != got {
		return &CRCError{Want: want, Got: got}
	}

	return nil
}
