package sdi12

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-sdi12/crc16"
)

func TestDecode_Acknowledge(t *testing.T) {
	resp, err := Decode([]byte("0\r\n"))
	require.NoError(t, err)
	ack, ok := resp.(*Acknowledge)
	require.True(t, ok)
	assert.Equal(t, Address('0'), ack.Address())

	resp, err = Decode([]byte("9\r\n"))
	require.NoError(t, err)
	assert.IsType(t, &Acknowledge{}, resp)

	// A one-byte line from an extended address is still a bare
	// acknowledge; only a two-byte body confirms an address change.
	resp, err = Decode([]byte("b\r\n"))
	require.NoError(t, err)
	assert.IsType(t, &Acknowledge{}, resp)
	assert.Equal(t, Address('b'), resp.Address())
}

func TestDecode_AddressConfirmation(t *testing.T) {
	resp, err := Decode([]byte("0b\r\n"))
	require.NoError(t, err)
	conf, ok := resp.(*AddressConfirmation)
	require.True(t, ok)
	assert.Equal(t, Address('b'), conf.Address())

	resp, err = Decode([]byte("01\r\n"))
	require.NoError(t, err)
	assert.Equal(t, Address('1'), resp.(*AddressConfirmation).Address())

	_, err = Decode([]byte("0?\r\n"))
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestDecode_Aborted(t *testing.T) {
	resp, err := Decode([]byte("0LCA\r\n"))
	require.NoError(t, err)
	ab, ok := resp.(*Aborted)
	require.True(t, ok)
	assert.Equal(t, Address('0'), ab.Address())
	assert.Equal(t, uint16(0xC0C1), ab.CRC)
}

func TestDecode_MeasurementTiming(t *testing.T) {
	resp, err := Decode([]byte("00101\r\n"))
	require.NoError(t, err)
	timing, ok := resp.(*MeasurementTiming)
	require.True(t, ok)
	assert.Equal(t, Address('0'), timing.Address())
	assert.Equal(t, uint16(10), timing.Seconds)
	assert.Equal(t, uint16(1), timing.Count)

	resp, err = Decode([]byte("004512\r\n"))
	require.NoError(t, err)
	timing = resp.(*MeasurementTiming)
	assert.Equal(t, uint16(45), timing.Seconds)
	assert.Equal(t, uint16(12), timing.Count)

	// High-volume starts answer with a 3-digit count and a CRC.
	line := crc16.AppendASCII([]byte("0045123"), crc16.Checksum([]byte("0045123")))
	resp, err = Decode(append(line, "\r\n"...))
	require.NoError(t, err)
	timing = resp.(*MeasurementTiming)
	assert.Equal(t, uint16(45), timing.Seconds)
	assert.Equal(t, uint16(123), timing.Count)

	// 3 digits is too short for a timing body.
	_, err = Decode([]byte("0010\r\n"))
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestDecode_DataValues(t *testing.T) {
	resp, err := Decode([]byte("0+3.14OqZ\r\n"))
	require.NoError(t, err)
	data, ok := resp.(*DataValues)
	require.True(t, ok)
	assert.Equal(t, Address('0'), data.Address())
	require.Len(t, data.Values, 1)
	assert.InDelta(t, 3.14, data.Values[0], 1e-9)
	assert.True(t, data.HasCRC)
	assert.Equal(t, crc16.Checksum([]byte("0+3.14")), data.CRC)

	resp, err = Decode([]byte("0+3.14+2.718+1.414Ipz\r\n"))
	require.NoError(t, err)
	data = resp.(*DataValues)
	assert.Len(t, data.Values, 3)
	assert.True(t, data.HasCRC)

	resp, err = Decode([]byte("1+12.3-45\r\n"))
	require.NoError(t, err)
	data = resp.(*DataValues)
	assert.Equal(t, Address('1'), data.Address())
	require.Len(t, data.Values, 2)
	assert.InDelta(t, 12.3, data.Values[0], 1e-9)
	assert.InDelta(t, -45, data.Values[1], 1e-9)
	assert.False(t, data.HasCRC)
}

func TestDecode_CRCMismatch(t *testing.T) {
	var crcErr *crc16.CRCError

	_, err := Decode([]byte("0+3.14OqY\r\n"))
	require.ErrorAs(t, err, &crcErr)

	_, err = Decode([]byte("0+12.3XXX\r\n"))
	require.ErrorAs(t, err, &crcErr)
}

func TestDecode_Identification(t *testing.T) {
	resp, err := Decode([]byte("114VENDOR__MODEL_123SER0042\r\n"))
	require.NoError(t, err)
	ident, ok := resp.(*Identification)
	require.True(t, ok)
	assert.Equal(t, Address('1'), ident.Address())
	assert.Equal(t, uint8(14), ident.Version)
	assert.Equal(t, "VENDOR__", ident.Vendor)
	assert.Equal(t, "MODEL_", ident.Model)
	assert.Equal(t, "123", ident.Revision)
	assert.Equal(t, "SER0042", ident.Optional)

	// Without the optional trailer.
	resp, err = Decode([]byte("013METEOCO_RAIN01001\r\n"))
	require.NoError(t, err)
	ident = resp.(*Identification)
	assert.Equal(t, uint8(13), ident.Version)
	assert.Equal(t, "METEOCO_", ident.Vendor)
	assert.Equal(t, "RAIN01", ident.Model)
	assert.Equal(t, "001", ident.Revision)
	assert.Equal(t, "", ident.Optional)
}

func TestDecode_Metadata(t *testing.T) {
	resp, err := Decode([]byte("0,PR,mm,precipitation rate per day;\r\n"))
	require.NoError(t, err)
	meta, ok := resp.(*Metadata)
	require.True(t, ok)
	assert.Equal(t, Address('0'), meta.Address())
	assert.Equal(t, []string{"PR", "mm", "precipitation rate per day"}, meta.Fields)
	assert.False(t, meta.HasCRC)

	payload := []byte("0,TA,degC;")
	line := crc16.AppendASCII(payload, crc16.Checksum(payload))
	resp, err = Decode(append(line, "\r\n"...))
	require.NoError(t, err)
	meta = resp.(*Metadata)
	assert.Equal(t, []string{"TA", "degC"}, meta.Fields)
	assert.True(t, meta.HasCRC)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrMissingTerminator)

	_, err = Decode([]byte("0"))
	assert.ErrorIs(t, err, ErrMissingTerminator)

	_, err = Decode([]byte("\r\n"))
	assert.ErrorIs(t, err, ErrResponseTooShort)

	_, err = Decode([]byte("?\r\n"))
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = Decode([]byte("$+1.2\r\n"))
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = Decode([]byte("01.23\r\n"))
	assert.ErrorIs(t, err, ErrInvalidResponse)

	// A comma-prefixed body without the ';' terminator. The digit tail
	// keeps the CRC heuristic out of the way.
	_, err = Decode([]byte("0,PR,12\r\n"))
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = Decode([]byte("0+1.2a3\r\n"))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func binPacket(t *testing.T, payload []byte) []byte {
	t.Helper()
	return crc16.AppendBinary(payload, crc16.Checksum(payload))
}

func TestDecodeBinaryPacket(t *testing.T) {
	packet := []byte{0x31, 0x04, 0x00, 0x03, 0xFF, 0xFF, 0x01, 0x00, 0xC2, 0xAC}

	bp, err := DecodeBinaryPacket(packet)
	require.NoError(t, err)
	assert.Equal(t, Address('1'), bp.Address())
	assert.Equal(t, uint16(4), bp.Size)
	assert.Equal(t, BinaryInt16, bp.Type)
	assert.Equal(t, []byte{0xFF, 0xFF, 0x01, 0x00}, bp.Payload)
	assert.Equal(t, uint16(0xACC2), bp.CRC)
	assert.Equal(t, 2, bp.Count())
	assert.False(t, bp.Empty())
}

func TestDecodeBinaryPacket_Empty(t *testing.T) {
	bp, err := DecodeBinaryPacket(binPacket(t, []byte{0x31, 0x00, 0x00, 0x00}))
	require.NoError(t, err)
	assert.True(t, bp.Empty())
	assert.Equal(t, 0, bp.Count())
	assert.Equal(t, BinaryInvalid, bp.Type)
}

func TestDecodeBinaryPacket_Errors(t *testing.T) {
	_, err := DecodeBinaryPacket([]byte("12345"))
	assert.ErrorIs(t, err, ErrResponseTooShort)

	// Flipping any payload bit must fail the CRC check.
	packet := []byte{0x31, 0x04, 0x00, 0x03, 0xFF, 0xFF, 0x01, 0x00, 0xC2, 0xAC}
	for i := 4; i < 8; i++ {
		corrupted := make([]byte, len(packet))
		copy(corrupted, packet)
		corrupted[i] ^= 0x01

		_, err = DecodeBinaryPacket(corrupted)

		var crcErr *crc16.CRCError
		assert.ErrorAs(t, err, &crcErr, "byte %d", i)
	}

	// Declared size disagrees with the payload length.
	_, err = DecodeBinaryPacket(binPacket(t, []byte{0x31, 0x05, 0x00, 0x03, 0xFF, 0xFF, 0x01, 0x00}))
	assert.ErrorIs(t, err, ErrInconsistentPacketSize)

	// 5 payload bytes cannot hold i16 elements.
	_, err = DecodeBinaryPacket(binPacket(t, []byte{0x31, 0x05, 0x00, 0x03, 0xFF, 0xFF, 0x01, 0x00, 0xAA}))
	assert.ErrorIs(t, err, ErrInconsistentPacketSize)

	// Unknown type byte.
	_, err = DecodeBinaryPacket(binPacket(t, []byte{0x31, 0x01, 0x00, 0x0B, 0xAA}))
	assert.ErrorIs(t, err, ErrInvalidBinaryType)

	// Query address is never a valid responder.
	_, err = DecodeBinaryPacket(binPacket(t, []byte{'?', 0x00, 0x00, 0x00}))
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestBinaryPacketDecodeValues(t *testing.T) {
	t.Run("int16", func(t *testing.T) {
		bp := &BinaryPacket{
			Addr:    '1',
			Size:    4,
			Type:    BinaryInt16,
			Payload: []byte{0xFF, 0xFF, 0x01, 0x00},
		}

		values, err := bp.DecodeValues()
		require.NoError(t, err)
		assert.Equal(t, []float64{-1, 1}, values)
	})

	t.Run("float32", func(t *testing.T) {
		payload := binary.LittleEndian.AppendUint32(nil, math.Float32bits(1.5))
		payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(-0.25))
		bp := &BinaryPacket{
			Addr:    '0',
			Size:    uint16(len(payload)),
			Type:    BinaryFloat32,
			Payload: payload,
		}

		values, err := bp.DecodeValues()
		require.NoError(t, err)
		assert.Equal(t, []float64{1.5, -0.25}, values)
	})

	t.Run("float64", func(t *testing.T) {
		payload := binary.LittleEndian.AppendUint64(nil, math.Float64bits(3.14))
		bp := &BinaryPacket{
			Addr:    '0',
			Size:    uint16(len(payload)),
			Type:    BinaryFloat64,
			Payload: payload,
		}

		values, err := bp.DecodeValues()
		require.NoError(t, err)
		assert.Equal(t, []float64{3.14}, values)
	})

	t.Run("empty", func(t *testing.T) {
		bp := &BinaryPacket{Addr: '0'}

		values, err := bp.DecodeValues()
		require.NoError(t, err)
		assert.Nil(t, values)
	})

	t.Run("invalid type", func(t *testing.T) {
		bp := &BinaryPacket{Addr: '0', Size: 2, Type: BinaryInvalid, Payload: []byte{0x00, 0x01}}

		_, err := bp.DecodeValues()
		assert.ErrorIs(t, err, ErrInvalidBinaryType)
	})
}

func TestValidate(t *testing.T) {
	start, end, err := Validate([]byte("0\r\n"), '0', false)
	require.NoError(t, err)
	assert.Equal(t, 1, start)
	assert.Equal(t, 1, end)

	line := []byte("1+12.3-45\r\n")
	start, end, err = Validate(line, '1', false)
	require.NoError(t, err)
	assert.Equal(t, "+12.3-45", string(line[start:end]))

	line = []byte("0+3.14OqZ\r\n")
	start, end, err = Validate(line, '0', true)
	require.NoError(t, err)
	assert.Equal(t, "+3.14", string(line[start:end]))

	// Any address is accepted for the address query.
	start, end, err = Validate([]byte("5\r\n"), QueryAddress, false)
	require.NoError(t, err)
	assert.Equal(t, start, end)
}

func TestValidate_Errors(t *testing.T) {
	_, _, err := Validate([]byte("0"), '0', false)
	assert.ErrorIs(t, err, ErrMissingTerminator)

	_, _, err = Validate([]byte("\r\n"), '0', false)
	assert.ErrorIs(t, err, ErrResponseTooShort)

	_, _, err = Validate([]byte("1+12.3\r\n"), '0', false)
	assert.ErrorIs(t, err, ErrUnexpectedAddress)

	var crcErr *crc16.CRCError
	_, _, err = Validate([]byte("0+3.14OqX\r\n"), '0', true)
	assert.ErrorAs(t, err, &crcErr)

	_, _, err = Validate([]byte("0\r\n"), '0', true)
	assert.ErrorIs(t, err, ErrResponseTooShort)
}
