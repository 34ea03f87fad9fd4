package crc16

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum_CheckValue(t *testing.T) {
	// CRC-16/ARC check value.
	assert.Equal(t, uint16(0xBB3D), Checksum([]byte("123456789")))
}

func TestChecksum_Empty(t *testing.T) {
	assert.Equal(t, uint16(0), Checksum(nil))
	assert.Equal(t, uint16(0), Checksum([]byte{}))
}

func TestUpdate_MatchesChecksum(t *testing.T) {
	data := []byte("0+3.14+2.718+1.414")

	crc := Update(0, data[:7])
	crc = Update(crc, data[7:])
	assert.Equal(t, Checksum(data), crc)
}

func TestEncodeASCII_KnownVectors(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{"0+3.14", "OqZ"},
		{"0+3.14+2.718+1.414", "Ipz"},
		{"0+1.11+2.22+3.33+4.44+5.55+6.66", "I]q"},
		{"0+7.77+8.88+9.99", "IvW"},
		{"0+3.14+2.718", "IWO"},
		{"0+2.718", "Gbc"},
		{"0+1.414", "GtW"},
		{"1+1.23+2.34+345+4.4678", "KoO"},
	}

	for _, tt := range tests {
		enc := EncodeASCII(Checksum([]byte(tt.payload)))
		assert.Equal(t, tt.want, string(enc[:]), "payload %q", tt.payload)
	}
}

func TestDecodeASCII_RoundTrip(t *testing.T) {
	for _, crc := range []uint16{0, 1, 0xBB3D, 0x7FFF, 0xFFFF, 0xC0C1} {
		enc := EncodeASCII(crc)
		assert.Equal(t, crc, DecodeASCII(enc), "crc 0x%04X", crc)

		for _, c := range enc {
			assert.True(t, IsASCIIEncoded(c), "encoded byte 0x%02X", c)
		}
	}
}

func TestIsASCIIEncoded(t *testing.T) {
	assert.True(t, IsASCIIEncoded('@'))
	assert.True(t, IsASCIIEncoded('O'))
	assert.True(t, IsASCIIEncoded(0x7F))
	assert.False(t, IsASCIIEncoded('+'))
	assert.False(t, IsASCIIEncoded('3'))
	assert.False(t, IsASCIIEncoded(0x80))
	assert.False(t, IsASCIIEncoded('\r'))
}

func TestEncodeBinary_LittleEndian(t *testing.T) {
	enc := EncodeBinary(0xACC2)
	assert.Equal(t, [2]byte{0xC2, 0xAC}, enc)
	assert.Equal(t, uint16(0xACC2), DecodeBinary(enc))
}

func TestAppendASCII(t *testing.T) {
	buf := AppendASCII([]byte("0+3.14"), Checksum([]byte("0+3.14")))
	assert.Equal(t, "0+3.14OqZ", string(buf))
}

func TestAppendBinary(t *testing.T) {
	buf := AppendBinary([]byte{0x31}, 0xACC2)
	assert.Equal(t, []byte{0x31, 0xC2, 0xAC}, buf)
}

func TestVerifyASCII(t *testing.T) {
	require.NoError(t, VerifyASCII([]byte("0+3.14OqZ")))
	require.NoError(t, VerifyASCII([]byte("0+3.14+2.718+1.414Ipz")))

	err := VerifyASCII([]byte("0+3.14OqY"))
	require.Error(t, err)

	var crcErr *CRCError
	require.ErrorAs(t, err, &crcErr)
	assert.Equal(t, Checksum([]byte("0+3.14")), crcErr.Got)

	assert.ErrorIs(t, VerifyASCII([]byte("ab")), ErrShortBuffer)
}

func TestVerifyBinary(t *testing.T) {
	// Header + i16 payload of a high-volume binary packet.
	payload := []byte{0x31, 0x04, 0x00, 0x03, 0xFF, 0xFF, 0x01, 0x00}
	packet := AppendBinary(payload, Checksum(payload))
	assert.Equal(t, []byte{0xC2, 0xAC}, packet[len(packet)-2:])

	require.NoError(t, VerifyBinary(packet))

	packet[3] ^= 0x01
	var crcErr *CRCError
	require.ErrorAs(t, VerifyBinary(packet), &crcErr)

	assert.ErrorIs(t, VerifyBinary([]byte{0x01}), ErrShortBuffer)
}

func TestVerifyBinary_EmptyPacket(t *testing.T) {
	// Empty packet: address, zero size, invalid type, CRC over the header.
	payload := []byte{0x31, 0x00, 0x00, 0x00}
	packet := AppendBinary(payload, Checksum(payload))
	assert.Equal(t, []byte{0x0E, 0xFC}, packet[len(packet)-2:])
	require.NoError(t, VerifyBinary(packet))
}
