package sdi12

// BinaryType identifies the element type of a high-volume binary packet
// payload (SDI-12 specification v1.4 §5.2.1, Table 16).
type BinaryType byte

const (
	// BinaryInvalid marks a DBn request the sensor cannot satisfy.
	BinaryInvalid BinaryType = 0
	// BinaryInt8 is a signed 8-bit integer.
	BinaryInt8 BinaryType = 1
	// BinaryUint8 is an unsigned 8-bit integer.
	BinaryUint8 BinaryType = 2
	// BinaryInt16 is a signed 16-bit little-endian integer.
	BinaryInt16 BinaryType = 3
	// BinaryUint16 is an unsigned 16-bit little-endian integer.
	BinaryUint16 BinaryType = 4
	// BinaryInt32 is a signed 32-bit little-endian integer.
	BinaryInt32 BinaryType = 5
	// BinaryUint32 is an unsigned 32-bit little-endian integer.
	BinaryUint32 BinaryType = 6
	// BinaryInt64 is a signed 64-bit little-endian integer.
	BinaryInt64 BinaryType = 7
	// BinaryUint64 is an unsigned 64-bit little-endian integer.
	BinaryUint64 BinaryType = 8
	// BinaryFloat32 is an IEEE 754 single-precision float.
	BinaryFloat32 BinaryType = 9
	// BinaryFloat64 is an IEEE 754 double-precision float.
	BinaryFloat64 BinaryType = 10
)

// MaxBinaryPayloadSize is the maximum payload size of a single
// high-volume binary packet.
const MaxBinaryPayloadSize = 1000

var binaryTypeSizes = [...]int{0, 1, 1, 2, 2, 4, 4, 8, 8, 4, 8}

// Valid reports whether t is a known type byte.
func (t BinaryType) Valid() bool { return int(t) < len(binaryTypeSizes) }

// Size returns the element size in bytes, or 0 for BinaryInvalid.
func (t BinaryType) Size() int {
	if !t.Valid() {
		return 0
	}

	return binaryTypeSizes[t]
}

func (t BinaryType) String() string {
	switch t {
	case BinaryInvalid:
		return "invalid"
	case BinaryInt8:
		return "i8"
	case BinaryUint8:
		return "u8"
	case BinaryInt16:
		return "i16"
	case BinaryUint16:
		return "u16"
	case BinaryInt32:
		return "i32"
	case BinaryUint32:
		return "u32"
	case BinaryInt64:
		return "i64"
	case BinaryUint64:
		return "u64"
	case BinaryFloat32:
		return "f32"
	case BinaryFloat64:
		return "f64"
	default:
		return "unknown"
	}
}
