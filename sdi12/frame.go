package sdi12

// FrameFormat selects the serial character framing on the bus.
// All traffic runs at 1200 baud.
type FrameFormat int

const (
	// Frame7E1 is 7 data bits, even parity, 1 stop bit. Used for commands
	// and all ASCII responses.
	Frame7E1 FrameFormat = iota

	// Frame8N1 is 8 data bits, no parity, 1 stop bit. Used only for the
	// payload of high-volume binary packets.
	Frame8N1
)

// BaudRate is the fixed SDI-12 line rate in bits per second.
const BaudRate = 1200

func (f FrameFormat) String() string {
	switch f {
	case Frame7E1:
		return "7E1"
	case Frame8N1:
		return "8N1"
	default:
		return "unknown"
	}
}
