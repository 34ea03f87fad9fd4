package recorder

import (
	"time"

	"github.com/arloliu/go-sdi12/sdi12"
)

// Port abstracts the half-duplex serial interface the recorder drives.
//
// ReadByte and WriteByte are non-blocking: when no byte is available or the
// transmitter is busy they return ErrWouldBlock. The recorder polls them
// against protocol deadlines, so a Port implementation must never block
// internally for longer than a few hundred microseconds.
//
// Now and Delay give the recorder its notion of time. Production ports
// return time.Now and time.Sleep; tests substitute a fake clock to exercise
// timeout and retry behavior deterministically.
type Port interface {
	// ReadByte returns the next received byte, or ErrWouldBlock when the
	// receive buffer is empty.
	ReadByte() (byte, error)

	// WriteByte queues one byte for transmission, or returns ErrWouldBlock
	// when the transmit path is busy.
	WriteByte(b byte) error

	// Flush blocks the transmit path until all queued bytes have left the
	// wire, returning ErrWouldBlock while transmission is still in progress.
	Flush() error

	// SendBreak holds the line in the spacing state for the given duration
	// to wake sensors. It returns after the break has completed.
	SendBreak(d time.Duration) error

	// SetFraming switches the UART between 7E1 (ASCII exchanges) and 8N1
	// (binary data packets).
	SetFraming(f sdi12.FrameFormat) error

	// Now reports the current time. It must be monotonic.
	Now() time.Time

	// Delay pauses for the given duration.
	Delay(d time.Duration)
}
