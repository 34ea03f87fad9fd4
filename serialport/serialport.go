// Package serialport adapts a real serial device to the recorder.Port
// interface using go.bug.st/serial. It handles the SDI-12 line settings:
// 1200 baud, 7E1 framing for ASCII exchanges, 8N1 for binary packets, and
// the break signal used to wake sensors.
package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/arloliu/go-sdi12/recorder"
	"github.com/arloliu/go-sdi12/sdi12"
)

// readPollTimeout bounds a single Read call so ReadByte stays close to
// non-blocking; the recorder owns the real protocol deadlines.
const readPollTimeout = time.Millisecond

var _ recorder.Port = (*Port)(nil)

// Port drives an SDI-12 bus attached to a serial device.
// It implements recorder.Port.
type Port struct {
	port    serial.Port
	device  string
	framing sdi12.FrameFormat
	one     [1]byte
}

// Open opens the serial device and configures it for SDI-12 ASCII framing.
func Open(device string) (*Port, error) {
	port, err := serial.Open(device, modeFor(sdi12.Frame7E1))
	if err != nil {
		return nil, fmt.Errorf("sdi12: open %s: %w", device, err)
	}
	if err := port.SetReadTimeout(readPollTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("sdi12: set read timeout on %s: %w", device, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("sdi12: reset input buffer on %s: %w", device, err)
	}

	return &Port{port: port, device: device, framing: sdi12.Frame7E1}, nil
}

// Close closes the underlying serial device.
func (p *Port) Close() error {
	return p.port.Close()
}

// Device returns the device path the port was opened with.
func (p *Port) Device() string { return p.device }

// ReadByte returns the next received byte, or recorder.ErrWouldBlock when
// none arrived within the poll timeout.
func (p *Port) ReadByte() (byte, error) {
	n, err := p.port.Read(p.one[:])
	if err != nil {
		return 0, fmt.Errorf("sdi12: read %s: %w", p.device, err)
	}
	if n == 0 {
		return 0, recorder.ErrWouldBlock
	}

	return p.one[0], nil
}

// WriteByte queues one byte for transmission.
func (p *Port) WriteByte(b byte) error {
	if _, err := p.port.Write([]byte{b}); err != nil {
		return fmt.Errorf("sdi12: write %s: %w", p.device, err)
	}

	return nil
}

// Flush blocks until all queued bytes have left the wire.
func (p *Port) Flush() error {
	if err := p.port.Drain(); err != nil {
		return fmt.Errorf("sdi12: drain %s: %w", p.device, err)
	}

	return nil
}

// SendBreak holds the line in the spacing state for the given duration.
func (p *Port) SendBreak(d time.Duration) error {
	if err := p.port.Break(d); err != nil {
		return fmt.Errorf("sdi12: break %s: %w", p.device, err)
	}

	return nil
}

// SetFraming switches the UART between 7E1 and 8N1. Redundant switches are
// skipped; reprogramming the UART between every command would cost more
// than a bus character.
func (p *Port) SetFraming(f sdi12.FrameFormat) error {
	if f == p.framing {
		return nil
	}
	if err := p.port.SetMode(modeFor(f)); err != nil {
		return fmt.Errorf("sdi12: set mode %s: %w", p.device, err)
	}
	p.framing = f

	return nil
}

// Now reports the current time.
func (p *Port) Now() time.Time { return time.Now() }

// Delay pauses for the given duration.
func (p *Port) Delay(d time.Duration) { time.Sleep(d) }

func modeFor(f sdi12.FrameFormat) *serial.Mode {
	mode := &serial.Mode{
		BaudRate: sdi12.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if f == sdi12.Frame7E1 {
		mode.DataBits = 7
		mode.Parity = serial.EvenParity
	}

	return mode
}
