package recorder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-sdi12/crc16"
	"github.com/arloliu/go-sdi12/sdi12"
)

const (
	// pollInterval is the pause between polls of a would-block port operation.
	pollInterval = 100 * time.Microsecond

	// Margins added on top of the protocol windows to absorb scheduling and
	// UART latency.
	writeMargin     = 20 * time.Millisecond
	flushTimeout    = 10 * time.Millisecond
	firstByteMargin = 50 * time.Millisecond
	interCharMargin = 5 * time.Millisecond

	// maxResponseChars bounds the characters a sensor may still be clocking
	// out when the response window opens. It widens the first-byte deadline
	// so a slow but compliant sensor is not cut off mid-line.
	maxResponseChars = 96

	// binaryHeaderSize is address, packet size and payload type.
	binaryHeaderSize = 4
)

// poll runs op until it succeeds, fails with a non-blocking error, or the
// deadline passes. Port time drives the deadline so tests can fake it.
func (r *Recorder) poll(deadline time.Time, op func() error) error {
	for {
		err := op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return err
		}
		if !r.port.Now().Before(deadline) {
			return ErrTimeout
		}
		r.port.Delay(pollInterval)
	}
}

func (r *Recorder) pollReadByte(deadline time.Time) (byte, error) {
	var b byte
	err := r.poll(deadline, func() error {
		var rerr error
		b, rerr = r.port.ReadByte()

		return rerr
	})

	return b, err
}

// wakeBus sends a break when the line has been idle long enough that sensors
// may have returned to their low-power state. Sensors hold off sleep for
// PreCommandBreakThreshold after the last marking, so recent activity lets
// the command go out without a break.
func (r *Recorder) wakeBus() error {
	now := r.port.Now()
	if !r.lastActivity.IsZero() && now.Sub(r.lastActivity) <= sdi12.PreCommandBreakThreshold {
		return nil
	}

	if err := r.port.SendBreak(sdi12.BreakDurationMin); err != nil {
		return fmt.Errorf("sdi12: send break: %w", err)
	}
	r.metrics.incBreakSendCount()

	// Sensors need marking after the break before the first command byte.
	r.port.Delay(sdi12.PostBreakMarking)
	r.lastActivity = r.port.Now()

	return nil
}

// sendCommand encodes cmd and clocks it out in 7E1 framing. The write
// deadline covers the whole command at bus speed plus a scheduling margin.
func (r *Recorder) sendCommand(cmd sdi12.Command) error {
	if err := r.port.SetFraming(sdi12.Frame7E1); err != nil {
		return fmt.Errorf("sdi12: set framing: %w", err)
	}

	wire, err := cmd.AppendWire(r.txBuf[:0])
	if err != nil {
		return err
	}
	r.txBuf = wire

	deadline := r.port.Now().Add(sdi12.ByteDuration*time.Duration(len(wire)) + writeMargin)
	for _, b := range wire {
		if err := r.poll(deadline, func() error { return r.port.WriteByte(b) }); err != nil {
			return fmt.Errorf("sdi12: write command: %w", err)
		}
	}

	if err := r.poll(r.port.Now().Add(flushTimeout), r.port.Flush); err != nil {
		return fmt.Errorf("sdi12: flush command: %w", err)
	}
	r.metrics.incCommandSendCount()

	return nil
}

// readLine reads one <CR><LF> terminated response line into buf and returns
// its length. A timeout with bytes already buffered maps to ErrIncompleteLine
// so the caller can retry the transaction.
func (r *Recorder) readLine(buf []byte) (int, error) {
	deadline := r.port.Now().Add(sdi12.ResponseStartMax + maxResponseChars*sdi12.ByteDuration + firstByteMargin)

	return r.readLineUntil(buf, deadline)
}

// readLineUntil is readLine with an explicit first-byte deadline; once the
// line starts, the inter-character window takes over.
func (r *Recorder) readLineUntil(buf []byte, deadline time.Time) (int, error) {
	n := 0
	for {
		b, err := r.pollReadByte(deadline)
		if err != nil {
			if errors.Is(err, ErrTimeout) && n > 0 {
				return n, ErrIncompleteLine
			}

			return n, err
		}

		if n >= len(buf) {
			return n, &OverflowError{Needed: n + 1, Capacity: len(buf)}
		}
		buf[n] = b
		n++

		if b == '\n' && n >= 2 && buf[n-2] == '\r' {
			return n, nil
		}

		deadline = r.port.Now().Add(sdi12.InterCharacterMax + interCharMargin)
	}
}

// readBinary reads one binary data packet into buf in 8N1 framing and
// returns its total length. The packet size field bounds the read; framing
// is switched back to 7E1 by the next command send.
func (r *Recorder) readBinary(buf []byte) (int, error) {
	if err := r.port.SetFraming(sdi12.Frame8N1); err != nil {
		return 0, fmt.Errorf("sdi12: set framing: %w", err)
	}

	n := 0
	total := binaryHeaderSize + crc16.BinarySize
	deadline := r.port.Now().Add(sdi12.ResponseStartMax + maxResponseChars*sdi12.ByteDuration + firstByteMargin)
	for n < total {
		b, err := r.pollReadByte(deadline)
		if err != nil {
			if errors.Is(err, ErrTimeout) && n > 0 {
				return n, ErrIncompleteLine
			}

			return n, err
		}

		if n >= len(buf) {
			return n, &OverflowError{Needed: n + 1, Capacity: len(buf)}
		}
		buf[n] = b
		n++

		if n == binaryHeaderSize {
			size := int(binary.LittleEndian.Uint16(buf[1:3]))
			if size > sdi12.MaxBinaryPayloadSize {
				return n, fmt.Errorf("%w: packet size %d exceeds %d",
					sdi12.ErrInconsistentPacketSize, size, sdi12.MaxBinaryPayloadSize)
			}
			total = binaryHeaderSize + size + crc16.BinarySize
		}

		deadline = r.port.Now().Add(sdi12.InterCharacterMax + interCharMargin)
	}

	return n, nil
}
