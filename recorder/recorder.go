// Package recorder implements the data recorder side of an SDI-12 bus
// transaction: wake the bus with a break when needed, send one command,
// read and validate one response, and retry on silence.
//
// A Recorder drives a single Port and is not safe for concurrent use; a bus
// has one master by definition, so callers serialize access at a higher
// level.
package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-sdi12/crc16"
	"github.com/arloliu/go-sdi12/logger"
	"github.com/arloliu/go-sdi12/sdi12"
)

// Recorder executes SDI-12 transactions over a Port.
type Recorder struct {
	port    Port
	cfg     config
	logger  logger.Logger
	metrics TransactionMetrics

	// lastActivity is the time of the last byte on the wire. Zero until the
	// first break. Sensors sleep after prolonged marking, so a command sent
	// too long after the last activity must be preceded by a break.
	lastActivity time.Time

	txBuf   []byte
	lineBuf []byte
	binBuf  []byte
}

// NewRecorder creates a recorder driving the given port.
//
// opts are functional options applied in order; see With* functions.
func NewRecorder(port Port, opts ...RecorderOption) (*Recorder, error) {
	if port == nil {
		return nil, errors.New("sdi12: port must not be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt.apply(&cfg); err != nil {
			return nil, err
		}
	}

	return &Recorder{
		port:    port,
		cfg:     cfg,
		logger:  cfg.logger,
		txBuf:   make([]byte, 0, sdi12.MaxCommandLen+2),
		lineBuf: make([]byte, cfg.responseBufferSize),
	}, nil
}

// Metrics returns the transaction metrics of the recorder.
func (r *Recorder) Metrics() *TransactionMetrics {
	return &r.metrics
}

// Execute runs one command/response transaction and returns the bounds of
// the response payload within buf: buf[start:end] is the response body with
// the address, CRC and <CR><LF> stripped.
//
// Silence and incomplete lines are retried up to the attempt limit with a
// pause between attempts. A CRC mismatch, a response from the wrong address
// or a malformed line fails the transaction immediately.
func (r *Recorder) Execute(cmd sdi12.Command, buf []byte) (int, int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, 0, err
	}

	expected := expectedAddress(cmd)
	crcExpected := cmd.ResponseCRC()

	var lastErr error
	for attempt := 1; attempt <= r.cfg.attemptLimit; attempt++ {
		if attempt > 1 {
			r.metrics.incRetryCount()
			r.port.Delay(r.cfg.retryWait)
		}

		n, err := r.attempt(cmd, buf)
		if err != nil {
			if !retryable(err) {
				return 0, 0, err
			}
			r.logger.Debug("transaction attempt failed", "command", cmd.String(), "attempt", attempt, "error", err)
			lastErr = err

			continue
		}

		start, end, err := sdi12.Validate(buf[:n], expected, crcExpected)
		if err != nil {
			var crcErr *crc16.CRCError
			if errors.As(err, &crcErr) {
				r.metrics.incCRCErrCount()
			}

			return 0, 0, err
		}
		r.metrics.incResponseRecvCount()

		return start, end, nil
	}

	r.logger.Warn("transaction failed", "command", cmd.String(), "attempts", r.cfg.attemptLimit, "error", lastErr)

	return 0, 0, fmt.Errorf("sdi12: no response after %d attempts: %w", r.cfg.attemptLimit, lastErr)
}

// ExecuteBinary runs one command/response transaction where the response is
// a binary data packet read in 8N1 framing. The command itself is sent in
// 7E1 like any other.
func (r *Recorder) ExecuteBinary(cmd sdi12.Command, buf []byte) (*sdi12.BinaryPacket, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	expected := expectedAddress(cmd)

	var lastErr error
	for attempt := 1; attempt <= r.cfg.attemptLimit; attempt++ {
		if attempt > 1 {
			r.metrics.incRetryCount()
			r.port.Delay(r.cfg.retryWait)
		}

		n, err := r.attemptBinary(cmd, buf)
		if err != nil {
			if !retryable(err) {
				return nil, err
			}
			r.logger.Debug("binary transaction attempt failed", "command", cmd.String(), "attempt", attempt, "error", err)
			lastErr = err

			continue
		}

		packet, err := sdi12.DecodeBinaryPacket(buf[:n])
		if err != nil {
			var crcErr *crc16.CRCError
			if errors.As(err, &crcErr) {
				r.metrics.incCRCErrCount()
			}

			return nil, err
		}
		if packet.Addr != expected {
			return nil, fmt.Errorf("%w: got %q, want %q", sdi12.ErrUnexpectedAddress, packet.Addr, expected)
		}
		r.metrics.incResponseRecvCount()

		return packet, nil
	}

	r.logger.Warn("binary transaction failed", "command", cmd.String(), "attempts", r.cfg.attemptLimit, "error", lastErr)

	return nil, fmt.Errorf("sdi12: no response after %d attempts: %w", r.cfg.attemptLimit, lastErr)
}

func (r *Recorder) attempt(cmd sdi12.Command, buf []byte) (int, error) {
	if err := r.wakeBus(); err != nil {
		return 0, err
	}
	if err := r.sendCommand(cmd); err != nil {
		return 0, err
	}

	n, err := r.readLine(buf)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			r.metrics.incTimeoutCount()
		}

		return n, err
	}
	r.lastActivity = r.port.Now()

	return n, nil
}

func (r *Recorder) attemptBinary(cmd sdi12.Command, buf []byte) (int, error) {
	if err := r.wakeBus(); err != nil {
		return 0, err
	}
	if err := r.sendCommand(cmd); err != nil {
		return 0, err
	}

	n, err := r.readBinary(buf)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			r.metrics.incTimeoutCount()
		}

		return n, err
	}
	r.lastActivity = r.port.Now()

	return n, nil
}

// retryable reports whether err leaves the transaction in a state worth
// retrying. Anything else, transport failures included, is final.
func retryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrIncompleteLine)
}

// expectedAddress returns the address the response must carry. An address
// query accepts any sensor; a change address command is answered with the
// new address.
func expectedAddress(cmd sdi12.Command) sdi12.Address {
	switch cmd.Kind {
	case sdi12.CmdAddressQuery:
		return sdi12.QueryAddress
	case sdi12.CmdChangeAddress:
		return cmd.NewAddress
	default:
		return cmd.Address
	}
}
