package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-sdi12/logger"
	"github.com/arloliu/go-sdi12/sdi12"
)

// Default transaction parameters.
const (
	// DefaultAttemptLimit is the total number of times a command is sent
	// before the transaction is abandoned.
	DefaultAttemptLimit = 3

	// DefaultRetryWait is the pause between transaction attempts. It must
	// cover the minimum quiet period a sensor needs before it accepts the
	// command again.
	DefaultRetryWait = 20 * time.Millisecond

	// DefaultResponseBufferSize fits the longest ASCII response line a
	// v1.4 sensor may send, including the CRC and <CR><LF>.
	DefaultResponseBufferSize = 128
)

// Transaction parameter limits.
const (
	MinAttemptLimit = 1
	MaxAttemptLimit = 10

	// MinRetryWait is the shortest allowed pause between attempts.
	MinRetryWait = sdi12.RetryWaitMin

	// MinResponseBufferSize holds the shortest complete response, a bare
	// acknowledge line.
	MinResponseBufferSize = 16
)

// config holds the tunable parameters of a Recorder.
type config struct {
	attemptLimit       int
	retryWait          time.Duration
	responseBufferSize int
	logger             logger.Logger
}

func defaultConfig() config {
	return config{
		attemptLimit:       DefaultAttemptLimit,
		retryWait:          DefaultRetryWait,
		responseBufferSize: DefaultResponseBufferSize,
		logger:             logger.GetLogger(),
	}
}

// RecorderOption is a functional option for configuring a Recorder.
type RecorderOption interface {
	apply(*config) error
}

type optFunc func(*config) error

func (f optFunc) apply(cfg *config) error { return f(cfg) }

// WithAttemptLimit sets the total number of times a command is sent before
// the transaction fails. Must be in [1, 10].
func WithAttemptLimit(n int) RecorderOption {
	return optFunc(func(cfg *config) error {
		if n < MinAttemptLimit || n > MaxAttemptLimit {
			return fmt.Errorf("sdi12: attempt limit %d out of range [%d, %d]", n, MinAttemptLimit, MaxAttemptLimit)
		}
		cfg.attemptLimit = n

		return nil
	})
}

// WithRetryWait sets the pause between transaction attempts.
// Must be at least MinRetryWait.
func WithRetryWait(d time.Duration) RecorderOption {
	return optFunc(func(cfg *config) error {
		if d < MinRetryWait {
			return fmt.Errorf("sdi12: retry wait %v below minimum %v", d, MinRetryWait)
		}
		cfg.retryWait = d

		return nil
	})
}

// WithResponseBufferSize sets the size of the internal buffer the typed
// command helpers read response lines into. It bounds the longest ASCII
// response the recorder accepts.
func WithResponseBufferSize(size int) RecorderOption {
	return optFunc(func(cfg *config) error {
		if size < MinResponseBufferSize {
			return fmt.Errorf("sdi12: response buffer size %d below minimum %d", size, MinResponseBufferSize)
		}
		cfg.responseBufferSize = size

		return nil
	})
}

// WithLogger sets the logger for the recorder.
func WithLogger(l logger.Logger) RecorderOption {
	return optFunc(func(cfg *config) error {
		if l == nil {
			return errors.New("sdi12: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
