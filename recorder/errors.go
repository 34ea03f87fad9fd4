package recorder

import (
	"errors"
	"fmt"
)

var (
	// ErrWouldBlock is returned by Port operations when no data is available
	// (read) or the transmit path is busy (write). The recorder polls the
	// port until the operation succeeds or its deadline expires.
	ErrWouldBlock = errors.New("sdi12: operation would block")

	// ErrTimeout indicates the sensor did not start responding within the
	// response window. The transaction is retried.
	ErrTimeout = errors.New("sdi12: timed out waiting for response")

	// ErrIncompleteLine indicates the sensor started a response but went
	// silent before the <CR><LF> terminator arrived. The transaction is
	// retried.
	ErrIncompleteLine = errors.New("sdi12: response line incomplete")

	// ErrUnexpectedResponse is returned by the typed command helpers when
	// the sensor replies with a well-formed response of the wrong kind.
	ErrUnexpectedResponse = errors.New("sdi12: unexpected response kind")
)

// OverflowError indicates a response line outgrew the supplied buffer.
// It is fatal for the transaction; retrying would overflow again.
type OverflowError struct {
	// Needed is the number of bytes required so far, including the byte
	// that did not fit.
	Needed int
	// Capacity is the size of the buffer the response was read into.
	Capacity int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("sdi12: response buffer overflow, needed %d bytes, capacity %d", e.Needed, e.Capacity)
}
