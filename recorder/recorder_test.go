package recorder

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-sdi12/crc16"
	"github.com/arloliu/go-sdi12/sdi12"
)

// fakePort is a scripted Port with a deterministic clock: Now returns the
// fake time, and Delay and SendBreak advance it. Received bytes are served
// instantly until the script runs out, after which reads block.
type fakePort struct {
	now time.Time

	rx      []byte
	rxPos   int
	mute    bool      // never serve rx bytes
	readyAt time.Time // serve rx bytes only from this time on

	tx       []byte
	flushes  int
	breaks   int
	framings []sdi12.FrameFormat
	delayed  time.Duration
}

func newFakePort(rx []byte) *fakePort {
	return &fakePort{now: time.Unix(0, 0), rx: rx}
}

func (p *fakePort) ReadByte() (byte, error) {
	if p.mute || p.rxPos >= len(p.rx) {
		return 0, ErrWouldBlock
	}
	if !p.readyAt.IsZero() && p.now.Before(p.readyAt) {
		return 0, ErrWouldBlock
	}
	b := p.rx[p.rxPos]
	p.rxPos++

	return b, nil
}

func (p *fakePort) WriteByte(b byte) error {
	p.tx = append(p.tx, b)
	return nil
}

func (p *fakePort) Flush() error {
	p.flushes++
	return nil
}

func (p *fakePort) SendBreak(d time.Duration) error {
	p.breaks++
	p.now = p.now.Add(d)

	return nil
}

func (p *fakePort) SetFraming(f sdi12.FrameFormat) error {
	p.framings = append(p.framings, f)
	return nil
}

func (p *fakePort) Now() time.Time { return p.now }

func (p *fakePort) Delay(d time.Duration) {
	p.now = p.now.Add(d)
	p.delayed += d
}

func newTestRecorder(t *testing.T, port Port, opts ...RecorderOption) *Recorder {
	t.Helper()
	r, err := NewRecorder(port, opts...)
	require.NoError(t, err)

	return r
}

func TestNewRecorder(t *testing.T) {
	_, err := NewRecorder(nil)
	require.Error(t, err)

	_, err = NewRecorder(newFakePort(nil), WithAttemptLimit(0))
	require.Error(t, err)

	_, err = NewRecorder(newFakePort(nil), WithRetryWait(time.Millisecond))
	require.Error(t, err)

	_, err = NewRecorder(newFakePort(nil), WithResponseBufferSize(4))
	require.Error(t, err)

	_, err = NewRecorder(newFakePort(nil), WithLogger(nil))
	require.Error(t, err)

	r, err := NewRecorder(newFakePort(nil), WithAttemptLimit(5), WithRetryWait(25*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 5, r.cfg.attemptLimit)
	assert.Equal(t, 25*time.Millisecond, r.cfg.retryWait)
}

func TestRecorderExecute(t *testing.T) {
	t.Run("acknowledge active", func(t *testing.T) {
		port := newFakePort([]byte("0\r\n"))
		r := newTestRecorder(t, port)

		buf := make([]byte, 64)
		start, end, err := r.Execute(sdi12.AcknowledgeActive(sdi12.DefaultAddress), buf)
		require.NoError(t, err)
		assert.Equal(t, 1, start)
		assert.Equal(t, 1, end)

		assert.Equal(t, "0!", string(port.tx))
		assert.Equal(t, 1, port.breaks)
		assert.Equal(t, 1, port.flushes)
		require.NotEmpty(t, port.framings)
		assert.Equal(t, sdi12.Frame7E1, port.framings[0])

		assert.Equal(t, uint64(1), r.Metrics().CommandSendCount.Load())
		assert.Equal(t, uint64(1), r.Metrics().ResponseRecvCount.Load())
		assert.Equal(t, uint64(1), r.Metrics().BreakSendCount.Load())
		assert.Equal(t, uint64(0), r.Metrics().RetryCount.Load())
	})

	t.Run("crc protected payload bounds", func(t *testing.T) {
		port := newFakePort([]byte("0+3.14OqZ\r\n"))
		r := newTestRecorder(t, port)

		buf := make([]byte, 64)
		start, end, err := r.Execute(sdi12.ReadContinuousCRC(sdi12.DefaultAddress, 0), buf)
		require.NoError(t, err)
		assert.Equal(t, "+3.14", string(buf[start:end]))
		assert.Equal(t, "0RC0!", string(port.tx))
	})

	t.Run("crc mismatch is fatal", func(t *testing.T) {
		port := newFakePort([]byte("0+3.14OqY\r\n"))
		r := newTestRecorder(t, port)

		buf := make([]byte, 64)
		_, _, err := r.Execute(sdi12.ReadContinuousCRC(sdi12.DefaultAddress, 0), buf)
		var crcErr *crc16.CRCError
		require.ErrorAs(t, err, &crcErr)

		// No retry after a hard failure.
		assert.Equal(t, uint64(1), r.Metrics().CommandSendCount.Load())
		assert.Equal(t, uint64(1), r.Metrics().CRCErrCount.Load())
	})

	t.Run("wrong address is fatal", func(t *testing.T) {
		port := newFakePort([]byte("1+1.0\r\n"))
		r := newTestRecorder(t, port)

		buf := make([]byte, 64)
		_, _, err := r.Execute(sdi12.ReadContinuous(sdi12.DefaultAddress, 0), buf)
		require.ErrorIs(t, err, sdi12.ErrUnexpectedAddress)
		assert.Equal(t, uint64(1), r.Metrics().CommandSendCount.Load())
	})

	t.Run("invalid command rejected before sending", func(t *testing.T) {
		port := newFakePort(nil)
		r := newTestRecorder(t, port)

		cmd := sdi12.Command{Kind: sdi12.CmdSendData, Address: sdi12.DefaultAddress, Data: 1000}
		_, _, err := r.Execute(cmd, make([]byte, 64))
		require.ErrorIs(t, err, sdi12.ErrDataIndexRange)
		assert.Empty(t, port.tx)
	})

	t.Run("buffer overflow is fatal", func(t *testing.T) {
		port := newFakePort([]byte("0+1.23+4.56\r\n"))
		r := newTestRecorder(t, port)

		_, _, err := r.Execute(sdi12.ReadContinuous(sdi12.DefaultAddress, 0), make([]byte, 4))
		var ovf *OverflowError
		require.ErrorAs(t, err, &ovf)
		assert.Equal(t, 5, ovf.Needed)
		assert.Equal(t, 4, ovf.Capacity)
	})
}

func TestRecorderRetry(t *testing.T) {
	t.Run("silence exhausts attempts", func(t *testing.T) {
		port := newFakePort(nil)
		port.mute = true
		r := newTestRecorder(t, port)

		_, _, err := r.Execute(sdi12.AcknowledgeActive(sdi12.DefaultAddress), make([]byte, 64))
		require.ErrorIs(t, err, ErrTimeout)

		// The command goes out once per attempt, with a quiet period of at
		// least RetryWaitMin before each retry.
		assert.Equal(t, 3, bytes.Count(port.tx, []byte("!")))
		assert.Equal(t, uint64(3), r.Metrics().CommandSendCount.Load())
		assert.Equal(t, uint64(2), r.Metrics().RetryCount.Load())
		assert.Equal(t, uint64(3), r.Metrics().TimeoutCount.Load())
		assert.GreaterOrEqual(t, port.delayed, 2*sdi12.RetryWaitMin)

		// The line idles past the pre-command threshold between attempts,
		// so every attempt is preceded by a break.
		assert.Equal(t, 3, port.breaks)
	})

	t.Run("partial line counts as incomplete", func(t *testing.T) {
		port := newFakePort([]byte("0+3.1"))
		r := newTestRecorder(t, port, WithAttemptLimit(2))

		_, _, err := r.Execute(sdi12.ReadContinuous(sdi12.DefaultAddress, 0), make([]byte, 64))
		require.Error(t, err)
		require.ErrorIs(t, err, ErrTimeout)
		assert.Equal(t, uint64(1), r.Metrics().RetryCount.Load())
	})

	t.Run("recovers on second attempt", func(t *testing.T) {
		port := newFakePort([]byte("0\r\n"))
		// The sensor stays silent through the whole first response window
		// and answers during the second attempt.
		port.readyAt = port.now.Add(time.Second)
		r := newTestRecorder(t, port)

		start, end, err := r.Execute(sdi12.AcknowledgeActive(sdi12.DefaultAddress), make([]byte, 64))
		require.NoError(t, err)
		assert.Equal(t, 1, start)
		assert.Equal(t, 1, end)
		assert.Equal(t, uint64(2), r.Metrics().CommandSendCount.Load())
		assert.Equal(t, uint64(1), r.Metrics().RetryCount.Load())
	})
}

func TestRecorderSuppressesBreakAfterRecentActivity(t *testing.T) {
	port := newFakePort([]byte("0\r\n0\r\n"))
	r := newTestRecorder(t, port)

	buf := make([]byte, 64)
	_, _, err := r.Execute(sdi12.AcknowledgeActive(sdi12.DefaultAddress), buf)
	require.NoError(t, err)
	require.Equal(t, 1, port.breaks)

	// The second transaction follows immediately, inside the window where
	// sensors are still awake.
	_, _, err = r.Execute(sdi12.AcknowledgeActive(sdi12.DefaultAddress), buf)
	require.NoError(t, err)
	assert.Equal(t, 1, port.breaks)

	// After a long idle period the bus must be woken again.
	port.Delay(200 * time.Millisecond)
	port.rx = append(port.rx, "0\r\n"...)
	_, _, err = r.Execute(sdi12.AcknowledgeActive(sdi12.DefaultAddress), buf)
	require.NoError(t, err)
	assert.Equal(t, 2, port.breaks)
}
