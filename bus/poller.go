// Package bus builds complete measurement sequences on top of the
// transaction layer: discover sensors, start a measurement, wait out the
// announced measurement time (or cut it short on a service request), and
// collect the resulting values across as many data commands as it takes.
package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-sdi12/internal/pool"
	"github.com/arloliu/go-sdi12/internal/queue"
	"github.com/arloliu/go-sdi12/logger"
	"github.com/arloliu/go-sdi12/recorder"
	"github.com/arloliu/go-sdi12/sdi12"
)

const maxDataIndex = 999

// Sensor is a discovered sensor and its identification.
type Sensor struct {
	Address sdi12.Address
	Ident   *sdi12.Identification
}

// Measurement is one collected result set.
type Measurement struct {
	Address sdi12.Address
	Values  []float64
}

type pendingMeasurement struct {
	addr    sdi12.Address
	readyAt time.Time
	count   int
	withCRC bool
}

// Poller orchestrates measurement sequences over a single recorder.
// Like the recorder it drives, it is not safe for concurrent use.
//
// Contexts are honored between bus transactions; a transaction already on
// the wire runs to completion because a half-duplex bus cannot be released
// mid-exchange.
type Poller struct {
	rec     *recorder.Recorder
	logger  logger.Logger
	idents  *xsync.MapOf[byte, *sdi12.Identification]
	pending queue.Queue[*pendingMeasurement]
}

// PollerOption is a functional option for configuring a Poller.
type PollerOption func(*Poller)

// WithLogger sets the logger for the poller.
func WithLogger(l logger.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = l
	}
}

// NewPoller creates a poller driving the given recorder.
func NewPoller(rec *recorder.Recorder, opts ...PollerOption) *Poller {
	p := &Poller{
		rec:     rec,
		logger:  logger.GetLogger(),
		idents:  xsync.NewMapOf[byte, *sdi12.Identification](),
		pending: queue.NewSliceQueue[*pendingMeasurement](4),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Scan probes the given addresses and returns the sensors that answered,
// identification included. Without explicit addresses the ten standard
// addresses '0' through '9' are probed. Silent addresses are skipped;
// transport failures abort the scan.
func (p *Poller) Scan(ctx context.Context, addrs ...sdi12.Address) ([]Sensor, error) {
	if len(addrs) == 0 {
		for c := byte('0'); c <= '9'; c++ {
			addr, _ := sdi12.NewAddress(c)
			addrs = append(addrs, addr)
		}
	}

	var sensors []Sensor
	for _, addr := range addrs {
		if err := ctx.Err(); err != nil {
			return sensors, err
		}

		if err := p.rec.Acknowledge(addr); err != nil {
			if errors.Is(err, recorder.ErrTimeout) {
				continue
			}

			return sensors, err
		}

		ident, err := p.Identify(ctx, addr)
		if err != nil {
			return sensors, err
		}
		p.logger.Debug("sensor discovered", "address", addr.String(), "model", ident.Model)
		sensors = append(sensors, Sensor{Address: addr, Ident: ident})
	}

	return sensors, nil
}

// Identify returns the identification of the sensor at addr, from cache
// when it was identified before.
func (p *Poller) Identify(ctx context.Context, addr sdi12.Address) (*sdi12.Identification, error) {
	if ident, ok := p.idents.Load(addr.Byte()); ok {
		return ident, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ident, err := p.rec.Identify(addr)
	if err != nil {
		return nil, err
	}
	p.idents.Store(addr.Byte(), ident)

	return ident, nil
}

// ChangeAddress moves the sensor at addr to newAddr and keeps the
// identification cache consistent.
func (p *Poller) ChangeAddress(addr, newAddr sdi12.Address) error {
	if err := p.rec.ChangeAddress(addr, newAddr); err != nil {
		return err
	}
	if ident, ok := p.idents.LoadAndDelete(addr.Byte()); ok {
		p.idents.Store(newAddr.Byte(), ident)
	}

	return nil
}

// Measure runs a complete measurement sequence at addr: start measurement
// index, wait for the sensor (cut short by a service request when the
// sensor finishes early), then collect all announced values.
func (p *Poller) Measure(ctx context.Context, addr sdi12.Address, index sdi12.MeasurementIndex, withCRC bool) ([]float64, error) {
	timing, err := p.rec.StartMeasurement(addr, index, withCRC)
	if err != nil {
		return nil, err
	}
	if timing.Count == 0 {
		return nil, nil
	}

	if err := p.waitServiceRequest(ctx, addr, timing.Seconds); err != nil {
		return nil, err
	}

	return p.collect(ctx, addr, int(timing.Count), withCRC)
}

// Verify runs the self-verification sequence at addr and collects its
// diagnostic values.
func (p *Poller) Verify(ctx context.Context, addr sdi12.Address, withCRC bool) ([]float64, error) {
	timing, err := p.rec.StartVerification(addr)
	if err != nil {
		return nil, err
	}
	if timing.Count == 0 {
		return nil, nil
	}

	if err := p.waitServiceRequest(ctx, addr, timing.Seconds); err != nil {
		return nil, err
	}

	return p.collect(ctx, addr, int(timing.Count), withCRC)
}

// StartConcurrent starts a concurrent measurement at addr and records it
// as pending. Unlike Measure it returns immediately; other sensors can be
// commanded while the measurement runs. Results are gathered with
// CollectConcurrent.
func (p *Poller) StartConcurrent(ctx context.Context, addr sdi12.Address, index sdi12.MeasurementIndex, withCRC bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timing, err := p.rec.StartConcurrent(addr, index, withCRC)
	if err != nil {
		return err
	}

	p.pending.Enqueue(&pendingMeasurement{
		addr:    addr,
		readyAt: time.Now().Add(time.Duration(timing.Seconds) * time.Second),
		count:   int(timing.Count),
		withCRC: withCRC,
	})

	return nil
}

// CollectConcurrent waits for and collects every pending concurrent
// measurement, in start order. A collection failure on one sensor stops
// the sweep; the remaining pending measurements stay queued.
func (p *Poller) CollectConcurrent(ctx context.Context) ([]Measurement, error) {
	if p.pending.IsEmpty() {
		return nil, ErrNoPendingMeasurement
	}

	var results []Measurement
	for {
		pm, ok := p.pending.Peek()
		if !ok {
			break
		}

		if err := p.sleepUntil(ctx, pm.readyAt); err != nil {
			return results, err
		}

		if pm.count > 0 {
			values, err := p.collect(ctx, pm.addr, pm.count, pm.withCRC)
			if err != nil {
				return results, err
			}
			results = append(results, Measurement{Address: pm.addr, Values: values})
		}
		p.pending.Dequeue()
	}

	return results, nil
}

// ReadContinuous reads continuous measurement index from addr.
func (p *Poller) ReadContinuous(ctx context.Context, addr sdi12.Address, index sdi12.ContinuousIndex, withCRC bool) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values, err := p.rec.ReadContinuous(addr, index, withCRC)
	if err != nil {
		return nil, err
	}

	return values.Values, nil
}

// ReadHighVolumeASCII runs a high-volume ASCII measurement sequence at
// addr. The data responses are always CRC protected.
func (p *Poller) ReadHighVolumeASCII(ctx context.Context, addr sdi12.Address) ([]float64, error) {
	timing, err := p.rec.StartHighVolumeASCII(addr)
	if err != nil {
		return nil, err
	}
	if timing.Count == 0 {
		return nil, nil
	}

	if err := p.waitServiceRequest(ctx, addr, timing.Seconds); err != nil {
		return nil, err
	}

	return p.collect(ctx, addr, int(timing.Count), true)
}

// ReadHighVolumeBinary runs a high-volume binary measurement sequence at
// addr, reading packets until the sensor sends an empty one.
func (p *Poller) ReadHighVolumeBinary(ctx context.Context, addr sdi12.Address) ([]float64, error) {
	timing, err := p.rec.StartHighVolumeBinary(addr)
	if err != nil {
		return nil, err
	}
	if timing.Count == 0 {
		return nil, nil
	}

	if err := p.waitServiceRequest(ctx, addr, timing.Seconds); err != nil {
		return nil, err
	}

	values := make([]float64, 0, timing.Count)
	for d := 0; d <= maxDataIndex; d++ {
		if err := ctx.Err(); err != nil {
			return values, err
		}

		packet, err := p.rec.ReadBinaryData(addr, sdi12.DataIndex(d))
		if err != nil {
			return values, err
		}
		if packet.Empty() {
			break
		}

		decoded, err := packet.DecodeValues()
		if err != nil {
			return values, err
		}
		values = append(values, decoded...)
	}

	return values, nil
}

// waitServiceRequest waits out the announced measurement time, returning
// early when the sensor signals completion with a service request. The
// wait runs on the port clock; ctx is checked at the boundaries.
func (p *Poller) waitServiceRequest(ctx context.Context, addr sdi12.Address, seconds uint16) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if seconds == 0 {
		return nil
	}

	early, err := p.rec.WaitServiceRequest(addr, time.Duration(seconds)*time.Second)
	if err != nil {
		return err
	}
	if early {
		p.logger.Debug("service request received", "address", addr.String())
	}

	return ctx.Err()
}

// collect issues data commands until count values have been gathered.
func (p *Poller) collect(ctx context.Context, addr sdi12.Address, count int, withCRC bool) ([]float64, error) {
	values := make([]float64, 0, count)
	for d := 0; len(values) < count; d++ {
		if d > maxDataIndex {
			return values, fmt.Errorf("%w: got %d of %d values", ErrIncompleteData, len(values), count)
		}
		if err := ctx.Err(); err != nil {
			return values, err
		}

		resp, err := p.rec.SendData(addr, sdi12.DataIndex(d), withCRC)
		if err != nil {
			return values, err
		}

		switch v := resp.(type) {
		case *sdi12.DataValues:
			if len(v.Values) == 0 {
				return values, fmt.Errorf("%w: got %d of %d values", ErrIncompleteData, len(values), count)
			}
			values = append(values, v.Values...)
		case *sdi12.Aborted:
			return nil, fmt.Errorf("%w: sensor %s", ErrMeasurementAborted, addr.String())
		case *sdi12.Acknowledge:
			// A bare address line is a data response with no values left.
			return values, fmt.Errorf("%w: got %d of %d values", ErrIncompleteData, len(values), count)
		default:
			return values, fmt.Errorf("%w: %T", recorder.ErrUnexpectedResponse, resp)
		}
	}

	return values, nil
}

// sleepUntil pauses until the deadline or context cancellation.
func (p *Poller) sleepUntil(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return ctx.Err()
	}

	t := pool.GetTimer(d)
	defer pool.PutTimer(t)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
