package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-sdi12/crc16"
	"github.com/arloliu/go-sdi12/sdi12"
)

// Transact runs one transaction and decodes the response line into its
// typed form. It is the generic entry point behind the named helpers and
// covers commands without one, such as the identify parameter family and
// vendor extended commands.
func (r *Recorder) Transact(cmd sdi12.Command) (sdi12.Response, error) {
	_, end, err := r.Execute(cmd, r.lineBuf)
	if err != nil {
		return nil, err
	}

	// Execute strips the CRC and terminator from the payload bounds; the
	// full line is still in the buffer for the decoder.
	if cmd.ResponseCRC() {
		end += crc16.ASCIISize
	}
	end += 2

	return sdi12.Decode(r.lineBuf[:end])
}

// Acknowledge checks that the sensor at addr is active.
func (r *Recorder) Acknowledge(addr sdi12.Address) error {
	resp, err := r.Transact(sdi12.AcknowledgeActive(addr))
	if err != nil {
		return err
	}
	if _, ok := resp.(*sdi12.Acknowledge); !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedResponse, resp)
	}

	return nil
}

// Identify requests the identification of the sensor at addr.
func (r *Recorder) Identify(addr sdi12.Address) (*sdi12.Identification, error) {
	resp, err := r.Transact(sdi12.SendIdentification(addr))
	if err != nil {
		return nil, err
	}
	ident, ok := resp.(*sdi12.Identification)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedResponse, resp)
	}

	return ident, nil
}

// QueryAddress asks the bus for the address of the single attached sensor.
// With more than one sensor attached the replies collide and the
// transaction times out or fails validation.
func (r *Recorder) QueryAddress() (sdi12.Address, error) {
	_, _, err := r.Execute(sdi12.AddressQuery(), r.lineBuf)
	if err != nil {
		return 0, err
	}

	return sdi12.NewAddress(r.lineBuf[0])
}

// ChangeAddress moves the sensor at addr to newAddr. The sensor confirms
// with its new address; the transaction fails if it answers with any other.
func (r *Recorder) ChangeAddress(addr, newAddr sdi12.Address) error {
	_, _, err := r.Execute(sdi12.ChangeAddress(addr, newAddr), r.lineBuf)

	return err
}

// StartMeasurement starts measurement index at addr and returns the
// timing response: how long the measurement takes and how many values it
// yields. withCRC requests CRC protection on the subsequent data responses.
func (r *Recorder) StartMeasurement(addr sdi12.Address, index sdi12.MeasurementIndex, withCRC bool) (*sdi12.MeasurementTiming, error) {
	cmd := sdi12.StartMeasurement(addr, index)
	if withCRC {
		cmd = sdi12.StartMeasurementCRC(addr, index)
	}

	return r.timing(cmd)
}

// StartConcurrent starts concurrent measurement index at addr. Unlike
// StartMeasurement the sensor does not hold the bus while measuring, so
// other sensors can be commanded in the meantime.
func (r *Recorder) StartConcurrent(addr sdi12.Address, index sdi12.MeasurementIndex, withCRC bool) (*sdi12.MeasurementTiming, error) {
	cmd := sdi12.StartConcurrent(addr, index)
	if withCRC {
		cmd = sdi12.StartConcurrentCRC(addr, index)
	}

	return r.timing(cmd)
}

// StartVerification starts the self-verification sequence at addr.
func (r *Recorder) StartVerification(addr sdi12.Address) (*sdi12.MeasurementTiming, error) {
	return r.timing(sdi12.StartVerification(addr))
}

// StartHighVolumeASCII starts a high-volume ASCII measurement at addr.
// The resulting values are collected with SendData; data responses are
// always CRC protected.
func (r *Recorder) StartHighVolumeASCII(addr sdi12.Address) (*sdi12.MeasurementTiming, error) {
	return r.timing(sdi12.StartHighVolumeASCII(addr))
}

// StartHighVolumeBinary starts a high-volume binary measurement at addr.
// The resulting packets are collected with ReadBinaryData.
func (r *Recorder) StartHighVolumeBinary(addr sdi12.Address) (*sdi12.MeasurementTiming, error) {
	return r.timing(sdi12.StartHighVolumeBinary(addr))
}

func (r *Recorder) timing(cmd sdi12.Command) (*sdi12.MeasurementTiming, error) {
	resp, err := r.Transact(cmd)
	if err != nil {
		return nil, err
	}
	timing, ok := resp.(*sdi12.MeasurementTiming)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedResponse, resp)
	}

	return timing, nil
}

// SendData requests data block index from addr. The response is usually
// *sdi12.DataValues; a sensor that aborted the measurement answers with
// *sdi12.Aborted, and metadata commands answer with *sdi12.Metadata.
// withCRC must match the CRC variant of the command that started the
// measurement.
func (r *Recorder) SendData(addr sdi12.Address, index sdi12.DataIndex, withCRC bool) (sdi12.Response, error) {
	cmd := sdi12.SendData(addr, index)
	_, end, err := r.Execute(cmd, r.lineBuf)
	if err != nil {
		return nil, err
	}
	// The D command itself carries no CRC marker; whether the response is
	// protected follows from the measurement command, so the line is
	// verified here instead of in Execute. An address plus three encoded
	// CRC characters is the aborted-measurement marker and is left to the
	// decoder.
	if withCRC && end != 1+crc16.ASCIISize {
		if err := crc16.VerifyASCII(r.lineBuf[:end]); err != nil {
			r.metrics.incCRCErrCount()

			return nil, err
		}
	}

	return sdi12.Decode(r.lineBuf[:end+2])
}

// ReadContinuous reads continuous measurement index from addr without a
// preceding measurement command.
func (r *Recorder) ReadContinuous(addr sdi12.Address, index sdi12.ContinuousIndex, withCRC bool) (*sdi12.DataValues, error) {
	cmd := sdi12.ReadContinuous(addr, index)
	if withCRC {
		cmd = sdi12.ReadContinuousCRC(addr, index)
	}

	resp, err := r.Transact(cmd)
	if err != nil {
		return nil, err
	}
	values, ok := resp.(*sdi12.DataValues)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedResponse, resp)
	}

	return values, nil
}

// WaitServiceRequest waits up to timeout for a service request line from
// addr: a sensor holding the bus after a measurement command announces
// early completion with a bare a<CR><LF>. It returns false without error
// when the window passes in silence, so the caller falls back to waiting
// out the announced measurement time.
func (r *Recorder) WaitServiceRequest(addr sdi12.Address, timeout time.Duration) (bool, error) {
	deadline := r.port.Now().Add(timeout)
	n, err := r.readLineUntil(r.lineBuf, deadline)
	if err != nil {
		if errors.Is(err, ErrTimeout) || errors.Is(err, ErrIncompleteLine) {
			return false, nil
		}

		return false, err
	}
	r.lastActivity = r.port.Now()

	line := r.lineBuf[:n]

	return n == 3 && line[0] == addr.Byte(), nil
}

// ReadBinaryData requests binary data packet index from addr. An empty
// packet marks the end of the data; see BinaryPacket.Empty.
func (r *Recorder) ReadBinaryData(addr sdi12.Address, index sdi12.DataIndex) (*sdi12.BinaryPacket, error) {
	if r.binBuf == nil {
		r.binBuf = make([]byte, binaryHeaderSize+sdi12.MaxBinaryPayloadSize+crc16.BinarySize)
	}

	return r.ExecuteBinary(sdi12.SendBinaryData(addr, index), r.binBuf)
}
