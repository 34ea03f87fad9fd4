package sdi12

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Response is a decoded sensor response. Concrete types are Acknowledge,
// ServiceRequest, AddressConfirmation, Aborted, MeasurementTiming,
// DataValues, Metadata, Identification and BinaryPacket.
type Response interface {
	// Address returns the responding sensor's address.
	Address() Address

	isResponse()
}

// Acknowledge is the bare a<CR><LF> response: the sensor is alive.
// On the wire it is indistinguishable from a service request; the
// transaction layer reinterprets it as one while waiting out a
// measurement.
type Acknowledge struct {
	Addr Address
}

func (r *Acknowledge) Address() Address { return r.Addr }
func (r *Acknowledge) isResponse()      {}

// ServiceRequest is a<CR><LF> sent spontaneously by a sensor whose
// measurement finished early. Produced contextually, never by Decode.
type ServiceRequest struct {
	Addr Address
}

func (r *ServiceRequest) Address() Address { return r.Addr }
func (r *ServiceRequest) isResponse()      {}

// AddressConfirmation confirms a change-address command. Addr is the
// newly confirmed address.
type AddressConfirmation struct {
	Addr Address
}

func (r *AddressConfirmation) Address() Address { return r.Addr }
func (r *AddressConfirmation) isResponse()      {}

// Aborted is a<CRC><CR><LF>: the sensor aborted the measurement the data
// request refers to. The CRC characters are recorded as received; there
// is no payload for them to cover.
type Aborted struct {
	Addr Address
	CRC  uint16
}

func (r *Aborted) Address() Address { return r.Addr }
func (r *Aborted) isResponse()      {}

// MeasurementTiming is atttn<CR><LF> (or atttnnn for concurrent and
// high-volume starts): the sensor will have Count values ready after
// Seconds seconds.
type MeasurementTiming struct {
	Addr    Address
	Seconds uint16
	Count   uint16
}

func (r *MeasurementTiming) Address() Address { return r.Addr }
func (r *MeasurementTiming) isResponse()      {}

// DataValues is a data response: one or more signed decimal values.
// HasCRC records whether the line carried a verified ASCII CRC.
type DataValues struct {
	Addr   Address
	Values []float64
	CRC    uint16
	HasCRC bool
}

func (r *DataValues) Address() Address { return r.Addr }
func (r *DataValues) isResponse()      {}

// Metadata is an identify-parameter response: a,field1,field2,...;
// with optional CRC.
type Metadata struct {
	Addr   Address
	Fields []string
	CRC    uint16
	HasCRC bool
}

func (r *Metadata) Address() Address { return r.Addr }
func (r *Metadata) isResponse()      {}

// Identification is the response to aI!: protocol version, vendor,
// model, sensor version and an optional vendor-defined trailer.
type Identification struct {
	Addr     Address
	Version  uint8 // protocol version times ten, e.g. 14 for v1.4
	Vendor   string
	Model    string
	Revision string
	Optional string
}

func (r *Identification) Address() Address { return r.Addr }
func (r *Identification) isResponse()      {}

// BinaryPacket is one high-volume binary response packet:
// address, little-endian payload size, element type, payload, CRC.
type BinaryPacket struct {
	Addr    Address
	Size    uint16
	Type    BinaryType
	Payload []byte
	CRC     uint16
}

func (r *BinaryPacket) Address() Address { return r.Addr }
func (r *BinaryPacket) isResponse()      {}

// Empty reports whether the packet carries no payload, which ends a
// high-volume binary transfer.
func (r *BinaryPacket) Empty() bool { return r.Size == 0 }

// Count returns the number of payload elements, or 0 for BinaryInvalid.
func (r *BinaryPacket) Count() int {
	size := r.Type.Size()
	if size == 0 {
		return 0
	}

	return int(r.Size) / size
}

// DecodeValues converts the payload elements to float64. Integer types
// wider than 53 bits lose precision in the conversion; callers needing the
// exact integers decode Payload themselves.
func (r *BinaryPacket) DecodeValues() ([]float64, error) {
	if r.Empty() {
		return nil, nil
	}

	elem := r.Type.Size()
	if elem == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBinaryType, r.Type)
	}

	values := make([]float64, 0, r.Count())
	for off := 0; off+elem <= len(r.Payload); off += elem {
		chunk := r.Payload[off : off+elem]
		switch r.Type {
		case BinaryInt8:
			values = append(values, float64(int8(chunk[0])))
		case BinaryUint8:
			values = append(values, float64(chunk[0]))
		case BinaryInt16:
			values = append(values, float64(int16(binary.LittleEndian.Uint16(chunk))))
		case BinaryUint16:
			values = append(values, float64(binary.LittleEndian.Uint16(chunk)))
		case BinaryInt32:
			values = append(values, float64(int32(binary.LittleEndian.Uint32(chunk))))
		case BinaryUint32:
			values = append(values, float64(binary.LittleEndian.Uint32(chunk)))
		case BinaryInt64:
			values = append(values, float64(int64(binary.LittleEndian.Uint64(chunk))))
		case BinaryUint64:
			values = append(values, float64(binary.LittleEndian.Uint64(chunk)))
		case BinaryFloat32:
			values = append(values, float64(math.Float32frombits(binary.LittleEndian.Uint32(chunk))))
		case BinaryFloat64:
			values = append(values, math.Float64frombits(binary.LittleEndian.Uint64(chunk)))
		default:
			return nil, fmt.Errorf("%w: %s", ErrInvalidBinaryType, r.Type)
		}
	}

	return values, nil
}
