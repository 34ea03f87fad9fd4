// Package sdi12 implements the data model of the SDI-12 serial protocol
// (v1.4): bus addresses, the full command set with its wire encoding,
// response classification, data value parsing, high-volume binary packets,
// and the protocol timing constants.
//
// The package is purely computational. It never touches a serial line;
// the recorder package drives transactions, and the serialport package
// adapts a physical port.
//
// Commands are built with constructor functions; Validate checks the
// address and indices before the command goes on the wire:
//
//	cmd := sdi12.StartMeasurement('5', sdi12.MeasurementIndex(3))
//	if err := cmd.Validate(); err != nil { ... }
//	wire, _ := cmd.AppendWire(nil) // "5M3!"
//
// Raw response lines (including the trailing <CR><LF>) are classified
// with Decode:
//
//	resp, err := sdi12.Decode([]byte("0+3.14OqZ\r\n"))
//	data := resp.(*sdi12.DataValues) // values [3.14], CRC recorded
package sdi12
