package crc16

import "errors"

// ErrShortBuffer indicates that a buffer is too short to contain a CRC
// in the requested encoding.
var ErrShortBuffer = errors.New("crc16: buffer too short to contain a CRC")
