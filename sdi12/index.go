package sdi12

import "fmt"

// MeasurementIndex selects one of the additional measurement slots of the
// M/MC/C/CC command families and their identify forms. MeasurementBase
// selects the base command (no index digit on the wire); indexed slots
// are 1-9.
type MeasurementIndex uint8

// MeasurementBase selects the base measurement command (aM! rather than aMn!).
const MeasurementBase MeasurementIndex = 0

// NewMeasurementIndex validates n as an additional measurement index (1-9).
func NewMeasurementIndex(n int) (MeasurementIndex, error) {
	if n < 1 || n > 9 {
		return 0, fmt.Errorf("%w: %d", ErrMeasurementIndexRange, n)
	}

	return MeasurementIndex(n), nil //nolint:gosec // range checked above
}

// IsBase reports whether i selects the base command.
func (i MeasurementIndex) IsBase() bool { return i == MeasurementBase }

// Valid reports whether i is MeasurementBase or an index in [1, 9].
func (i MeasurementIndex) Valid() bool { return i <= 9 }

// ContinuousIndex selects one of the continuous measurement slots of the
// R/RC command family. Valid values are 0-9.
type ContinuousIndex uint8

// NewContinuousIndex validates n as a continuous measurement index (0-9).
func NewContinuousIndex(n int) (ContinuousIndex, error) {
	if n < 0 || n > 9 {
		return 0, fmt.Errorf("%w: %d", ErrContinuousIndexRange, n)
	}

	return ContinuousIndex(n), nil //nolint:gosec // range checked above
}

// Valid reports whether i is in [0, 9].
func (i ContinuousIndex) Valid() bool { return i <= 9 }

// DataIndex selects a data page for the D/DB command family.
// Valid values are 0-999.
type DataIndex uint16

// NewDataIndex validates n as a data request index (0-999).
func NewDataIndex(n int) (DataIndex, error) {
	if n < 0 || n > 999 {
		return 0, fmt.Errorf("%w: %d", ErrDataIndexRange, n)
	}

	return DataIndex(n), nil //nolint:gosec // range checked above
}

// Valid reports whether i is in [0, 999].
func (i DataIndex) Valid() bool { return i <= 999 }

// ParameterIndex selects a parameter of the identify-measurement-parameter
// command family (the _nnn suffix). Valid values are 1-999; 0 means no
// parameter suffix.
type ParameterIndex uint16

// NoParameter omits the _nnn suffix from an identify command.
const NoParameter ParameterIndex = 0

// NewParameterIndex validates n as an identify-parameter index (1-999).
func NewParameterIndex(n int) (ParameterIndex, error) {
	if n < 1 || n > 999 {
		return 0, fmt.Errorf("%w: %d", ErrParameterIndexRange, n)
	}

	return ParameterIndex(n), nil //nolint:gosec // range checked above
}

// Valid reports whether i is NoParameter or an index in [1, 999].
func (i ParameterIndex) Valid() bool { return i <= 999 }
