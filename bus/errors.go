package bus

import "errors"

var (
	// ErrMeasurementAborted indicates the sensor aborted the measurement
	// and its data must be requested again from the start.
	ErrMeasurementAborted = errors.New("sdi12: measurement aborted by sensor")

	// ErrIncompleteData indicates the sensor announced more values than it
	// delivered.
	ErrIncompleteData = errors.New("sdi12: fewer values than announced")

	// ErrNoPendingMeasurement is returned by CollectConcurrent when no
	// concurrent measurement has been started.
	ErrNoPendingMeasurement = errors.New("sdi12: no pending concurrent measurement")
)
