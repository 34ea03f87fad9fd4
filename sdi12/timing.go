package sdi12

import "time"

// Protocol timing constants (SDI-12 specification v1.4 §7). Nominal
// values; the stated tolerance on most of them is ±0.40 ms, which is
// already folded into the constants that carry it.
const (
	// BreakDurationMin is the minimum spacing a recorder must hold the
	// line to signal a break.
	BreakDurationMin = 12 * time.Millisecond

	// BreakIgnoreMax is the longest spacing a sensor is required to NOT
	// recognize as a break.
	BreakIgnoreMax = 6500 * time.Microsecond

	// PostBreakMarking is the marking time required after a break before
	// a sensor looks for an address.
	PostBreakMarking = 8330 * time.Microsecond

	// RecorderReleaseMax is the maximum time after the command stop bit
	// for the recorder to release the line (7.5 ms + tolerance).
	RecorderReleaseMax = 7900 * time.Microsecond

	// ResponseStartMax is the maximum time from the end of a command to
	// the start bit of the first response byte (15 ms + tolerance).
	ResponseStartMax = 15400 * time.Microsecond

	// InterCharacterMax is the maximum marking time between characters
	// within a command or response. No tolerance applies.
	InterCharacterMax = 1660 * time.Microsecond

	// SensorWakeupMax is the maximum time for a sensor to wake after a
	// break and be ready for the command start bit.
	SensorWakeupMax = 100 * time.Millisecond

	// PreCommandBreakThreshold is the marking time after which the next
	// command must be preceded by a fresh break.
	PreCommandBreakThreshold = 87 * time.Millisecond

	// RetryWaitMin is the minimum wait before a retry when a command got
	// no response.
	RetryWaitMin = 16670 * time.Microsecond

	// MultilineInterLineMax is the maximum gap between lines of a
	// multi-line text response.
	MultilineInterLineMax = 150 * time.Millisecond

	// BitDuration is the nominal duration of one bit at 1200 baud.
	BitDuration = 833 * time.Microsecond

	// ByteDuration is the nominal duration of one character on the wire:
	// 10 bit times (start + 7 data + parity + stop).
	ByteDuration = 8333 * time.Microsecond
)
