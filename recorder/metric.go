package recorder

import (
	"sync/atomic"
)

// TransactionMetrics contains atomic metrics for a recorder.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type TransactionMetrics struct {
	// CommandSendCount indicates the number of commands sent, retries included.
	CommandSendCount atomic.Uint64
	// ResponseRecvCount indicates the number of complete responses received.
	ResponseRecvCount atomic.Uint64
	// RetryCount indicates the total number of transaction retries.
	RetryCount atomic.Uint64
	// TimeoutCount indicates the number of attempts that timed out.
	TimeoutCount atomic.Uint64
	// CRCErrCount indicates the number of responses rejected for a CRC mismatch.
	CRCErrCount atomic.Uint64
	// BreakSendCount indicates the number of break signals sent.
	BreakSendCount atomic.Uint64
}

func (m *TransactionMetrics) incCommandSendCount() {
	m.CommandSendCount.Add(1)
}

func (m *TransactionMetrics) incResponseRecvCount() {
	m.ResponseRecvCount.Add(1)
}

func (m *TransactionMetrics) incRetryCount() {
	m.RetryCount.Add(1)
}

func (m *TransactionMetrics) incTimeoutCount() {
	m.TimeoutCount.Add(1)
}

func (m *TransactionMetrics) incCRCErrCount() {
	m.CRCErrCount.Add(1)
}

func (m *TransactionMetrics) incBreakSendCount() {
	m.BreakSendCount.Add(1)
}
