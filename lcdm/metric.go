package lcdm

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// DeviceMetrics contains metrics of a Device.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type DeviceMetrics struct {
	// CommandSendCount indicates the number of command frames written, retries included.
	CommandSendCount atomic.Uint64
	// CommandRetryCount indicates the number of command attempts that got no ACK.
	CommandRetryCount atomic.Uint64
	// ResponseRecvCount indicates the number of valid response frames received.
	ResponseRecvCount atomic.Uint64
	// ResponseNakCount indicates the number of NAKs sent for short or corrupted responses.
	ResponseNakCount atomic.Uint64

	// OperationCount indicates the number of operations that ran to completion.
	OperationCount atomic.Uint64
	// OperationErrCount indicates the number of operations that ended with a link failure.
	OperationErrCount atomic.Uint64
	// QueueGauge indicates the number of operations waiting to run.
	QueueGauge atomic.Int64

	statusCounts *xsync.MapOf[OperationStatus, *xsync.Counter]
}

func newDeviceMetrics() *DeviceMetrics {
	return &DeviceMetrics{
		statusCounts: xsync.NewMapOf[OperationStatus, *xsync.Counter](),
	}
}

// StatusCount returns how many operations finished with the given status.
func (m *DeviceMetrics) StatusCount(status OperationStatus) uint64 {
	c, ok := m.statusCounts.Load(status)
	if !ok {
		return 0
	}

	return uint64(c.Value()) //nolint:gosec // counter only grows
}

// StatusCounts returns a snapshot of the per-status operation counts.
func (m *DeviceMetrics) StatusCounts() map[OperationStatus]uint64 {
	out := make(map[OperationStatus]uint64)
	m.statusCounts.Range(func(status OperationStatus, c *xsync.Counter) bool {
		out[status] = uint64(c.Value()) //nolint:gosec // counter only grows
		return true
	})

	return out
}

func (m *DeviceMetrics) incStatusCount(status OperationStatus) {
	c, _ := m.statusCounts.LoadOrCompute(status, xsync.NewCounter)
	c.Inc()
}

func (m *DeviceMetrics) incCommandSendCount() {
	m.CommandSendCount.Add(1)
}

func (m *DeviceMetrics) incCommandRetryCount() {
	m.CommandRetryCount.Add(1)
}

func (m *DeviceMetrics) incResponseRecvCount() {
	m.ResponseRecvCount.Add(1)
}

func (m *DeviceMetrics) incResponseNakCount() {
	m.ResponseNakCount.Add(1)
}

func (m *DeviceMetrics) incOperationCount() {
	m.OperationCount.Add(1)
}

func (m *DeviceMetrics) incOperationErrCount() {
	m.OperationErrCount.Add(1)
}

func (m *DeviceMetrics) setQueueGauge(n int) {
	m.QueueGauge.Store(int64(n))
}
