package lcdm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceMetrics_StatusCounts(t *testing.T) {
	m := newDeviceMetrics()
	assert.Equal(t, uint64(0), m.StatusCount(StatusJam))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.incStatusCount(StatusJam)
			m.incStatusCount(StatusGood)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(50), m.StatusCount(StatusJam))
	assert.Equal(t, map[OperationStatus]uint64{StatusJam: 50, StatusGood: 50}, m.StatusCounts())
}

func TestDeviceMetrics_Counters(t *testing.T) {
	m := newDeviceMetrics()

	m.incCommandSendCount()
	m.incCommandRetryCount()
	m.incResponseRecvCount()
	m.incResponseNakCount()
	m.incOperationCount()
	m.incOperationErrCount()
	m.setQueueGauge(3)

	assert.Equal(t, uint64(1), m.CommandSendCount.Load())
	assert.Equal(t, uint64(1), m.CommandRetryCount.Load())
	assert.Equal(t, uint64(1), m.ResponseRecvCount.Load())
	assert.Equal(t, uint64(1), m.ResponseNakCount.Load())
	assert.Equal(t, uint64(1), m.OperationCount.Load())
	assert.Equal(t, uint64(1), m.OperationErrCount.Load())
	assert.Equal(t, int64(3), m.QueueGauge.Load())
}
