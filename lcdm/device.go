package lcdm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/arloliu/go-lcdm/internal/task"
	"github.com/arloliu/go-lcdm/logger"
)

// Device is a connection to one LCDM unit.
//
// All device access happens on a single dispatcher goroutine which runs queued
// operations one at a time in submission order. Purge and Dispense only queue
// an operation and return its Future; they never block on the device.
//
// A Device is safe for concurrent use.
type Device struct {
	cfg     *DeviceConfig
	logger  logger.Logger
	ch      ByteChannel
	closer  io.Closer // set when the Device owns the channel, never changed afterwards
	metrics *DeviceMetrics

	transport *frameTransport
	queue     *operationQueue
	taskMgr   *task.Manager

	// current is the operation in flight. Only the dispatcher goroutine touches it.
	current operation

	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewDevice creates a Device on top of ch and starts its dispatcher.
//
// The Device does not close ch; use [Open] for a Device that owns its serial port.
// Cancelling ctx has the same effect as calling [Device.Close].
func NewDevice(ctx context.Context, ch ByteChannel, cfg *DeviceConfig) (*Device, error) {
	return newDevice(ctx, ch, cfg, nil)
}

// newDevice creates a Device that closes closer, when not nil, on Close.
// closer is set before the dispatcher and the context watcher start.
func newDevice(ctx context.Context, ch ByteChannel, cfg *DeviceConfig, closer io.Closer) (*Device, error) {
	if ch == nil {
		return nil, errors.New("lcdm: byte channel is nil")
	}

	if cfg == nil {
		return nil, errors.New("lcdm: device config is nil")
	}

	if err := ch.SetReadTimeout(cfg.readTimeout); err != nil {
		return nil, fmt.Errorf("lcdm: set read timeout: %w", err)
	}

	l := cfg.logger.With("device_id", fmt.Sprintf("0x%02X", cfg.deviceID))
	metrics := newDeviceMetrics()

	d := &Device{
		cfg:       cfg,
		logger:    l,
		ch:        ch,
		closer:    closer,
		metrics:   metrics,
		transport: newFrameTransport(ch, cfg, l, metrics),
		queue:     newOperationQueue(cfg.queueSize),
		taskMgr:   task.NewManager(ctx, l),
		closed:    make(chan struct{}),
	}

	if err := d.taskMgr.Start("dispatcher", d.dispatchIteration, d.recoverOperation); err != nil {
		return nil, err
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = d.Close()
		case <-d.closed:
		}
	}()

	return d, nil
}

// Open opens the serial port portName with the LCDM line settings and creates a
// Device that owns it. The port is closed by [Device.Close].
func Open(ctx context.Context, portName string, opts ...DeviceOption) (*Device, error) {
	cfg, err := NewDeviceConfig(opts...)
	if err != nil {
		return nil, err
	}

	port, err := OpenSerialPort(portName, cfg.baudRate, cfg.readTimeout)
	if err != nil {
		return nil, err
	}

	d, err := newDevice(ctx, port, cfg, port)
	if err != nil {
		_ = port.Close()
		return nil, err
	}

	d.logger.Info("lcdm: serial port opened", "port", portName, "baud", cfg.baudRate)

	return d, nil
}

// Purge queues a purge of the transport path.
//
// The Future yields the device status, or StatusConnectionError and a non-nil
// error if the link failed. It fails with ErrDeviceClosed after Close.
func (d *Device) Purge() (*Future[OperationStatus], error) {
	op := newPurgeOperation()
	if err := d.submit(op); err != nil {
		return nil, err
	}

	return op.result, nil
}

// Dispense queues a dispense of the requested note counts.
//
// Cassettes with a zero count are ignored. A request without any positive
// count or with an unknown cassette fails with ErrInvalidRequest.
//
// The Future yields the notes dispensed and rejected per cassette, counted up
// to the point where the operation stopped, and the final status.
func (d *Device) Dispense(requested BillQuantityByCassette) (*Future[DispenseResult], error) {
	op, err := newDispenseOperation(requested)
	if err != nil {
		return nil, err
	}

	if err := d.submit(op); err != nil {
		return nil, err
	}

	return op.result, nil
}

// Close stops the dispatcher after the operation in flight, resolves every
// queued operation with ErrDeviceClosed and closes the owned serial port.
//
// It is safe to call Close more than once; later calls return the first result.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.doClose()
	})

	return d.closeErr
}

// GetMetrics returns the metrics of the device.
func (d *Device) GetMetrics() *DeviceMetrics {
	return d.metrics
}

// GetLogger returns the logger of the device.
func (d *Device) GetLogger() logger.Logger {
	return d.logger
}

func (d *Device) submit(op operation) error {
	n, err := d.queue.push(op)
	if err != nil {
		return err
	}

	d.metrics.setQueueGauge(n)
	d.logger.Debug("lcdm: operation queued", "operation", op.name(), "queueLen", n)

	return nil
}

func (d *Device) doClose() error {
	close(d.closed)
	d.logger.Debug("lcdm: start to close device")

	// queued operations never reach the dispatcher again
	pending := d.queue.close()
	for _, op := range pending {
		op.markError(ErrDeviceClosed)
	}
	d.metrics.setQueueGauge(0)

	if len(pending) > 0 {
		d.logger.Info("lcdm: queued operations cancelled", "count", len(pending))
	}

	d.taskMgr.Stop()
	err := d.taskMgr.WaitTimeout(d.cfg.closeTimeout)
	if err != nil {
		d.logger.Error("lcdm: close device timeout", "timeout", d.cfg.closeTimeout)
		err = fmt.Errorf("lcdm: close device: %w", err)
	}

	if d.closer != nil {
		if cerr := d.closer.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("lcdm: close channel: %w", cerr))
		}
	}

	d.logger.Debug("lcdm: device closed")

	return err
}

// --- Dispatcher ---

// dispatchIteration runs at most one operation. It always returns true; the
// task manager ends the loop once the device is closed.
func (d *Device) dispatchIteration(ctx context.Context) bool {
	op := d.queue.wait(ctx, d.cfg.idleInterval)
	if op == nil {
		return true
	}
	d.metrics.setQueueGauge(d.queue.len())

	d.current = op
	d.runOperation(op)
	d.current = nil

	return true
}

// runOperation drives op through its command round trips until it completes.
func (d *Device) runOperation(op operation) {
	d.logger.Debug("lcdm: operation started", "operation", op.name())

	for !op.isCompleted() {
		cmd, err := op.nextCommand()
		if err != nil {
			d.logger.Error("lcdm: operation has no command to send", "operation", op.name(), "error", err)
			op.markError(err)

			break
		}

		payload, err := d.roundTrip(cmd)
		if err == nil {
			err = op.handleResponse(payload)
		}

		if err != nil {
			d.logger.Warn("lcdm: command failed", "operation", op.name(), "code", cmd.Code().String(), "error", err)
			op.markError(err)

			break
		}
	}

	d.recordOutcome(op)
}

// roundTrip sends one command and returns the payload of its response.
func (d *Device) roundTrip(cmd Command) ([]byte, error) {
	d.logger.Debug("lcdm: send command", "code", cmd.Code().String(), "payload", string(cmd.payload))

	if err := d.transport.sendAndAck(cmd.Frame(d.cfg.deviceID)); err != nil {
		return nil, err
	}

	return d.transport.receiveAndAck(cmd.ResponseLen())
}

func (d *Device) recordOutcome(op operation) {
	status, err := op.outcome()

	d.metrics.incOperationCount()
	d.metrics.incStatusCount(status)

	if err != nil {
		d.metrics.incOperationErrCount()
		d.logger.Warn("lcdm: operation finished with error", "operation", op.name(), "status", status.String(), "error", err)

		return
	}

	d.logger.Info("lcdm: operation finished", "operation", op.name(), "status", status.String())
}

// recoverOperation resolves the operation in flight after a panic in the dispatcher.
func (d *Device) recoverOperation(r any) {
	op := d.current
	d.current = nil

	if op == nil || op.isCompleted() {
		return
	}

	op.markError(fmt.Errorf("%w: operation panicked: %v", ErrTransport, r))
	d.recordOutcome(op)
}
