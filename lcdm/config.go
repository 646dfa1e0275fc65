package lcdm

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-lcdm/logger"
)

// Default protocol timings and limits.
const (
	DefaultAckDelay     = 700 * time.Millisecond // wait between writing a command and reading its ACK
	DefaultReadTimeout  = 2 * time.Second        // per-read timeout of the byte channel
	DefaultRetryLimit   = 3                      // attempts per handshake
	DefaultIdleInterval = 200 * time.Millisecond // max idle wait of the dispatcher
	DefaultCloseTimeout = 10 * time.Second
	DefaultBaudRate     = 9600
	DefaultQueueSize    = 16
)

// Option range limits.
const (
	MaxAckDelay = 5 * time.Second

	MinReadTimeout = 10 * time.Millisecond
	MaxReadTimeout = 30 * time.Second

	MinRetryLimit = 1
	MaxRetryLimit = 10

	MinIdleInterval = time.Millisecond
	MaxIdleInterval = 10 * time.Second
)

// DeviceConfig holds the configuration of a Device.
type DeviceConfig struct {
	deviceID byte
	baudRate int

	ackDelay    time.Duration
	readTimeout time.Duration
	retryLimit  int

	idleInterval time.Duration
	closeTimeout time.Duration
	queueSize    int

	logger logger.Logger
}

// NewDeviceConfig creates a DeviceConfig with defaults, then applies opts in order.
func NewDeviceConfig(opts ...DeviceOption) (*DeviceConfig, error) {
	cfg := &DeviceConfig{
		deviceID:     DefaultDeviceID,
		baudRate:     DefaultBaudRate,
		ackDelay:     DefaultAckDelay,
		readTimeout:  DefaultReadTimeout,
		retryLimit:   DefaultRetryLimit,
		idleInterval: DefaultIdleInterval,
		closeTimeout: DefaultCloseTimeout,
		queueSize:    DefaultQueueSize,
		logger:       logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// DeviceID returns the communication ID byte.
func (cfg *DeviceConfig) DeviceID() byte { return cfg.deviceID }

// BaudRate returns the serial baud rate used by Open.
func (cfg *DeviceConfig) BaudRate() int { return cfg.baudRate }

// AckDelay returns the wait between writing a command frame and reading its ACK.
func (cfg *DeviceConfig) AckDelay() time.Duration { return cfg.ackDelay }

// ReadTimeout returns the per-read timeout applied to the byte channel.
func (cfg *DeviceConfig) ReadTimeout() time.Duration { return cfg.readTimeout }

// RetryLimit returns the number of attempts of each handshake.
func (cfg *DeviceConfig) RetryLimit() int { return cfg.retryLimit }

// IdleInterval returns the longest time the dispatcher sleeps while the queue is empty.
func (cfg *DeviceConfig) IdleInterval() time.Duration { return cfg.idleInterval }

// CloseTimeout returns how long Close waits for the operation in flight.
func (cfg *DeviceConfig) CloseTimeout() time.Duration { return cfg.closeTimeout }

// QueueSize returns the initial capacity of the operation queue.
func (cfg *DeviceConfig) QueueSize() int { return cfg.queueSize }

// GetLogger returns the configured logger.
func (cfg *DeviceConfig) GetLogger() logger.Logger { return cfg.logger }

// DeviceOption is a functional option for configuring a DeviceConfig.
type DeviceOption interface {
	apply(*DeviceConfig) error
}

type deviceOptFunc func(*DeviceConfig) error

func (f deviceOptFunc) apply(cfg *DeviceConfig) error { return f(cfg) }

// WithDeviceID sets the communication ID byte. The default is 0x50.
func WithDeviceID(id byte) DeviceOption {
	return deviceOptFunc(func(cfg *DeviceConfig) error {
		switch id {
		case SOH, STX, ETX, EOT, ACK, NAK:
			return fmt.Errorf("lcdm: device ID 0x%02X collides with a control character", id)
		}
		cfg.deviceID = id

		return nil
	})
}

// WithBaudRate sets the serial baud rate. LCDM units support 9600 and 19200.
func WithBaudRate(baud int) DeviceOption {
	return deviceOptFunc(func(cfg *DeviceConfig) error {
		if baud != 9600 && baud != 19200 {
			return fmt.Errorf("lcdm: unsupported baud rate %d, want 9600 or 19200", baud)
		}
		cfg.baudRate = baud

		return nil
	})
}

// WithAckDelay sets the wait between writing a command frame and reading its ACK.
func WithAckDelay(d time.Duration) DeviceOption {
	return deviceOptFunc(func(cfg *DeviceConfig) error {
		if d < 0 || d > MaxAckDelay {
			return fmt.Errorf("lcdm: ACK delay %v out of range [0, %v]", d, MaxAckDelay)
		}
		cfg.ackDelay = d

		return nil
	})
}

// WithReadTimeout sets the per-read timeout of the byte channel.
func WithReadTimeout(d time.Duration) DeviceOption {
	return deviceOptFunc(func(cfg *DeviceConfig) error {
		if d < MinReadTimeout || d > MaxReadTimeout {
			return fmt.Errorf("lcdm: read timeout %v out of range [%v, %v]", d, MinReadTimeout, MaxReadTimeout)
		}
		cfg.readTimeout = d

		return nil
	})
}

// WithRetryLimit sets the number of attempts of the ACK and NAK handshakes.
func WithRetryLimit(n int) DeviceOption {
	return deviceOptFunc(func(cfg *DeviceConfig) error {
		if n < MinRetryLimit || n > MaxRetryLimit {
			return fmt.Errorf("lcdm: retry limit %d out of range [%d, %d]", n, MinRetryLimit, MaxRetryLimit)
		}
		cfg.retryLimit = n

		return nil
	})
}

// WithIdleInterval sets the longest dispatcher sleep while the queue is empty.
func WithIdleInterval(d time.Duration) DeviceOption {
	return deviceOptFunc(func(cfg *DeviceConfig) error {
		if d < MinIdleInterval || d > MaxIdleInterval {
			return fmt.Errorf("lcdm: idle interval %v out of range [%v, %v]", d, MinIdleInterval, MaxIdleInterval)
		}
		cfg.idleInterval = d

		return nil
	})
}

// WithCloseTimeout sets how long Close waits for the operation in flight.
func WithCloseTimeout(d time.Duration) DeviceOption {
	return deviceOptFunc(func(cfg *DeviceConfig) error {
		if d <= 0 {
			return errors.New("lcdm: close timeout must be positive")
		}
		cfg.closeTimeout = d

		return nil
	})
}

// WithQueueSize sets the initial capacity of the operation queue.
func WithQueueSize(size int) DeviceOption {
	return deviceOptFunc(func(cfg *DeviceConfig) error {
		if size < 1 {
			return errors.New("lcdm: queue size must be >= 1")
		}
		cfg.queueSize = size

		return nil
	})
}

// WithLogger sets the logger of the device.
func WithLogger(l logger.Logger) DeviceOption {
	return deviceOptFunc(func(cfg *DeviceConfig) error {
		if l == nil {
			return errors.New("lcdm: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
