package lcdm

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
)

// ByteChannel is the duplex byte stream a Device talks to.
//
// Read must return after the configured read timeout at the latest. A timeout
// is reported either as (0, nil), the go.bug.st/serial convention, or as an
// error satisfying os.ErrDeadlineExceeded or net.Error.Timeout(). Any other
// error is a channel failure.
//
// serial.Port from go.bug.st/serial satisfies this interface.
type ByteChannel interface {
	io.Reader
	io.Writer
	SetReadTimeout(t time.Duration) error
}

// inputResetter is implemented by channels that can discard unread input, such as serial ports.
type inputResetter interface {
	ResetInputBuffer() error
}

// errReadTimeout marks a read that returned fewer bytes than requested before the timeout.
var errReadTimeout = errors.New("lcdm: read timeout")

// OpenSerialPort opens a serial port with the LCDM line settings:
// 8 data bits, no parity, one stop bit, no flow control.
func OpenSerialPort(name string, baudRate int, readTimeout time.Duration) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("lcdm: open serial port %s: %w", name, err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("lcdm: set read timeout on %s: %w", name, err)
	}

	return port, nil
}

// connChannel adapts a net.Conn, e.g. a connection to a serial device server,
// to ByteChannel using per-read deadlines.
type connChannel struct {
	conn    net.Conn
	timeout atomic.Int64
}

// NewConnChannel wraps conn as a ByteChannel. Closing conn remains the caller's duty.
func NewConnChannel(conn net.Conn) ByteChannel {
	return &connChannel{conn: conn}
}

func (c *connChannel) Read(p []byte) (int, error) {
	if d := time.Duration(c.timeout.Load()); d > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(d)); err != nil {
			return 0, err
		}
	}

	n, err := c.conn.Read(p)
	if err != nil && isTimeoutError(err) {
		return n, nil
	}

	return n, err
}

func (c *connChannel) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

func (c *connChannel) SetReadTimeout(t time.Duration) error {
	c.timeout.Store(int64(t))
	return nil
}

func isTimeoutError(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
