package lcdm

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-lcdm/internal/util"
	"github.com/arloliu/go-lcdm/logger"
)

// frameTransport implements the two LCDM handshakes on top of a ByteChannel:
// writing a command until the device ACKs it, and reading a response until
// it passes validation.
//
// This type is NOT goroutine-safe. The dispatcher goroutine is its only user,
// consistent with the half-duplex nature of the protocol.
type frameTransport struct {
	ch      ByteChannel
	cfg     *DeviceConfig
	logger  logger.Logger
	metrics *DeviceMetrics
	sleep   func(time.Duration)
}

func newFrameTransport(ch ByteChannel, cfg *DeviceConfig, l logger.Logger, metrics *DeviceMetrics) *frameTransport {
	return &frameTransport{
		ch:      ch,
		cfg:     cfg,
		logger:  l,
		metrics: metrics,
		sleep:   time.Sleep,
	}
}

// --- Low-level I/O helpers ---

// readFull reads exactly len(buf) bytes. It returns the number of bytes read
// and errReadTimeout if the channel went silent before buf was filled.
func (ft *frameTransport) readFull(buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := ft.ch.Read(buf[read:])
		read += n

		if err != nil {
			if isTimeoutError(err) {
				return read, errReadTimeout
			}

			return read, err
		}

		if n == 0 {
			return read, errReadTimeout
		}
	}

	return read, nil
}

// readByte reads a single byte, returning errReadTimeout if none arrives.
func (ft *frameTransport) readByte() (byte, error) {
	var b [1]byte
	if _, err := ft.readFull(b[:]); err != nil {
		return 0, err
	}

	return b[0], nil
}

// writeByte writes a single handshake byte (ACK or NAK).
func (ft *frameTransport) writeByte(b byte) error {
	return ft.writeAll([]byte{b})
}

// writeAll writes all bytes in data to the channel.
func (ft *frameTransport) writeAll(data []byte) error {
	for written := 0; written < len(data); {
		n, err := ft.ch.Write(data[written:])
		written += n

		if err != nil {
			return err
		}

		if n == 0 {
			return errors.New("lcdm: channel accepted no bytes")
		}
	}

	return nil
}

// discardInput drops stale input, if the channel supports it.
func (ft *frameTransport) discardInput() {
	if r, ok := ft.ch.(inputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			ft.logger.Debug("lcdm: failed to reset input buffer", "error", err)
		}
	}
}

// --- Send ---

// sendAndAck writes a command frame and waits for the device's ACK.
//
// The BCC is appended if frame does not end with one. Each attempt writes the
// whole frame, sleeps for the ACK delay and reads one byte. A read timeout or a
// byte other than ACK fails the attempt; a channel error aborts at once.
//
// Returns ErrAckExhausted after RetryLimit failed attempts.
func (ft *frameTransport) sendAndAck(frame []byte) error {
	if !hasCommandBCC(frame) {
		frame = append(util.CloneSlice(frame), BCC(frame))
	}

	ft.discardInput()

	for attempt := 1; attempt <= ft.cfg.retryLimit; attempt++ {
		if err := ft.writeAll(frame); err != nil {
			return fmt.Errorf("%w: write command: %w", ErrTransport, err)
		}
		ft.metrics.incCommandSendCount()

		ft.sleep(ft.cfg.ackDelay)

		b, err := ft.readByte()
		switch {
		case err == nil && b == ACK:
			return nil

		case err == nil:
			ft.logger.Debug("lcdm: expected ACK",
				"got", fmt.Sprintf("0x%02X", b),
				"attempt", attempt,
				"maxAttempt", ft.cfg.retryLimit,
			)

		case errors.Is(err, errReadTimeout):
			ft.logger.Debug("lcdm: ACK timeout",
				"attempt", attempt,
				"maxAttempt", ft.cfg.retryLimit,
			)

		default:
			return fmt.Errorf("%w: read ACK: %w", ErrTransport, err)
		}

		ft.metrics.incCommandRetryCount()
	}

	return ErrAckExhausted
}

// hasCommandBCC reports whether a command frame already carries its trailing BCC.
func hasCommandBCC(frame []byte) bool {
	return len(frame) >= 2 && frame[len(frame)-2] == ETX && hasValidBCC(frame)
}

// --- Receive ---

// receiveAndAck reads a response frame carrying payloadLen bytes and returns the payload.
//
// A short read or a frame failing ValidateResponse is answered with NAK and read
// again; a valid frame is answered with ACK. A channel error aborts at once.
//
// Returns ErrNakExhausted after RetryLimit failed attempts.
func (ft *frameTransport) receiveAndAck(payloadLen int) ([]byte, error) {
	buf := make([]byte, ResponseFrameLen(payloadLen))

	var lastErr error
	for attempt := 1; attempt <= ft.cfg.retryLimit; attempt++ {
		n, err := ft.readFull(buf)
		if err == nil {
			payload, verr := ValidateResponse(ft.cfg.deviceID, buf, payloadLen)
			if verr == nil {
				if err := ft.writeByte(ACK); err != nil {
					return nil, fmt.Errorf("%w: send ACK: %w", ErrTransport, err)
				}
				ft.metrics.incResponseRecvCount()

				return payload, nil
			}

			err = verr
		} else if !errors.Is(err, errReadTimeout) {
			return nil, fmt.Errorf("%w: read response: %w", ErrTransport, err)
		}

		lastErr = err
		ft.logger.Debug("lcdm: invalid response, sending NAK",
			"error", err,
			"bytesRead", n,
			"attempt", attempt,
			"maxAttempt", ft.cfg.retryLimit,
		)

		if err := ft.writeByte(NAK); err != nil {
			return nil, fmt.Errorf("%w: send NAK: %w", ErrTransport, err)
		}
		ft.metrics.incResponseNakCount()
	}

	return nil, fmt.Errorf("%w (last error: %v)", ErrNakExhausted, lastErr)
}
