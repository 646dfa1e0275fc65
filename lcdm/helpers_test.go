package lcdm

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/go-lcdm/logger"
	"github.com/stretchr/testify/require"
)

// newTestConfig creates a DeviceConfig with short timings suitable for tests.
func newTestConfig(t *testing.T, opts ...DeviceOption) *DeviceConfig {
	t.Helper()

	defaults := []DeviceOption{
		WithAckDelay(0),
		WithReadTimeout(MinReadTimeout),
		WithIdleInterval(5 * time.Millisecond),
		WithCloseTimeout(2 * time.Second),
		WithLogger(logger.GetLogger()),
	}

	cfg, err := NewDeviceConfig(append(defaults, opts...)...)
	require.NoError(t, err)

	return cfg
}

// newTestDevice starts a Device on top of a fresh simulator.
func newTestDevice(t *testing.T, opts ...DeviceOption) (*Device, *simDevice) {
	t.Helper()

	sim := newSimDevice()
	dev, err := NewDevice(context.Background(), sim, newTestConfig(t, opts...))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })

	return dev, sim
}

// responseFrame wraps payload into an LCDM response frame.
func responseFrame(id byte, payload []byte) []byte {
	frame := append([]byte{SOH, id, STX}, payload...)
	frame = append(frame, ETX)

	return append(frame, BCC(frame))
}

// digits renders n as two ASCII digits.
func digits(n uint32) []byte {
	return []byte{byte('0' + n/10), byte('0' + n%10)}
}

// singleDispensePayload builds the 9-byte response to an upper or lower dispense.
func singleDispensePayload(code CommandCode, exited, rejected uint32, status byte) []byte {
	p := []byte{byte(code)}
	p = append(p, digits(exited+rejected)...) // check sensor
	p = append(p, digits(exited)...)          // exit sensor
	p = append(p, status, '0')
	p = append(p, digits(rejected)...)

	return p
}

// doubleDispensePayload builds the 16-byte response to an upper and lower dispense.
func doubleDispensePayload(upperExit, upperReject, lowerExit, lowerReject uint32, status byte) []byte {
	p := []byte{byte(CmdUpperLowerDispense)}
	p = append(p, digits(upperExit+upperReject)...)
	p = append(p, digits(upperExit)...)
	p = append(p, digits(lowerExit+lowerReject)...)
	p = append(p, digits(lowerExit)...)
	p = append(p, status, '0', '0')
	p = append(p, digits(upperReject)...)
	p = append(p, digits(lowerReject)...)

	return p
}

// receivedCommand is a command frame the simulator accepted.
type receivedCommand struct {
	code    CommandCode
	payload []byte
}

// simDevice is an in-memory LCDM unit implementing ByteChannel.
//
// Every command frame is answered with ACK followed by the response built by
// respond; a NAK from the host resends the last response. Reads never block:
// an empty buffer reads as a timeout.
type simDevice struct {
	mu sync.Mutex

	id     byte
	output bytes.Buffer
	last   []byte

	commands   []receivedCommand
	handshakes []byte
	writes     [][]byte

	// respond builds the response payload of a command. The default answers
	// every request with full success.
	respond func(code CommandCode, payload []byte) []byte
	// onCommand, when set, is called outside the lock before a command is answered.
	onCommand func(code CommandCode, payload []byte)

	dropAcks      int  // commands to leave unanswered
	corruptFrames int  // response frames to send with a wrong BCC
	noResponse    bool // ACK commands but never send a response
	writeErr      error
	readErr       error
}

func newSimDevice() *simDevice {
	sim := &simDevice{id: DefaultDeviceID}
	sim.respond = sim.succeed

	return sim
}

// succeed reports every requested note as dispensed.
func (s *simDevice) succeed(code CommandCode, payload []byte) []byte {
	switch code {
	case CmdPurge:
		return []byte{byte(CmdPurge), 0x30}
	case CmdUpperDispense, CmdLowerDispense:
		n, _ := decodeBillCount(payload, 0)
		return singleDispensePayload(code, n, 0, 0x30)
	case CmdUpperLowerDispense:
		upper, _ := decodeBillCount(payload, 0)
		lower, _ := decodeBillCount(payload, 2)
		return doubleDispensePayload(upper, 0, lower, 0, 0x30)
	default:
		return []byte{byte(code), 0x37}
	}
}

func (s *simDevice) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return 0, s.readErr
	}

	if s.output.Len() == 0 {
		return 0, nil
	}

	return s.output.Read(p)
}

func (s *simDevice) Write(p []byte) (int, error) {
	s.mu.Lock()
	if s.writeErr != nil {
		err := s.writeErr
		s.mu.Unlock()

		return 0, err
	}

	data := append([]byte(nil), p...)
	s.writes = append(s.writes, data)

	if len(data) == 1 {
		s.handshakes = append(s.handshakes, data[0])
		if data[0] == NAK && s.last != nil {
			s.sendLocked(s.last)
		}
		s.mu.Unlock()

		return len(p), nil
	}

	if len(data) < commandOverhead || data[0] != EOT || !hasValidBCC(data) {
		s.mu.Unlock()
		return len(p), nil
	}

	if s.dropAcks > 0 {
		s.dropAcks--
		s.mu.Unlock()

		return len(p), nil
	}

	code := CommandCode(data[3])
	payload := append([]byte(nil), data[4:len(data)-2]...)
	s.commands = append(s.commands, receivedCommand{code: code, payload: payload})
	onCommand, respond := s.onCommand, s.respond
	s.mu.Unlock()

	if onCommand != nil {
		onCommand(code, payload)
	}
	resp := respond(code, payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.output.WriteByte(ACK)
	if s.noResponse {
		s.last = nil
		return len(p), nil
	}

	s.last = responseFrame(s.id, resp)
	s.sendLocked(s.last)

	return len(p), nil
}

// sendLocked queues frame for the host, corrupting it while corruptFrames > 0.
func (s *simDevice) sendLocked(frame []byte) {
	if s.corruptFrames > 0 {
		s.corruptFrames--
		bad := append([]byte(nil), frame...)
		bad[len(bad)-1] ^= 0xFF
		s.output.Write(bad)

		return
	}

	s.output.Write(frame)
}

func (s *simDevice) SetReadTimeout(time.Duration) error {
	return nil
}

func (s *simDevice) set(fn func(s *simDevice)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s)
}

func (s *simDevice) receivedCommands() []receivedCommand {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]receivedCommand(nil), s.commands...)
}

func (s *simDevice) receivedHandshakes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]byte(nil), s.handshakes...)
}

func (s *simDevice) receivedWrites() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([][]byte(nil), s.writes...)
}

// newTestTransport creates a frameTransport on top of sim whose sleeps are recorded instead of slept.
func newTestTransport(t *testing.T, sim *simDevice, opts ...DeviceOption) (*frameTransport, *[]time.Duration) {
	t.Helper()

	cfg := newTestConfig(t, opts...)
	ft := newFrameTransport(sim, cfg, cfg.logger, newDeviceMetrics())

	var sleeps []time.Duration
	ft.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	return ft, &sleeps
}
