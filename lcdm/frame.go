package lcdm

import (
	"fmt"

	"github.com/arloliu/go-lcdm/internal/util"
)

// Control characters of the LCDM protocol.
const (
	SOH byte = 0x01 // start of a response frame
	STX byte = 0x02 // start of text
	ETX byte = 0x03 // end of text
	EOT byte = 0x04 // start of a command frame
	ACK byte = 0x06 // correct reception
	NAK byte = 0x15 // incorrect reception, resend requested
)

// DefaultDeviceID is the communication ID byte of an LCDM unit.
const DefaultDeviceID byte = 0x50

// responseOverhead is SOH, ID, STX, ETX and BCC around a response payload.
const responseOverhead = 5

// commandOverhead is EOT, ID, STX, code, ETX and BCC around a command payload.
const commandOverhead = 6

// BCC computes the block check character of data: the XOR of all its bytes.
func BCC(data []byte) byte {
	var bcc byte
	for _, b := range data {
		bcc ^= b
	}

	return bcc
}

// EncodeCommand builds a command frame:
//
//	[EOT][ID][STX][code][payload...][ETX][BCC]
func EncodeCommand(id byte, code CommandCode, payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+commandOverhead)
	frame = append(frame, EOT, id, STX, byte(code))
	frame = append(frame, payload...)
	frame = append(frame, ETX)

	return append(frame, BCC(frame))
}

// ResponseFrameLen returns the wire length of a response frame carrying payloadLen bytes.
func ResponseFrameLen(payloadLen int) int {
	return payloadLen + responseOverhead
}

// ValidateResponse checks a response frame and returns a copy of its payload.
//
// The frame must be exactly ResponseFrameLen(payloadLen) bytes of
//
//	[SOH][ID][STX][payload...][ETX][BCC]
//
// A wrong length or control byte yields ErrFraming, a wrong BCC yields ErrChecksumMismatch.
func ValidateResponse(id byte, frame []byte, payloadLen int) ([]byte, error) {
	if payloadLen < 0 || len(frame) != ResponseFrameLen(payloadLen) {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrFraming, len(frame), ResponseFrameLen(payloadLen))
	}

	etxPos := len(frame) - 2
	switch {
	case frame[0] != SOH:
		return nil, fmt.Errorf("%w: expected SOH (0x%02X), got 0x%02X", ErrFraming, SOH, frame[0])
	case frame[1] != id:
		return nil, fmt.Errorf("%w: expected ID 0x%02X, got 0x%02X", ErrFraming, id, frame[1])
	case frame[2] != STX:
		return nil, fmt.Errorf("%w: expected STX (0x%02X), got 0x%02X", ErrFraming, STX, frame[2])
	case frame[etxPos] != ETX:
		return nil, fmt.Errorf("%w: expected ETX (0x%02X), got 0x%02X", ErrFraming, ETX, frame[etxPos])
	}

	wire := frame[len(frame)-1]
	if calc := BCC(frame[:len(frame)-1]); wire != calc {
		return nil, fmt.Errorf("%w: wire=0x%02X, computed=0x%02X", ErrChecksumMismatch, wire, calc)
	}

	return util.CloneSlice(frame[3:etxPos]), nil
}

// hasValidBCC reports whether the last byte of frame is the BCC of the bytes before it.
func hasValidBCC(frame []byte) bool {
	if len(frame) < 2 {
		return false
	}

	return frame[len(frame)-1] == BCC(frame[:len(frame)-1])
}
