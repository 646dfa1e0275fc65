package lcdm

import (
	"bytes"
	"errors"
	"testing"
)

// FuzzValidateResponse fuzzes response validation with arbitrary frames.
//
// The invariants are: ValidateResponse never panics, every error is a framing
// error, and an accepted frame re-encodes to exactly the input bytes.
func FuzzValidateResponse(f *testing.F) {
	// Seed: purge response, good status
	f.Add(responseFrame(DefaultDeviceID, []byte{0x44, 0x30}), 2)

	// Seed: single cassette dispense response
	f.Add(responseFrame(DefaultDeviceID, singleDispensePayload(CmdUpperDispense, 15, 1, 0x30)), singleCassetteResponseLen)

	// Seed: double cassette dispense response with a jam
	f.Add(responseFrame(DefaultDeviceID, doubleDispensePayload(10, 0, 5, 2, 0x33)), doubleCassetteResponseLen)

	// Seed: frame shorter than the envelope
	f.Add([]byte{SOH, DefaultDeviceID, STX}, 0)

	// Seed: empty input, negative length
	f.Add([]byte{}, -1)

	// Seed: control bytes inside the payload
	f.Add(responseFrame(DefaultDeviceID, []byte{ETX, SOH, STX}), 3)

	f.Fuzz(func(t *testing.T, frame []byte, payloadLen int) {
		payload, err := ValidateResponse(DefaultDeviceID, frame, payloadLen)
		if err != nil {
			if !errors.Is(err, ErrFraming) {
				t.Fatalf("error %v is not a framing error", err)
			}

			return
		}

		if len(payload) != payloadLen {
			t.Fatalf("payload length %d, want %d", len(payload), payloadLen)
		}

		if rebuilt := responseFrame(DefaultDeviceID, payload); !bytes.Equal(rebuilt, frame) {
			t.Fatalf("re-encoded frame % X differs from input % X", rebuilt, frame)
		}
	})
}

// FuzzEncodeCommand checks that every encoded command frame carries a valid
// BCC and its payload unchanged, for any code and payload.
func FuzzEncodeCommand(f *testing.F) {
	f.Add(byte(CmdPurge), []byte{})
	f.Add(byte(CmdUpperDispense), []byte("60"))
	f.Add(byte(CmdUpperLowerDispense), []byte("1005"))
	f.Add(byte(0x00), []byte{EOT, ETX, 0xFF})

	f.Fuzz(func(t *testing.T, code byte, payload []byte) {
		frame := EncodeCommand(DefaultDeviceID, CommandCode(code), payload)

		if len(frame) != len(payload)+commandOverhead {
			t.Fatalf("frame length %d, want %d", len(frame), len(payload)+commandOverhead)
		}

		if frame[0] != EOT || frame[1] != DefaultDeviceID || frame[2] != STX || frame[3] != code {
			t.Fatalf("bad header % X", frame[:4])
		}

		if !bytes.Equal(frame[4:len(frame)-2], payload) {
			t.Fatalf("payload % X not carried unchanged", payload)
		}

		if !hasCommandBCC(frame) {
			t.Fatalf("frame % X has no valid trailing BCC", frame)
		}

		// the trailing BCC folds the whole frame to zero
		if BCC(frame) != 0 {
			t.Fatalf("XOR over a complete frame must be zero, got 0x%02X", BCC(frame))
		}
	})
}
