package lcdm

import (
	"errors"
	"fmt"
)

// Sentinel errors of the LCDM protocol engine.
var (
	// Request errors, returned synchronously before an operation is queued.
	ErrInvalidRequest = errors.New("lcdm: invalid request")
	ErrDeviceClosed   = errors.New("lcdm: device closed")

	// Frame-level errors.
	ErrFraming          = errors.New("lcdm: framing error")
	ErrChecksumMismatch = fmt.Errorf("%w: checksum mismatch", ErrFraming)

	// Link-level errors. Retries are exhausted before these are reported.
	ErrTransport    = errors.New("lcdm: transport error")
	ErrAckExhausted = fmt.Errorf("%w: no ACK after retries", ErrTransport)
	ErrNakExhausted = fmt.Errorf("%w: no valid response after retries", ErrTransport)

	// Operation errors.
	ErrUnknownStatusCode  = errors.New("lcdm: unknown status code")
	ErrOperationCompleted = errors.New("lcdm: operation is completed")
	// ErrDispenseStalled ends a dispense whose command reported a success status
	// but moved no note. The result then carries StatusGood or StatusNormalStop
	// together with this non-nil error.
	ErrDispenseStalled = errors.New("lcdm: dispense made no progress")
)

// UnknownStatusError reports a status byte that is absent from the status table.
type UnknownStatusError struct {
	Code byte
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("lcdm: unknown status code 0x%02X", e.Code)
}

// Is makes errors.Is(err, ErrUnknownStatusCode) hold.
func (e *UnknownStatusError) Is(target error) bool {
	return target == ErrUnknownStatusCode
}
