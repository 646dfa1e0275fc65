package lcdm

import (
	"fmt"

	"github.com/arloliu/go-lcdm/internal/util"
)

// MaxBillsPerCommand is the largest note count a single dispense command can request per cassette.
const MaxBillsPerCommand = 60

// Response payload sizes of the dispense commands, echoed command code included.
const (
	singleCassetteResponseLen = 9
	doubleCassetteResponseLen = 16
)

// Offsets of the fields inside dispense response payloads.
const (
	// single cassette: [cmd][..][..][exit tens][exit units][status][..][reject tens][reject units]
	singleExitOffset   = 3
	singleStatusOffset = 5
	singleRejectOffset = 7

	// upper and lower: upper exit 3-4, lower exit 7-8, status 9, upper reject 12-13, lower reject 14-15
	doubleUpperExitOffset   = 3
	doubleLowerExitOffset   = 7
	doubleStatusOffset      = 9
	doubleUpperRejectOffset = 12
	doubleLowerRejectOffset = 14
)

// dispenseOperation counts notes out of one or both cassettes.
//
// Requests above MaxBillsPerCommand are served by a cascade of commands; each
// response lowers the remaining counts by the notes that passed the exit sensor.
type dispenseOperation struct {
	remaining [2]uint32
	dispensed [2]uint32
	rejected  [2]uint32

	issued    CommandCode
	completed bool
	status    OperationStatus
	err       error
	result    *Future[DispenseResult]
}

// newDispenseOperation validates the request. Zero counts are treated as absent,
// so a request must hold a positive count for at least one known cassette.
func newDispenseOperation(requested BillQuantityByCassette) (*dispenseOperation, error) {
	op := &dispenseOperation{result: newFutureWithClone(DispenseResult.Clone)}

	for cassette, count := range requested {
		if !cassette.IsValid() {
			return nil, fmt.Errorf("%w: unknown cassette %s", ErrInvalidRequest, cassette)
		}
		op.remaining[cassette] = count
	}

	if op.remaining[Upper] == 0 && op.remaining[Lower] == 0 {
		return nil, fmt.Errorf("%w: no notes requested", ErrInvalidRequest)
	}

	return op, nil
}

func (op *dispenseOperation) name() string { return "dispense" }

func (op *dispenseOperation) nextCommand() (Command, error) {
	if op.completed {
		return Command{}, ErrOperationCompleted
	}

	upper, lower := op.remaining[Upper], op.remaining[Lower]

	var cmd Command
	switch {
	case upper > 0 && lower > 0:
		payload := appendBillCount(make([]byte, 0, 4), upper)
		payload = appendBillCount(payload, lower)
		cmd = NewCommand(CmdUpperLowerDispense, payload, doubleCassetteResponseLen)
	case upper > 0:
		cmd = NewCommand(CmdUpperDispense, appendBillCount(nil, upper), singleCassetteResponseLen)
	case lower > 0:
		cmd = NewCommand(CmdLowerDispense, appendBillCount(nil, lower), singleCassetteResponseLen)
	default:
		return Command{}, ErrOperationCompleted
	}

	op.issued = cmd.Code()

	return cmd, nil
}

func (op *dispenseOperation) handleResponse(payload []byte) error {
	if op.completed {
		return ErrOperationCompleted
	}

	if len(payload) == 0 {
		return fmt.Errorf("%w: empty dispense response", ErrFraming)
	}

	code := CommandCode(payload[0])
	if code != op.issued {
		return fmt.Errorf("%w: unexpected command %s in response to %s", ErrFraming, code, op.issued)
	}

	switch len(payload) {
	case singleCassetteResponseLen:
		return op.handleSingleResponse(code, payload)
	case doubleCassetteResponseLen:
		return op.handleDoubleResponse(code, payload)
	default:
		return fmt.Errorf("%w: dispense response has %d bytes", ErrFraming, len(payload))
	}
}

func (op *dispenseOperation) handleSingleResponse(code CommandCode, payload []byte) error {
	var cassette Cassette
	switch code {
	case CmdUpperDispense:
		cassette = Upper
	case CmdLowerDispense:
		cassette = Lower
	default:
		return fmt.Errorf("%w: %s response has %d bytes", ErrFraming, code, len(payload))
	}

	exited, err := decodeBillCount(payload, singleExitOffset)
	if err != nil {
		return err
	}

	rejected, err := decodeBillCount(payload, singleRejectOffset)
	if err != nil {
		return err
	}

	op.record(cassette, exited, rejected)
	op.applyStatus(payload[singleStatusOffset], exited)

	return nil
}

func (op *dispenseOperation) handleDoubleResponse(code CommandCode, payload []byte) error {
	if code != CmdUpperLowerDispense {
		return fmt.Errorf("%w: %s response has %d bytes", ErrFraming, code, len(payload))
	}

	// decode everything first so a malformed payload leaves the counts untouched
	var counts [4]uint32
	offsets := [4]int{doubleUpperExitOffset, doubleUpperRejectOffset, doubleLowerExitOffset, doubleLowerRejectOffset}
	for i, offset := range offsets {
		n, err := decodeBillCount(payload, offset)
		if err != nil {
			return err
		}
		counts[i] = n
	}

	op.record(Upper, counts[0], counts[1])
	op.record(Lower, counts[2], counts[3])
	op.applyStatus(payload[doubleStatusOffset], counts[0]+counts[2])

	return nil
}

// record books the notes that passed the exit sensor and the rejected notes of one cassette.
func (op *dispenseOperation) record(cassette Cassette, exited, rejected uint32) {
	op.dispensed[cassette] += exited
	op.rejected[cassette] += rejected
	op.remaining[cassette] -= min(exited, op.remaining[cassette])
}

// applyStatus finalizes the operation on a failure status, an unknown status,
// a stalled cascade or once nothing remains to dispense.
func (op *dispenseOperation) applyStatus(code byte, exited uint32) {
	status, err := LookupStatus(code)
	switch {
	case err != nil:
		op.finish(status, err)
	case !status.IsSuccess():
		op.finish(status, nil)
	case op.remaining[Upper] == 0 && op.remaining[Lower] == 0:
		op.finish(status, nil)
	case exited == 0:
		op.finish(status, ErrDispenseStalled)
	}
}

func (op *dispenseOperation) markError(err error) {
	if op.completed {
		return
	}

	op.finish(StatusConnectionError, err)
}

func (op *dispenseOperation) isCompleted() bool { return op.completed }

func (op *dispenseOperation) outcome() (OperationStatus, error) { return op.status, op.err }

func (op *dispenseOperation) finish(status OperationStatus, err error) {
	op.completed = true
	op.status = status
	op.err = err
	op.result.resolve(op.buildResult(status), err)
}

func (op *dispenseOperation) buildResult(status OperationStatus) DispenseResult {
	return DispenseResult{
		DispensedBills: BillQuantityByCassette{
			Upper: op.dispensed[Upper],
			Lower: op.dispensed[Lower],
		},
		RejectedBills: BillQuantityByCassette{
			Upper: op.rejected[Upper],
			Lower: op.rejected[Lower],
		},
		Status: status,
	}
}

// appendBillCount appends count, capped at MaxBillsPerCommand, as two ASCII digits.
func appendBillCount(dst []byte, count uint32) []byte {
	n := min(count, MaxBillsPerCommand)

	return append(dst, byte('0'+n/10), byte('0'+n%10))
}

// decodeBillCount reads the two ASCII digits at payload[offset:offset+2].
func decodeBillCount(payload []byte, offset int) (uint32, error) {
	if offset+1 >= len(payload) {
		return 0, fmt.Errorf("%w: count at offset %d out of range", ErrFraming, offset)
	}

	tens, units := payload[offset], payload[offset+1]
	if !util.IsASCIIDigit(tens) || !util.IsASCIIDigit(units) {
		return 0, fmt.Errorf("%w: count at offset %d is not decimal: 0x%02X 0x%02X", ErrFraming, offset, tens, units)
	}

	return uint32(tens-'0')*10 + uint32(units-'0'), nil
}
