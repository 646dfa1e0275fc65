package lcdm

import "fmt"

// purgeResponseLen is the purge response payload: echoed command code and status byte.
const purgeResponseLen = 2

// purgeOperation clears notes left in the transport path. It takes a single round trip.
type purgeOperation struct {
	completed bool
	status    OperationStatus
	err       error
	result    *Future[OperationStatus]
}

func newPurgeOperation() *purgeOperation {
	return &purgeOperation{result: newFuture[OperationStatus]()}
}

func (op *purgeOperation) name() string { return "purge" }

func (op *purgeOperation) nextCommand() (Command, error) {
	if op.completed {
		return Command{}, ErrOperationCompleted
	}

	return NewCommand(CmdPurge, nil, purgeResponseLen), nil
}

// handleResponse expects [0x44][status].
func (op *purgeOperation) handleResponse(payload []byte) error {
	if op.completed {
		return ErrOperationCompleted
	}

	if len(payload) != purgeResponseLen {
		return fmt.Errorf("%w: purge response has %d bytes, want %d", ErrFraming, len(payload), purgeResponseLen)
	}

	if code := CommandCode(payload[0]); code != CmdPurge {
		return fmt.Errorf("%w: unexpected command %s in purge response", ErrFraming, code)
	}

	op.finish(LookupStatus(payload[1]))

	return nil
}

func (op *purgeOperation) markError(err error) {
	if op.completed {
		return
	}

	op.finish(StatusConnectionError, err)
}

func (op *purgeOperation) isCompleted() bool { return op.completed }

func (op *purgeOperation) outcome() (OperationStatus, error) { return op.status, op.err }

func (op *purgeOperation) finish(status OperationStatus, err error) {
	op.completed = true
	op.status = status
	op.err = err
	op.result.resolve(status, err)
}
