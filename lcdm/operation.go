package lcdm

// operation is one logical request driven by the dispatcher through one or
// more command round trips. The set of implementations is closed:
// *purgeOperation and *dispenseOperation.
//
// An operation is owned by exactly one goroutine at a time (the submitter,
// then the queue, then the dispatcher) and is never used concurrently.
type operation interface {
	// name identifies the operation kind in logs.
	name() string
	// nextCommand returns the command of the next round trip.
	// It fails with ErrOperationCompleted once the operation is completed.
	nextCommand() (Command, error)
	// handleResponse consumes the validated payload of the last command's response.
	// A non-nil error means the payload did not fit the command; the caller is
	// expected to call markError with it.
	handleResponse(payload []byte) error
	// markError finalizes the operation after a link or framing failure.
	// It is a no-op on a completed operation.
	markError(err error)
	// isCompleted reports whether the result has been delivered.
	isCompleted() bool
	// outcome returns the final status and error. Valid once completed.
	outcome() (OperationStatus, error)
}

var (
	_ operation = (*purgeOperation)(nil)
	_ operation = (*dispenseOperation)(nil)
)
