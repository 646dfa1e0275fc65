package lcdm

import "fmt"

// OperationStatus is the terminal outcome of an operation.
type OperationStatus uint8

const (
	StatusGood OperationStatus = iota
	StatusNormalStop
	StatusPickupError
	StatusJam
	StatusOverflowBill
	StatusBillEnd
	StatusNoteRequestError
	StatusCountingError
	StatusTimeout
	StatusOverReject
	StatusDeviceError
	StatusConnectionError
)

var statusNames = [...]string{
	StatusGood:             "good",
	StatusNormalStop:       "normal_stop",
	StatusPickupError:      "pickup_error",
	StatusJam:              "jam",
	StatusOverflowBill:     "overflow_bill",
	StatusBillEnd:          "bill_end",
	StatusNoteRequestError: "note_request_error",
	StatusCountingError:    "counting_error",
	StatusTimeout:          "timeout",
	StatusOverReject:       "over_reject",
	StatusDeviceError:      "device_error",
	StatusConnectionError:  "connection_error",
}

func (s OperationStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}

	return fmt.Sprintf("OperationStatus(%d)", uint8(s))
}

// IsSuccess reports whether s lets a dispense cascade continue.
func (s OperationStatus) IsSuccess() bool {
	return s == StatusGood || s == StatusNormalStop
}

// statusByCode maps the error code byte of a response to an OperationStatus.
var statusByCode = map[byte]OperationStatus{
	0x30: StatusGood,             // good
	0x31: StatusNormalStop,       // normal stop
	0x32: StatusPickupError,      // pickup error
	0x33: StatusJam,              // jam at check sensor
	0x34: StatusOverflowBill,     // overflow bill
	0x35: StatusJam,              // jam at exit or eject sensor
	0x36: StatusJam,              // jam at divert sensor
	0x37: StatusDeviceError,      // undefined command
	0x38: StatusBillEnd,          // upper bill end
	0x3A: StatusCountingError,    // check/eject sensor count mismatch
	0x3B: StatusNoteRequestError, // bill count zero or over the limit
	0x3C: StatusCountingError,    // divert timeout
	0x3D: StatusCountingError,    // bill count error
	0x3F: StatusDeviceError,      // reject tray not recognised
	0x40: StatusBillEnd,          // lower bill end
	0x41: StatusDeviceError,      // motor stop
	0x42: StatusJam,              // jam at div sensor
	0x43: StatusTimeout,          // timeout from diverter to eject sensor
	0x44: StatusOverReject,       // over reject
	0x45: StatusDeviceError,      // upper cassette missing
	0x46: StatusDeviceError,      // lower cassette missing
	0x47: StatusTimeout,          // dispensing timeout
	0x48: StatusJam,              // jam at eject sensor
	0x49: StatusDeviceError,      // diverter solenoid or sensor error
	0x4A: StatusDeviceError,      // diverter abnormal
	0x4C: StatusJam,              // jam at lower check sensor
	0x4E: StatusJam,              // reverse jam
}

// LookupStatus maps a raw status byte. Unmapped bytes yield an *UnknownStatusError.
func LookupStatus(code byte) (OperationStatus, error) {
	status, ok := statusByCode[code]
	if !ok {
		return StatusDeviceError, &UnknownStatusError{Code: code}
	}

	return status, nil
}
