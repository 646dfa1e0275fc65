package lcdm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupStatus_Table(t *testing.T) {
	want := map[byte]OperationStatus{
		0x30: StatusGood,
		0x31: StatusNormalStop,
		0x32: StatusPickupError,
		0x33: StatusJam,
		0x34: StatusOverflowBill,
		0x35: StatusJam,
		0x36: StatusJam,
		0x37: StatusDeviceError,
		0x38: StatusBillEnd,
		0x3A: StatusCountingError,
		0x3B: StatusNoteRequestError,
		0x3C: StatusCountingError,
		0x3D: StatusCountingError,
		0x3F: StatusDeviceError,
		0x40: StatusBillEnd,
		0x41: StatusDeviceError,
		0x42: StatusJam,
		0x43: StatusTimeout,
		0x44: StatusOverReject,
		0x45: StatusDeviceError,
		0x46: StatusDeviceError,
		0x47: StatusTimeout,
		0x48: StatusJam,
		0x49: StatusDeviceError,
		0x4A: StatusDeviceError,
		0x4C: StatusJam,
		0x4E: StatusJam,
	}

	for code, status := range want {
		got, err := LookupStatus(code)
		require.NoError(t, err, "code 0x%02X", code)
		assert.Equal(t, status, got, "code 0x%02X", code)
	}

	for code := range 256 {
		if _, ok := want[byte(code)]; ok {
			continue
		}

		_, err := LookupStatus(byte(code))
		assert.ErrorIs(t, err, ErrUnknownStatusCode, "code 0x%02X", code)
	}
}

func TestLookupStatus_Unknown(t *testing.T) {
	status, err := LookupStatus(0x39)
	assert.Equal(t, StatusDeviceError, status)

	var unknown *UnknownStatusError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, byte(0x39), unknown.Code)
	assert.Equal(t, "lcdm: unknown status code 0x39", err.Error())
}

func TestOperationStatus_String(t *testing.T) {
	assert.Equal(t, "good", StatusGood.String())
	assert.Equal(t, "jam", StatusJam.String())
	assert.Equal(t, "connection_error", StatusConnectionError.String())
	assert.Equal(t, "OperationStatus(99)", OperationStatus(99).String())
}

func TestOperationStatus_IsSuccess(t *testing.T) {
	assert.True(t, StatusGood.IsSuccess())
	assert.True(t, StatusNormalStop.IsSuccess())
	assert.False(t, StatusJam.IsSuccess())
	assert.False(t, StatusConnectionError.IsSuccess())
}

func TestCommandCode_String(t *testing.T) {
	assert.Equal(t, "purge", CmdPurge.String())
	assert.Equal(t, "upper_lower_dispense", CmdUpperLowerDispense.String())
	assert.Equal(t, "unknown(0x99)", CommandCode(0x99).String())
}

func TestCommand_CopiesPayload(t *testing.T) {
	payload := []byte("10")
	cmd := NewCommand(CmdUpperDispense, payload, singleCassetteResponseLen)
	payload[0] = '9'

	assert.Equal(t, []byte("10"), cmd.Payload())
	assert.Equal(t, CmdUpperDispense, cmd.Code())
	assert.Equal(t, singleCassetteResponseLen, cmd.ResponseLen())
	assert.Equal(t, EncodeCommand(0x50, CmdUpperDispense, []byte("10")), cmd.Frame(0x50))
}

func TestCassette(t *testing.T) {
	assert.True(t, Upper.IsValid())
	assert.True(t, Lower.IsValid())
	assert.False(t, Cassette(2).IsValid())
	assert.Equal(t, "upper", Upper.String())
	assert.Equal(t, "Cassette(7)", Cassette(7).String())

	q := BillQuantityByCassette{Upper: 3, Lower: 4}
	assert.Equal(t, uint32(7), q.Total())
}
