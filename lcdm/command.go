package lcdm

import (
	"fmt"

	"github.com/arloliu/go-lcdm/internal/util"
)

// CommandCode identifies an LCDM command on the wire.
type CommandCode byte

const (
	CmdPurge              CommandCode = 0x44
	CmdUpperDispense      CommandCode = 0x45
	CmdStatus             CommandCode = 0x46
	CmdRomVersion         CommandCode = 0x47
	CmdLowerDispense      CommandCode = 0x55
	CmdUpperLowerDispense CommandCode = 0x56
	CmdUpperTestDispense  CommandCode = 0x76
	CmdLowerTestDispense  CommandCode = 0x77
)

func (c CommandCode) String() string {
	switch c {
	case CmdPurge:
		return "purge"
	case CmdUpperDispense:
		return "upper_dispense"
	case CmdStatus:
		return "status"
	case CmdRomVersion:
		return "rom_version"
	case CmdLowerDispense:
		return "lower_dispense"
	case CmdUpperLowerDispense:
		return "upper_lower_dispense"
	case CmdUpperTestDispense:
		return "upper_test_dispense"
	case CmdLowerTestDispense:
		return "lower_test_dispense"
	default:
		return fmt.Sprintf("unknown(0x%02X)", byte(c))
	}
}

// Command is one command round trip: what to send and how long the response payload is.
type Command struct {
	code        CommandCode
	payload     []byte
	responseLen int
}

// NewCommand creates a Command. The payload is copied.
func NewCommand(code CommandCode, payload []byte, responseLen int) Command {
	return Command{code: code, payload: util.CloneSlice(payload), responseLen: responseLen}
}

// Code returns the command code.
func (c Command) Code() CommandCode { return c.code }

// Payload returns a copy of the command data.
func (c Command) Payload() []byte { return util.CloneSlice(c.payload) }

// ResponseLen returns the expected response payload length, echoed command code included.
func (c Command) ResponseLen() int { return c.responseLen }

// Frame encodes the command for the device with the given ID.
func (c Command) Frame(id byte) []byte {
	return EncodeCommand(id, c.code, c.payload)
}
