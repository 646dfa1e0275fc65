// Package lcdm drives an LCDM cash dispensing module (Puloon LCDM family) over
// a serial link.
//
// # Protocol Overview
//
// The LCDM protocol is half-duplex and strictly request/response. The host
// sends one command frame and the device answers with one response frame:
//
//	host   -> EOT ID STX <code> <payload...> ETX BCC
//	device -> ACK
//	device -> SOH ID STX <payload...> ETX BCC
//	host   -> ACK (or NAK to request a resend)
//
// BCC is the XOR of every preceding byte of the frame. The host resends a
// command frame up to three times, waiting about 700ms for the ACK each time,
// and requests a response resend with NAK up to three times.
//
// # Operations
//
// A [Device] owns the byte channel and runs a single dispatcher goroutine that
// executes queued operations one at a time, in submission order:
//
//   - [Device.Purge] clears notes left in the transport path.
//   - [Device.Dispense] counts notes out of the upper and/or lower cassette.
//     Requests above 60 notes per cassette are split into several commands,
//     and a partially failed command is reported with the counts reached so far.
//
// Both return a [Future] that is resolved exactly once. Device faults such as
// jams are reported in the result status; link failures resolve the result
// with [StatusConnectionError] and a non-nil error.
//
// # Example
//
//	dev, err := lcdm.Open(ctx, "/dev/ttyUSB0")
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	fut, err := dev.Dispense(lcdm.BillQuantityByCassette{lcdm.Upper: 5})
//	if err != nil {
//	    return err
//	}
//	res, err := fut.Wait(ctx)
package lcdm
