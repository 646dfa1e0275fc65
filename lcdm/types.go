package lcdm

import (
	"fmt"
	"maps"
)

// Cassette identifies a physical note cassette.
type Cassette uint8

const (
	Upper Cassette = iota
	Lower
)

func (c Cassette) String() string {
	switch c {
	case Upper:
		return "upper"
	case Lower:
		return "lower"
	default:
		return fmt.Sprintf("Cassette(%d)", uint8(c))
	}
}

// IsValid reports whether c names a physical cassette.
func (c Cassette) IsValid() bool {
	return c == Upper || c == Lower
}

// BillQuantityByCassette holds a note count per cassette, either a dispense request
// or a dispensed/rejected result.
type BillQuantityByCassette map[Cassette]uint32

// Total returns the sum of all counts.
func (q BillQuantityByCassette) Total() uint32 {
	var total uint32
	for _, n := range q {
		total += n
	}

	return total
}

// DispenseResult is the outcome of a dispense operation.
//
// DispensedBills and RejectedBills always carry both cassettes. The counts are
// accurate up to the point where the operation stopped, also when Status is a failure.
// Every Future.Wait call returns its own copy of the maps.
type DispenseResult struct {
	DispensedBills BillQuantityByCassette
	RejectedBills  BillQuantityByCassette
	Status         OperationStatus
}

// Clone returns a copy of r with its own maps.
func (r DispenseResult) Clone() DispenseResult {
	return DispenseResult{
		DispensedBills: maps.Clone(r.DispensedBills),
		RejectedBills:  maps.Clone(r.RejectedBills),
		Status:         r.Status,
	}
}
