package tracking

import (
	"fmt"
	"slices"
)

// Event codes the status policy distinguishes.
const (
	CodeBooked       = "BKD"
	CodeExecuted     = "EXE"
	CodePreManifest  = "PRE"
	CodeManifested   = "MAN"
	CodeDeparted     = "DEP"
	CodeArrived      = "ARR"
	CodeReceived     = "RCF"
	CodeAwaiting     = "AWD"
	CodeDelivered    = "DLV"
	CodeNoFurther    = "NFD"
	CodeProofOfDeliv = "POD"
)

// Fixed statuses outside the decision table.
const (
	StatusFailed      = "tracking failed"
	StatusSystemError = "system error"
	StatusDelivered   = "received by consignee"
)

var (
	originFamily   = []string{CodeBooked, CodeExecuted, CodePreManifest, CodeManifested}
	transitHolding = []string{CodeArrived, CodeReceived, CodePreManifest, CodeManifested}
	destArrival    = []string{CodeArrived, CodeReceived, CodeAwaiting, CodeDelivered, CodeNoFurther}
	deliveredCodes = []string{CodeDelivered, CodeProofOfDeliv}
)

func isOriginFamily(code string) bool {
	return slices.Contains(originFamily, code)
}

// Decide maps an event onto a status line. The first matching rule wins
// and the final rule always matches.
func Decide(ev ExtractedEvent, topo LegTopology) string {
	atOrigin := ev.Location == topo.Origin
	atTransit := topo.HasTransit() && ev.Location == topo.Transit
	atDest := ev.Location == topo.Destination

	switch {
	case atOrigin && isOriginFamily(ev.Code):
		return StillAt(topo.Origin)
	case atOrigin && ev.Code == CodeDeparted:
		return Leg(topo.Origin, topo.NextHop())
	case atTransit && slices.Contains(transitHolding, ev.Code):
		return StillAt(topo.Transit)
	case atTransit && ev.Code == CodeDeparted:
		return Leg(topo.Transit, topo.Destination)
	case atDest && slices.Contains(destArrival, ev.Code):
		return ArrivedAt(topo.Destination)
	case slices.Contains(deliveredCodes, ev.Code):
		return StatusDelivered
	case ev.Code == CodeDeparted:
		return fmt.Sprintf("departed from %s", ev.Location)
	default:
		return fmt.Sprintf("Update: %s at %s", ev.Code, ev.Location)
	}
}

// StillAt is the status of a shipment waiting at code.
func StillAt(code string) string { return "still at " + code }

// Leg is the status of a shipment flying from one stop to the next.
func Leg(from, to string) string { return from + " > " + to }

// ArrivedAt is the status of a shipment that reached its destination.
func ArrivedAt(code string) string { return "arrived at " + code }

// Checking is the interim status shown while a request runs.
func Checking(airline Airline) string {
	return fmt.Sprintf("checking at %s...", airline)
}
