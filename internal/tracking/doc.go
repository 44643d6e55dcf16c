// Package tracking turns an airline portal's detail view and a search
// results page into a shipment status, a piece count and an arrival time.
//
// The Tracker drives one request end to end:
//
//	launch session -> portal login/tracking tab -> waybill form -> detail popup
//	  -> ParseEvent + Decide          (status)
//	  -> ExtractKeyedInt              (koli)
//	  -> ScanFlights -> ETAEngine     (eta_bandara)
//	  -> close every session
//
// Each step reports an Outcome instead of an error. A miss in one step never
// aborts the others; only a panic escapes as an error, after the result has
// been degraded to StatusSystemError.
package tracking
