// Package shipments keeps the shipment board: the list of waybills being
// watched and the last status, airport ETA and piece count learned for
// each. Tracking results are merged so that unresolved fields never erase
// values stored by an earlier run.
package shipments
