// Package exporter writes the shipment board as CSV or as an Excel workbook.
//
// Both formats share one column layout (ShipmentHeaders) so a sheet
// downloaded from the dashboard can be compared line by line with a CSV
// pulled by a script:
//
//	exp := exporter.NewBoardExporter(logger)
//	err := exp.WriteXLSX(w, board)
package exporter
