package exporter

import (
	"io"
	"log/slog"

	"smutrack/internal/shipments"
)

// BoardSheet is the worksheet name of the XLSX export.
const BoardSheet = "Shipments"

// ShipmentHeaders is the column layout of every board export.
var ShipmentHeaders = []string{
	"SMU", "Customer", "Origin", "Transit", "Destination",
	"Koli", "Status", "ETA Bandara", "ETA Door", "Notes",
	"Created", "Last Updated",
}

// ShipmentRecords flattens shipments into rows matching ShipmentHeaders.
func ShipmentRecords(list []*shipments.Shipment) [][]string {
	records := make([][]string, 0, len(list))
	for _, s := range list {
		records = append(records, []string{
			s.SMU,
			s.CustomerName,
			s.Origin,
			s.Transit,
			s.Destination,
			formatInt(s.Koli),
			s.Status,
			s.EtaBandara,
			s.EtaDoor,
			s.Notes,
			formatTime(s.CreatedAt),
			formatTime(s.UpdatedAt),
		})
	}
	return records
}

// BoardExporter writes the shipment board.
type BoardExporter struct {
	logger *slog.Logger
}

// NewBoardExporter creates an exporter.
func NewBoardExporter(logger *slog.Logger) *BoardExporter {
	return &BoardExporter{logger: logger.With(slog.String("component", "exporter"))}
}

// WriteCSV writes the board as UTF-8 CSV with a BOM.
func (e *BoardExporter) WriteCSV(w io.Writer, list []*shipments.Shipment) error {
	e.logger.Info("Writing board CSV", slog.Int("record_count", len(list)))
	return WriteCSV(w, WriteOptions{
		Headers:   ShipmentHeaders,
		Records:   ShipmentRecords(list),
		BOMPrefix: true,
	})
}

// WriteXLSX writes the board as an Excel workbook.
func (e *BoardExporter) WriteXLSX(w io.Writer, list []*shipments.Shipment) error {
	e.logger.Info("Writing board workbook", slog.Int("record_count", len(list)))
	return WriteXLSX(w, BoardSheet, ShipmentHeaders, ShipmentRecords(list))
}
