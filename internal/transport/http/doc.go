// Package http implements the HTTP handlers of the SMU tracking service.
// Handlers stay thin: they decode and validate requests, delegate to the
// services layer and render responses with go-chi/render.
//
// # Routes
//
//	POST   /api/track                      one-off tracking run
//	GET    /api/shipments                  list the board (destination, status, since, limit)
//	POST   /api/shipments                  add a shipment
//	GET    /api/shipments/{id}             fetch one shipment
//	PUT    /api/shipments/{id}             replace editable fields
//	DELETE /api/shipments/{id}             remove a shipment
//	POST   /api/shipments/{smu}/track      refresh one shipment
//	POST   /api/shipments/track-all        refresh the whole board
//	GET    /api/shipments/export.xlsx      board as a workbook
//	GET    /api/shipments/export.csv       board as CSV
//	GET    /api/health[/live|/ready]       health probes
//	GET    /api/version                    build information
//	GET    /ws                             live tracking events
//
// # Errors
//
// Every failure is rendered as RFC 7807 problem details through
// errors.ErrorHandler. A tracking run that ends in the system error status
// is not a transport failure: the result is returned with 200 and the
// status carries the outcome.
package http
