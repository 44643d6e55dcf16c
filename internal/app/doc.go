// Package app wires the SMU tracking service together and runs it.
//
// # Initialization Flow
//
//	1. Load configuration from config.yaml, .env and SMUTRACK_* variables
//	2. Initialize logging and OpenTelemetry
//	3. Build the browser launcher, airline portals, ETA engine and tracker
//	4. Create the shipment board, WebSocket hub and result publisher
//	5. Set up HTTP handlers and middleware
//	6. Start the hub and the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Tests use New with a scripted launcher from browser/browsertest.
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM, Run stops accepting requests, waits for in-flight
// tracking runs up to the shutdown timeout, closes WebSocket clients and
// the publisher, and flushes telemetry.
package app
