// Package services sits between the HTTP handlers and the tracking engine.
//
// TrackingService owns the request lifecycle around an engine run: it
// bounds how many browsers run at once, wraps each run in the configured
// request deadline, marks board entries as being checked, merges results
// back into the board and fans progress out to dashboard clients and NATS.
//
//	svc := services.NewTrackingService(tracker, board, hub, pub, cfg.Tracker, logger)
//	sh, res, err := svc.TrackShipment(ctx, "126-12345678")
//
// An engine error other than invalid input means the run panicked; the
// board entry then reads "system error" before the error is returned.
//
// HealthService reports liveness, readiness and version for the health
// endpoints.
package services
