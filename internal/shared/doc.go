// Package shared holds code used across the smutrack packages that belongs
// to no single layer.
//
// testutil provides a capturing slog handler so tests can assert on what
// was logged:
//
//	logger, logs := testutil.NewTestLogger(t)
//	svc := services.NewTrackingService(..., logger)
//	testutil.AssertLogContains(t, logs, slog.LevelInfo, "tracking finished")
//
// Keep domain logic out of this package.
package shared
