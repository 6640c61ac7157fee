package errors

import (
	"sync/atomic"

	"github.com/getsentry/sentry-go"
)

// telemetryEnabled gates the sentry capture path so the common case (no DSN
// configured) pays only an atomic load, mirroring the teacher's
// hasActiveReporting fast path.
var telemetryEnabled atomic.Bool

// EnableTelemetry initializes the sentry SDK. It is a no-op if dsn is empty,
// so operators can leave the crash-reporting feature off by default.
func EnableTelemetry(dsn, release string) error {
	if dsn == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:     dsn,
		Release: release,
	}); err != nil {
		return err
	}
	telemetryEnabled.Store(true)
	return nil
}

// report sends fatal/crash-category errors to sentry when telemetry is
// enabled. Non-fatal categories (EmptyFrame, PublishFailure, ...) are
// never reported — they are expected, logged-and-swallowed outcomes.
func report(ee *EnhancedError) {
	if !telemetryEnabled.Load() || ee.IsReported() {
		return
	}
	if !ee.Category.Fatal() {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.Component)
		scope.SetTag("category", string(ee.Category))
		for k, v := range ee.GetContext() {
			scope.SetExtra(k, v)
		}
		sentry.CaptureException(ee.Err)
	})
	ee.MarkReported()
}
