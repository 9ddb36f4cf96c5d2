package compute

import (
	"log/slog"

	"github.com/gogpu/compute/internal/logger"
)

// SetLogger configures the logger for compute and all its sub-packages.
// By default, compute produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by compute:
//   - [slog.LevelDebug]: internal diagnostics (buffer sizes, encode summaries)
//   - [slog.LevelInfo]: lifecycle events (GPU adapter selected)
//   - [slog.LevelWarn]: non-fatal issues (resource release anomalies)
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	compute.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logger.Set(l)
}

// Logger returns the current logger used by compute.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logger.Get()
}
