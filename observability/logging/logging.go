package logging

import (
	"log"
	"log/slog"
	"os"
	"strings"
)

// Setup configures the standard library logger to emit structured JSON and
// returns the underlying slog.Logger for use by the driver and Scenario
// Engine. All log lines carry the scenario id and run id so a driver
// processing a sweep or Monte Carlo batch can demultiplex interleaved
// output from parallel runs back to the run that produced it.
func Setup(scenarioID, runID string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: false,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			}
			if attr.Key == slog.LevelKey {
				level := strings.ToUpper(attr.Value.String())
				return slog.String("severity", level)
			}
			if attr.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	attrs := []slog.Attr{
		slog.String("scenario", strings.TrimSpace(scenarioID)),
	}
	if runID = strings.TrimSpace(runID); runID != "" {
		attrs = append(attrs, slog.String("run_id", runID))
	}

	withArgs := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		withArgs = append(withArgs, attr)
	}

	base := slog.New(handler).With(withArgs...)

	// Bridge the standard library logger so any package still calling
	// log.Printf emits through the same structured handler.
	stdBridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

// LogVerdict logs a run's completion at the severity its verdict earns:
// PASS at Info, SOFT FAIL at Warn, HARD FAIL at Error. A run's pass/fail
// classification is the reason this log line exists at all, so its
// severity — unlike a generic service's request/response logging — is
// derived from simulation output rather than fixed at the call site.
func LogVerdict(logger *slog.Logger, verdict string, args ...any) {
	args = append([]any{"verdict", verdict}, args...)
	switch verdict {
	case "HARD FAIL":
		logger.Error("run complete", args...)
	case "SOFT FAIL":
		logger.Warn("run complete", args...)
	default:
		logger.Info("run complete", args...)
	}
}
