package resilience

import "github.com/riskibarqy/match-ledger/internal/platform/logging"

// LogStateChanges returns an OnStateChange hook that reports transitions for
// the named dependency. Opening is a warning; recovery is informational.
func LogStateChanges(logger *logging.Logger, dependency string) func(from, to CircuitState) {
	if logger == nil {
		logger = logging.Default()
	}
	return func(from, to CircuitState) {
		fields := []any{"dependency", dependency, "from", string(from), "to", string(to)}
		if to == CircuitStateOpen {
			logger.Warn("circuit breaker opened", fields...)
			return
		}
		logger.Info("circuit breaker state changed", fields...)
	}
}
