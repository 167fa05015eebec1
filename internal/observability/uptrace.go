package observability

import (
	"context"
	"strings"

	"github.com/riskibarqy/match-ledger/internal/config"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"
)

func noopStop(context.Context) error { return nil }

// startTracing installs the Uptrace exporter as the global OpenTelemetry
// provider. Without it the otel globals stay no-op and spans cost nothing.
func startTracing(cfg config.Config, logger *logging.Logger) func(context.Context) error {
	dsn := strings.TrimSpace(cfg.UptraceDSN)
	if !cfg.UptraceEnabled || dsn == "" {
		logger.Info("tracing off", "uptrace_enabled", cfg.UptraceEnabled, "dsn_set", dsn != "")
		return noopStop
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(dsn),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithResourceAttributes(
			attribute.String("ledger.backend", cfg.BackendKind),
			attribute.Bool("ledger.persistent_store", cfg.DataDir != ""),
		),
	)
	logger.Info("tracing to uptrace", "service", cfg.ServiceName, "backend", cfg.BackendKind)
	return uptrace.Shutdown
}
