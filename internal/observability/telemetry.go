package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/match-ledger/internal/config"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
)

// Telemetry holds whatever tracing, profiling and debug listeners the config
// switched on, so the daemon can stop them in one call.
type Telemetry struct {
	logger      *logging.Logger
	stopTracing func(context.Context) error
	profiler    *pyroscope.Profiler
	debugServer *http.Server
}

func Start(cfg config.Config, logger *logging.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("telemetry")

	t := &Telemetry{
		logger:      logger,
		stopTracing: startTracing(cfg, logger),
	}

	profiler, err := startProfiler(cfg, logger)
	if err != nil {
		_ = t.stopTracing(context.Background())
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}
	t.profiler = profiler
	t.debugServer = startPprof(cfg, logger)
	return t, nil
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.debugServer != nil {
		if err := t.debugServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop pprof: %w", err))
		}
	}
	if t.profiler != nil {
		if err := t.profiler.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop pyroscope: %w", err))
		}
	}
	if err := t.stopTracing(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush traces: %w", err))
	}
	t.logger.Info("telemetry stopped", "errors", len(errs))
	return errors.Join(errs...)
}
