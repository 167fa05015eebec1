package observability

import (
	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/match-ledger/internal/config"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
)

// Sync fan-out and background pushes are goroutine and allocation heavy, so
// those profiles ride along with CPU.
var ledgerProfiles = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileMutexDuration,
}

func startProfiler(cfg config.Config, logger *logging.Logger) (*pyroscope.Profiler, error) {
	if !cfg.PyroscopeEnabled {
		return nil, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags: map[string]string{
			"env":     cfg.AppEnv,
			"backend": cfg.BackendKind,
		},
		ProfileTypes: ledgerProfiles,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("profiling to pyroscope", "server", cfg.PyroscopeServerAddress, "app", cfg.PyroscopeAppName)
	return profiler, nil
}
