package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/match-ledger/internal/platform/logging"
	"github.com/riskibarqy/match-ledger/internal/platform/resilience"
)

const (
	BackendMemory    = "memory"
	BackendPostgREST = "postgrest"
	BackendPostgres  = "postgres"
)

// Config stores runtime configuration for the ledger daemon.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
	SwaggerEnabled     bool

	// DataDir holds the local collections; empty keeps everything in memory.
	DataDir      string
	DeviceID     string
	DeviceIDFile string

	BackendKind             string
	BackendBaseURL          string
	BackendAPIKey           string
	BackendTimeout          time.Duration
	BackendCircuit          resilience.CircuitBreakerConfig
	DBURL                   string
	DBDisablePreparedBinary bool

	AnubisEnabled         bool
	AnubisBaseURL         string
	AnubisIntrospectPath  string
	AnubisAdminKey        string
	AnubisTimeout         time.Duration
	AnubisCacheTTL        time.Duration
	AnubisCacheMaxEntries int
	AnubisCircuit         resilience.CircuitBreakerConfig

	BackgroundWorkers     int
	BackgroundTaskTimeout time.Duration
	SyncFanout            int
	SyncInterval          time.Duration

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	PprofEnabled               bool
	PprofAddr                  string
	LogLevel                   logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}
	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "match-ledger"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", "127.0.0.1:8787"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SwaggerEnabled:     swaggerEnabled,
		DataDir:            strings.TrimSpace(getEnv("DATA_DIR", "")),
		DeviceID:           strings.TrimSpace(getEnv("DEVICE_ID", "")),
		LogLevel:           logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if cfg.ReadTimeout, err = getEnvAsPositiveDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsPositiveDuration("APP_WRITE_TIMEOUT", "60s"); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = getEnvAsPositiveDuration("APP_SHUTDOWN_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}

	deviceIDFileDefault := ""
	if cfg.DataDir != "" {
		deviceIDFileDefault = filepath.Join(cfg.DataDir, "device_id")
	}
	cfg.DeviceIDFile = strings.TrimSpace(getEnv("DEVICE_ID_FILE", deviceIDFileDefault))

	if err := loadBackend(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadAnubis(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.BackgroundWorkers, err = getEnvAsInt("BACKGROUND_WORKERS", 4); err != nil {
		return Config{}, fmt.Errorf("parse BACKGROUND_WORKERS: %w", err)
	}
	if cfg.BackgroundWorkers < 1 {
		return Config{}, fmt.Errorf("BACKGROUND_WORKERS must be >= 1")
	}
	if cfg.BackgroundTaskTimeout, err = getEnvAsPositiveDuration("BACKGROUND_TASK_TIMEOUT", "30s"); err != nil {
		return Config{}, err
	}
	if cfg.SyncFanout, err = getEnvAsInt("SYNC_FANOUT", 8); err != nil {
		return Config{}, fmt.Errorf("parse SYNC_FANOUT: %w", err)
	}
	if cfg.SyncFanout < 1 {
		return Config{}, fmt.Errorf("SYNC_FANOUT must be >= 1")
	}
	// 0 disables the periodic pass; sign-in and POST /v1/sync still run one.
	if cfg.SyncInterval, err = time.ParseDuration(getEnv("SYNC_INTERVAL", "0s")); err != nil {
		return Config{}, fmt.Errorf("parse SYNC_INTERVAL: %w", err)
	}
	if cfg.SyncInterval < 0 {
		return Config{}, fmt.Errorf("SYNC_INTERVAL must be >= 0")
	}

	if err := loadTelemetry(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadBackend(cfg *Config) error {
	kind := strings.ToLower(strings.TrimSpace(getEnv("BACKEND_KIND", BackendMemory)))
	switch kind {
	case BackendMemory, BackendPostgREST, BackendPostgres:
	default:
		return fmt.Errorf("invalid BACKEND_KIND %q: valid values are %s, %s, %s", kind, BackendMemory, BackendPostgREST, BackendPostgres)
	}
	cfg.BackendKind = kind
	cfg.BackendBaseURL = strings.TrimSpace(getEnv("BACKEND_BASE_URL", ""))
	cfg.BackendAPIKey = strings.TrimSpace(getEnv("BACKEND_API_KEY", ""))
	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))

	switch kind {
	case BackendPostgREST:
		if cfg.BackendBaseURL == "" {
			return fmt.Errorf("BACKEND_BASE_URL is required when BACKEND_KIND=%s", BackendPostgREST)
		}
	case BackendPostgres:
		if cfg.DBURL == "" {
			return fmt.Errorf("DB_URL is required when BACKEND_KIND=%s", BackendPostgres)
		}
	}

	var err error
	if cfg.BackendTimeout, err = getEnvAsPositiveDuration("BACKEND_TIMEOUT", "10s"); err != nil {
		return err
	}
	if cfg.BackendCircuit, err = loadCircuitBreaker("BACKEND"); err != nil {
		return err
	}
	cfg.DBDisablePreparedBinary, err = strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	return nil
}

func loadAnubis(cfg *Config) error {
	var err error
	cfg.AnubisBaseURL = strings.TrimSpace(getEnv("ANUBIS_BASE_URL", ""))
	cfg.AnubisIntrospectPath = getEnv("ANUBIS_INTROSPECT_PATH", "/v1/auth/introspect")
	cfg.AnubisAdminKey = strings.TrimSpace(getEnv("ANUBIS_ADMIN_KEY", ""))
	cfg.AnubisEnabled, err = strconv.ParseBool(getEnv("ANUBIS_ENABLED", strconv.FormatBool(cfg.AnubisBaseURL != "")))
	if err != nil {
		return fmt.Errorf("parse ANUBIS_ENABLED: %w", err)
	}
	if cfg.AnubisEnabled && cfg.AnubisBaseURL == "" {
		return fmt.Errorf("ANUBIS_BASE_URL is required when ANUBIS_ENABLED=true")
	}

	if cfg.AnubisTimeout, err = getEnvAsPositiveDuration("ANUBIS_TIMEOUT", "3s"); err != nil {
		return err
	}
	if cfg.AnubisCacheTTL, err = time.ParseDuration(getEnv("ANUBIS_CACHE_TTL", "30s")); err != nil {
		return fmt.Errorf("parse ANUBIS_CACHE_TTL: %w", err)
	}
	if cfg.AnubisCacheMaxEntries, err = getEnvAsInt("ANUBIS_CACHE_MAX_ENTRIES", 1024); err != nil {
		return fmt.Errorf("parse ANUBIS_CACHE_MAX_ENTRIES: %w", err)
	}
	if cfg.AnubisCircuit, err = loadCircuitBreaker("ANUBIS"); err != nil {
		return err
	}
	return nil
}

func loadTelemetry(cfg *Config) error {
	var err error
	cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	cfg.PyroscopeEnabled, err = strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))

	cfg.PprofEnabled, err = strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", "127.0.0.1:6060"))
	return nil
}

// loadCircuitBreaker reads <PREFIX>_CIRCUIT_{ENABLED,FAILURE_COUNT,OPEN_TIMEOUT,HALF_OPEN_MAX_REQ}.
func loadCircuitBreaker(prefix string) (resilience.CircuitBreakerConfig, error) {
	defaults := resilience.DefaultCircuitBreakerConfig()

	enabled, err := strconv.ParseBool(getEnv(prefix+"_CIRCUIT_ENABLED", strconv.FormatBool(defaults.Enabled)))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_ENABLED: %w", prefix, err)
	}
	failureCount, err := getEnvAsInt(prefix+"_CIRCUIT_FAILURE_COUNT", defaults.FailureThreshold)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_FAILURE_COUNT: %w", prefix, err)
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_FAILURE_COUNT must be >= 1", prefix)
	}
	openTimeout, err := getEnvAsPositiveDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", defaults.OpenTimeout.String())
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	halfOpenMaxReq, err := getEnvAsInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", defaults.HalfOpenMaxReq)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsPositiveDuration(key, fallback string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return value, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
