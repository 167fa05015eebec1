package postgrest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
	"github.com/riskibarqy/match-ledger/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errTransient = crerr.New("postgrest transient failure")

const (
	preferUpsert       = "resolution=merge-duplicates,return=minimal"
	preferIgnore       = "resolution=ignore-duplicates,return=minimal"
	preferRepresenting = "return=representation"
	maxResponseBytes   = 4 << 20
)

type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client implements backend.Backend over a PostgREST endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
}

var _ backend.Backend = (*Client)(nil)

func NewClient(cfg Config, logger *logging.Logger) (*Client, error) {
	baseURL, err := validateHTTPBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid BACKEND_BASE_URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("postgrest")
	breakerCfg := cfg.CircuitBreaker
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = resilience.LogStateChanges(logger, "postgrest")
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		logger:     logger,
		breaker:    resilience.NewCircuitBreaker(breakerCfg),
	}, nil
}

type request struct {
	method string
	path   string
	query  *query
	body   any
	prefer string
}

// do sends one request and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	err := c.breaker.Do(func() error {
		return c.send(ctx, req, out)
	}, isTransient)
	if err == nil {
		return nil
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "postgrest circuit breaker rejected request", "path", req.path, "state", c.breaker.State())
		return fmt.Errorf("%w: circuit open", backend.ErrUnavailable)
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}
	return err
}

func (c *Client) send(ctx context.Context, req request, out any) error {
	target := c.baseURL + "/rest/v1/" + strings.TrimLeft(req.path, "/")
	if req.query != nil {
		if encoded := req.query.String(); encoded != "" {
			target += "?" + encoded
		}
	}

	var body io.Reader
	if req.body != nil {
		encoded, err := sonic.Marshal(req.body)
		if err != nil {
			return crerr.Wrapf(err, "marshal %s body", req.path)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return crerr.Wrapf(err, "create %s request", req.path)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("apikey", c.apiKey)
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if req.prefer != "" {
		httpReq.Header.Set("Prefer", req.prefer)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("postgrest.method", req.method),
			attribute.String("postgrest.path", req.path),
		)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return crerr.Mark(crerr.Wrapf(err, "%s %s", req.method, req.path), errTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return crerr.Mark(crerr.Wrapf(err, "read %s response", req.path), errTransient)
	}

	if resp.StatusCode/100 != 2 {
		return c.statusError(ctx, req, resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return crerr.Wrapf(err, "decode %s response", req.path)
	}
	return nil
}

func (c *Client) statusError(ctx context.Context, req request, status int, raw []byte) error {
	var apiErr apiError
	_ = sonic.Unmarshal(raw, &apiErr)

	switch apiErr.Code {
	case "LV404":
		return fmt.Errorf("%w: %s", backend.ErrNotFound, apiErr.Message)
	case "LV409":
		return fmt.Errorf("%w: %s", backend.ErrVersionConflict, apiErr.Message)
	case "LV423":
		return fmt.Errorf("%w: %s", match.ErrMatchAlreadyVerified, apiErr.Message)
	case "LV403":
		return fmt.Errorf("%w: %s", match.ErrNotAParticipant, apiErr.Message)
	}

	err := crerr.Newf("%s %s status=%d code=%s message=%s", req.method, req.path, status, apiErr.Code, truncate(strings.TrimSpace(apiErr.Message), 512))
	if isRetryableStatus(status) {
		c.logger.WarnContext(ctx, "postgrest request failed", "path", req.path, "status_code", status)
		return crerr.Mark(err, errTransient)
	}
	return err
}

func isTransient(err error) bool {
	return crerr.Is(err, errTransient)
}

func isRetryableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= http.StatusInternalServerError
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

func truncate(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
