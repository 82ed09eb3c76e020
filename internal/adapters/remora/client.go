package remora

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"remora/internal/domain/riskcontext"
	"remora/internal/metrics"
	"remora/pkg/errors"
	"remora/pkg/logger"
)

const (
	defaultBaseURL = "https://api.remora-ai.com"
	contextPath    = "/context"
	defaultTimeout = 2 * time.Second
	apiKeyEnvVar   = "REMORA_API_KEY"
	userAgent      = "remora-go/1.0"

	maxResponseBytes = 1 << 20
)

// Config configures the risk API client.
type Config struct {
	// APIKey enables the authenticated rate tier. Resolution order:
	// explicit value here, then the REMORA_API_KEY environment
	// variable, then whatever the host configuration provided.
	// Absence selects the anonymous tier.
	APIKey  string
	BaseURL string
	Timeout time.Duration

	HTTPClient *http.Client
}

// Client fetches risk context for one symbol at a time. It performs a
// single timeout-bounded request per call: no retries, no caching.
// Retry and backoff policy belong to the layers above.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new risk API client
func NewClient(cfg Config) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(apiKeyEnvVar)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		log:        logger.Get().With("component", "remora_client"),
	}
}

// Authenticated reports whether a credential is configured
func (c *Client) Authenticated() bool {
	return c.cfg.APIKey != ""
}

// Fetch retrieves and validates the risk context for a trading pair.
// Failures are classified into the pkg/errors fetch taxonomy.
func (c *Client) Fetch(ctx context.Context, symbol string) (riskcontext.RiskContext, error) {
	start := time.Now()
	rc, err := c.fetch(ctx, symbol)

	status := "success"
	if err != nil {
		status = errors.Classify(err)
	}
	metrics.RecordFetch(status, time.Since(start))

	return rc, err
}

func (c *Client) fetch(ctx context.Context, symbol string) (riskcontext.RiskContext, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := c.cfg.BaseURL + contextPath + "?" + url.Values{"symbol": {symbol}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return riskcontext.RiskContext{}, errors.Wrap(err, "create risk API request")
	}

	requestID := uuid.NewString()
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return riskcontext.RiskContext{}, c.classifyTransportError(symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		c.log.Debug("Risk API rejected request",
			"symbol", symbol,
			"status", resp.StatusCode,
			"request_id", requestID,
		)
		return riskcontext.RiskContext{}, &errors.HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return riskcontext.RiskContext{}, errors.Wrapf(errors.ErrUnreachable, "read response for %s: %v", symbol, err)
	}

	rc, err := parseContext(symbol, body)
	if err != nil {
		return riskcontext.RiskContext{}, err
	}
	rc.RetrievedAt = time.Now()

	c.log.Debug("Risk context fetched",
		"symbol", symbol,
		"risk_score", rc.RiskScore,
		"safe_to_trade", rc.SafeToTrade,
		"request_id", requestID,
	)

	return rc, nil
}

// classifyTransportError maps transport failures onto the fetch taxonomy
func (c *Client) classifyTransportError(symbol string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(errors.ErrFetchTimeout, "fetch %s", symbol)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrapf(errors.ErrFetchTimeout, "fetch %s", symbol)
	}

	return errors.Wrapf(errors.ErrUnreachable, "fetch %s: %v", symbol, err)
}

// Wire shape of GET /context. Unknown fields are ignored.
type contextResponse struct {
	SafeToTrade *bool           `json:"safe_to_trade"`
	RiskScore   json.RawMessage `json:"risk_score"`
	Reasoning   json.RawMessage `json:"reasoning"`
	Regime      string          `json:"regime"`
	RiskClass   string          `json:"risk_class"`
}

// parseContext validates and normalizes a response body into a
// RiskContext. Defaults are fail-open: a missing safe_to_trade means
// true, a missing risk_score means 0.
func parseContext(symbol string, body []byte) (riskcontext.RiskContext, error) {
	var res contextResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return riskcontext.RiskContext{}, errors.Wrapf(errors.ErrMalformed, "decode context for %s: %v", symbol, err)
	}

	safe := true
	if res.SafeToTrade != nil {
		safe = *res.SafeToTrade
	}

	score, err := coerceScore(res.RiskScore)
	if err != nil {
		return riskcontext.RiskContext{}, errors.Wrapf(errors.ErrMalformed, "risk_score for %s: %v", symbol, err)
	}

	reasoning, err := coerceReasoning(res.Reasoning)
	if err != nil {
		return riskcontext.RiskContext{}, errors.Wrapf(errors.ErrMalformed, "reasoning for %s: %v", symbol, err)
	}

	// Older API revisions report the classification as risk_class
	regime := res.Regime
	if regime == "" {
		regime = res.RiskClass
	}

	return riskcontext.RiskContext{
		Symbol:      symbol,
		SafeToTrade: safe,
		RiskScore:   riskcontext.ClampScore(score),
		Reasoning:   reasoning,
		Regime:      regime,
		Origin:      riskcontext.OriginLive,
	}, nil
}

// coerceScore accepts a JSON number or a numeric string
func coerceScore(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not coercible to float: %q", s)
		}
		return f, nil
	}

	return 0, fmt.Errorf("unexpected type: %s", string(raw))
}

// coerceReasoning accepts a list of strings, a single string, or a
// list of scalars that can be stringified
func coerceReasoning(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}

	var mixed []interface{}
	if err := json.Unmarshal(raw, &mixed); err == nil {
		out := make([]string, 0, len(mixed))
		for _, item := range mixed {
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	}

	return nil, fmt.Errorf("unexpected type: %s", string(raw))
}
