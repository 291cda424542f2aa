// Package aggregator is an HTTP client for the 0x swap API.
package aggregator

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "swapdesk/internal/errors"
	"swapdesk/internal/models"
	"swapdesk/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.0x.org"
	DefaultTimeout    = 5 * time.Second
	APIKeyHeader      = "0x-api-key"
	PricePath         = "/swap/v1/price"
	QuotePath         = "/swap/v1/quote"
	maxErrorBodyBytes = 64 << 10
	maxBodyBytes      = 4 << 20
)

// Endpoint labels used in logs and metrics.
const (
	EndpointPrice = "price"
	EndpointQuote = "quote"
)

// Client calls the aggregator. Every call runs under its own deadline derived
// from the caller's context.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	metrics observability.MetricsCollector
	logger  *slog.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithAPIKey sets the 0x-api-key header value.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout sets the default per-call deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

func WithMetrics(m observability.MetricsCollector) ClientOption {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new aggregator client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		client:  &http.Client{},
		metrics: observability.NoopMetricsCollector{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Params is the query sent to the price and quote endpoints.
type Params struct {
	ChainID               int64
	SellToken             string
	BuyToken              string
	SellAmount            string
	BuyAmount             string
	SlippagePercentage    string
	FeeRecipient          string
	BuyTokenPercentageFee string
	TakerAddress          string
	GasPrice              string

	// Timeout overrides the client deadline for this call when positive.
	Timeout time.Duration
}

// Values encodes the params; empty fields are omitted.
func (p Params) Values() url.Values {
	q := url.Values{}
	q.Set("chainId", strconv.FormatInt(p.ChainID, 10))
	q.Set("sellToken", p.SellToken)
	q.Set("buyToken", p.BuyToken)
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("sellAmount", p.SellAmount)
	set("buyAmount", p.BuyAmount)
	set("slippagePercentage", p.SlippagePercentage)
	if p.FeeRecipient != "" && p.BuyTokenPercentageFee != "" {
		q.Set("feeRecipient", p.FeeRecipient)
		q.Set("buyTokenPercentageFee", p.BuyTokenPercentageFee)
	}
	set("takerAddress", p.TakerAddress)
	set("gasPrice", p.GasPrice)
	return q
}

// Price fetches an indicative price. No calldata is returned.
func (c *Client) Price(ctx context.Context, p Params) (*models.AggregatorQuote, error) {
	return c.get(ctx, EndpointPrice, PricePath, p)
}

// Quote fetches a firm quote including transaction calldata.
func (c *Client) Quote(ctx context.Context, p Params) (*models.AggregatorQuote, error) {
	return c.get(ctx, EndpointQuote, QuotePath, p)
}

func (c *Client) get(ctx context.Context, endpoint, path string, p Params) (*models.AggregatorQuote, error) {
	timeout := c.timeout
	if p.Timeout > 0 {
		timeout = p.Timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	quote, outcome, err := c.roundTrip(ctx, callCtx, path, p)
	elapsed := time.Since(start)
	c.metrics.RecordUpstreamCall(endpoint, outcome, elapsed)

	if err != nil {
		c.logger.Warn("aggregator request failed",
			"endpoint", endpoint,
			"chain_id", p.ChainID,
			"outcome", outcome,
			"duration", elapsed,
			"error", err,
		)
		return nil, err
	}
	c.logger.Debug("aggregator request", "endpoint", endpoint, "chain_id", p.ChainID, "duration", elapsed)
	return quote, nil
}

func (c *Client) roundTrip(parent, ctx context.Context, path string, p Params) (*models.AggregatorQuote, string, error) {
	endpoint := c.baseURL + path + "?" + p.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, observability.OutcomeError, apperrors.Internal("failed to build aggregator request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	transportErr := func(err error) (*models.AggregatorQuote, string, error) {
		outcome, cerr := classify(parent, ctx, err)
		return nil, outcome, cerr
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return transportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		if err != nil {
			return transportErr(err)
		}
		return nil, observability.OutcomeStatus, apperrors.UpstreamError(resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return transportErr(err)
	}

	var quote models.AggregatorQuote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, observability.OutcomeError, apperrors.Internal("malformed aggregator response", fmt.Errorf("decode %s: %w", path, err))
	}
	return &quote, observability.OutcomeOK, nil
}

// classify maps a transport failure to the error taxonomy. A caller that went
// away is reported as canceled; any expired deadline is a timeout.
func classify(parent, ctx context.Context, err error) (string, error) {
	if stderrors.Is(parent.Err(), context.Canceled) {
		return observability.OutcomeCanceled, apperrors.Canceled(err)
	}
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) || stderrors.Is(err, context.DeadlineExceeded) {
		return observability.OutcomeTimeout, apperrors.UpstreamTimeout(err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return observability.OutcomeTimeout, apperrors.UpstreamTimeout(err)
	}
	return observability.OutcomeError, apperrors.UpstreamFailure("aggregator unreachable", err)
}
