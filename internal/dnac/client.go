package dnac

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ap-monitor/internal/observability/metrics"
)

// Config carries the upstream controller settings.
type Config struct {
	BaseURL  string
	Username string
	Password string
	// SiteID scopes the clients listing; the controller refuses the call
	// without one.
	SiteID string
	// PageSize for the paginated listings.
	PageSize int
	// TLSVerify enables certificate verification. Controllers in this
	// deployment run self-signed, so the default is off.
	TLSVerify bool
	Timeout   time.Duration
	// RetryAttempts bounds 429 retries per fetch.
	RetryAttempts int
	// BulkCooldown is the fixed wait between retries of the list endpoints.
	BulkCooldown time.Duration
}

// Client talks to the controller REST API. One token is acquired per HTTP
// call through the token manager, so a rotation mid-cycle is picked up
// without restarting the fetch.
type Client struct {
	baseURL  string
	client   *http.Client
	tokens   *TokenManager
	siteID   string
	pageSize int
	bulk     retryPolicy
	lookup   retryPolicy
	log      zerolog.Logger
	sleep    func(context.Context, time.Duration) error
}

// NewClient constructs a controller client.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("dnac: empty base url")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("dnac: missing credentials")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.BulkCooldown <= 0 {
		cfg.BulkCooldown = 60 * time.Second
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.TLSVerify},
		},
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		baseURL:  baseURL,
		client:   httpClient,
		tokens:   NewTokenManager(baseURL, cfg.Username, cfg.Password, httpClient, log),
		siteID:   cfg.SiteID,
		pageSize: cfg.PageSize,
		bulk:     bulkRetryPolicy(cfg.BulkCooldown, cfg.RetryAttempts),
		lookup:   lookupRetryPolicy(cfg.BulkCooldown, cfg.RetryAttempts),
		log:      log.With().Str("component", "dnac.client").Logger(),
		sleep:    sleepContext,
	}, nil
}

// Tokens exposes the token manager for startup checks.
func (c *Client) Tokens() *TokenManager { return c.tokens }

// get performs one authenticated GET against the intent API and decodes the
// body into out. Status codes map onto the package error types.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	err := c.getOnce(ctx, endpoint, path, query, out, false)
	if err == nil {
		metrics.IncFetchRequest(endpoint, metrics.ResultSuccess)
		return nil
	}
	// A stale token can outlive its controller-side session; one forced
	// refresh covers that without looping.
	if errors.Is(err, errUnauthorized) {
		err = c.getOnce(ctx, endpoint, path, query, out, true)
		if err == nil {
			metrics.IncFetchRequest(endpoint, metrics.ResultSuccess)
			return nil
		}
	}
	metrics.IncFetchRequest(endpoint, fetchResult(err))
	return err
}

var errUnauthorized = errors.New("dnac: unauthorized")

func (c *Client) getOnce(ctx context.Context, endpoint, path string, query url.Values, out any, forceToken bool) error {
	token, err := c.tokens.Token(ctx, forceToken)
	if err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-auth-token", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return errRateLimited
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusInternalServerError:
		return &UnavailableError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	case resp.StatusCode >= 300:
		return fmt.Errorf("dnac: %s: http %d", endpoint, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func fetchResult(err error) string {
	switch {
	case errors.Is(err, errRateLimited), IsRateLimited(err):
		return "rate_limited"
	case IsUnavailable(err):
		return "unavailable"
	case errors.Is(err, errUnauthorized):
		return "unauthorized"
	default:
		return metrics.ResultError
	}
}
