package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrs "github.com/jamesprial/go-reddit-listings/pkg/errors"
	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

const (
	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 32 << 20
	// maxErrorBodyBytes caps the body excerpt carried in an APIError.
	maxErrorBodyBytes = 512
)

// TokenSource supplies bearer tokens for authenticated endpoints.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ClientOptions configures a Client.
type ClientOptions struct {
	HTTPClient *http.Client
	// BaseURL is the authenticated API host.
	BaseURL string
	// PublicURL serves endpoints that need no token. Defaults to BaseURL.
	PublicURL string
	UserAgent string
	Tokens    TokenSource
	Limiter   *RateLimiter
	Metrics   *Metrics
	Logger    *slog.Logger
}

// Client dispatches named endpoint calls to the Reddit API. Every request,
// authenticated or not, passes through the same rate limiter.
type Client struct {
	client    *http.Client
	BaseURL   *url.URL
	PublicURL *url.URL
	UserAgent string

	tokens    TokenSource
	limiter   *RateLimiter
	metrics   *Metrics
	logger    *slog.Logger
	validator *Validator
}

// NewClient returns a new dispatcher.
// If a nil HTTPClient is provided, http.DefaultClient will be used.
func NewClient(opts ClientOptions) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, &pkgerrs.ConfigError{Field: "BaseURL", Message: err.Error()}
	}
	publicURL := baseURL
	if opts.PublicURL != "" {
		publicURL, err = parseBaseURL(opts.PublicURL)
		if err != nil {
			return nil, &pkgerrs.ConfigError{Field: "PublicURL", Message: err.Error()}
		}
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(DefaultMinRequestInterval)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		client:    httpClient,
		BaseURL:   baseURL,
		PublicURL: publicURL,
		UserAgent: opts.UserAgent,
		tokens:    opts.Tokens,
		limiter:   limiter,
		metrics:   opts.Metrics,
		logger:    logger,
		validator: NewValidator(),
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", raw)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	return parsed, nil
}

// NewRequest builds the request for ep. Parameters go in the query string for
// GET and in a form body otherwise. Endpoint defaults are applied first so the
// caller can override them.
func (c *Client) NewRequest(ctx context.Context, ep Endpoint, params url.Values, resources ...string) (*http.Request, error) {
	base := c.PublicURL
	if ep.Auth {
		base = c.BaseURL
	}
	u, err := base.Parse(ep.Resolve(resources...))
	if err != nil {
		return nil, &pkgerrs.RequestError{Endpoint: ep.Name, Err: err}
	}

	values := url.Values{}
	for k, v := range ep.Args {
		values.Set(k, v)
	}
	for k, vs := range params {
		values[k] = vs
	}

	var body io.Reader
	if ep.Method == http.MethodGet {
		if len(values) > 0 {
			u.RawQuery = values.Encode()
		}
	} else {
		body = strings.NewReader(values.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, u.String(), body)
	if err != nil {
		return nil, &pkgerrs.RequestError{Endpoint: ep.Name, URL: u.String(), Err: err}
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	if ep.Auth {
		if c.tokens == nil {
			return nil, &pkgerrs.ConfigError{Field: "ClientID", Message: fmt.Sprintf("endpoint %s requires authentication", ep.Name)}
		}
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// DoRaw waits for a rate limit slot, sends req and returns the body of a 2xx
// response.
func (c *Client) DoRaw(req *http.Request, endpoint string) ([]byte, error) {
	waited, err := c.limiter.Acquire(req.Context())
	if c.metrics != nil {
		c.metrics.RateLimitWait.Observe(waited.Seconds())
	}
	if err != nil {
		return nil, &pkgerrs.RequestError{Endpoint: endpoint, URL: req.URL.String(), Err: err}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.observeRequest(endpoint, 0)
		return nil, &pkgerrs.RequestError{Endpoint: endpoint, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	c.limiter.Observe(resp)
	c.metrics.observeRequest(endpoint, resp.StatusCode)
	c.logger.Debug("reddit request",
		"endpoint", endpoint,
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"ratelimit_wait", waited)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &pkgerrs.RequestError{Endpoint: endpoint, URL: req.URL.String(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := string(data)
		if len(excerpt) > maxErrorBodyBytes {
			excerpt = excerpt[:maxErrorBodyBytes]
		}
		msg := resp.Status
		if excerpt != "" {
			msg += ": " + excerpt
		}
		return nil, &pkgerrs.APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Message: msg}
	}

	return data, nil
}

// Call invokes the named endpoint and decodes the JSON response into v, which
// may be nil. resources fill the path placeholders in order.
func (c *Client) Call(ctx context.Context, name string, params url.Values, v any, resources ...string) error {
	ep, ok := LookupEndpoint(name)
	if !ok {
		return &pkgerrs.ConfigError{Field: "endpoint", Message: fmt.Sprintf("unknown endpoint %q", name)}
	}

	req, err := c.NewRequest(ctx, ep, params, resources...)
	if err != nil {
		return err
	}

	data, err := c.DoRaw(req, name)
	if err != nil {
		var apiErr *pkgerrs.APIError
		if ep.UserScoped && len(resources) > 0 && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return &pkgerrs.UserNotFoundError{Username: resources[0], Err: err}
		}
		return err
	}

	if v == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &pkgerrs.ParseError{Operation: name, Message: "failed to decode response", Err: err}
	}
	return nil
}

// FetchListing calls a listing endpoint and returns its unwrapped page.
func (c *Client) FetchListing(ctx context.Context, name string, params url.Values, resources ...string) (*types.ListingData, error) {
	var thing types.Thing
	if err := c.Call(ctx, name, params, &thing, resources...); err != nil {
		return nil, err
	}
	return DecodeListing(name, &thing)
}

// DecodeListing unwraps a Listing envelope.
func DecodeListing(operation string, thing *types.Thing) (*types.ListingData, error) {
	if thing == nil {
		return nil, &pkgerrs.ParseError{Operation: operation, Message: "missing listing"}
	}
	if thing.Kind != types.KindListing {
		return nil, &pkgerrs.ParseError{Operation: operation, Message: fmt.Sprintf("expected Listing, got %q", thing.Kind)}
	}
	var listing types.ListingData
	if err := json.Unmarshal(thing.Data, &listing); err != nil {
		return nil, &pkgerrs.ParseError{Operation: operation, Message: "failed to decode listing", Err: err}
	}
	return &listing, nil
}

// commandEnvelope is the {"json": {...}} wrapper returned when api_type=json.
type commandEnvelope struct {
	JSON struct {
		Errors [][]any         `json:"errors"`
		Data   json.RawMessage `json:"data"`
	} `json:"json"`
}

// Command posts to a command endpoint and returns the "data" member of the
// response. A non-empty "errors" array becomes an APIError carrying the first
// error's code and message.
func (c *Client) Command(ctx context.Context, name string, params url.Values, resources ...string) (json.RawMessage, error) {
	var env commandEnvelope
	if err := c.Call(ctx, name, params, &env, resources...); err != nil {
		return nil, err
	}
	if len(env.JSON.Errors) > 0 {
		return nil, commandError(name, env.JSON.Errors[0])
	}
	return env.JSON.Data, nil
}

func commandError(endpoint string, fields []any) *pkgerrs.APIError {
	apiErr := &pkgerrs.APIError{StatusCode: http.StatusOK, Endpoint: endpoint}
	if len(fields) > 0 {
		apiErr.ErrorCode = fmt.Sprint(fields[0])
	}
	if len(fields) > 1 {
		apiErr.Message = fmt.Sprint(fields[1])
	}
	if len(fields) > 2 && fields[2] != nil {
		apiErr.Message += fmt.Sprintf(" (%v)", fields[2])
	}
	return apiErr
}
