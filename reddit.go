package graw

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jamesprial/go-reddit-listings/internal"
	pkgerrs "github.com/jamesprial/go-reddit-listings/pkg/errors"
	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

const (
	// DefaultBaseURL is the host serving authenticated endpoints.
	DefaultBaseURL = "https://oauth.reddit.com/"
	// DefaultPublicURL is the host serving endpoints that need no token.
	DefaultPublicURL = "https://www.reddit.com/"
	// DefaultAuthURL is the default Reddit OAuth base URL
	DefaultAuthURL = "https://www.reddit.com/"
	// DefaultUserAgent is the default user agent string
	DefaultUserAgent = "go-reddit-listings/0.1"
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second
)

// Config holds the configuration for the Reddit client.
//
// ClientID and ClientSecret are needed for authenticated endpoints such as the
// inbox, the moderation log and every command. Public listings and threads
// work without them. Setting Username and Password switches from the
// client_credentials grant to the password grant.
//
// Example for user auth:
//
//	config := &Config{
//		Username:     "your-username",
//		Password:     "your-password",
//		ClientID:     "your-client-id",
//		ClientSecret: "your-client-secret",
//		UserAgent:    "myapp/1.0 by /u/yourusername",
//	}
type Config struct {
	// Username and Password for password grant flow.
	// Also used as the default account of the user listings.
	Username string
	Password string

	// ClientID and ClientSecret for OAuth2 authentication.
	ClientID     string
	ClientSecret string

	// UserAgent string to identify your application to Reddit.
	// Should follow format: "platform:app-name:version by /u/username"
	UserAgent string

	// BaseURL for authenticated requests. Defaults to DefaultBaseURL.
	BaseURL string

	// PublicURL for requests that need no token. Defaults to DefaultPublicURL.
	PublicURL string

	// AuthURL for Reddit OAuth authentication. Defaults to DefaultAuthURL.
	AuthURL string

	// HTTPClient to use for requests.
	// Defaults to a client with DefaultTimeout if not specified.
	HTTPClient *http.Client

	// Logger for structured diagnostics. Nil discards all output.
	Logger *slog.Logger

	// MinRequestInterval is the minimum spacing between two requests.
	// Zero selects one second; a negative value disables spacing.
	MinRequestInterval time.Duration

	// ListingLimit is the default number of entities a backward listing
	// fetch returns. Zero selects types.DefaultListingLimit.
	ListingLimit int

	// MoreChildrenChunk is the number of hidden comment ids requested per
	// morechildren call. Zero selects types.DefaultMoreChildrenChunk.
	MoreChildrenChunk int

	// MaxMoreRounds bounds the fetch rounds spent resolving one thread.
	MaxMoreRounds int

	// Registerer receives the client's Prometheus collectors. Nil leaves
	// them unregistered.
	Registerer prometheus.Registerer
}

// Client is the main Reddit API client. It is safe for concurrent use; all
// requests share one rate limiter, so concurrent callers are serialized on
// the wire.
type Client struct {
	api       *internal.Client
	auth      *internal.Authenticator
	config    Config
	factory   *internal.Factory
	paginator *internal.Paginator
	resolver  *internal.MoreResolver
	validator *internal.Validator
	logger    *slog.Logger
}

// NewClient creates a new Reddit client with the provided configuration.
// It validates the configuration and applies defaults; it does not contact
// the API. The access token is requested on the first call that needs one.
//
// Returns a *errors.ConfigError if:
//   - config is nil
//   - only one of ClientID and ClientSecret is set
//   - only one of Username and Password is set
//   - the user agent or a URL is invalid
//   - ListingLimit is negative or above types.MaxListingSize
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, &pkgerrs.ConfigError{Message: "config cannot be nil"}
	}
	cfg := *config

	if (cfg.ClientID == "") != (cfg.ClientSecret == "") {
		return nil, &pkgerrs.ConfigError{Field: "ClientSecret", Message: "ClientID and ClientSecret must be set together"}
	}
	if (cfg.Username == "") != (cfg.Password == "") {
		return nil, &pkgerrs.ConfigError{Field: "Password", Message: "Username and Password must be set together"}
	}
	if cfg.ListingLimit < 0 || cfg.ListingLimit > types.MaxListingSize {
		return nil, &pkgerrs.ConfigError{Field: "ListingLimit", Message: "must be between 0 and 2000"}
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = DefaultPublicURL
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	switch {
	case cfg.MinRequestInterval == 0:
		cfg.MinRequestInterval = internal.DefaultMinRequestInterval
	case cfg.MinRequestInterval < 0:
		cfg.MinRequestInterval = 0
	}

	validator := internal.NewValidator()
	if err := validator.ValidateUserAgent(cfg.UserAgent); err != nil {
		return nil, err
	}

	metrics := internal.NewMetrics(cfg.Registerer)

	var (
		auth   *internal.Authenticator
		tokens internal.TokenSource
	)
	if cfg.ClientID != "" {
		a, err := internal.NewAuthenticator(
			cfg.HTTPClient,
			cfg.Username,
			cfg.Password,
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.UserAgent,
			cfg.AuthURL,
			"",
		)
		if err != nil {
			return nil, &pkgerrs.ConfigError{Field: "AuthURL", Message: err.Error()}
		}
		auth, tokens = a, a
	}

	api, err := internal.NewClient(internal.ClientOptions{
		HTTPClient: cfg.HTTPClient,
		BaseURL:    cfg.BaseURL,
		PublicURL:  cfg.PublicURL,
		UserAgent:  cfg.UserAgent,
		Tokens:     tokens,
		Limiter:    internal.NewRateLimiter(cfg.MinRequestInterval),
		Metrics:    metrics,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	factory := internal.NewFactory(cfg.Logger)
	return &Client{
		api:    api,
		auth:   auth,
		config: cfg,
		paginator: internal.NewPaginator(api, factory, internal.PaginatorConfig{
			Limit:   cfg.ListingLimit,
			Logger:  cfg.Logger,
			Metrics: metrics,
		}),
		resolver: internal.NewMoreResolver(api, factory, internal.ResolverConfig{
			ChunkSize: cfg.MoreChildrenChunk,
			MaxRounds: cfg.MaxMoreRounds,
			Logger:    cfg.Logger,
			Metrics:   metrics,
		}),
		factory:   factory,
		validator: validator,
		logger:    cfg.Logger,
	}, nil
}

// Username returns the configured account name, empty for app-only clients.
func (c *Client) Username() string {
	return c.config.Username
}

// Logout drops the cached access token. The next authenticated call
// requests a new one.
func (c *Client) Logout() {
	if c.auth != nil {
		c.auth.Invalidate()
	}
}
