package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	pkgerrs "github.com/jamesprial/go-reddit-listings/pkg/errors"
)

const (
	defaultTokenEndpointPath = "api/v1/access_token"
	// tokenExpiryLeeway renews a cached token this long before it expires.
	tokenExpiryLeeway = time.Minute
	// defaultTokenLifetime is assumed when a token response omits expires_in.
	defaultTokenLifetime = time.Hour
)

// Authenticator handles retrieving an access token from the Reddit API and
// caches it until shortly before it expires. It implements TokenSource.
type Authenticator struct {
	client       *http.Client
	clientID     string
	clientSecret string
	userAgent    string
	BaseURL      *url.URL
	tokenURL     *url.URL
	formData     url.Values

	mu     sync.Mutex
	token  string
	expiry time.Time
	now    func() time.Time
}

// NewAuthenticator creates a new authenticator. When both username and
// password are set it uses the password grant, otherwise client_credentials.
// The tokenPath parameter can be an empty string to use the default Reddit
// token endpoint.
func NewAuthenticator(httpClient *http.Client, username, password, clientID, clientSecret, userAgent, baseURL, tokenPath string) (*Authenticator, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, &pkgerrs.AuthError{Err: fmt.Errorf("failed to parse base URL: %w", err)}
	}
	if !strings.HasSuffix(parsedURL.Path, "/") {
		parsedURL.Path += "/"
	}

	if tokenPath == "" {
		tokenPath = defaultTokenEndpointPath
	}

	resolvedTokenURL, err := parsedURL.Parse(tokenPath)
	if err != nil {
		return nil, &pkgerrs.AuthError{Err: fmt.Errorf("failed to parse token endpoint path: %w", err)}
	}

	form := url.Values{}
	if username != "" && password != "" {
		form.Set("grant_type", "password")
		form.Set("username", username)
		form.Set("password", password)
	} else {
		form.Set("grant_type", "client_credentials")
	}

	return &Authenticator{
		client:       httpClient,
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		BaseURL:      parsedURL,
		tokenURL:     resolvedTokenURL,
		formData:     form,
		now:          time.Now,
	}, nil
}

// GrantType reports which OAuth grant the authenticator uses.
func (a *Authenticator) GrantType() string {
	return a.formData.Get("grant_type")
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Token returns the cached access token, fetching a new one when none is held
// or the held one is about to expire.
func (a *Authenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && a.now().Before(a.expiry) {
		return a.token, nil
	}

	token, lifetime, err := a.GetToken(ctx)
	if err != nil {
		return "", err
	}

	a.token = token
	a.expiry = tokenExpiry(a.now(), lifetime)
	return token, nil
}

// tokenExpiry returns when a token issued at now with the given lifetime
// should be renewed. Lifetimes no longer than the leeway are halved instead.
func tokenExpiry(now time.Time, lifetime time.Duration) time.Time {
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}
	if lifetime <= tokenExpiryLeeway {
		return now.Add(lifetime / 2)
	}
	return now.Add(lifetime - tokenExpiryLeeway)
}

// Invalidate drops the cached token so the next call to Token fetches a new one.
func (a *Authenticator) Invalidate() {
	a.mu.Lock()
	a.token = ""
	a.expiry = time.Time{}
	a.mu.Unlock()
}

// GetToken performs the grant flow and returns the token and its lifetime.
func (a *Authenticator) GetToken(ctx context.Context) (string, time.Duration, error) {
	data := a.formData.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL.String(), strings.NewReader(data))
	if err != nil {
		return "", 0, &pkgerrs.AuthError{Err: fmt.Errorf("failed to create token request: %w", err)}
	}

	req.SetBasicAuth(a.clientID, a.clientSecret)
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", 0, &pkgerrs.AuthError{Err: fmt.Errorf("failed to execute token request: %w", err)}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &pkgerrs.AuthError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to read response body: %w", err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, &pkgerrs.AuthError{
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
		}
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(bodyBytes, &tokenResp); err != nil {
		return "", 0, &pkgerrs.AuthError{
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
			Err:        fmt.Errorf("failed to unmarshal token response: %w", err),
		}
	}

	if tokenResp.AccessToken == "" {
		return "", 0, &pkgerrs.AuthError{
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
			Message:    "access token was empty in response",
		}
	}

	return tokenResp.AccessToken, time.Duration(tokenResp.ExpiresIn) * time.Second, nil
}
