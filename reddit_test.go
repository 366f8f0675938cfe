package graw

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	pkgerrs "github.com/jamesprial/go-reddit-listings/pkg/errors"
)

const testToken = "test-token"

// recordedCall is one request seen by the fake API.
type recordedCall struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	Auth   string
}

// fakeAPI serves canned responses per path and records every request other
// than token requests.
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server
	mux    *http.ServeMux

	mu         sync.Mutex
	calls      []recordedCall
	tokenCalls int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{t: t, mux: http.NewServeMux()}
	f.mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.tokenCalls++
		f.mu.Unlock()
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"bearer","expires_in":3600}`, testToken)
	})
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1/access_token" {
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		f.mu.Lock()
		f.calls = append(f.calls, recordedCall{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Form:   form,
			Auth:   r.Header.Get("Authorization"),
		})
		f.mu.Unlock()
	}
	f.mux.ServeHTTP(w, r)
}

// handle serves body for path.
func (f *fakeAPI) handle(path, body string) {
	f.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})
}

// handleFunc registers a handler for path.
func (f *fakeAPI) handleFunc(path string, fn http.HandlerFunc) {
	f.mux.HandleFunc(path, fn)
}

func (f *fakeAPI) tokenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenCalls
}

func (f *fakeAPI) requests() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

// client builds a Client pointed at the fake API with request spacing
// disabled. mutate adjusts the config before construction.
func (f *fakeAPI) client(mutate ...func(*Config)) *Client {
	f.t.Helper()
	cfg := &Config{
		Username:           "tester",
		Password:           "hunter2",
		ClientID:           "id",
		ClientSecret:       "secret",
		UserAgent:          "graw-test/1.0",
		BaseURL:            f.server.URL,
		PublicURL:          f.server.URL,
		AuthURL:            f.server.URL,
		HTTPClient:         f.server.Client(),
		MinRequestInterval: -1,
	}
	for _, m := range mutate {
		m(cfg)
	}
	c, err := NewClient(cfg)
	if err != nil {
		f.t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

// thingJSON renders one thing.
func thingJSON(kind, data string) string {
	return fmt.Sprintf(`{"kind":%q,"data":%s}`, kind, data)
}

// listingJSON renders a Listing thing. An empty after is sent as null.
func listingJSON(after string, children ...string) string {
	a := "null"
	if after != "" {
		a = fmt.Sprintf("%q", after)
	}
	return fmt.Sprintf(`{"kind":"Listing","data":{"after":%s,"before":null,"children":[%s]}}`, a, strings.Join(children, ","))
}

func commentJSON(id, parent string) string {
	return thingJSON("t1", fmt.Sprintf(`{"id":%q,"name":"t1_%s","parent_id":%q,"link_id":"t3_abc","author":"someone","body":"comment %s","replies":""}`, id, id, parent, id))
}

func submissionJSON(id string) string {
	return thingJSON("t3", fmt.Sprintf(`{"id":%q,"name":"t3_%s","title":"post %s","author":"poster"}`, id, id, id))
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		wantField string
	}{
		{name: "nil config", config: nil},
		{name: "client id without secret", config: &Config{ClientID: "id"}, wantField: "ClientSecret"},
		{name: "secret without client id", config: &Config{ClientSecret: "secret"}, wantField: "ClientSecret"},
		{name: "username without password", config: &Config{Username: "me"}, wantField: "Password"},
		{name: "listing limit too large", config: &Config{ListingLimit: 2001}, wantField: "ListingLimit"},
		{name: "negative listing limit", config: &Config{ListingLimit: -1}, wantField: "ListingLimit"},
		{name: "user agent with newline", config: &Config{UserAgent: "agent\r\nX-Evil: 1"}, wantField: "UserAgent"},
		{name: "relative base url", config: &Config{BaseURL: "oauth.reddit.com"}, wantField: "BaseURL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.config)
			if err == nil {
				t.Fatalf("expected error, got client %+v", c)
			}
			var cfgErr *pkgerrs.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %T: %v", err, err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	cfg := &Config{}
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if c.config.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q", c.config.UserAgent)
	}
	if c.config.BaseURL != DefaultBaseURL || c.config.PublicURL != DefaultPublicURL || c.config.AuthURL != DefaultAuthURL {
		t.Errorf("unexpected URLs %q %q %q", c.config.BaseURL, c.config.PublicURL, c.config.AuthURL)
	}
	if c.config.HTTPClient == nil || c.config.HTTPClient.Timeout != DefaultTimeout {
		t.Error("expected default HTTP client with timeout")
	}
	if c.auth != nil {
		t.Error("expected no authenticator without credentials")
	}
	if cfg.UserAgent != "" {
		t.Error("NewClient should not modify the caller's config")
	}
}

func TestNewClient_GrantType(t *testing.T) {
	c, err := NewClient(&Config{ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := c.auth.GrantType(); got != "client_credentials" {
		t.Errorf("grant type = %q, want client_credentials", got)
	}

	c, err = NewClient(&Config{ClientID: "id", ClientSecret: "secret", Username: "me", Password: "pw"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := c.auth.GrantType(); got != "password" {
		t.Errorf("grant type = %q, want password", got)
	}
	if c.Username() != "me" {
		t.Errorf("Username = %q", c.Username())
	}
}

func TestClient_AuthenticatesLazily(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("/r/golang/comments.json", listingJSON("", commentJSON("a", "t3_abc")))
	api.handle("/message/inbox.json", listingJSON(""))
	c := api.client()

	if _, err := c.GetComments(t.Context(), "golang", ""); err != nil {
		t.Fatalf("GetComments returned error: %v", err)
	}
	if n := api.tokenCount(); n != 0 {
		t.Fatalf("public listing should not request a token, got %d token calls", n)
	}

	for range 2 {
		if _, err := c.GetInbox(t.Context(), ""); err != nil {
			t.Fatalf("GetInbox returned error: %v", err)
		}
	}
	if n := api.tokenCount(); n != 1 {
		t.Errorf("expected one token request, got %d", n)
	}

	calls := api.requests()
	if calls[0].Auth != "" {
		t.Errorf("public request carried Authorization %q", calls[0].Auth)
	}
	if got := calls[len(calls)-1].Auth; got != "Bearer "+testToken {
		t.Errorf("Authorization = %q", got)
	}

	c.Logout()
	if _, err := c.GetInbox(t.Context(), ""); err != nil {
		t.Fatalf("GetInbox returned error: %v", err)
	}
	if n := api.tokenCount(); n != 2 {
		t.Errorf("expected a new token after Logout, got %d token calls", n)
	}
}

func TestClient_AuthEndpointWithoutCredentials(t *testing.T) {
	api := newFakeAPI(t)
	c := api.client(func(cfg *Config) {
		cfg.ClientID, cfg.ClientSecret = "", ""
	})

	_, err := c.GetInbox(t.Context(), "")
	var cfgErr *pkgerrs.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if len(api.requests()) != 0 {
		t.Error("no request should be sent")
	}
}

func TestClient_RegistersMetrics(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("/r/golang/new.json", listingJSON("", submissionJSON("a"), submissionJSON("b")))
	reg := prometheus.NewRegistry()
	c := api.client(func(cfg *Config) { cfg.Registerer = reg })

	if _, err := c.GetSubmissions(t.Context(), "golang", ""); err != nil {
		t.Fatalf("GetSubmissions returned error: %v", err)
	}

	if n, err := testutil.GatherAndCount(reg, "graw_requests_total", "graw_listing_items_total"); err != nil || n != 2 {
		t.Errorf("GatherAndCount = %d, %v; want 2 series", n, err)
	}
}
