package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	pkgerrs "github.com/jamesprial/go-reddit-listings/pkg/errors"
	"github.com/jamesprial/go-reddit-listings/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type staticTokens struct {
	token string
	err   error
	calls int
}

func (s *staticTokens) Token(context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

// newTestClient returns a dispatcher for baseURL without request spacing.
func newTestClient(t *testing.T, baseURL string, tokens TokenSource) *Client {
	t.Helper()
	c, err := NewClient(ClientOptions{
		BaseURL:   baseURL,
		UserAgent: "graw-test/1.0",
		Tokens:    tokens,
		Limiter:   NewRateLimiter(0),
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(ClientOptions{BaseURL: "https://oauth.reddit.com", UserAgent: "agent"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if c.client != http.DefaultClient {
		t.Error("expected http.DefaultClient")
	}
	if got := c.BaseURL.String(); got != "https://oauth.reddit.com/" {
		t.Errorf("expected base URL to gain trailing slash, got %q", got)
	}
	if c.PublicURL != c.BaseURL {
		t.Error("expected PublicURL to default to BaseURL")
	}
	if c.limiter == nil {
		t.Fatal("expected limiter to be initialized")
	}
}

func TestNewClient_InvalidURLs(t *testing.T) {
	tests := []struct {
		name  string
		opts  ClientOptions
		field string
	}{
		{name: "bad base", opts: ClientOptions{BaseURL: "://bad"}, field: "BaseURL"},
		{name: "relative base", opts: ClientOptions{BaseURL: "api/"}, field: "BaseURL"},
		{name: "bad public", opts: ClientOptions{BaseURL: "https://oauth.reddit.com", PublicURL: "nope"}, field: "PublicURL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.opts)
			var cfgErr *pkgerrs.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %T: %v", err, err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestClient_NewRequest(t *testing.T) {
	tokens := &staticTokens{token: "token-value"}
	c, err := NewClient(ClientOptions{
		BaseURL:   "https://oauth.reddit.com",
		PublicURL: "https://www.reddit.com",
		UserAgent: "my-agent",
		Tokens:    tokens,
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	t.Run("public GET", func(t *testing.T) {
		ep, _ := LookupEndpoint(EndpointComments)
		req, err := c.NewRequest(context.Background(), ep, url.Values{"limit": {"100"}}, "golang")
		if err != nil {
			t.Fatalf("NewRequest returned error: %v", err)
		}
		if got := req.URL.String(); got != "https://www.reddit.com/r/golang/comments.json?limit=100" {
			t.Errorf("unexpected URL %s", got)
		}
		if got := req.Header.Get("Authorization"); got != "" {
			t.Errorf("public request carries Authorization %q", got)
		}
		if got := req.Header.Get("User-Agent"); got != "my-agent" {
			t.Errorf("expected User-Agent 'my-agent', got %q", got)
		}
	})

	t.Run("authenticated POST", func(t *testing.T) {
		ep, _ := LookupEndpoint(EndpointReply)
		req, err := c.NewRequest(context.Background(), ep, url.Values{"thing_id": {"t1_abc"}, "text": {"hi"}})
		if err != nil {
			t.Fatalf("NewRequest returned error: %v", err)
		}
		if got := req.URL.String(); got != "https://oauth.reddit.com/api/comment.json" {
			t.Errorf("unexpected URL %s", got)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer token-value" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if got := req.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected Content-Type %q", got)
		}
		body, _ := io.ReadAll(req.Body)
		form, err := url.ParseQuery(string(body))
		if err != nil {
			t.Fatalf("body is not a form: %v", err)
		}
		if form.Get("api_type") != "json" || form.Get("thing_id") != "t1_abc" || form.Get("text") != "hi" {
			t.Errorf("unexpected form %v", form)
		}
	})

	t.Run("caller overrides defaults", func(t *testing.T) {
		ep, _ := LookupEndpoint(EndpointBan)
		req, err := c.NewRequest(context.Background(), ep, url.Values{"type": {"contributor"}})
		if err != nil {
			t.Fatalf("NewRequest returned error: %v", err)
		}
		body, _ := io.ReadAll(req.Body)
		if form, _ := url.ParseQuery(string(body)); form.Get("type") != "contributor" {
			t.Errorf("type = %q, want contributor", form.Get("type"))
		}
	})
}

func TestClient_NewRequestWithoutTokens(t *testing.T) {
	c := newTestClient(t, "https://oauth.reddit.com", nil)
	ep, _ := LookupEndpoint(EndpointInbox)

	_, err := c.NewRequest(context.Background(), ep, nil)
	var cfgErr *pkgerrs.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
}

func TestClient_NewRequestTokenError(t *testing.T) {
	authErr := &pkgerrs.AuthError{StatusCode: http.StatusUnauthorized}
	c := newTestClient(t, "https://oauth.reddit.com", &staticTokens{err: authErr})
	ep, _ := LookupEndpoint(EndpointInbox)

	_, err := c.NewRequest(context.Background(), ep, nil)
	if !errors.Is(err, authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestClient_CallDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r/golang/about.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"kind":"t5","data":{"id":"2rc7j","display_name":"golang"}}`))
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL, nil)

	var thing types.Thing
	if err := c.Call(context.Background(), EndpointAbout, nil, &thing, "golang"); err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if thing.Kind != types.KindSubreddit {
		t.Errorf("expected kind 't5', got %q", thing.Kind)
	}
	if len(thing.Data) == 0 {
		t.Errorf("expected data to be populated")
	}
}

func TestClient_CallErrors(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		resource string
		status   int
		body     string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "server error",
			endpoint: EndpointAbout,
			resource: "golang",
			status:   http.StatusServiceUnavailable,
			body:     `{"error":"temporary"}`,
			check: func(t *testing.T, err error) {
				var apiErr *pkgerrs.APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected APIError, got %T", err)
				}
				if apiErr.StatusCode != http.StatusServiceUnavailable || apiErr.Endpoint != EndpointAbout {
					t.Errorf("unexpected APIError %+v", apiErr)
				}
			},
		},
		{
			name:     "user not found",
			endpoint: EndpointUserComments,
			resource: "ghost",
			status:   http.StatusNotFound,
			body:     `{"message":"Not Found","error":404}`,
			check: func(t *testing.T, err error) {
				var notFound *pkgerrs.UserNotFoundError
				if !errors.As(err, &notFound) {
					t.Fatalf("expected UserNotFoundError, got %T", err)
				}
				if notFound.Username != "ghost" {
					t.Errorf("Username = %q, want ghost", notFound.Username)
				}
			},
		},
		{
			name:     "404 on non-user endpoint",
			endpoint: EndpointAbout,
			resource: "nope",
			status:   http.StatusNotFound,
			check: func(t *testing.T, err error) {
				var notFound *pkgerrs.UserNotFoundError
				if errors.As(err, &notFound) {
					t.Fatal("subreddit 404 must not become UserNotFoundError")
				}
			},
		},
		{
			name:     "bad json",
			endpoint: EndpointAbout,
			resource: "golang",
			status:   http.StatusOK,
			body:     `{"bad json"`,
			check: func(t *testing.T, err error) {
				var parseErr *pkgerrs.ParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("expected ParseError, got %T", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(server.Close)

			c := newTestClient(t, server.URL, nil)
			var thing types.Thing
			tt.check(t, c.Call(context.Background(), tt.endpoint, nil, &thing, tt.resource))
		})
	}
}

func TestClient_CallUnknownEndpoint(t *testing.T) {
	c := newTestClient(t, "https://oauth.reddit.com", nil)
	var cfgErr *pkgerrs.ConfigError
	if err := c.Call(context.Background(), "nope", nil, nil); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestClient_DoRawTransportErrorWrapped(t *testing.T) {
	expectedErr := errors.New("boom")
	c, err := NewClient(ClientOptions{
		BaseURL: "https://example.com/",
		HTTPClient: &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return nil, expectedErr
		})},
		Limiter: NewRateLimiter(0),
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	err = c.Call(context.Background(), EndpointAbout, nil, nil, "golang")
	var reqErr *pkgerrs.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %T", err)
	}
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected wrapped error %v, got %v", expectedErr, err)
	}
}

func TestClient_DoRawHonorsCanceledContextBeforeSend(t *testing.T) {
	transportCalled := false
	c, err := NewClient(ClientOptions{
		BaseURL: "https://example.com/",
		HTTPClient: &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			transportCalled = true
			return nil, errors.New("unexpected transport call")
		})},
		Limiter: NewRateLimiter(time.Hour),
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	// Use up the only slot so the next request has to wait.
	if _, err := c.limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.Call(ctx, EndpointAbout, nil, nil, "golang")
	if err == nil {
		t.Fatal("expected error due to canceled context")
	}
	if transportCalled {
		t.Fatal("transport should not be invoked when context already canceled")
	}
}

func TestClient_EnforcesRetryAfter(t *testing.T) {
	var (
		mu        sync.Mutex
		callCount int
		firstHit  time.Time
		secondHit time.Time
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
		if callCount == 1 {
			firstHit = time.Now()
			w.Header().Set("Retry-After", "0.1")
		} else {
			secondHit = time.Now()
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL, nil)
	ctx := context.Background()
	if err := c.Call(ctx, EndpointAbout, nil, nil, "first"); err != nil {
		t.Fatalf("first Call returned error: %v", err)
	}
	if err := c.Call(ctx, EndpointAbout, nil, nil, "second"); err != nil {
		t.Fatalf("second Call returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if callCount != 2 {
		t.Fatalf("expected 2 calls to server, got %d", callCount)
	}
	if diff := secondHit.Sub(firstHit); diff < 90*time.Millisecond {
		t.Fatalf("expected at least 90ms between requests, got %v", diff)
	}
}

func TestClient_FetchListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("after"); got != "t3_x" {
			t.Errorf("after = %q, want t3_x", got)
		}
		fmt.Fprint(w, `{"kind":"Listing","data":{"after":null,"children":[{"kind":"t3","data":{"id":"a","name":"t3_a"}}]}}`)
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL, nil)
	listing, err := c.FetchListing(context.Background(), EndpointSubmissions, url.Values{"after": {"t3_x"}}, "golang")
	if err != nil {
		t.Fatalf("FetchListing returned error: %v", err)
	}
	if listing.AfterFullname != "" {
		t.Errorf("null after should decode empty, got %q", listing.AfterFullname)
	}
	if len(listing.Children) != 1 {
		t.Errorf("children = %d, want 1", len(listing.Children))
	}
}

func TestDecodeListing_WrongKind(t *testing.T) {
	_, err := DecodeListing("test", &types.Thing{Kind: types.KindLink, Data: []byte(`{}`)})
	var parseErr *pkgerrs.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestClient_CommandErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"json":{"errors":[["SUBREDDIT_NOEXIST","that subreddit doesn't exist","sr"]]}}`)
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL, &staticTokens{token: "t"})
	_, err := c.Command(context.Background(), EndpointSubmit, url.Values{"sr": {"nope"}})

	var apiErr *pkgerrs.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.ErrorCode != "SUBREDDIT_NOEXIST" {
		t.Errorf("ErrorCode = %q", apiErr.ErrorCode)
	}
	if apiErr.Message != "that subreddit doesn't exist (sr)" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestClient_RecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/r/missing/about.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	metrics := NewMetrics(nil)
	c, err := NewClient(ClientOptions{BaseURL: server.URL, Limiter: NewRateLimiter(0), Metrics: metrics})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_ = c.Call(context.Background(), EndpointAbout, nil, nil, "golang")
	_ = c.Call(context.Background(), EndpointAbout, nil, nil, "golang")
	_ = c.Call(context.Background(), EndpointAbout, nil, nil, "missing")

	if got := testutil.ToFloat64(metrics.Requests.WithLabelValues(EndpointAbout, "200")); got != 2 {
		t.Errorf("200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.Requests.WithLabelValues(EndpointAbout, "404")); got != 1 {
		t.Errorf("404 count = %v, want 1", got)
	}
}

func TestEndpoint_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		endpoint  string
		resources []string
		want      string
	}{
		{name: "subreddit", endpoint: EndpointModLog, resources: []string{"golang"}, want: "r/golang/about/log.json"},
		{name: "two placeholders", endpoint: EndpointModmailThread, resources: []string{"golang", "abc"}, want: "r/golang/message/messages/abc.json"},
		{name: "wiki", endpoint: EndpointWikiPage, resources: []string{"golang", "index"}, want: "r/golang/wiki/index.json"},
		{name: "no placeholder", endpoint: EndpointInbox, want: "message/inbox.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, ok := LookupEndpoint(tt.endpoint)
			if !ok {
				t.Fatalf("endpoint %q not registered", tt.endpoint)
			}
			if ep.Name != tt.endpoint {
				t.Errorf("Name = %q, want %q", ep.Name, tt.endpoint)
			}
			if got := ep.Resolve(tt.resources...); got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}
