// Package token acquires and caches the Spotify client-credentials access
// token. A single Cache instance owns one in-memory token slot: the fast
// path returns the cached value without I/O, and an expired or missing slot
// triggers exactly one synchronous refresh against the upstream token
// endpoint. The slot is always replaced as a whole so readers never observe
// a value paired with another refresh's expiry.
//
// Cache also implements oauth2.TokenSource which lets the catalog client be
// constructed with oauth2.NewClient, injecting the cached credential into
// every outbound Spotify API request.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"spotify-insights-mcp/pkg/metrics"
)

// safetyMargin is subtracted from the issuer-reported validity so a token
// is never presented to the API within 30 seconds of its real expiry.
const safetyMargin = 30 * time.Second

// defaultExpiry is assumed when the token response omits expires_in.
const defaultExpiry = 3600 * time.Second

// requestTimeout bounds the outbound token issuance call.
const requestTimeout = 10 * time.Second

// spotifyTokenURL is the OAuth2 client-credentials endpoint.
const spotifyTokenURL = "https://accounts.spotify.com/api/token"

var log = logrus.WithField("component", "token")

// UpstreamAuthError reports a failed token issuance: network error,
// timeout, non-2xx status or a malformed response body.
type UpstreamAuthError struct {
	Reason string
	Err    error
}

func (e *UpstreamAuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream auth: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("upstream auth: %s", e.Reason)
}

func (e *UpstreamAuthError) Unwrap() error { return e.Err }

// Issuer obtains a fresh access token from the upstream authorization
// server. Implementations must bound the request with a timeout and return
// an *UpstreamAuthError on any failure.
type Issuer interface {
	IssueToken(ctx context.Context) (value string, expiresIn time.Duration, err error)
}

// cached is the single token slot. It is replaced wholesale on refresh.
type cached struct {
	value     string
	expiresAt time.Time
}

// Cache memoizes the upstream access token until shortly before expiry.
type Cache struct {
	issuer Issuer
	now    func() time.Time

	mu  sync.Mutex
	cur cached
}

// New returns a Cache backed by the given issuer.
func New(issuer Issuer) *Cache {
	return &Cache{issuer: issuer, now: time.Now}
}

// current returns the valid slot, refreshing it when the cached one is
// missing or past its recorded expiry. The whole read-check-refresh cycle
// runs under the cache mutex, so concurrent callers observing an expired
// slot trigger a single upstream request and every caller receives a
// value/expiry pair produced by one refresh.
func (c *Cache) current(ctx context.Context) (cached, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cur.value != "" && c.now().Before(c.cur.expiresAt) {
		return c.cur, nil
	}

	value, expiresIn, err := c.issuer.IssueToken(ctx)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		log.WithError(err).Warn("token refresh failed")
		return cached{}, err
	}
	metrics.TokenRefreshes.WithLabelValues("success").Inc()

	c.cur = cached{
		value:     value,
		expiresAt: c.now().Add(expiresIn - safetyMargin),
	}
	log.WithField("expires_at", c.cur.expiresAt).Debug("token refreshed")
	return c.cur, nil
}

// GetToken returns a valid access token, refreshing it when the cached one
// is missing or expired.
func (c *Cache) GetToken(ctx context.Context) (string, error) {
	cur, err := c.current(ctx)
	if err != nil {
		return "", err
	}
	return cur.value, nil
}

// Token implements oauth2.TokenSource. The value and expiry come from a
// single critical section; the expiry already includes the safety margin so
// wrapping sources refresh on the same schedule.
func (c *Cache) Token() (*oauth2.Token, error) {
	cur, err := c.current(context.Background())
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: cur.value, TokenType: "Bearer", Expiry: cur.expiresAt}, nil
}

// HTTPIssuer performs the client-credentials grant against the Spotify
// accounts service: a form-encoded POST authenticated with HTTP Basic
// credentials and bounded by a 10 second timeout.
type HTTPIssuer struct {
	ClientID     string
	ClientSecret string

	// TokenURL overrides the Spotify endpoint, used by tests.
	TokenURL string
	// HTTP overrides the default client, used by tests.
	HTTP *http.Client
}

// IssueToken requests a new access token. Missing expires_in defaults to
// 3600 seconds; a missing access_token field is treated as malformed.
func (i *HTTPIssuer) IssueToken(ctx context.Context) (string, time.Duration, error) {
	endpoint := i.TokenURL
	if endpoint == "" {
		endpoint = spotifyTokenURL
	}
	client := i.HTTP
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, &UpstreamAuthError{Reason: "build request", Err: err}
	}
	req.SetBasicAuth(i.ClientID, i.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, &UpstreamAuthError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, &UpstreamAuthError{Reason: fmt.Sprintf("unexpected status %s", resp.Status)}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, &UpstreamAuthError{Reason: "decode response", Err: err}
	}
	if body.AccessToken == "" {
		return "", 0, &UpstreamAuthError{Reason: "response missing access_token"}
	}

	expiresIn := defaultExpiry
	if body.ExpiresIn > 0 {
		expiresIn = time.Duration(body.ExpiresIn) * time.Second
	}
	return body.AccessToken, expiresIn, nil
}
