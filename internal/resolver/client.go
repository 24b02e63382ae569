// SPDX-License-Identifier: MIT

// Package resolver performs the online checks that need live data from
// GitHub: resolving a ref to the commit it currently points at,
// checking whether a commit is reachable from a repository's fork
// network, and looking up a name as both a branch and a tag for
// confusability checks. An offline client returns "unknown" results
// without any network call. CheckImpostor and CheckRefConfusion also
// report an unchecked result, rather than an error, when a lookup
// fails; ResolveRef returns an error for failures other than not-found.
package resolver

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/esacteksab/httpcache"
	"github.com/esacteksab/httpcache/diskcache"
	"github.com/google/go-github/v72/github"
)

const cacheEntries = 4096

// rateLimitedTransport throttles outgoing requests with a token bucket
// before handing them to the wrapped transport, so a run over many
// workflow files doesn't immediately exhaust GitHub's rate limit.
type rateLimitedTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("resolver: rate limiter: %w", err)
	}
	return t.base.RoundTrip(req)
}

// Client wraps a GitHub API client with an in-memory result cache and
// an offline flag. A nil *Client (or one with Offline set) causes every
// lookup method to return its "unknown" zero value immediately.
type Client struct {
	gh      *github.Client
	offline bool
	cache   *lru.Cache[string, any]
}

// Option configures New.
type Option func(*clientConfig)

type clientConfig struct {
	token       string
	rps         float64
	burst       int
	diskCacheOn bool
}

// WithToken overrides the GITHUB_TOKEN environment variable.
func WithToken(token string) Option {
	return func(c *clientConfig) { c.token = token }
}

// WithRateLimit sets the outgoing request budget; GitHub's documented
// authenticated and unauthenticated hourly limits translate to roughly
// 1.3 req/s and 0.016 req/s respectively, but bursts are what actually
// matter for a single workflow-file run, so the default favors a small
// burst over a precisely modeled rate.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(c *clientConfig) { c.rps = requestsPerSecond; c.burst = burst }
}

// New builds an online Client. If offline is true, the returned Client
// never makes a network call and every lookup returns its zero/unknown
// result immediately.
func New(offline bool, opts ...Option) (*Client, error) {
	if offline {
		return &Client{offline: true}, nil
	}

	cfg := clientConfig{rps: 2, burst: 5, diskCacheOn: true}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.token == "" {
		cfg.token = os.Getenv("GITHUB_TOKEN")
	}

	cache, err := lru.New[string, any](cacheEntries)
	if err != nil {
		return nil, fmt.Errorf("resolver: building result cache: %w", err)
	}

	var base http.RoundTripper = http.DefaultTransport
	if cfg.diskCacheOn {
		if dir, err := diskCacheDir(); err == nil {
			base = httpcache.NewTransport(diskcache.New(dir))
		}
	}

	if cfg.token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.token})
		base = &oauth2.Transport{Base: base, Source: oauth2.ReuseTokenSource(nil, ts)}
	}

	limited := &rateLimitedTransport{
		limiter: rate.NewLimiter(rate.Limit(cfg.rps), cfg.burst),
		base:    base,
	}

	gh := github.NewClient(&http.Client{Transport: limited, Timeout: 30 * time.Second})
	return &Client{gh: gh, cache: cache}, nil
}

// Offline reports whether this client was built for offline use.
func (c *Client) Offline() bool {
	return c == nil || c.offline
}

// GitHubClient returns the underlying go-github client, or nil for an
// offline Client. Exposed so other online-only packages (advisory)
// can share the same rate-limited, cached transport instead of each
// building their own.
func (c *Client) GitHubClient() *github.Client {
	if c == nil || c.offline {
		return nil
	}
	return c.gh
}

func diskCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "zizmor")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	return dir, nil
}

func isNotFoundError(err error, resp *github.Response) bool {
	if _, ok := err.(*github.ErrorResponse); ok {
		return resp != nil && resp.StatusCode == http.StatusNotFound
	}
	return false
}

// cacheGet/cacheSet centralize the memoization every lookup method
// below applies, keyed on a string built from the call's arguments.
func cacheGet[T any](c *Client, key string) (T, bool) {
	var zero T
	if c.cache == nil {
		return zero, false
	}
	v, ok := c.cache.Get(key)
	if !ok {
		return zero, false
	}
	tv, ok := v.(T)
	if !ok {
		return zero, false
	}
	return tv, true
}

func cacheSet[T any](c *Client, key string, v T) {
	if c.cache != nil {
		c.cache.Add(key, v)
	}
}
