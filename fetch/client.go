// Package fetch is the outbound HTTP client shared by every scraped source.
// It sends browser-like headers, bounds each call with a timeout and a redirect
// cap, and never retries: resilience belongs to the callers' fallback tiers.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxRedirects = 5
	maxTimeout          = 30 * time.Second
	maxBodyBytes        = 5 << 20
)

// DefaultUserAgents is the pool of desktop browser identities rotated per request
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

// Options tune a single request
type Options struct {
	Headers        map[string]string
	Timeout        time.Duration
	MaxRedirects   int
	RequireSuccess bool
}

// Response is a fully read HTTP response
type Response struct {
	Status  int
	Body    []byte
	Header  http.Header
	URL     string
	Latency time.Duration
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Doer is the subset of Client used by sources
type Doer interface {
	Get(ctx context.Context, rawURL string, opts Options) (*Response, error)
	Head(ctx context.Context, rawURL string, opts Options) (*Response, error)
}

// Client performs outbound requests
type Client struct {
	transport  http.RoundTripper
	timeout    time.Duration
	userAgents []string
	uaIndex    atomic.Uint64
	hostRate   rate.Limit
	hostBurst  int
	limiters   map[string]*rate.Limiter
	limMu      sync.Mutex
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the default per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithUserAgents replaces the rotated User-Agent pool
func WithUserAgents(agents ...string) Option {
	return func(c *Client) {
		if len(agents) > 0 {
			c.userAgents = agents
		}
	}
}

// WithHostRate limits requests per second to any single host. Zero disables it.
func WithHostRate(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.hostRate = rate.Limit(perSecond)
		c.hostBurst = burst
	}
}

// WithTransport swaps the round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client with pooled connections
func New(opts ...Option) *Client {
	c := &Client{
		transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		timeout:    DefaultTimeout,
		userAgents: DefaultUserAgents,
		hostRate:   4,
		hostBurst:  2,
		limiters:   make(map[string]*rate.Limiter),
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// UserAgent returns the next User-Agent of the rotation
func (c *Client) UserAgent() string {
	n := c.uaIndex.Add(1) - 1
	return c.userAgents[n%uint64(len(c.userAgents))]
}

// Get issues a GET request and reads the whole body
func (c *Client) Get(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, opts)
}

// Head issues a HEAD request
func (c *Client) Head(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	return c.do(ctx, http.MethodHead, rawURL, opts)
}

func (c *Client) do(ctx context.Context, method, rawURL string, opts Options) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &NetworkError{URL: rawURL, Err: fmt.Errorf("invalid url")}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	if timeout > maxTimeout {
		timeout = maxTimeout
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.waitHost(ctx, u.Hostname()); err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.UserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{
		Transport: c.transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	latency := time.Since(start)

	c.logger.Debug("fetch: done",
		"method", method, "url", rawURL, "status", resp.StatusCode,
		"size", len(body), "latency", latency)

	out := &Response{
		Status:  resp.StatusCode,
		Body:    body,
		Header:  resp.Header,
		URL:     resp.Request.URL.String(),
		Latency: latency,
	}
	if opts.RequireSuccess && !out.OK() {
		return out, &HTTPError{URL: rawURL, Status: resp.StatusCode}
	}
	return out, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(ct, "html") || strings.Contains(ct, "charset=utf-8") {
		return raw, nil
	}
	r, err := charset.NewReader(bytes.NewReader(raw), ct)
	if err != nil {
		return raw, nil
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return raw, nil
	}
	return decoded, nil
}

func (c *Client) waitHost(ctx context.Context, host string) error {
	if c.hostRate <= 0 {
		return nil
	}
	c.limMu.Lock()
	lim, ok := c.limiters[host]
	if !ok {
		burst := c.hostBurst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(c.hostRate, burst)
		c.limiters[host] = lim
	}
	c.limMu.Unlock()
	if err := lim.Wait(ctx); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return context.DeadlineExceeded
		}
		return err
	}
	return nil
}
