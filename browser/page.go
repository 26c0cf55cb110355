package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// ErrNavigationTimeout is wrapped by navigation failures caused by a deadline
var ErrNavigationTimeout = errors.New("browser: navigation timeout")

// NavigationError reports a failed navigation
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("browser: navigate %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// WaitUntil selects how long Navigate waits after the request
type WaitUntil int

const (
	// WaitLoad waits for the load event
	WaitLoad WaitUntil = iota
	// WaitIdle additionally waits for network activity to settle
	WaitIdle
)

// NavigateOptions tune a navigation
type NavigateOptions struct {
	WaitUntil WaitUntil
	Timeout   time.Duration
}

// Page is a browser tab handed out by WithPage
type Page interface {
	Navigate(ctx context.Context, url string, opts NavigateOptions) error
	// Evaluate runs a JS function returning a JSON string and decodes it into out
	Evaluate(ctx context.Context, js string, out any, args ...any) error
	HTML(ctx context.Context) (string, error)
}

type rodPage struct {
	page       *rod.Page
	navTimeout time.Duration
}

func (p *rodPage) Navigate(ctx context.Context, url string, opts NavigateOptions) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = p.navTimeout
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pg := p.page.Context(navCtx)
	if err := pg.Navigate(url); err != nil {
		return navError(url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return navError(url, err)
	}
	if opts.WaitUntil == WaitIdle {
		// Idle is best effort: slow trackers must not fail an otherwise loaded page.
		_ = pg.WaitIdle(2 * time.Second)
	}
	return nil
}

func navError(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}
	return &NavigationError{URL: url, Err: err}
}

func (p *rodPage) Evaluate(ctx context.Context, js string, out any, args ...any) error {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return fmt.Errorf("browser: evaluate: %w", err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), out); err != nil {
		return fmt.Errorf("browser: decode evaluate result: %w", err)
	}
	return nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: get DOM: %w", err)
	}
	return html, nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
