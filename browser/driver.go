// Package browser drives a shared headless Chrome through Rod. Chrome is
// launched lazily on first use, pages are created with stealth evasions and
// are always closed when the caller's function returns.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// ErrDisabled is returned by WithPage when browser automation is switched off
var ErrDisabled = errors.New("browser: disabled")

// ErrClosed is returned once the driver has been closed
var ErrClosed = errors.New("browser: driver closed")

// Config configures the driver.
type Config struct {
	// Enabled switches browser automation on. Callers fall back to static
	// sources when it is off.
	Enabled bool

	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty = launch a local Chrome.
	RemoteURL string

	// Bin overrides the Chrome binary path.
	Bin string

	// MaxPages bounds concurrently open pages. Default: 2.
	MaxPages int

	// NavigationTimeout applies when NavigateOptions.Timeout is zero. Default: 30s.
	NavigationTimeout time.Duration

	UserAgents []string
	Logger     *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxPages <= 0 {
		c.MaxPages = 2
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 30 * time.Second
	}
	if len(c.UserAgents) == 0 {
		c.UserAgents = []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Runner hands out scoped pages. Sources depend on this, not on Driver.
type Runner interface {
	WithPage(ctx context.Context, fn func(Page) error) error
}

// viewports are common desktop resolutions picked at random per page
var viewports = [][2]int{
	{1920, 1080}, {1366, 768}, {1536, 864}, {1440, 900}, {1280, 800},
}

type pageHandle interface {
	Page
	Close() error
}

// Driver owns the shared Chrome process
type Driver struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
	sem     chan struct{}

	// open creates a configured page; swapped in tests
	open func(ctx context.Context) (pageHandle, error)
}

// New creates a Driver. Chrome is not started until the first WithPage.
func New(cfg Config) *Driver {
	cfg.defaults()
	d := &Driver{cfg: cfg, sem: make(chan struct{}, cfg.MaxPages)}
	d.open = d.openRodPage
	return d
}

// Enabled reports whether the driver will hand out pages
func (d *Driver) Enabled() bool {
	return d != nil && d.cfg.Enabled
}

// WithPage acquires a page slot, opens a stealth page, runs fn and closes
// the page on every exit path, panics included.
func (d *Driver) WithPage(ctx context.Context, fn func(Page) error) (err error) {
	if !d.Enabled() {
		return ErrDisabled
	}

	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-d.sem }()

	p, err := d.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			d.cfg.Logger.Debug("browser: close page", "error", cerr)
		}
		if r := recover(); r != nil {
			err = fmt.Errorf("browser: page function panicked: %v", r)
		}
	}()

	return fn(p)
}

// Close shuts Chrome down. Further WithPage calls fail with ErrClosed.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return d.cleanup()
}

func (d *Driver) ensure(ctx context.Context) (*rod.Browser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if d.browser != nil {
		return d.browser, nil
	}

	wsURL := d.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Context(ctx).Headless(true).
			Set("disable-blink-features", "AutomationControlled").
			Set("no-sandbox")
		if d.cfg.Bin != "" {
			l = l.Bin(d.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		d.lnch = l
		d.cfg.Logger.Info("browser: launched local chrome", "url", wsURL)
	} else {
		d.cfg.Logger.Info("browser: connecting to remote", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		d.cleanup()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	d.browser = b
	return b, nil
}

func (d *Driver) cleanup() error {
	var err error
	if d.browser != nil {
		err = d.browser.Close()
		d.browser = nil
	}
	if d.lnch != nil {
		d.lnch.Cleanup()
		d.lnch = nil
	}
	return err
}

func (d *Driver) openRodPage(ctx context.Context) (pageHandle, error) {
	b, err := d.ensure(ctx)
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	vp := viewports[rand.IntN(len(viewports))]
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp[0],
		Height:            vp[1],
		DeviceScaleFactor: 1,
	}); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: viewport: %w", err)
	}

	ua := d.cfg.UserAgents[rand.IntN(len(d.cfg.UserAgents))]
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      ua,
		AcceptLanguage: "en-US,en;q=0.9",
		Platform:       "Win32",
	}); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: user agent: %w", err)
	}

	return &rodPage{page: page, navTimeout: d.cfg.NavigationTimeout}, nil
}
