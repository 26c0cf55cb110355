package main

import (
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/seo-optimizer/seotools/analyzer"
	"github.com/seo-optimizer/seotools/browser"
	"github.com/seo-optimizer/seotools/cache"
	"github.com/seo-optimizer/seotools/config"
	"github.com/seo-optimizer/seotools/fetch"
	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/stats"
	"github.com/seo-optimizer/seotools/tools"
)

// app holds the process-wide collaborators shared by serve and the one-shot commands
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	usage  *stats.Storage
	driver *browser.Driver
	tools  *tools.Service

	keywords  *cache.Store[[]model.KeywordCandidate]
	authority *cache.Store[model.Authority]
	pages     *cache.Store[*analyzer.SEOAnalysis]
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	usage, err := stats.NewStorage(cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}

	cacheCfg := cache.Config{
		ShortTTL:   cfg.CacheShortTTL,
		LongTTL:    cfg.CacheLongTTL,
		MaxEntries: cfg.CacheMaxEntries,
		Recorder:   usage,
	}
	a := &app{
		cfg:       cfg,
		logger:    logger,
		usage:     usage,
		keywords:  cache.NewStore[[]model.KeywordCandidate](cacheCfg),
		authority: cache.NewStore[model.Authority](cacheCfg),
		pages:     cache.NewStore[*analyzer.SEOAnalysis](cacheCfg),
	}

	client := fetch.New(
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithHostRate(cfg.FetchHostRate, 2),
		fetch.WithLogger(logger),
	)

	var runner browser.Runner
	if cfg.Browser.Enabled {
		a.driver = browser.New(browser.Config{
			Enabled:   true,
			RemoteURL: cfg.Browser.RemoteURL,
			MaxPages:  cfg.Browser.MaxPages,
			Logger:    logger,
		})
		runner = a.driver
	}

	a.tools = tools.NewDefault(tools.Components{
		Fetch:             client,
		Browser:           runner,
		Keywords:          a.keywords,
		Authority:         a.authority,
		Pages:             a.pages,
		Gate:              cache.NewGate(nil, time.Second),
		Recorder:          usage,
		Logger:            logger,
		Pause:             300 * time.Millisecond,
		FallbackThreshold: cfg.FallbackThreshold,
	}, tools.Config{
		KeywordWorkers:   cfg.KeywordWorkers,
		AuthorityWorkers: cfg.AuthorityWorkers,
	})
	return a, nil
}

func (a *app) statisticsPath() string {
	return filepath.Join(a.cfg.DataDir, "statistics.json")
}

func (a *app) Close() error {
	a.keywords.Close()
	a.authority.Close()
	a.pages.Close()
	var errs []error
	if a.driver != nil {
		errs = append(errs, a.driver.Close())
	}
	errs = append(errs, a.usage.Shutdown())
	return errors.Join(errs...)
}
