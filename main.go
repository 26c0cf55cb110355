package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/seo-optimizer/seotools/api"
	"github.com/seo-optimizer/seotools/auth"
	"github.com/seo-optimizer/seotools/config"
	"github.com/seo-optimizer/seotools/logging"
	"github.com/seo-optimizer/seotools/store"
)

var (
	configFile string
	location   string
	language   string
	country    string
	engine     string
)

var rootCmd = &cobra.Command{
	Use:   "seotools",
	Short: "Keyword research, competition, rank and backlink tools",
	Long: `seotools gathers SEO signals from public search engines and platforms.
Without a subcommand it serves the HTTP API.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (default $CONFIG_FILE)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and installs the logger
func setup() (*config.Config, func() error, error) {
	envFile := config.LoadEnvFiles()
	cfg, err := config.Parse(configFile, os.LookupEnv)
	if err != nil {
		return nil, nil, err
	}
	logger, closeLog := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Getenv("LOG_FILE"))
	if envFile == "" {
		logger.Debug("config: no .env file found, using environment variables")
	}
	return cfg, closeLog, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()
	gin.SetMode(cfg.GinMode)

	a, err := newApp(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer a.Close()

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		a.logger.Warn("auth: JWT_SECRET not set, generated one for this process; sessions will not survive a restart")
		secret = auth.GenerateSecret()
	}
	authSvc, err := auth.NewService(db, auth.Config{
		Secret:     secret,
		SessionTTL: cfg.SessionTTL,
		Google: auth.OAuthConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		},
	}, a.logger)
	if err != nil {
		return err
	}

	statistics, err := logging.NewStatistics(a.statisticsPath(), cfg.DevMode)
	if err != nil {
		a.logger.Warn("logging: could not load statistics", "error", err)
	}
	defer func() {
		if err := statistics.Save(); err != nil {
			a.logger.Warn("logging: save statistics", "error", err)
		}
	}()

	srv := api.New(api.Deps{
		Tools:      a.tools,
		Auth:       authSvc,
		Results:    db,
		Statistics: statistics,
		Usage:      a.usage,
		Logger:     a.logger,
	}, api.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		RequestTimeout: cfg.RequestTimeout,
		SecureCookies:  !cfg.DevMode,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http: server starting", "addr", "http://localhost"+cfg.Addr(), "browser", cfg.Browser.Enabled, "google", authSvc.GoogleEnabled())
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("http: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
