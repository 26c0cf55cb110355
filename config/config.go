// Package config loads service settings from defaults, an optional YAML file
// and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvFiles are tried in order; the first one found is loaded
var EnvFiles = []string{".env.development", ".env"}

type Google struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

type Browser struct {
	Enabled   bool   `yaml:"enabled"`
	MaxPages  int    `yaml:"max_pages"`
	RemoteURL string `yaml:"remote_url"`
}

type Config struct {
	Port      string `yaml:"port"`
	GinMode   string `yaml:"gin_mode"`
	DevMode   bool   `yaml:"dev_mode"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	DataDir      string `yaml:"data_dir"`
	DatabasePath string `yaml:"database_path"`

	// JWTSecret must be at least 32 bytes. Empty means one is generated at startup.
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	Google     Google        `yaml:"google"`

	Browser Browser `yaml:"browser"`

	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	FetchHostRate float64       `yaml:"fetch_host_rate"`

	CacheShortTTL   time.Duration `yaml:"cache_short_ttl"`
	CacheLongTTL    time.Duration `yaml:"cache_long_ttl"`
	CacheMaxEntries int           `yaml:"cache_max_entries"`

	KeywordWorkers    int `yaml:"keyword_workers"`
	AuthorityWorkers  int `yaml:"authority_workers"`
	FallbackThreshold int `yaml:"fallback_threshold"`

	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Port:              "8082",
		GinMode:           "release",
		LogLevel:          "info",
		LogFormat:         "text",
		DataDir:           "./data",
		SessionTTL:        24 * time.Hour,
		Browser:           Browser{MaxPages: 2},
		FetchTimeout:      10 * time.Second,
		FetchHostRate:     4,
		CacheShortTTL:     10 * time.Minute,
		CacheLongTTL:      2 * time.Hour,
		CacheMaxEntries:   5000,
		KeywordWorkers:    3,
		AuthorityWorkers:  4,
		FallbackThreshold: 15,
		RateLimitRPS:      2,
		RateLimitBurst:    5,
		RequestTimeout:    120 * time.Second,
	}
}

// LoadEnvFiles loads the first env file present into the process
// environment and returns its name, or "" when none exists.
// Variables already set are not overridden.
func LoadEnvFiles() string {
	for _, f := range EnvFiles {
		if err := godotenv.Load(f); err == nil {
			return f
		}
	}
	return ""
}

// Load reads env files, then builds the configuration from file (or
// CONFIG_FILE when file is empty) and the process environment.
func Load(file string) (*Config, error) {
	LoadEnvFiles()
	return Parse(file, os.LookupEnv)
}

// Parse applies defaults, the YAML file if any, then variables from lookup
func Parse(file string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if file == "" {
		file, _ = lookup("CONFIG_FILE")
	}
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", file, err)
		}
	}

	e := env{lookup: lookup}
	e.strVar("PORT", &cfg.Port)
	e.strVar("GIN_MODE", &cfg.GinMode)
	e.boolVar("DEV_MODE", &cfg.DevMode)
	e.strVar("LOG_LEVEL", &cfg.LogLevel)
	e.strVar("LOG_FORMAT", &cfg.LogFormat)
	e.strVar("DATA_DIR", &cfg.DataDir)
	e.strVar("DATABASE_PATH", &cfg.DatabasePath)
	e.strVar("JWT_SECRET", &cfg.JWTSecret)
	e.durationVar("SESSION_TTL", &cfg.SessionTTL)
	e.strVar("GOOGLE_CLIENT_ID", &cfg.Google.ClientID)
	e.strVar("GOOGLE_CLIENT_SECRET", &cfg.Google.ClientSecret)
	e.strVar("GOOGLE_REDIRECT_URL", &cfg.Google.RedirectURL)
	e.boolVar("BROWSER_ENABLED", &cfg.Browser.Enabled)
	e.intVar("BROWSER_MAX_PAGES", &cfg.Browser.MaxPages)
	e.strVar("BROWSER_REMOTE_URL", &cfg.Browser.RemoteURL)
	e.durationVar("FETCH_TIMEOUT", &cfg.FetchTimeout)
	e.floatVar("FETCH_HOST_RATE", &cfg.FetchHostRate)
	e.durationVar("CACHE_SHORT_TTL", &cfg.CacheShortTTL)
	e.durationVar("CACHE_LONG_TTL", &cfg.CacheLongTTL)
	e.intVar("CACHE_MAX_ENTRIES", &cfg.CacheMaxEntries)
	e.intVar("KEYWORD_WORKERS", &cfg.KeywordWorkers)
	e.intVar("AUTHORITY_WORKERS", &cfg.AuthorityWorkers)
	e.intVar("FALLBACK_THRESHOLD", &cfg.FallbackThreshold)
	e.floatVar("RATE_LIMIT_RPS", &cfg.RateLimitRPS)
	e.intVar("RATE_LIMIT_BURST", &cfg.RateLimitBurst)
	e.durationVar("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.DataDir, "seotools.db")
	}
	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < 32 {
		return nil, errors.New("config: JWT_SECRET must be at least 32 bytes")
	}
	return cfg, nil
}

// Addr is the listen address for Port
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *env) fail(key, v string, err error) {
	e.errs = append(e.errs, fmt.Errorf("config: %s=%q: %w", key, v, err))
}

func (e *env) strVar(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *env) boolVar(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = b
	}
}

func (e *env) intVar(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *env) floatVar(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (e *env) durationVar(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = d
	}
}
