package config

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/NamanBalaji/urlconf/internal/params"
	"github.com/NamanBalaji/urlconf/pkg/transport"
	"github.com/NamanBalaji/urlconf/pkg/transport/engine"
)

const configFileName = "urlconf"

// Config holds the configuration options for the application.
type Config struct {
	ConnectTimeout     time.Duration     `yaml:"connectTimeout,omitempty"`
	RequestTimeout     time.Duration     `yaml:"requestTimeout,omitempty"`
	UserAgent          string            `yaml:"userAgent,omitempty"`
	Headers            map[string]string `yaml:"headers,omitempty"`
	DisableCompression bool              `yaml:"disableCompression,omitempty"`
	DisableRedirects   bool              `yaml:"disableRedirects,omitempty"`
	MaxRedirects       int               `yaml:"maxRedirects,omitempty"`
	// DisableTLS stops https and ftps URLs from being recognised at all.
	DisableTLS bool           `yaml:"disableTLS,omitempty"`
	Retry      *RetryConfig   `yaml:"retry,omitempty"`
	Journal    *JournalConfig `yaml:"journal,omitempty"`
}

// RetryConfig holds the caller-level retry policy of the CLI.
type RetryConfig struct {
	Attempts int           `yaml:"attempts,omitempty"`
	Delay    time.Duration `yaml:"delay,omitempty"`
	Parallel int           `yaml:"parallel,omitempty"`
}

// JournalConfig holds configuration options for the fetch journal.
type JournalConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Path     string `yaml:"path,omitempty"`
}

// Path returns the default location of the configuration file.
func Path() string {
	return filepath.Join(xdg.ConfigHome, configFileName)
}

// GetConfig reads the configuration file and returns a Config struct.
// If the configuration file does not exist, it returns the default configuration.
func GetConfig() (*Config, error) {
	return Load(Path())
}

// Load reads the configuration from configFilePath, falling back to defaults
// for everything the file leaves out.
func Load(configFilePath string) (*Config, error) {
	defaults := DefaultConfig()

	b, err := os.ReadFile(configFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &defaults, nil
		}

		return nil, err
	}

	if len(b) == 0 {
		return &defaults, nil
	}

	var cfg Config

	err = yaml.Unmarshal(b, &cfg)
	if err != nil {
		return nil, err
	}

	retryCfg := zeroOr(cfg.Retry, defaults.Retry)
	journalCfg := zeroOr(cfg.Journal, defaults.Journal)

	return &Config{
		ConnectTimeout:     zeroOr(cfg.ConnectTimeout, defaults.ConnectTimeout),
		RequestTimeout:     zeroOr(cfg.RequestTimeout, defaults.RequestTimeout),
		UserAgent:          zeroOr(cfg.UserAgent, defaults.UserAgent),
		Headers:            cfg.Headers,
		DisableCompression: zeroOr(cfg.DisableCompression, defaults.DisableCompression),
		DisableRedirects:   zeroOr(cfg.DisableRedirects, defaults.DisableRedirects),
		MaxRedirects:       zeroOr(cfg.MaxRedirects, defaults.MaxRedirects),
		DisableTLS:         zeroOr(cfg.DisableTLS, defaults.DisableTLS),
		Retry: &RetryConfig{
			Attempts: zeroOr(retryCfg.Attempts, defaults.Retry.Attempts),
			Delay:    zeroOr(retryCfg.Delay, defaults.Retry.Delay),
			Parallel: zeroOr(retryCfg.Parallel, defaults.Retry.Parallel),
		},
		Journal: &JournalConfig{
			Disabled: zeroOr(journalCfg.Disabled, defaults.Journal.Disabled),
			Path:     zeroOr(journalCfg.Path, defaults.Journal.Path),
		},
	}, nil
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout:     connectTimeout,
		RequestTimeout:     requestTimeout,
		UserAgent:          transport.DefaultUserAgent,
		DisableCompression: disableCompression,
		DisableRedirects:   disableRedirects,
		MaxRedirects:       maxRedirects,
		DisableTLS:         disableTLS,
		Retry: &RetryConfig{
			Attempts: retries,
			Delay:    retryDelay,
			Parallel: parallel,
		},
		Journal: &JournalConfig{
			Disabled: disableJournal,
			Path:     journalPath,
		},
	}
}

// RequestHeaders returns the default headers with the configured user agent,
// followed by the extra headers sorted by name.
func (c *Config) RequestHeaders() *params.Table {
	headers := transport.DefaultHeaders()
	if c.UserAgent != "" {
		headers.Set("User-Agent", c.UserAgent)
	}

	names := make([]string, 0, len(c.Headers))
	for name := range c.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		headers.Set(name, c.Headers[name])
	}

	return headers
}

// TransportOptions returns the base options of every fetch.
func (c *Config) TransportOptions() transport.Options {
	opts := transport.DefaultOptions()
	opts.ConnectTimeout = c.ConnectTimeout
	opts.TotalTimeout = c.RequestTimeout
	opts.Headers = c.RequestHeaders()

	return opts
}

// EngineOptions returns the options of the default engine.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithCompression(!c.DisableCompression),
		engine.WithFollowRedirects(!c.DisableRedirects),
		engine.WithMaxRedirects(c.MaxRedirects),
	}
}

// zeroOr returns def if v is the zero value for its type.
func zeroOr[T any](v, def T) T {
	if reflect.ValueOf(v).IsZero() {
		return def
	}

	return v
}
