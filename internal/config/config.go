// Package config provides configuration loading for the scriptures server
// and CLI.
//
// Configuration starts from Default, is overlaid by an optional YAML file,
// and finally by command-line flags and environment variables bound in the
// CLI. Validate is called once all layers are applied.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/ScripturesMapped/core/catalog"
	coreerrors "github.com/FocuswithJustin/ScripturesMapped/core/errors"
	"github.com/FocuswithJustin/ScripturesMapped/internal/fetch"
	"github.com/FocuswithJustin/ScripturesMapped/internal/logging"
)

// Catalog source kinds.
const (
	SourceHTTP   = "http"
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

// Config is the complete configuration.
type Config struct {
	// Server configures the HTTP and WebSocket host.
	Server ServerConfig `yaml:"server"`

	// Catalog selects where book and volume metadata come from.
	Catalog CatalogConfig `yaml:"catalog"`

	// Content configures chapter fetching.
	Content ContentConfig `yaml:"content"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`
}

// ServerConfig configures the web host.
type ServerConfig struct {
	Port int `yaml:"port"`

	// AllowedOrigins lists the origins allowed to open a session.
	// "*" allows all; "*.example.com" allows subdomains.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MessageRate is the sustained number of fragment events accepted per
	// second on one session. MessageBurst is the bucket size.
	MessageRate  float64 `yaml:"message_rate"`
	MessageBurst int     `yaml:"message_burst"`

	// MaxMessageSize bounds one inbound WebSocket message in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// CatalogConfig selects the catalog source.
type CatalogConfig struct {
	// Source is one of "http", "file" or "sqlite".
	Source string `yaml:"source"`

	BooksURL   string `yaml:"books_url"`
	VolumesURL string `yaml:"volumes_url"`

	// Dir holds books.json and volumes.json (optionally .xz) for "file".
	Dir string `yaml:"dir"`

	// Path is the snapshot database for "sqlite".
	Path string `yaml:"path"`
}

// ContentConfig configures chapter fetching.
type ContentConfig struct {
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// CacheSize bounds the number of cached chapters. Zero is unbounded.
	CacheSize int `yaml:"cache_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
			MessageRate:    10,
			MessageBurst:   20,
			MaxMessageSize: 4096,
		},
		Catalog: CatalogConfig{
			Source:     SourceHTTP,
			BooksURL:   catalog.DefaultBooksURL,
			VolumesURL: catalog.DefaultVolumesURL,
		},
		Content: ContentConfig{
			URL:       fetch.DefaultContentURL,
			Timeout:   15 * time.Second,
			CacheSize: 512,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns Default overlaid with the YAML file at path. An empty path
// yields the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, coreerrors.NewIO("read", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &coreerrors.ParseError{Format: "YAML config", Path: path, Message: err.Error(), Err: err}
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return coreerrors.NewValidation("server.port", fmt.Sprintf("%d is not a valid port", c.Server.Port))
	}
	if c.Server.MessageRate <= 0 {
		return coreerrors.NewValidation("server.message_rate", "must be positive")
	}
	if c.Server.MessageBurst < 1 {
		return coreerrors.NewValidation("server.message_burst", "must be at least 1")
	}
	if c.Server.MaxMessageSize <= 0 {
		return coreerrors.NewValidation("server.max_message_size", "must be positive")
	}

	switch c.Catalog.Source {
	case SourceHTTP:
		if c.Catalog.BooksURL == "" || c.Catalog.VolumesURL == "" {
			return coreerrors.NewValidation("catalog", "books_url and volumes_url are required for the http source")
		}
	case SourceFile:
		if c.Catalog.Dir == "" {
			return coreerrors.NewValidation("catalog.dir", "required for the file source")
		}
	case SourceSQLite:
		if c.Catalog.Path == "" {
			return coreerrors.NewValidation("catalog.path", "required for the sqlite source")
		}
	default:
		return coreerrors.NewValidation("catalog.source", fmt.Sprintf("unknown source %q", c.Catalog.Source))
	}

	if c.Content.URL == "" {
		return coreerrors.NewValidation("content.url", "required")
	}
	if c.Content.Timeout < 0 {
		return coreerrors.NewValidation("content.timeout", "must not be negative")
	}
	if c.Content.CacheTTL < 0 {
		return coreerrors.NewValidation("content.cache_ttl", "must not be negative")
	}
	if c.Content.CacheSize < 0 {
		return coreerrors.NewValidation("content.cache_size", "must not be negative")
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return coreerrors.NewValidation("log.format", fmt.Sprintf("unknown format %q", c.Log.Format))
	}
	return nil
}

// InitLogging configures the default logger from c.Log.
func (c *Config) InitLogging() {
	logging.InitLogger(logging.ParseLevel(c.Log.Level), logging.ParseFormat(c.Log.Format))
}

// Getter returns the HTTP getter for both catalog and content requests.
func (c *Config) Getter() *fetch.HTTPGetter {
	return fetch.NewHTTPGetter(c.Content.Timeout)
}

// CatalogSource builds the configured catalog source.
func (c *Config) CatalogSource(getter fetch.Getter) catalog.Source {
	switch c.Catalog.Source {
	case SourceFile:
		return &catalog.FileSource{Dir: c.Catalog.Dir}
	case SourceSQLite:
		return &catalog.SQLiteSource{Path: c.Catalog.Path}
	}
	src := catalog.NewHTTPSource(getter)
	src.BooksURL = c.Catalog.BooksURL
	src.VolumesURL = c.Catalog.VolumesURL
	return src
}

// Fetcher builds the content fetcher.
func (c *Config) Fetcher(getter fetch.Getter) *fetch.Fetcher {
	opts := []fetch.Option{fetch.WithBaseURL(c.Content.URL)}
	if c.Content.CacheTTL > 0 {
		opts = append(opts, fetch.WithCache(c.Content.CacheTTL, c.Content.CacheSize))
	}
	return fetch.NewFetcher(getter, opts...)
}
