// Package config loads and validates watcher configuration via Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// State store provider names accepted by state.provider.
const (
	StateProviderFile   = "file"
	StateProviderSQLite = "sqlite"
	StateProviderMemory = "memory"
)

// Config captures every knob that influences a watch run. All values
// originate from Viper so the watcher can be configured via file, env vars,
// or CLI flags.
type Config struct {
	Watch   WatchConfig
	Scrape  ScrapeConfig
	Notify  NotifyConfig
	Ledger  LedgerConfig
	State   StateConfig
	Server  ServerConfig
	Logging LoggingConfig
}

// WatchConfig governs the pipeline's seeding and capping behavior.
type WatchConfig struct {
	PageURL         string
	FirstRun        bool
	SeedIfEmpty     bool
	MaxItems        int
	SectionSelector string
	Keywords        []string
}

// ScrapeConfig controls page fetching.
type ScrapeConfig struct {
	UserAgent     string
	Timeout       time.Duration
	RenderEnabled bool
	RenderTimeout time.Duration
	MinHTMLBytes  int
}

// NotifyConfig points at the messaging sink.
type NotifyConfig struct {
	WebhookURL string
	Delay      time.Duration
	Timeout    time.Duration
}

// LedgerConfig bounds dedup state retention.
type LedgerConfig struct {
	TTL time.Duration
}

// StateConfig selects and locates the state store backend.
type StateConfig struct {
	Provider   string
	Dir        string
	SQLitePath string
}

// ServerConfig controls the ops HTTP endpoint used in interval mode.
type ServerConfig struct {
	Port int
}

// LoggingConfig toggles zap development features and debug diagnostics.
type LoggingConfig struct {
	Development bool
	Debug       bool
}

// Load constructs a Config by reading from Viper.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Watch: WatchConfig{
			PageURL:         v.GetString("watch.page_url"),
			FirstRun:        v.GetBool("watch.first_run"),
			SeedIfEmpty:     v.GetBool("watch.seed_if_empty"),
			MaxItems:        v.GetInt("watch.max_items"),
			SectionSelector: v.GetString("watch.section_selector"),
			Keywords:        v.GetStringSlice("watch.keywords"),
		},
		Scrape: ScrapeConfig{
			UserAgent:     v.GetString("scrape.user_agent"),
			Timeout:       v.GetDuration("scrape.timeout"),
			RenderEnabled: v.GetBool("scrape.render_enabled"),
			RenderTimeout: v.GetDuration("scrape.render_timeout"),
			MinHTMLBytes:  v.GetInt("scrape.min_html_bytes"),
		},
		Notify: NotifyConfig{
			WebhookURL: v.GetString("notify.webhook_url"),
			Delay:      time.Duration(v.GetInt("notify.delay_ms")) * time.Millisecond,
			Timeout:    v.GetDuration("notify.timeout"),
		},
		Ledger: LedgerConfig{
			TTL: time.Duration(v.GetInt("ledger.ttl_days")) * 24 * time.Hour,
		},
		State: StateConfig{
			Provider:   v.GetString("state.provider"),
			Dir:        v.GetString("state.dir"),
			SQLitePath: v.GetString("state.sqlite_path"),
		},
		Server: ServerConfig{
			Port: v.GetInt("server.port"),
		},
		Logging: LoggingConfig{
			Development: v.GetBool("logging.development"),
			Debug:       v.GetBool("logging.debug"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate enforces required values and reasonable limits. A missing
// webhook URL fails here, before any network or file I/O happens.
func (c Config) Validate() error {
	if c.Notify.WebhookURL == "" {
		return fmt.Errorf("notify.webhook_url must be set")
	}
	if c.Watch.PageURL == "" {
		return fmt.Errorf("watch.page_url must be set")
	}
	if c.Watch.MaxItems <= 0 {
		return fmt.Errorf("watch.max_items must be > 0")
	}
	if c.Scrape.Timeout <= 0 {
		return fmt.Errorf("scrape.timeout must be > 0")
	}
	if c.Notify.Delay < 0 {
		return fmt.Errorf("notify.delay_ms must be >= 0")
	}
	if c.Ledger.TTL <= 0 {
		return fmt.Errorf("ledger.ttl_days must be > 0")
	}
	switch c.State.Provider {
	case StateProviderFile, StateProviderSQLite, StateProviderMemory:
	default:
		return fmt.Errorf("unknown state provider: %s", c.State.Provider)
	}
	if c.State.Provider == StateProviderFile && c.State.Dir == "" {
		return fmt.Errorf("state.dir must be set for the file provider")
	}
	if c.State.Provider == StateProviderSQLite && c.State.SQLitePath == "" {
		return fmt.Errorf("state.sqlite_path must be set for the sqlite provider")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}
