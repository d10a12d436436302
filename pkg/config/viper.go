// Package config initializes the application's configuration sources. It
// wires Viper to read settings from a config file and environment
// variables, and registers the defaults every run starts from.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitConfig sets search paths, defaults, and env binding on the global
// Viper. It reports whether a config file was found; a missing file is not
// an error because defaults plus env vars are a complete configuration.
func InitConfig(cfgFile string) (string, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/requestwatch/")
		viper.AddConfigPath("$HOME/.requestwatch")
	}

	setDefaults()

	viper.SetEnvPrefix("WATCH") // e.g. WATCH_NOTIFY_WEBHOOK_URL=...
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return "", nil
		}
		return "", fmt.Errorf("read config: %w", err)
	}
	return viper.ConfigFileUsed(), nil
}

func setDefaults() {
	viper.SetDefault("watch.first_run", true)
	viper.SetDefault("watch.seed_if_empty", true)
	viper.SetDefault("watch.max_items", 25)
	viper.SetDefault("watch.section_selector", "")
	viper.SetDefault("watch.keywords", []string{})

	viper.SetDefault("scrape.user_agent", "request-watch/1.0 (+https://github.com/JakeFAU/request-watch)")
	viper.SetDefault("scrape.timeout", "15s")
	viper.SetDefault("scrape.render_enabled", false)
	viper.SetDefault("scrape.render_timeout", "25s")
	viper.SetDefault("scrape.min_html_bytes", 2048)

	viper.SetDefault("notify.delay_ms", 1500)
	viper.SetDefault("notify.timeout", "15s")

	viper.SetDefault("ledger.ttl_days", 60)

	viper.SetDefault("state.provider", "file")
	viper.SetDefault("state.dir", "data/state")
	viper.SetDefault("state.sqlite_path", "data/state/requests.db")

	viper.SetDefault("server.port", 8080)

	viper.SetDefault("logging.development", false)
	viper.SetDefault("logging.debug", false)
}
