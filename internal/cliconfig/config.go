// Package cliconfig loads cmd/harmonysched's runtime configuration from
// flags, environment variables, and an optional config file, the way
// Karpenter's cmd/ packages layer pflag-backed option structs over viper.
// This is bootstrap/configuration per spec.md §1 — an external collaborator,
// not part of the core.
package cliconfig

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "HARMONYSCHED"

// Config is the CLI's runtime configuration.
type Config struct {
	// TimeLimitSeconds is the default solver wall-clock budget applied
	// when a request omits settings.time_limit_seconds.
	TimeLimitSeconds int
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string
	// LogDevelopment switches to human-readable console logging.
	LogDevelopment bool
	// ConfigFile, if set, is read in addition to flags/env.
	ConfigFile string
}

// BindFlags registers the config's flags on fs so a cobra command can
// expose them, then returns a loader that resolves the final Config once
// fs has been parsed.
func BindFlags(fs *pflag.FlagSet) func() (Config, error) {
	fs.Int("time-limit-seconds", 30, "default solver wall-clock budget in seconds")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.Bool("log-development", false, "use human-readable console logging instead of JSON")
	fs.String("config", "", "path to an optional config file")

	return func() (Config, error) {
		v := viper.New()
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()

		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("cliconfig: bind flags: %w", err)
		}

		if cf := v.GetString("config"); cf != "" {
			v.SetConfigFile(cf)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("cliconfig: read config file %q: %w", cf, err)
			}
		}

		cfg := Config{
			TimeLimitSeconds: v.GetInt("time-limit-seconds"),
			LogLevel:         v.GetString("log-level"),
			LogDevelopment:   v.GetBool("log-development"),
			ConfigFile:       v.GetString("config"),
		}
		if cfg.TimeLimitSeconds <= 0 {
			return Config{}, fmt.Errorf("cliconfig: time-limit-seconds must be positive, got %d", cfg.TimeLimitSeconds)
		}
		return cfg, nil
	}
}
