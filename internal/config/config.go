package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TRACKER_ADDR.
const EnvPrefix = "TRACKER"

// Config holds the runtime settings of the tracker.
type Config struct {
	Addr         string `mapstructure:"addr"`
	DBPath       string `mapstructure:"db_path"`
	HistoryLimit int    `mapstructure:"history_limit"`
	LogLevel     string `mapstructure:"log_level"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Addr:     ":8080",
		DBPath:   "data/tracker.db",
		LogLevel: "info",
	}
}

// Load merges defaults, an optional YAML file, TRACKER_* environment
// variables and any flags that were set explicitly, in increasing priority.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("addr", d.Addr)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("history_limit", d.HistoryLimit)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for _, key := range []string{"addr", "db_path", "history_limit", "log_level"} {
			if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.HistoryLimit < 0 {
		return Config{}, fmt.Errorf("history_limit must not be negative, got %d", cfg.HistoryLimit)
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level parses LogLevel into a slog level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
