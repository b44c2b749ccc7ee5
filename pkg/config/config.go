// Package config loads the optional iridium.toml configuration file.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config holds user-tunable settings for the CLI and REPL.
type Config struct {
	Prompt      string `toml:"prompt"`
	HistoryFile string `toml:"history_file"`
	LogLevel    string `toml:"log_level"`
}

// Default returns the settings used when no config file is present.
func Default() Config {
	return Config{
		Prompt:      ">>> ",
		HistoryFile: "",
		LogLevel:    "info",
	}
}

// Load reads a TOML config file, filling unset fields with defaults. A
// missing file is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "decoding config file %q", path)
	}
	if cfg.Prompt == "" {
		cfg.Prompt = Default().Prompt
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = Default().LogLevel
	}
	return cfg, nil
}

// ApplyLogging sets the global log level from the config. An unparsable
// level falls back to info.
func (c Config) ApplyLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("log_level", c.LogLevel).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
