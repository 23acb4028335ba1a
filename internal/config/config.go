// Package config provides configuration management for sqltrim.
//
// Configuration is loaded from three sources with the following precedence
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (SQLTRIM_ prefix)
//  3. Config file (.sqltrim.yaml)
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/danielsiegl/sqltrim/internal/filters"
	"github.com/danielsiegl/sqltrim/internal/logging"
)

// Keys shared by flags, environment variables and the config file.
const (
	KeyLogLevel     = "log-level"
	KeyLogFormat    = "log-format"
	KeyLogDir       = "log-dir"
	KeyQuiet        = "quiet"
	KeyPreset       = "preset"
	KeyExcludeLines = "exclude-lines"
	KeyPattern      = "pattern"
	KeyNoPattern    = "no-pattern"
	KeyTail         = "tail"
	KeyAtomic       = "atomic"
	KeyDeleteSource = "delete-source"
	KeyReportFormat = "report-format"
)

// Supported report formats.
const (
	ReportText = "text"
	ReportJSON = "json"
	ReportYAML = "yaml"
	ReportTOML = "toml"
)

var allKeys = []string{
	KeyLogLevel, KeyLogFormat, KeyLogDir, KeyQuiet, KeyPreset, KeyExcludeLines,
	KeyPattern, KeyNoPattern, KeyTail, KeyAtomic, KeyDeleteSource, KeyReportFormat,
}

// ruleKeys override the preset (or DefaultRules) only when set explicitly.
var ruleKeys = []string{KeyExcludeLines, KeyPattern, KeyNoPattern, KeyTail}

// Config represents the global configuration for sqltrim.
type Config struct {
	LogLevel  string `mapstructure:"log-level" json:"logLevel"`
	LogFormat string `mapstructure:"log-format" json:"logFormat"`
	// LogDir sends JSON logs to a per-invocation file in this directory.
	LogDir string `mapstructure:"log-dir" json:"logDir"`
	Quiet  bool   `mapstructure:"quiet" json:"quiet"`

	// Preset names a built-in rule set. Empty means DefaultRules.
	Preset       string `mapstructure:"preset" json:"preset"`
	ExcludeLines []int  `mapstructure:"exclude-lines" json:"excludeLines"`
	Pattern      string `mapstructure:"pattern" json:"pattern"`
	NoPattern    bool   `mapstructure:"no-pattern" json:"noPattern"`
	Tail         int    `mapstructure:"tail" json:"tail"`

	Atomic       bool   `mapstructure:"atomic" json:"atomic"`
	DeleteSource bool   `mapstructure:"delete-source" json:"deleteSource"`
	ReportFormat string `mapstructure:"report-format" json:"reportFormat"`

	// Explicit records which rule keys were set by a flag, the environment
	// or the config file. Set after Load().
	Explicit map[string]bool `mapstructure:"-" json:"-"`

	// ConfigFile is the resolved path to the config file used.
	ConfigFile string `mapstructure:"-" json:"-"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel:     logging.LevelInfo,
		LogFormat:    logging.FormatText,
		Pattern:      filters.DefaultPattern,
		ReportFormat: ReportText,
		Explicit:     map[string]bool{},
	}
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	switch c.LogFormat {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat)
	}

	switch c.ReportFormat {
	case ReportText, ReportJSON, ReportYAML, ReportTOML:
	default:
		return fmt.Errorf("invalid report format %q: must be one of text, json, yaml, toml", c.ReportFormat)
	}

	_, err := c.Rules()
	return err
}

// Logging returns the logger options derived from c.
func (c *Config) Logging() logging.Options {
	return logging.Options{Level: c.LogLevel, Format: c.LogFormat, Quiet: c.Quiet, Dir: c.LogDir}
}

// CleanOptions returns the file handling options derived from c.
func (c *Config) CleanOptions() filters.CleanOptions {
	return filters.CleanOptions{Atomic: c.Atomic, DeleteSource: c.DeleteSource}
}

// Rules resolves the preset and applies explicitly set rule keys on top.
func (c *Config) Rules() (filters.Rules, error) {
	rules := filters.DefaultRules()
	if c.Preset != "" {
		p, err := filters.Preset(c.Preset)
		if err != nil {
			return filters.Rules{}, err
		}
		rules = p
	}

	override := func(key string) bool { return c.Explicit[key] }

	if override(KeyExcludeLines) {
		pos, err := filters.ParsePositions(c.ExcludeLines)
		if err != nil {
			return filters.Rules{}, err
		}
		rules.Positions = pos
	}
	if override(KeyPattern) {
		rules.Pattern = c.Pattern
	}
	if override(KeyNoPattern) {
		rules.NoPattern = c.NoPattern
	}
	if override(KeyTail) {
		rules.TrailingDrop = c.Tail
	}

	if err := rules.Validate(); err != nil {
		return filters.Rules{}, err
	}
	return rules, nil
}

// Load initialises configuration from flags, environment variables, and an
// optional config file. A fresh viper instance is used on every call so that
// Load is safe for concurrent tests.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	if err := configureEnv(v); err != nil {
		return nil, err
	}

	if err := configureFile(v, configFile); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Explicit = make(map[string]bool, len(ruleKeys))
	for _, k := range ruleKeys {
		cfg.Explicit[k] = v.IsSet(k)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values in viper. Rule keys get none so that
// IsSet reports only explicit values.
func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, logging.LevelInfo)
	v.SetDefault(KeyLogFormat, logging.FormatText)
	v.SetDefault(KeyLogDir, "")
	v.SetDefault(KeyQuiet, false)
	v.SetDefault(KeyPreset, "")
	v.SetDefault(KeyAtomic, false)
	v.SetDefault(KeyDeleteSource, false)
	v.SetDefault(KeyReportFormat, ReportText)
}

// configureEnv binds every key so env-only values reach Unmarshal.
func configureEnv(v *viper.Viper) error {
	v.SetEnvPrefix("SQLTRIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, k := range allKeys {
		if err := v.BindEnv(k); err != nil {
			return fmt.Errorf("binding env for %s: %w", k, err)
		}
	}

	return nil
}

// configureFile sets up the config file source.
func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	v.SetConfigName(".sqltrim")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "sqltrim"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}

		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// bindFlags walks from cmd up to the root and binds all known flags.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}

	return nil
}

type ctxKey struct{}

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext extracts a Config from ctx, falling back to Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}
