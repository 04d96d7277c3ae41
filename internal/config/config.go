package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"GoNFA/internal/analysis"
	"GoNFA/internal/automaton"
	"GoNFA/internal/definition"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GONFA_"

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config configures the simulator, the CLI and the HTTP service.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat is text, json, or auto (text on a terminal, JSON otherwise).
	LogFormat string `yaml:"log_format" validate:"oneof=auto text json"`

	// EpsilonToken is the symbol label that denotes an epsilon transition in
	// definitions.
	EpsilonToken string `yaml:"epsilon_token" validate:"required"`

	// Analyzer names the word analyzer used to split words into symbols.
	Analyzer string `yaml:"analyzer" validate:"oneof=comma whitespace keyword chars"`

	// MaxEnumeratedSequences bounds the brute-force oracle.
	MaxEnumeratedSequences uint64 `yaml:"max_enumerated_sequences" validate:"gt=0"`

	Server     ServerConfig     `yaml:"server"`
	Crosscheck CrosscheckConfig `yaml:"crosscheck"`
	Batch      BatchConfig      `yaml:"batch"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr" validate:"required"`

	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`

	// VerifyRate is the sustained rate of enumeration requests per second
	// (verify and crosscheck). VerifyBurst is the bucket size.
	VerifyRate  float64 `yaml:"verify_rate" validate:"gt=0"`
	VerifyBurst int     `yaml:"verify_burst" validate:"gte=1"`

	// MaxAutomata caps the in-memory registry.
	MaxAutomata int `yaml:"max_automata" validate:"gte=1"`

	// DataDir persists registered definitions across restarts. Empty keeps
	// the registry in memory only.
	DataDir string `yaml:"data_dir"`
}

// CrosscheckConfig configures differential runs.
type CrosscheckConfig struct {
	// Workers bounds concurrent oracle runs.
	Workers int `yaml:"workers" validate:"gte=1"`

	// MaxWordLength bounds generated words.
	MaxWordLength int `yaml:"max_word_length" validate:"gte=0,lte=12"`

	// Timeout bounds a whole crosscheck run.
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// BatchConfig configures multi-automaton batches.
type BatchConfig struct {
	// PerTargetTimeout bounds the time one automaton spends on a batch.
	PerTargetTimeout time.Duration `yaml:"per_target_timeout" validate:"gt=0"`

	// MaxWords bounds the words in one batch.
	MaxWords int `yaml:"max_words" validate:"gte=1"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:               "info",
		LogFormat:              "auto",
		EpsilonToken:           definition.DefaultEpsilonToken,
		Analyzer:               analysis.Comma,
		MaxEnumeratedSequences: automaton.DefaultMaxEnumeratedSequences,
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			VerifyRate:      5,
			VerifyBurst:     10,
			MaxAutomata:     1024,
		},
		Crosscheck: CrosscheckConfig{
			Workers:       4,
			MaxWordLength: 4,
			Timeout:       30 * time.Second,
		},
		Batch: BatchConfig{
			PerTargetTimeout: 5 * time.Second,
			MaxWords:         256,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field constraint.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// AutomatonOptions returns the options every automaton built under c uses.
func (c Config) AutomatonOptions(registry *analysis.Registry) ([]automaton.Option, error) {
	an, err := registry.Get(c.Analyzer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return []automaton.Option{
		automaton.WithAnalyzer(an),
		automaton.WithEnumerationLimit(c.MaxEnumeratedSequences),
	}, nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	return ParseLogLevel(c.LogLevel)
}

// ParseLogLevel maps a level name to a slog.Level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// applyEnv overrides fields from GONFA_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("EPSILON_TOKEN", &c.EpsilonToken)
	str("ANALYZER", &c.Analyzer)
	str("ADDR", &c.Server.Addr)
	str("DATA_DIR", &c.Server.DataDir)

	if v, ok := lookup(EnvPrefix + "PORT"); ok && v != "" {
		c.Server.Addr = ":" + v
	}
	if v, ok := lookup(EnvPrefix + "MAX_ENUMERATED_SEQUENCES"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sMAX_ENUMERATED_SEQUENCES: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		c.MaxEnumeratedSequences = n
	}
	if v, ok := lookup(EnvPrefix + "VERIFY_RATE"); ok && v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sVERIFY_RATE: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		c.Server.VerifyRate = r
	}
	return nil
}
