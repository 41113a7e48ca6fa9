package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/planning-poker/db"
)

const (
	DefaultPort              = 3318
	DefaultCodeAttempts      = 32
	DefaultCloseStoryRetries = 5
)

type Config struct {
	Port              int    `yaml:"port" env:"PORT"`
	DatabaseURL       string `yaml:"database_url" env:"DATABASE_URL"`
	DatabaseType      string `yaml:"database_type" env:"DATABASE_TYPE"`
	LogLevel          string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat         string `yaml:"log_format" env:"LOG_FORMAT"`
	CodeAttempts      int    `yaml:"code_attempts" env:"CODE_ATTEMPTS"`
	CloseStoryRetries int    `yaml:"close_story_retries" env:"CLOSE_STORY_RETRIES"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Port:              DefaultPort,
		DatabaseType:      string(db.SQLite),
		LogLevel:          "info",
		LogFormat:         "text",
		CodeAttempts:      DefaultCodeAttempts,
		CloseStoryRetries: DefaultCloseStoryRetries,
	}
}

// ParseFlags builds the configuration. Later sources win:
// defaults, then the YAML file (-c or CONFIG_FILE), then environment
// variables, then flags.
func ParseFlags(args []string) (Config, error) {
	var (
		configFile string
		flagCfg    Config
	)

	fs := flag.NewFlagSet("planning-poker", flag.ContinueOnError)

	fs.StringVar(&configFile, "c", "", "YAML config file")
	fs.IntVar(&flagCfg.Port, "p", 0, "Server port")
	fs.StringVar(&flagCfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&flagCfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&flagCfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&flagCfg.LogFormat, "log-format", "", "Log format (text or json)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	if configFile != "" {
		if err := LoadFile(configFile, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}

	// Only flags given on the command line override
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Port = flagCfg.Port
		case "d":
			cfg.DatabaseURL = flagCfg.DatabaseURL
		case "t":
			cfg.DatabaseType = flagCfg.DatabaseType
		case "log-level":
			cfg.LogLevel = flagCfg.LogLevel
		case "log-format":
			cfg.LogFormat = flagCfg.LogFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads YAML settings from path into cfg. Keys missing from the file
// leave cfg unchanged; unknown keys are an error.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks required values and normalizes DatabaseType.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d, DATABASE_URL env or database_url in the config file)")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	dialect, err := db.ParseDialect(c.DatabaseType)
	if err != nil {
		return err
	}
	c.DatabaseType = string(dialect)

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q (use text or json)", c.LogFormat)
	}

	if c.CodeAttempts <= 0 {
		return errors.New("code attempts must be positive")
	}
	if c.CloseStoryRetries <= 0 {
		return errors.New("close story retries must be positive")
	}
	return nil
}

// Dialect returns the validated database dialect.
func (c Config) Dialect() db.Dialect {
	return db.Dialect(c.DatabaseType)
}

// NewLogger builds the slog logger described by the config.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unsupported log level %q (use debug, info, warn or error)", s)
	}
	return level, nil
}
