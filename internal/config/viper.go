// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"fjacquet/ekstre-csv/internal/classifier"
	"fjacquet/ekstre-csv/internal/tableio"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (EKSTRE_LOG_LEVEL, ...).
const EnvPrefix = "EKSTRE"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Registry struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"registry" yaml:"registry"`

	Admin struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"admin" yaml:"admin"`

	Output struct {
		Format    string `mapstructure:"format" yaml:"format"`
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
		BOM       bool   `mapstructure:"bom" yaml:"bom"`
	} `mapstructure:"output" yaml:"output"`

	Input struct {
		EncodingFallback string `mapstructure:"encoding_fallback" yaml:"encoding_fallback"`
	} `mapstructure:"input" yaml:"input"`

	Database struct {
		URL             string        `mapstructure:"url" yaml:"-"` // may carry credentials
		MaxConns        int           `mapstructure:"max_conns" yaml:"max_conns"`
		MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime" yaml:"max_conn_lifetime"`
	} `mapstructure:"database" yaml:"database"`

	History struct {
		Enabled       bool `mapstructure:"enabled" yaml:"enabled"`
		RetentionDays int  `mapstructure:"retention_days" yaml:"retention_days"`
		RecentLimit   int  `mapstructure:"recent_limit" yaml:"recent_limit"`
	} `mapstructure:"history" yaml:"history"`

	Server struct {
		Addr            string        `mapstructure:"addr" yaml:"addr"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	} `mapstructure:"server" yaml:"server"`

	Upload struct {
		MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	} `mapstructure:"upload" yaml:"upload"`

	Batch struct {
		Workers int `mapstructure:"workers" yaml:"workers"`
	} `mapstructure:"batch" yaml:"batch"`

	Scoring classifier.Weights `mapstructure:"scoring" yaml:"scoring"`
}

// DelimiterRune returns the output delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	if c.Output.Delimiter == "\\t" {
		return '\t'
	}
	r := []rune(c.Output.Delimiter)
	if len(r) == 0 {
		return ';'
	}
	return r[0]
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return InitializeConfigFrom("")
}

// InitializeConfigFrom is InitializeConfig with an explicit config file.
// An empty path searches the standard locations.
func InitializeConfigFrom(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ekstre-csv")
		v.AddConfigPath("/etc/ekstre-csv")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. The conventional DATABASE_URL is honoured as well
	if err := v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_URL: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("registry.file", "formats.yaml")
	v.SetDefault("admin.file", "admin.yaml")

	v.SetDefault("output.format", "csv")
	v.SetDefault("output.delimiter", ";")
	v.SetDefault("output.bom", true)

	v.SetDefault("input.encoding_fallback", tableio.DefaultEncoding)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.max_conn_lifetime", time.Hour)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.retention_days", 90)
	v.SetDefault("history.recent_limit", 10)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("batch.workers", runtime.NumCPU())

	setStructDefaults(v, "scoring", classifier.DefaultWeights())
}

// setStructDefaults registers every mapstructure-tagged field of s under
// prefix, so each one can be overridden from the environment.
func setStructDefaults(v *viper.Viper, prefix string, s interface{}) {
	rv := reflect.ValueOf(s)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		v.SetDefault(prefix+"."+tag, rv.Field(i).Interface())
	}
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Output.Format != "csv" && config.Output.Format != "xlsx" {
		return fmt.Errorf("invalid output format: %s (must be 'csv' or 'xlsx')", config.Output.Format)
	}
	if config.Output.Delimiter != "\\t" && len([]rune(config.Output.Delimiter)) != 1 {
		return fmt.Errorf("output delimiter must be a single character, got: %s", config.Output.Delimiter)
	}

	if _, err := tableio.LookupEncoding(config.Input.EncodingFallback); err != nil {
		return fmt.Errorf("input.encoding_fallback: %w", err)
	}

	if config.Database.MaxConns < 1 || config.Database.MaxConns > 100 {
		return fmt.Errorf("database.max_conns must be between 1 and 100, got: %d", config.Database.MaxConns)
	}
	if config.History.RetentionDays < 1 {
		return fmt.Errorf("history.retention_days must be at least 1, got: %d", config.History.RetentionDays)
	}
	if config.History.RecentLimit < 1 {
		return fmt.Errorf("history.recent_limit must be at least 1, got: %d", config.History.RecentLimit)
	}
	if config.Upload.MaxSizeMB < 1 {
		return fmt.Errorf("upload.max_size_mb must be at least 1, got: %d", config.Upload.MaxSizeMB)
	}
	if config.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got: %d", config.Batch.Workers)
	}
	if config.Scoring.ContentFloor <= 0 || config.Scoring.FilenameFloor <= 0 {
		return fmt.Errorf("scoring floors must be positive")
	}

	return nil
}
