package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

// Global configuration structure.
type Global struct {
	APIKey          string `mapstructure:"api_key" yaml:"api_key"`
	DefaultProvider string `mapstructure:"default_provider" yaml:"default_provider"`
	DefaultModel    string `mapstructure:"default_model" yaml:"default_model"`
	OllamaHost      string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Analysis
	TypeThreshold      float64 `mapstructure:"type_threshold" yaml:"type_threshold"`
	AnomalyThreshold   float64 `mapstructure:"anomaly_threshold" yaml:"anomaly_threshold"`
	AnomalyDirection   string  `mapstructure:"anomaly_direction" yaml:"anomaly_direction"`
	DecimalSeparator   string  `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string  `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	SampleRows         int     `mapstructure:"sample_rows" yaml:"sample_rows"`
	MaxRows            int     `mapstructure:"max_rows" yaml:"max_rows"`

	// HTTP server
	ListenAddr     string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

var defaults = map[string]any{
	"api_key":             "",
	"default_provider":    "openrouter",
	"default_model":       "openai/gpt-4o-mini",
	"ollama_host":         "http://127.0.0.1:11434",
	"http_timeout_sec":    60,
	"retry_max_attempts":  3,
	"retry_base_delay_ms": 500,
	"retry_max_delay_ms":  4000,
	"type_threshold":      analysis.DefaultTypeThreshold,
	"anomaly_threshold":   analysis.DefaultAnomalyThreshold,
	"anomaly_direction":   "both",
	"decimal_separator":   "",
	"thousands_separator": "",
	"sample_rows":         5,
	"max_rows":            0,
	"listen_addr":         ":8080",
	"max_upload_bytes":    4718592, // 4.5 MB
	"log_level":           "info",
	"log_format":          "console",
}

// Keys lists every configuration key in a stable order.
func Keys() []string {
	return []string{
		"api_key", "default_provider", "default_model", "ollama_host",
		"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms",
		"type_threshold", "anomaly_threshold", "anomaly_direction", "decimal_separator", "thousands_separator",
		"sample_rows", "max_rows", "listen_addr", "max_upload_bytes", "log_level", "log_format",
	}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datalens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datalens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (DATALENS_*) > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATALENS")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set assigns one key from its string form, validating the value.
func (c *Global) Set(key, val string) error {
	switch key {
	case "api_key":
		c.APIKey = val
	case "default_provider":
		switch strings.ToLower(val) {
		case "openrouter":
			c.DefaultProvider = "openrouter"
		case "ollama", "local":
			c.DefaultProvider = "ollama"
		default:
			return fmt.Errorf("invalid default_provider: %s (use openrouter or ollama)", val)
		}
	case "default_model":
		c.DefaultModel = val
	case "ollama_host":
		c.OllamaHost = val
	case "http_timeout_sec":
		return setInt(&c.HTTPTimeoutSec, key, val, 1)
	case "retry_max_attempts":
		return setInt(&c.RetryMaxAttempts, key, val, 1)
	case "retry_base_delay_ms":
		return setInt(&c.RetryBaseDelayMs, key, val, 0)
	case "retry_max_delay_ms":
		return setInt(&c.RetryMaxDelayMs, key, val, 0)
	case "type_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 || f > 1 {
			return fmt.Errorf("invalid type_threshold: %q (use a value in (0, 1])", val)
		}
		c.TypeThreshold = f
	case "anomaly_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid anomaly_threshold: %q (use a positive number)", val)
		}
		c.AnomalyThreshold = f
	case "anomaly_direction":
		if _, err := analysis.ParseDirection(val); err != nil {
			return err
		}
		c.AnomalyDirection = strings.ToLower(val)
	case "decimal_separator", "thousands_separator":
		if _, err := separator(key, val); err != nil {
			return err
		}
		if key == "decimal_separator" {
			c.DecimalSeparator = val
		} else {
			c.ThousandsSeparator = val
		}
	case "sample_rows":
		return setInt(&c.SampleRows, key, val, 1)
	case "max_rows":
		return setInt(&c.MaxRows, key, val, 0)
	case "listen_addr":
		c.ListenAddr = val
	case "max_upload_bytes":
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid max_upload_bytes: %q", val)
		}
		c.MaxUploadBytes = n
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "console", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use console or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, val string, lo int) error {
	i, err := strconv.Atoi(val)
	if err != nil || i < lo {
		return fmt.Errorf("invalid int for %s: %q (minimum %d)", key, val, lo)
	}
	*dst = i
	return nil
}

// AnalysisOptions converts the analysis keys into analysis.Options.
func (c *Global) AnalysisOptions() (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	if c.TypeThreshold > 0 {
		opt.TypeThreshold = c.TypeThreshold
	}
	if c.AnomalyThreshold > 0 {
		opt.AnomalyThreshold = c.AnomalyThreshold
	}
	dir, err := analysis.ParseDirection(c.AnomalyDirection)
	if err != nil {
		return opt, err
	}
	opt.AnomalyDirection = dir
	if opt.DecimalSeparator, err = separator("decimal_separator", c.DecimalSeparator); err != nil {
		return opt, err
	}
	if opt.ThousandsSeparator, err = separator("thousands_separator", c.ThousandsSeparator); err != nil {
		return opt, err
	}
	return opt, nil
}

// separator parses a single-character separator. Empty means auto-detect;
// "space" is accepted for ' '.
func separator(key, s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "space":
		return ' ', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("invalid %s: %q (use a single character)", key, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
