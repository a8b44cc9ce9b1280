// Package config loads MedFlow settings from defaults, an optional YAML file,
// a .env file and MEDFLOW_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/bytes"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. MEDFLOW_API_KEY.
const EnvPrefix = "MEDFLOW"

// Global configuration structure.
type Global struct {
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	APIBaseURL      string  `mapstructure:"api_base_url" yaml:"api_base_url"` // empty uses the OpenRouter default
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// Agent pipeline
	AIRequestsPerMinute int    `mapstructure:"ai_requests_per_minute" yaml:"ai_requests_per_minute"`
	AgentsFile          string `mapstructure:"agents_file" yaml:"agents_file"`
	MaxContextTokens    int    `mapstructure:"max_context_tokens" yaml:"max_context_tokens"` // per agent input; 0 disables

	// Graph and server
	MaxNodes        int    `mapstructure:"max_nodes" yaml:"max_nodes"`
	ServerAddr      string `mapstructure:"server_addr" yaml:"server_addr"`
	ServerBodyLimit string `mapstructure:"server_body_limit" yaml:"server_body_limit"` // e.g. 64M
	LogJSON         bool   `mapstructure:"log_json" yaml:"log_json"`
}

var defaults = map[string]any{
	"api_key":                "",
	"api_base_url":           "",
	"default_provider":       "openrouter",
	"default_model":          "",
	"max_tokens":             4000,
	"temperature":            0.2,
	"http_timeout_sec":       60,
	"retry_max_attempts":     3,
	"retry_base_delay_ms":    500,
	"retry_max_delay_ms":     4000,
	"ollama_host":            "http://127.0.0.1:11434",
	"ai_requests_per_minute": 0,
	"agents_file":            "",
	"max_context_tokens":     0,
	"max_nodes":              100,
	"server_addr":            "127.0.0.1:8080",
	"server_body_limit":      "64M",
	"log_json":               false,
}

// Keys lists every configuration key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dir returns ~/.medflow.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home dir")
	}
	return filepath.Join(home, ".medflow"), nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(err, "read config %s", cfgFile)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &c, nil
}

// Path resolves where Save writes: cfgFile, or ~/.medflow/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the configuration as YAML, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "mkdir config dir")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal yaml")
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return errors.Wrap(err, "write config")
	}
	return nil
}

// Set parses val for key and stores it. A rejected value leaves c unchanged.
func (c *Global) Set(key, val string) error {
	setInt := func(dst *int, lo int) error {
		i, err := strconv.Atoi(val)
		if err != nil || i < lo {
			return errors.Newf("invalid int for %s: %q (minimum %d)", key, val, lo)
		}
		*dst = i
		return nil
	}
	var err error
	switch key {
	case "api_key":
		c.APIKey = val
	case "api_base_url":
		c.APIBaseURL = strings.TrimRight(val, "/")
	case "default_provider":
		switch strings.ToLower(val) {
		case "openrouter":
			c.DefaultProvider = "openrouter"
		case "ollama", "local":
			c.DefaultProvider = "ollama"
		default:
			return errors.Newf("invalid default_provider: %s (use openrouter or ollama)", val)
		}
	case "default_model":
		c.DefaultModel = val
	case "max_tokens":
		err = setInt(&c.MaxTokens, 1)
	case "temperature":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f < 0 || f > 2 {
			return errors.Newf("invalid float for temperature: %q (use 0 to 2)", val)
		}
		c.Temperature = f
	case "http_timeout_sec":
		err = setInt(&c.HTTPTimeoutSec, 1)
	case "retry_max_attempts":
		err = setInt(&c.RetryMaxAttempts, 1)
	case "retry_base_delay_ms":
		err = setInt(&c.RetryBaseDelayMs, 0)
	case "retry_max_delay_ms":
		err = setInt(&c.RetryMaxDelayMs, 0)
	case "ollama_host":
		c.OllamaHost = strings.TrimRight(val, "/")
	case "ai_requests_per_minute":
		err = setInt(&c.AIRequestsPerMinute, 0)
	case "agents_file":
		c.AgentsFile = val
	case "max_context_tokens":
		err = setInt(&c.MaxContextTokens, 0)
	case "max_nodes":
		err = setInt(&c.MaxNodes, 1)
	case "server_addr":
		c.ServerAddr = val
	case "server_body_limit":
		if _, perr := bytes.Parse(val); perr != nil || val == "" {
			return errors.WithHint(errors.Newf("invalid size for server_body_limit: %q", val), "use a size such as 512K, 64M or 1G")
		}
		c.ServerBodyLimit = val
	case "log_json":
		b, perr := strconv.ParseBool(val)
		if perr != nil {
			return errors.Newf("invalid bool for log_json: %q", val)
		}
		c.LogJSON = b
	default:
		return errors.WithHintf(errors.Newf("unknown key: %s", key), "known keys: %s", strings.Join(Keys(), ", "))
	}
	return err
}
