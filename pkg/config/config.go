// Package config loads webeval's YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/webeval/pkg/browser"
	"github.com/entrhq/webeval/pkg/logging"
)

// Environment variables that override file values.
const (
	EnvRedisAddr      = "WEBEVAL_REDIS_ADDR"
	EnvBrowserDataDir = "WEBEVAL_BROWSER_DATA_DIR"
	EnvLogLevel       = "WEBEVAL_LOG_LEVEL"
)

// Config is the full webeval configuration
type Config struct {
	Browser BrowserConfig `yaml:"browser" json:"browser"`
	Eval    EvalConfig    `yaml:"eval" json:"eval"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
}

// BrowserConfig holds the session launch settings plus what the CLI does
// around a session.
type BrowserConfig struct {
	browser.Config `yaml:",inline"`

	// StartPage is opened once the session is up
	StartPage string `yaml:"start_page" json:"start_page"`

	// InstallDriver downloads Playwright and its browsers before launching
	InstallDriver bool `yaml:"install_driver" json:"install_driver"`

	// Retries is how many full start/use/close cycles the CLI attempts
	Retries int `yaml:"retries" json:"retries"`
}

// EvalConfig controls how trajectory directories are read
type EvalConfig struct {
	GPTSolver    bool `yaml:"gpt_solver" json:"gpt_solver"`
	SkipEventLog bool `yaml:"skip_event_log" json:"skip_event_log"`
	Concurrency  int  `yaml:"concurrency" json:"concurrency"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level" json:"level"`
}

// RedisConfig points at the optional trajectory summary index. An empty
// Addr disables it.
type RedisConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Config: browser.Config{
				Headless: true,
			},
			StartPage: "https://www.bing.com/",
			Retries:   3,
		},
		Eval: EvalConfig{
			Concurrency: 8,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Redis: RedisConfig{
			KeyPrefix: "webeval:",
		},
	}
}

// Load reads path over DefaultConfig, applies environment overrides and
// validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.ApplyEnv(os.LookupEnv)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// ApplyEnv overrides fields from the environment. Empty values are ignored,
// so a blank line in a .env template keeps the file's setting. lookup is
// os.LookupEnv outside of tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Redis.Addr = v
	}
	if v, ok := lookup(EnvBrowserDataDir); ok && v != "" {
		c.Browser.BrowserDataDir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Browser.PersistentContext && c.Browser.BrowserDataDir == "" {
		return fmt.Errorf("browser.persistent_context requires browser.browser_data_dir")
	}
	if c.Browser.Retries < 1 {
		return fmt.Errorf("browser.retries must be at least 1")
	}
	if c.Eval.Concurrency < 0 {
		return fmt.Errorf("eval.concurrency cannot be negative")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// ApplyLogging sets the minimum level of every logger in the process.
func (c *Config) ApplyLogging() error {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return err
	}
	logging.SetLevel(level)
	return nil
}
