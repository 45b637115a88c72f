// Package config holds the settings for a test run. Values come from, in increasing order of
// precedence: built-in defaults, an optional YAML file, SCAFFOLD_* environment variables, and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	null "gopkg.in/guregu/null.v3"
	"gopkg.in/yaml.v3"

	"github.com/launchdarkly/test-scaffold/apiclient"
	"github.com/launchdarkly/test-scaffold/framework/retry"
)

// EnvPrefix is prepended to the environment variable name of each setting.
const EnvPrefix = "scaffold"

const (
	DefaultBaseURL        = "http://localhost:8080"
	DefaultReadyTimeoutMs = 10000
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	BaseURL        null.String `yaml:"baseURL" envconfig:"BASE_URL"`
	Email          null.String `yaml:"email" envconfig:"EMAIL"`
	Password       null.String `yaml:"password" envconfig:"PASSWORD"`
	MaxAttempts    null.Int    `yaml:"maxAttempts" envconfig:"MAX_ATTEMPTS"`
	TimeoutMs      null.Int    `yaml:"timeoutMs" envconfig:"TIMEOUT_MS"`
	DelayMs        null.Int    `yaml:"delayMs" envconfig:"DELAY_MS"`
	ReadyTimeoutMs null.Int    `yaml:"readyTimeoutMs" envconfig:"READY_TIMEOUT_MS"`
	Debug          null.Bool   `yaml:"debug" envconfig:"DEBUG"`
}

// Default returns the settings used when nothing else is specified.
func Default() Config {
	return Config{
		BaseURL:        null.StringFrom(DefaultBaseURL),
		MaxAttempts:    null.IntFrom(retry.DefaultMaxAttempts),
		TimeoutMs:      null.IntFrom(retry.DefaultTimeout.Milliseconds()),
		DelayMs:        null.IntFrom(retry.DefaultDelay.Milliseconds()),
		ReadyTimeoutMs: null.IntFrom(DefaultReadyTimeoutMs),
		Debug:          null.BoolFrom(false),
	}
}

// Apply returns a copy of c in which every field that is set in other replaces the field in c.
func (c Config) Apply(other Config) Config {
	if other.BaseURL.Valid {
		c.BaseURL = other.BaseURL
	}
	if other.Email.Valid {
		c.Email = other.Email
	}
	if other.Password.Valid {
		c.Password = other.Password
	}
	if other.MaxAttempts.Valid {
		c.MaxAttempts = other.MaxAttempts
	}
	if other.TimeoutMs.Valid {
		c.TimeoutMs = other.TimeoutMs
	}
	if other.DelayMs.Valid {
		c.DelayMs = other.DelayMs
	}
	if other.ReadyTimeoutMs.Valid {
		c.ReadyTimeoutMs = other.ReadyTimeoutMs
	}
	if other.Debug.Valid {
		c.Debug = other.Debug
	}
	return c
}

// ReadFile reads settings from a YAML file. Fields missing from the file are left unset.
func ReadFile(path string) (Config, error) {
	var c Config
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return c, nil
}

// ReadEnv reads settings from SCAFFOLD_* environment variables.
func ReadEnv() (Config, error) {
	var c Config
	err := envconfig.Process(EnvPrefix, &c)
	return c, err
}

// Load combines the defaults, the file at path if path is not empty, the environment, and
// finally flags, then validates the result.
func Load(path string, flags Config) (Config, error) {
	c := Default()
	if path != "" {
		fileConfig, err := ReadFile(path)
		if err != nil {
			return c, err
		}
		c = c.Apply(fileConfig)
	}
	envConfig, err := ReadEnv()
	if err != nil {
		return c, err
	}
	c = c.Apply(envConfig).Apply(flags)
	return c, c.Validate()
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL.String)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base URL %q must be an absolute http or https URL", ErrInvalidConfig, c.BaseURL.String)
	}
	if c.Email.Valid != c.Password.Valid {
		return fmt.Errorf("%w: email and password must be given together", ErrInvalidConfig)
	}
	for name, v := range map[string]null.Int{
		"maxAttempts":    c.MaxAttempts,
		"timeoutMs":      c.TimeoutMs,
		"readyTimeoutMs": c.ReadyTimeoutMs,
	} {
		if v.Valid && v.Int64 <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, name)
		}
	}
	if c.DelayMs.Valid && c.DelayMs.Int64 < 0 {
		return fmt.Errorf("%w: delayMs must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Credentials returns the account for authenticated strategies, if one is configured.
func (c Config) Credentials() (apiclient.Credentials, bool) {
	if !c.Email.Valid || !c.Password.Valid {
		return apiclient.Credentials{}, false
	}
	return apiclient.Credentials{Email: c.Email.String, Password: c.Password.String}, true
}

// RetryOptions converts the retry settings. A delay of zero means no delay between attempts.
func (c Config) RetryOptions() retry.Options {
	opts := retry.Options{
		MaxAttempts: int(c.MaxAttempts.Int64),
		Timeout:     time.Duration(c.TimeoutMs.Int64) * time.Millisecond,
		Delay:       time.Duration(c.DelayMs.Int64) * time.Millisecond,
	}
	if c.DelayMs.Valid && c.DelayMs.Int64 == 0 {
		opts.Delay = retry.NoDelay
	}
	return opts
}

// ReadyTimeout is how long to wait for the service to respond before running tests.
func (c Config) ReadyTimeout() time.Duration {
	return time.Duration(c.ReadyTimeoutMs.Int64) * time.Millisecond
}
