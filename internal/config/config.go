// Package config loads the settings of the grammarbot command.
package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-grammarbot/pkg/grammarbot"
)

// Environment variables overriding the file settings.
const (
	EnvAPIKey   = "GRAMMARBOT_API_KEY"
	EnvLanguage = "GRAMMARBOT_LANGUAGE"
	EnvBaseURL  = "GRAMMARBOT_BASE_URL"
)

// Config holds the client and batch settings.
type Config struct {
	APIKey      string        `yaml:"api_key"`
	Language    string        `yaml:"language"    validate:"required"`
	BaseURL     string        `yaml:"base_url"    validate:"required,url"`
	Timeout     time.Duration `yaml:"timeout"     validate:"gte=0"`
	Concurrency int           `yaml:"concurrency" validate:"gte=1"`
	RateLimit   float64       `yaml:"rate_limit"  validate:"gte=0"`
	RateBurst   int           `yaml:"rate_burst"  validate:"gte=0"`
	Retry       *Retry        `yaml:"retry"`
}

// Retry configures the retry of transient API failures. A nil Retry disables retries.
type Retry struct {
	Mode       string        `yaml:"mode"        validate:"omitempty,oneof=fixed linear exponential"`
	Initial    time.Duration `yaml:"initial"     validate:"gte=0"`
	Max        time.Duration `yaml:"max"         validate:"gte=0"`
	MaxRetries int           `yaml:"max_retries" validate:"gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")

		return name
	})

	return v
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Language:    grammarbot.DefaultLanguage,
		BaseURL:     grammarbot.DefaultBaseURL,
		Timeout:     grammarbot.DefaultTimeout,
		Concurrency: 4,
	}
}

// Load reads the YAML file at path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config %s", path)
	}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse config %s", path)
	}

	return cfg, nil
}

// LoadDotEnv loads the .env files at paths into the environment. Missing files are
// skipped and variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, path := range paths {
		_, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		err = godotenv.Load(path)
		if err != nil {
			return errors.Wrapf(err, "unable to load %s", path)
		}
	}

	return nil
}

// ApplyEnv overrides the settings with the non empty environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvLanguage); v != "" {
		c.Language = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
}

// Validate checks the settings.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err != nil {
		return errors.Wrap(err, "invalid config")
	}

	return nil
}

// ClientOptions returns the client options matching the settings.
func (c *Config) ClientOptions() []grammarbot.Option {
	opts := []grammarbot.Option{
		grammarbot.WithLanguage(c.Language),
		grammarbot.WithBaseURL(c.BaseURL),
		grammarbot.WithTimeout(c.Timeout),
		grammarbot.WithRateLimit(c.RateLimit, c.RateBurst),
	}
	if c.Retry != nil {
		opts = append(opts, grammarbot.WithRetryPolicy(grammarbot.NewPolicy(
			grammarbot.BackoffMode(c.Retry.Mode), c.Retry.Initial, c.Retry.Max, c.Retry.MaxRetries,
		)))
	}

	return opts
}
