// Package config loads the notifier configuration from a YAML file, .env and
// TAJA_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Adda-Baaj/taja-digest/internal/digest"
	"github.com/Adda-Baaj/taja-digest/internal/logger"
	"github.com/Adda-Baaj/taja-digest/pkg/awsconf"
	"github.com/Adda-Baaj/taja-digest/pkg/dedup"
	"github.com/Adda-Baaj/taja-digest/pkg/providers"
)

const (
	EnvPrefix = "TAJA"

	SecretSourceSSM = "ssm"
	SecretSourceEnv = "env"
)

// Config is the top-level configuration.
type Config struct {
	Feeds          []providers.Provider `mapstructure:"feeds"`
	Limits         digest.Limits        `mapstructure:"limits"`
	Dedup          dedup.Config         `mapstructure:"dedup"`
	Webhook        WebhookConfig        `mapstructure:"webhook"`
	PublishersFile string               `mapstructure:"publishers_file"`
	Crawler        CrawlerConfig        `mapstructure:"crawler"`
	Run            RunConfig            `mapstructure:"run"`
	AWS            awsconf.Settings     `mapstructure:"aws"`
	Log            logger.Config        `mapstructure:"log"`
}

// WebhookConfig describes the primary chat webhook.
type WebhookConfig struct {
	URL string `mapstructure:"url"`
	// Parameter is the secret name holding the URL, read from SecretSource.
	Parameter    string        `mapstructure:"parameter"`
	SecretSource string        `mapstructure:"secret_source"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// CrawlerConfig toggles page scraping for untitled entries.
type CrawlerConfig struct {
	EnrichMissingTitles bool          `mapstructure:"enrich_missing_titles"`
	Timeout             time.Duration `mapstructure:"timeout"`
}

// RunConfig bounds one invocation.
type RunConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	Timezone     string        `mapstructure:"timezone"`
	Locale       string        `mapstructure:"locale"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// Location resolves the configured time zone.
func (r RunConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(r.Timezone) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration. path may be empty, in which case config.yaml is
// searched in the working directory and its absence is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("limits.max_process", digest.DefaultMaxProcess)
	v.SetDefault("limits.max_entries", digest.DefaultMaxEntries)
	v.SetDefault("dedup.backend", dedup.BackendDynamoDB)
	v.SetDefault("dedup.retention", dedup.DefaultRetention)
	v.SetDefault("dedup.table", "")
	v.SetDefault("dedup.bolt_path", "")
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.parameter", "")
	v.SetDefault("webhook.secret_source", SecretSourceSSM)
	v.SetDefault("webhook.timeout", 5*time.Second)
	v.SetDefault("publishers_file", "")
	v.SetDefault("crawler.enrich_missing_titles", false)
	v.SetDefault("crawler.timeout", 10*time.Second)
	v.SetDefault("run.timeout", 60*time.Second)
	v.SetDefault("run.fetch_timeout", 15*time.Second)
	v.SetDefault("run.timezone", "UTC")
	v.SetDefault("run.locale", digest.LocaleEnglish)
	// Every key needs a default so TAJA_ env overrides bind on Unmarshal.
	for _, prefix := range []string{"aws", "dedup.aws"} {
		v.SetDefault(prefix+".region", "")
		v.SetDefault(prefix+".access_key_id", "")
		v.SetDefault(prefix+".secret_access_key", "")
		v.SetDefault(prefix+".endpoint", "")
	}
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// normalize sanitizes feeds, fills the default feed table and lets dedup
// inherit the shared AWS settings.
func (c *Config) normalize() {
	if len(c.Feeds) == 0 {
		c.Feeds = providers.DefaultProviders()
	}
	for i := range c.Feeds {
		c.Feeds[i] = providers.Sanitize(c.Feeds[i])
	}

	c.Dedup.Backend = strings.ToLower(strings.TrimSpace(c.Dedup.Backend))
	if c.Dedup.AWS.Region == "" {
		c.Dedup.AWS.Region = c.AWS.Region
	}
	if !c.Dedup.AWS.HasStaticCredentials() && c.AWS.HasStaticCredentials() {
		c.Dedup.AWS.AccessKeyID = c.AWS.AccessKeyID
		c.Dedup.AWS.SecretAccessKey = c.AWS.SecretAccessKey
	}

	c.Webhook.URL = strings.TrimSpace(c.Webhook.URL)
	c.Webhook.Parameter = strings.TrimSpace(c.Webhook.Parameter)
	c.Webhook.SecretSource = strings.ToLower(strings.TrimSpace(c.Webhook.SecretSource))
	c.PublishersFile = strings.TrimSpace(c.PublishersFile)
	c.Run.Locale = strings.ToLower(strings.TrimSpace(c.Run.Locale))
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Feeds))
	for i, f := range c.Feeds {
		if err := providers.Validate(f); err != nil {
			return fmt.Errorf("feeds[%d]: %w", i, err)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("feeds[%d]: duplicate feed id %q", i, f.ID)
		}
		seen[f.ID] = struct{}{}
	}

	if c.Limits.MaxProcess < 0 || c.Limits.MaxEntries < 0 {
		return errors.New("limits must not be negative")
	}

	if err := c.Dedup.Validate(); err != nil {
		return err
	}

	if c.Webhook.URL == "" && c.Webhook.Parameter == "" {
		return errors.New("webhook.url or webhook.parameter is required")
	}
	switch c.Webhook.SecretSource {
	case SecretSourceSSM, SecretSourceEnv:
	default:
		return fmt.Errorf("webhook.secret_source %q not supported", c.Webhook.SecretSource)
	}

	if _, err := c.Run.Location(); err != nil {
		return err
	}
	if !digest.SupportedLocale(c.Run.Locale) {
		return fmt.Errorf("run.locale %q not supported", c.Run.Locale)
	}
	return nil
}
