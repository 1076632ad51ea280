// Package config loads the backup tool's settings from a config file and
// VKBACKUP_ environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Totktonada/vk-messages-backup/internal/localstate"
	"github.com/Totktonada/vk-messages-backup/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. VKBACKUP_ACCESS_TOKEN.
const EnvPrefix = "VKBACKUP"

// Config holds credentials and client tuning. The file keys are the
// snake_case names; a plain config.json with just access_token and user_id
// is a valid file.
type Config struct {
	AccessToken string `yaml:"access_token" envconfig:"ACCESS_TOKEN"`
	UserID      int64  `yaml:"user_id" envconfig:"USER_ID"`

	APIURL     string `yaml:"api_url" envconfig:"API_URL"`
	APIVersion string `yaml:"api_version" envconfig:"API_VERSION"`

	RequestInterval time.Duration `yaml:"request_interval" envconfig:"REQUEST_INTERVAL"`
	HTTPTimeout     time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT"`

	HistoryPageSize       int `yaml:"history_page_size" envconfig:"HISTORY_PAGE_SIZE"`
	ConversationsPageSize int `yaml:"conversations_page_size" envconfig:"CONVERSATIONS_PAGE_SIZE"`
	UsersChunkSize        int `yaml:"users_chunk_size" envconfig:"USERS_CHUNK_SIZE"`

	MaxAttempts int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS"`
	BaseBackoff time.Duration `yaml:"base_backoff" envconfig:"BASE_BACKOFF"`
	MaxBackoff  time.Duration `yaml:"max_backoff" envconfig:"MAX_BACKOFF"`

	// Path is the file the config was read from, empty when none was found.
	Path string `yaml:"-" ignored:"true"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		APIURL:                "https://api.vk.com/method",
		APIVersion:            "5.80",
		RequestInterval:       350 * time.Millisecond,
		HTTPTimeout:           30 * time.Second,
		HistoryPageSize:       200,
		ConversationsPageSize: 200,
		UsersChunkSize:        20,
		MaxAttempts:           5,
		BaseBackoff:           500 * time.Millisecond,
		MaxBackoff:            10 * time.Second,
	}
}

// Load builds the config: defaults, then the config file, then the
// environment. explicitPath, when set, must name a regular file; otherwise
// the first existing default location is used, if any.
func Load(explicitPath string) (*Config, error) {
	cfg := Default()

	path, err := Discover(explicitPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
		cfg.Path = path
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	log.Debug().
		Str("config_file", cfg.Path).
		Int64("user_id", cfg.UserID).
		Bool("access_token_present", cfg.AccessToken != "").
		Str("api_url", cfg.APIURL).
		Str("api_version", cfg.APIVersion).
		Dur("request_interval", cfg.RequestInterval).
		Msg("configuration loaded")
	return cfg, nil
}

// Discover resolves the config file location. An empty result with a nil
// error means no file exists at any default location.
func Discover(explicitPath string) (string, error) {
	if explicitPath != "" {
		if err := localstate.RequireRegular(explicitPath); err != nil {
			return "", fmt.Errorf("cannot read config file: %w", err)
		}
		return explicitPath, nil
	}
	candidates, err := localstate.ConfigCandidates()
	if err != nil {
		return "", err
	}
	for _, c := range candidates {
		info, err := os.Stat(c)
		if err == nil && info.Mode().IsRegular() {
			return c, nil
		}
	}
	return "", nil
}

// readFile overlays the keys present in path. JSON documents are valid
// YAML, so both formats are accepted.
func (c *Config) readFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w: %w", path, model.ErrConfig, err)
	}
	return nil
}

// ValidateBackup checks what a networked backup run needs.
func (c *Config) ValidateBackup() error {
	if c.AccessToken == "" {
		return fmt.Errorf("access_token is not set: %w", model.ErrConfig)
	}
	if err := c.ValidateRender(); err != nil {
		return err
	}
	switch {
	case c.APIURL == "":
		return fmt.Errorf("api_url is empty: %w", model.ErrConfig)
	case c.APIVersion == "":
		return fmt.Errorf("api_version is empty: %w", model.ErrConfig)
	case c.RequestInterval < 0:
		return fmt.Errorf("request_interval must be >= 0: %w", model.ErrConfig)
	case c.HTTPTimeout <= 0:
		return fmt.Errorf("http_timeout must be > 0: %w", model.ErrConfig)
	case c.HistoryPageSize <= 0 || c.ConversationsPageSize <= 0 || c.UsersChunkSize <= 0:
		return fmt.Errorf("page sizes must be > 0: %w", model.ErrConfig)
	case c.MaxAttempts < 1:
		return fmt.Errorf("max_attempts must be >= 1: %w", model.ErrConfig)
	case c.BaseBackoff <= 0 || c.MaxBackoff < c.BaseBackoff:
		return fmt.Errorf("invalid backoff bounds %s..%s: %w", c.BaseBackoff, c.MaxBackoff, model.ErrConfig)
	}
	return nil
}

// ValidateRender checks what an offline render needs: only the owner id.
func (c *Config) ValidateRender() error {
	if c.UserID <= 0 {
		return fmt.Errorf("user_id must be a positive number: %w", model.ErrConfig)
	}
	return nil
}
