// Package config provides configuration loading from YAML files and the
// environment.
package config

import (
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Development credentials used when none are configured.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Content ContentConfig `yaml:"content"`
	Storage StorageConfig `yaml:"storage"`
	Admin   AdminConfig   `yaml:"admin"`
	Mail    MailConfig    `yaml:"mail"`
	Effects EffectsConfig `yaml:"effects"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr           string   `yaml:"addr" default:":8080" validate:"required"`
	Mode           string   `yaml:"mode" default:"release" validate:"oneof=debug release test"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// ContentConfig points at an alternative content table.
type ContentConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig represents the visitor/link database.
type StorageConfig struct {
	Path            string `yaml:"path" default:"portfolio.db" validate:"required"`
	RetentionDays   int    `yaml:"retention_days" default:"365" validate:"gte=1,lte=3650"`
	CleanupSchedule string `yaml:"cleanup_schedule" default:"@daily" validate:"required"`
}

// AdminConfig represents admin dashboard credentials.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// CookieSecure marks the admin cookie Secure; enable behind TLS.
	CookieSecure bool `yaml:"cookie_secure"`
}

// MailConfig represents the SMTP relay used by the contact form.
type MailConfig struct {
	Host     string `yaml:"host" default:"smtp.gmail.com"`
	Port     int    `yaml:"port" default:"587" validate:"gte=1,lte=65535"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	To       string `yaml:"to" validate:"omitempty,email"`
}

// EffectsConfig tunes the streamed canvas effects.
type EffectsConfig struct {
	FPS   int `yaml:"fps" default:"30" validate:"gte=1,lte=60"`
	Stars int `yaml:"stars" default:"60" validate:"gte=1,lte=500"`
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `yaml:"output" default:"stdout"`
}

// Load loads configuration from a YAML file. An empty path or a missing file
// yields defaults plus environment overrides.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, errors.Wrap(err, "failed to read config file")
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, errors.Wrap(err, "failed to parse config file")
			}
		}
	}

	// Override with environment variables
	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv("PORTFOLIO_DB"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("ADMIN_USERNAME"); v != "" {
		c.Admin.Username = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		c.Admin.Password = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.Mail.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid SMTP_PORT %q", v)
		}
		c.Mail.Port = port
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		c.Mail.User = v
	}
	if v := os.Getenv("SMTP_PASS"); v != "" {
		c.Mail.Password = v
	}
	if v := os.Getenv("TO_EMAIL"); v != "" {
		c.Mail.To = v
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	if (c.Mail.User == "") != (c.Mail.Password == "") {
		return errors.New("mail user and password must be set together")
	}
	return nil
}

// AdminCredentials returns the configured credentials, falling back to the
// development defaults. usingDefaults reports whether any fallback applied.
func (c *Config) AdminCredentials() (username, password string, usingDefaults bool) {
	username, password = c.Admin.Username, c.Admin.Password
	if username == "" {
		username = DefaultAdminUsername
		usingDefaults = true
	}
	if password == "" {
		password = DefaultAdminPassword
		usingDefaults = true
	}
	return username, password, usingDefaults
}

// MailEnabled reports whether SMTP credentials are configured.
func (c *Config) MailEnabled() bool {
	return c.Mail.User != "" && c.Mail.Password != ""
}
