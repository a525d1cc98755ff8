// Package config loads the server settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DevSecretKey signs tokens when SECRET_KEY is unset outside production.
const DevSecretKey = "prepia-dev-secret-change-me"

// Config holds the server settings.
type Config struct {
	Host                string        `mapstructure:"host"`
	Port                int           `mapstructure:"port"`
	DBPath              string        `mapstructure:"db_path"`
	SecretKey           string        `mapstructure:"secret_key"`
	TokenTTL            time.Duration `mapstructure:"token_ttl"`
	AllowedOrigins      []string      `mapstructure:"allowed_origins"`
	LogMode             string        `mapstructure:"log_mode"`
	CollaboratorTimeout time.Duration `mapstructure:"collaborator_timeout"`
	ShutdownTimeout     time.Duration `mapstructure:"shutdown_timeout"`
	ExamContext         string        `mapstructure:"exam_context"`
}

// Load reads settings with this precedence: process environment, then the
// given .env files (default ".env"), then defaults. The .env files are also
// loaded into the process environment so that provider keys reach the LLM
// configuration. Missing files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) > 0 {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(present...); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AllowedOrigins = splitOrigins(cfg.AllowedOrigins)

	if cfg.SecretKey == "" && !cfg.Production() {
		cfg.SecretKey = DevSecretKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("db_path", "")
	v.SetDefault("secret_key", "")
	v.SetDefault("token_ttl", 30*24*time.Hour)
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("log_mode", "dev")
	v.SetDefault("collaborator_timeout", 60*time.Second)
	v.SetDefault("shutdown_timeout", 15*time.Second)
	v.SetDefault("exam_context", "examen de admisión universitaria peruana")
}

// splitOrigins accepts both a list and a single comma separated entry.
func splitOrigins(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, o := range strings.Split(entry, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

// Production reports whether LOG_MODE selects production behaviour.
func (c *Config) Production() bool {
	return c.LogMode == "prod" || c.LogMode == "production"
}

// Validate checks settings that have no safe fallback.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required in production"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.CollaboratorTimeout < 0 {
		errs = append(errs, fmt.Errorf("COLLABORATOR_TIMEOUT must not be negative, got %s", c.CollaboratorTimeout))
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
