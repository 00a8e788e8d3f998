// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package config loads the server configuration from an optional YAML
// file with environment-variable overrides. The configuration is built
// once at startup and passed into the service explicitly; nothing reads
// the environment after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mensahe/passkey/pkg/passkey"
)

// Config represents the complete server configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Session   SessionConfig   `yaml:"session"`
	WebAuthn  WebAuthnConfig  `yaml:"webauthn"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Redis     RedisConfig     `yaml:"redis"`
	Token     TokenConfig     `yaml:"token"`
}

// AppConfig identifies the application acting as relying party.
type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
	URL         string `yaml:"url"`
	Domain      string `yaml:"domain"`
}

// ServerConfig contains the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SessionConfig controls the per-client session mechanism.
type SessionConfig struct {
	// Driver selects the pending-registration backend: "memory" or
	// "redis".
	Driver string `yaml:"driver"`

	// CookieName is the session cookie name.
	CookieName string `yaml:"cookie_name"`

	// LifetimeMinutes is the session cookie lifetime.
	LifetimeMinutes int `yaml:"lifetime_minutes"`

	// CookieSecure marks the session cookie Secure. Enable outside
	// localhost development.
	CookieSecure bool `yaml:"cookie_secure"`
}

// WebAuthnConfig controls ceremony parameters.
type WebAuthnConfig struct {
	// TimeoutMS is the ceremony timeout in milliseconds.
	TimeoutMS int `yaml:"timeout_ms"`

	Attestation             string   `yaml:"attestation"`
	UserVerification        string   `yaml:"user_verification"`
	AuthenticatorAttachment string   `yaml:"authenticator_attachment"`
	Algorithms              []string `yaml:"algorithms"`

	// Origins are the allowed ceremony origins. Defaults to the app URL.
	Origins []string `yaml:"origins"`
}

// CORSConfig controls cross-origin headers for the browser extension.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RateLimitConfig controls per-client rate limiting on the ceremony
// endpoints.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// RedisConfig configures the Redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// TokenConfig configures optional post-registration JWTs.
type TokenConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SigningKey string `yaml:"signing_key"`
	Issuer     string `yaml:"issuer"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// Default returns the configuration with all defaults applied.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "Mensahe",
			Environment: "development",
			URL:         "http://localhost:8080",
			Domain:      "localhost",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Session: SessionConfig{
			Driver:          "memory",
			CookieName:      "mensahe_session",
			LifetimeMinutes: 120,
		},
		WebAuthn: WebAuthnConfig{
			TimeoutMS:               60000,
			Attestation:             "none",
			UserVerification:        "preferred",
			AuthenticatorAttachment: "platform",
			Algorithms:              []string{"ES256", "RS256"},
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 60,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Token: TokenConfig{
			Issuer:     "mensahe",
			TTLMinutes: 60,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment-variable overrides, in that precedence order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for startup-blocking problems.
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Domain == "" {
		return fmt.Errorf("app domain is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Session.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid session driver: %s", c.Session.Driver)
	}
	if c.Session.Driver == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required for the redis session driver")
	}

	if c.Token.Enabled && c.Token.SigningKey == "" {
		return fmt.Errorf("token signing key is required when tokens are enabled")
	}

	return nil
}

// IsProduction reports whether the app environment is production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// SessionLifetime returns the session cookie lifetime as a duration.
func (c *Config) SessionLifetime() time.Duration {
	return time.Duration(c.Session.LifetimeMinutes) * time.Minute
}

// Passkey maps the server configuration onto the registration service
// configuration.
func (c *Config) Passkey() *passkey.Config {
	origins := c.WebAuthn.Origins
	if len(origins) == 0 {
		origins = []string{c.App.URL}
	}

	return &passkey.Config{
		RPName:                  c.App.Name,
		RPID:                    c.App.Domain,
		RPOrigins:               origins,
		Timeout:                 time.Duration(c.WebAuthn.TimeoutMS) * time.Millisecond,
		Attestation:             c.WebAuthn.Attestation,
		UserVerification:        c.WebAuthn.UserVerification,
		AuthenticatorAttachment: c.WebAuthn.AuthenticatorAttachment,
		Algorithms:              c.WebAuthn.Algorithms,
		Debug:                   c.App.Debug,
	}
}

// applyEnvOverrides applies environment variables over the loaded
// configuration. The names mirror the deployment environment of the
// original extension backend.
func (c *Config) applyEnvOverrides() {
	setString(&c.App.Name, "APP_NAME")
	setString(&c.App.Environment, "APP_ENV")
	setBool(&c.App.Debug, "APP_DEBUG")
	setString(&c.App.URL, "APP_URL")
	setString(&c.App.Domain, "APP_DOMAIN")

	setString(&c.Server.Host, "SERVER_HOST")
	setInt(&c.Server.Port, "SERVER_PORT")

	setString(&c.Session.Driver, "SESSION_DRIVER")
	setString(&c.Session.CookieName, "SESSION_COOKIE")
	setInt(&c.Session.LifetimeMinutes, "SESSION_LIFETIME")
	setBool(&c.Session.CookieSecure, "SESSION_COOKIE_SECURE")

	setInt(&c.WebAuthn.TimeoutMS, "WEBAUTHN_TIMEOUT")
	setString(&c.WebAuthn.Attestation, "WEBAUTHN_ATTESTATION")
	setString(&c.WebAuthn.UserVerification, "WEBAUTHN_USER_VERIFICATION")
	setString(&c.WebAuthn.AuthenticatorAttachment, "WEBAUTHN_AUTHENTICATOR_ATTACHMENT")
	setList(&c.WebAuthn.Origins, "WEBAUTHN_ORIGINS")

	setList(&c.CORS.AllowedOrigins, "CORS_ALLOWED_ORIGINS")
	setList(&c.CORS.AllowedMethods, "CORS_ALLOWED_METHODS")
	setList(&c.CORS.AllowedHeaders, "CORS_ALLOWED_HEADERS")

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	setBool(&c.RateLimit.Enabled, "RATE_LIMIT_ENABLED")
	setInt(&c.RateLimit.RequestsPerMinute, "RATE_LIMIT_RPM")
	setInt(&c.RateLimit.Burst, "RATE_LIMIT_BURST")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")

	setBool(&c.Token.Enabled, "TOKEN_ENABLED")
	setString(&c.Token.SigningKey, "TOKEN_SIGNING_KEY")
	setString(&c.Token.Issuer, "TOKEN_ISSUER")
	setInt(&c.Token.TTLMinutes, "TOKEN_TTL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}

func setList(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			*dst = out
		}
	}
}
