package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/campaignjournal/internal/render"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeSession  = "session"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Render RenderConfig      `yaml:"render"`
	Vault  VaultConfig       `yaml:"vault"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	return c.Vault.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): anyone may write, suitable for a single table.
//   - "session": write routes require a logged-in user; reads stay public.
type AuthConfig struct {
	Mode       string        `yaml:"mode"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeSession)),
		validation.Field(&c.SessionTTL, validation.Required, validation.Min(time.Minute)),
	)
}

// AuthEnabled returns true when write routes require a session.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeSession
}

// RenderConfig holds Markdown rendering options.
type RenderConfig struct {
	HeadingOffset int  `yaml:"heading_offset"`
	UnsafeHTML    bool `yaml:"unsafe_html"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HeadingOffset, validation.Min(0), validation.Max(5)),
	)
}

// Options converts the section into renderer options.
func (c *RenderConfig) Options() render.Options {
	return render.Options{HeadingOffset: c.HeadingOffset, UnsafeHTML: c.UnsafeHTML}
}

// VaultConfig holds the optional Markdown mirror directory. An empty path
// disables the mirror.
type VaultConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Enabled reports whether documents are mirrored to disk.
func (c *VaultConfig) Enabled() bool {
	return c.Path != ""
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	if c.Watch && c.Path == "" {
		return fmt.Errorf("vault: watch is enabled but path is empty")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	defaults := render.DefaultOptions()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./campaignjournal.db",
		},
		Auth: AuthConfig{
			Mode:       AuthModeDisabled,
			SessionTTL: 7 * 24 * time.Hour,
		},
		Render: RenderConfig{
			HeadingOffset: defaults.HeadingOffset,
			UnsafeHTML:    defaults.UnsafeHTML,
		},
	}
}
