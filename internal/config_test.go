package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/campaignjournal/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", SessionTTL: time.Hour}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{SessionTTL: time.Hour}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_SessionMode(t *testing.T) {
	cfg := AuthConfig{Mode: "session", SessionTTL: 24 * time.Hour}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("session mode should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("session mode should be enabled")
	}
}

func TestAuthConfig_ShortTTL(t *testing.T) {
	cfg := AuthConfig{Mode: "session", SessionTTL: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatal("sub-minute session ttl should fail")
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token", SessionTTL: time.Hour}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestRenderConfig_OffsetRange(t *testing.T) {
	cfg := RenderConfig{HeadingOffset: 6}
	if err := cfg.Validate(); err == nil {
		t.Fatal("offset beyond h6 should fail")
	}
	cfg.HeadingOffset = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero offset should pass: %v", err)
	}
}

func TestVaultConfig_WatchRequiresPath(t *testing.T) {
	cfg := VaultConfig{Watch: true}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "path is empty") {
		t.Fatalf("err = %v, want path is empty", err)
	}
	if cfg.Enabled() {
		t.Error("empty path should disable the vault")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	opts := cfg.Render.Options()
	if opts.HeadingOffset != 1 || !opts.UnsafeHTML {
		t.Errorf("render defaults = %+v", opts)
	}
}

func TestLoad_ExpandsEnvOverDefaults(t *testing.T) {
	t.Setenv("CJ_VAULT", "/srv/vault")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "app:\n  http:\n    port: 9090\nauth:\n  mode: session\n  session_ttl: 2h\nvault:\n  path: ${CJ_VAULT}\n  watch: true\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
	if cfg.Auth.SessionTTL != 2*time.Hour || !cfg.Auth.AuthEnabled() {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if cfg.Vault.Path != "/srv/vault" || !cfg.Vault.Watch {
		t.Errorf("vault = %+v", cfg.Vault)
	}
	if cfg.SQLite.Path != "./campaignjournal.db" || !cfg.Render.UnsafeHTML {
		t.Error("unset sections should keep defaults")
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  mode: magic\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := pkgconfig.Load(path, NewDefaultConfig())
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Fatalf("err = %v", err)
	}
}
