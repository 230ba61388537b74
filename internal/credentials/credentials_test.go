package credentials

import (
	"errors"
	"testing"

	"vellum/internal/config"
	"vellum/internal/services"
)

func TestEnvProviderPrefersEnvironment(t *testing.T) {
	t.Setenv("VELLUM_JAM_USERNAME", "editor@example.org")
	t.Setenv("VELLUM_JAM_PASSWORD", "hunter2")

	cfg := config.Default()
	cfg.Journals = []config.Journal{{Code: "jam", Username: "config-user", Password: "config-pass"}}

	p := NewEnvProvider(&cfg, "")
	cred, err := p.Get("jam")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cred.Username != "editor@example.org" || cred.Password != "hunter2" {
		t.Fatalf("environment should win, got %+v", cred)
	}
}

func TestEnvProviderFallsBackToConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Journals = []config.Journal{{Code: "ijqs", Username: "config-user", Password: "config-pass"}}

	p := NewEnvProvider(&cfg, "")
	cred, err := p.Get("IJQS")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cred.Username != "config-user" {
		t.Fatalf("expected config fallback, got %+v", cred)
	}
}

func TestEnvProviderMissingCredentialIsConfigurationError(t *testing.T) {
	p := NewEnvProvider(nil, "")
	_, err := p.Get("nosuch")
	if err == nil {
		t.Fatal("expected error for missing credential")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestEnvKeySanitizesCode(t *testing.T) {
	if got := envKey("J-AM2", "USERNAME"); got != "VELLUM_J_AM2_USERNAME" {
		t.Fatalf("envKey = %q", got)
	}
}
