package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Browser.NavTimeoutSec != 30 {
		t.Fatalf("default nav timeout = %d, want 30", cfg.Browser.NavTimeoutSec)
	}
	if cfg.Retry.MaxRecoveries != 2 {
		t.Fatalf("default max recoveries = %d, want 2", cfg.Retry.MaxRecoveries)
	}
}

func TestLoadParsesJournals(t *testing.T) {
	path := writeConfig(t, `
[[journals]]
code = "JAM"
name = "Journal of Applied Mysteries"
platform = "editorial-manager"
entry_urls = ["https://example.org/jam/", "  https://fallback.example.org/jam/  "]
role = "Associate Editor"
categories = ["Reviews in Progress"]
`)
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	j, ok := cfg.JournalByCode("jam")
	if !ok {
		t.Fatal("journal not found by lowercased code")
	}
	if j.Platform != PlatformEditorialManager {
		t.Fatalf("platform = %q", j.Platform)
	}
	if len(j.EntryURLs) != 2 || j.EntryURLs[1] != "https://fallback.example.org/jam/" {
		t.Fatalf("entry urls not trimmed: %v", j.EntryURLs)
	}
}

func TestValidateRejectsUnknownPlatform(t *testing.T) {
	path := writeConfig(t, `
[[journals]]
code = "x"
platform = "ejpress"
entry_urls = ["https://example.org/"]
`)
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unknown platform") {
		t.Fatalf("expected unknown platform error, got %v", err)
	}
}

func TestValidateRejectsDuplicateCodes(t *testing.T) {
	path := writeConfig(t, `
[[journals]]
code = "jam"
platform = "scholarone"
entry_urls = ["https://example.org/"]

[[journals]]
code = "JAM"
platform = "scholarone"
entry_urls = ["https://example.org/"]
`)
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "duplicate journal code") {
		t.Fatalf("expected duplicate code error, got %v", err)
	}
}

func TestValidateRequiresEntryURL(t *testing.T) {
	path := writeConfig(t, `
[[journals]]
code = "jam"
platform = "scholarone"
`)
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "entry URL") {
		t.Fatalf("expected entry URL error, got %v", err)
	}
}

func TestJournalDirsAreDisjoint(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	a := cfg.DownloadDir("jam")
	b := cfg.DownloadDir("ijqs")
	if a == b {
		t.Fatalf("download dirs must be disjoint, both %q", a)
	}
	if !strings.HasPrefix(a, cfg.JournalWorkDir("jam")) {
		t.Fatalf("download dir %q outside journal work dir", a)
	}
}
