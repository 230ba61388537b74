package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "vellum.toml")
	content := `
[paths]
work_dir = "` + filepath.Join(base, "work") + `"
log_dir = "` + filepath.Join(base, "logs") + `"
output_dir = "` + filepath.Join(base, "output") + `"

[[journals]]
code = "jemt"
name = "Journal of Electron Microscopy Technique"
platform = "editorial-manager"
entry_urls = ["https://em.example/login"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, "config", "init", path)
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Fatalf("sample content = %s", data)
	}

	if _, err := runCLI(t, "config", "init", path); err == nil {
		t.Fatal("expected error when file already exists")
	}
}

func TestLedgerStatsOnFreshJournal(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCLI(t, "--config", cfgPath, "ledger", "stats", "jemt")
	if err != nil {
		t.Fatalf("ledger stats error = %v", err)
	}
	if !strings.Contains(out, "total") {
		t.Fatalf("output = %q", out)
	}
}

func TestLedgerCommandsRejectUnknownJournal(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCLI(t, "--config", cfgPath, "ledger", "stats", "nope"); err == nil {
		t.Fatal("expected error for unknown journal")
	}
}

func TestLedgerClearRequiresConfirmation(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCLI(t, "--config", cfgPath, "ledger", "clear", "jemt"); err == nil {
		t.Fatal("expected confirmation error")
	}
}

func TestTestNotifyWithoutTopicFails(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCLI(t, "--config", cfgPath, "test-notify"); err == nil {
		t.Fatal("expected error without configured topic")
	}
}
