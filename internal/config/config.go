package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
	OutputDir string `toml:"output_dir"`
}

// Platform identifies a scraping-engine family.
type Platform string

const (
	PlatformEditorialManager Platform = "editorial-manager"
	PlatformScholarOne       Platform = "scholarone"
)

// Journal configures one editorial-platform instance to harvest.
type Journal struct {
	Code     string   `toml:"code"`
	Name     string   `toml:"name"`
	Platform Platform `toml:"platform"`
	// EntryURLs are tried in order at login; the first is the primary.
	EntryURLs []string `toml:"entry_urls"`
	// Role is selected after login when the platform offers more than one
	// operating role (e.g. "Associate Editor").
	Role string `toml:"role"`
	// Categories restricts discovery to queue names containing any of these
	// substrings. Empty means all non-empty categories.
	Categories []string `toml:"categories"`
	// Username/Password override the environment-provided credentials.
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Browser contains automation-surface settings.
type Browser struct {
	Binary          string `toml:"binary"`
	Headless        bool   `toml:"headless"`
	ViewportWidth   int    `toml:"viewport_width"`
	ViewportHeight  int    `toml:"viewport_height"`
	NavTimeoutSec   int    `toml:"nav_timeout_seconds"`
	WaitTimeoutSec  int    `toml:"wait_timeout_seconds"`
	ProbeTimeoutSec int    `toml:"probe_timeout_seconds"`
}

// Retry is the explicit retry policy applied by the session controller and
// entity extractor.
type Retry struct {
	MaxAttempts   int     `toml:"max_attempts"`
	BaseDelaySec  int     `toml:"base_delay_seconds"`
	BackoffFactor float64 `toml:"backoff_factor"`
	MaxRecoveries int     `toml:"max_recoveries"`
}

// Workflow contains orchestrator timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Downloads configures the per-journal document cache.
type Downloads struct {
	Enabled    bool `toml:"enabled"`
	MaxFileMiB int  `toml:"max_file_mib"`
	TimeoutSec int  `toml:"timeout_seconds"`
}

// Enrichment configures the external people/communication-log collaborators.
type Enrichment struct {
	PeopleURL      string `toml:"people_url"`
	CommLogURL     string `toml:"comm_log_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunEvents      bool   `toml:"run_events"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vellum.
//
// Configuration sections by subsystem:
//   - Paths: work/log/output directories
//   - Journals: the editorial-platform instances to harvest
//   - Browser: automation-surface launch and timeout settings
//   - Retry: session recovery and extraction retry policy
//   - Workflow: orchestrator polling intervals
//   - Downloads: document cache limits
//   - Enrichment: external people/communication-log services
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Journals      []Journal     `toml:"journals"`
	Browser       Browser       `toml:"browser"`
	Retry         Retry         `toml:"retry"`
	Workflow      Workflow      `toml:"workflow"`
	Downloads     Downloads     `toml:"downloads"`
	Enrichment    Enrichment    `toml:"enrichment"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vellum/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vellum.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for a run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir, c.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalByCode returns the journal configuration matching code.
func (c *Config) JournalByCode(code string) (*Journal, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for i := range c.Journals {
		if strings.ToLower(c.Journals[i].Code) == code {
			return &c.Journals[i], true
		}
	}
	return nil, false
}

// JournalWorkDir returns the per-journal working directory. Cross-journal
// directories are disjoint by construction.
func (c *Config) JournalWorkDir(code string) string {
	return filepath.Join(c.Paths.WorkDir, strings.ToLower(strings.TrimSpace(code)))
}

// DownloadDir returns the per-journal document cache directory.
func (c *Config) DownloadDir(code string) string {
	return filepath.Join(c.JournalWorkDir(code), "downloads")
}

// DiagnosticsDir returns where diagnostic page snapshots are saved.
func (c *Config) DiagnosticsDir(code string) string {
	return filepath.Join(c.JournalWorkDir(code), "diagnostics")
}

// DatabasePath returns the per-journal run-ledger database location.
func (c *Config) DatabasePath(code string) string {
	return filepath.Join(c.JournalWorkDir(code), "ledger.db")
}

// LockPath returns the per-journal lock file guarding the work directory.
func (c *Config) LockPath(code string) string {
	return filepath.Join(c.JournalWorkDir(code), "run.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
