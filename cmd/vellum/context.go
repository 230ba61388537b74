package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"vellum/internal/config"
	"vellum/internal/logging"

	"log/slog"
)

type commandContext struct {
	configFlag *string
	envFlag    *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, envFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, envFlag: envFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if path != "" && !exists {
			c.configErr = fmt.Errorf("config file not found: %s", resolvedPath)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger once, writing to stdout and the
// configured log directory.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "vellum.log")},
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) envFile() string {
	if c.envFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.envFlag)
}

// journalsFor resolves positional journal-code arguments against the
// configuration; no arguments means every configured journal.
func (c *commandContext) journalsFor(args []string) ([]config.Journal, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if len(cfg.Journals) == 0 {
		return nil, fmt.Errorf("no journals configured; add a [[journals]] section to the config")
	}
	if len(args) == 0 {
		return cfg.Journals, nil
	}
	var journals []config.Journal
	for _, arg := range args {
		journal, ok := cfg.JournalByCode(arg)
		if !ok {
			return nil, fmt.Errorf("unknown journal code %q", arg)
		}
		journals = append(journals, *journal)
	}
	return journals, nil
}
