package browser

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"vellum/internal/config"
	"vellum/internal/credentials"
	"vellum/internal/logging"
	"vellum/internal/services"
)

// deadSessionSignatures are matched case-insensitively against the last
// caught error message. A hit means the authenticated surface is gone even
// if the process-level connection still answers.
var deadSessionSignatures = []string{
	"invalid session id",
	"session deleted",
	"target closed",
	"browser has disconnected",
	"not connected to devtools",
	"context canceled during navigation",
	"session expired",
	"please log in again",
}

// LoginProcedure is the platform-specific part of establishing a session.
// The engines implement it; the controller owns ordering, fallback, and
// recovery semantics.
type LoginProcedure interface {
	// SubmitLogin fills and submits the login form on the current page.
	SubmitLogin(ctx context.Context, s Surface, cred credentials.Credential) error
	// SelectRole picks the required operating role when the platform offers
	// more than one. Called only when the journal configures a role.
	SelectRole(ctx context.Context, s Surface, role string) error
	// DashboardVisible reports whether the post-login dashboard is showing.
	DashboardVisible(ctx context.Context, s Surface) bool
}

// Controller owns the authenticated automation surface for one journal run:
// login, liveness probing, and crash recovery.
type Controller struct {
	journal config.Journal
	factory Factory
	creds   credentials.Provider
	proc    LoginProcedure
	policy  RetryPolicy
	probeTO time.Duration
	logger  *slog.Logger

	surface Surface
	// lastErrMsg holds the most recent caught error message for the one-shot
	// dead-session signature check. Consumed by IsAlive, never re-triggered.
	lastErrMsg string
	// consecutiveRecoveryFailures drives the skip-after-two rule.
	consecutiveRecoveryFailures int
}

// NewController wires a session controller for one journal.
func NewController(journal config.Journal, browserCfg config.Browser, retryCfg config.Retry, factory Factory, creds credentials.Provider, proc LoginProcedure, logger *slog.Logger) *Controller {
	return &Controller{
		journal: journal,
		factory: factory,
		creds:   creds,
		proc:    proc,
		policy:  PolicyFromConfig(retryCfg),
		probeTO: time.Duration(browserCfg.ProbeTimeoutSec) * time.Second,
		logger:  logging.NewComponentLogger(logger, "session"),
	}
}

// Surface returns the live automation surface. Nil before Login.
func (c *Controller) Surface() Surface {
	return c.surface
}

// NoteError records a caught error for the one-shot dead-session check.
func (c *Controller) NoteError(err error) {
	if err == nil {
		return
	}
	c.lastErrMsg = err.Error()
}

// Login establishes the authenticated surface, trying each entry URL in
// order. Exhausting every URL is fatal for the run (ErrLoginFailed).
func (c *Controller) Login(ctx context.Context) error {
	cred, err := c.creds.Get(c.journal.Code)
	if err != nil {
		return err
	}

	if c.surface == nil {
		surface, err := c.factory(ctx)
		if err != nil {
			return services.Wrap(services.ErrLoginFailed, "session", "launch surface", "", err)
		}
		c.surface = surface
	}

	var lastErr error
	for _, entryURL := range c.journal.EntryURLs {
		if err := c.loginAt(ctx, entryURL, cred); err != nil {
			lastErr = err
			c.logger.Warn("login attempt failed",
				logging.String(logging.FieldJournal, c.journal.Code),
				logging.String("entry_url", entryURL),
				logging.Error(err),
			)
			continue
		}
		c.logger.Info("login succeeded",
			logging.String(logging.FieldJournal, c.journal.Code),
			logging.String("entry_url", entryURL),
		)
		return nil
	}
	return services.Wrap(services.ErrLoginFailed, "session", "login",
		"all entry URLs exhausted for journal "+c.journal.Code, lastErr)
}

func (c *Controller) loginAt(ctx context.Context, entryURL string, cred credentials.Credential) error {
	if err := c.surface.Navigate(ctx, entryURL); err != nil {
		return err
	}
	if err := c.proc.SubmitLogin(ctx, c.surface, cred); err != nil {
		return err
	}
	if c.journal.Role != "" {
		if err := c.proc.SelectRole(ctx, c.surface, c.journal.Role); err != nil {
			return err
		}
	}
	if !c.proc.DashboardVisible(ctx, c.surface) {
		return services.Wrap(services.ErrValidation, "session", "login", "dashboard not visible after login", nil)
	}
	return nil
}

// IsAlive is the cheap liveness probe called between manuscripts. It checks
// the surface still answers within the probe timeout, then inspects the last
// caught error message against the dead-session signatures. The signature
// flag is consumed: a match reports dead exactly once.
func (c *Controller) IsAlive(ctx context.Context) bool {
	if c.surface == nil {
		return false
	}

	if msg := c.lastErrMsg; msg != "" {
		c.lastErrMsg = ""
		lower := strings.ToLower(msg)
		for _, sig := range deadSessionSignatures {
			if strings.Contains(lower, sig) {
				c.logger.Warn("dead-session signature in last error",
					logging.String("signature", sig),
					logging.String(logging.FieldEventType, "session_dead"),
				)
				return false
			}
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.probeTO)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := c.surface.CurrentURL()
		done <- err
	}()
	select {
	case <-probeCtx.Done():
		return false
	case err := <-done:
		return err == nil
	}
}

// Recover tears the surface down, rebuilds it, re-logs-in, and validates the
// dashboard, with bounded retries and exponential backoff. Returns nil on
// success; the caller tracks consecutive failures via RecoveryFailures.
func (c *Controller) Recover(ctx context.Context) error {
	err := c.policy.Do(ctx, func(attempt int) error {
		c.logger.Info("session recovery attempt",
			logging.String(logging.FieldJournal, c.journal.Code),
			logging.Int("attempt", attempt),
		)
		if c.surface != nil {
			_ = c.surface.Close()
			c.surface = nil
		}
		surface, err := c.factory(ctx)
		if err != nil {
			return err
		}
		c.surface = surface
		if err := c.Login(ctx); err != nil {
			return err
		}
		if !c.proc.DashboardVisible(ctx, c.surface) {
			return services.Wrap(services.ErrSessionDead, "session", "recover", "dashboard not visible after recovery", nil)
		}
		return nil
	})
	if err != nil {
		c.consecutiveRecoveryFailures++
		return services.Wrap(services.ErrSessionDead, "session", "recover", "recovery exhausted", err)
	}
	c.consecutiveRecoveryFailures = 0
	return nil
}

// RecoveryFailures returns the current consecutive recovery-failure count.
// Two consecutive failures mean the caller skips the current manuscript.
func (c *Controller) RecoveryFailures() int {
	return c.consecutiveRecoveryFailures
}

// Close releases the automation surface.
func (c *Controller) Close() error {
	if c.surface == nil {
		return nil
	}
	err := c.surface.Close()
	c.surface = nil
	return err
}
