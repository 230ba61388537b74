// Package credentials resolves per-journal platform logins. The environment
// wins (VELLUM_<CODE>_USERNAME / VELLUM_<CODE>_PASSWORD, optionally loaded
// from a .env file), with the config file as fallback. A missing credential
// is fatal for that journal's run.
package credentials

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"vellum/internal/config"
	"vellum/internal/services"
)

// Credential holds one platform login pair.
type Credential struct {
	Username string
	Password string
}

// Provider resolves credentials by journal code.
type Provider interface {
	Get(journalCode string) (Credential, error)
}

// EnvProvider reads credentials from the process environment with a config
// fallback. Construct with NewEnvProvider so .env loading happens once.
type EnvProvider struct {
	cfg *config.Config
}

// NewEnvProvider loads a .env file when present (missing files are fine) and
// returns a provider backed by the environment plus config fallbacks.
func NewEnvProvider(cfg *config.Config, dotenvPath string) *EnvProvider {
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	if _, err := os.Stat(dotenvPath); err == nil {
		_ = godotenv.Load(dotenvPath)
	}
	return &EnvProvider{cfg: cfg}
}

// Get resolves the credential for journalCode.
func (p *EnvProvider) Get(journalCode string) (Credential, error) {
	code := strings.ToUpper(strings.TrimSpace(journalCode))
	if code == "" {
		return Credential{}, services.Wrap(services.ErrConfiguration, "credentials", "get", "empty journal code", nil)
	}

	cred := Credential{
		Username: strings.TrimSpace(os.Getenv(envKey(code, "USERNAME"))),
		Password: os.Getenv(envKey(code, "PASSWORD")),
	}

	if (cred.Username == "" || cred.Password == "") && p.cfg != nil {
		if j, ok := p.cfg.JournalByCode(journalCode); ok {
			if cred.Username == "" {
				cred.Username = j.Username
			}
			if cred.Password == "" {
				cred.Password = j.Password
			}
		}
	}

	if cred.Username == "" || cred.Password == "" {
		return Credential{}, services.Wrap(services.ErrConfiguration, "credentials", "get",
			fmt.Sprintf("no credential for journal %s (set %s and %s)",
				journalCode, envKey(code, "USERNAME"), envKey(code, "PASSWORD")), nil)
	}
	return cred, nil
}

func envKey(code, suffix string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, code)
	return "VELLUM_" + sanitized + "_" + suffix
}

// Static is a fixed-credential provider for tests.
type Static map[string]Credential

// Get implements Provider.
func (s Static) Get(journalCode string) (Credential, error) {
	cred, ok := s[strings.ToLower(journalCode)]
	if !ok {
		return Credential{}, services.Wrap(services.ErrConfiguration, "credentials", "get",
			"no credential for journal "+journalCode, nil)
	}
	return cred, nil
}
