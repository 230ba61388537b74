package scrape

import (
	"context"
	"strings"
	"time"

	"vellum/internal/browser"
	"vellum/internal/credentials"
	"vellum/internal/services"
)

// loginProc implements the platform half of the login handshake from profile
// selectors alone. Both platform families use the same form shape: username
// field, password field, submit control, optional role chooser.
type loginProc struct {
	profile PlatformProfile
	wait    time.Duration
}

func (p loginProc) SubmitLogin(ctx context.Context, s browser.Surface, cred credentials.Credential) error {
	if !s.WaitFor(ctx, p.profile.LoginUserSelector, p.wait) {
		return services.Wrap(services.ErrNotFound, "login", "locate form", "username field never appeared", nil)
	}
	if err := s.TypeInto(ctx, p.profile.LoginUserSelector, cred.Username); err != nil {
		return err
	}
	if err := s.TypeInto(ctx, p.profile.LoginPassSelector, cred.Password); err != nil {
		return err
	}
	return s.Click(ctx, p.profile.LoginSubmitSelector)
}

// SelectRole clicks the role option whose text contains the configured role,
// case-insensitively. Some accounts land straight on the dashboard; a missing
// chooser is not an error.
func (p loginProc) SelectRole(ctx context.Context, s browser.Surface, role string) error {
	if p.profile.RoleOptionSelector == "" {
		return nil
	}
	if !s.WaitFor(ctx, p.profile.RoleOptionSelector, p.wait) {
		return nil
	}
	options, err := s.FindAll(ctx, p.profile.RoleOptionSelector)
	if err != nil {
		return err
	}
	want := strings.ToLower(role)
	for _, opt := range options {
		text, err := opt.Text()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(text), want) {
			return opt.Click()
		}
	}
	return services.Wrap(services.ErrLoginFailed, "login", "select role", "no option matched "+role, nil)
}

func (p loginProc) DashboardVisible(ctx context.Context, s browser.Surface) bool {
	return s.WaitFor(ctx, p.profile.DashboardSelector, p.wait)
}
