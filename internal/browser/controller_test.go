package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"vellum/internal/config"
	"vellum/internal/credentials"
	"vellum/internal/logging"
	"vellum/internal/services"
)

type fakeSurface struct {
	navigated []string
	navErrs   map[string]error
	urlErr    error
	closed    bool
}

func (f *fakeSurface) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	if err, ok := f.navErrs[url]; ok {
		return err
	}
	return nil
}

func (f *fakeSurface) CurrentURL() (string, error) {
	if f.urlErr != nil {
		return "", f.urlErr
	}
	if len(f.navigated) == 0 {
		return "about:blank", nil
	}
	return f.navigated[len(f.navigated)-1], nil
}

func (f *fakeSurface) Find(context.Context, string) (Element, error)      { return nil, nil }
func (f *fakeSurface) FindAll(context.Context, string) ([]Element, error) { return nil, nil }
func (f *fakeSurface) Click(context.Context, string) error                { return nil }
func (f *fakeSurface) TypeInto(context.Context, string, string) error     { return nil }
func (f *fakeSurface) ExecScript(context.Context, string) (string, error) { return "", nil }
func (f *fakeSurface) PageSnapshot(context.Context) (string, error)       { return "", nil }
func (f *fakeSurface) WaitFor(context.Context, string, time.Duration) bool {
	return true
}

func (f *fakeSurface) EnterFrame(context.Context, string) (Surface, func(), error) {
	return f, func() {}, nil
}

func (f *fakeSurface) LatestWindow(context.Context) (Surface, func(), error) {
	return f, func() {}, nil
}

func (f *fakeSurface) Close() error {
	f.closed = true
	return nil
}

type fakeProcedure struct {
	loginErrs     []error
	loginCalls    int
	rolesSelected []string
	dashboard     bool
}

func (p *fakeProcedure) SubmitLogin(_ context.Context, _ Surface, _ credentials.Credential) error {
	call := p.loginCalls
	p.loginCalls++
	if call < len(p.loginErrs) {
		return p.loginErrs[call]
	}
	return nil
}

func (p *fakeProcedure) SelectRole(_ context.Context, _ Surface, role string) error {
	p.rolesSelected = append(p.rolesSelected, role)
	return nil
}

func (p *fakeProcedure) DashboardVisible(context.Context, Surface) bool {
	return p.dashboard
}

func testJournal() config.Journal {
	return config.Journal{
		Code:      "jost",
		Name:      "Journal of Substantial Testing",
		Platform:  config.PlatformEditorialManager,
		EntryURLs: []string{"https://primary.example/login", "https://backup.example/login"},
		Role:      "Managing Editor",
	}
}

func newTestController(t *testing.T, surface *fakeSurface, proc *fakeProcedure) *Controller {
	t.Helper()
	creds := credentials.Static{"jost": {Username: "ed", Password: "pw"}}
	factory := func(context.Context) (Surface, error) { return surface, nil }
	retry := config.Retry{MaxAttempts: 2, BaseDelaySec: 0, BackoffFactor: 1}
	browserCfg := config.Browser{ProbeTimeoutSec: 2}
	return NewController(testJournal(), browserCfg, retry, factory, creds, proc, logging.NewNop())
}

func TestLoginUsesPrimaryEntryURL(t *testing.T) {
	surface := &fakeSurface{}
	proc := &fakeProcedure{dashboard: true}
	ctrl := newTestController(t, surface, proc)

	if err := ctrl.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if len(surface.navigated) != 1 || surface.navigated[0] != "https://primary.example/login" {
		t.Fatalf("navigated = %v, want primary entry URL only", surface.navigated)
	}
	if got := proc.rolesSelected; len(got) != 1 || got[0] != "Managing Editor" {
		t.Fatalf("rolesSelected = %v", got)
	}
}

func TestLoginFallsBackToSecondEntryURL(t *testing.T) {
	surface := &fakeSurface{
		navErrs: map[string]error{"https://primary.example/login": errors.New("connection refused")},
	}
	proc := &fakeProcedure{dashboard: true}
	ctrl := newTestController(t, surface, proc)

	if err := ctrl.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	want := []string{"https://primary.example/login", "https://backup.example/login"}
	if len(surface.navigated) != 2 || surface.navigated[0] != want[0] || surface.navigated[1] != want[1] {
		t.Fatalf("navigated = %v, want %v", surface.navigated, want)
	}
}

func TestLoginExhaustionIsFatal(t *testing.T) {
	surface := &fakeSurface{
		navErrs: map[string]error{
			"https://primary.example/login": errors.New("refused"),
			"https://backup.example/login":  errors.New("refused"),
		},
	}
	ctrl := newTestController(t, surface, &fakeProcedure{dashboard: true})

	err := ctrl.Login(context.Background())
	if !errors.Is(err, services.ErrLoginFailed) {
		t.Fatalf("Login() error = %v, want ErrLoginFailed", err)
	}
}

func TestLoginRejectsMissingDashboard(t *testing.T) {
	surface := &fakeSurface{}
	ctrl := newTestController(t, surface, &fakeProcedure{dashboard: false})

	err := ctrl.Login(context.Background())
	if !errors.Is(err, services.ErrLoginFailed) {
		t.Fatalf("Login() error = %v, want ErrLoginFailed after exhausting URLs", err)
	}
}

func TestIsAliveHealthySurface(t *testing.T) {
	surface := &fakeSurface{}
	proc := &fakeProcedure{dashboard: true}
	ctrl := newTestController(t, surface, proc)
	if err := ctrl.Login(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !ctrl.IsAlive(context.Background()) {
		t.Fatal("IsAlive() = false for a healthy surface")
	}
}

func TestIsAliveConsumesDeadSessionSignatureOnce(t *testing.T) {
	surface := &fakeSurface{}
	proc := &fakeProcedure{dashboard: true}
	ctrl := newTestController(t, surface, proc)
	if err := ctrl.Login(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctrl.NoteError(errors.New("navigation failed: invalid session id (session deleted)"))
	if ctrl.IsAlive(context.Background()) {
		t.Fatal("IsAlive() = true despite dead-session signature")
	}
	// Signature consumed; the probe still answers, so the next check passes.
	if !ctrl.IsAlive(context.Background()) {
		t.Fatal("IsAlive() = false on second check, signature not consumed")
	}
}

func TestIsAliveIgnoresBenignErrors(t *testing.T) {
	surface := &fakeSurface{}
	proc := &fakeProcedure{dashboard: true}
	ctrl := newTestController(t, surface, proc)
	if err := ctrl.Login(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctrl.NoteError(errors.New("element not found: #results-table"))
	if !ctrl.IsAlive(context.Background()) {
		t.Fatal("IsAlive() = false for a benign caught error")
	}
}

func TestRecoverRebuildsSurfaceAndReLogsIn(t *testing.T) {
	old := &fakeSurface{}
	fresh := &fakeSurface{}
	proc := &fakeProcedure{dashboard: true}
	creds := credentials.Static{"jost": {Username: "ed", Password: "pw"}}

	surfaces := []*fakeSurface{old, fresh}
	factory := func(context.Context) (Surface, error) {
		s := surfaces[0]
		if len(surfaces) > 1 {
			surfaces = surfaces[1:]
		}
		return s, nil
	}
	retry := config.Retry{MaxAttempts: 2, BaseDelaySec: 0, BackoffFactor: 1}
	ctrl := NewController(testJournal(), config.Browser{ProbeTimeoutSec: 2}, retry, factory, creds, proc, logging.NewNop())

	if err := ctrl.Login(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Recover(context.Background()); err != nil {
		t.Fatalf("Recover() error = %v", err)
	}
	if !old.closed {
		t.Fatal("old surface not closed during recovery")
	}
	if ctrl.Surface() != Surface(fresh) {
		t.Fatal("controller not holding the rebuilt surface")
	}
	if ctrl.RecoveryFailures() != 0 {
		t.Fatalf("RecoveryFailures() = %d after success", ctrl.RecoveryFailures())
	}
}

func TestRecoverExhaustionCountsFailure(t *testing.T) {
	factory := func(context.Context) (Surface, error) {
		return nil, errors.New("launch failed")
	}
	creds := credentials.Static{"jost": {Username: "ed", Password: "pw"}}
	retry := config.Retry{MaxAttempts: 2, BaseDelaySec: 0, BackoffFactor: 1}
	ctrl := NewController(testJournal(), config.Browser{ProbeTimeoutSec: 2}, retry, factory, creds, &fakeProcedure{}, logging.NewNop())

	err := ctrl.Recover(context.Background())
	if !errors.Is(err, services.ErrSessionDead) {
		t.Fatalf("Recover() error = %v, want ErrSessionDead", err)
	}
	if ctrl.RecoveryFailures() != 1 {
		t.Fatalf("RecoveryFailures() = %d, want 1", ctrl.RecoveryFailures())
	}
	if err := ctrl.Recover(context.Background()); err == nil {
		t.Fatal("Recover() succeeded unexpectedly")
	}
	if ctrl.RecoveryFailures() != 2 {
		t.Fatalf("RecoveryFailures() = %d, want 2", ctrl.RecoveryFailures())
	}
}
