package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"vellum/internal/config"
	"vellum/internal/services"
)

// rodSurface adapts a rod page to the Surface interface. The embedded page is
// the current context; frames and popups are separate rodSurface values
// sharing the browser handle.
type rodSurface struct {
	browser *rod.Browser
	page    *rod.Page
	cfg     config.Browser
	// ownsBrowser is true only for the root surface; frame and popup
	// surfaces must not tear the browser down on Close.
	ownsBrowser bool
}

// NewRodFactory returns a Factory launching a Chromium instance per the
// browser configuration. Launch failures fall back to a default launcher
// before giving up.
func NewRodFactory(cfg config.Browser) Factory {
	return func(ctx context.Context) (Surface, error) {
		launch := launcher.New().Headless(cfg.Headless)
		if cfg.Binary != "" {
			launch = launch.Bin(cfg.Binary)
		}
		controlURL, err := launch.Launch()
		if err != nil {
			fallback := launcher.New().Headless(cfg.Headless)
			alt, altErr := fallback.Launch()
			if altErr != nil {
				return nil, fmt.Errorf("launch browser: %w (fallback: %v)", err, altErr)
			}
			controlURL = alt
		}

		browser := rod.New().ControlURL(controlURL).Context(ctx)
		if err := browser.Connect(); err != nil {
			return nil, fmt.Errorf("connect to browser: %w", err)
		}

		page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			_ = browser.Close()
			return nil, fmt.Errorf("create page: %w", err)
		}

		if err := (proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.ViewportWidth,
			Height:            cfg.ViewportHeight,
			DeviceScaleFactor: 1.0,
			Mobile:            false,
		}).Call(page); err != nil {
			// Non-fatal: scraping tolerates the default viewport.
			_ = err
		}

		return &rodSurface{browser: browser, page: page, cfg: cfg, ownsBrowser: true}, nil
	}
}

func (s *rodSurface) navTimeout() time.Duration {
	return time.Duration(s.cfg.NavTimeoutSec) * time.Second
}

func (s *rodSurface) waitTimeout() time.Duration {
	return time.Duration(s.cfg.WaitTimeoutSec) * time.Second
}

func (s *rodSurface) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx).Timeout(s.navTimeout())
	if err := page.Navigate(url); err != nil {
		return services.Wrap(services.ErrTransient, "surface", "navigate", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return services.Wrap(services.ErrTimeout, "surface", "wait load", url, err)
	}
	return nil
}

func (s *rodSurface) CurrentURL() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (s *rodSurface) Find(ctx context.Context, selector string) (Element, error) {
	el, err := s.page.Context(ctx).Timeout(s.waitTimeout()).Element(selector)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "surface", "find", selector, err)
	}
	return rodElement{el: el}, nil
}

func (s *rodSurface) FindAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := s.page.Context(ctx).Timeout(s.waitTimeout()).Elements(selector)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "surface", "find all", selector, err)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, rodElement{el: el})
	}
	return out, nil
}

func (s *rodSurface) Click(ctx context.Context, selector string) error {
	el, err := s.page.Context(ctx).Timeout(s.waitTimeout()).Element(selector)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "surface", "click", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodSurface) TypeInto(ctx context.Context, selector, text string) error {
	el, err := s.page.Context(ctx).Timeout(s.waitTimeout()).Element(selector)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "surface", "type into", selector, err)
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	return el.Input(text)
}

func (s *rodSurface) ExecScript(ctx context.Context, js string) (string, error) {
	res, err := s.page.Context(ctx).Timeout(s.waitTimeout()).Eval(js)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "surface", "exec script", "", err)
	}
	return res.Value.String(), nil
}

func (s *rodSurface) PageSnapshot(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).Timeout(s.waitTimeout()).HTML()
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "surface", "page snapshot", "", err)
	}
	return html, nil
}

func (s *rodSurface) WaitFor(ctx context.Context, selector string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = s.waitTimeout()
	}
	_, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	return err == nil
}

func (s *rodSurface) EnterFrame(ctx context.Context, selector string) (Surface, func(), error) {
	el, err := s.page.Context(ctx).Timeout(s.waitTimeout()).Element(selector)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrNotFound, "surface", "enter frame", selector, err)
	}
	frame, err := el.Frame()
	if err != nil {
		return nil, nil, services.Wrap(services.ErrTransient, "surface", "enter frame", selector, err)
	}
	sub := &rodSurface{browser: s.browser, page: frame, cfg: s.cfg}
	// Frames share the parent page; restoration is simply resuming use of
	// the parent surface, so release has nothing to tear down.
	return sub, func() {}, nil
}

func (s *rodSurface) LatestWindow(ctx context.Context) (Surface, func(), error) {
	pages, err := s.browser.Pages()
	if err != nil {
		return nil, nil, services.Wrap(services.ErrTransient, "surface", "latest window", "", err)
	}
	if len(pages) < 2 {
		return nil, nil, services.Wrap(services.ErrNotFound, "surface", "latest window", "no popup window open", nil)
	}
	popup := pages[len(pages)-1]
	if popup.TargetID == s.page.TargetID {
		popup = pages[0]
	}
	sub := &rodSurface{browser: s.browser, page: popup, cfg: s.cfg}
	release := func() {
		_ = popup.Close()
	}
	return sub, release, nil
}

func (s *rodSurface) Close() error {
	if !s.ownsBrowser {
		return nil
	}
	_ = s.page.Close()
	return s.browser.Close()
}

type rodElement struct {
	el *rod.Element
}

func (e rodElement) Text() (string, error) { return e.el.Text() }

func (e rodElement) Attr(name string) (string, error) {
	val, err := e.el.Attribute(name)
	if err != nil || val == nil {
		return "", err
	}
	return *val, nil
}

func (e rodElement) HTML() (string, error) { return e.el.HTML() }

func (e rodElement) Click() error { return e.el.Click(proto.InputMouseButtonLeft, 1) }

func (e rodElement) Input(text string) error { return e.el.Input(text) }
