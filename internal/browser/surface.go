package browser

import (
	"context"
	"time"
)

// Element is one located node on the automation surface.
type Element interface {
	Text() (string, error)
	Attr(name string) (string, error)
	HTML() (string, error)
	Click() error
	Input(text string) error
}

// Surface is the technology-agnostic automation surface the engines drive.
// One Surface owns one current page/frame; it is inherently stateful and must
// be used serially. Every blocking call is timeout-bounded by the
// implementation; on timeout the caller gets an error, never a hang.
type Surface interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL() (string, error)
	Find(ctx context.Context, selector string) (Element, error)
	FindAll(ctx context.Context, selector string) ([]Element, error)
	Click(ctx context.Context, selector string) error
	TypeInto(ctx context.Context, selector, text string) error
	ExecScript(ctx context.Context, js string) (string, error)
	// PageSnapshot returns the current document HTML for static parsing.
	PageSnapshot(ctx context.Context) (string, error)
	// WaitFor blocks until selector appears or the timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) bool

	// EnterFrame scopes into an iframe. The returned release function
	// restores the prior context and must run on every exit path.
	EnterFrame(ctx context.Context, selector string) (Surface, func(), error)
	// LatestWindow scopes into the most recently opened window/popup. The
	// release function closes the popup and restores the opener.
	LatestWindow(ctx context.Context) (Surface, func(), error)

	Close() error
}

// Factory builds a fresh Surface. The session controller calls it once at
// login and again on every recovery.
type Factory func(ctx context.Context) (Surface, error)

// WithFrame runs fn inside the iframe at selector, guaranteeing the prior
// context is restored on all exit paths, including panics in fn.
func WithFrame(ctx context.Context, s Surface, selector string, fn func(Surface) error) error {
	frame, release, err := s.EnterFrame(ctx, selector)
	if err != nil {
		return err
	}
	defer release()
	return fn(frame)
}

// WithPopup clicks trigger, then runs fn inside the newest window. The popup
// is closed and the opener restored on all exit paths.
func WithPopup(ctx context.Context, s Surface, trigger string, fn func(Surface) error) error {
	if err := s.Click(ctx, trigger); err != nil {
		return err
	}
	popup, release, err := s.LatestWindow(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(popup)
}
