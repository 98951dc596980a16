package leboncoin

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"leboncoin-watcher/config"
	"leboncoin-watcher/utils"
)

// Session is one browser process bound to the persistent profile, with a
// single tab. It lives for one scan cycle.
type Session struct {
	cfg         *config.Config
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
}

// OpenSession clears stale profile locks and launches Chrome.
func OpenSession(parent context.Context, cfg *config.Config) (*Session, error) {
	if err := utils.ClearProfileLock(cfg.UserDataDir); err != nil {
		return nil, fmt.Errorf("prepare browser profile: %w", err)
	}

	utils.Info("Launching Chrome (headless=%v, profile=%s)...", cfg.Headless, cfg.UserDataDir)
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, utils.StealthOpts(utils.StealthOptions{
		Headless:    cfg.Headless,
		UserAgent:   cfg.UserAgent,
		Width:       cfg.ViewportWidth,
		Height:      cfg.ViewportHeight,
		UserDataDir: cfg.UserDataDir,
	})...)

	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}),
		chromedp.WithErrorf(func(format string, a ...interface{}) {
			utils.Warn("chromedp: "+format, a...)
		}),
	)

	// Starts the browser, attaches to the first tab and installs the
	// stealth patch before any navigation.
	if err := chromedp.Run(tabCtx, utils.HideWebDriver()); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	utils.Success("Browser ready")
	return &Session{
		cfg:         cfg,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
	}, nil
}

// Context is the chromedp context of the session's tab. Contexts passed to
// the Page methods must derive from it.
func (s *Session) Context() context.Context {
	return s.tabCtx
}

// Close shuts Chrome down so the profile is released for the next cycle.
func (s *Session) Close() {
	utils.Info("Closing browser...")
	if err := chromedp.Cancel(s.tabCtx); err != nil {
		utils.Warn("Graceful browser shutdown failed: %v", err)
	}
	s.tabCancel()
	s.allocCancel()
}

func (s *Session) WaitAttached(ctx context.Context, selector string, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chromedp.Run(wctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chromedp.Run(wctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *Session) TextContent(ctx context.Context, selector string) (string, error) {
	var text string
	err := chromedp.Run(ctx, chromedp.TextContent(selector, &text, chromedp.ByQuery))
	return text, err
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// quality 100 gives a PNG
	err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 100))
	return buf, err
}
