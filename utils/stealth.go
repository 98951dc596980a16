package utils

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Files Chrome leaves in a profile directory while it owns it. A crashed
// browser leaves them behind and the next launch refuses the profile.
var profileLockFiles = []string{"SingletonLock", "SingletonSocket", "SingletonCookie"}

// StealthOptions describes the persistent browser profile to launch.
type StealthOptions struct {
	Headless    bool
	UserAgent   string
	Width       int
	Height      int
	UserDataDir string
}

// StealthOpts returns ChromeDP launch options that hide automation.
//
// Key flags:
//   - disable-blink-features=AutomationControlled → removes navigator.webdriver flag
//   - headless=new → Chrome's newer headless mode, only when asked for
//   - user-data-dir → cookies and consent survive between scans
func StealthOpts(o StealthOptions) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(o.Width, o.Height),
		chromedp.UserAgent(o.UserAgent),
		chromedp.UserDataDir(o.UserDataDir),
	}

	if o.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"), chromedp.Flag("disable-gpu", true))
	}

	return opts
}

// ClearProfileLock removes stale singleton files from a Chrome profile
// directory. A missing directory or missing files are not errors.
func ClearProfileLock(dir string) error {
	for _, name := range profileLockFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Lstat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale lock %s: %w", p, err)
		}
		Warn("Removed stale profile lock %s", p)
	}
	return nil
}

// StealthScript patches the JS properties anti-bot scripts look for.
const StealthScript = `
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
	Object.defineProperty(navigator, 'languages', { get: () => ['fr-FR', 'fr', 'en-US', 'en'] });
`

// HideWebDriver registers StealthScript to run in every new document before
// the page's own scripts, so it must be run once before the first navigation.
func HideWebDriver() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(StealthScript).Do(ctx)
		return err
	})
}
