package leboncoin

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"leboncoin-watcher/utils"
)

// Prepare walks the tab to the search results the way a visitor would:
// home page first, then the search, with pauses, consent, pointer moves and
// scrolling in between. It returns an error only when navigation fails.
func (s *Session) Prepare(ctx context.Context, searchURL string) error {
	utils.Info("Warming up on %s", s.cfg.WarmupURL)
	if err := chromedp.Run(ctx,
		navigateAndSettle(s.cfg.WarmupURL, s.cfg.NavigationTimeout),
	); err != nil {
		return fmt.Errorf("warm-up navigation: %w", err)
	}
	if err := utils.SleepContext(ctx, utils.RandomDuration(2*time.Second, 5*time.Second)); err != nil {
		return err
	}
	s.dismissCookies(ctx)

	utils.Info("Opening search page...")
	if err := chromedp.Run(ctx,
		navigateAndSettle(searchURL, s.cfg.NavigationTimeout),
	); err != nil {
		return fmt.Errorf("search navigation: %w", err)
	}

	if err := s.waitOutChallenge(ctx); err != nil {
		return err
	}
	if err := utils.SleepContext(ctx, utils.RandomDuration(3*time.Second, 6*time.Second)); err != nil {
		return err
	}
	s.dismissCookies(ctx)

	if err := s.wanderPointer(ctx); err != nil {
		utils.Warn("Pointer moves failed: %v", err)
	}
	if err := s.scrollBursts(ctx); err != nil {
		utils.Warn("Scrolling failed: %v", err)
	}
	return nil
}

// navigateAndSettle navigates and then waits for Chrome's networkIdle
// lifecycle event of that navigation, up to timeout.
func navigateAndSettle(url string, timeout time.Duration) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		idle := make(chan cdp.LoaderID, 32)
		lctx, cancel := context.WithCancel(ctx)
		defer cancel()

		chromedp.ListenTarget(lctx, func(ev interface{}) {
			if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
				select {
				case idle <- e.LoaderID:
				default:
				}
			}
		})

		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return fmt.Errorf("enable lifecycle events: %w", err)
		}

		nctx, ncancel := context.WithTimeout(ctx, timeout)
		defer ncancel()

		_, loaderID, errText, _, err := page.Navigate(url).Do(nctx)
		if err != nil {
			return fmt.Errorf("navigate %s: %w", url, err)
		}
		if errText != "" {
			return fmt.Errorf("navigate %s: %s", url, errText)
		}

		for {
			select {
			case id := <-idle:
				if id == loaderID {
					return chromedp.WaitReady("body", chromedp.ByQuery).Do(nctx)
				}
			case <-nctx.Done():
				if ctx.Err() != nil {
					return ctx.Err()
				}
				utils.Warn("Network never went idle on %s after %v, continuing", url, timeout)
				return nil
			}
		}
	}
}

// waitOutChallenge gives an operator time to solve the anti-bot wall in a
// visible browser.
func (s *Session) waitOutChallenge(ctx context.Context) error {
	html, err := s.HTML(ctx)
	if err != nil {
		return fmt.Errorf("read search page: %w", err)
	}
	if !strings.Contains(html, ChallengeMarker) {
		return nil
	}
	utils.Warn("Blocked by the anti-bot wall, solve the captcha in the browser (waiting %v)", s.cfg.ChallengeWait)
	return utils.SleepContext(ctx, s.cfg.ChallengeWait)
}

func (s *Session) dismissCookies(ctx context.Context) {
	var present bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(
		fmt.Sprintf(`!!document.querySelector(%q)`, CookieAcceptSelector), &present,
	)); err != nil || !present {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(cctx,
		chromedp.Sleep(utils.RandomDuration(500*time.Millisecond, 1500*time.Millisecond)),
		chromedp.Click(CookieAcceptSelector, chromedp.ByQuery),
	); err != nil {
		utils.Warn("Cookie banner click failed: %v", err)
		return
	}
	utils.Info("Cookie banner dismissed")
}

func (s *Session) wanderPointer(ctx context.Context) error {
	w, h := s.cfg.ViewportWidth, s.cfg.ViewportHeight
	moves := 3 + rand.Intn(5)
	for i := 0; i < moves; i++ {
		x := float64(100 + rand.Intn(max(w-200, 1)))
		y := float64(100 + rand.Intn(max(h-200, 1)))
		if err := chromedp.Run(ctx, chromedp.MouseEvent(input.MouseMoved, x, y)); err != nil {
			return err
		}
		if err := utils.SleepContext(ctx, utils.RandomDuration(150*time.Millisecond, 600*time.Millisecond)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) scrollBursts(ctx context.Context) error {
	x := float64(s.cfg.ViewportWidth / 2)
	y := float64(s.cfg.ViewportHeight / 2)
	bursts := 2 + rand.Intn(3)
	for b := 0; b < bursts; b++ {
		ticks := 3 + rand.Intn(4)
		for i := 0; i < ticks; i++ {
			dy := float64(100 + rand.Intn(300))
			// now and then scroll back up a little
			if rand.Intn(6) == 0 {
				dy = -dy / 2
			}
			if err := chromedp.Run(ctx, input.DispatchMouseEvent(input.MouseWheel, x, y).WithDeltaX(0).WithDeltaY(dy)); err != nil {
				return err
			}
			if err := utils.SleepContext(ctx, utils.RandomDuration(80*time.Millisecond, 250*time.Millisecond)); err != nil {
				return err
			}
		}
		if err := utils.SleepContext(ctx, utils.RandomDuration(time.Second, 3*time.Second)); err != nil {
			return err
		}
	}
	return nil
}
