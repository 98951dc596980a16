package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leboncoin-watcher/config"
	"leboncoin-watcher/models"
	"leboncoin-watcher/scraper/leboncoin"
	"leboncoin-watcher/storage"
	"leboncoin-watcher/utils"
)

// BrowserSession is a browser tab scoped to one scan cycle.
type BrowserSession interface {
	leboncoin.Page
	Context() context.Context
	Prepare(ctx context.Context, searchURL string) error
	Close()
}

type SessionOpener func(ctx context.Context, cfg *config.Config) (BrowserSession, error)

type ListingExtractor interface {
	Extract(ctx context.Context, page leboncoin.Page) []models.Listing
}

type Notifier interface {
	Notify(ctx context.Context, l models.Listing) error
}

type SeenStore interface {
	Load() storage.SeenSet
	Save(storage.SeenSet) error
}

// ChromeSessions opens real chromedp sessions.
func ChromeSessions(ctx context.Context, cfg *config.Config) (BrowserSession, error) {
	s, err := leboncoin.OpenSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Poller runs scan cycles forever with a random rest between them.
type Poller struct {
	cfg       *config.Config
	open      SessionOpener
	extractor ListingExtractor
	notifier  Notifier
	store     SeenStore

	sleep func(ctx context.Context, d time.Duration) error
}

func NewPoller(cfg *config.Config, open SessionOpener, extractor ListingExtractor, notifier Notifier, store SeenStore) *Poller {
	return &Poller{
		cfg:       cfg,
		open:      open,
		extractor: extractor,
		notifier:  notifier,
		store:     store,
		sleep:     utils.SleepContext,
	}
}

// NewListings keeps the listings whose id is not in seen, in their original
// order. An id repeated on the page is only kept once.
func NewListings(listings []models.Listing, seen storage.SeenSet) []models.Listing {
	fresh := make([]models.Listing, 0, len(listings))
	batch := make(map[string]bool, len(listings))
	for _, l := range listings {
		if seen.Has(l.ID) || batch[l.ID] {
			continue
		}
		batch[l.ID] = true
		fresh = append(fresh, l)
	}
	return fresh
}

// ScanCycle runs one browse → extract → diff → notify → persist pass and
// returns how many listings were dispatched.
//
// Ids are marked seen once their notification was attempted, whatever the
// outcome. The seen set is only written when something was dispatched; an
// error before that point leaves the file untouched.
func (p *Poller) ScanCycle(ctx context.Context) (int, error) {
	if err := p.cfg.Validate(); err != nil {
		return 0, err
	}

	seen := p.store.Load()
	utils.Info("Loaded %d seen listings", len(seen))

	sess, err := p.open(ctx, p.cfg)
	if err != nil {
		return 0, fmt.Errorf("open browser session: %w", err)
	}
	defer sess.Close()

	bctx := sess.Context()
	if err := sess.Prepare(bctx, p.cfg.SearchURL); err != nil {
		return 0, err
	}

	listings := p.extractor.Extract(bctx, sess)
	fresh := NewListings(listings, seen)
	if len(fresh) == 0 {
		utils.Info("😴 Nothing new (%d listings on the page)", len(listings))
		return 0, nil
	}

	utils.Success("✅ %d new listings found", len(fresh))

	dispatched := 0
	// oldest first: the page lists the newest ads on top
	for i := len(fresh) - 1; i >= 0; i-- {
		l := fresh[i]
		if err := p.notifier.Notify(ctx, l); err != nil {
			utils.Error("❌ Notification failed for %s: %v", l.ID, err)
		}
		seen.Add(l.ID)
		dispatched++

		if i == 0 {
			break
		}
		pause := utils.RandomDuration(p.cfg.MinNotifyPause, p.cfg.MaxNotifyPause)
		if err := p.sleep(ctx, pause); err != nil {
			utils.Warn("Interrupted after %d of %d notifications", dispatched, len(fresh))
			break
		}
	}

	if err := p.store.Save(seen); err != nil {
		return dispatched, fmt.Errorf("save seen set: %w", err)
	}
	utils.Info("Seen set saved (%d ids)", len(seen))
	return dispatched, nil
}

// Run loops until ctx is cancelled. No cycle failure stops the loop.
func (p *Poller) Run(ctx context.Context) {
	for scan := 1; ; scan++ {
		utils.Section(fmt.Sprintf("Scan #%d", scan))
		p.runCycle(ctx)

		if ctx.Err() != nil {
			utils.Info("Shutting down")
			return
		}

		wait := utils.RandomDuration(p.cfg.MinInterval, p.cfg.MaxInterval)
		utils.Info("💤 Resting, next check in %d minutes", int(wait.Minutes()))
		if err := p.sleep(ctx, wait); err != nil {
			utils.Info("Shutting down")
			return
		}
	}
}

func (p *Poller) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			utils.Error("⚠️ Critical error: %v", r)
		}
	}()

	_, err := p.ScanCycle(ctx)
	switch {
	case err == nil:
	case errors.Is(err, config.ErrMissingSetting):
		utils.Error("Configuration incomplete, check .env: %v", err)
	case errors.Is(err, context.Canceled):
		utils.Warn("Scan interrupted")
	default:
		utils.Error("❌ Scan failed: %v", err)
	}
}
