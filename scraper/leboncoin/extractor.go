package leboncoin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"leboncoin-watcher/models"
	"leboncoin-watcher/utils"
)

// Page is the slice of a rendered browser tab the extractor reads from.
// Session implements it on top of chromedp.
type Page interface {
	WaitAttached(ctx context.Context, selector string, timeout time.Duration) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	TextContent(ctx context.Context, selector string) (string, error)
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// Strategy is one way of reading listings off a page. An empty result with a
// nil error means the page had nothing this strategy could read.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, page Page) ([]models.Listing, error)
}

// NextDataStrategy reads the __NEXT_DATA__ JSON document.
type NextDataStrategy struct {
	Timeout time.Duration
	Limit   int
}

func (NextDataStrategy) Name() string { return "structured" }

func (s NextDataStrategy) Extract(ctx context.Context, page Page) ([]models.Listing, error) {
	if err := page.WaitAttached(ctx, NextDataSelector, s.Timeout); err != nil {
		return nil, fmt.Errorf("structured data block not found: %w", err)
	}
	text, err := page.TextContent(ctx, NextDataSelector)
	if err != nil {
		return nil, fmt.Errorf("read structured data block: %w", err)
	}
	return ParseNextData([]byte(text), s.Limit)
}

// MarkupStrategy scrapes the rendered listing cards.
type MarkupStrategy struct {
	Timeout time.Duration
	Limit   int
}

func (MarkupStrategy) Name() string { return "markup" }

func (s MarkupStrategy) Extract(ctx context.Context, page Page) ([]models.Listing, error) {
	if err := page.WaitVisible(ctx, CardSelector, s.Timeout); err != nil {
		return nil, fmt.Errorf("listing cards not found: %w", err)
	}
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	return ParseCards(html, s.Limit)
}

// Extractor runs its strategies in order; the first non-empty result wins.
type Extractor struct {
	strategies  []Strategy
	limit       int
	snapshotDir string
	now         func() time.Time
}

func NewExtractor(limit int, snapshotDir string, strategies ...Strategy) *Extractor {
	return &Extractor{
		strategies:  strategies,
		limit:       limit,
		snapshotDir: snapshotDir,
		now:         time.Now,
	}
}

// NewDefaultExtractor is the structured-first, markup-fallback extractor.
func NewDefaultExtractor(limit int, structuredTimeout, cardsTimeout time.Duration, snapshotDir string) *Extractor {
	return NewExtractor(limit, snapshotDir,
		NextDataStrategy{Timeout: structuredTimeout, Limit: limit},
		MarkupStrategy{Timeout: cardsTimeout, Limit: limit},
	)
}

// Extract never fails. When no strategy reads anything it saves a snapshot
// of the page and returns an empty slice.
func (e *Extractor) Extract(ctx context.Context, page Page) []models.Listing {
	for _, s := range e.strategies {
		listings, err := s.Extract(ctx, page)
		if err != nil {
			utils.Warn("%s extraction failed: %v", s.Name(), err)
			continue
		}
		if len(listings) == 0 {
			utils.Warn("%s extraction found no listings", s.Name())
			continue
		}
		if e.limit > 0 && len(listings) > e.limit {
			listings = listings[:e.limit]
		}
		utils.Success("%s extraction read %d listings", s.Name(), len(listings))
		return listings
	}

	utils.Error("Extraction failed on every strategy")
	e.snapshot(ctx, page)
	return []models.Listing{}
}

func (e *Extractor) snapshot(ctx context.Context, page Page) {
	if e.snapshotDir == "" {
		return
	}
	if err := os.MkdirAll(e.snapshotDir, 0o755); err != nil {
		utils.Warn("Could not create snapshot dir: %v", err)
		return
	}

	base := filepath.Join(e.snapshotDir, "extraction_failed_"+e.now().Format("20060102_150405"))

	if png, err := page.Screenshot(ctx); err != nil {
		utils.Warn("Screenshot failed: %v", err)
	} else if err := os.WriteFile(base+".png", png, 0o644); err != nil {
		utils.Warn("Could not write screenshot: %v", err)
	} else {
		utils.Info("Saved screenshot → %s.png", base)
	}

	if html, err := page.HTML(ctx); err != nil {
		utils.Warn("Page dump failed: %v", err)
	} else if err := os.WriteFile(base+".html", []byte(html), 0o644); err != nil {
		utils.Warn("Could not write page dump: %v", err)
	}
}
