package leboncoin

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"leboncoin-watcher/models"
)

var (
	errNoLink  = errors.New("card has no listing link")
	errNoTitle = errors.New("card has no title")
)

// ParseCards scrapes listing cards out of rendered search-results HTML.
// At most limit cards are read; a card that cannot be read is skipped.
func ParseCards(html string, limit int) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse search page html: %w", err)
	}

	cards := doc.Find(CardSelector)
	if limit > 0 && cards.Length() > limit {
		cards = cards.Slice(0, limit)
	}

	listings := make([]models.Listing, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		listing, err := parseCard(card)
		if err != nil {
			return
		}
		listings = append(listings, listing)
	})

	return listings, nil
}

func parseCard(card *goquery.Selection) (models.Listing, error) {
	link := card.Find(CardLinkSelector).First()
	href := strings.TrimSpace(link.AttrOr("href", ""))
	id := idFromPath(href)
	if id == "" {
		return models.Listing{}, errNoLink
	}

	title := stripLeadIn(link.AttrOr("aria-label", ""))
	if title == "" {
		return models.Listing{}, errNoTitle
	}

	price := ParsePriceText(card.Find(CardPriceSelector).First().Text())

	return models.Listing{
		ID:    id,
		Title: title,
		Price: models.IntPtr(price),
		URL:   SiteOrigin + href,
		City:  strings.TrimSpace(card.Find(CardCitySelector).Last().Text()),
	}, nil
}

// ParsePriceText keeps the ASCII digits of a price label ("1 234 €" -> 1234).
// No digits, or a number too large for an int, gives 0.
func ParsePriceText(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	v, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return v
}

func idFromPath(href string) string {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	rest := strings.Trim(strings.TrimPrefix(href, AdPathPrefix), "/")
	if rest == "" || rest == strings.Trim(href, "/") {
		return ""
	}
	return path.Base(rest)
}

func stripLeadIn(label string) string {
	label = strings.TrimSpace(label)
	for _, lead := range titleLeadIns {
		if strings.HasPrefix(label, lead) {
			return strings.TrimSpace(strings.TrimPrefix(label, lead))
		}
	}
	return label
}
