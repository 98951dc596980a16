package leboncoin

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(href, label, price, city string) string {
	var b strings.Builder
	b.WriteString(`<article data-test-id="ad">`)
	if href != "" {
		fmt.Fprintf(&b, `<a href="%s" aria-label="%s"></a>`, href, label)
	}
	if price != "" {
		fmt.Fprintf(&b, `<p data-test-id="price"><span>%s</span></p>`, price)
	}
	fmt.Fprintf(&b, `<p aria-hidden="true">Meublé</p><p aria-hidden="true">%s</p>`, city)
	b.WriteString(`</article>`)
	return b.String()
}

func resultsPage(cards ...string) string {
	return "<html><body><main>" + strings.Join(cards, "") + "</main></body></html>"
}

func TestParseCardsReadsFields(t *testing.T) {
	html := resultsPage(card("/ad/locations/2712345678", "Voir l’annonce: Studio centre ville", "1 234 €", "Lyon 69003"))

	listings, err := ParseCards(html, 15)
	require.NoError(t, err)
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, "2712345678", l.ID)
	assert.Equal(t, "Studio centre ville", l.Title)
	require.NotNil(t, l.Price)
	assert.Equal(t, 1234, *l.Price)
	assert.Equal(t, "https://www.leboncoin.fr/ad/locations/2712345678", l.URL)
	assert.Equal(t, "Lyon 69003", l.City)
	assert.Empty(t, l.ImageURL)
}

func TestParseCardsPriceWithoutDigitsIsZero(t *testing.T) {
	listings, err := ParseCards(resultsPage(
		card("/ad/locations/1", "Voir l’annonce: A", "Prix sur demande", "Paris"),
		card("/ad/locations/2", "Voir l’annonce: B", "", "Paris"),
	), 15)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, 0, *listings[0].Price)
	assert.Equal(t, 0, *listings[1].Price)
}

func TestParseCardsSkipsUnreadableCards(t *testing.T) {
	listings, err := ParseCards(resultsPage(
		card("", "", "500 €", "Nantes"),
		card("/ad/locations/5", "", "500 €", "Nantes"),
		card("/ad/locations/", "Voir l’annonce: no id", "500 €", "Nantes"),
		card("/ad/locations/6?utm=x", "Voir l'annonce: Loft", "700 €", "Nantes"),
	), 15)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "6", listings[0].ID)
	assert.Equal(t, "Loft", listings[0].Title)
}

func TestParseCardsBoundsToLimit(t *testing.T) {
	cards := make([]string, 0, 20)
	for i := 1; i <= 20; i++ {
		cards = append(cards, card(fmt.Sprintf("/ad/locations/%d", i), fmt.Sprintf("Voir l’annonce: Annonce %d", i), "100 €", "Lille"))
	}

	listings, err := ParseCards(resultsPage(cards...), 15)
	require.NoError(t, err)
	require.Len(t, listings, 15)
	assert.Equal(t, "1", listings[0].ID)
	assert.Equal(t, "15", listings[14].ID)
}

func TestParsePriceText(t *testing.T) {
	assert.Equal(t, 1234, ParsePriceText("1 234 €"))
	assert.Equal(t, 1234, ParsePriceText("1 234 €"))
	assert.Equal(t, 950, ParsePriceText("950 € CC"))
	assert.Equal(t, 0, ParsePriceText("€"))
	assert.Equal(t, 0, ParsePriceText(""))
	assert.Equal(t, 0, ParsePriceText("99999999999999999999999"))
}
