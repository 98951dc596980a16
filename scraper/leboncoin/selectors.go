package leboncoin

// Site constants and CSS selectors. Kept together so a markup change on the
// site is a one-file fix.
const (
	SiteOrigin   = "https://www.leboncoin.fr"
	AdPathPrefix = "/ad/locations/"

	// Structured data embedded by the Next.js front end
	NextDataSelector = `script#__NEXT_DATA__`

	// Search results markup
	CardSelector      = `article[data-test-id="ad"]`
	CardLinkSelector  = `a[href^="/ad/locations/"]`
	CardPriceSelector = `[data-test-id="price"]`
	CardCitySelector  = `p[aria-hidden="true"]`

	// Didomi consent banner
	CookieAcceptSelector = `#didomi-notice-agree-button`

	// Text served by the anti-bot wall instead of the results page
	ChallengeMarker = "Please enable JS"
)

// Lead-ins the site puts before the title in a card's aria-label.
var titleLeadIns = []string{"Voir l’annonce: ", "Voir l'annonce: ", "Voir l’annonce : ", "Voir l'annonce : "}

// AdURL builds the public URL of a listing from its id.
func AdURL(id string) string {
	return SiteOrigin + AdPathPrefix + id
}
