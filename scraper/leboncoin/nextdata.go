package leboncoin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"leboncoin-watcher/models"
)

type nextDataDocument struct {
	Props struct {
		PageProps struct {
			SearchData struct {
				Ads []json.RawMessage `json:"ads"`
			} `json:"searchData"`
		} `json:"pageProps"`
	} `json:"props"`
}

type rawAd struct {
	ListID   json.RawMessage `json:"list_id"`
	Subject  string          `json:"subject"`
	Price    json.RawMessage `json:"price"`
	Location *struct {
		City string `json:"city"`
	} `json:"location"`
	Images *struct {
		URLs []string `json:"urls"`
	} `json:"images"`
}

// ParseNextData maps the search results of a __NEXT_DATA__ document to
// listings. Only the first limit ads of the document are considered; ads
// without an id or a subject are skipped.
func ParseNextData(data []byte, limit int) ([]models.Listing, error) {
	var doc nextDataDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode __NEXT_DATA__: %w", err)
	}

	ads := doc.Props.PageProps.SearchData.Ads
	if limit > 0 && len(ads) > limit {
		ads = ads[:limit]
	}

	listings := make([]models.Listing, 0, len(ads))
	for _, raw := range ads {
		listing, ok := mapAd(raw)
		if !ok {
			continue
		}
		listings = append(listings, listing)
	}

	return listings, nil
}

func mapAd(raw json.RawMessage) (models.Listing, bool) {
	var ad rawAd
	if err := json.Unmarshal(raw, &ad); err != nil {
		return models.Listing{}, false
	}

	id := rawID(ad.ListID)
	title := strings.TrimSpace(ad.Subject)
	if id == "" || title == "" {
		return models.Listing{}, false
	}

	listing := models.Listing{
		ID:    id,
		Title: title,
		Price: rawPrice(ad.Price),
		URL:   AdURL(id),
	}
	if ad.Location != nil {
		listing.City = strings.TrimSpace(ad.Location.City)
	}
	if ad.Images != nil && len(ad.Images.URLs) > 0 {
		listing.ImageURL = ad.Images.URLs[0]
	}

	return listing, true
}

// rawID accepts the identifier as a JSON number or string.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

// rawPrice takes the first element when the field is a list, the value
// itself when it is a scalar, nil when it is missing.
func rawPrice(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var n json.Number
	if raw[0] == '[' {
		var list []json.Number
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return nil
		}
		n = list[0]
	} else if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}

	if v, err := n.Int64(); err == nil {
		return models.IntPtr(int(v))
	}
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	return models.IntPtr(int(math.Round(f)))
}
