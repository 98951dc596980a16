package models

// Listing is one classified ad seen on the search page. Price is nil when
// the page did not give one; City and ImageURL are empty when unknown.
type Listing struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    *int   `json:"price,omitempty"`
	URL      string `json:"url"`
	City     string `json:"city,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// IntPtr is a helper for building listings with a known price.
func IntPtr(v int) *int {
	return &v
}
