// Package sites holds the static reference list of tourist sites loaded once
// at startup.
package sites

import "strings"

// Category classifies a site.
type Category string

const (
	Viewpoint  Category = "viewpoint"
	Waterfall  Category = "waterfall"
	Wildlife   Category = "wildlife"
	Pilgrimage Category = "pilgrimage"
)

// Site is an immutable point of interest.
type Site struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Latitude    float64  `json:"lat"`
	Longitude   float64  `json:"lng"`
	Category    Category `json:"type"`
	Description string   `json:"desc"`
}

// Catalog is a read-only, ordered list of sites.
type Catalog struct {
	sites []Site
}

// NewCatalog copies sites into a catalog.
func NewCatalog(sites []Site) *Catalog {
	return &Catalog{sites: append([]Site(nil), sites...)}
}

// Default returns the built-in Jharkhand catalog.
func Default() *Catalog {
	return NewCatalog([]Site{
		{ID: "netarhat", Name: "Netarhat", Latitude: 23.129, Longitude: 84.372, Category: Viewpoint, Description: "Sunset viewpoint, forests and hills"},
		{ID: "hundru", Name: "Hundru Falls", Latitude: 23.430, Longitude: 85.302, Category: Waterfall, Description: "Tall scenic waterfall near Ranchi"},
		{ID: "betla", Name: "Betla National Park", Latitude: 24.007, Longitude: 84.006, Category: Wildlife, Description: "Rich biodiversity and wildlife safaris"},
		{ID: "deoghar", Name: "Deoghar", Latitude: 24.486, Longitude: 86.695, Category: Pilgrimage, Description: "Famous Baidyanath temple and devotional sites"},
	})
}

// All returns a copy of every site in catalog order.
func (c *Catalog) All() []Site {
	return append([]Site(nil), c.sites...)
}

// Get returns the site with the given id.
func (c *Catalog) Get(id string) (Site, bool) {
	for _, s := range c.sites {
		if s.ID == id {
			return s, true
		}
	}
	return Site{}, false
}

// Mentioned returns the first site, in catalog order, whose lower-cased name
// or id occurs in text. text is expected to be lower-cased already.
func (c *Catalog) Mentioned(text string) (Site, bool) {
	for _, s := range c.sites {
		if strings.Contains(text, strings.ToLower(s.Name)) || strings.Contains(text, s.ID) {
			return s, true
		}
	}
	return Site{}, false
}
