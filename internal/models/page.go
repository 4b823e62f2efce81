package models

// MaxPageLimit caps client-requested page sizes.
const MaxPageLimit = 100

// Page selects a window of a newest-first listing. A zero Limit means the
// whole listing.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Unbounded reports whether the page selects everything.
func (p Page) Unbounded() bool {
	return p.Limit <= 0
}
