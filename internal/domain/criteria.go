package domain

// Pagination bounds for list queries.
const (
	DefaultPageLimit = 12
	MaxPageLimit     = 50
)

// NearQuery restricts results to beaches within RadiusKm of a point. All
// three fields are required; there is no default radius.
type NearQuery struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
}

// Criteria is the caller-supplied filter set for a list query. Empty string
// fields are unset.
type Criteria struct {
	Country       string
	Vibe          string
	Activity      string
	CrowdLevel    CrowdLevel
	Accessibility Accessibility
	FavoritesOnly bool
	SessionID     string
	Near          *NearQuery
}

// PageRequest is a list query: criteria plus the keyset position.
type PageRequest struct {
	Criteria
	Limit  int
	Cursor string
}

// ColumnFilter holds the predicates applied directly to beach columns.
type ColumnFilter struct {
	Country       string
	CrowdLevel    CrowdLevel
	Accessibility Accessibility
}

// ColumnFilter extracts the direct column predicates from c.
func (c Criteria) ColumnFilter() ColumnFilter {
	return ColumnFilter{
		Country:       c.Country,
		CrowdLevel:    c.CrowdLevel,
		Accessibility: c.Accessibility,
	}
}
