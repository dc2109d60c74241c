// Package domain defines the catalog entities and the values passed between
// the filter, pagination and hydration stages.
package domain

import "time"

// CrowdLevel is how busy a beach typically is.
type CrowdLevel string

// Crowd levels.
const (
	CrowdLow      CrowdLevel = "Low"
	CrowdModerate CrowdLevel = "Moderate"
	CrowdHigh     CrowdLevel = "High"
)

// Valid reports whether c is a known crowd level.
func (c CrowdLevel) Valid() bool {
	switch c {
	case CrowdLow, CrowdModerate, CrowdHigh:
		return true
	}
	return false
}

// Accessibility is how hard a beach is to reach.
type Accessibility string

// Accessibility levels.
const (
	AccessEasy      Accessibility = "Easy"
	AccessModerate  Accessibility = "Moderate"
	AccessDifficult Accessibility = "Difficult"
)

// Valid reports whether a is a known accessibility level.
func (a Accessibility) Valid() bool {
	switch a {
	case AccessEasy, AccessModerate, AccessDifficult:
		return true
	}
	return false
}

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Beach is a catalog row. ID is a UUIDv7 string: ordering by ID descending
// lists newest beaches first and is the keyset used for pagination.
type Beach struct {
	ID               string        `json:"id"`
	Slug             string        `json:"slug"`
	Name             string        `json:"name"`
	Country          string        `json:"country"`
	Region           string        `json:"region,omitempty"`
	Coordinates      Coordinates   `json:"coordinates"`
	Description      string        `json:"description,omitempty"`
	ShortDescription string        `json:"shortDescription,omitempty"`
	CrowdLevel       CrowdLevel    `json:"crowdLevel,omitempty"`
	Accessibility    Accessibility `json:"accessibility,omitempty"`
	EntryFee         string        `json:"entryFee,omitempty"`
	Rating           float64       `json:"rating"`
	ReviewCount      int           `json:"reviewCount"`
	FetchedAt        *time.Time    `json:"fetchedAt,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Photo is an image of a beach. The first photo inserted for a beach is its
// primary photo.
type Photo struct {
	ID              string    `json:"id"`
	BeachID         string    `json:"-"`
	URL             string    `json:"url"`
	Thumbnail       string    `json:"thumbnail,omitempty"`
	Photographer    string    `json:"photographer,omitempty"`
	PhotographerURL string    `json:"photographerUrl,omitempty"`
	BlurHash        string    `json:"blurHash,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// BeachSummary is the list-view shape of a beach.
type BeachSummary struct {
	Beach
	PrimaryPhoto *Photo   `json:"primaryPhoto"`
	Vibes        []string `json:"vibes"`
	IsFavorite   bool     `json:"isFavorite"`
}

// BeachDetail is a beach with every child collection attached.
type BeachDetail struct {
	Beach
	Photos     []Photo  `json:"photos"`
	Vibes      []string `json:"vibes"`
	Activities []string `json:"activities"`
	Facilities []string `json:"facilities"`
	BestMonths []int    `json:"bestMonths"`
	IsFavorite bool     `json:"isFavorite"`
}

// DetailView is the result of a detail lookup. Beach is nil when the slug
// is unknown, in which case Similar is empty.
type DetailView struct {
	Beach   *BeachDetail   `json:"beach"`
	Similar []BeachSummary `json:"similarBeaches"`
}

// Page is one page of list results. HasMore is true exactly when
// NextCursor is non-nil.
type Page struct {
	Items      []BeachSummary `json:"beaches"`
	NextCursor *string        `json:"nextCursor"`
	HasMore    bool           `json:"hasMore"`
}

// EmptyPage returns a page with no items and no continuation.
func EmptyPage() *Page {
	return &Page{Items: []BeachSummary{}}
}

// FilterOptions lists the distinct values a caller can filter on.
type FilterOptions struct {
	Countries  []string `json:"countries"`
	Vibes      []string `json:"vibes"`
	Activities []string `json:"activities"`
}

// BeachRecord is a beach with its child collections as written by the
// ingestion commands.
type BeachRecord struct {
	Beach
	Photos     []Photo
	Activities []string
	Vibes      []string
	Facilities []string
	BestMonths []int
}
