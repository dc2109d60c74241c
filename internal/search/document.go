package search

import "github.com/beachatlas/beachatlas-server/internal/domain"

// document is the indexed shape of a beach. The document id is the beach id.
type document struct {
	ID               string
	Slug             string
	Name             string
	Region           string
	Country          string
	ShortDescription string
	Description      string
	Vibes            []string
	Activities       []string
	Lat, Lon         float64
	Rating           float64
}

func newDocument(rec *domain.BeachRecord) document {
	return document{
		ID:               rec.ID,
		Slug:             rec.Slug,
		Name:             rec.Name,
		Region:           rec.Region,
		Country:          rec.Country,
		ShortDescription: rec.ShortDescription,
		Description:      rec.Description,
		Vibes:            rec.Vibes,
		Activities:       rec.Activities,
		Lat:              rec.Coordinates.Lat,
		Lon:              rec.Coordinates.Lon,
		Rating:           rec.Rating,
	}
}

// toMap converts the document to the lowercase field names of the mapping.
func (d document) toMap() map[string]any {
	m := map[string]any{
		"slug":     d.Slug,
		"name":     d.Name,
		"country":  d.Country,
		"location": map[string]any{"lat": d.Lat, "lon": d.Lon},
		"rating":   d.Rating,
	}
	if d.Region != "" {
		m["region"] = d.Region
	}
	if d.ShortDescription != "" {
		m["short_description"] = d.ShortDescription
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Vibes) > 0 {
		m["vibes"] = d.Vibes
	}
	if len(d.Activities) > 0 {
		m["activities"] = d.Activities
	}
	return m
}
