// Package ingest holds the offline jobs that populate the catalog: seeding
// from a beach file, fetching beaches from OpenStreetMap, backfilling
// photos, syncing uploaded assets and removing placeholder entries.
package ingest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	"github.com/beachatlas/beachatlas-server/internal/util"
)

// PhotoData is a photo as it appears in a beach file.
type PhotoData struct {
	URL             string `json:"url"`
	Thumbnail       string `json:"thumbnail,omitempty"`
	Photographer    string `json:"photographer,omitempty"`
	PhotographerURL string `json:"photographerUrl,omitempty"`
	BlurHash        string `json:"blurHash,omitempty"`
}

// BeachData is one beach in a beach file. ID doubles as the slug.
type BeachData struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Country          string             `json:"country"`
	Region           string             `json:"region,omitempty"`
	Coordinates      domain.Coordinates `json:"coordinates"`
	Photos           []PhotoData        `json:"photos"`
	Description      string             `json:"description,omitempty"`
	ShortDescription string             `json:"shortDescription,omitempty"`
	Vibes            []string           `json:"vibes"`
	Activities       []string           `json:"activities"`
	Facilities       []string           `json:"facilities"`
	BestMonths       []int              `json:"bestMonths"`
	CrowdLevel       string             `json:"crowdLevel,omitempty"`
	Accessibility    string             `json:"accessibility,omitempty"`
	EntryFee         string             `json:"entryFee,omitempty"`
	Wikipedia        string             `json:"wikipedia,omitempty"`
	Website          string             `json:"website,omitempty"`
	OSMID            int64              `json:"osmId,omitempty"`
	FetchedAt        *time.Time         `json:"fetchedAt,omitempty"`
}

// Metadata describes a generated beach database file.
type Metadata struct {
	GeneratedAt  string `json:"generatedAt"`
	TotalBeaches int    `json:"totalBeaches"`
	Errors       int    `json:"errors"`
	Tone         string `json:"tone,omitempty"`
	DataEnhanced bool   `json:"dataEnhanced"`
	Version      string `json:"version"`
}

// BeachFile is the beach-database.json layout.
type BeachFile struct {
	Metadata *Metadata   `json:"metadata,omitempty"`
	Beaches  []BeachData `json:"beaches"`
}

// ReadBeachFile loads beaches from path. Both the beach-database.json
// object layout and the bare array written by the OSM fetcher are accepted.
func ReadBeachFile(path string) (*BeachFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read beach file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var beaches []BeachData
		if err := json.Unmarshal(trimmed, &beaches); err != nil {
			return nil, fmt.Errorf("parse beach file %s: %w", path, err)
		}
		return &BeachFile{Beaches: beaches}, nil
	}

	var file BeachFile
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return nil, fmt.Errorf("parse beach file %s: %w", path, err)
	}
	return &file, nil
}

// WriteBeachFile writes beaches to path as an indented JSON array.
func WriteBeachFile(path string, beaches []BeachData) error {
	if beaches == nil {
		beaches = []BeachData{}
	}
	data, err := json.MarshalIndent(beaches, "", "  ")
	if err != nil {
		return fmt.Errorf("encode beaches: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write beach file: %w", err)
	}
	return nil
}

// Slug returns the beach's slug: its ID, or the slugified name when the
// file carries no ID.
func (d *BeachData) Slug() string {
	if s := strings.TrimSpace(d.ID); s != "" {
		return s
	}
	return util.Slugify(d.Name)
}

// Record converts d into a catalog record. Enumerations are matched
// case-insensitively; unknown values are dropped.
func (d *BeachData) Record() *domain.BeachRecord {
	rec := &domain.BeachRecord{
		Beach: domain.Beach{
			Slug:             d.Slug(),
			Name:             strings.TrimSpace(d.Name),
			Country:          strings.TrimSpace(d.Country),
			Region:           d.Region,
			Coordinates:      d.Coordinates,
			Description:      d.Description,
			ShortDescription: d.ShortDescription,
			CrowdLevel:       normalizeCrowd(d.CrowdLevel),
			Accessibility:    normalizeAccessibility(d.Accessibility),
			EntryFee:         d.EntryFee,
			FetchedAt:        d.FetchedAt,
		},
		Activities: d.Activities,
		Vibes:      d.Vibes,
		Facilities: d.Facilities,
		BestMonths: d.BestMonths,
	}
	for _, p := range d.Photos {
		if p.URL == "" {
			continue
		}
		rec.Photos = append(rec.Photos, domain.Photo{
			URL:             p.URL,
			Thumbnail:       p.Thumbnail,
			Photographer:    p.Photographer,
			PhotographerURL: p.PhotographerURL,
			BlurHash:        p.BlurHash,
		})
	}
	return rec
}

// titleCase upper-cases the first letter of each word. Casers are stateful,
// so one is made per call.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func normalizeCrowd(s string) domain.CrowdLevel {
	c := domain.CrowdLevel(titleCase(strings.TrimSpace(s)))
	if !c.Valid() {
		return ""
	}
	return c
}

func normalizeAccessibility(s string) domain.Accessibility {
	a := domain.Accessibility(titleCase(strings.TrimSpace(s)))
	if !a.Valid() {
		return ""
	}
	return a
}

func photoData(p *domain.Photo) PhotoData {
	return PhotoData{
		URL:             p.URL,
		Thumbnail:       p.Thumbnail,
		Photographer:    p.Photographer,
		PhotographerURL: p.PhotographerURL,
		BlurHash:        p.BlurHash,
	}
}
