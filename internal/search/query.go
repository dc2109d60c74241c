package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultSearchLimit caps text search results when the caller passes none.
const DefaultSearchLimit = 20

// Hit is a matching beach id with its relevance score.
type Hit struct {
	ID    string
	Slug  string
	Score float64
}

// Search runs a full-text query and returns hits in relevance order.
func (s *BeachIndex) Search(ctx context.Context, text string, limit int) ([]Hit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildTextQuery(text), limit, 0, false)
	req.Fields = []string{"slug"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if slug, ok := h.Fields["slug"].(string); ok {
			hit.Slug = slug
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// buildTextQuery matches the text against every prose field, boosting the
// beach name and tolerating one typo in it.
func buildTextQuery(text string) query.Query {
	fields := []struct {
		name  string
		boost float64
	}{
		{"name", 3.0},
		{"region", 2.0},
		{"country", 2.0},
		{"vibes", 1.5},
		{"activities", 1.5},
		{"short_description", 1.0},
		{"description", 0.8},
	}

	queries := make([]query.Query, 0, len(fields)+2)
	for _, f := range fields {
		mq := bleve.NewMatchQuery(text)
		mq.SetField(f.name)
		mq.SetBoost(f.boost)
		queries = append(queries, mq)
	}

	fuzzy := bleve.NewMatchQuery(text)
	fuzzy.SetField("name")
	fuzzy.SetFuzziness(1)
	fuzzy.SetBoost(0.8)
	queries = append(queries, fuzzy)

	if len(text) >= 2 && !strings.Contains(text, " ") {
		prefix := bleve.NewPrefixQuery(strings.ToLower(text))
		prefix.SetField("name")
		prefix.SetBoost(0.5)
		queries = append(queries, prefix)
	}

	return bleve.NewDisjunctionQuery(queries...)
}

// Near returns the ids of every beach within radiusKm of (lat, lon).
func (s *BeachIndex) Near(ctx context.Context, lat, lon, radiusKm float64) ([]string, error) {
	if radiusKm <= 0 {
		return []string{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total, err := s.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if total == 0 {
		return []string{}, nil
	}

	gq := bleve.NewGeoDistanceQuery(lon, lat, strconv.FormatFloat(radiusKm, 'f', -1, 64)+"km")
	gq.SetField("location")

	req := bleve.NewSearchRequestOptions(gq, int(total), 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute geo search: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
