package api

import (
	"net/http"
	"strings"

	"github.com/beachatlas/beachatlas-server/internal/http/response"
	"github.com/beachatlas/beachatlas-server/internal/media/images"
)

// handleSitemap serves the XML sitemap of every beach page.
func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	body, err := s.services.Sitemap.Render(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", CacheOneHour)
	_, _ = w.Write(body)
}

// assetHandler serves processed beach photos. Directory listings are
// refused.
func assetHandler(storage *images.Storage) http.Handler {
	files := http.StripPrefix("/assets/", http.FileServer(http.Dir(storage.Root())))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/assets/" || strings.HasSuffix(r.URL.Path, "/") {
			response.NotFound(w, "asset not found", nil)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		files.ServeHTTP(w, r)
	})
}
