package api

import (
	"net/http"
	"strconv"

	"github.com/meur/wftracker/internal/catalog"
	"github.com/meur/wftracker/internal/models"
)

// handleGetMeta returns the selectable categories and statuses
func (s *Server) handleGetMeta(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": models.Categories(),
		"statuses":   models.Statuses(),
	})
}

// handleSearchCatalog searches catalog item names
func (s *Server) handleSearchCatalog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	items := s.catalog.Search(query, limit)
	list := models.CatalogList{
		Items:      items,
		TotalCount: len(items),
	}
	if list.Items == nil {
		list.Items = []models.CatalogItem{}
	}
	if len(items) == 0 {
		list.Suggestions = s.catalog.Suggest(query, catalog.DefaultSuggestLimit)
	}

	respondJSON(w, http.StatusOK, list)
}

// handleCatalogStatus reports whether the catalog is loaded
func (s *Server) handleCatalogStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.catalog.Status())
}

// handleLookupCatalogItem returns one catalog item by unique name.
// Unique names contain slashes, so they travel in the query string.
func (s *Server) handleLookupCatalogItem(w http.ResponseWriter, r *http.Request) {
	uniqueName := r.URL.Query().Get("uniqueName")
	if uniqueName == "" {
		respondError(w, http.StatusBadRequest, "uniqueName is required")
		return
	}

	item, ok := s.catalog.Get(uniqueName)
	if !ok {
		respondError(w, http.StatusNotFound, "Catalog item not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"item":  item,
		"links": catalog.Links(item),
	})
}
