package api

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/meur/wftracker/internal/catalog"
	"github.com/meur/wftracker/internal/inventory"
	"github.com/meur/wftracker/internal/models"
	"go.uber.org/zap"
)

// maxImportBytes caps the size of an uploaded backup
const maxImportBytes = 16 << 20

type addItemRequest struct {
	UniqueName string `json:"uniqueName" validate:"required"`
}

func itemView(item models.UserItem, withLinks bool) models.UserItemView {
	v := models.UserItemView{
		UserItem:    item,
		Progress:    models.RoundProgress(item.Progress()),
		StatusLabel: item.Status.Label(),
	}
	if withLinks {
		links := catalog.Links(item.CatalogItem)
		v.Links = &links
	}
	return v
}

func parseFilter(r *http.Request) (inventory.Filter, error) {
	q := r.URL.Query()
	f := inventory.Filter{
		Query:    q.Get("q"),
		Category: models.Category(q.Get("category")),
		Status:   models.Status(q.Get("status")),
	}
	if f.Category != "" && !f.Category.Valid() {
		return f, errors.Newf("unknown category %q", f.Category)
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, errors.Newf("unknown status %q", f.Status)
	}
	if raw := q.Get("hide_mastered"); raw != "" {
		hide, err := strconv.ParseBool(raw)
		if err != nil {
			return f, errors.Newf("hide_mastered must be a boolean")
		}
		f.HideMastered = hide
	}
	return f, nil
}

// handleListInventory returns the filtered inventory in display order
func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := filter.Apply(s.inventory.Items())
	views := make([]models.UserItemView, 0, len(items))
	for _, item := range items {
		views = append(views, itemView(item, false))
	}

	respondJSON(w, http.StatusOK, models.InventoryList{
		Items:      views,
		TotalCount: len(views),
	})
}

// handleAddItem starts tracking a catalog item
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "uniqueName is required")
		return
	}

	catItem, ok := s.catalog.Get(req.UniqueName)
	if !ok {
		respondError(w, http.StatusNotFound, "Catalog item not found")
		return
	}

	item, err := s.inventory.Add(catItem)
	if err != nil {
		s.logger.Error("add item failed", zap.String("unique_name", req.UniqueName), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to add item")
		return
	}

	respondJSON(w, http.StatusCreated, itemView(item, true))
}

// handleGetItem returns one tracked item with its links
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id := models.InstanceID(chi.URLParam(r, "id"))

	item, ok := s.inventory.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Item not found")
		return
	}

	respondJSON(w, http.StatusOK, itemView(item, true))
}

// handleUpdateItem applies a partial update. Unknown ids answer 204 so
// that updates racing a delete are not reported as failures.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id := models.InstanceID(chi.URLParam(r, "id"))

	var update models.UserItemUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid update: "+err.Error())
		return
	}

	found, err := s.inventory.Update(id, update)
	if errors.Is(err, inventory.ErrComponentMismatch) {
		respondError(w, http.StatusBadRequest, "Invalid update: components must match the item's component list")
		return
	}
	if err != nil {
		s.logger.Error("update item failed", zap.String("id", string(id)), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update item")
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	item, _ := s.inventory.Get(id)
	respondJSON(w, http.StatusOK, itemView(item, true))
}

// handleDeleteItem removes a tracked item; unknown ids answer 204
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id := models.InstanceID(chi.URLParam(r, "id"))

	found, err := s.inventory.Delete(id)
	if err != nil {
		s.logger.Error("delete item failed", zap.String("id", string(id)), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete item")
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleToggleComponent flips one component's owned flag
func (s *Server) handleToggleComponent(w http.ResponseWriter, r *http.Request) {
	id := models.InstanceID(chi.URLParam(r, "id"))
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	item, found, err := s.inventory.ToggleComponent(id, index)
	if errors.Is(err, inventory.ErrComponentIndex) {
		respondError(w, http.StatusBadRequest, "Component index out of range")
		return
	}
	if err != nil {
		s.logger.Error("toggle component failed", zap.String("id", string(id)), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to toggle component")
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	respondJSON(w, http.StatusOK, itemView(item, true))
}

// handleExportJSON downloads the inventory array exactly as stored
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	data, err := s.inventory.Export()
	if err != nil {
		s.logger.Error("export failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to export inventory")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+inventory.ExportFileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleExportXLSX downloads the inventory as a spreadsheet. The workbook is
// rendered in memory so a failure can still be reported as an error response.
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.writeSpreadsheet(&buf, s.inventory.Items()); err != nil {
		s.logger.Error("spreadsheet export failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to export spreadsheet")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+inventory.SpreadsheetFileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleImport replaces the inventory with an uploaded backup
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "Import file too large")
		return
	}

	if err := s.inventory.Import(data); err != nil {
		if errors.Is(err, inventory.ErrImportInvalid) {
			s.logger.Warn("import rejected", zap.Error(err))
			respondError(w, http.StatusBadRequest, "Invalid JSON: expected an array of items")
			return
		}
		s.logger.Error("import failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to import inventory")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "imported",
		"count":  s.inventory.Len(),
	})
}

// handleGetStats returns inventory counters
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, inventory.ComputeStats(s.inventory.Items()))
}
