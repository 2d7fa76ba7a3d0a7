package inventory

import (
	"strings"

	"github.com/meur/wftracker/internal/models"
)

// Filter selects inventory items. Zero-valued fields match everything and
// all set fields must match.
type Filter struct {
	Query        string
	Category     models.Category
	Status       models.Status
	HideMastered bool
}

// Match reports whether item passes the filter
func (f Filter) Match(item models.UserItem) bool {
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.Status != "" && item.Status != f.Status {
		return false
	}
	if f.HideMastered && item.Mastered {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" &&
		!strings.Contains(strings.ToLower(item.Name), strings.ToLower(q)) {
		return false
	}
	return true
}

// Apply returns the items passing the filter, order preserved
func (f Filter) Apply(items []models.UserItem) []models.UserItem {
	out := make([]models.UserItem, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// Stats summarizes the inventory
type Stats struct {
	Total    int                   `json:"total"`
	Owned    int                   `json:"owned"`
	Mastered int                   `json:"mastered"`
	Farming  int                   `json:"farming"`
	ByStatus map[models.Status]int `json:"by_status"`
}

// ComputeStats counts items by ownership, mastery and status
func ComputeStats(items []models.UserItem) Stats {
	st := Stats{Total: len(items), ByStatus: map[models.Status]int{}}
	for _, cfg := range models.Statuses() {
		st.ByStatus[cfg.ID] = 0
	}
	for _, item := range items {
		if item.Owned {
			st.Owned++
		}
		if item.Mastered {
			st.Mastered++
		}
		if item.Status == models.StatusFarming {
			st.Farming++
		}
		st.ByStatus[item.Status]++
	}
	return st
}
