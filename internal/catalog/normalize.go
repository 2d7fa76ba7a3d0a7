package catalog

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/meur/wftracker/internal/models"
)

// RawComponent is a component record as found in the dataset
type RawComponent struct {
	UniqueName string           `json:"uniqueName"`
	Name       string           `json:"name"`
	ItemCount  int              `json:"itemCount"`
	ImageName  string           `json:"imageName"`
	Drops      []models.DropRef `json:"drops"`
}

// RawItem is an item record as found in the dataset
type RawItem struct {
	UniqueName  string           `json:"uniqueName"`
	Name        string           `json:"name"`
	Category    string           `json:"category"`
	ImageName   string           `json:"imageName"`
	Description string           `json:"description"`
	MasteryReq  *int             `json:"masteryReq"`
	Drops       []models.DropRef `json:"drops"`
	Components  []RawComponent   `json:"components"`
}

// Normalize parses a dataset JSON array and normalizes it.
// A parse failure returns no items at all.
func Normalize(data []byte) ([]models.CatalogItem, error) {
	var raw []RawItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog dataset")
	}
	return NormalizeItems(raw), nil
}

// NormalizeItems filters and projects raw records into catalog items.
// Records without a unique name are skipped and the first record wins on duplicates.
func NormalizeItems(raw []RawItem) []models.CatalogItem {
	items := make([]models.CatalogItem, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, r := range raw {
		if r.UniqueName == "" || !Included(r) {
			continue
		}
		if _, ok := seen[r.UniqueName]; ok {
			continue
		}
		seen[r.UniqueName] = struct{}{}
		items = append(items, normalizeItem(r))
	}
	return items
}

func normalizeItem(r RawItem) models.CatalogItem {
	comps := make([]models.ComponentRef, 0, len(r.Components))
	for _, c := range r.Components {
		comps = append(comps, normalizeComponent(c))
	}

	return models.CatalogItem{
		UniqueName:  r.UniqueName,
		Name:        r.Name,
		Category:    NormalizeCategory(r.Category),
		ImageName:   r.ImageName,
		IsPrime:     strings.Contains(r.Name, "Prime"),
		Description: r.Description,
		MasteryReq:  r.MasteryReq,
		Drops:       r.Drops,
		Components:  comps,
	}
}

func normalizeComponent(c RawComponent) models.ComponentRef {
	id := c.UniqueName
	if id == "" {
		id = c.Name
	}
	count := c.ItemCount
	if count < 1 {
		count = 1
	}
	return models.ComponentRef{
		UniqueName: id,
		Name:       c.Name,
		ItemCount:  count,
		ImageName:  c.ImageName,
		Drops:      c.Drops,
		Owned:      false,
	}
}
