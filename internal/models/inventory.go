package models

import (
	"encoding/json"
	"math"

	"github.com/cockroachdb/errors"
)

// InstanceID identifies one tracked item; unique even for duplicate catalog entries.
// Older backups stored a numeric timestamp, so decoding accepts numbers too.
type InstanceID string

// UnmarshalJSON accepts a JSON string or number
func (id *InstanceID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = InstanceID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Newf("invalid instance id %s", data)
	}
	*id = InstanceID(n.String())
	return nil
}

// UserItem is a tracked instance of a catalog item
type UserItem struct {
	CatalogItem
	ID         InstanceID `json:"id"`
	Owned      bool       `json:"owned"`
	Mastered   bool       `json:"mastered"`
	Status     Status     `json:"status"`
	Duplicates int        `json:"duplicates"`
	Notes      string     `json:"notes,omitempty"`
}

// Clone returns a deep copy, component ownership included
func (u UserItem) Clone() UserItem {
	out := u
	if u.MasteryReq != nil {
		mr := *u.MasteryReq
		out.MasteryReq = &mr
	}
	out.Drops = cloneDrops(u.Drops)
	out.Components = CloneComponents(u.Components)
	return out
}

// CloneComponents deep copies a component list, keeping ownership flags
func CloneComponents(comps []ComponentRef) []ComponentRef {
	if comps == nil {
		return nil
	}
	out := make([]ComponentRef, len(comps))
	for i, c := range comps {
		c.Drops = cloneDrops(c.Drops)
		out[i] = c
	}
	return out
}

// OwnedComponents counts the components marked as owned
func (u UserItem) OwnedComponents() int {
	n := 0
	for _, c := range u.Components {
		if c.Owned {
			n++
		}
	}
	return n
}

// AllComponentsOwned reports whether every component is owned.
// An item without components never counts as complete here.
func (u UserItem) AllComponentsOwned() bool {
	if len(u.Components) == 0 {
		return false
	}
	return u.OwnedComponents() == len(u.Components)
}

// Progress returns completion in percent, recomputed from current state
func (u UserItem) Progress() float64 {
	total := len(u.Components)
	if total == 0 {
		if u.Owned {
			return 100
		}
		return 0
	}
	return float64(u.OwnedComponents()) / float64(total) * 100
}

// RoundProgress rounds a percentage to two decimals
func RoundProgress(p float64) float64 {
	return math.Round(p*100) / 100
}

// UserItemUpdate is a partial change set; nil fields are left untouched
type UserItemUpdate struct {
	Owned      *bool          `json:"owned,omitempty"`
	Mastered   *bool          `json:"mastered,omitempty"`
	Status     *Status        `json:"status,omitempty" validate:"omitempty,oneof=none farming waiting_parts ready_to_build to_sell built"`
	Duplicates *int           `json:"duplicates,omitempty" validate:"omitempty,min=0"`
	Notes      *string        `json:"notes,omitempty"`
	// Components carries owned flags for the item's existing component list.
	// It must match that list in length and unique names; see MatchesComponents.
	Components []ComponentRef `json:"components,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u UserItemUpdate) IsEmpty() bool {
	return u.Owned == nil && u.Mastered == nil && u.Status == nil &&
		u.Duplicates == nil && u.Notes == nil && u.Components == nil
}

// Apply merges the change set into item
func (u UserItemUpdate) Apply(item *UserItem) {
	if u.Owned != nil {
		item.Owned = *u.Owned
	}
	if u.Mastered != nil {
		item.Mastered = *u.Mastered
	}
	if u.Status != nil {
		item.Status = *u.Status
	}
	if u.Duplicates != nil {
		item.Duplicates = *u.Duplicates
	}
	if u.Notes != nil {
		item.Notes = *u.Notes
	}
	if u.Components != nil && u.MatchesComponents(item.Components) {
		for i := range item.Components {
			item.Components[i].Owned = u.Components[i].Owned
		}
	}
}

// MatchesComponents reports whether the update's component list lines up
// with comps: same length and the same unique name at every index.
// An update without components always matches.
func (u UserItemUpdate) MatchesComponents(comps []ComponentRef) bool {
	if u.Components == nil {
		return true
	}
	if len(u.Components) != len(comps) {
		return false
	}
	for i := range comps {
		if u.Components[i].UniqueName != comps[i].UniqueName {
			return false
		}
	}
	return true
}

// ItemLinks are outbound references for an item; never fetched
type ItemLinks struct {
	Market string `json:"market"`
	Wiki   string `json:"wiki"`
	Image  string `json:"image,omitempty"`
}

// UserItemView is a UserItem decorated with derived, non-persisted values
type UserItemView struct {
	UserItem
	Progress    float64    `json:"progress"`
	StatusLabel string     `json:"status_label"`
	Links       *ItemLinks `json:"links,omitempty"`
}

// InventoryList is a filtered view of the inventory
type InventoryList struct {
	Items      []UserItemView `json:"items"`
	TotalCount int            `json:"total_count"`
}
