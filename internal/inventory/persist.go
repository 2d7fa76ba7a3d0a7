package inventory

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/meur/wftracker/internal/models"
)

// DefaultKey is the key the inventory blob is stored under
const DefaultKey = "wf-inventory-fixed"

// KV is a local key-value store holding the inventory blob
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// decodeItems parses a JSON array of items; anything else is rejected
func decodeItems(data []byte) ([]models.UserItem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("content is not a JSON array")
	}
	var items []models.UserItem
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.UserItem{}
	}
	return items, nil
}

// encodeItems serializes the inventory array
func encodeItems(items []models.UserItem) ([]byte, error) {
	if items == nil {
		items = []models.UserItem{}
	}
	return json.Marshal(items)
}

// repair migrates legacy entries in place: unique ids, a known status, a
// non-negative duplicate counter and components that count at least one and
// carry an id. It reports whether anything changed.
func repair(items []models.UserItem) bool {
	changed := ensureIDs(items)
	for i := range items {
		item := &items[i]
		if !item.Status.Valid() {
			item.Status = models.StatusNone
			changed = true
		}
		if item.Duplicates < 0 {
			item.Duplicates = 0
			changed = true
		}
		for j := range item.Components {
			c := &item.Components[j]
			if c.ItemCount < 1 {
				c.ItemCount = 1
				changed = true
			}
			if c.UniqueName == "" && c.Name != "" {
				c.UniqueName = c.Name
				changed = true
			}
		}
	}
	return changed
}

// ensureIDs gives every item a unique instance id, keeping existing unique ones.
// It reports whether anything changed.
func ensureIDs(items []models.UserItem) bool {
	changed := false
	seen := make(map[models.InstanceID]struct{}, len(items))
	for i := range items {
		id := items[i].ID
		if _, dup := seen[id]; id == "" || dup {
			id = newID()
			items[i].ID = id
			changed = true
		}
		seen[id] = struct{}{}
	}
	return changed
}

func newID() models.InstanceID {
	return models.InstanceID(uuid.New().String())
}
