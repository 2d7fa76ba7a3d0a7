package models

// Category is the normalized item category used for filtering
type Category string

const (
	CategoryWarframes  Category = "Warframes"
	CategoryPrimary    Category = "Primary"
	CategorySecondary  Category = "Secondary"
	CategoryMelee      Category = "Melee"
	CategoryArchwing   Category = "Archwing"
	CategoryCompanions Category = "Companions"
	CategoryOther      Category = "Other"
)

// Categories returns every category in display order
func Categories() []Category {
	return []Category{
		CategoryWarframes,
		CategoryPrimary,
		CategorySecondary,
		CategoryMelee,
		CategoryArchwing,
		CategoryCompanions,
		CategoryOther,
	}
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// DropRef is a location where an item or component can be obtained
type DropRef struct {
	Location string   `json:"location"`
	Type     string   `json:"type"`
	Chance   *float64 `json:"chance,omitempty"` // 0-100
	Rarity   string   `json:"rarity,omitempty"`
}

// ComponentRef is a sub-part needed to build an item.
// Owned is always false in the catalog and user state once copied into a UserItem.
type ComponentRef struct {
	UniqueName string    `json:"uniqueName"`
	Name       string    `json:"name"`
	ItemCount  int       `json:"itemCount"`
	ImageName  string    `json:"imageName,omitempty"`
	Drops      []DropRef `json:"drops,omitempty"`
	Owned      bool      `json:"owned"`
}

// CatalogItem is an immutable reference record for one obtainable item
type CatalogItem struct {
	UniqueName  string         `json:"uniqueName"`
	Name        string         `json:"name"`
	Category    Category       `json:"category"`
	ImageName   string         `json:"imageName"`
	IsPrime     bool           `json:"isPrime"`
	Description string         `json:"description,omitempty"`
	MasteryReq  *int           `json:"masteryReq,omitempty"`
	Components  []ComponentRef `json:"components"`
	Drops       []DropRef      `json:"drops,omitempty"`
}

// Clone returns a deep copy of the item with every component marked as not owned
func (c CatalogItem) Clone() CatalogItem {
	out := c
	if c.MasteryReq != nil {
		mr := *c.MasteryReq
		out.MasteryReq = &mr
	}
	out.Drops = cloneDrops(c.Drops)
	out.Components = make([]ComponentRef, len(c.Components))
	for i, comp := range c.Components {
		comp.Drops = cloneDrops(comp.Drops)
		comp.Owned = false
		out.Components[i] = comp
	}
	return out
}

func cloneDrops(drops []DropRef) []DropRef {
	if drops == nil {
		return nil
	}
	out := make([]DropRef, len(drops))
	for i, d := range drops {
		if d.Chance != nil {
			chance := *d.Chance
			d.Chance = &chance
		}
		out[i] = d
	}
	return out
}

// CatalogList is a page of catalog search results
type CatalogList struct {
	Items       []CatalogItem `json:"items"`
	TotalCount  int           `json:"total_count"`
	Suggestions []string      `json:"suggestions,omitempty"`
}
