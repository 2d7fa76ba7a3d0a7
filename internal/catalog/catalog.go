package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/cockroachdb/errors"
	"github.com/meur/wftracker/internal/models"
	"go.uber.org/zap"
)

const (
	// MinQueryLength is the shortest query Search answers
	MinQueryLength = 2

	DefaultSearchLimit  = 10
	DefaultSuggestLimit = 5
)

// Status describes the catalog load state
type Status struct {
	Loading bool   `json:"loading"`
	Loaded  bool   `json:"loaded"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

// Catalog is the in-memory, read-only item catalog
type Catalog struct {
	mu      sync.RWMutex
	items   []models.CatalogItem
	byName  map[string]int
	loading bool
	loaded  bool
	err     error
	logger  *zap.Logger
}

// New creates an empty catalog
func New(logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		byName: map[string]int{},
		logger: logger.Named("catalog"),
	}
}

// Load replaces the catalog with the loader's result.
// On failure the catalog is left empty and the error is kept for Status.
func (c *Catalog) Load(ctx context.Context, loader Loader) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	items, err := loader.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		err = errors.Mark(err, ErrLoadFailed)
		c.items = nil
		c.byName = map[string]int{}
		c.loaded = false
		c.err = err
		c.logger.Error("catalog load failed", zap.Error(err))
		return err
	}

	c.setLocked(items)
	c.loaded = true
	c.err = nil
	c.logger.Info("catalog loaded", zap.Int("items", len(items)))
	return nil
}

// Set replaces the catalog contents
func (c *Catalog) Set(items []models.CatalogItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(items)
	c.loaded = true
	c.err = nil
}

func (c *Catalog) setLocked(items []models.CatalogItem) {
	c.items = items
	c.byName = make(map[string]int, len(items))
	for i, item := range items {
		c.byName[item.UniqueName] = i
	}
}

// Status returns the current load state
func (c *Catalog) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := Status{Loading: c.loading, Loaded: c.loaded, Count: len(c.items)}
	if c.err != nil {
		st.Error = c.err.Error()
	}
	return st
}

// Len returns the number of catalog items
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns the item with the given unique name
func (c *Catalog) Get(uniqueName string) (models.CatalogItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byName[uniqueName]
	if !ok {
		return models.CatalogItem{}, false
	}
	return c.items[i], true
}

// Search returns items whose name contains query, case-insensitively
func (c *Catalog) Search(query string, limit int) []models.CatalogItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < MinQueryLength {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []models.CatalogItem
	for _, item := range c.items {
		if !strings.Contains(strings.ToLower(item.Name), q) {
			continue
		}
		out = append(out, item)
		if len(out) >= limit {
			break
		}
	}
	return out
}

type suggestion struct {
	name string
	dist int
}

// Suggest returns item names close to query, for queries Search misses
func (c *Catalog) Suggest(query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < 3 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	c.mu.RLock()
	cands := make([]suggestion, 0)
	for _, item := range c.items {
		dist, ok := closeness(q, strings.ToLower(item.Name))
		if !ok {
			continue
		}
		cands = append(cands, suggestion{name: item.Name, dist: dist})
	}
	c.mu.RUnlock()

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist == cands[j].dist {
			return cands[i].name < cands[j].name
		}
		return cands[i].dist < cands[j].dist
	})

	out := make([]string, 0, limit)
	seen := map[string]bool{}
	for _, cand := range cands {
		if seen[cand.name] {
			continue
		}
		seen[cand.name] = true
		out = append(out, cand.name)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// closeness compares query against the whole name and each of its words
func closeness(query, name string) (int, bool) {
	best := -1
	compare := func(target string) {
		dist := levenshtein.ComputeDistance(query, target)
		if dist > levenshteinLimit(len(target)) {
			return
		}
		if best < 0 || dist < best {
			best = dist
		}
	}
	compare(name)
	for _, word := range strings.Fields(name) {
		if len(word) >= 3 {
			compare(word)
		}
	}
	return best, best >= 0
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
