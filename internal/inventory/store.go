package inventory

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/meur/wftracker/internal/models"
	"go.uber.org/zap"
)

// EventKind names the mutation behind a change notification
type EventKind string

const (
	EventAdded    EventKind = "added"
	EventUpdated  EventKind = "updated"
	EventDeleted  EventKind = "deleted"
	EventReplaced EventKind = "replaced"
)

// Event is emitted to subscribers after every saved mutation
type Event struct {
	Kind  EventKind         `json:"type"`
	ID    models.InstanceID `json:"id,omitempty"`
	Count int               `json:"count"`
}

// Subscriber receives change notifications
type Subscriber func(Event)

// Store owns the user's inventory. Every mutation is saved to the KV store
// before it becomes visible, then subscribers are notified.
type Store struct {
	mu     sync.Mutex
	items  []models.UserItem
	kv     KV
	key    string
	logger *zap.Logger

	subsMu  sync.RWMutex
	subs    map[int]Subscriber
	nextSub int
}

// Option configures a Store
type Option func(*Store)

// WithKey overrides the KV key
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open loads the inventory from kv. A missing key yields an empty inventory;
// a corrupt blob is logged and also yields an empty inventory.
func Open(kv KV, opts ...Option) (*Store, error) {
	s := &Store{
		items:  []models.UserItem{},
		kv:     kv,
		key:    DefaultKey,
		logger: zap.NewNop(),
		subs:   map[int]Subscriber{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("inventory")

	data, ok, err := kv.Get(s.key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read inventory key %s", s.key)
	}
	if !ok {
		s.logger.Info("no saved inventory, starting empty", zap.String("key", s.key))
		return s, nil
	}

	items, err := decodeItems(data)
	if err != nil {
		err = errors.Mark(errors.Wrap(err, "failed to decode saved inventory"), ErrStateCorrupt)
		s.logger.Warn("saved inventory is corrupt, starting empty", zap.Error(err))
		return s, nil
	}

	if repair(items) {
		s.logger.Info("migrated saved inventory", zap.Int("items", len(items)))
		if err := s.save(items); err != nil {
			return nil, err
		}
	}
	s.items = items
	s.logger.Info("inventory loaded", zap.Int("items", len(items)))
	return s, nil
}

// Subscribe registers fn for change notifications and returns its cancel func
func (s *Store) Subscribe(fn Subscriber) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) notify(ev Event) {
	s.subsMu.RLock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Items returns a copy of the inventory in display order (most recent first)
func (s *Store) Items() []models.UserItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Len returns the number of tracked items
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Get returns a copy of the item with the given instance id
func (s *Store) Get(id models.InstanceID) (models.UserItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.UserItem{}, false
	}
	return s.items[i].Clone(), true
}

// Add starts tracking a new instance of a catalog item.
// Duplicates of the same catalog entry are independent items.
func (s *Store) Add(item models.CatalogItem) (models.UserItem, error) {
	u := models.UserItem{
		CatalogItem: item.Clone(),
		ID:          newID(),
		Owned:       false,
		Mastered:    false,
		Status:      models.StatusFarming,
		Duplicates:  0,
		Notes:       "",
	}

	s.mu.Lock()
	next := make([]models.UserItem, 0, len(s.items)+1)
	next = append(next, u)
	next = append(next, s.items...)
	if err := s.save(next); err != nil {
		s.mu.Unlock()
		return models.UserItem{}, err
	}
	s.items = next
	count := len(next)
	s.mu.Unlock()

	s.logger.Debug("item added", zap.String("id", string(u.ID)), zap.String("unique_name", u.UniqueName))
	s.notify(Event{Kind: EventAdded, ID: u.ID, Count: count})
	return u.Clone(), nil
}

// Update merges changes into the item with the given id.
// An unknown id or an empty change set is a silent no-op. Components may only
// flip owned flags of the existing list; anything else is ErrComponentMismatch.
func (s *Store) Update(id models.InstanceID, changes models.UserItemUpdate) (bool, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 || changes.IsEmpty() {
		s.mu.Unlock()
		return i >= 0, nil
	}
	if !changes.MatchesComponents(s.items[i].Components) {
		n := len(s.items[i].Components)
		s.mu.Unlock()
		return true, errors.Wrapf(ErrComponentMismatch, "got %d components, item has %d", len(changes.Components), n)
	}

	next := cloneItems(s.items)
	changes.Apply(&next[i])
	if err := s.save(next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.items = next
	count := len(next)
	s.mu.Unlock()

	s.notify(Event{Kind: EventUpdated, ID: id, Count: count})
	return true, nil
}

// Delete stops tracking the item with the given id; absent ids are a no-op
func (s *Store) Delete(id models.InstanceID) (bool, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}

	next := make([]models.UserItem, 0, len(s.items)-1)
	next = append(next, s.items[:i]...)
	next = append(next, s.items[i+1:]...)
	if err := s.save(next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.items = next
	count := len(next)
	s.mu.Unlock()

	s.logger.Debug("item deleted", zap.String("id", string(id)))
	s.notify(Event{Kind: EventDeleted, ID: id, Count: count})
	return true, nil
}

// ToggleComponent flips the owned flag of one component. When that completes
// every component of an item that is farming, it becomes ready to build.
func (s *Store) ToggleComponent(id models.InstanceID, index int) (models.UserItem, bool, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return models.UserItem{}, false, nil
	}
	if index < 0 || index >= len(s.items[i].Components) {
		s.mu.Unlock()
		return models.UserItem{}, true, errors.Wrapf(ErrComponentIndex, "index %d of %d", index, len(s.items[i].Components))
	}

	next := cloneItems(s.items)
	item := &next[i]
	item.Components[index].Owned = !item.Components[index].Owned
	if item.AllComponentsOwned() && item.Status == models.StatusFarming {
		item.Status = models.StatusReadyToBuild
	}
	if err := s.save(next); err != nil {
		s.mu.Unlock()
		return models.UserItem{}, true, err
	}
	s.items = next
	out := item.Clone()
	count := len(next)
	s.mu.Unlock()

	s.notify(Event{Kind: EventUpdated, ID: id, Count: count})
	return out, true, nil
}

// Replace swaps the whole inventory, repairing missing or duplicate ids
func (s *Store) Replace(items []models.UserItem) error {
	next := cloneItems(items)
	if next == nil {
		next = []models.UserItem{}
	}
	repair(next)

	s.mu.Lock()
	if err := s.save(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = next
	count := len(next)
	s.mu.Unlock()

	s.logger.Info("inventory replaced", zap.Int("items", count))
	s.notify(Event{Kind: EventReplaced, Count: count})
	return nil
}

// Import replaces the inventory with a JSON array. Anything that is not an
// array of items is rejected with ErrImportInvalid and changes nothing.
func (s *Store) Import(data []byte) error {
	items, err := decodeItems(data)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "failed to import inventory"), ErrImportInvalid)
	}
	return s.Replace(items)
}

// Export returns the current inventory as a JSON array
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encodeItems(s.items)
}

func (s *Store) indexOf(id models.InstanceID) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) save(items []models.UserItem) error {
	data, err := encodeItems(items)
	if err != nil {
		return errors.Wrap(err, "failed to encode inventory")
	}
	if err := s.kv.Set(s.key, data); err != nil {
		return errors.Wrap(err, "failed to save inventory")
	}
	return nil
}

func cloneItems(items []models.UserItem) []models.UserItem {
	if items == nil {
		return nil
	}
	out := make([]models.UserItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
