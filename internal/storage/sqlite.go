package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/meur/wftracker/internal/models"
)

// Store is the local SQLite database: a key-value table holding the
// inventory blob and a snapshot of the normalized catalog
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs database migrations
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS catalog_items (
			unique_name TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			image_name TEXT,
			is_prime INTEGER DEFAULT 0,
			data TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_items_category ON catalog_items(category)`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_items_position ON catalog_items(position)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return errors.Wrap(err, "migration failed")
		}
	}

	return nil
}

// --- Key-value ---

// Get returns the value stored under key and whether it exists
func (s *Store) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to read key %s", key)
	}
	return value, true, nil
}

// Set replaces the value stored under key
func (s *Store) Set(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	if err != nil {
		return errors.Wrapf(err, "failed to write key %s", key)
	}
	return nil
}

// --- Catalog snapshot ---

// GetCatalogItems returns the cached catalog in its original order
func (s *Store) GetCatalogItems() ([]models.CatalogItem, error) {
	rows, err := s.db.Query(`SELECT data FROM catalog_items ORDER BY position`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query catalog")
	}
	defer rows.Close()

	items := []models.CatalogItem{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var item models.CatalogItem
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			return nil, errors.Wrap(err, "failed to decode catalog item")
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountCatalogItems returns the size of the cached catalog
func (s *Store) CountCatalogItems() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM catalog_items`).Scan(&n)
	return n, err
}

// ReplaceCatalog swaps the cached catalog for items in one transaction
func (s *Store) ReplaceCatalog(items []models.CatalogItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM catalog_items`); err != nil {
		return errors.Wrap(err, "failed to clear catalog")
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO catalog_items (unique_name, position, name, category, image_name, is_prime, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return errors.Wrapf(err, "failed to encode catalog item %s", item.UniqueName)
		}
		_, err = stmt.Exec(item.UniqueName, i, item.Name, string(item.Category),
			item.ImageName, item.IsPrime, string(data))
		if err != nil {
			return errors.Wrapf(err, "failed to insert catalog item %s", item.UniqueName)
		}
	}

	return tx.Commit()
}
