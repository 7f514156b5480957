package vocab

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Cache stores resolved entries in a local sqlite database keyed by
// normalized word.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (and migrates) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open vocabulary cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping vocabulary cache: %w", err)
	}
	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		return nil, fmt.Errorf("migrate vocabulary cache: %w", err)
	}
	return c, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS definitions (
		word TEXT PRIMARY KEY,
		entry TEXT NOT NULL,
		cached_at DATETIME NOT NULL
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Get returns the cached entry for word, or nil when the word has not
// been looked up yet.
func (c *Cache) Get(word string) (*Entry, error) {
	var raw string
	err := c.db.QueryRow(`SELECT entry FROM definitions WHERE word = ?`, word).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, fmt.Errorf("decode cached entry for %q: %w", word, err)
	}
	return &e, nil
}

// Put stores (or replaces) the entry for word.
func (c *Cache) Put(word string, e *Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(
		`INSERT INTO definitions (word, entry, cached_at) VALUES (?, ?, ?)
		 ON CONFLICT(word) DO UPDATE SET entry = excluded.entry, cached_at = excluded.cached_at`,
		word, string(raw), time.Now().UTC(),
	)
	return err
}

// Size reports how many words the cache holds.
func (c *Cache) Size() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM definitions`).Scan(&n)
	return n, err
}
