package lowering

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cogc/internal/ir"
)

const ttl = 7 * 24 * time.Hour

// Cache is the two-tier IR cache: an in-memory
// primary tier and a sqlite-backed cold tier that warms the primary on
// hit. Grounded on the teacher's `internal/store` local/embedded store
// split (warm in-process tier over a `modernc.org/sqlite`-class cold
// tier) — here using `github.com/mattn/go-sqlite3`, the driver the
// teacher's own `internal/store/local_core.go` opens with.
type Cache struct {
	mu  sync.RWMutex
	hot map[string]cacheEntry

	db *sql.DB
}

type cacheEntry struct {
	app       ir.ApplicationIR
	storedAt  time.Time
}

// OpenCache opens (creating if needed) the sqlite-backed cold tier at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("lowering: opening IR cache db: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS ir_cache (
		cache_key TEXT PRIMARY KEY,
		ir_json TEXT NOT NULL,
		stored_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("lowering: creating ir_cache table: %w", err)
	}
	return &Cache{hot: make(map[string]cacheEntry), db: db}, nil
}

// Close closes the cold-tier database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get looks up key in the hot tier, falling back to the cold tier and
// warming the hot tier on a cold hit. A miss (or an expired entry)
// returns ok=false, not an error.
func (c *Cache) Get(ctx context.Context, key string) (ir.ApplicationIR, bool, error) {
	c.mu.RLock()
	entry, hit := c.hot[key]
	c.mu.RUnlock()
	if hit {
		if time.Since(entry.storedAt) > ttl {
			return ir.ApplicationIR{}, false, nil
		}
		return entry.app, true, nil
	}

	var irJSON string
	var storedAtUnix int64
	row := c.db.QueryRowContext(ctx, `SELECT ir_json, stored_at FROM ir_cache WHERE cache_key = ?`, key)
	if err := row.Scan(&irJSON, &storedAtUnix); err != nil {
		if err == sql.ErrNoRows {
			return ir.ApplicationIR{}, false, nil
		}
		return ir.ApplicationIR{}, false, fmt.Errorf("lowering: reading cold-tier cache: %w", err)
	}

	storedAt := time.Unix(storedAtUnix, 0)
	if time.Since(storedAt) > ttl {
		return ir.ApplicationIR{}, false, nil
	}

	var app ir.ApplicationIR
	if err := json.Unmarshal([]byte(irJSON), &app); err != nil {
		return ir.ApplicationIR{}, false, fmt.Errorf("lowering: decoding cached IR: %w", err)
	}

	c.mu.Lock()
	c.hot[key] = cacheEntry{app: app, storedAt: storedAt}
	c.mu.Unlock()
	return app, true, nil
}

// Put writes app to both tiers under key.
func (c *Cache) Put(ctx context.Context, key string, app ir.ApplicationIR) error {
	now := time.Now()

	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("lowering: encoding IR for cache: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO ir_cache (cache_key, ir_json, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET ir_json = excluded.ir_json, stored_at = excluded.stored_at`,
		key, string(data), now.Unix())
	if err != nil {
		return fmt.Errorf("lowering: writing cold-tier cache: %w", err)
	}

	c.mu.Lock()
	c.hot[key] = cacheEntry{app: app, storedAt: now}
	c.mu.Unlock()
	return nil
}
