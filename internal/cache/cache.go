// Package cache implements the expiring report cache: a SQLite-backed
// key/value store scoped by (organization, report type) with TTL expiry.
// Caching is an optimization, not a correctness requirement; write failures
// are logged and dropped, never surfaced to the report path.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// namespace prefixes every cache key so sweeps never touch foreign rows in
// a shared database file.
const namespace = "orgalyser"

// entry is the serialized cache value format.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	ExpiresAt int64           `json:"expiresAt"`
}

// ReportCache is a TTL key/value store for report results.
type ReportCache struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// Status holds summary information about the cache contents.
type Status struct {
	Entries int
	Expired int
	Oldest  time.Time
	Newest  time.Time
}

// Open opens (and if needed initializes) the cache database at path.
// Use ":memory:" for an ephemeral cache.
func Open(path string, logger *log.Logger) (*ReportCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database at %q: %w", path, err)
	}
	// A single connection avoids "database is locked" errors from SQLite.
	db.SetMaxOpenConns(1)

	const schema = `
		CREATE TABLE IF NOT EXISTS report_cache (
			cache_key   TEXT PRIMARY KEY,
			cache_value BLOB NOT NULL,
			created_at  INTEGER NOT NULL,
			expires_at  INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	return &ReportCache{
		db:     db,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Key builds the storage key for (org, reportType). It is a pure function:
// the same pair always produces the same key.
func Key(org, reportType string) string {
	return fmt.Sprintf("%s-%s-%s", namespace, org, reportType)
}

// Put stores payload under (org, reportType) with the given TTL. Failures
// are absorbed: an opportunistic expired-entry sweep runs and the write is
// dropped, since the already-computed report is still returned upstream.
func (c *ReportCache) Put(org, reportType string, payload any, ttlHours int) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Printf("cache: dropping write for %s/%s: %v", org, reportType, err)
		return
	}

	now := c.now()
	e := entry{
		Data:      data,
		Timestamp: now.UnixMilli(),
		ExpiresAt: now.Add(time.Duration(ttlHours) * time.Hour).UnixMilli(),
	}
	value, err := json.Marshal(e)
	if err != nil {
		c.logger.Printf("cache: dropping write for %s/%s: %v", org, reportType, err)
		return
	}

	const upsert = `INSERT OR REPLACE INTO report_cache (cache_key, cache_value, created_at, expires_at) VALUES (?, ?, ?, ?)`
	if _, err := c.db.Exec(upsert, Key(org, reportType), value, e.Timestamp, e.ExpiresAt); err != nil {
		c.logger.Printf("cache: write failed for %s/%s, sweeping expired entries: %v", org, reportType, err)
		if _, sweepErr := c.SweepExpired(); sweepErr != nil {
			c.logger.Printf("cache: sweep failed: %v", sweepErr)
		}
	}
}

// Get loads the entry for (org, reportType) into out and reports whether a
// live entry was found. Absent, corrupt and expired entries all read as a
// miss; corrupt and expired rows are deleted on the way out.
func (c *ReportCache) Get(org, reportType string, out any) bool {
	key := Key(org, reportType)

	var value []byte
	row := c.db.QueryRow(`SELECT cache_value FROM report_cache WHERE cache_key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.logger.Printf("cache: read failed for %s: %v", key, err)
		}
		return false
	}

	var e entry
	if err := json.Unmarshal(value, &e); err != nil {
		c.logger.Printf("cache: removing corrupt entry %s: %v", key, err)
		c.delete(key)
		return false
	}
	if c.now().UnixMilli() > e.ExpiresAt {
		c.delete(key)
		return false
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		c.logger.Printf("cache: removing corrupt entry %s: %v", key, err)
		c.delete(key)
		return false
	}
	return true
}

// Invalidate unconditionally deletes the entry for (org, reportType).
func (c *ReportCache) Invalidate(org, reportType string) error {
	_, err := c.db.Exec(`DELETE FROM report_cache WHERE cache_key = ?`, Key(org, reportType))
	if err != nil {
		return fmt.Errorf("failed to invalidate %s/%s: %w", org, reportType, err)
	}
	return nil
}

// InvalidateAll deletes every entry scoped to org, regardless of report
// type. It is an explicit operation for organization context switches, not
// an automatic one.
func (c *ReportCache) InvalidateAll(org string) (int, error) {
	prefix := fmt.Sprintf("%s-%s-", namespace, org)
	res, err := c.db.Exec(`DELETE FROM report_cache WHERE cache_key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate entries for org %s: %w", org, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// SweepExpired deletes every entry in this cache's namespace whose expiry
// has passed, and returns how many were removed.
func (c *ReportCache) SweepExpired() (int, error) {
	res, err := c.db.Exec(
		`DELETE FROM report_cache WHERE cache_key LIKE ? ESCAPE '\' AND expires_at < ?`,
		escapeLike(namespace+"-")+"%", c.now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Status reports entry counts and the age range of the cache contents.
func (c *ReportCache) Status() (Status, error) {
	var st Status
	now := c.now().UnixMilli()

	row := c.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(expires_at < ?), 0) FROM report_cache WHERE cache_key LIKE ? ESCAPE '\'`,
		now, escapeLike(namespace+"-")+"%",
	)
	if err := row.Scan(&st.Entries, &st.Expired); err != nil {
		return st, fmt.Errorf("failed to read cache status: %w", err)
	}
	if st.Entries == 0 {
		return st, nil
	}

	var oldest, newest int64
	row = c.db.QueryRow(
		`SELECT MIN(created_at), MAX(created_at) FROM report_cache WHERE cache_key LIKE ? ESCAPE '\'`,
		escapeLike(namespace+"-")+"%",
	)
	if err := row.Scan(&oldest, &newest); err != nil {
		return st, fmt.Errorf("failed to read cache status: %w", err)
	}
	st.Oldest = time.UnixMilli(oldest)
	st.Newest = time.UnixMilli(newest)
	return st, nil
}

// Close closes the underlying database.
func (c *ReportCache) Close() error {
	return c.db.Close()
}

func (c *ReportCache) delete(key string) {
	if _, err := c.db.Exec(`DELETE FROM report_cache WHERE cache_key = ?`, key); err != nil {
		c.logger.Printf("cache: delete failed for %s: %v", key, err)
	}
}

// escapeLike escapes LIKE wildcards so keys containing % or _ cannot widen
// a prefix scan.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
