package cache

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func setupTestCache(t *testing.T) *ReportCache {
	t.Helper()
	c, err := Open(":memory:", log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// rowCount inspects storage directly, bypassing the Get expiry logic.
func rowCount(t *testing.T, c *ReportCache, key string) int {
	t.Helper()
	var n int
	row := c.db.QueryRow(`SELECT COUNT(*) FROM report_cache WHERE cache_key = ?`, key)
	require.NoError(t, row.Scan(&n))
	return n
}

func TestReportCache_RoundTrip(t *testing.T) {
	c := setupTestCache(t)
	in := testPayload{Name: "repo-a", Count: 3, Tags: []string{"go", "cli"}}

	c.Put("acme", "cleanup", in, 1)

	var out testPayload
	require.True(t, c.Get("acme", "cleanup", &out))
	assert.Equal(t, in, out)
}

func TestReportCache_ExpiryRemovesEntry(t *testing.T) {
	c := setupTestCache(t)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Put("acme", "cleanup", testPayload{Name: "x"}, 2)

	// Stored expiry must be creation + ttlHours.
	var expiresAt int64
	row := c.db.QueryRow(`SELECT expires_at FROM report_cache WHERE cache_key = ?`, Key("acme", "cleanup"))
	require.NoError(t, row.Scan(&expiresAt))
	assert.Equal(t, base.Add(2*time.Hour).UnixMilli(), expiresAt)

	// Just before expiry: still a hit.
	c.now = func() time.Time { return base.Add(2*time.Hour - time.Minute) }
	var out testPayload
	assert.True(t, c.Get("acme", "cleanup", &out))

	// Past expiry: a miss, and the row is gone afterwards.
	c.now = func() time.Time { return base.Add(2*time.Hour + time.Minute) }
	assert.False(t, c.Get("acme", "cleanup", &out))
	assert.Zero(t, rowCount(t, c, Key("acme", "cleanup")))
}

func TestReportCache_KeyIsolation(t *testing.T) {
	c := setupTestCache(t)
	c.Put("org-a", "cleanup", testPayload{Name: "a"}, 1)

	var out testPayload
	assert.False(t, c.Get("org-b", "cleanup", &out), "different org must miss")
	assert.False(t, c.Get("org-a", "security", &out), "different report type must miss")
	assert.True(t, c.Get("org-a", "cleanup", &out))
}

func TestReportCache_KeyIsPure(t *testing.T) {
	assert.Equal(t, Key("acme", "cleanup"), Key("acme", "cleanup"))
	assert.Equal(t, "orgalyser-acme-cleanup", Key("acme", "cleanup"))
	assert.NotEqual(t, Key("acme", "cleanup"), Key("acme", "security"))
}

func TestReportCache_CorruptEntryIsDeleted(t *testing.T) {
	c := setupTestCache(t)
	key := Key("acme", "cleanup")
	_, err := c.db.Exec(
		`INSERT INTO report_cache (cache_key, cache_value, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		key, []byte("not json"), time.Now().UnixMilli(), time.Now().Add(time.Hour).UnixMilli(),
	)
	require.NoError(t, err)

	var out testPayload
	assert.False(t, c.Get("acme", "cleanup", &out))
	assert.Zero(t, rowCount(t, c, key))
}

func TestReportCache_Invalidate(t *testing.T) {
	c := setupTestCache(t)
	c.Put("acme", "cleanup", testPayload{Name: "x"}, 1)

	require.NoError(t, c.Invalidate("acme", "cleanup"))

	var out testPayload
	assert.False(t, c.Get("acme", "cleanup", &out))
}

func TestReportCache_InvalidateAll(t *testing.T) {
	c := setupTestCache(t)
	c.Put("acme", "cleanup", testPayload{Name: "a"}, 1)
	c.Put("acme", "security", testPayload{Name: "b"}, 1)
	c.Put("other", "cleanup", testPayload{Name: "c"}, 1)

	n, err := c.InvalidateAll("acme")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var out testPayload
	assert.False(t, c.Get("acme", "cleanup", &out))
	assert.False(t, c.Get("acme", "security", &out))
	assert.True(t, c.Get("other", "cleanup", &out), "other orgs must be untouched")
}

func TestReportCache_SweepExpired(t *testing.T) {
	c := setupTestCache(t)
	base := time.Now()

	c.now = func() time.Time { return base.Add(-3 * time.Hour) }
	c.Put("acme", "cleanup", testPayload{Name: "old"}, 1) // expired 2h ago
	c.now = func() time.Time { return base }
	c.Put("acme", "security", testPayload{Name: "live"}, 1)

	n, err := c.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Zero(t, rowCount(t, c, Key("acme", "cleanup")))
	assert.Equal(t, 1, rowCount(t, c, Key("acme", "security")))
}

func TestReportCache_Status(t *testing.T) {
	c := setupTestCache(t)
	base := time.Now()
	c.now = func() time.Time { return base.Add(-2 * time.Hour) }
	c.Put("acme", "cleanup", testPayload{Name: "old"}, 1)
	c.now = func() time.Time { return base }
	c.Put("acme", "security", testPayload{Name: "live"}, 1)

	st, err := c.Status()
	require.NoError(t, err)
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, 1, st.Expired)
	assert.True(t, st.Oldest.Before(st.Newest))
}

func TestReportCache_SweepIgnoresForeignNamespace(t *testing.T) {
	c := setupTestCache(t)
	// A row outside our namespace in a shared database file.
	_, err := c.db.Exec(
		`INSERT INTO report_cache (cache_key, cache_value, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		"other-app-key", []byte("{}"), int64(0), int64(0),
	)
	require.NoError(t, err)

	n, err := c.SweepExpired()
	require.NoError(t, err)
	assert.Zero(t, n)

	var count int
	row := c.db.QueryRow(`SELECT COUNT(*) FROM report_cache`)
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 1, count)
}

func TestReportCache_GetMissingReturnsFalse(t *testing.T) {
	c := setupTestCache(t)
	var out testPayload
	assert.False(t, c.Get("acme", "cleanup", &out))
	// A closed database must read as a miss, not a panic.
	require.NoError(t, c.db.Close())
	assert.False(t, c.Get("acme", "cleanup", &out))
}
