// Package ionamecache keeps outcomes of taxonomic lookups in a SQLite
// file, so names resolved in one run are not sent to the authority again.
package ionamecache

import (
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gnames/dwcheck/pkg/taxon"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnuuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS names (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	payload TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Cache is a read-through and write-through layer over a memory cache.
// Names are found in memory first, then in the database. Database
// failures are logged and the cache keeps working from memory.
// LookupFailed outcomes are never written to the database.
type Cache struct {
	db   *sql.DB
	mem  taxon.Cache
	path string
	enc  gnfmt.GNjson
}

var _ taxon.Cache = (*Cache)(nil)

// Open opens or creates the cache database at path. If mem is nil an
// unbounded memory cache is used.
func Open(path string, mem taxon.Cache) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, OpenError(path, errors.New("empty path"))
	}
	if mem == nil {
		mem = taxon.NewCache(0)
	}

	dsn := filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, OpenError(path, err)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, OpenError(path, err)
	}
	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, OpenError(path, err)
	}

	res := &Cache{db: db, mem: mem, path: path}
	slog.Info("Opened name cache", "path", path, "names", res.Len())
	return res, nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.path
}

// Get returns the cached outcome of a name.
func (c *Cache) Get(name string) (taxon.TaxonName, bool) {
	if res, ok := c.mem.Get(name); ok {
		return res, true
	}

	var res taxon.TaxonName
	var payload string
	err := c.db.QueryRow(
		"SELECT payload FROM names WHERE id = ?", key(name),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return res, false
	}
	if err != nil {
		slog.Warn("Cannot read name cache", "name", name, "error", err)
		return res, false
	}

	if err = c.enc.Decode([]byte(payload), &res); err != nil {
		slog.Warn("Cannot decode cached name", "name", name, "error", err)
		return res, false
	}
	// the id is a hash, guard against collisions
	if res.Name != name {
		return taxon.TaxonName{}, false
	}
	c.mem.Set(res)
	return res, true
}

// Set stores the outcome in memory and, if it is definitive, in the
// database.
func (c *Cache) Set(tn taxon.TaxonName) {
	c.mem.Set(tn)
	if !tn.IsDefinitive() {
		return
	}

	payload, err := c.enc.Encode(tn)
	if err != nil {
		slog.Warn("Cannot encode name", "name", tn.Name, "error", err)
		return
	}
	_, err = c.db.Exec(`
		INSERT INTO names (id, name, status, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		key(tn.Name), tn.Name, tn.Status.String(), string(payload),
		time.Now().Unix(),
	)
	if err != nil {
		slog.Warn("Cannot write name cache", "name", tn.Name, "error", err)
	}
}

// Remove forgets a name.
func (c *Cache) Remove(name string) {
	c.mem.Remove(name)
	if _, err := c.db.Exec("DELETE FROM names WHERE id = ?", key(name)); err != nil {
		slog.Warn("Cannot remove cached name", "name", name, "error", err)
	}
}

// Len returns the number of names in the database.
func (c *Cache) Len() int {
	var res int
	if err := c.db.QueryRow("SELECT count(*) FROM names").Scan(&res); err != nil {
		slog.Warn("Cannot count cached names", "error", err)
		return c.mem.Len()
	}
	return res
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func key(name string) string {
	return gnuuid.New(name).String()
}
