package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thesavant42/icr-browser/internal/models"

	_ "modernc.org/sqlite"
)

// ErrCacheMiss is returned when no listing is stored for a registry
var ErrCacheMiss = errors.New("no cached listing")

const timeFormat = time.RFC3339Nano

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// CacheEntry summarizes one cached registry listing
type CacheEntry struct {
	Registry     string
	Repositories int
	FetchedAt    time.Time
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// the app and the watcher may write concurrently
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(createListingsTable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create listings schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveListing stores the raw listing of registry, replacing any previous one
func (db *DB) SaveListing(registry string, listing models.Listing) error {
	return db.saveListingAt(registry, listing, time.Now().UTC())
}

func (db *DB) saveListingAt(registry string, listing models.Listing, fetchedAt time.Time) error {
	payload, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to encode listing: %w", err)
	}
	_, err = db.conn.Exec(upsertListing, registry, string(payload), len(listing.Repositories), fetchedAt.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}
	return nil
}

// LoadListing returns the cached listing of registry, or ErrCacheMiss
func (db *DB) LoadListing(registry string) (*models.CachedListing, error) {
	var payload, fetchedAt string
	err := db.conn.QueryRow(selectListing, registry).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}

	cached := &models.CachedListing{Registry: registry}
	if err := json.Unmarshal([]byte(payload), &cached.Listing); err != nil {
		return nil, fmt.Errorf("failed to decode cached listing: %w", err)
	}
	cached.FetchedAt, _ = time.Parse(timeFormat, fetchedAt)
	return cached, nil
}

// ListCached returns every cached registry, most recently fetched first
func (db *DB) ListCached() ([]CacheEntry, error) {
	rows, err := db.conn.Query(selectCachedRegistries)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}
	defer rows.Close()

	var entries []CacheEntry
	for rows.Next() {
		var e CacheEntry
		var fetchedAt string
		if err := rows.Scan(&e.Registry, &e.Repositories, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		e.FetchedAt, _ = time.Parse(timeFormat, fetchedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteListing drops the cached listing of registry
func (db *DB) DeleteListing(registry string) error {
	if _, err := db.conn.Exec(deleteListing, registry); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return nil
}
