package db

const createListingsTable = `
CREATE TABLE IF NOT EXISTS registry_listings (
    registry TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    repository_count INTEGER NOT NULL DEFAULT 0,
    fetched_at TEXT NOT NULL
);
`

const upsertListing = `
INSERT INTO registry_listings (registry, payload, repository_count, fetched_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(registry) DO UPDATE SET
    payload = excluded.payload,
    repository_count = excluded.repository_count,
    fetched_at = excluded.fetched_at
`

const selectListing = `
SELECT payload, fetched_at FROM registry_listings WHERE registry = ?
`

const selectCachedRegistries = `
SELECT registry, repository_count, fetched_at FROM registry_listings
ORDER BY fetched_at DESC
`

const deleteListing = `
DELETE FROM registry_listings WHERE registry = ?
`
