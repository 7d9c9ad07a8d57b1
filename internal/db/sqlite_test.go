package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thesavant42/icr-browser/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(filepath.Join(t.TempDir(), "cache", "icr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestLoadListingMiss(t *testing.T) {
	d := openTestDB(t)
	_, err := d.LoadListing("containers.intersystems.com")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestSaveAndLoadListing(t *testing.T) {
	d := openTestDB(t)
	listing := models.Listing{Repositories: []models.Repository{
		{Repository: "intersystems/iris", Tags: []string{"2024.1", "latest"}},
	}}

	require.NoError(t, d.SaveListing("containers.intersystems.com", listing))
	cached, err := d.LoadListing("containers.intersystems.com")
	require.NoError(t, err)
	require.Equal(t, "containers.intersystems.com", cached.Registry)
	require.Equal(t, listing, cached.Listing)
	require.WithinDuration(t, time.Now(), cached.FetchedAt, time.Minute)

	// a second save replaces the first
	listing.Repositories = append(listing.Repositories, models.Repository{Repository: "intersystems/webgateway", Tags: []string{"2024.1"}})
	require.NoError(t, d.SaveListing("containers.intersystems.com", listing))
	cached, err = d.LoadListing("containers.intersystems.com")
	require.NoError(t, err)
	require.Len(t, cached.Listing.Repositories, 2)
}

func TestListCachedAndDelete(t *testing.T) {
	d := openTestDB(t)
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	require.NoError(t, d.saveListingAt("a.example.com", models.Listing{}, older))
	require.NoError(t, d.saveListingAt("b.example.com", models.Listing{Repositories: []models.Repository{{Repository: "x/y"}}}, newer))

	entries, err := d.ListCached()
	require.NoError(t, err)
	require.Equal(t, []CacheEntry{
		{Registry: "b.example.com", Repositories: 1, FetchedAt: newer},
		{Registry: "a.example.com", Repositories: 0, FetchedAt: older},
	}, entries)

	require.NoError(t, d.DeleteListing("b.example.com"))
	_, err = d.LoadListing("b.example.com")
	require.ErrorIs(t, err, ErrCacheMiss)
}
