package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"github.com/thesavant42/icr-browser/internal/db"
)

// printCache lists the cached registry listings
func printCache(w io.Writer, cache *db.DB) error {
	entries, err := cache.ListCached()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REGISTRY\tREPOSITORIES\tFETCHED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Registry, e.Repositories, e.FetchedAt.Local().Format(time.RFC3339))
	}
	return tw.Flush()
}

// clearCache drops the cached listing of registry and reports whether one existed
func clearCache(cache *db.DB, registry string) (bool, error) {
	entries, err := cache.ListCached()
	if err != nil {
		return false, err
	}
	if !lo.ContainsBy(entries, func(e db.CacheEntry) bool { return e.Registry == registry }) {
		return false, nil
	}
	return true, cache.DeleteListing(registry)
}
