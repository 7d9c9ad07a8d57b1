package app

// coordinator.go wires the listing sources, the catalog engine and the pull
// state tracker together. The UI and the CLI only talk to a Coordinator.

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/distribution/reference"
	"github.com/samber/lo"
	"github.com/thesavant42/icr-browser/internal/catalog"
	"github.com/thesavant42/icr-browser/internal/db"
	"github.com/thesavant42/icr-browser/internal/host"
	"github.com/thesavant42/icr-browser/internal/models"
	"github.com/thesavant42/icr-browser/internal/pullstate"
	"golang.org/x/sync/errgroup"
)

// ErrNoSource is returned by Refresh when running from the cache only
var ErrNoSource = errors.New("no listing source configured")

// ListingSource produces a raw registry listing
type ListingSource interface {
	FetchListing(ctx context.Context) (models.Listing, error)
}

// ListingCache persists the last good listing per registry
type ListingCache interface {
	LoadListing(registry string) (*models.CachedListing, error)
	SaveListing(registry string, listing models.Listing) error
}

// Options configures a Coordinator
type Options struct {
	Rules    catalog.Rules
	Source   ListingSource // nil runs from the cache only
	Cache    ListingCache  // optional
	Store    bool          // save successful fetches to Cache
	Host     host.Host
	Notifier host.Notifier
	Logger   *log.Logger
}

type filterMemo struct {
	generation uint64
	filter     models.ImageFilter
	result     []models.Image
}

// Coordinator owns the current catalog and the pull state of a session
type Coordinator struct {
	rules    catalog.Rules
	source   ListingSource
	cache    ListingCache
	store    bool
	host     host.Host
	tracker  *pullstate.Tracker
	notifier host.Notifier
	logger   *log.Logger

	mu         sync.RWMutex
	images     []models.Image
	generation uint64
	loadedAt   time.Time
	memo       *filterMemo
	onCatalog  func(generation uint64)
}

// New creates a coordinator; nothing is loaded until Load is called
func New(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	h := opts.Host
	if h == nil {
		h = host.NopHost{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = host.LogNotifier{Logger: logger}
	}
	if opts.Rules.Registry == "" {
		opts.Rules = catalog.DefaultRules()
	}

	return &Coordinator{
		rules:    opts.Rules,
		source:   opts.Source,
		cache:    opts.Cache,
		store:    opts.Store,
		host:     h,
		tracker:  pullstate.NewTracker(h, notifier, logger),
		notifier: notifier,
		logger:   logger.WithPrefix("app"),
	}
}

// Registry returns the registry host images are classified under
func (c *Coordinator) Registry() string {
	return c.rules.Registry
}

// Tracker exposes the pull state of the session
func (c *Coordinator) Tracker() *pullstate.Tracker {
	return c.tracker
}

// OnCatalog registers fn to be called after every catalog replacement
func (c *Coordinator) OnCatalog(fn func(generation uint64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCatalog = fn
}

// Load publishes the cached listing if there is one, then fetches a fresh
// listing while seeding the pull state from the local runtime. The returned
// error is the fetch error; the previous catalog stays in place on failure.
func (c *Coordinator) Load(ctx context.Context) error {
	c.loadCache()

	if c.source == nil {
		if err := c.SeedLocal(ctx); err != nil {
			c.logger.Warn("Failed to list local images", "err", err)
		}
		if c.Generation() == 0 {
			return fmt.Errorf("%w and nothing cached for %s", ErrNoSource, c.rules.Registry)
		}
		return nil
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := c.SeedLocal(ctx); err != nil {
			c.logger.Warn("Failed to list local images", "err", err)
			c.notifier.Notify(host.LevelError, "Failed to list local images")
		}
		return nil
	})
	g.Go(func() error {
		return c.Refresh(ctx)
	})
	return g.Wait()
}

func (c *Coordinator) loadCache() {
	if c.cache == nil {
		return
	}
	cached, err := c.cache.LoadListing(c.rules.Registry)
	if errors.Is(err, db.ErrCacheMiss) {
		c.logger.Debug("No cached listing", "registry", c.rules.Registry)
		return
	}
	if err != nil {
		c.logger.Warn("Failed to read listing cache", "err", err)
		return
	}
	if err := c.publish(cached.Listing, cached.FetchedAt); err != nil {
		c.logger.Warn("Ignoring invalid cached listing", "err", err)
		return
	}
	c.logger.Info("Loaded cached listing", "registry", c.rules.Registry, "fetched_at", cached.FetchedAt)
}

// Refresh fetches the listing from the source and replaces the catalog
func (c *Coordinator) Refresh(ctx context.Context) error {
	if c.source == nil {
		return ErrNoSource
	}

	listing, err := c.source.FetchListing(ctx)
	if err != nil {
		c.logger.Error("Failed to fetch listing", "err", err)
		c.notifier.Notify(host.LevelError, "Failed to load images from "+c.rules.Registry)
		return err
	}

	if err := c.publish(listing, time.Now()); err != nil {
		c.logger.Error("Rejected listing", "err", err)
		c.notifier.Notify(host.LevelError, "Registry listing is invalid: "+err.Error())
		return err
	}

	if c.store && c.cache != nil {
		if err := c.cache.SaveListing(c.rules.Registry, listing); err != nil {
			c.logger.Warn("Failed to cache listing", "err", err)
		}
	}
	return nil
}

func (c *Coordinator) publish(listing models.Listing, loadedAt time.Time) error {
	images, err := catalog.Normalize(listing, c.rules)
	if err != nil {
		return fmt.Errorf("failed to normalize listing: %w", err)
	}

	c.mu.Lock()
	c.images = images
	c.generation++
	c.loadedAt = loadedAt
	gen, fn := c.generation, c.onCatalog
	c.mu.Unlock()

	c.logger.Debug("Published catalog", "generation", gen, "images", len(images))
	if fn != nil {
		fn(gen)
	}
	return nil
}

// SeedLocal marks every local image of the configured registry as pulled
func (c *Coordinator) SeedLocal(ctx context.Context) error {
	refs, err := c.host.ListLocalImages(ctx)
	if err != nil {
		return err
	}
	keys := lo.FilterMap(refs, func(ref string, _ int) (string, bool) {
		return c.localKey(ref)
	})
	c.logger.Debug("Seeding local images", "local", len(refs), "matched", len(keys))
	c.tracker.Seed(keys)
	return nil
}

// localKey maps a local ref to a tracker key when it belongs to the registry
func (c *Coordinator) localKey(ref string) (string, bool) {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", false
	}
	tagged, ok := named.(reference.Tagged)
	if !ok || reference.Domain(named) != c.rules.Registry {
		return "", false
	}
	return pullstate.Key(named.Name(), tagged.Tag()), true
}

// Images returns the current catalog
func (c *Coordinator) Images() []models.Image {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.images)
}

// Generation increases with every catalog replacement; 0 means nothing loaded
func (c *Coordinator) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// LoadedAt is when the current catalog was fetched
func (c *Coordinator) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Filter runs the filter engine over the current catalog. The last result
// is reused while neither the catalog nor the criteria change; callers must
// not modify it.
func (c *Coordinator) Filter(filter models.ImageFilter) []models.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.memo != nil && c.memo.generation == c.generation && c.memo.filter == filter {
		return c.memo.result
	}
	result := catalog.FilterImages(c.images, filter)
	c.memo = &filterMemo{generation: c.generation, filter: filter, result: result}
	return result
}

// LatestRef returns the newest public ref of the image called name
func (c *Coordinator) LatestRef(name, arch string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return catalog.LatestRef(c.images, name, arch)
}

// CanExecute reports whether pull and delete can run on this machine
func (c *Coordinator) CanExecute() bool {
	return c.tracker.CanExecute()
}

// Status returns the pull state of fullName:tag
func (c *Coordinator) Status(fullName, tag string) pullstate.Status {
	return c.tracker.Status(fullName, tag)
}

// Pull starts pulling fullName:tag
func (c *Coordinator) Pull(ctx context.Context, fullName, tag string) error {
	if err := validateRef(fullName, tag); err != nil {
		return err
	}
	return c.tracker.RequestPull(ctx, fullName, tag)
}

// Delete starts removing fullName:tag from the local runtime
func (c *Coordinator) Delete(ctx context.Context, fullName, tag string) error {
	if err := validateRef(fullName, tag); err != nil {
		return err
	}
	return c.tracker.RequestDelete(ctx, fullName, tag)
}

func validateRef(fullName, tag string) error {
	ref := pullstate.Key(fullName, tag)
	if _, err := reference.ParseNormalizedNamed(ref); err != nil {
		return fmt.Errorf("invalid image reference %q: %w", ref, err)
	}
	return nil
}
