package api

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/thesavant42/icr-browser/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListConcurrency = 8
	defaultRegistryTimeout = 2 * time.Minute
)

// RegistryOptions configures access to a Registry v2 endpoint
type RegistryOptions struct {
	Username    string // basic auth; empty uses the docker keychain
	Password    string
	Insecure    bool // allow plain http
	Concurrency int  // parallel tag listings (0 = default)
}

// RegistryClient lists repositories and tags of a Registry v2 endpoint
type RegistryClient struct {
	registry    string
	nameOpts    []name.Option
	remoteOpts  []remote.Option
	concurrency int
	logger      *log.Logger
}

// NewRegistryClient creates a client for the given registry host
func NewRegistryClient(registry string, opts RegistryOptions, logger *log.Logger) *RegistryClient {
	if logger == nil {
		logger = log.Default()
	}

	var nameOpts []name.Option
	if opts.Insecure {
		nameOpts = append(nameOpts, name.Insecure)
	}

	remoteOpts := []remote.Option{remote.WithUserAgent("icr-browser")}
	if opts.Username != "" {
		remoteOpts = append(remoteOpts, remote.WithAuth(&authn.Basic{
			Username: opts.Username,
			Password: opts.Password,
		}))
	} else {
		remoteOpts = append(remoteOpts, remote.WithAuthFromKeychain(authn.DefaultKeychain))
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultListConcurrency
	}

	return &RegistryClient{
		registry:    registry,
		nameOpts:    nameOpts,
		remoteOpts:  remoteOpts,
		concurrency: concurrency,
		logger:      logger.WithPrefix("registry"),
	}
}

// Registry returns the registry host this client talks to
func (c *RegistryClient) Registry() string {
	return c.registry
}

// FetchListing returns every repository of the registry with its tags.
// Repositories keep the order reported by the catalog endpoint.
func (c *RegistryClient) FetchListing(ctx context.Context) (models.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRegistryTimeout)
	defer cancel()

	reg, err := name.NewRegistry(c.registry, c.nameOpts...)
	if err != nil {
		return models.Listing{}, fmt.Errorf("failed to parse registry %q: %w", c.registry, err)
	}

	c.logger.Debug("Listing repositories", "registry", c.registry)
	repos, err := remote.Catalog(ctx, reg, c.remoteOpts...)
	if err != nil {
		return models.Listing{}, fmt.Errorf("failed to list repositories: %w", err)
	}

	listing := models.Listing{Repositories: make([]models.Repository, len(repos))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, repoName := range repos {
		g.Go(func() error {
			tags, err := c.listTags(gctx, repoName)
			if err != nil {
				return err
			}
			listing.Repositories[i] = models.Repository{Repository: repoName, Tags: tags}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Listing{}, err
	}

	c.logger.Info("Fetched listing", "registry", c.registry, "repositories", len(repos))
	return listing, nil
}

func (c *RegistryClient) listTags(ctx context.Context, repoName string) ([]string, error) {
	repo, err := name.NewRepository(c.registry+"/"+repoName, c.nameOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse repository %q: %w", repoName, err)
	}

	opts := append([]remote.Option{remote.WithContext(ctx)}, c.remoteOpts...)
	tags, err := remote.List(repo, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags of %s: %w", repoName, err)
	}

	c.logger.Debug("Listed tags", "repository", repoName, "count", len(tags))
	return tags, nil
}
