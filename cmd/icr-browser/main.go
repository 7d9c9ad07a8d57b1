package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/icr-browser/internal/api"
	"github.com/thesavant42/icr-browser/internal/app"
	"github.com/thesavant42/icr-browser/internal/config"
	"github.com/thesavant42/icr-browser/internal/db"
	"github.com/thesavant42/icr-browser/internal/host"
	"github.com/thesavant42/icr-browser/internal/ui"
)

func main() {
	cfg := config.Load()

	registryFlag := flag.String("registry", cfg.Registry, "Registry host to browse")
	fileFlag := flag.String("file", "", "Read the listing from a JSON file instead of the registry")
	watchFlag := flag.Bool("watch", false, "Reload the -file listing when it changes")
	offlineFlag := flag.Bool("offline", false, "Only use the cached listing")
	hostFlag := flag.String("host", cfg.Host, "Container runtime: docker, cli or none")
	dbFlag := flag.String("db", cfg.CachePath(), "Path to the SQLite listing cache")
	loginFlag := flag.Bool("login", false, "Prompt for registry credentials")
	insecureFlag := flag.Bool("insecure", false, "Talk to the registry over plain http")
	flag.Parse()
	cfg.Registry = *registryFlag

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
	defer closeLog()

	if *loginFlag {
		creds, err := ui.PromptForCredentials(cfg.Registry, cfg.Username)
		if err != nil {
			ui.PrintError(err.Error())
			os.Exit(1)
		}
		cfg.Username, cfg.Password = creds.Username, creds.Password
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := db.New(*dbFlag)
	if err != nil {
		ui.PrintError(fmt.Sprintf("Failed to open listing cache: %v", err))
		os.Exit(1)
	}
	defer cache.Close()

	runtime := selectHost(ctx, *hostFlag, api.DockerOptions{
		Registry: cfg.Registry,
		Username: cfg.Username,
		Password: cfg.Password,
	}, logger)
	notifier := ui.NewProgramNotifier(logger)

	opts := app.Options{
		Rules:    cfg.Rules(),
		Cache:    cache,
		Host:     runtime,
		Notifier: notifier,
		Logger:   logger,
	}
	var fileSource *api.FileSource
	switch {
	case *fileFlag != "":
		fileSource = api.NewFileSource(*fileFlag, logger)
		opts.Source = fileSource
	case !*offlineFlag:
		opts.Source = api.NewRegistryClient(cfg.Registry, api.RegistryOptions{
			Username: cfg.Username,
			Password: cfg.Password,
			Insecure: *insecureFlag,
		}, logger)
		opts.Store = true
	}
	coordinator := app.New(opts)

	if fileSource != nil && *watchFlag {
		logger.Info("Reloading listing on change", "path", fileSource.Path())
		go func() {
			err := fileSource.Watch(ctx, func() {
				if err := coordinator.Refresh(ctx); err != nil {
					logger.Warn("Reload failed", "err", err)
				}
			})
			if err != nil {
				logger.Error("Watch stopped", "err", err)
			}
		}()
	}

	err = ui.RunBrowser(ctx, coordinator, notifier, ui.BrowserOptions{MajorWidth: cfg.MajorWidth})
	coordinator.Tracker().Wait()
	if err != nil && ctx.Err() == nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

// openLogger logs to a file in the data dir; the terminal belongs to the TUI
func openLogger(cfg *config.Config) (*log.Logger, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{
		Level:           cfg.LogLevel,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "icr",
	})
	return logger, func() { f.Close() }, nil
}

// selectHost picks the container runtime backend; anything unreachable
// falls back to NopHost so browsing still works
func selectHost(ctx context.Context, name string, dockerOpts api.DockerOptions, logger *log.Logger) host.Host {
	switch name {
	case config.HostNone:
		return host.NopHost{}
	case config.HostCLI:
		h := api.NewCLIHost("docker", logger)
		if !h.Available() {
			logger.Warn("docker CLI not found, pull and delete disabled")
			return host.NopHost{}
		}
		return h
	default:
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		h, err := api.NewDockerHost(pingCtx, dockerOpts, logger)
		if err != nil {
			logger.Warn("Docker daemon unavailable, pull and delete disabled", "err", err)
			return host.NopHost{}
		}
		return h
	}
}
