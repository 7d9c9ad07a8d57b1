package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/log"
	"github.com/thesavant42/icr-browser/internal/api"
	"github.com/thesavant42/icr-browser/internal/app"
	"github.com/thesavant42/icr-browser/internal/catalog"
	"github.com/thesavant42/icr-browser/internal/config"
	"github.com/thesavant42/icr-browser/internal/db"
	"github.com/thesavant42/icr-browser/internal/models"
	"github.com/thesavant42/icr-browser/internal/ui"
)

type imageTags struct {
	Image  string   `json:"image"`
	Public bool     `json:"public"`
	Tags   []string `json:"tags"`
}

func main() {
	cfg := config.Load()

	registryFlag := flag.String("registry", cfg.Registry, "Registry host to list")
	fileFlag := flag.String("file", "", "Read the listing from a JSON file instead of the registry")
	offlineFlag := flag.Bool("offline", false, "Only use the cached listing")
	dbFlag := flag.String("db", cfg.CachePath(), "Path to the SQLite listing cache")
	kindFlag := flag.String("kind", string(models.KindPrimary), "Image kind: primary or tools")
	rootFlag := flag.String("root", catalog.PublicRoot, "Registry namespace")
	communityFlag := flag.Bool("community", true, "Community edition (primary images only)")
	archFlag := flag.String("arch", models.ArchAMD64, "Architecture: amd64 or arm64")
	majorFlag := flag.Bool("major", true, "Only the newest tag per major version")
	nameFlag := flag.String("name", "", "Image name substring")
	tagFlag := flag.String("tag", "", "Tag substring")
	jsonFlag := flag.Bool("json", false, "Print JSON")
	cachedFlag := flag.Bool("cached", false, "List the cached registry listings and exit")
	clearFlag := flag.Bool("clear-cache", false, "Drop the cached listing of -registry and exit")
	flag.Parse()
	cfg.Registry = *registryFlag

	logger := log.NewWithOptions(os.Stderr, log.Options{Level: cfg.LogLevel, Prefix: "icr-tags"})

	kind := models.Kind(*kindFlag)
	if kind != models.KindPrimary && kind != models.KindTools {
		ui.PrintError(fmt.Sprintf("unknown kind %q", *kindFlag))
		os.Exit(2)
	}
	if *archFlag != models.ArchAMD64 && *archFlag != models.ArchARM64 {
		ui.PrintError(fmt.Sprintf("unknown architecture %q", *archFlag))
		os.Exit(2)
	}

	cache, err := db.New(*dbFlag)
	if err != nil {
		ui.PrintError(fmt.Sprintf("Failed to open listing cache: %v", err))
		os.Exit(1)
	}
	defer cache.Close()

	switch {
	case *cachedFlag:
		if err := printCache(os.Stdout, cache); err != nil {
			ui.PrintError(err.Error())
			os.Exit(1)
		}
		return
	case *clearFlag:
		found, err := clearCache(cache, cfg.Registry)
		if err != nil {
			ui.PrintError(err.Error())
			os.Exit(1)
		}
		if found {
			ui.PrintSuccess("Cleared cached listing of " + cfg.Registry)
		} else {
			ui.PrintSuccess("No cached listing for " + cfg.Registry)
		}
		return
	}

	opts := app.Options{Rules: cfg.Rules(), Cache: cache, Logger: logger}
	title := "Reading cached listing of " + cfg.Registry + "..."
	switch {
	case *fileFlag != "":
		source := api.NewFileSource(*fileFlag, logger)
		opts.Source = source
		title = "Reading " + source.Path() + "..."
	case !*offlineFlag:
		client := api.NewRegistryClient(cfg.Registry, api.RegistryOptions{
			Username: cfg.Username,
			Password: cfg.Password,
		}, logger)
		opts.Source = client
		opts.Store = true
		title = "Listing " + client.Registry() + "..."
	}
	coordinator := app.New(opts)

	ctx := context.Background()
	var loadErr error
	err = spinner.New().
		Title(title).
		Action(func() { loadErr = coordinator.Load(ctx) }).
		Run()
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
	if loadErr != nil && coordinator.Generation() == 0 {
		ui.PrintError(loadErr.Error())
		os.Exit(1)
	}

	images := coordinator.Filter(models.ImageFilter{
		Kind:        kind,
		Root:        *rootFlag,
		Community:   *communityFlag,
		Arch:        *archFlag,
		UniqueMajor: *majorFlag,
		MajorWidth:  cfg.MajorWidth,
		Name:        *nameFlag,
		Tag:         *tagFlag,
	})

	if *jsonFlag {
		out := make([]imageTags, 0, len(images))
		for _, img := range images {
			out = append(out, imageTags{Image: img.FullName, Public: img.PublicAccess, Tags: img.Tags})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			ui.PrintError(err.Error())
			os.Exit(1)
		}
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, img := range images {
		for _, tag := range img.Tags {
			fmt.Fprintf(w, "%s\t%s\n", img.FullName, tag)
		}
	}
	w.Flush()
}
