package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/thesavant42/icr-browser/internal/models"
)

// DecodeListing parses a raw listing in `docker-ls repositories -j` format
func DecodeListing(data []byte) (models.Listing, error) {
	var listing models.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		return models.Listing{}, fmt.Errorf("failed to decode listing: %w", err)
	}
	return listing, nil
}

// FileSource reads a registry listing from a JSON file
type FileSource struct {
	path   string
	logger *log.Logger
}

// NewFileSource creates a listing source backed by path
func NewFileSource(path string, logger *log.Logger) *FileSource {
	if logger == nil {
		logger = log.Default()
	}
	return &FileSource{
		path:   filepath.Clean(path),
		logger: logger.WithPrefix("file"),
	}
}

// Path returns the listing file path
func (s *FileSource) Path() string {
	return s.path
}

// FetchListing reads and decodes the file
func (s *FileSource) FetchListing(_ context.Context) (models.Listing, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return models.Listing{}, fmt.Errorf("failed to read listing file: %w", err)
	}
	return DecodeListing(data)
}

// Watch calls onChange whenever the file is written or replaced, until ctx
// is done. The parent directory is watched so editors that rename a temp
// file over the original are noticed too.
func (s *FileSource) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}
	s.logger.Debug("Watching listing file", "path", s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				s.logger.Info("Listing file changed", "op", ev.Op.String())
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Watcher error", "err", err)
		}
	}
}
