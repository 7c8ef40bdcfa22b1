package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/raven/internal/news"
)

// File collects items from YAML fixture files in a directory. Used for
// offline runs and demos.
type File struct {
	name   string
	dir    string
	maxAge time.Duration
	logger log.Logger
}

// NewFile creates a file collector reading every *.yaml file under dir.
func NewFile(name, dir string, maxAgeDays int, logger log.Logger) *File {
	if logger == nil {
		logger = log.Nop()
	}
	return &File{
		name:   name,
		dir:    dir,
		maxAge: time.Duration(maxAgeDays) * 24 * time.Hour,
		logger: logger,
	}
}

// Name returns the source identifier stamped on collected items.
func (c *File) Name() string { return c.name }

type fileItem struct {
	Title         string    `yaml:"title"`
	Content       string    `yaml:"content"`
	URL           string    `yaml:"url"`
	PublishedDate time.Time `yaml:"published_date"`
	Categories    []string  `yaml:"categories"`
}

// Collect reads every fixture file, keeping items within the age cutoff.
// A malformed file is logged and skipped.
func (c *File) Collect(ctx context.Context) ([]*news.Item, error) {
	paths, err := filepath.Glob(filepath.Join(c.dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", c.dir, err)
	}

	cutoff := time.Now().UTC().Add(-c.maxAge)
	var items []*news.Item

	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			c.logger.Error(ctx, err, "failed to read fixture", "path", path)
			continue
		}

		var entries []fileItem
		if err := yaml.Unmarshal(raw, &entries); err != nil {
			c.logger.Error(ctx, err, "failed to parse fixture", "path", path)
			continue
		}

		for _, entry := range entries {
			if entry.PublishedDate.Before(cutoff) {
				continue
			}
			url := entry.URL
			if url == "" {
				url = "file://" + path
			}
			it := &news.Item{
				Source:        c.name,
				Title:         entry.Title,
				Content:       entry.Content,
				URL:           url,
				PublishedDate: entry.PublishedDate,
				Categories:    entry.Categories,
			}
			it.Normalize()
			items = append(items, it)
		}
	}

	c.logger.Info(ctx, "fixtures collected", "source", c.name, "files", len(paths), "kept", len(items))
	return items, nil
}
