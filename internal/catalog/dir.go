// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/metrics"
)

const backendDir = "dir"

// lessonInfo is the subset of a lesson's info.yml the catalog reads.
type lessonInfo struct {
	Title    string               `yaml:"title"`
	License  string               `yaml:"license"`
	Subpages map[string]yaml.Node `yaml:"subpages"`
}

// DirCatalog reads a naucse lessons tree laid out as
// <root>/<area>/<name>/info.yml. The tree is scanned on first use and
// again after Rescan.
type DirCatalog struct {
	root string

	mu      sync.RWMutex
	scanned bool
	byRef   map[string]Lesson
}

// NewDirCatalog returns a catalog over root. The directory must exist.
func NewDirCatalog(root string) (*DirCatalog, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("catalog: %s is not a directory", root)
	}
	return &DirCatalog{root: filepath.Clean(root)}, nil
}

// Root returns the scanned directory.
func (d *DirCatalog) Root() string { return d.root }

// Rescan re-reads the tree.
func (d *DirCatalog) Rescan(ctx context.Context) error {
	lessons, err := Scan(ctx, d.root)
	if err != nil {
		return err
	}
	byRef := make(map[string]Lesson, len(lessons))
	for _, l := range lessons {
		byRef[l.Ref] = l
	}

	d.mu.Lock()
	d.byRef = byRef
	d.scanned = true
	d.mu.Unlock()

	metrics.RecordCatalogSize(backendDir, len(byRef))
	return nil
}

func (d *DirCatalog) ensure(ctx context.Context) error {
	d.mu.RLock()
	scanned := d.scanned
	d.mu.RUnlock()
	if scanned {
		return nil
	}
	return d.Rescan(ctx)
}

func (d *DirCatalog) Lookup(ctx context.Context, ref string) (Lesson, bool, error) {
	if err := d.ensure(ctx); err != nil {
		return Lesson{}, false, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.byRef[ref]
	return l, ok, nil
}

func (d *DirCatalog) List(ctx context.Context) ([]Lesson, error) {
	if err := d.ensure(ctx); err != nil {
		return nil, err
	}
	d.mu.RLock()
	out := make([]Lesson, 0, len(d.byRef))
	for _, l := range d.byRef {
		out = append(out, l)
	}
	d.mu.RUnlock()
	sortLessons(out)
	return out, nil
}

// Scan walks root two levels deep and returns every lesson that has an
// info.yml, sorted by reference. Directories without info.yml are skipped;
// an info.yml that does not parse is an error.
func Scan(ctx context.Context, root string) ([]Lesson, error) {
	logger := log.WithComponent("catalog")

	areas, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", root, err)
	}

	var lessons []Lesson
	for _, area := range areas {
		if !area.IsDir() || area.Name()[0] == '.' {
			continue
		}
		names, err := os.ReadDir(filepath.Join(root, area.Name()))
		if err != nil {
			return nil, fmt.Errorf("catalog: read area %s: %w", area.Name(), err)
		}
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !name.IsDir() || name.Name()[0] == '.' {
				continue
			}
			dir := filepath.Join(root, area.Name(), name.Name())
			l, err := readLesson(dir)
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug().Str(log.FieldPath, dir).Msg("skipping directory without info.yml")
				continue
			}
			if err != nil {
				return nil, err
			}
			l.Ref = area.Name() + "/" + name.Name()
			lessons = append(lessons, l)
		}
	}

	sortLessons(lessons)
	logger.Info().
		Str(log.FieldEvent, "catalog.scanned").
		Str(log.FieldPath, root).
		Int("lessons", len(lessons)).
		Msg("lesson directory scanned")
	return lessons, nil
}

func readLesson(dir string) (Lesson, error) {
	path := filepath.Join(dir, "info.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return Lesson{}, err
	}
	var info lessonInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return Lesson{}, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	title := info.Title
	if title == "" {
		title = filepath.Base(dir)
	}
	return Lesson{
		Title:   title,
		Path:    dir,
		Pages:   1 + len(info.Subpages),
		License: info.License,
	}, nil
}
