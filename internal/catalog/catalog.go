// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package catalog resolves lesson references ("area/name") against a lesson
// library: a naucse lessons directory, a SQLite index of one, or a fixed
// in-memory set.
package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/dejvthedrummer/naucse.python.cz/internal/metrics"
	"github.com/dejvthedrummer/naucse.python.cz/internal/validate"
)

// ErrNotFound is returned by MustLookup for unknown references.
var ErrNotFound = errors.New("lesson not found")

// Lesson is one entry of the lesson library.
type Lesson struct {
	Ref     string `json:"ref"`
	Title   string `json:"title"`
	Path    string `json:"path,omitempty"`
	Pages   int    `json:"pages"`
	License string `json:"license,omitempty"`
}

// Catalog is a read-only lesson library.
type Catalog interface {
	Lookup(ctx context.Context, ref string) (Lesson, bool, error)
	List(ctx context.Context) ([]Lesson, error)
}

// MustLookup is Lookup with a missing lesson reported as ErrNotFound.
func MustLookup(ctx context.Context, c Catalog, ref string) (Lesson, error) {
	l, ok, err := c.Lookup(ctx, ref)
	if err != nil {
		return Lesson{}, err
	}
	if !ok {
		return Lesson{}, ErrNotFound
	}
	return l, nil
}

// Resolver adapts a Catalog to validate.LessonResolver and counts lookups
// under the given backend label.
func Resolver(c Catalog, backend string) validate.LessonResolver {
	return resolver{c: c, backend: backend}
}

type resolver struct {
	c       Catalog
	backend string
}

func (r resolver) HasLesson(ctx context.Context, ref string) (bool, error) {
	_, ok, err := r.c.Lookup(ctx, ref)
	switch {
	case err != nil:
		metrics.IncCatalogLookup(r.backend, "error")
	case ok:
		metrics.IncCatalogLookup(r.backend, "found")
	default:
		metrics.IncCatalogLookup(r.backend, "missing")
	}
	return ok, err
}

func sortLessons(ls []Lesson) {
	sort.Slice(ls, func(i, j int) bool { return ls[i].Ref < ls[j].Ref })
}
