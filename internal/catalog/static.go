// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import "context"

// Static is an immutable in-memory catalog.
type Static struct {
	byRef map[string]Lesson
}

// NewStatic builds a catalog from lessons. Later duplicates win.
func NewStatic(lessons ...Lesson) *Static {
	s := &Static{byRef: make(map[string]Lesson, len(lessons))}
	for _, l := range lessons {
		s.byRef[l.Ref] = l
	}
	return s
}

// Refs builds a catalog of bare references, for tests and fixtures.
func Refs(refs ...string) *Static {
	ls := make([]Lesson, 0, len(refs))
	for _, r := range refs {
		ls = append(ls, Lesson{Ref: r, Title: r, Pages: 1})
	}
	return NewStatic(ls...)
}

func (s *Static) Lookup(ctx context.Context, ref string) (Lesson, bool, error) {
	if err := ctx.Err(); err != nil {
		return Lesson{}, false, err
	}
	l, ok := s.byRef[ref]
	return l, ok, nil
}

func (s *Static) List(ctx context.Context) ([]Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Lesson, 0, len(s.byRef))
	for _, l := range s.byRef {
		out = append(out, l)
	}
	sortLessons(out)
	return out, nil
}
