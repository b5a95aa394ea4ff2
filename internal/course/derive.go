// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package course

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "time/tzdata" // hosts without /usr/share/zoneinfo
)

// DefaultTimezone is the zone session times are interpreted in unless configured otherwise.
const DefaultTimezone = "Europe/Prague"

const dateLayout = "2006-01-02"

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// Before reports whether c is strictly earlier than other.
func (c Clock) Before(other Clock) bool {
	return c.Hour*60+c.Minute < other.Hour*60+other.Minute
}

// ParseClock parses "H:MM" or "HH:MM".
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(mm) != 2 || len(hh) == 0 || len(hh) > 2 {
		return Clock{}, fmt.Errorf("invalid time of day %q (want HH:MM)", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("invalid minute in %q", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// ParseDate parses a "YYYY-MM-DD" calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// StartDate returns the earliest session date, if any session has a valid one.
func (e *Event) StartDate() (time.Time, bool) {
	return e.dateBound(func(a, b time.Time) bool { return a.Before(b) })
}

// EndDate returns the latest session date, if any session has a valid one.
func (e *Event) EndDate() (time.Time, bool) {
	return e.dateBound(func(a, b time.Time) bool { return a.After(b) })
}

func (e *Event) dateBound(better func(a, b time.Time) bool) (time.Time, bool) {
	var out time.Time
	found := false
	for _, s := range e.Plan {
		if s.Date == "" {
			continue
		}
		d, err := ParseDate(string(s.Date))
		if err != nil {
			continue
		}
		if !found || better(d, out) {
			out = d
			found = true
		}
	}
	return out, found
}

// StartTime combines the session date with its own start time, falling back
// to def. It reports false for undated sessions or when no time is known.
func (s Session) StartTime(loc *time.Location, def *TimeRange) (time.Time, bool) {
	return s.combine(loc, def, func(r *TimeRange) string { return r.Start })
}

// EndTime is the counterpart of StartTime.
func (s Session) EndTime(loc *time.Location, def *TimeRange) (time.Time, bool) {
	return s.combine(loc, def, func(r *TimeRange) string { return r.End })
}

func (s Session) combine(loc *time.Location, def *TimeRange, pick func(*TimeRange) string) (time.Time, bool) {
	if s.Date == "" {
		return time.Time{}, false
	}
	d, err := ParseDate(string(s.Date))
	if err != nil {
		return time.Time{}, false
	}

	r := s.Time
	if r == nil {
		r = def
	}
	if r == nil {
		return time.Time{}, false
	}
	c, err := ParseClock(pick(r))
	if err != nil {
		return time.Time{}, false
	}

	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour, c.Minute, 0, 0, loc), true
}

// SessionBySlug returns the first session with the given slug.
func (e *Event) SessionBySlug(slug string) (*Session, bool) {
	for i := range e.Plan {
		if e.Plan[i].Slug == slug {
			return &e.Plan[i], true
		}
	}
	return nil, false
}

// Neighbours returns the sessions before and after index i in the plan.
func (e *Event) Neighbours(i int) (prev, next *Session) {
	if i < 0 || i >= len(e.Plan) {
		return nil, nil
	}
	if i > 0 {
		prev = &e.Plan[i-1]
	}
	if i+1 < len(e.Plan) {
		next = &e.Plan[i+1]
	}
	return prev, next
}

// LessonLink is a lesson material with its neighbours among the lesson
// materials of the same session. Inline links are skipped when linking.
type LessonLink struct {
	Material *Material
	Prev     *Material
	Next     *Material
}

// LessonMaterials returns the session's lesson materials in order, linked to
// their previous and next lesson.
func (s *Session) LessonMaterials() []LessonLink {
	var seq []*Material
	for i := range s.Materials {
		if s.Materials[i].Kind() == MaterialLesson {
			seq = append(seq, &s.Materials[i])
		}
	}

	out := make([]LessonLink, len(seq))
	for i, m := range seq {
		out[i].Material = m
		if i > 0 {
			out[i].Prev = seq[i-1]
		}
		if i+1 < len(seq) {
			out[i].Next = seq[i+1]
		}
	}
	return out
}

// LessonRefs lists every referenced lesson once, in plan order.
func (e *Event) LessonRefs() []string {
	seen := make(map[string]struct{})
	var refs []string
	for _, s := range e.Plan {
		for _, m := range s.Materials {
			if m.Lesson == "" {
				continue
			}
			if _, ok := seen[m.Lesson]; ok {
				continue
			}
			seen[m.Lesson] = struct{}{}
			refs = append(refs, m.Lesson)
		}
	}
	return refs
}
