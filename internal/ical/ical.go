// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ical exports the dated sessions of an event as an iCalendar feed.
package ical

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/dejvthedrummer/naucse.python.cz/internal/course"
	"github.com/dejvthedrummer/naucse.python.cz/internal/fsutil"
	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/metrics"
)

const productID = "naucse"

// Options control an export.
type Options struct {
	// Slug identifies the event in UIDs: <session-slug>@<slug>. A session
	// whose slug is blank or already used gets its plan index appended.
	Slug string
	// Location interprets session times. Defaults to course.DefaultTimezone.
	Location *time.Location
	// BaseURL, when set, links each session page as
	// <BaseURL>/<slug>/<session-slug>/.
	BaseURL string
	// Stamp is written as DTSTAMP. Defaults to the current time.
	Stamp time.Time
}

func (o Options) location() (*time.Location, error) {
	if o.Location != nil {
		return o.Location, nil
	}
	loc, err := time.LoadLocation(course.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("ical: load timezone: %w", err)
	}
	return loc, nil
}

// Build converts ev into a calendar. Sessions without a valid date are
// skipped. Dated sessions with a start and end time (own or the event's
// default_time) become timed events; the rest become all-day events.
func Build(ev *course.Event, opts Options) (*ics.Calendar, error) {
	loc, err := opts.location()
	if err != nil {
		return nil, err
	}
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	slug := opts.Slug
	if slug == "" {
		slug = "event"
	}

	cal := ics.NewCalendarFor(productID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetName(ev.Title)
	cal.SetXWRCalName(ev.Title)
	cal.SetXWRTimezone(loc.String())
	if ev.Description != "" {
		cal.SetXWRCalDesc(ev.Description)
	}

	used := make(map[string]bool, len(ev.Plan))
	for i, s := range ev.Plan {
		day, err := course.ParseDate(string(s.Date))
		if s.Date == "" || err != nil {
			continue
		}

		e := cal.AddEvent(uniqueUID(used, s.Slug, i) + "@" + slug)
		e.SetDtStampTime(stamp)
		e.SetSummary(s.Title)
		if ev.Place != "" {
			e.SetLocation(ev.Place)
		}
		if desc := describe(s); desc != "" {
			e.SetDescription(desc)
		}
		if opts.BaseURL != "" {
			e.SetURL(strings.TrimRight(opts.BaseURL, "/") + "/" + slug + "/" + s.Slug + "/")
		}

		start, okStart := s.StartTime(loc, ev.DefaultTime)
		end, okEnd := s.EndTime(loc, ev.DefaultTime)
		if okStart && okEnd && start.Before(end) {
			e.SetStartAt(start)
			e.SetEndAt(end)
			continue
		}
		e.SetAllDayStartAt(day)
		e.SetAllDayEndAt(day.AddDate(0, 0, 1))
	}
	return cal, nil
}

// uniqueUID returns the session part of a UID that is not in used yet and
// records it.
func uniqueUID(used map[string]bool, sessionSlug string, index int) string {
	base := sessionSlug
	if base == "" {
		base = "session"
	}
	uid := sessionSlug
	for n := 0; uid == "" || used[uid]; n++ {
		uid = fmt.Sprintf("%s-%d", base, index)
		if n > 0 {
			uid = fmt.Sprintf("%s-%d.%d", base, index, n)
		}
	}
	used[uid] = true
	return uid
}

// describe lists a session's materials one per line.
func describe(s course.Session) string {
	var lines []string
	for _, m := range s.Materials {
		switch m.Kind() {
		case course.MaterialLesson:
			lines = append(lines, "- "+m.Lesson)
		case course.MaterialInline:
			line := "- " + m.Title
			if link := m.Link(); link != "" {
				line += ": " + link
			}
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Write serializes the calendar for ev to w with CRLF line endings.
func Write(w io.Writer, ev *course.Event, opts Options) (int, error) {
	cal, err := Build(ev, opts)
	if err != nil {
		return 0, err
	}
	if err := cal.SerializeTo(w, ics.WithNewLineWindows); err != nil {
		return 0, fmt.Errorf("ical: serialize: %w", err)
	}
	return len(cal.Events()), nil
}

// Export writes the calendar to path atomically and returns the number of
// events written.
func Export(ctx context.Context, path string, ev *course.Event, opts Options) (int, error) {
	var n int
	err := fsutil.WriteFileAtomic(ctx, path, func(w io.Writer) error {
		var err error
		n, err = Write(w, ev, opts)
		return err
	})
	metrics.RecordCalendarExport(n, err)
	if err != nil {
		return 0, err
	}

	logger := log.FromContext(ctx)
	logger.Info().
		Str(log.FieldEvent, "ical.exported").
		Str(log.FieldPath, path).
		Int("events", n).
		Msg("calendar exported")
	return n, nil
}
