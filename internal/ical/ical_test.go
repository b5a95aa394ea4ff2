// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ical

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejvthedrummer/naucse.python.cz/internal/course"
)

var stamp = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func loadFixture(t *testing.T) *course.Event {
	t.Helper()
	ev, err := course.Load("../course/testdata/workshop.yml")
	require.NoError(t, err)
	return ev
}

func prop(e *ics.VEvent, p ics.ComponentProperty) string {
	if v := e.GetProperty(p); v != nil {
		return v.Value
	}
	return ""
}

func TestBuild_Fixture(t *testing.T) {
	cal, err := Build(loadFixture(t), Options{Slug: "brno-2024", Stamp: stamp})
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2, "undated session is skipped")

	morning := events[0]
	assert.Equal(t, "morning@brno-2024", morning.Id())
	assert.Equal(t, "Dopolední blok", prop(morning, ics.ComponentPropertySummary))
	assert.Equal(t, "Brno, Impact Hub", prop(morning, ics.ComponentPropertyLocation))
	// 9:00 CET is 08:00 UTC.
	assert.Equal(t, "20240302T080000Z", prop(morning, ics.ComponentPropertyDtStart))
	assert.Equal(t, "20240302T113000Z", prop(morning, ics.ComponentPropertyDtEnd))
	assert.Equal(t, "20240201T120000Z", prop(morning, ics.ComponentPropertyDtstamp))

	afternoon := events[1]
	assert.Equal(t, "20240302T080000Z", prop(afternoon, ics.ComponentPropertyDtStart), "default_time applies")
	assert.Equal(t, "20240302T160000Z", prop(afternoon, ics.ComponentPropertyDtEnd))
}

func TestBuild_DescriptionListsMaterials(t *testing.T) {
	ev := &course.Event{
		Title: "T",
		Plan: []course.Session{{
			Title: "A", Slug: "a", Date: "2024-03-02",
			Materials: []course.Material{
				{Lesson: "beginners/install"},
				{Title: "Tahák", URL: ptr("https://example.org/t.pdf"), HasURL: true},
				{Title: "Co dál?", HasURL: true},
			},
		}},
	}
	cal, err := Build(ev, Options{Stamp: stamp})
	require.NoError(t, err)

	desc := prop(cal.Events()[0], ics.ComponentPropertyDescription)
	assert.Equal(t, "- beginners/install\n- Tahák: https://example.org/t.pdf\n- Co dál?", desc)
}

func TestBuild_AllDayWithoutTime(t *testing.T) {
	ev := &course.Event{
		Title: "T",
		Plan:  []course.Session{{Title: "A", Slug: "a", Date: "2024-03-02"}},
	}
	cal, err := Build(ev, Options{Stamp: stamp})
	require.NoError(t, err)

	e := cal.Events()[0]
	assert.Equal(t, "20240302", prop(e, ics.ComponentPropertyDtStart))
	assert.Equal(t, "20240303", prop(e, ics.ComponentPropertyDtEnd))
	assert.Equal(t, "a@event", e.Id())
}

func TestBuild_InvalidDateSkipped(t *testing.T) {
	ev := &course.Event{
		Title: "T",
		Plan: []course.Session{
			{Title: "A", Slug: "a", Date: "2024-02-30"},
			{Title: "B", Slug: "b", Date: "2024-03-01"},
		},
	}
	cal, err := Build(ev, Options{Stamp: stamp})
	require.NoError(t, err)
	require.Len(t, cal.Events(), 1)
	assert.Equal(t, "b@event", cal.Events()[0].Id())
}

func TestBuild_DuplicateSlugsGetDistinctUIDs(t *testing.T) {
	ev := &course.Event{
		Title: "T",
		Plan: []course.Session{
			{Title: "A", Slug: "intro", Date: "2024-03-01"},
			{Title: "B", Slug: "intro", Date: "2024-03-02"},
			{Title: "C", Slug: "intro-1", Date: "2024-03-03"},
			{Title: "D", Slug: "", Date: "2024-03-04"},
		},
	}
	cal, err := Build(ev, Options{Slug: "ev", Stamp: stamp})
	require.NoError(t, err)

	var ids []string
	for _, e := range cal.Events() {
		ids = append(ids, e.Id())
	}
	assert.Equal(t, []string{"intro@ev", "intro-1@ev", "intro-1-2@ev", "session-3@ev"}, ids)
}

func TestBuild_Location(t *testing.T) {
	utc := time.UTC
	cal, err := Build(loadFixture(t), Options{Slug: "x", Location: utc, Stamp: stamp})
	require.NoError(t, err)
	assert.Equal(t, "20240302T090000Z", prop(cal.Events()[0], ics.ComponentPropertyDtStart))
}

func TestBuild_URL(t *testing.T) {
	cal, err := Build(loadFixture(t), Options{Slug: "brno", BaseURL: "https://naucse.python.cz/course/", Stamp: stamp})
	require.NoError(t, err)
	assert.Equal(t, "https://naucse.python.cz/course/brno/morning/", prop(cal.Events()[0], ics.ComponentPropertyUrl))
}

func TestWrite_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	n, err := Write(&buf, loadFixture(t), Options{Slug: "brno", Stamp: stamp})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, strings.HasPrefix(buf.String(), "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, buf.String(), "X-WR-TIMEZONE:Europe/Prague")

	parsed, err := ics.ParseCalendar(&buf)
	require.NoError(t, err)
	require.Len(t, parsed.Events(), 2)
	start, err := parsed.Events()[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)))
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brno.ics")
	n, err := Export(context.Background(), path, loadFixture(t), Options{Slug: "brno", Stamp: stamp})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "UID:morning@brno")
}

func TestExport_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "brno.ics")
	_, err := Export(context.Background(), path, loadFixture(t), Options{Stamp: stamp})
	assert.Error(t, err)
}

func ptr(s string) *string { return &s }
