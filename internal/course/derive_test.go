// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package course

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"9:00", Clock{9, 0}, false},
		{"09:05", Clock{9, 5}, false},
		{"23:59", Clock{23, 59}, false},
		{"24:00", Clock{}, true},
		{"12:60", Clock{}, true},
		{"12", Clock{}, true},
		{"12:5", Clock{}, true},
		{"ab:cd", Clock{}, true},
		{"", Clock{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("2024-03-02")
	assert.NoError(t, err)

	for _, bad := range []string{"2024-13-01", "2.3.2024", "2024-02-30", ""} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestEvent_DateBounds(t *testing.T) {
	ev := &Event{Plan: []Session{
		{Slug: "a", Date: "2024-03-09"},
		{Slug: "b"},
		{Slug: "c", Date: "2024-03-02"},
		{Slug: "d", Date: "not-a-date"},
	}}

	start, ok := ev.StartDate()
	require.True(t, ok)
	assert.Equal(t, "2024-03-02", start.Format(dateLayout))

	end, ok := ev.EndDate()
	require.True(t, ok)
	assert.Equal(t, "2024-03-09", end.Format(dateLayout))

	_, ok = (&Event{Plan: []Session{{Slug: "x"}}}).StartDate()
	assert.False(t, ok)
}

func TestSession_Times(t *testing.T) {
	loc, err := time.LoadLocation(DefaultTimezone)
	require.NoError(t, err)
	def := &TimeRange{Start: "9:00", End: "17:00"}

	own := Session{Date: "2024-03-02", Time: &TimeRange{Start: "13:30", End: "16:00"}}
	start, ok := own.StartTime(loc, def)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 2, 13, 30, 0, 0, loc), start)
	assert.Equal(t, "12:30", start.UTC().Format("15:04"))

	inherited := Session{Date: "2024-03-02"}
	end, ok := inherited.EndTime(loc, def)
	require.True(t, ok)
	assert.Equal(t, 17, end.Hour())

	_, ok = inherited.StartTime(loc, nil)
	assert.False(t, ok, "no session time and no default")

	undated := Session{Time: &TimeRange{Start: "9:00", End: "10:00"}}
	_, ok = undated.StartTime(loc, def)
	assert.False(t, ok, "undated sessions have no absolute time")
}

func TestEvent_Navigation(t *testing.T) {
	ev, err := Parse(readFixture(t, "workshop.yml"))
	require.NoError(t, err)

	prev, next := ev.Neighbours(0)
	assert.Nil(t, prev)
	require.NotNil(t, next)
	assert.Equal(t, "afternoon", next.Slug)

	prev, next = ev.Neighbours(2)
	require.NotNil(t, prev)
	assert.Equal(t, "afternoon", prev.Slug)
	assert.Nil(t, next)

	s, ok := ev.SessionBySlug("afternoon")
	require.True(t, ok)
	links := s.LessonMaterials()
	require.Len(t, links, 2, "inline links are not part of the lesson sequence")
	assert.Nil(t, links[0].Prev)
	assert.Equal(t, "fast-track/files", links[0].Next.Lesson)
	assert.Equal(t, "fast-track/dict", links[1].Prev.Lesson)

	assert.Equal(t, []string{
		"fast-track/install", "fast-track/python", "fast-track/list",
		"fast-track/dict", "fast-track/files", "beginners/projects",
	}, ev.LessonRefs())
}

func TestMaterial_Kind(t *testing.T) {
	url := "https://example.org"
	tests := []struct {
		name string
		m    Material
		want MaterialKind
	}{
		{"lesson", Material{Lesson: "a/b"}, MaterialLesson},
		{"lesson with type", Material{Lesson: "a/b", Type: "extra"}, MaterialLesson},
		{"inline", Material{Title: "x", URL: &url, HasURL: true}, MaterialInline},
		{"inline null url", Material{Title: "x", HasURL: true}, MaterialInline},
		{"both", Material{Lesson: "a/b", Title: "x", URL: &url, HasURL: true}, MaterialAmbiguous},
		{"lesson and title", Material{Lesson: "a/b", Title: "x"}, MaterialAmbiguous},
		{"neither", Material{Type: "cheatsheet"}, MaterialEmpty},
		{"url only", Material{URL: &url, HasURL: true}, MaterialEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Kind())
		})
	}
}
