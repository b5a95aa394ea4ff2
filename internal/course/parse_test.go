// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package course

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestParse_WellFormedDocument(t *testing.T) {
	ev, err := Parse(readFixture(t, "workshop.yml"))
	require.NoError(t, err)

	assert.Equal(t, "Úvod do Pythonu", ev.Title)
	assert.Equal(t, "Brno, Impact Hub", ev.Place)
	assert.Equal(t, true, ev.Vars["pyladies"])
	require.NotNil(t, ev.DefaultTime)
	assert.Equal(t, "9:00", ev.DefaultTime.Start)

	require.Len(t, ev.Plan, 3)
	morning := ev.Plan[0]
	assert.Equal(t, "morning", morning.Slug)
	assert.Equal(t, Date("2024-03-02"), morning.Date)
	require.NotNil(t, morning.Time)
	assert.Equal(t, "12:30", morning.Time.End)
	require.Len(t, morning.Materials, 4)
	assert.Equal(t, "fast-track/list", morning.Materials[2].Lesson)
	assert.Equal(t, MaterialLesson, morning.Materials[2].Kind())

	sheet := morning.Materials[3]
	assert.Equal(t, MaterialInline, sheet.Kind())
	assert.Equal(t, "cheatsheet", sheet.Type)
	assert.Equal(t, "https://pyvec.github.io/cheatsheets/lists/lists-cs.pdf", sheet.Link())

	nullURL := ev.Plan[1].Materials[2]
	assert.True(t, nullURL.HasURL)
	assert.Nil(t, nullURL.URL)
	assert.Equal(t, MaterialInline, nullURL.Kind())

	assert.Equal(t, "materiály pro samostudium", ev.Plan[2].Extra["organizer_note"])
}

func TestParse_DefaultsVarsToEmptyMapping(t *testing.T) {
	ev, err := Parse([]byte("title: T\nplan:\n- title: A\n  slug: a\n"))
	require.NoError(t, err)
	assert.NotNil(t, ev.Vars)
	assert.Empty(t, ev.Vars)
	assert.Nil(t, ev.Plan[0].Materials)
}

func TestParse_NonStringKeysEncodeToJSON(t *testing.T) {
	doc := `
title: T
vars:
  grid: {1: a, true: b}
plan:
- title: A
  slug: a
  room: {2: x}
  materials:
  - lesson: a/b
    notes: [{3: y}]
`
	ev, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"1": "a", "true": "b"}, ev.Vars["grid"])
	assert.Equal(t, map[string]any{"2": "x"}, ev.Plan[0].Extra["room"])
	assert.Equal(t, []any{map[string]any{"3": "y"}}, ev.Plan[0].Materials[0].Extra["notes"])

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"grid":{"1":"a","true":"b"}`)

	out, err := Marshal(ev)
	require.NoError(t, err)
	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, ev.Vars, again.Vars)
}

func TestParse_FatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		field   string
	}{
		{"not yaml", "title: [unclosed", ErrMalformed, ""},
		{"empty document", "", ErrMalformed, ""},
		{"scalar root", "just a string", ErrMalformed, ""},
		{"two documents", "title: A\nplan: [{title: a, slug: a}]\n---\ntitle: B\n", ErrMalformed, ""},
		{"missing plan", "title: Workshop\n", ErrMissingField, "plan"},
		{"null plan", "title: Workshop\nplan:\n", ErrMissingField, "plan"},
		{"missing title", "plan:\n- title: a\n  slug: a\n", ErrMissingField, "title"},
		{"blank title", "title: '  '\nplan:\n- title: a\n  slug: a\n", ErrMissingField, "title"},
		{"empty plan", "title: Workshop\nplan: []\n", ErrEmptyPlan, ""},
		{"plan mapping", "title: Workshop\nplan:\n  a: b\n", ErrMalformed, ""},
		{"material scalar", "title: W\nplan:\n- title: a\n  slug: a\n  materials:\n  - fast-track/list\n", ErrMalformed, ""},
		{"lesson not scalar", "title: W\nplan:\n- title: a\n  slug: a\n  materials:\n  - lesson: [x]\n", ErrMalformed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, ev)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			if tt.field != "" {
				var fe *FieldError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, tt.field, fe.Field)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	docs := map[string][]byte{
		"fixture": readFixture(t, "workshop.yml"),
		"minimal": []byte("title: T\nplan:\n- title: A\n  slug: a\n  materials: []\nvars: {}\n"),
		"extras":  []byte("title: T\nfuture_key: {nested: [1, 2]}\nplan:\n- title: A\n  slug: a\n  materials:\n  - lesson: x/y\n    note: keep me\n"),
	}

	for name, data := range docs {
		t.Run(name, func(t *testing.T) {
			first, err := Parse(data)
			require.NoError(t, err)

			out, err := Marshal(first)
			require.NoError(t, err)

			second, err := Parse(out)
			require.NoError(t, err, "re-parse of:\n%s", out)

			if diff := cmp.Diff(first, second, cmp.AllowUnexported(Event{})); diff != "" {
				t.Errorf("round trip mismatch (-first +second):\n%s", diff)
			}

			again, err := Marshal(second)
			require.NoError(t, err)
			assert.Equal(t, string(out), string(again), "canonical output must be stable")
		})
	}
}

func TestMarshal_CanonicalShape(t *testing.T) {
	ev, err := Parse(readFixture(t, "workshop.yml"))
	require.NoError(t, err)

	out, err := Marshal(ev)
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, "date: 2024-03-02\n", "dates stay unquoted")
	assert.Contains(t, s, "url: null\n", "null url is preserved")
	assert.Contains(t, s, "- lesson: fast-track/install\n")
	assert.Contains(t, s, "organizer_note: materiály pro samostudium\n")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "info.yml")
	require.NoError(t, os.WriteFile(good, readFixture(t, "workshop.yml"), 0600))
	ev, err := Load(good)
	require.NoError(t, err)
	assert.Equal(t, good, ev.Source())

	bad := filepath.Join(dir, "info.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{}`), 0600))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}
