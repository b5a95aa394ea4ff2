// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package archive

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejvthedrummer/naucse.python.cz/internal/lint"
	"github.com/dejvthedrummer/naucse.python.cz/internal/validate"
)

const validDoc = "title: Workshop\nplan:\n- title: Úvod\n  slug: intro\n"

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory(lint.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	base := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return s
}

func TestPublish_CreatesSnapshot(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	snap, created, err := s.Publish(ctx, "pyladies-brno", []byte(validDoc))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "Workshop", snap.Title)
	assert.Equal(t, 1, snap.Sessions)
	assert.Len(t, snap.SHA256, 64)
	assert.Equal(t, validDoc, string(snap.YAML))

	got, err := s.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.True(t, snap.PublishedAt.Equal(got.PublishedAt))
}

func TestPublish_IdenticalContentIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	first, created, err := s.Publish(ctx, "ev", []byte(validDoc))
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := s.Publish(ctx, "ev", []byte(validDoc))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	list, err := s.List(ctx, "ev")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPublish_RevertToOlderContent(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	edited := validDoc + "subtitle: druhá verze\n"

	a1, _, err := s.Publish(ctx, "ev", []byte(validDoc))
	require.NoError(t, err)
	_, _, err = s.Publish(ctx, "ev", []byte(edited))
	require.NoError(t, err)

	a2, created, err := s.Publish(ctx, "ev", []byte(validDoc))
	require.NoError(t, err)
	assert.True(t, created, "content differs from the latest snapshot")
	assert.NotEqual(t, a1.ID, a2.ID)
	assert.Equal(t, a1.SHA256, a2.SHA256)

	latest, err := s.Latest(ctx, "ev")
	require.NoError(t, err)
	assert.Equal(t, a2.ID, latest.ID)

	list, err := s.List(ctx, "ev")
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestPublish_SameContentOtherSlug(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	a, _, err := s.Publish(ctx, "a", []byte(validDoc))
	require.NoError(t, err)
	b, created, err := s.Publish(ctx, "b", []byte(validDoc))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestPublish_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	tests := []struct {
		name string
		doc  string
		code string
	}{
		{"fatal", "title: T\n", validate.CodeMissingField},
		{"content error", "title: T\nplan:\n- {title: A, slug: ''}\n", validate.CodeEmptySlug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.Publish(ctx, "ev", []byte(tt.doc))
			require.ErrorIs(t, err, ErrInvalidDocument)

			var rejected *RejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Positive(t, rejected.Report.Count(tt.code))
		})
	}

	_, err := s.Latest(ctx, "ev")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublish_WarningsDoNotBlock(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	doc := "title: T\nplan:\n- {title: A, slug: a}\n- {title: B, slug: a}\n"
	snap, created, err := s.Publish(ctx, "ev", []byte(doc))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, snap.Warnings)
}

func TestPublish_InvalidSlug(t *testing.T) {
	s := openTest(t)
	for _, slug := range []string{"", "a:b", "../x", "-lead"} {
		_, _, err := s.Publish(context.Background(), slug, []byte(validDoc))
		assert.ErrorIs(t, err, ErrInvalidSlug, slug)
	}
}

func TestLatestAndList(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	v1, _, err := s.Publish(ctx, "ev", []byte(validDoc))
	require.NoError(t, err)
	v2, _, err := s.Publish(ctx, "ev", []byte(validDoc+"subtitle: druhá verze\n"))
	require.NoError(t, err)
	other, _, err := s.Publish(ctx, "ev-2", []byte(validDoc))
	require.NoError(t, err)

	latest, err := s.Latest(ctx, "ev")
	require.NoError(t, err)
	assert.Equal(t, v2.ID, latest.ID)
	assert.NotEmpty(t, latest.YAML)

	list, err := s.List(ctx, "ev")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{v2.ID, v1.ID}, []string{list[0].ID, list[1].ID})
	assert.Nil(t, list[0].YAML)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, other.ID, all[0].ID)
}

func TestGet_NotFound(t *testing.T) {
	s := openTest(t)
	_, err := s.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, lint.Options{})
	require.NoError(t, err)
	snap, _, err := s.Publish(ctx, "ev", []byte(validDoc))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir, lint.Options{})
	require.NoError(t, err)
	defer s.Close()
	latest, err := s.Latest(ctx, "ev")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, latest.ID)
}

func TestPublish_Fixture(t *testing.T) {
	data, err := os.ReadFile("../course/testdata/workshop.yml")
	require.NoError(t, err)

	s := openTest(t)
	snap, created, err := s.Publish(context.Background(), "workshop", data)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 3, snap.Sessions)
}

func TestSlugFromPath(t *testing.T) {
	assert.Equal(t, "pyladies-brno", SlugFromPath("courses/pyladies-brno/info.yml"))
	assert.Equal(t, "workshop", SlugFromPath("testdata/workshop.yml"))
	assert.Equal(t, "jaro", SlugFromPath("jaro.yaml"))
}
