// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fixture    = "../../internal/course/testdata/workshop.yml"
	lessonsDir = "../../internal/catalog/testdata/lessons"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	t.Setenv("NAUCSE_CONFIG", "")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	res := runCLI(t, "", "version")
	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "naucse "), res.stdout)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"render"}},
		{"missing file", []string{"validate"}},
		{"unknown flag", []string{"validate", "--colour", fixture}},
		{"bad format", []string{"validate", "--format", "xml", fixture}},
		{"export without output", []string{"export", fixture}},
		{"fmt write and check", []string{"fmt", "--write", "--check", fixture}},
		{"unsupported extension", []string{"fmt", "course.json"}},
		{"bad log level", []string{"--log-level", "trace", "validate", fixture}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "", tt.args...)
			assert.Equal(t, exitUsage, res.code, "stdout=%s stderr=%s", res.stdout, res.stderr)
			assert.Contains(t, res.stderr, "naucse: ")
		})
	}
}

func TestValidate_Text(t *testing.T) {
	res := runCLI(t, "", "validate", fixture)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "✓")
	assert.Contains(t, res.stdout, "0 errors, 0 warnings")
}

func TestValidate_Invalid(t *testing.T) {
	bad := writeDoc(t, "info.yml", "title: T\nplan:\n- {title: A, slug: ''}\n")

	res := runCLI(t, "", "validate", fixture, bad)
	assert.Equal(t, exitInvalid, res.code)
	assert.Contains(t, res.stdout, "✗")
	assert.Contains(t, res.stdout, "2 documents checked, 1 invalid")
	assert.Empty(t, res.stderr)
}

func TestValidate_JSON(t *testing.T) {
	empty := writeDoc(t, "info.yml", "title: T\nplan: []\n")

	res := runCLI(t, "", "validate", "--format", "json", fixture, empty)
	assert.Equal(t, exitInvalid, res.code)

	var reports []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &reports), res.stdout)
	require.Len(t, reports, 2)
	assert.Equal(t, true, reports[0]["valid"])
	assert.Equal(t, false, reports[1]["valid"])
	assert.Equal(t, empty, reports[1]["path"], "order follows the arguments")
}

func TestValidate_Catalog(t *testing.T) {
	res := runCLI(t, "", "validate", "--format", "json", "--catalog", lessonsDir, fixture)
	require.Equal(t, exitOK, res.code, res.stderr)

	var reports []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &reports))
	// fast-track/list, dict and files are not in the test catalog.
	assert.Equal(t, float64(3), reports[0]["warnings"])
}

func TestValidate_MissingFile(t *testing.T) {
	res := runCLI(t, "", "validate", filepath.Join(t.TempDir(), "nope.yml"))
	assert.Equal(t, exitInvalid, res.code)
	assert.Contains(t, res.stderr, "nope.yml")
}

func TestFmt(t *testing.T) {
	path := writeDoc(t, "info.yml", "plan:\n- slug: a\n  title: A\ntitle:   T\n")

	res := runCLI(t, "", "fmt", "--check", path)
	assert.Equal(t, exitInvalid, res.code)
	assert.Contains(t, res.stderr, "not canonically formatted")

	res = runCLI(t, "", "fmt", path)
	require.Equal(t, exitOK, res.code, res.stderr)
	canonical := res.stdout
	assert.True(t, strings.HasPrefix(canonical, "title: T\n"), canonical)

	res = runCLI(t, "", "fmt", "--write", path)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Empty(t, res.stdout)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, canonical, string(written))

	res = runCLI(t, "", "fmt", "--check", path)
	assert.Equal(t, exitOK, res.code, res.stderr)
}

func TestFmt_Malformed(t *testing.T) {
	path := writeDoc(t, "info.yml", "title: [")
	res := runCLI(t, "", "fmt", path)
	assert.Equal(t, exitInvalid, res.code)
}

func TestSchema(t *testing.T) {
	res := runCLI(t, "", "schema")
	require.Equal(t, exitOK, res.code, res.stderr)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &doc))
	assert.Equal(t, "object", doc["type"])
}

func TestExport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "workshop.ics")

	res := runCLI(t, "", "export", fixture, "-o", out, "--slug", "brno")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "exported 2 events to "+out+"\n", res.stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "UID:afternoon@brno")

	res = runCLI(t, "", "export", fixture, "-o", "-")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "UID:morning@workshop", "slug defaults to the file stem")
}

func TestQuery(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"place", "Brno, Impact Hub"},
		{"plan.#.slug", `["morning","afternoon","homework"]`},
		{"plan.0.materials.0.lesson", "fast-track/install"},
		{"vars.pyladies", "true"},
		{"plan.#", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := runCLI(t, "", "query", fixture, tt.path)
			require.Equal(t, exitOK, res.code, res.stderr)
			assert.Equal(t, tt.want+"\n", res.stdout)
		})
	}

	res := runCLI(t, "", "query", fixture, "plan.9.slug")
	assert.Equal(t, exitInvalid, res.code)
	assert.Contains(t, res.stderr, "no value")
}

func TestCatalog_IndexListVerify(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")

	res := runCLI(t, "", "catalog", "index", lessonsDir, "--db", db)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "indexed 3 lessons")

	res = runCLI(t, "", "catalog", "list", "--db", db)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "fast-track/install")
	assert.Contains(t, res.stdout, "beginners/projects")
	assert.Contains(t, res.stdout, "LICENSE")
	assert.NotContains(t, res.stdout, "\t")

	res = runCLI(t, "", "catalog", "verify", "--db", db)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, ": ok")

	res = runCLI(t, "", "validate", "--catalog", db, fixture)
	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "3 warnings")
}

func TestPublish(t *testing.T) {
	store := t.TempDir()

	res := runCLI(t, "", "publish", fixture, "--store", store, "--slug", "brno-2024")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "published brno-2024 "), res.stdout)
	id := strings.Fields(res.stdout)[2]

	res = runCLI(t, "", "publish", fixture, "--store", store, "--slug", "brno-2024")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "unchanged brno-2024 "+id), res.stdout)

	res = runCLI(t, "title: T\nplan: []\n", "publish", "-", "--store", store, "--slug", "brno-2024")
	assert.Equal(t, exitInvalid, res.code)
	assert.Contains(t, res.stderr, "✗")

	res = runCLI(t, "", "publish", "-", "--store", store)
	assert.Equal(t, exitUsage, res.code, "stdin needs a slug")

	res = runCLI(t, "", "snapshots", "--store", store)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, id)
	assert.Contains(t, res.stdout, "Úvod do Pythonu")
	assert.Contains(t, res.stdout, "PUBLISHED")

	res = runCLI(t, "", "snapshots", "--store", store, "--show", id)
	require.Equal(t, exitOK, res.code, res.stderr)
	fixtureData, err := os.ReadFile(fixture)
	require.NoError(t, err)
	assert.Equal(t, string(fixtureData), res.stdout)
}

func TestConfigFile(t *testing.T) {
	cfgPath := writeDoc(t, "naucse.yml", "logLevel: debug\nunknownKey: 1\n")
	res := runCLI(t, "", "--config", cfgPath, "validate", fixture)
	assert.Equal(t, exitUsage, res.code)
	assert.Contains(t, res.stderr, "config")

	store := t.TempDir()
	cfgPath = writeDoc(t, "naucse.yml", "archive:\n  dir: "+store+"\n")
	res = runCLI(t, "", "--config", cfgPath, "publish", fixture, "--slug", "brno")
	require.Equal(t, exitOK, res.code, res.stderr)

	res = runCLI(t, "", "--config", cfgPath, "snapshots", "brno")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "brno")
}
