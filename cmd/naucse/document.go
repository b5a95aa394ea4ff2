// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/dejvthedrummer/naucse.python.cz/internal/archive"
	"github.com/dejvthedrummer/naucse.python.cz/internal/course"
	"github.com/dejvthedrummer/naucse.python.cz/internal/fsutil"
	"github.com/dejvthedrummer/naucse.python.cz/internal/ical"
	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/schema"
)

// loadEvent reads and parses path, mapping parse failures to exit code 1.
func loadEvent(path string) ([]byte, *course.Event, error) {
	data, err := course.ReadFile(path)
	if err != nil {
		if errors.Is(err, course.ErrUnsupportedFormat) {
			return nil, nil, usageError(err)
		}
		return nil, nil, err
	}
	ev, err := course.ParseFile(path, data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, ev, nil
}

func (a *app) fmtCommand() *cobra.Command {
	var write, check bool
	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Rewrite a course document in canonical form",
		Long: `Fmt prints the document with canonical key order, quoting and
indentation. With --write the file is replaced atomically; with --check
nothing is written and the exit code reports whether the file is canonical.`,
		Args: positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if write && check {
				return usageError(errors.New("--write and --check are mutually exclusive"))
			}
			path := args[0]
			data, ev, err := loadEvent(path)
			if err != nil {
				return err
			}
			out, err := course.Marshal(ev)
			if err != nil {
				return err
			}

			switch {
			case check:
				if !bytes.Equal(data, out) {
					fmt.Fprintf(a.stderr, "%s is not canonically formatted\n", path)
					return errInvalid
				}
				return nil
			case write:
				if bytes.Equal(data, out) {
					return nil
				}
				if err := fsutil.WriteBytesAtomic(cmd.Context(), path, out); err != nil {
					return err
				}
				logger := log.WithComponent("cli")
				logger.Info().Str(log.FieldEvent, "fmt.written").Str(log.FieldPath, path).Msg("document reformatted")
				return nil
			default:
				_, err := a.stdout.Write(out)
				return err
			}
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the file in place")
	cmd.Flags().BoolVar(&check, "check", false, "exit 1 if the file is not canonical")
	return cmd
}

func (a *app) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "schema",
		Short:       "Print the JSON Schema of course documents",
		Args:        positional(cobra.NoArgs),
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := schema.MarshalSchema()
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(append(data, '\n'))
			return err
		},
	}
}

func (a *app) exportCommand() *cobra.Command {
	var output, slug, baseURL string
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export dated sessions as an iCalendar file",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return usageError(errors.New("--output is required"))
			}
			path := args[0]
			_, ev, err := loadEvent(path)
			if err != nil {
				return err
			}
			loc, err := a.cfg.Location()
			if err != nil {
				return err
			}
			if slug == "" {
				slug = archive.SlugFromPath(path)
			}
			if baseURL == "" {
				baseURL = a.cfg.API.BaseURL
			}
			opts := ical.Options{Slug: slug, Location: loc, BaseURL: baseURL}

			if output == "-" {
				_, err := ical.Write(a.stdout, ev, opts)
				return err
			}
			n, err := ical.Export(cmd.Context(), output, ev, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "exported %s to %s\n", plural(n, "event"), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	cmd.Flags().StringVar(&slug, "slug", "", "event slug used in UIDs and links (default from the file path)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "link sessions to <base-url>/<slug>/<session>/")
	return cmd
}

func (a *app) queryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query FILE PATH",
		Short: "Extract a value from a course document",
		Long: `Query converts the parsed document to JSON and evaluates a gjson path
against it, e.g. "plan.#.slug" or "plan.0.materials.#.lesson". Strings are
printed bare; other values as JSON.`,
		Args: positional(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ev, err := loadEvent(args[0])
			if err != nil {
				return err
			}
			doc, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			if !gjson.ValidBytes(doc) {
				return errors.New("query: document did not encode to valid JSON")
			}

			res := gjson.GetBytes(doc, args[1])
			if !res.Exists() {
				fmt.Fprintf(a.stderr, "no value at %q\n", args[1])
				return errInvalid
			}
			out := res.Raw
			if res.Type == gjson.String {
				out = res.Str
			}
			_, err = fmt.Fprintln(a.stdout, out)
			return err
		},
	}
}

// readInput reads path, or stdin for "-".
func (a *app) readInput(path string) ([]byte, error) {
	if path == "-" {
		var buf bytes.Buffer
		_, err := buf.ReadFrom(a.stdin)
		return buf.Bytes(), err
	}
	// #nosec G304 -- document paths come from the command line
	return os.ReadFile(path)
}
