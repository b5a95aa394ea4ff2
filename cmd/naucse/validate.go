// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dejvthedrummer/naucse.python.cz/internal/lint"
	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/validate"
)

func (a *app) validateCommand() *cobra.Command {
	var (
		lenient     bool
		catalogPath string
		format      string
	)
	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check course documents",
		Long: `Validate parses each document, checks it against the structural schema
and the content rules, and prints the findings. Lesson references are
checked against the catalog when one is configured.`,
		Args: positional(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return usageError(fmt.Errorf("invalid --format %q: want text or json", format))
			}
			ctx := cmd.Context()

			cat, closeCatalog, err := a.openCatalog(ctx, catalogPath)
			if err != nil {
				return err
			}
			defer func() { _ = closeCatalog() }()

			opts := lint.Options{
				Options: validate.Options{
					LenientMaterials: lenient || a.cfg.LenientMaterials,
					Resolver:         a.resolver(cat),
				},
				Source: "cli",
			}

			reports := make([]validate.Report, len(args))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(runtime.GOMAXPROCS(0))
			for i, path := range args {
				g.Go(func() error {
					report, _, err := lint.LintFile(gctx, path, opts)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					reports[i] = report
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			valid := true
			for _, r := range reports {
				valid = valid && r.Valid()
			}

			logger := log.WithComponent("cli")
			logger.Debug().
				Str(log.FieldEvent, "validate.done").
				Int("documents", len(reports)).
				Bool(log.FieldValid, valid).
				Msg("validation finished")

			if format == "json" {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(reports); err != nil {
					return err
				}
			} else {
				st := newStyles(a.stdout)
				for _, r := range reports {
					st.renderReport(a.stdout, r)
				}
				if len(reports) > 1 {
					st.renderSummary(a.stdout, reports)
				}
			}

			if !valid {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&lenient, "lenient", false, "report materials with neither lesson nor title as warnings")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "lesson catalog: a lessons directory or a SQLite index")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}
