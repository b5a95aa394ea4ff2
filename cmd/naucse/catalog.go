// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dejvthedrummer/naucse.python.cz/internal/catalog"
	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
)

const defaultIndexPath = ".naucse/catalog.db"

func (a *app) indexPath(flag string) string {
	switch {
	case flag != "":
		return flag
	case a.cfg.Catalog.DB != "":
		return a.cfg.Catalog.DB
	default:
		return defaultIndexPath
	}
}

func (a *app) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the lesson catalog index",
		Args:  positional(cobra.NoArgs),
	}
	cmd.AddCommand(a.catalogIndexCommand(), a.catalogListCommand(), a.catalogVerifyCommand())
	return cmd
}

func (a *app) catalogIndexCommand() *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "index [DIR]",
		Short: "Scan a lessons directory into the SQLite index",
		Args:  positional(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := a.cfg.Catalog.Dir
			if len(args) == 1 {
				root = args[0]
			}
			if root == "" {
				return usageError(errors.New("no lessons directory: pass DIR or set catalog.dir"))
			}
			path := a.indexPath(db)

			sc, err := catalog.OpenSQLite(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer sc.Close()

			n, err := sc.Index(cmd.Context(), root)
			if err != nil {
				return err
			}
			logger := log.WithComponent("cli")
			logger.Info().Str(log.FieldEvent, "catalog.indexed").Str(log.FieldPath, path).Int("lessons", n).Msg("catalog indexed")
			fmt.Fprintf(a.stdout, "indexed %s from %s into %s\n", plural(n, "lesson"), root, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "index file (default catalog.db or "+defaultIndexPath+")")
	return cmd
}

func (a *app) catalogListCommand() *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogued lessons",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			explicit := db
			if explicit == "" && a.cfg.Catalog.DB == "" && a.cfg.Catalog.Dir == "" {
				explicit = defaultIndexPath
			}
			cat, closeCatalog, err := a.openCatalog(cmd.Context(), explicit)
			if err != nil {
				return err
			}
			defer func() { _ = closeCatalog() }()

			lessons, err := cat.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(lessons))
			for _, l := range lessons {
				rows = append(rows, []string{l.Ref, l.Title, strconv.Itoa(l.Pages), l.License})
			}
			return newStyles(a.stdout).renderTable(a.stdout, []string{"REF", "TITLE", "PAGES", "LICENSE"}, rows)
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "index file or lessons directory")
	return cmd
}

func (a *app) catalogVerifyCommand() *cobra.Command {
	var (
		db   string
		full bool
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the integrity of the SQLite index",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.indexPath(db)
			sc, err := catalog.OpenSQLite(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer sc.Close()

			problems, err := sc.Verify(cmd.Context(), full)
			if err != nil {
				return err
			}
			if len(problems) > 0 {
				for _, p := range problems {
					fmt.Fprintln(a.stderr, p)
				}
				return errInvalid
			}
			fmt.Fprintf(a.stdout, "%s: ok\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "index file")
	cmd.Flags().BoolVar(&full, "full", false, "run a full integrity_check instead of quick_check")
	return cmd
}
