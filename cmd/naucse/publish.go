// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dejvthedrummer/naucse.python.cz/internal/archive"
	"github.com/dejvthedrummer/naucse.python.cz/internal/lint"
	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/validate"
)

func (a *app) storeDir(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.Archive.Dir
}

func (a *app) publishCommand() *cobra.Command {
	var (
		store       string
		slug        string
		catalogPath string
	)
	cmd := &cobra.Command{
		Use:   "publish FILE",
		Short: "Freeze a valid document as a read-only snapshot",
		Long: `Publish validates FILE (or stdin for -) and stores it in the snapshot
archive. Invalid documents are rejected. Publishing unchanged content again
returns the existing snapshot.`,
		Args: positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			if slug == "" {
				if path == "-" {
					return usageError(errors.New("--slug is required when reading stdin"))
				}
				slug = archive.SlugFromPath(path)
			}
			data, err := a.readInput(path)
			if err != nil {
				return err
			}

			cat, closeCatalog, err := a.openCatalog(ctx, catalogPath)
			if err != nil {
				return err
			}
			defer func() { _ = closeCatalog() }()

			st, err := archive.Open(a.storeDir(store), lint.Options{Options: validate.Options{
				LenientMaterials: a.cfg.LenientMaterials,
				Resolver:         a.resolver(cat),
			}})
			if err != nil {
				return err
			}
			defer st.Close()

			snap, created, err := st.Publish(ctx, slug, data)
			var rejected *archive.RejectedError
			switch {
			case errors.As(err, &rejected):
				rejected.Report.Path = path
				newStyles(a.stderr).renderReport(a.stderr, rejected.Report)
				return errInvalid
			case errors.Is(err, archive.ErrInvalidSlug):
				return usageError(err)
			case err != nil:
				return err
			}

			verb := "unchanged"
			if created {
				verb = "published"
			}
			logger := log.WithComponent("cli")
			logger.Debug().
				Str(log.FieldEvent, "publish.done").
				Str(log.FieldSnapshotID, snap.ID).
				Bool("created", created).
				Msg("snapshot stored")
			fmt.Fprintf(a.stdout, "%s %s %s (%s)\n", verb, snap.Slug, snap.ID, snap.SHA256[:12])
			return nil
		},
	}
	cmd.Flags().StringVar(&store, "store", "", "archive directory (default archive.dir)")
	cmd.Flags().StringVar(&slug, "slug", "", "event slug (default from the file path)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "lesson catalog: a lessons directory or a SQLite index")
	return cmd
}

func (a *app) snapshotsCommand() *cobra.Command {
	var (
		store string
		show  string
	)
	cmd := &cobra.Command{
		Use:   "snapshots [SLUG]",
		Short: "List published snapshots, newest first",
		Args:  positional(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := archive.Open(a.storeDir(store), lint.Options{})
			if err != nil {
				return err
			}
			defer st.Close()

			if show != "" {
				snap, err := st.Get(ctx, show)
				if err != nil {
					return err
				}
				_, err = a.stdout.Write(snap.YAML)
				return err
			}

			slug := ""
			if len(args) == 1 {
				slug = args[0]
			}
			snaps, err := st.List(ctx, slug)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(snaps))
			for _, s := range snaps {
				rows = append(rows, []string{s.ID, s.Slug, s.PublishedAt.Format(time.RFC3339), strconv.Itoa(s.Sessions), s.Title})
			}
			return newStyles(a.stdout).renderTable(a.stdout, []string{"ID", "SLUG", "PUBLISHED", "SESSIONS", "TITLE"}, rows)
		},
	}
	cmd.Flags().StringVar(&store, "store", "", "archive directory (default archive.dir)")
	cmd.Flags().StringVar(&show, "show", "", "print the YAML of the snapshot with this ID")
	return cmd
}
