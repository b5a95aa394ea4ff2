// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dejvthedrummer/naucse.python.cz/internal/catalog"
	"github.com/dejvthedrummer/naucse.python.cz/internal/config"
	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/validate"
	"github.com/dejvthedrummer/naucse.python.cz/internal/version"
)

// skipConfig marks commands that run without loading the tool config.
const skipConfig = "skip-config"

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	cfg        config.Config
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "naucse",
		Short: "Tools for naucse course documents",
		Long: `naucse checks, formats and serves course info documents: the YAML
files describing a workshop or course, its sessions and their materials.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "tool config file (default $NAUCSE_CONFIG or ./naucse.yml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		a.validateCommand(),
		a.fmtCommand(),
		a.schemaCommand(),
		a.exportCommand(),
		a.queryCommand(),
		a.serveCommand(),
		a.catalogCommand(),
		a.publishCommand(),
		a.snapshotsCommand(),
		a.versionCommand(),
	)
	return root
}

// setup loads the config and configures logging before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipConfig] == "true" {
		log.Configure(log.Config{Level: a.logLevel, Format: "console", Output: a.stderr, Version: version.Version})
		return nil
	}

	if a.logLevel != "" {
		if _, err := validate.ParseLogLevel(a.logLevel); err != nil {
			return usageError(err)
		}
	}

	path := config.ResolvePath(a.configPath)
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		return usageError(fmt.Errorf("config: %w", err))
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  a.stderr,
		Version: version.Version,
	})
	if path != "" {
		logger := log.WithComponent("cli")
		logger.Debug().Str(log.FieldEvent, "config.loaded").Str(log.FieldPath, path).Msg("tool config loaded")
	}
	return nil
}

// openCatalog resolves the lesson catalog from an explicit path or the
// config. A regular file is a SQLite index, a directory a lesson tree.
// It returns a nil catalog when none is configured.
func (a *app) openCatalog(ctx context.Context, explicit string) (catalog.Catalog, func() error, error) {
	noop := func() error { return nil }

	path := explicit
	if path == "" {
		path = a.cfg.Catalog.DB
	}
	if path == "" {
		path = a.cfg.Catalog.Dir
	}
	if path == "" {
		return nil, noop, nil
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		dc, err := catalog.NewDirCatalog(path)
		if err != nil {
			return nil, noop, err
		}
		return dc, noop, nil
	case err == nil || isIndexPath(path):
		sc, err := catalog.OpenSQLite(ctx, path)
		if err != nil {
			return nil, noop, err
		}
		return sc, sc.Close, nil
	default:
		return nil, noop, fmt.Errorf("catalog: %w", err)
	}
}

func isIndexPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// catalogBackend labels metrics for c.
func catalogBackend(c catalog.Catalog) string {
	switch c.(type) {
	case *catalog.SQLiteCatalog:
		return "sqlite"
	case *catalog.DirCatalog:
		return "dir"
	default:
		return "static"
	}
}

func (a *app) resolver(c catalog.Catalog) validate.LessonResolver {
	if c == nil {
		return nil
	}
	return catalog.Resolver(c, catalogBackend(c))
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        positional(cobra.NoArgs),
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(a.stdout, version.String())
			return err
		},
	}
}
