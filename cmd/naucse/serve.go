// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dejvthedrummer/naucse.python.cz/internal/api"
	"github.com/dejvthedrummer/naucse.python.cz/internal/cache"
	"github.com/dejvthedrummer/naucse.python.cz/internal/health"
	"github.com/dejvthedrummer/naucse.python.cz/internal/lint"
	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/telemetry"
	"github.com/dejvthedrummer/naucse.python.cz/internal/validate"
	"github.com/dejvthedrummer/naucse.python.cz/internal/version"
	"github.com/dejvthedrummer/naucse.python.cz/internal/watch"
)

const telemetryShutdownTimeout = 5 * time.Second

func (a *app) serveCommand() *cobra.Command {
	var (
		listen      string
		catalogPath string
		slug        string
	)
	cmd := &cobra.Command{
		Use:   "serve FILE",
		Short: "Serve a course document over HTTP with live reload",
		Long: `Serve watches FILE and exposes the parsed event, its validation report,
an iCalendar feed and a websocket that pushes the report after each change.`,
		Args: positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := log.WithComponent("serve")
			cfg := a.cfg
			if listen == "" {
				listen = cfg.API.ListenAddr
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			tp, err := telemetry.NewProvider(ctx, cfg.TelemetryProviderConfig())
			if err != nil {
				return fmt.Errorf("telemetry: %w", err)
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryShutdownTimeout)
				defer cancel()
				if err := tp.Shutdown(sctx); err != nil {
					logger.Warn().Err(err).Msg("telemetry shutdown failed")
				}
			}()

			cat, closeCatalog, err := a.openCatalog(ctx, catalogPath)
			if err != nil {
				return err
			}
			defer func() { _ = closeCatalog() }()

			opts := lint.Options{Options: validate.Options{
				LenientMaterials: cfg.LenientMaterials,
				Resolver:         a.resolver(cat),
			}}

			holder := watch.NewHolder(args[0], opts)
			if err := holder.Load(ctx); err != nil {
				return err
			}
			if err := holder.Start(ctx); err != nil {
				return err
			}
			defer holder.Stop()

			reports, err := cache.New(ctx, cache.Config{
				RedisAddr:     cfg.Cache.RedisAddr,
				RedisPassword: cfg.Cache.RedisPassword,
				RedisDB:       cfg.Cache.RedisDB,
				TTL:           cfg.Cache.TTL,
			}, log.WithComponent("cache"))
			if err != nil {
				return err
			}
			defer func() { _ = cache.Close(reports) }()

			hm := health.NewManager(version.Version)
			hm.RegisterChecker(health.NewFileChecker("file", holder.Path()))
			hm.RegisterChecker(health.NewDocumentChecker(holder))
			if cat != nil {
				hm.RegisterChecker(health.NewCatalogChecker(cat))
			}
			if p, ok := reports.(interface{ HealthCheck(context.Context) error }); ok {
				hm.RegisterChecker(health.NewPingChecker(reports.Backend(), p.HealthCheck))
			}

			tracing := ""
			if cfg.Telemetry.Enabled {
				tracing = "naucse"
			}
			srv := api.New(api.Config{
				ListenAddr:     listen,
				RateLimit:      cfg.API.RateLimit,
				BaseURL:        cfg.API.BaseURL,
				Location:       loc,
				Slug:           slug,
				TracingService: tracing,
				ReportTTL:      cfg.Cache.TTL,
			}, holder, reports, opts, hm)

			logger.Info().
				Str(log.FieldEvent, "serve.start").
				Str(log.FieldPath, holder.Path()).
				Str(log.FieldListenAddr, listen).
				Str("cache", reports.Backend()).
				Strs("checks", hm.Names()).
				Msg("serving course document")
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default api.listenAddr)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "lesson catalog: a lessons directory or a SQLite index")
	cmd.Flags().StringVar(&slug, "slug", "", "event slug used in calendar UIDs (default from the file path)")
	return cmd
}
