// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"net"
	"strings"
	"time"

	"github.com/dejvthedrummer/naucse.python.cz/internal/metrics"
	"github.com/dejvthedrummer/naucse.python.cz/internal/validate"
)

// Validate checks a Config using the centralized validation package.
func Validate(cfg Config) error {
	v := validate.New()

	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError(validate.CodeInvalidValue, "logLevel", err.Error(), cfg.LogLevel)
	}
	v.OneOf("logFormat", cfg.LogFormat, []string{"console", "json"})

	v.Custom("timezone", cfg.Timezone, func(val any) error {
		_, err := time.LoadLocation(val.(string))
		return err
	})

	if cfg.Catalog.Dir != "" {
		v.Directory("catalog.dir", cfg.Catalog.Dir, true)
	}
	v.Directory("archive.dir", cfg.Archive.Dir, false)

	if _, _, err := net.SplitHostPort(cfg.API.ListenAddr); err != nil {
		v.AddError(validate.CodeInvalidValue, "api.listenAddr", "must be host:port", cfg.API.ListenAddr)
	}
	if cfg.API.RateLimit < 0 {
		v.AddError(validate.CodeInvalidValue, "api.rateLimit", "must not be negative", cfg.API.RateLimit)
	}
	if strings.TrimSpace(cfg.API.BaseURL) != "" {
		v.URL("api.baseUrl", cfg.API.BaseURL, []string{"http", "https"})
	}

	if cfg.Cache.TTL < 0 {
		v.AddError(validate.CodeInvalidValue, "cache.ttl", "must not be negative", cfg.Cache.TTL.String())
	}
	if cfg.Cache.RedisAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.Cache.RedisAddr); err != nil {
			v.AddError(validate.CodeInvalidValue, "cache.redisAddr", "must be host:port", cfg.Cache.RedisAddr)
		}
	}
	if cfg.Cache.RedisDB < 0 {
		v.AddError(validate.CodeInvalidValue, "cache.redisDb", "must not be negative", cfg.Cache.RedisDB)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
	}
	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		v.AddError(validate.CodeInvalidValue, "telemetry.samplingRate", "must be between 0.0 and 1.0", cfg.Telemetry.SamplingRate)
	}

	if !v.IsValid() {
		for range v.Errors() {
			metrics.IncConfigValidationError()
		}
		return v.Err()
	}
	return nil
}
