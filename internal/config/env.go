// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
)

// Environment keys.
const (
	EnvLogLevel         = "NAUCSE_LOG_LEVEL"
	EnvLogFormat        = "NAUCSE_LOG_FORMAT"
	EnvTimezone         = "NAUCSE_TIMEZONE"
	EnvLenient          = "NAUCSE_LENIENT_MATERIALS"
	EnvCatalogDir       = "NAUCSE_CATALOG_DIR"
	EnvCatalogDB        = "NAUCSE_CATALOG_DB"
	EnvListenAddr       = "NAUCSE_LISTEN_ADDR"
	EnvRateLimit        = "NAUCSE_RATE_LIMIT"
	EnvBaseURL          = "NAUCSE_BASE_URL"
	EnvRedisAddr        = "NAUCSE_REDIS_ADDR"
	EnvRedisPassword    = "NAUCSE_REDIS_PASSWORD"
	EnvRedisDB          = "NAUCSE_REDIS_DB"
	EnvCacheTTL         = "NAUCSE_CACHE_TTL"
	EnvArchiveDir       = "NAUCSE_ARCHIVE_DIR"
	EnvTelemetryEnabled = "NAUCSE_TELEMETRY_ENABLED"
	EnvTelemetryExport  = "NAUCSE_TELEMETRY_EXPORTER"
	EnvTelemetryEndpt   = "NAUCSE_TELEMETRY_ENDPOINT"
	EnvTelemetryInsec   = "NAUCSE_TELEMETRY_INSECURE"
	EnvTelemetrySample  = "NAUCSE_TELEMETRY_SAMPLING_RATE"
)

func (l *Loader) mergeEnv(cfg *Config) {
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogFormat = l.envString(EnvLogFormat, cfg.LogFormat)
	cfg.Timezone = l.envString(EnvTimezone, cfg.Timezone)
	cfg.LenientMaterials = l.envBool(EnvLenient, cfg.LenientMaterials)

	cfg.Catalog.Dir = l.envString(EnvCatalogDir, cfg.Catalog.Dir)
	cfg.Catalog.DB = l.envString(EnvCatalogDB, cfg.Catalog.DB)

	cfg.API.ListenAddr = l.envString(EnvListenAddr, cfg.API.ListenAddr)
	cfg.API.RateLimit = l.envInt(EnvRateLimit, cfg.API.RateLimit)
	cfg.API.BaseURL = l.envString(EnvBaseURL, cfg.API.BaseURL)

	cfg.Cache.RedisAddr = l.envString(EnvRedisAddr, cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = l.envString(EnvRedisPassword, cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = l.envInt(EnvRedisDB, cfg.Cache.RedisDB)
	cfg.Cache.TTL = l.envDuration(EnvCacheTTL, cfg.Cache.TTL)

	cfg.Archive.Dir = l.envString(EnvArchiveDir, cfg.Archive.Dir)

	cfg.Telemetry.Enabled = l.envBool(EnvTelemetryEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(EnvTelemetryExport, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvTelemetryEndpt, cfg.Telemetry.Endpoint)
	cfg.Telemetry.Insecure = l.envBool(EnvTelemetryInsec, cfg.Telemetry.Insecure)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvTelemetrySample, cfg.Telemetry.SamplingRate)
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	return parseStringWithLogger(log.WithComponent("config"), key, defaultValue)
}

func parseStringWithLogger(logger zerolog.Logger, key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	lowerKey := strings.ToLower(key)
	if strings.Contains(lowerKey, "token") || strings.Contains(lowerKey, "password") {
		logger.Debug().
			Str("key", key).
			Str("source", "environment").
			Bool("sensitive", true).
			Msg("using environment variable")
		return value
	}
	logger.Debug().
		Str("key", key).
		Str("value", value).
		Str("source", "environment").
		Msg("using environment variable")
	return value
}

// parseEnv looks up key and converts it with parse. Empty or invalid values
// fall back to defaultValue; invalid ones are logged.
func parseEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	parsed, err := parse(v)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Interface("default", defaultValue).
			Msg("invalid value in environment variable, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Interface("value", parsed).
		Str("source", "environment").
		Msg("using environment variable")
	return parsed
}

// ParseBool reads a boolean from environment variable or returns default value.
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, strconv.ParseBool)
}

// ParseInt reads an integer from environment variable or returns default value.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, strconv.Atoi)
}

// ParseDuration reads a Go duration ("5s") from environment variable or returns default value.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, time.ParseDuration)
}

// ParseFloat reads a float from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}
