// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the naucse tool configuration.
//
// Precedence is ENV > file > defaults. The file is strict YAML: unknown keys
// and multiple documents are rejected.
package config

import (
	"time"

	"github.com/dejvthedrummer/naucse.python.cz/internal/course"
	"github.com/dejvthedrummer/naucse.python.cz/internal/telemetry"
)

// Config is the effective tool configuration.
type Config struct {
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
	// Timezone interprets session dates and times.
	Timezone         string `yaml:"timezone"`
	LenientMaterials bool   `yaml:"lenientMaterials"`

	Catalog   CatalogConfig   `yaml:"catalog"`
	API       APIConfig       `yaml:"api"`
	Cache     CacheConfig     `yaml:"cache"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Version is set from the binary, never from the file.
	Version string `yaml:"-"`
}

// CatalogConfig points at the lesson library. DB takes precedence over Dir.
type CatalogConfig struct {
	Dir string `yaml:"dir"`
	DB  string `yaml:"db"`
}

type APIConfig struct {
	ListenAddr string `yaml:"listenAddr"`
	// RateLimit is requests per minute per client IP on the validate
	// endpoint; 0 disables limiting.
	RateLimit int `yaml:"rateLimit"`
	// BaseURL links calendar entries to rendered session pages.
	BaseURL string `yaml:"baseUrl"`
}

type CacheConfig struct {
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDb"`
	TTL           time.Duration `yaml:"ttl"`
}

type ArchiveConfig struct {
	Dir string `yaml:"dir"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "console",
		Timezone:  course.DefaultTimezone,
		API: APIConfig{
			ListenAddr: "127.0.0.1:8080",
			RateLimit:  60,
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Archive: ArchiveConfig{
			Dir: ".naucse/archive",
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// TelemetryProviderConfig maps the telemetry section onto telemetry.Config.
func (c Config) TelemetryProviderConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    "naucse",
		ServiceVersion: c.Version,
		ExporterType:   c.Telemetry.Exporter,
		Endpoint:       c.Telemetry.Endpoint,
		Insecure:       c.Telemetry.Insecure,
		SamplingRate:   c.Telemetry.SamplingRate,
	}
}
