// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is tried when no config path is given. Missing is fine.
const DefaultPath = "naucse.yml"

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath string
	version    string
	// ConsumedEnvKeys records every environment key the loader looked at.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader. An empty configPath means defaults and ENV only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Load builds the configuration: defaults, then the file (strict), then
// ENV, then validation.
func (l *Loader) Load() (Config, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile decodes path over cfg so absent keys keep their defaults.
func loadFile(path string, cfg *Config) error {
	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if isYAMLUnknownFieldError(err) {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}
	return nil
}

func isYAMLUnknownFieldError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "field") && strings.Contains(msg, "not found")
}

// ResolvePath returns explicit when set, otherwise DefaultPath when that
// file exists, otherwise "".
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env, ok := os.LookupEnv("NAUCSE_CONFIG"); ok && env != "" {
		return env
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}
