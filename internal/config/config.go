// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML configuration shared by the CLI and
// the web server: output defaults, detection tuning, the external
// model, suppressions, and the HTTP surface.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"redact-scan/internal/detector"
)

// Config represents the application configuration.
type Config struct {
	// Default settings for output and reporting.
	Defaults struct {
		Format    string  `yaml:"format"`
		Threshold float64 `yaml:"threshold"`
		// Fields is the comma-separated list of PII types whose values
		// stay visible in the output.
		Fields  string `yaml:"fields"`
		Verbose bool   `yaml:"verbose"`
		Debug   bool   `yaml:"debug"`
		NoColor bool   `yaml:"no_color"`
	} `yaml:"defaults"`

	// Detection tuning.
	Detection struct {
		DedupIoU float64 `yaml:"dedup_iou"`
		// StrictPatterns forces label context for every identifier class
		// regardless of the document type.
		StrictPatterns bool `yaml:"strict_patterns"`
		// DisabledSources names detection sources to skip entirely.
		DisabledSources []string `yaml:"disabled_sources"`
	} `yaml:"detection"`

	// AI configures the external model collaborator.
	AI struct {
		Enabled           bool   `yaml:"enabled"`
		Project           string `yaml:"project"`
		Region            string `yaml:"region"`
		Model             string `yaml:"model"`
		RequestsPerMinute int    `yaml:"requests_per_minute"`
	} `yaml:"ai"`

	// Suppressions configures the allow-list.
	Suppressions struct {
		File    string `yaml:"file"`
		Enabled bool   `yaml:"enabled"`
	} `yaml:"suppressions"`

	// Web configures the HTTP server.
	Web struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"web"`

	// SentryDSN enables error reporting when set.
	SentryDSN string `yaml:"sentry_dsn"`
}

// sourceNames is the closed set of detection source names accepted by
// detection.disabled_sources.
var sourceNames = map[string]bool{
	"aadhaar":    true,
	"pan":        true,
	"creditcard": true,
	"phone":      true,
	"contextual": true,
	"spatial":    true,
	"heuristic":  true,
	"metadata":   true,
	"ai":         true,
}

// LoadConfig loads configuration from the specified file path. An empty
// path returns the built-in defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	// Built-in defaults.
	config.Defaults.Format = "text"
	config.Defaults.Threshold = 0.5
	config.Suppressions.Enabled = true
	config.Web.Host = "127.0.0.1"
	config.Web.Port = 8080

	if configPath == "" {
		applyEnvOverrides(config)
		return config, nil
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// YAML unmarshaling zeroes absent fields, which would silently flip
	// true-default booleans and numeric defaults. Restore anything the
	// file did not mention.
	if !containsField(data, "suppressions", "enabled") {
		config.Suppressions.Enabled = true
	}
	if !containsField(data, "defaults", "threshold") {
		config.Defaults.Threshold = 0.5
	}
	if !containsField(data, "defaults", "format") {
		config.Defaults.Format = "text"
	}
	if !containsField(data, "web", "host") {
		config.Web.Host = "127.0.0.1"
	}
	if !containsField(data, "web", "port") {
		config.Web.Port = 8080
	}

	applyEnvOverrides(config)

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// applyEnvOverrides layers environment variables over the file.
// REDACT_DEBUG enables debug output; the Google Cloud variables fill
// the AI project and region when the file leaves them empty, matching
// how the rest of the GCP tooling resolves them.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("REDACT_DEBUG"); v != "" && v != "0" && !strings.EqualFold(v, "false") {
		config.Defaults.Debug = true
	}
	if v := os.Getenv("REDACT_SUPPRESSIONS"); v != "" {
		config.Suppressions.File = v
	}
	if v := os.Getenv("REDACT_SENTRY_DSN"); v != "" {
		config.SentryDSN = v
	}
	if config.AI.Project == "" {
		config.AI.Project = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if config.AI.Region == "" {
		config.AI.Region = os.Getenv("GOOGLE_CLOUD_REGION")
	}
}

// ValidateConfig rejects values the pipeline would misbehave on.
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	switch config.Defaults.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown output format %q (expected text or json)", config.Defaults.Format)
	}

	if config.Defaults.Threshold < 0 || config.Defaults.Threshold > 1 {
		return fmt.Errorf("threshold %v out of range [0, 1]", config.Defaults.Threshold)
	}
	if config.Detection.DedupIoU < 0 || config.Detection.DedupIoU >= 1 {
		return fmt.Errorf("dedup_iou %v out of range [0, 1)", config.Detection.DedupIoU)
	}

	if config.Defaults.Fields != "" {
		for _, part := range strings.Split(config.Defaults.Fields, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := detector.ParsePIIType(part); !ok {
				return fmt.Errorf("unknown field type %q in defaults.fields", part)
			}
		}
	}

	for _, name := range config.Detection.DisabledSources {
		if !sourceNames[strings.ToLower(strings.TrimSpace(name))] {
			return fmt.Errorf("unknown detection source %q in detection.disabled_sources", name)
		}
	}

	if config.AI.Enabled {
		if config.AI.Project == "" {
			return fmt.Errorf("ai.enabled requires ai.project (or GOOGLE_CLOUD_PROJECT)")
		}
		if config.AI.Region == "" {
			return fmt.Errorf("ai.enabled requires ai.region (or GOOGLE_CLOUD_REGION)")
		}
	}
	if config.AI.RequestsPerMinute < 0 {
		return fmt.Errorf("ai.requests_per_minute must not be negative")
	}

	if config.Web.Port < 0 || config.Web.Port > 65535 {
		return fmt.Errorf("web.port %d out of range", config.Web.Port)
	}

	return nil
}

// FindConfigFile looks for a configuration file in standard locations:
// the working directory first, then the XDG config directory, then a
// home dotfile.
func FindConfigFile() string {
	for _, name := range []string{
		"config.yaml",
		"redact-scan.yaml",
		"redact-scan.yml",
		".redact-scan.yaml",
		".redact-scan.yml",
	} {
		if fileExists(name) {
			return name
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	for _, name := range []string{"config.yaml", "config.yml"} {
		candidate := filepath.Join(xdgConfig, "redact-scan", name)
		if fileExists(candidate) {
			return candidate
		}
	}

	homeConfig := filepath.Join(home, ".redact-scan.yaml")
	if fileExists(homeConfig) {
		return homeConfig
	}

	return ""
}

// fileExists checks if a file exists and is not a directory.
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// containsField checks if a nested field exists in the YAML data.
func containsField(data []byte, path ...string) bool {
	var yamlData map[string]interface{}
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return false
	}

	current := yamlData
	for i, key := range path {
		if i == len(path)-1 {
			_, exists := current[key]
			return exists
		}
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return false
		}
		current = next
	}
	return false
}

// LoadConfigOrDefault loads configuration from configFile (or searches
// standard locations when configFile is empty). If loading fails, it
// returns the built-in defaults. This is the shared helper used by both
// the CLI and the web server.
func LoadConfigOrDefault(configFile string) *Config {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		cfg, _ = LoadConfig("")
	}
	return cfg
}
