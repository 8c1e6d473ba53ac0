// Package config loads and persists the subset of project configuration
// that survives across runs: include/exclude globs, recognized frameworks
// and feature flags. Grounded on spec.md §6: stored as
// .codegraph/config.json via encoding/json — no library in the retrieval
// pack offers a better-suited reader/writer for this project's literal
// JSON-on-disk shape, so the standard library is used directly here.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultMaxFileSize is the per-file byte ceiling the scanner applies when a
// config does not override it, per spec.md §4.2's max-file-size skip rule.
const DefaultMaxFileSize = 2 * 1024 * 1024

// DefaultExcludes are glob patterns excluded even when a project config
// supplies none of its own.
var DefaultExcludes = []string{
	"**/.codegraph/**",
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/dist/**",
	"**/build/**",
}

// Config is the persisted subset of configuration. rootDir is deliberately
// absent here: spec.md §6 requires it to never be persisted and always be
// derived from the actual location the store was opened from.
type Config struct {
	IncludeGlobs []string        `json:"includeGlobs"`
	ExcludeGlobs []string        `json:"excludeGlobs"`
	MaxFileSize  int64           `json:"maxFileSize"`
	Frameworks   []string        `json:"frameworks"`
	Features     map[string]bool `json:"features"`
}

// Default returns the configuration a fresh `init` writes.
func Default() Config {
	return Config{
		IncludeGlobs: []string{"**/*"},
		ExcludeGlobs: append([]string{}, DefaultExcludes...),
		MaxFileSize:  DefaultMaxFileSize,
		Frameworks:   nil,
		Features:     map[string]bool{},
	}
}

// Path returns the config file path under a project's .codegraph directory.
func Path(codegraphDir string) string {
	return filepath.Join(codegraphDir, "config.json")
}

// Load reads config.json from codegraphDir. A missing file is not an error;
// callers that need an initialized project check for that separately.
func Load(codegraphDir string) (Config, error) {
	b, err := os.ReadFile(Path(codegraphDir))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.Features == nil {
		c.Features = map[string]bool{}
	}
	return c, nil
}

// Save writes config.json under codegraphDir, creating the directory if
// needed and formatting with indentation so the file is diffable and
// hand-editable.
func Save(codegraphDir string, c Config) error {
	if err := os.MkdirAll(codegraphDir, 0o755); err != nil {
		return fmt.Errorf("create codegraph dir: %w", err)
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	b = append(b, '\n')
	if err := os.WriteFile(Path(codegraphDir), b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
