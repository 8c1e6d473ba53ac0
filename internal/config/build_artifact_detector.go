// Build-output auto-detection: reads a project's own build tool
// configuration (package.json, tsconfig.json, vite config, Cargo.toml,
// pyproject.toml) to find output directories a fresh `init` should exclude
// before the first scan ever runs, instead of relying solely on the fixed
// DefaultExcludes list.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// buildArtifactDetector finds language-specific build output directories
// under one project root.
type buildArtifactDetector struct {
	projectRoot string
}

// DetectBuildOutputs scans a project root for build tool configuration
// files and returns exclude-glob patterns for whatever output directories
// they declare (e.g. "**/dist/**" from a tsconfig.json outDir). Callers
// typically merge this into DefaultExcludes and deduplicate with
// DeduplicatePatterns before persisting a fresh Config.
func DetectBuildOutputs(projectRoot string) []string {
	bad := buildArtifactDetector{projectRoot: projectRoot}

	var patterns []string
	patterns = append(patterns, bad.detectJavaScriptOutputs()...)
	patterns = append(patterns, bad.detectRustOutputs()...)
	patterns = append(patterns, bad.detectPythonOutputs()...)
	return patterns
}

// detectJavaScriptOutputs finds JS/TS build outputs from package.json,
// tsconfig.json and vite.config.{js,ts}.
func (bad *buildArtifactDetector) detectJavaScriptOutputs() []string {
	var patterns []string

	if data, err := os.ReadFile(filepath.Join(bad.projectRoot, "package.json")); err == nil {
		var pkg map[string]interface{}
		if json.Unmarshal(data, &pkg) == nil {
			if build, ok := pkg["build"].(map[string]interface{}); ok {
				if outDir, ok := build["outDir"].(string); ok && outDir != "" {
					patterns = append(patterns, "**/"+outDir+"/**")
				}
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join(bad.projectRoot, "tsconfig.json")); err == nil {
		var tsconfig map[string]interface{}
		if json.Unmarshal(data, &tsconfig) == nil {
			if compilerOptions, ok := tsconfig["compilerOptions"].(map[string]interface{}); ok {
				if outDir, ok := compilerOptions["outDir"].(string); ok && outDir != "" {
					patterns = append(patterns, "**/"+outDir+"/**")
				}
			}
		}
	}

	for _, name := range []string{"vite.config.js", "vite.config.ts"} {
		data, err := os.ReadFile(filepath.Join(bad.projectRoot, name))
		if err != nil {
			continue
		}
		if dir := extractViteOutDir(string(data)); dir != "" {
			patterns = append(patterns, "**/"+dir+"/**")
		}
	}

	return patterns
}

// extractViteOutDir pulls the quoted value following an "outDir" key out of
// a vite config file's source text without a full JS parser, mirroring how
// little the build step actually needs from that file.
func extractViteOutDir(content string) string {
	idx := strings.Index(content, "outDir")
	if idx == -1 {
		return ""
	}
	substr := content[idx+len("outDir"):]
	colonIdx := strings.Index(substr, ":")
	if colonIdx == -1 {
		return ""
	}
	substr = substr[colonIdx+1:]
	for _, quote := range []string{"'", "\""} {
		parts := strings.SplitN(substr, quote, 3)
		if len(parts) >= 3 {
			if dir := strings.TrimSpace(parts[1]); dir != "" {
				return dir
			}
		}
	}
	return ""
}

// detectRustOutputs finds a custom Cargo.toml release target directory.
func (bad *buildArtifactDetector) detectRustOutputs() []string {
	var patterns []string

	data, err := os.ReadFile(filepath.Join(bad.projectRoot, "Cargo.toml"))
	if err != nil {
		return nil
	}
	var cargo map[string]interface{}
	if toml.Unmarshal(data, &cargo) != nil {
		return nil
	}
	if profile, ok := cargo["profile"].(map[string]interface{}); ok {
		if release, ok := profile["release"].(map[string]interface{}); ok {
			if targetDir, ok := release["target-dir"].(string); ok && targetDir != "" {
				patterns = append(patterns, "**/"+targetDir+"/**")
			}
		}
	}
	return patterns
}

// detectPythonOutputs finds a Poetry build target directory declared in
// pyproject.toml.
func (bad *buildArtifactDetector) detectPythonOutputs() []string {
	var patterns []string

	data, err := os.ReadFile(filepath.Join(bad.projectRoot, "pyproject.toml"))
	if err != nil {
		return nil
	}
	var pyproject map[string]interface{}
	if toml.Unmarshal(data, &pyproject) != nil {
		return nil
	}
	if tool, ok := pyproject["tool"].(map[string]interface{}); ok {
		if poetry, ok := tool["poetry"].(map[string]interface{}); ok {
			if build, ok := poetry["build"].(map[string]interface{}); ok {
				if targetDir, ok := build["target-dir"].(string); ok && targetDir != "" {
					patterns = append(patterns, "**/"+targetDir+"/**")
				}
			}
		}
	}
	return patterns
}

// DeduplicatePatterns removes duplicate exclusion patterns, preserving the
// order patterns were first seen in.
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}
	return result
}
