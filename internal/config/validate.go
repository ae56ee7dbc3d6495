package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/HoldYourWaffle2/tsoa/internal/diagnostic"
)

// ValidationResult holds config validation results.
type ValidationResult struct {
	Errors       []string
	Warnings     []string
	Deprecations []string
}

// ValidateDetailed performs thorough config validation with suggestions.
func (c *Config) ValidateDetailed() *ValidationResult {
	result := &ValidationResult{}

	if c.EntryFile == "" {
		result.Errors = append(result.Errors, "entryFile: a declaration set is required")
	} else if ext := filepath.Ext(c.EntryFile); ext != ".yaml" && ext != ".yml" && ext != ".json" {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("entryFile: extension %q is unusual, expected .yaml, .yml or .json", ext))
	}

	if !c.NoImplicitAdditionalProperties.Valid() {
		result.Errors = append(result.Errors,
			fmt.Sprintf("noImplicitAdditionalProperties: invalid value %q, must be throw-on-extras, silently-remove-extras or ignore", c.NoImplicitAdditionalProperties))
	}
	if legacy := c.LegacyNoImplicitAdditionalProperties; legacy != nil {
		replacement := "ignore"
		if *legacy {
			replacement = "throw-on-extras"
		}
		result.Deprecations = append(result.Deprecations,
			fmt.Sprintf("noImplicitAdditionalProperties: boolean values are deprecated, use %q", replacement))
	}

	for _, pattern := range c.Controllers.Include {
		if !strings.Contains(pattern, "*") && !strings.HasSuffix(pattern, ".ts") {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("controllers.include: pattern %q has no wildcard or .ts extension, did you mean %q?", pattern, pattern+"/**/*.ts"))
		}
	}

	outputs := []struct{ key, path string }{
		{"output.models", c.Output.Models},
		{"output.routes", c.Output.Routes},
		{"output.jsonSchema", c.Output.JSONSchema},
	}
	for _, out := range outputs {
		if out.path != "" && filepath.Ext(out.path) != ".json" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: extension %q is unusual, output is JSON", out.key, filepath.Ext(out.path)))
		}
	}

	return result
}

// IsValid returns true if there are no errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Report adds the findings to diags under origin.
func (r *ValidationResult) Report(diags *diagnostic.Collector, origin string) {
	for _, msg := range r.Errors {
		diags.Error(diagnostic.CategoryConfigInvalid, origin, msg)
	}
	for _, msg := range r.Warnings {
		diags.Warn(diagnostic.CategoryConfigInvalid, origin, msg)
	}
	for _, msg := range r.Deprecations {
		diags.Warn(diagnostic.CategoryDeprecated, origin, msg)
	}
}
