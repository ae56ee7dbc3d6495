// Package diagnostic collects non-fatal findings of a generation run.
// Fatal problems are returned as errors; everything here is advisory.
package diagnostic

import (
	"fmt"
	"log/slog"
	"strings"
)

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Category classifies diagnostics for filtering.
type Category string

const (
	CategoryTypeUnsupported      Category = "type-unsupported"
	CategoryConstraintInvalid    Category = "constraint-invalid"
	CategoryDeclarationAmbiguous Category = "declaration-ambiguous"
	CategoryDeclarationMalformed Category = "declaration-malformed"
	CategoryParameterInvalid     Category = "parameter-invalid"
	CategoryConfigInvalid        Category = "config-invalid"
	CategoryDeprecated           Category = "deprecated"
)

// Diagnostic is a single finding. Origin names the declaration or file it
// concerns, e.g. "src/models.ts#Api" or "tsoa.yaml".
type Diagnostic struct {
	Severity Severity
	Category Category
	Origin   string
	Message  string
	Hint     string
}

// String formats the diagnostic for display.
func (d Diagnostic) String() string {
	var sb strings.Builder
	if d.Origin != "" {
		sb.WriteString(d.Origin)
		sb.WriteString(" - ")
	}
	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	if d.Category != "" {
		sb.WriteString("[")
		sb.WriteString(string(d.Category))
		sb.WriteString("] ")
	}
	sb.WriteString(d.Message)
	if d.Hint != "" {
		sb.WriteString("\n  hint: ")
		sb.WriteString(d.Hint)
	}
	return sb.String()
}

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("severity", d.Severity.String()),
		slog.String("category", string(d.Category)),
		slog.String("message", d.Message),
	}
	if d.Origin != "" {
		attrs = append(attrs, slog.String("origin", d.Origin))
	}
	return slog.GroupValue(attrs...)
}

// Collector collects diagnostics. A nil *Collector discards everything.
type Collector struct {
	diagnostics []Diagnostic
	strict      bool // warnings become errors
	quiet       bool // warnings and infos are dropped
}

// NewCollector creates a new diagnostic collector.
func NewCollector(strict, quiet bool) *Collector {
	return &Collector{strict: strict, quiet: quiet}
}

// Warn adds a warning diagnostic.
func (c *Collector) Warn(category Category, origin, message string) {
	c.WarnWithHint(category, origin, message, "")
}

// Warnf adds a formatted warning diagnostic.
func (c *Collector) Warnf(category Category, origin, format string, args ...any) {
	c.WarnWithHint(category, origin, fmt.Sprintf(format, args...), "")
}

// WarnWithHint adds a warning with a suggestion.
func (c *Collector) WarnWithHint(category Category, origin, message, hint string) {
	if c == nil || c.quiet {
		return
	}
	sev := SeverityWarning
	if c.strict {
		sev = SeverityError
	}
	c.diagnostics = append(c.diagnostics, Diagnostic{
		Severity: sev,
		Category: category,
		Origin:   origin,
		Message:  message,
		Hint:     hint,
	})
}

// Error adds an error diagnostic.
func (c *Collector) Error(category Category, origin, message string) {
	if c == nil {
		return
	}
	c.diagnostics = append(c.diagnostics, Diagnostic{
		Severity: SeverityError,
		Category: category,
		Origin:   origin,
		Message:  message,
	})
}

// Info adds an informational diagnostic.
func (c *Collector) Info(category Category, origin, message string) {
	if c == nil || c.quiet {
		return
	}
	c.diagnostics = append(c.diagnostics, Diagnostic{
		Severity: SeverityInfo,
		Category: category,
		Origin:   origin,
		Message:  message,
	})
}

// Diagnostics returns all collected diagnostics.
func (c *Collector) Diagnostics() []Diagnostic {
	if c == nil {
		return nil
	}
	return c.diagnostics
}

// HasErrors returns true if any error-level diagnostics exist.
func (c *Collector) HasErrors() bool {
	return c.count(SeverityError) > 0
}

// ErrorCount returns the number of error diagnostics.
func (c *Collector) ErrorCount() int {
	return c.count(SeverityError)
}

// WarningCount returns the number of warning diagnostics.
func (c *Collector) WarningCount() int {
	return c.count(SeverityWarning)
}

func (c *Collector) count(sev Severity) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, d := range c.diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// FormatAll formats all diagnostics as a multi-line string.
func (c *Collector) FormatAll() string {
	if c == nil || len(c.diagnostics) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, d := range c.diagnostics {
		sb.WriteString(d.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Summary returns a summary line like "1 error(s), 2 warning(s)".
func (c *Collector) Summary() string {
	warnings := c.WarningCount()
	errors := c.ErrorCount()

	var parts []string
	if errors > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", errors))
	}
	if warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", warnings))
	}
	if len(parts) == 0 {
		return "no issues"
	}
	return strings.Join(parts, ", ")
}
