package diagnostic

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Warn(t *testing.T) {
	c := NewCollector(false, false)
	c.Warn(CategoryTypeUnsupported, "src/models.ts#User", "mixed literal union")
	c.Warnf(CategoryParameterInvalid, "UsersController.get", "parameter %q is not scalar", "id")

	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Equal(t, CategoryTypeUnsupported, diags[0].Category)
	assert.Equal(t, `parameter "id" is not scalar`, diags[1].Message)
	assert.Equal(t, 2, c.WarningCount())
	assert.False(t, c.HasErrors())
}

func TestCollector_Error(t *testing.T) {
	c := NewCollector(false, false)
	c.Error(CategoryConfigInvalid, "tsoa.yaml", "entryFile is required")

	assert.True(t, c.HasErrors())
	assert.Equal(t, 1, c.ErrorCount())
	assert.Equal(t, 0, c.WarningCount())
}

func TestCollector_Strict(t *testing.T) {
	c := NewCollector(true, false)
	c.Warn(CategoryDeprecated, "", "legacy option")

	assert.True(t, c.HasErrors())
	assert.Equal(t, 0, c.WarningCount())
}

func TestCollector_Quiet(t *testing.T) {
	c := NewCollector(false, true)
	c.Warn(CategoryDeprecated, "", "dropped")
	c.Info(CategoryDeprecated, "", "dropped")
	c.Error(CategoryConfigInvalid, "", "kept")

	require.Len(t, c.Diagnostics(), 1)
	assert.Equal(t, SeverityError, c.Diagnostics()[0].Severity)
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector
	c.Warn(CategoryTypeUnsupported, "", "ignored")
	c.Error(CategoryTypeUnsupported, "", "ignored")
	c.Info(CategoryTypeUnsupported, "", "ignored")

	assert.Nil(t, c.Diagnostics())
	assert.False(t, c.HasErrors())
	assert.Empty(t, c.FormatAll())
	assert.Equal(t, "no issues", c.Summary())
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityWarning,
		Category: CategoryTypeUnsupported,
		Origin:   "src/models.ts#Status",
		Message:  "mixed literal union",
		Hint:     "use an enum",
	}
	assert.Equal(t, "src/models.ts#Status - warning: [type-unsupported] mixed literal union\n  hint: use an enum", d.String())

	bare := Diagnostic{Severity: SeverityError, Message: "boom"}
	assert.Equal(t, "error: boom", bare.String())
}

func TestCollector_FormatAllAndSummary(t *testing.T) {
	c := NewCollector(false, false)
	assert.Equal(t, "no issues", c.Summary())

	c.Error(CategoryConfigInvalid, "tsoa.yaml", "bad")
	c.Warn(CategoryDeprecated, "tsoa.yaml", "old")
	c.Warn(CategoryDeprecated, "tsoa.yaml", "older")

	assert.Equal(t, "1 error(s), 2 warning(s)", c.Summary())
	assert.Equal(t,
		"tsoa.yaml - error: [config-invalid] bad\n"+
			"tsoa.yaml - warning: [deprecated] old\n"+
			"tsoa.yaml - warning: [deprecated] older\n",
		c.FormatAll())
}

func TestDiagnostic_LogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Warn("diagnostic", "d", Diagnostic{
		Severity: SeverityWarning,
		Category: CategoryDeprecated,
		Origin:   "tsoa.yaml",
		Message:  "legacy",
	})

	out := buf.String()
	assert.Contains(t, out, "d.severity=warning")
	assert.Contains(t, out, "d.category=deprecated")
	assert.Contains(t, out, "d.origin=tsoa.yaml")
}
