package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HoldYourWaffle2/tsoa/internal/declaration"
	"github.com/HoldYourWaffle2/tsoa/internal/diagnostic"
	"github.com/HoldYourWaffle2/tsoa/internal/metadata"
)

// parseSet parses an indented YAML declaration set; tabs are not allowed in
// YAML, so fixtures are written with spaces.
func parseSet(t *testing.T, src string) *declaration.Set {
	t.Helper()
	set, err := declaration.Parse([]byte(strings.TrimSpace(src)))
	require.NoError(t, err)
	return set
}

// newResolver builds a resolver with a fresh registry over set.
func newResolver(set *declaration.Set) (*TypeResolver, *diagnostic.Collector) {
	diags := diagnostic.NewCollector(false, false)
	return NewTypeResolver(NewLocator(set), metadata.NewRegistry(), diags, nil), diags
}

// resolveIn resolves a type expression from the root of the first source.
func resolveIn(t *testing.T, r *TypeResolver, set *declaration.Set, expr string) (metadata.Type, error) {
	t.Helper()
	node, err := declaration.ParseType(expr)
	require.NoError(t, err)
	var scope *declaration.Namespace
	if len(set.Sources) > 0 {
		scope = set.Sources[0].Root()
	}
	return r.Resolve(node, scope, nil, true)
}

func propertyNames(props []metadata.Property) []string {
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	return names
}
