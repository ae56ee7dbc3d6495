package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HoldYourWaffle2/tsoa/internal/declaration"
)

func TestRegistry_StoreAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Store(&Reference{Name: "User"})
	r.Store(&Reference{Name: "Address"})
	r.Store(&Reference{Name: "User", Description: "replaced"})

	assert.True(t, r.Has("User"))
	assert.False(t, r.Has("Missing"))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"User", "Address"}, r.Names())

	ref, ok := r.Lookup("User")
	require.True(t, ok)
	assert.Equal(t, "replaced", ref.Description)

	refs := r.References()
	delete(refs, "User")
	assert.True(t, r.Has("User"), "References returns a copy")
}

func TestRegistry_InProgress(t *testing.T) {
	r := NewRegistry()
	r.MarkInProgress("Node")
	assert.True(t, r.InProgress("Node"))
	r.Unmark("Node")
	assert.False(t, r.InProgress("Node"))
}

func TestRegistry_PlaceholderPatchedOnFinish(t *testing.T) {
	r := NewRegistry()
	r.MarkInProgress("Node")

	handle := r.Placeholder("Node")
	assert.Equal(t, RefTo("Node"), handle)
	assert.Equal(t, 1, r.Pending())

	placeholder := r.Deref("Node")
	require.NotNil(t, placeholder)
	assert.Empty(t, placeholder.Properties)

	final := &Reference{
		Name:        "Node",
		Description: "tree node",
		Properties: []Property{
			{Name: "label", Type: PrimitiveType(String), Required: true},
			{Name: "child", Type: RefTo("Node")},
		},
	}
	r.Store(final)
	r.Unmark("Node")
	assert.Same(t, final, r.Deref("Node"), "stored record wins over the placeholder")

	r.Finish()
	assert.Zero(t, r.Pending())
	assert.Equal(t, "tree node", placeholder.Description)
	assert.Equal(t, final.Properties, placeholder.Properties)

	final.Properties[0].Name = "changed"
	assert.Equal(t, "label", placeholder.Properties[0].Name, "patched properties are copied")
}

func TestRegistry_FinishSkipsUnresolved(t *testing.T) {
	r := NewRegistry()
	r.Placeholder("Ghost")
	r.Finish()

	ghost := r.Deref("Ghost")
	require.NotNil(t, ghost)
	assert.Equal(t, "Ghost", ghost.Name)
	assert.Empty(t, ghost.Properties)
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry()
	r.Store(&Reference{Name: "User"})
	r.MarkInProgress("Node")
	r.Placeholder("Node")

	r.Reset()
	assert.Zero(t, r.Len())
	assert.Zero(t, r.Pending())
	assert.False(t, r.InProgress("Node"))
	assert.Nil(t, r.Deref("Node"))
	assert.Empty(t, r.Names())
}

func TestRegistry_DeferInheritance(t *testing.T) {
	r := NewRegistry()
	r.Store(&Reference{Name: "Base", Properties: []Property{{Name: "a"}}})

	// Mid extends Base, Leaf extends Mid. Leaf was queued first and
	// still sees the completed Mid.
	leafOwn := []Property{{Name: "c"}}
	r.Store(&Reference{Name: "Leaf", Properties: leafOwn})
	r.DeferInheritance("Leaf", []string{"Mid"}, leafOwn)

	midOwn := []Property{{Name: "b"}}
	r.Store(&Reference{Name: "Mid", Properties: midOwn})
	r.DeferInheritance("Mid", []string{"Base"}, midOwn)

	leafHandle := r.Placeholder("Leaf")
	assert.True(t, r.Deferred("Leaf"))

	r.Finish()
	assert.False(t, r.Deferred("Leaf"))

	mid, _ := r.Lookup("Mid")
	leaf, _ := r.Lookup("Leaf")
	assert.Equal(t, []Property{{Name: "a"}, {Name: "b"}}, mid.Properties)
	assert.Equal(t, []Property{{Name: "a"}, {Name: "b"}, {Name: "c"}}, leaf.Properties)

	placeholder := r.placeholders[leafHandle.Ref]
	assert.Equal(t, leaf.Properties, placeholder.Properties, "placeholders see completed inheritance")
}

func TestRegistry_DeferInheritanceCycle(t *testing.T) {
	r := NewRegistry()
	r.Store(&Reference{Name: "A", Properties: []Property{{Name: "a"}}})
	r.Store(&Reference{Name: "B", Properties: []Property{{Name: "b"}}})
	r.DeferInheritance("A", []string{"B"}, []Property{{Name: "a"}})
	r.DeferInheritance("B", []string{"A"}, []Property{{Name: "b"}})

	require.NotPanics(t, r.Finish)
	assert.False(t, r.Deferred("A"))
	assert.False(t, r.Deferred("B"))
}

func TestRegistry_Claim(t *testing.T) {
	r := NewRegistry()
	first := &declaration.Declaration{Name: "Item"}
	second := &declaration.Declaration{Name: "Item"}

	_, ok := r.Claim("Item", first)
	assert.True(t, ok)
	_, ok = r.Claim("Item", first)
	assert.True(t, ok, "claiming again for the same declaration")

	prev, ok := r.Claim("Item", second)
	assert.False(t, ok)
	assert.Same(t, first, prev)

	r.Reset()
	_, ok = r.Claim("Item", second)
	assert.True(t, ok)
}

func TestValidators_Merge(t *testing.T) {
	assert.Nil(t, Validators(nil).Merge(nil))

	own := Validators{"minimum": {Value: 1.0}, "pattern": {Value: "^a"}}
	other := Validators{"minimum": {Value: 5.0, ErrorMsg: "too small"}}
	merged := own.Merge(other)

	assert.Equal(t, Validators{
		"minimum": {Value: 5.0, ErrorMsg: "too small"},
		"pattern": {Value: "^a"},
	}, merged)
	assert.Equal(t, 1.0, own["minimum"].Value, "inputs are not modified")
}

func TestLocation_Valid(t *testing.T) {
	for _, l := range []Location{InBody, InBodyProp, InQuery, InQueries, InPath, InHeader} {
		assert.True(t, l.Valid(), l)
	}
	assert.False(t, Location("cookie").Valid())
	assert.False(t, Location("").Valid())
}
