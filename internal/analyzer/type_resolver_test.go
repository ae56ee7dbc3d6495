package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HoldYourWaffle2/tsoa/internal/declaration"
	"github.com/HoldYourWaffle2/tsoa/internal/diagnostic"
	"github.com/HoldYourWaffle2/tsoa/internal/metadata"
)

const modelsFixture = `
sources:
  - path: src/models.ts
    declarations:
      - kind: interface
        name: User
        annotations:
          description: A registered user
        fields:
          - name: id
            type: number
            annotations:
              tags: ["@isInt"]
          - name: name
            type: string
          - name: email
            type: string
            optional: true
            annotations:
              format: email
          - name: password
            type: string
            annotations:
              tags: ["@ignore"]
      - kind: interface
        name: Page
        typeParameters: [T]
        fields:
          - name: items
            type: T[]
          - name: data
            type: T
          - name: total
            type: number
      - kind: interface
        name: Node
        fields:
          - name: value
            type: string
          - name: child
            type: Node
            optional: true
      - kind: interface
        name: Base
        fields:
          - name: a
            type: string
          - name: b
            type: string
      - kind: interface
        name: Derived
        extends: [Base]
        fields:
          - name: b
            type: number
          - name: c
            type: boolean
      - kind: enum
        name: Color
        members:
          - name: Red
            value: red
          - name: Green
            value: green
      - kind: enum
        name: Level
        members:
          - name: Low
          - name: High
      - kind: alias
        name: Status
        type: '"active" | "inactive"'
      - kind: alias
        name: UserPage
        type: Page<User>
      - kind: alias
        name: Named
        type: Base & Tagged
      - kind: interface
        name: Tagged
        fields:
          - name: tag
            type: string
      - kind: interface
        name: Dictionary
        fields:
          - name: size
            type: number
        index:
          key: string
          value: User
      - kind: interface
        name: NumberKeyed
        index:
          key: number
          value: string
      - kind: class
        name: Account
        fields:
          - name: id
            type: string
          - name: balance
            initializer: 0
          - name: currency
            type: string
            initializer: EUR
          - name: secret
            type: string
            visibility: private
          - name: registry
            type: string
            static: true
          - name: nickname
            optional: true
            type: string
        constructor:
          - name: owner
            type: User
            modifiers: [readonly]
          - name: scratch
            type: string
      - kind: class
        name: Broken
        fields:
          - name: thing
      - kind: interface
        name: Missing
        fields:
          - name: thing
      - kind: enum
        name: Weird
        members:
          - name: A
            value: [1, 2]
`

func TestResolve_Primitives(t *testing.T) {
	set := parseSet(t, modelsFixture)

	tests := []struct {
		expr string
		tags []string
		want metadata.Primitive
	}{
		{"string", nil, metadata.String},
		{"boolean", nil, metadata.Boolean},
		{"number", nil, metadata.Double},
		{"bigint", nil, metadata.Double},
		{"number", []string{"isInt"}, metadata.Integer},
		{"number", []string{"isLong"}, metadata.Long},
		{"number", []string{"isFloat"}, metadata.Float},
		{"number", []string{"isDouble"}, metadata.Double},
		{"number", []string{"isLong", "isInt"}, metadata.Long},
		{"Date", nil, metadata.DateTime},
		{"Date", []string{"isDate"}, metadata.Date},
		{"Date", []string{"isDateTime"}, metadata.DateTime},
		{"Buffer", nil, metadata.Buffer},
		{"String", nil, metadata.String},
		{"any", nil, metadata.Any},
		{"unknown", nil, metadata.Any},
		{"{}", nil, metadata.Any},
		{"object", nil, metadata.Object},
		{"void", nil, metadata.Void},
		{"undefined", nil, metadata.Void},
		{"null", nil, metadata.Void},
		{"Promise<string>", nil, metadata.String},
		{"string | null", nil, metadata.String},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			r, _ := newResolver(set)
			ann := &declaration.Annotations{}
			for _, name := range tt.tags {
				ann.Tags = append(ann.Tags, declaration.Tag{Name: name})
			}
			got, err := r.Resolve(declaration.MustParseType(tt.expr), set.Sources[0].Root(), ann, true)
			require.NoError(t, err)
			assert.Equal(t, metadata.PrimitiveType(tt.want), got)
		})
	}
}

func TestResolve_NeverIsUnknownShape(t *testing.T) {
	set := parseSet(t, modelsFixture)
	r, _ := newResolver(set)
	_, err := resolveIn(t, r, set, "never")
	require.ErrorIs(t, err, ErrUnknownTypeShape)
}

func TestResolve_ArraysAndLiterals(t *testing.T) {
	set := parseSet(t, modelsFixture)
	r, _ := newResolver(set)

	got, err := resolveIn(t, r, set, "string[][]")
	require.NoError(t, err)
	assert.Equal(t, metadata.ArrayOf(metadata.ArrayOf(metadata.PrimitiveType(metadata.String))), got)

	got, err = resolveIn(t, r, set, "Array<boolean>")
	require.NoError(t, err)
	assert.Equal(t, metadata.ArrayOf(metadata.PrimitiveType(metadata.Boolean)), got)

	got, err = resolveIn(t, r, set, `"a" | "b" | 1 | true`)
	require.NoError(t, err)
	assert.Equal(t, metadata.EnumOf([]string{"a", "b", "1", "true"}), got)

	got, err = resolveIn(t, r, set, `"only"`)
	require.NoError(t, err)
	assert.Equal(t, metadata.EnumOf([]string{"only"}), got)

	got, err = resolveIn(t, r, set, "Status")
	require.NoError(t, err)
	assert.Equal(t, metadata.EnumOf([]string{"active", "inactive"}), got)

	_, err = resolveIn(t, r, set, "Array<string, number>")
	require.ErrorIs(t, err, ErrMalformedAnnotation)
}

func TestResolve_UnionsAndIntersections(t *testing.T) {
	set := parseSet(t, modelsFixture)
	r, diags := newResolver(set)

	got, err := resolveIn(t, r, set, "string | number | null")
	require.NoError(t, err)
	assert.Equal(t, metadata.UnionOf([]metadata.Type{
		metadata.PrimitiveType(metadata.String),
		metadata.PrimitiveType(metadata.Double),
	}), got)

	got, err = resolveIn(t, r, set, "Base & Tagged")
	require.NoError(t, err)
	assert.Equal(t, metadata.IntersectionOf([]metadata.Type{metadata.RefTo("Base"), metadata.RefTo("Tagged")}), got)

	got, err = resolveIn(t, r, set, "null | undefined")
	require.NoError(t, err)
	assert.Equal(t, metadata.PrimitiveType(metadata.Void), got)

	// Literal members collapse into one enum member where the first literal
	// stood.
	got, err = resolveIn(t, r, set, `"a" | User | "b"`)
	require.NoError(t, err)
	assert.Equal(t, metadata.UnionOf([]metadata.Type{
		metadata.EnumOf([]string{"a", "b"}),
		metadata.RefTo("User"),
	}), got)
	assert.Empty(t, diags.Diagnostics())

	// An inline object member cannot be represented.
	got, err = resolveIn(t, r, set, "User | {}")
	require.NoError(t, err)
	assert.Equal(t, metadata.PrimitiveType(metadata.Any), got)
	require.Len(t, diags.Diagnostics(), 1)
	assert.Equal(t, diagnostic.CategoryTypeUnsupported, diags.Diagnostics()[0].Category)
}

func TestResolve_RecordProperties(t *testing.T) {
	set := parseSet(t, modelsFixture)
	r, _ := newResolver(set)

	got, err := resolveIn(t, r, set, "User")
	require.NoError(t, err)
	assert.Equal(t, metadata.RefTo("User"), got)

	user, ok := r.Registry().Lookup("User")
	require.True(t, ok)
	assert.Equal(t, "A registered user", user.Description)
	assert.Equal(t, []string{"id", "name", "email"}, propertyNames(user.Properties))

	id := user.Properties[0]
	assert.Equal(t, metadata.PrimitiveType(metadata.Integer), id.Type)
	assert.True(t, id.Required)
	assert.Equal(t, metadata.Validators{"isInt": {}}, id.Validators)

	email := user.Properties[2]
	assert.False(t, email.Required)
	assert.Equal(t, "email", email.Format)
	assert.Nil(t, email.Validators)
}

func TestResolve_CacheIdentityAndReset(t *testing.T) {
	set := parseSet(t, modelsFixture)
	r, _ := newResolver(set)

	_, err := resolveIn(t, r, set, "User")
	require.NoError(t, err)
	first, _ := r.Registry().Lookup("User")

	_, err = resolveIn(t, r, set, "User[]")
	require.NoError(t, err)
	second, _ := r.Registry().Lookup("User")
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Registry().Len())

	r.Registry().Reset()
	assert.Equal(t, 0, r.Registry().Len())
	assert.Empty(t, r.Registry().Names())
}

func TestResolve_SelfReference(t *testing.T) {
	set := parseSet(t, modelsFixture)
	r, _ := newResolver(set)

	_, err := resolveIn(t, r, set, "Node")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Registry().Pending())

	r.Registry().Finish()

	node := r.Registry().Deref("Node")
	require.NotNil(t, node)
	require.Len(t, node.Properties, 2)
	child := node.Properties[1]
	assert.Equal(t, metadata.RefTo("Node"), child.Type)
	assert.Equal(t, node.Properties, r.Registry().Deref(child.Type.Ref).Properties)
	assert.Zero(t, r.Registry().Pending())
}

func TestResolve_GenericNaming(t *testing.T) {
	set := parseSet(t, modelsFixture)
	r, _ := newResolver(set)

	tests := []struct {
		expr string
		want string
	}{
		{"Page<User>", "PageUser"},
		{"Page<Array<User>>", "PageUserArray"},
		{"Page<User[]>", "PageUserArray"},
		{"Page<string>", "Pagestring"},
		{"Page<string | number>", "Pageobject"},
		{"Page<Page<User>>", "PagePageUser"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := resolveIn(t, r, set, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, metadata.RefTo(tt.want), got)
			assert.True(t, r.Registry().Has(tt.want))
		})
	}

	page, _ := r.Registry().Lookup("PageUser")
	assert.Equal(t, []string{"items", "data", "total"}, propertyNames(page.Properties))
	assert.Equal(t, metadata.ArrayOf(metadata.RefTo("User")), page.Properties[0].Type)
	assert.Equal(t, metadata.RefTo("User"), page.Properties[1].Type)
}

func TestResolve_GenericArityMismatch(t *testing.T) {
	set := parseSet(t, modelsFixture)
	r, _ := newResolver(set)

	_, err := resolveIn(t, r, set, "Page")
	require.ErrorIs(t, err, ErrMalformedAnnotation)
	assert.Contains(t, err.Error(), "Page")

	_, err = resolveIn(t, r, set, "User<string>")
	require.ErrorIs(t, err, ErrMalformedAnnotation)
}

func TestResolve_InheritanceOverride(t *testing.T) {
	set := parseSet(t, modelsFixture)
	r, _ := newResolver(set)

	_, err := resolveIn(t, r, set, "Derived")
	require.NoError(t, err)

	derived, _ := r.Registry().Lookup("Derived")
	assert.Equal(t, []string{"a", "b", "b", "c"}, propertyNames(derived.Properties))
	assert.Equal(t, metadata.PrimitiveType(metadata.Double), derived.Properties[2].Type)
	assert.True(t, r.Registry().Has("Base"))
}

func TestResolve_AliasProperties(t *testing.T) {
	set := parseSet(t, modelsFixture)
	r, _ := newResolver(set)

	_, err := resolveIn(t, r, set, "Named")
	require.NoError(t, err)
	named, _ := r.Registry().Lookup("Named")
	assert.Equal(t, []string{"a", "b", "tag"}, propertyNames(named.Properties))

	_, err = resolveIn(t, r, set, "UserPage")
	require.NoError(t, err)
	userPage, _ := r.Registry().Lookup("UserPage")
	assert.Equal(t, []string{"items", "data", "total"}, propertyNames(userPage.Properties))
	assert.True(t, r.Registry().Has("PageUser"))
}

func TestResolve_IndexSignature(t *testing.T) {
	set := parseSet(t, modelsFixture)
	r, _ := newResolver(set)

	_, err := resolveIn(t, r, set, "Dictionary")
	require.NoError(t, err)
	dict, _ := r.Registry().Lookup("Dictionary")
	require.NotNil(t, dict.AdditionalProperties)
	assert.Equal(t, metadata.RefTo("User"), *dict.AdditionalProperties)

	_, err = resolveIn(t, r, set, "NumberKeyed")
	require.ErrorIs(t, err, ErrMalformedDeclaration)
}

func TestResolve_ClassMembers(t *testing.T) {
	set := parseSet(t, modelsFixture)
	r, _ := newResolver(set)

	_, err := resolveIn(t, r, set, "Account")
	require.NoError(t, err)
	account, _ := r.Registry().Lookup("Account")
	assert.Equal(t, []string{"id", "balance", "currency", "nickname", "owner"}, propertyNames(account.Properties))

	byName := make(map[string]metadata.Property)
	for _, p := range account.Properties {
		byName[p.Name] = p
	}
	assert.True(t, byName["id"].Required)
	assert.False(t, byName["balance"].Required)
	assert.Equal(t, metadata.PrimitiveType(metadata.Double), byName["balance"].Type)
	assert.Equal(t, 0, byName["balance"].Default)
	assert.Equal(t, "EUR", byName["currency"].Default)
	assert.False(t, byName["nickname"].Required)
	assert.True(t, byName["owner"].Required)
	assert.Equal(t, metadata.RefTo("User"), byName["owner"].Type)

	_, err = resolveIn(t, r, set, "Broken")
	require.ErrorIs(t, err, ErrMalformedDeclaration)
	_, err = resolveIn(t, r, set, "Missing")
	require.ErrorIs(t, err, ErrMalformedDeclaration)
}

func TestResolve_Enums(t *testing.T) {
	set := parseSet(t, modelsFixture)

	r, _ := newResolver(set)
	got, err := r.Resolve(declaration.Reference("Color"), set.Sources[0].Root(), nil, false)
	require.NoError(t, err)
	assert.Equal(t, metadata.EnumOf([]string{"red", "green"}), got)
	assert.Zero(t, r.Registry().Len())

	got, err = r.Resolve(declaration.Reference("Level"), set.Sources[0].Root(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, metadata.RefTo("Level"), got)
	level, ok := r.Registry().Lookup("Level")
	require.True(t, ok)
	assert.True(t, level.Enum)
	assert.Equal(t, []string{"0", "1"}, level.EnumValues)

	_, err = r.Resolve(declaration.Reference("Weird"), set.Sources[0].Root(), nil, true)
	require.ErrorIs(t, err, ErrMalformedDeclaration)
}

func TestResolve_NotFound(t *testing.T) {
	set := parseSet(t, modelsFixture)
	r, _ := newResolver(set)
	_, err := resolveIn(t, r, set, "Nope")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "Nope")
}

const inheritanceCycleFixture = `
sources:
  - path: src/pets.ts
    declarations:
      - kind: interface
        name: Owner
        fields:
          - name: pet
            type: Pet
          - name: ownerName
            type: string
          - name: guide
            type: GuideDog
            optional: true
      - kind: interface
        name: Pet
        extends: [Owner]
        fields:
          - name: species
            type: string
      - kind: interface
        name: GuideDog
        extends: [Pet]
        fields:
          - name: trained
            type: boolean
      - kind: interface
        name: Resident
        fields:
          - name: home
            type: Home
          - name: residentName
            type: string
      - kind: alias
        name: Home
        type: Resident & Address
      - kind: interface
        name: Address
        fields:
          - name: street
            type: string
`

func TestResolve_InheritanceThroughCycle(t *testing.T) {
	set := parseSet(t, inheritanceCycleFixture)

	want := map[string][]string{
		"Owner":    {"pet", "ownerName", "guide"},
		"Pet":      {"pet", "ownerName", "guide", "species"},
		"GuideDog": {"pet", "ownerName", "guide", "species", "trained"},
	}
	for _, first := range []string{"Owner", "Pet", "GuideDog"} {
		t.Run(first, func(t *testing.T) {
			r, _ := newResolver(set)
			_, err := resolveIn(t, r, set, first)
			require.NoError(t, err)
			r.Registry().Finish()

			for name, props := range want {
				ref, ok := r.Registry().Lookup(name)
				require.True(t, ok, name)
				assert.Equal(t, props, propertyNames(ref.Properties), name)
				assert.Equal(t, props, propertyNames(r.Registry().Deref(name).Properties), name)
				assert.False(t, r.Registry().Deferred(name), name)
			}
		})
	}
}

func TestResolve_AliasThroughCycle(t *testing.T) {
	set := parseSet(t, inheritanceCycleFixture)

	for _, first := range []string{"Resident", "Home"} {
		t.Run(first, func(t *testing.T) {
			r, _ := newResolver(set)
			_, err := resolveIn(t, r, set, first)
			require.NoError(t, err)
			r.Registry().Finish()

			home, ok := r.Registry().Lookup("Home")
			require.True(t, ok)
			assert.Equal(t, []string{"home", "residentName", "street"}, propertyNames(home.Properties))
		})
	}
}

func TestResolve_SameNameInDifferentNamespaces(t *testing.T) {
	set := parseSet(t, `
sources:
  - path: src/items.ts
    namespaces:
      - name: A
        declarations:
          - kind: interface
            name: Item
            fields:
              - name: fromA
                type: string
      - name: B
        declarations:
          - kind: interface
            name: Item
            fields:
              - name: fromB
                type: string
`)
	r, _ := newResolver(set)

	got, err := resolveIn(t, r, set, "A.Item")
	require.NoError(t, err)
	assert.Equal(t, metadata.RefTo("Item"), got)

	_, err = resolveIn(t, r, set, "A.Item")
	require.NoError(t, err, "the same declaration may be resolved again")

	_, err = resolveIn(t, r, set, "B.Item")
	require.ErrorIs(t, err, ErrAmbiguous)
	var gerr *GenerateError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, []string{"src/items.ts#A", "src/items.ts#B"}, gerr.Conflicts)

	item, _ := r.Registry().Lookup("Item")
	assert.Equal(t, []string{"fromA"}, propertyNames(item.Properties))
}
