// Package metadata defines the resolved type graph produced by one
// generation run: type descriptors, reference records, properties,
// parameters and the operation metadata that points into them.
package metadata

import "github.com/HoldYourWaffle2/tsoa/internal/declaration"

// Kind identifies the variant of a Type.
type Kind string

const (
	KindPrimitive    Kind = "primitive"
	KindArray        Kind = "array"
	KindEnum         Kind = "enum"
	KindRef          Kind = "ref"
	KindUnion        Kind = "union"
	KindIntersection Kind = "intersection"
)

// Primitive is the tag of a primitive type.
type Primitive string

const (
	String   Primitive = "string"
	Boolean  Primitive = "boolean"
	Integer  Primitive = "integer"
	Long     Primitive = "long"
	Float    Primitive = "float"
	Double   Primitive = "double"
	DateTime Primitive = "datetime"
	Date     Primitive = "date"
	Buffer   Primitive = "buffer"
	Any      Primitive = "any"
	Object   Primitive = "object"
	Void     Primitive = "void"
)

// Type is a resolved type descriptor.
type Type struct {
	Kind Kind `json:"kind"`

	// Primitive is set when Kind == KindPrimitive.
	Primitive Primitive `json:"primitive,omitempty"`

	// ElementType is set when Kind == KindArray.
	ElementType *Type `json:"elementType,omitempty"`

	// EnumValues holds the ordered literal values when Kind == KindEnum.
	EnumValues []string `json:"enumValues,omitempty"`

	// Ref is the canonical name of a reference record when Kind == KindRef.
	// The record itself lives in the run's Registry.
	Ref string `json:"$ref,omitempty"`

	// Members holds union or intersection members.
	Members []Type `json:"members,omitempty"`
}

// PrimitiveType returns a primitive descriptor.
func PrimitiveType(p Primitive) Type {
	return Type{Kind: KindPrimitive, Primitive: p}
}

// ArrayOf returns an array descriptor.
func ArrayOf(elem Type) Type {
	return Type{Kind: KindArray, ElementType: &elem}
}

// EnumOf returns an inline enum descriptor.
func EnumOf(values []string) Type {
	return Type{Kind: KindEnum, EnumValues: values}
}

// RefTo returns a reference handle.
func RefTo(name string) Type {
	return Type{Kind: KindRef, Ref: name}
}

// UnionOf returns a union descriptor.
func UnionOf(members []Type) Type {
	return Type{Kind: KindUnion, Members: members}
}

// IntersectionOf returns an intersection descriptor.
func IntersectionOf(members []Type) Type {
	return Type{Kind: KindIntersection, Members: members}
}

// Reference is a named, structurally resolved object or enumeration.
type Reference struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Example     any    `json:"example,omitempty"`

	// AdditionalProperties is the value type of a string-keyed index signature.
	AdditionalProperties *Type `json:"additionalProperties,omitempty"`

	// Properties are ordered inherited-first. Later entries override earlier
	// ones with the same name once materialized.
	Properties []Property `json:"properties,omitempty"`

	// Enum marks enumeration references; EnumValues then holds the literals.
	Enum       bool     `json:"enum,omitzero"`
	EnumValues []string `json:"enumValues,omitempty"`
}

// Property is a resolved field of a reference.
type Property struct {
	Name        string     `json:"name"`
	Type        Type       `json:"type"`
	Required    bool       `json:"required,omitzero"`
	Default     any        `json:"default,omitempty"`
	Description string     `json:"description,omitempty"`
	Format      string     `json:"format,omitempty"`
	Validators  Validators `json:"validators,omitempty"`
}

// Validator is one extracted constraint.
type Validator struct {
	Value    any    `json:"value,omitempty"`
	ErrorMsg string `json:"errorMsg,omitempty"`
}

// Validators maps constraint name to its value. Empty sets are stored as nil.
type Validators map[string]Validator

// Merge returns the union of v and other, other winning on conflicts.
// The result is nil when both are empty.
func (v Validators) Merge(other Validators) Validators {
	if len(v) == 0 && len(other) == 0 {
		return nil
	}
	out := make(Validators, len(v)+len(other))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range other {
		out[k] = val
	}
	return out
}

// Location is where a parameter is read from.
type Location string

const (
	InBody     Location = "body"
	InBodyProp Location = "body-prop"
	InQuery    Location = "query"
	InQueries  Location = "queries" // aggregate: one sub-parameter per property
	InPath     Location = "path"
	InHeader   Location = "header"
)

// Valid reports whether l is a known location.
func (l Location) Valid() bool {
	switch l {
	case InBody, InBodyProp, InQuery, InQueries, InPath, InHeader:
		return true
	}
	return false
}

// Parameter is a resolved operation parameter.
type Parameter struct {
	Property `json:",inline"`
	In       Location `json:"in"`

	// Parameters holds the sub-parameters of an aggregate parameter.
	Parameters []Parameter `json:"parameters,omitempty"`
}

// Security is a security requirement of an operation.
type Security = declaration.Security

// Method is a resolved API operation.
type Method struct {
	Name        string      `json:"name"`
	Verb        string      `json:"verb"`
	Path        string      `json:"path"`
	Description string      `json:"description,omitempty"`
	Deprecated  bool        `json:"deprecated,omitzero"`
	Tags        []string    `json:"tags,omitempty"`
	Parameters  []Parameter `json:"parameters,omitempty"`
	Type        Type        `json:"type"`
	Security    []Security  `json:"security,omitempty"`
}

// Controller is a resolved controller.
type Controller struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Methods []Method `json:"methods"`
}

// Spec is the output of a completed generation run.
type Spec struct {
	Controllers []Controller `json:"controllers"`
	Registry    *Registry    `json:"-"`
}
