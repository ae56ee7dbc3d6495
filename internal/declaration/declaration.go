// Package declaration models the declaration set handed to the resolver:
// sources, namespaces, type declarations, controllers and the annotation
// records attached to each of them.
//
// A Set is produced by a discovery step outside this module (or loaded from a
// YAML document with Parse/Load) and is treated as read-only afterwards.
package declaration

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies the declaration variant. The set is closed: every
// extraction site switches over all four kinds.
type Kind int

const (
	KindRecord Kind = iota + 1 // interface-like structural record
	KindClass                  // class with fields and constructor properties
	KindAlias                  // type alias
	KindEnum                   // enumeration
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindClass:
		return "class"
	case KindAlias:
		return "alias"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	switch strings.ToLower(value.Value) {
	case "record", "interface":
		*k = KindRecord
	case "class":
		*k = KindClass
	case "alias", "type":
		*k = KindAlias
	case "enum":
		*k = KindEnum
	default:
		return fmt.Errorf("line %d: unknown declaration kind %q", value.Line, value.Value)
	}
	return nil
}

// Set is the complete declaration set for one generation run.
type Set struct {
	Sources     []*Source     `yaml:"sources"`
	Controllers []*Controller `yaml:"controllers"`
}

// Source is one file (or library) contributing declarations. Its embedded
// Namespace is the file's top-level scope.
type Source struct {
	Path string `yaml:"path"`
	// Library marks standard or third-party sources. The locator drops
	// library declarations when a user declaration has the same name.
	Library   bool `yaml:"library"`
	Namespace `yaml:",inline"`
}

// Root returns the top-level namespace of the source.
func (s *Source) Root() *Namespace {
	return &s.Namespace
}

// Namespace is a named container of declarations (a TypeScript namespace or
// module block). The top-level namespace of a Source has an empty name.
type Namespace struct {
	Name         string         `yaml:"name"`
	Export       *bool          `yaml:"exported"`
	Declarations []*Declaration `yaml:"declarations"`
	Namespaces   []*Namespace   `yaml:"namespaces"`

	parent *Namespace
	source *Source
}

// Exported reports whether the namespace is exported. Defaults to true.
func (n *Namespace) Exported() bool {
	return n.Export == nil || *n.Export
}

// Parent returns the enclosing namespace, or nil for a source root.
func (n *Namespace) Parent() *Namespace {
	return n.parent
}

// Source returns the source the namespace belongs to.
func (n *Namespace) Source() *Source {
	return n.source
}

// QualifiedName returns the dotted namespace path from the source root.
func (n *Namespace) QualifiedName() string {
	var parts []string
	for ns := n; ns != nil && ns.parent != nil; ns = ns.parent {
		parts = append([]string{ns.Name}, parts...)
	}
	return strings.Join(parts, ".")
}

// Origin describes where the namespace lives, e.g. "src/models.ts#Api.V1".
func (n *Namespace) Origin() string {
	path := ""
	if n.source != nil {
		path = n.source.Path
	}
	if q := n.QualifiedName(); q != "" {
		return path + "#" + q
	}
	return path
}

// Child returns the directly nested namespace with the given name.
func (n *Namespace) Child(name string) *Namespace {
	for _, child := range n.Namespaces {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// Declaration is a single type declaration. Which fields are meaningful
// depends on Kind.
type Declaration struct {
	Kind        Kind        `yaml:"kind"`
	Name        string      `yaml:"name"`
	Export      *bool       `yaml:"exported"`
	Annotations Annotations `yaml:"annotations"`

	// TypeParameters lists generic parameter names in declaration order.
	TypeParameters []string `yaml:"typeParameters"`

	// Extends lists base types (record and class).
	Extends []TypeNode `yaml:"extends"`
	// Fields holds record properties or class fields.
	Fields []*Field `yaml:"fields"`
	// Index is the optional `[key: K]: V` signature (record and class).
	Index *IndexSignature `yaml:"index"`
	// Constructor holds class constructor parameters.
	Constructor []*ConstructorParam `yaml:"constructor"`

	// Type is the aliased type (alias).
	Type *TypeNode `yaml:"type"`

	// Members holds enumeration members (enum).
	Members []*EnumMember `yaml:"members"`

	namespace *Namespace
}

// Exported reports whether the declaration is exported. Defaults to true.
func (d *Declaration) Exported() bool {
	return d.Export == nil || *d.Export
}

// Namespace returns the namespace that lexically contains the declaration.
func (d *Declaration) Namespace() *Namespace {
	return d.namespace
}

// Origin describes where the declaration lives, for error messages.
func (d *Declaration) Origin() string {
	if d.namespace == nil {
		return d.Name
	}
	return d.namespace.Origin()
}

// Field is a record property or class field.
type Field struct {
	Name     string    `yaml:"name"`
	Type     *TypeNode `yaml:"type"`
	Optional bool      `yaml:"optional"`
	// Visibility is "public" (default), "protected" or "private". Classes only.
	Visibility  string      `yaml:"visibility"`
	Static      bool        `yaml:"static"`
	Initializer any         `yaml:"initializer"`
	Annotations Annotations `yaml:"annotations"`
}

// Public reports whether the field is publicly visible.
func (f *Field) Public() bool {
	return f.Visibility == "" || f.Visibility == "public"
}

// ConstructorParam is a class constructor parameter. Parameters carrying a
// public or readonly modifier are promoted to properties.
type ConstructorParam struct {
	Name        string      `yaml:"name"`
	Type        *TypeNode   `yaml:"type"`
	Optional    bool        `yaml:"optional"`
	Modifiers   []string    `yaml:"modifiers"`
	Initializer any         `yaml:"initializer"`
	Annotations Annotations `yaml:"annotations"`
}

// Promoted reports whether the parameter is declared as a property.
func (p *ConstructorParam) Promoted() bool {
	for _, m := range p.Modifiers {
		if m == "public" || m == "readonly" {
			return true
		}
	}
	return false
}

// IndexSignature is an open dictionary signature.
type IndexSignature struct {
	Key   TypeNode `yaml:"key"`
	Value TypeNode `yaml:"value"`
}

// EnumMember is one enumeration member. Value is nil when the member has no
// explicit initializer.
type EnumMember struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// Controller groups API operations under a route prefix.
type Controller struct {
	Name string `yaml:"name"`
	// Source is the path of the source the controller is declared in.
	Source string `yaml:"source"`
	// Namespace is the dotted namespace path inside Source, if any.
	Namespace   string       `yaml:"namespace"`
	Path        string       `yaml:"path"`
	Security    []Security   `yaml:"security"`
	Annotations Annotations  `yaml:"annotations"`
	Operations  []*Operation `yaml:"operations"`

	scope *Namespace
}

// Scope returns the lexical scope operation types are resolved in.
func (c *Controller) Scope() *Namespace {
	return c.scope
}

// Operation is a single API operation.
type Operation struct {
	Name        string      `yaml:"name"`
	Verb        string      `yaml:"verb"`
	Path        string      `yaml:"path"`
	Returns     *TypeNode   `yaml:"returns"`
	Parameters  []*Param    `yaml:"parameters"`
	Security    []Security  `yaml:"security"`
	Annotations Annotations `yaml:"annotations"`
}

// Param is an operation parameter.
type Param struct {
	Name        string      `yaml:"name"`
	In          string      `yaml:"in"`
	Type        *TypeNode   `yaml:"type"`
	Optional    bool        `yaml:"optional"`
	Initializer any         `yaml:"initializer"`
	Annotations Annotations `yaml:"annotations"`
}

// Security is a named security requirement with optional scopes.
type Security struct {
	Name   string   `yaml:"name" json:"name"`
	Scopes []string `yaml:"scopes" json:"scopes,omitempty"`
}
