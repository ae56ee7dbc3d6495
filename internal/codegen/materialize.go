package codegen

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/HoldYourWaffle2/tsoa/internal/metadata"
)

// Policy is the global additional-properties policy.
type Policy string

const (
	PolicyUnset                Policy = ""
	PolicyIgnore               Policy = "ignore"
	PolicyThrowOnExtras        Policy = "throw-on-extras"
	PolicySilentlyRemoveExtras Policy = "silently-remove-extras"
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	switch p {
	case PolicyUnset, PolicyIgnore, PolicyThrowOnExtras, PolicySilentlyRemoveExtras:
		return true
	}
	return false
}

// Options configures materialization.
type Options struct {
	NoImplicitAdditionalProperties Policy

	// LegacyNoImplicitAdditionalProperties is the deprecated boolean form.
	// It is consulted only when no policy is set, and read inverted: true
	// disallows extras.
	LegacyNoImplicitAdditionalProperties *bool
}

// additionalProperties resolves the model-level default when the model has
// no dictionary value type of its own.
func (o Options) additionalProperties() (bool, error) {
	switch o.NoImplicitAdditionalProperties {
	case PolicyThrowOnExtras, PolicySilentlyRemoveExtras:
		return false, nil
	case PolicyIgnore:
		return true, nil
	case PolicyUnset:
		if o.LegacyNoImplicitAdditionalProperties != nil {
			return !*o.LegacyNoImplicitAdditionalProperties, nil
		}
		return true, nil
	}
	return false, fmt.Errorf("unknown noImplicitAdditionalProperties policy %q", o.NoImplicitAdditionalProperties)
}

var operationIDCaser = cases.Title(language.Und, cases.NoLower)

// Materialize converts the metadata of a completed run into a Document.
// It must only be called after the run finished; reference records are read
// through the run's registry.
func Materialize(spec *metadata.Spec, opts Options) (*Document, error) {
	allowExtras, err := opts.additionalProperties()
	if err != nil {
		return nil, err
	}

	doc := &Document{Models: NewOrderedMap[ModelSchema]()}

	if spec.Registry != nil {
		refs := spec.Registry.References()
		names := make([]string, 0, len(refs))
		for name := range refs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			doc.Models.Set(name, modelSchema(refs[name], allowExtras))
		}
	}

	for _, c := range spec.Controllers {
		for _, m := range c.Methods {
			op := Operation{
				Controller:  c.Name,
				Name:        m.Name,
				OperationID: operationIDCaser.String(m.Name),
				Verb:        m.Verb,
				Path:        joinPath(c.Path, m.Path),
				Description: m.Description,
				Deprecated:  m.Deprecated,
				Tags:        m.Tags,
				Parameters:  make([]ParameterSchema, 0, len(m.Parameters)),
				Type:        typeSchema(m.Type),
				Security:    m.Security,
			}
			for _, p := range m.Parameters {
				op.Parameters = append(op.Parameters, parameterSchema(p))
			}
			doc.Operations = append(doc.Operations, op)
		}
	}
	return doc, nil
}

func modelSchema(ref *metadata.Reference, allowExtras bool) ModelSchema {
	if ref.Enum {
		return ModelSchema{
			DataType:    DataTypeRefEnum,
			Description: ref.Description,
			Example:     ref.Example,
			Enums:       ref.EnumValues,
		}
	}

	props := NewOrderedMap[PropertySchema]()
	for _, p := range ref.Properties {
		props.Set(p.Name, propertySchema(p))
	}

	additional := &AdditionalProperties{Allowed: allowExtras}
	if ref.AdditionalProperties != nil {
		s := typeSchema(*ref.AdditionalProperties)
		additional = &AdditionalProperties{Schema: &s}
	}

	return ModelSchema{
		DataType:             DataTypeRefObject,
		Description:          ref.Description,
		Example:              ref.Example,
		Properties:           props,
		AdditionalProperties: additional,
	}
}

func propertySchema(p metadata.Property) PropertySchema {
	s := typeSchema(p.Type)
	s.Required = p.Required
	s.Default = p.Default
	s.Description = p.Description
	s.Format = p.Format
	if len(p.Validators) > 0 {
		s.Validators = p.Validators
	}
	return s
}

func parameterSchema(p metadata.Parameter) ParameterSchema {
	ps := ParameterSchema{
		PropertySchema: propertySchema(p.Property),
		Name:           p.Name,
		In:             p.In,
	}
	for _, sub := range p.Parameters {
		ps.Parameters = append(ps.Parameters, parameterSchema(sub))
	}
	return ps
}

// typeSchema converts a descriptor. References always become name pointers.
func typeSchema(t metadata.Type) PropertySchema {
	switch t.Kind {
	case metadata.KindArray:
		elem := typeSchema(*t.ElementType)
		return PropertySchema{DataType: DataTypeArray, Array: &elem}
	case metadata.KindEnum:
		return PropertySchema{DataType: DataTypeEnum, Enums: t.EnumValues}
	case metadata.KindRef:
		return PropertySchema{Ref: t.Ref}
	case metadata.KindUnion, metadata.KindIntersection:
		subs := make([]PropertySchema, 0, len(t.Members))
		for _, m := range t.Members {
			subs = append(subs, typeSchema(m))
		}
		dataType := DataTypeUnion
		if t.Kind == metadata.KindIntersection {
			dataType = DataTypeIntersection
		}
		return PropertySchema{DataType: dataType, SubSchemas: subs}
	default:
		return PropertySchema{DataType: string(t.Primitive)}
	}
}

// joinPath joins a controller prefix and an operation path, converting
// ":id" segments to "{id}".
// e.g., ("users", ":id") → "/users/{id}"
func joinPath(prefix, path string) string {
	var parts []string
	for _, seg := range strings.Split(prefix+"/"+path, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, ":") {
			seg = "{" + seg[1:] + "}"
		}
		parts = append(parts, seg)
	}
	return "/" + strings.Join(parts, "/")
}
