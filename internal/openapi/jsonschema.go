// Package openapi exports materialized models as JSON Schema 2020-12, the
// dialect OpenAPI 3.1 uses for its component schemas.
package openapi

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/HoldYourWaffle2/tsoa/internal/codegen"
	"github.com/HoldYourWaffle2/tsoa/internal/metadata"
)

const (
	// Draft is the $schema URI of exported root documents.
	Draft = "https://json-schema.org/draft/2020-12/schema"

	// DefsPrefix is the reference prefix of exported models.
	DefsPrefix = "#/$defs/"
)

// ExportJSONSchema returns a root schema whose $defs hold one entry per
// model of doc.
func ExportJSONSchema(doc *codegen.Document) (*jsonschema.Schema, error) {
	defs, err := exportModels(doc, DefsPrefix)
	if err != nil {
		return nil, err
	}
	return &jsonschema.Schema{Schema: Draft, Defs: defs}, nil
}

func exportModels(doc *codegen.Document, prefix string) (map[string]*jsonschema.Schema, error) {
	e := exporter{prefix: prefix}
	out := make(map[string]*jsonschema.Schema, doc.Models.Len())
	for _, name := range doc.Models.Keys() {
		model, _ := doc.Models.Get(name)
		s, err := e.model(model)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
		out[name] = s
	}
	return out, nil
}

type exporter struct {
	prefix string
}

func (e exporter) model(m codegen.ModelSchema) (*jsonschema.Schema, error) {
	if m.DataType == codegen.DataTypeRefEnum {
		return &jsonschema.Schema{Description: m.Description, Enum: enumValues(m.Enums)}, nil
	}

	s := &jsonschema.Schema{Type: "object", Description: m.Description}
	if m.Example != nil {
		s.Examples = []any{m.Example}
	}
	for _, name := range m.Properties.Keys() {
		p, _ := m.Properties.Get(name)
		ps, err := e.property(p)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		if s.Properties == nil {
			s.Properties = make(map[string]*jsonschema.Schema)
		}
		s.Properties[name] = ps
		if p.Required {
			s.Required = append(s.Required, name)
		}
	}

	if ap := m.AdditionalProperties; ap != nil {
		switch {
		case ap.Schema != nil:
			values, err := e.property(*ap.Schema)
			if err != nil {
				return nil, fmt.Errorf("additional properties: %w", err)
			}
			s.AdditionalProperties = values
		case !ap.Allowed:
			s.AdditionalProperties = falseSchema()
		}
	}
	return s, nil
}

func (e exporter) property(p codegen.PropertySchema) (*jsonschema.Schema, error) {
	s, err := e.shape(p)
	if err != nil {
		return nil, err
	}
	if p.Description != "" {
		s.Description = p.Description
	}
	if p.Format != "" {
		s.Format = p.Format
	}
	if p.Default != nil {
		raw, err := json.Marshal(p.Default)
		if err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		s.Default = raw
	}
	if err := applyValidators(s, p.Validators); err != nil {
		return nil, err
	}
	return s, nil
}

func (e exporter) shape(p codegen.PropertySchema) (*jsonschema.Schema, error) {
	if p.Ref != "" {
		return &jsonschema.Schema{Ref: e.prefix + p.Ref}, nil
	}

	switch p.DataType {
	case codegen.DataTypeArray:
		if p.Array == nil {
			return nil, fmt.Errorf("array without element schema")
		}
		items, err := e.property(*p.Array)
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{Type: "array", Items: items}, nil
	case codegen.DataTypeEnum:
		return &jsonschema.Schema{Enum: enumValues(p.Enums)}, nil
	case codegen.DataTypeUnion, codegen.DataTypeIntersection:
		members := make([]*jsonschema.Schema, 0, len(p.SubSchemas))
		for _, sub := range p.SubSchemas {
			ms, err := e.property(sub)
			if err != nil {
				return nil, err
			}
			members = append(members, ms)
		}
		if p.DataType == codegen.DataTypeUnion {
			return &jsonschema.Schema{AnyOf: members}, nil
		}
		return &jsonschema.Schema{AllOf: members}, nil
	}

	prim, ok := primitives[metadata.Primitive(p.DataType)]
	if !ok {
		return nil, fmt.Errorf("unknown data type %q", p.DataType)
	}
	return &jsonschema.Schema{Type: prim.typ, Format: prim.format}, nil
}

type primitive struct {
	typ    string
	format string
}

var primitives = map[metadata.Primitive]primitive{
	metadata.String:   {"string", ""},
	metadata.Boolean:  {"boolean", ""},
	metadata.Integer:  {"integer", "int32"},
	metadata.Long:     {"integer", "int64"},
	metadata.Float:    {"number", "float"},
	metadata.Double:   {"number", "double"},
	metadata.DateTime: {"string", "date-time"},
	metadata.Date:     {"string", "date"},
	metadata.Buffer:   {"string", "byte"},
	metadata.Object:   {"object", ""},
	metadata.Void:     {"null", ""},
	metadata.Any:      {"", ""},
}

func applyValidators(s *jsonschema.Schema, vs metadata.Validators) error {
	for name, v := range vs {
		switch name {
		case "minimum", "maximum":
			f, ok := v.Value.(float64)
			if !ok {
				return fmt.Errorf("validator %s: value %v is not a number", name, v.Value)
			}
			if name == "minimum" {
				s.Minimum = &f
			} else {
				s.Maximum = &f
			}
		case "minLength", "maxLength", "minItems", "maxItems":
			f, ok := v.Value.(float64)
			if !ok || f < 0 || f != float64(int(f)) {
				return fmt.Errorf("validator %s: value %v is not a non-negative integer", name, v.Value)
			}
			n := int(f)
			switch name {
			case "minLength":
				s.MinLength = &n
			case "maxLength":
				s.MaxLength = &n
			case "minItems":
				s.MinItems = &n
			default:
				s.MaxItems = &n
			}
		case "pattern":
			s.Pattern, _ = v.Value.(string)
		case "uniqueItems":
			s.UniqueItems = true
		case "minDate", "maxDate":
			if s.Extra == nil {
				s.Extra = make(map[string]any)
			}
			s.Extra["x-"+name] = v.Value
		}
	}
	return nil
}

func enumValues(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// falseSchema rejects every instance.
func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}
