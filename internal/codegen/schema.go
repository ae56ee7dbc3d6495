// Package codegen materializes the metadata of a completed generation run
// into the portable schema document consumed by route and specification
// generators.
package codegen

import (
	"github.com/go-json-experiment/json"

	"github.com/HoldYourWaffle2/tsoa/internal/metadata"
)

// Data types that are not primitive tags.
const (
	DataTypeArray        = "array"
	DataTypeEnum         = "enum"
	DataTypeUnion        = "union"
	DataTypeIntersection = "intersection"
	DataTypeRefObject    = "refObject"
	DataTypeRefEnum      = "refEnum"
)

// PropertySchema describes one property or return type. Exactly one of
// DataType and Ref is set.
type PropertySchema struct {
	DataType    string              `json:"dataType,omitempty"`
	Ref         string              `json:"ref,omitempty"`
	Array       *PropertySchema     `json:"array,omitempty"`
	Enums       []string            `json:"enums,omitempty"`
	SubSchemas  []PropertySchema    `json:"subSchemas,omitempty"`
	Validators  metadata.Validators `json:"validators,omitempty"`
	Default     any                 `json:"default,omitempty"`
	Required    bool                `json:"required,omitzero"`
	Format      string              `json:"format,omitempty"`
	Description string              `json:"description,omitempty"`
}

// ParameterSchema is a PropertySchema with a name and a location. Aggregate
// parameters keep their sub-parameters until FlattenParameters expands them.
type ParameterSchema struct {
	PropertySchema `json:",inline"`
	Name           string            `json:"name"`
	In             metadata.Location `json:"in"`
	Parameters     []ParameterSchema `json:"parameters,omitempty"`
}

// AdditionalProperties is either a boolean or the schema of the values of
// an open dictionary.
type AdditionalProperties struct {
	Schema  *PropertySchema
	Allowed bool
}

// MarshalJSON implements json.Marshaler.
func (a AdditionalProperties) MarshalJSON() ([]byte, error) {
	if a.Schema != nil {
		return json.Marshal(a.Schema, json.Deterministic(true))
	}
	return json.Marshal(a.Allowed)
}

// ModelSchema is a materialized reference type.
type ModelSchema struct {
	DataType             string                `json:"dataType"`
	Description          string                `json:"description,omitempty"`
	Example              any                   `json:"example,omitempty"`
	Properties           *PropertyMap          `json:"properties,omitzero"`
	AdditionalProperties *AdditionalProperties `json:"additionalProperties,omitzero"`
	Enums                []string              `json:"enums,omitempty"`
}

// Operation is a materialized API operation.
type Operation struct {
	Controller  string              `json:"controller"`
	Name        string              `json:"name"`
	OperationID string              `json:"operationId"`
	Verb        string              `json:"verb"`
	Path        string              `json:"path"`
	Description string              `json:"description,omitempty"`
	Deprecated  bool                `json:"deprecated,omitzero"`
	Tags        []string            `json:"tags,omitempty"`
	Parameters  []ParameterSchema   `json:"parameters"`
	Type        PropertySchema      `json:"type"`
	Security    []metadata.Security `json:"security,omitempty"`
}

// Document is the materialized output of a generation run.
type Document struct {
	// Models is keyed by canonical name, in name order.
	Models     *OrderedMap[ModelSchema] `json:"models"`
	Operations []Operation              `json:"operations"`
}

// Model returns the model with the given canonical name.
func (d *Document) Model(name string) (ModelSchema, bool) {
	return d.Models.Get(name)
}

// Operation returns the operation of the named controller and method.
func (d *Document) Operation(controller, name string) (Operation, bool) {
	for _, op := range d.Operations {
		if op.Controller == controller && op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}
