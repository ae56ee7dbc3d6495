package codegen

import (
	"errors"
	"fmt"

	"github.com/HoldYourWaffle2/tsoa/internal/metadata"
)

// ErrDuplicateParameter is returned when flattening produces two parameters
// with the same name.
var ErrDuplicateParameter = errors.New("duplicate parameter")

// FlattenParameters expands aggregate parameters into their sub-parameters
// and keys the result by name. A name seen twice, whether from a sibling or
// from another aggregate, is an error.
func FlattenParameters(params []ParameterSchema) (*ParameterMap, error) {
	out := NewOrderedMap[ParameterSchema]()
	add := func(p ParameterSchema) error {
		if out.Has(p.Name) {
			return fmt.Errorf("%w %q", ErrDuplicateParameter, p.Name)
		}
		out.Set(p.Name, p)
		return nil
	}

	for _, p := range params {
		if p.In != metadata.InQueries {
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}
		for _, sub := range p.Parameters {
			if err := add(sub); err != nil {
				return nil, fmt.Errorf("expanding %s: %w", p.Name, err)
			}
		}
	}
	return out, nil
}

// FlattenOperations flattens the parameters of every operation, keyed by
// "Controller.method".
func FlattenOperations(doc *Document) (*OrderedMap[*ParameterMap], error) {
	out := NewOrderedMap[*ParameterMap]()
	for _, op := range doc.Operations {
		params, err := FlattenParameters(op.Parameters)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", op.Controller, op.Name, err)
		}
		out.Set(op.Controller+"."+op.Name, params)
	}
	return out, nil
}
