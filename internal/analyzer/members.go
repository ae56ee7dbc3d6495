package analyzer

import (
	"fmt"
	"strconv"

	"github.com/HoldYourWaffle2/tsoa/internal/declaration"
	"github.com/HoldYourWaffle2/tsoa/internal/metadata"
)

const ignoreTag = "ignore"

// buildReference assembles the reference record of decl under its canonical
// name. Inherited properties come first, own properties after them.
func (r *TypeResolver) buildReference(decl *declaration.Declaration, name string, ctx *resolveContext, extractEnum bool) (*metadata.Reference, error) {
	ref := &metadata.Reference{
		Name:        name,
		Description: decl.Annotations.Description,
		Example:     decl.Annotations.Example,
	}

	switch decl.Kind {
	case declaration.KindRecord, declaration.KindClass:
		inherited, bases, deferred, err := r.inheritedProperties(decl, ctx, extractEnum)
		if err != nil {
			return nil, err
		}
		var own []metadata.Property
		if decl.Kind == declaration.KindRecord {
			own, err = r.recordProperties(decl, ctx, extractEnum)
		} else {
			own, err = r.classProperties(decl, ctx, extractEnum)
		}
		if err != nil {
			return nil, err
		}
		ref.Properties = append(inherited, own...)
		if deferred {
			r.registry.DeferInheritance(name, bases, own)
			r.logger.Debug("deferred inherited properties", "name", name, "bases", bases)
		}

		if decl.Index != nil {
			if decl.Index.Key.Kind != declaration.NodeKeyword || decl.Index.Key.Keyword != "string" {
				return nil, newError(ErrMalformedDeclaration, decl.Name,
					"only string indexers are supported, %s has key type %s", decl.Name, decl.Index.Key.String())
			}
			value, err := r.resolve(decl.Index.Value, ctx, nil, extractEnum)
			if err != nil {
				return nil, err
			}
			ref.AdditionalProperties = &value
		}

	case declaration.KindAlias:
		props, bases, deferred, err := r.aliasProperties(decl, ctx, extractEnum)
		if err != nil {
			return nil, err
		}
		ref.Properties = props
		if deferred {
			r.registry.DeferInheritance(name, bases, nil)
			r.logger.Debug("deferred alias properties", "name", name, "members", bases)
		}

	case declaration.KindEnum:
		values, err := enumValues(decl)
		if err != nil {
			return nil, err
		}
		ref.Enum = true
		ref.EnumValues = values
	}
	return ref, nil
}

// inheritedProperties resolves the bases of decl and collects their
// properties. deferred is set when a base is still incomplete; the caller
// then queues the bases so the registry can rebuild the record on Finish.
func (r *TypeResolver) inheritedProperties(decl *declaration.Declaration, ctx *resolveContext, extractEnum bool) (props []metadata.Property, bases []string, deferred bool, err error) {
	for _, base := range decl.Extends {
		t, err := r.resolve(base, ctx, nil, extractEnum)
		if err != nil {
			return nil, nil, false, err
		}
		if t.Kind != metadata.KindRef {
			return nil, nil, false, newError(ErrMalformedDeclaration, decl.Name,
				"%s extends %s, which is not an object type", decl.Name, base.String())
		}
		bases = append(bases, t.Ref)
		deferred = deferred || r.incomplete(t.Ref)
		if baseRef := r.registry.Deref(t.Ref); baseRef != nil {
			props = append(props, baseRef.Properties...)
		}
	}
	return props, bases, deferred, nil
}

// incomplete reports whether the properties of name are not final yet.
func (r *TypeResolver) incomplete(name string) bool {
	return r.registry.InProgress(name) || r.registry.Deferred(name)
}

func (r *TypeResolver) recordProperties(decl *declaration.Declaration, ctx *resolveContext, extractEnum bool) ([]metadata.Property, error) {
	props := make([]metadata.Property, 0, len(decl.Fields))
	for _, f := range decl.Fields {
		if f.Annotations.HasTag(ignoreTag) {
			continue
		}
		if f.Type == nil {
			return nil, newError(ErrMalformedDeclaration, decl.Name,
				"no valid type found for property %s of %s", f.Name, decl.Name)
		}
		p, err := r.property(decl, f.Name, *f.Type, &f.Annotations, ctx, extractEnum)
		if err != nil {
			return nil, err
		}
		p.Required = !f.Optional
		props = append(props, p)
	}
	return props, nil
}

func (r *TypeResolver) classProperties(decl *declaration.Declaration, ctx *resolveContext, extractEnum bool) ([]metadata.Property, error) {
	var props []metadata.Property
	for _, f := range decl.Fields {
		if !f.Public() || f.Static {
			continue
		}
		p, err := r.classMember(decl, f.Name, f.Type, f.Optional, f.Initializer, &f.Annotations, ctx, extractEnum)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	for _, c := range decl.Constructor {
		if !c.Promoted() {
			continue
		}
		p, err := r.classMember(decl, c.Name, c.Type, c.Optional, c.Initializer, &c.Annotations, ctx, extractEnum)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

func (r *TypeResolver) classMember(decl *declaration.Declaration, name string, typ *declaration.TypeNode, optional bool, init any, ann *declaration.Annotations, ctx *resolveContext, extractEnum bool) (metadata.Property, error) {
	node, ok := memberType(typ, init)
	if !ok {
		return metadata.Property{}, newError(ErrMalformedDeclaration, decl.Name,
			"no valid type found for property %s of %s", name, decl.Name)
	}
	p, err := r.property(decl, name, node, ann, ctx, extractEnum)
	if err != nil {
		return metadata.Property{}, err
	}
	p.Required = !optional && init == nil
	if isScalar(init) {
		p.Default = init
	}
	return p, nil
}

// memberType returns the declared type, or infers one from a scalar
// initializer.
func memberType(typ *declaration.TypeNode, init any) (declaration.TypeNode, bool) {
	if typ != nil {
		return *typ, true
	}
	switch init.(type) {
	case string:
		return declaration.Keyword("string"), true
	case bool:
		return declaration.Keyword("boolean"), true
	case int, int64, float64:
		return declaration.Keyword("number"), true
	}
	return declaration.TypeNode{}, false
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return true
	}
	return false
}

// property resolves the parts shared by every kind of member.
func (r *TypeResolver) property(decl *declaration.Declaration, name string, node declaration.TypeNode, ann *declaration.Annotations, ctx *resolveContext, extractEnum bool) (metadata.Property, error) {
	t, err := r.resolve(node, ctx, ann, extractEnum)
	if err != nil {
		return metadata.Property{}, err
	}
	validators, err := FieldValidators(ann)
	if err != nil {
		return metadata.Property{}, fmt.Errorf("property %s of %s: %w", name, decl.Name, err)
	}
	return metadata.Property{
		Name:        name,
		Type:        t,
		Default:     ann.Default,
		Description: ann.Description,
		Format:      ann.Format,
		Validators:  validators,
	}, nil
}

// aliasProperties flattens an alias of a reference or of an intersection of
// references. Any other aliased type is opaque.
func (r *TypeResolver) aliasProperties(decl *declaration.Declaration, ctx *resolveContext, extractEnum bool) (props []metadata.Property, bases []string, deferred bool, err error) {
	if decl.Type == nil {
		return nil, nil, false, newError(ErrMalformedDeclaration, decl.Name, "alias %s has no type", decl.Name)
	}

	var members []declaration.TypeNode
	switch decl.Type.Kind {
	case declaration.NodeReference:
		members = []declaration.TypeNode{*decl.Type}
	case declaration.NodeIntersection:
		for _, m := range decl.Type.Types {
			if m.Kind != declaration.NodeReference {
				return nil, nil, false, nil
			}
		}
		members = decl.Type.Types
	default:
		return nil, nil, false, nil
	}

	for _, m := range members {
		t, err := r.resolve(m, ctx, nil, extractEnum)
		if err != nil {
			return nil, nil, false, err
		}
		if t.Kind != metadata.KindRef {
			continue
		}
		bases = append(bases, t.Ref)
		deferred = deferred || r.incomplete(t.Ref)
		if ref := r.registry.Deref(t.Ref); ref != nil {
			props = append(props, ref.Properties...)
		}
	}
	return props, bases, deferred, nil
}

// enumValues lists an enumeration's literal values in member order. A member
// without an explicit value gets its zero-based position.
func enumValues(decl *declaration.Declaration) ([]string, error) {
	values := make([]string, 0, len(decl.Members))
	for i, m := range decl.Members {
		switch v := m.Value.(type) {
		case nil:
			values = append(values, strconv.Itoa(i))
		case string:
			values = append(values, v)
		case bool:
			values = append(values, strconv.FormatBool(v))
		case int:
			values = append(values, strconv.Itoa(v))
		case int64:
			values = append(values, strconv.FormatInt(v, 10))
		case float64:
			values = append(values, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			return nil, newError(ErrMalformedDeclaration, decl.Name,
				"enum member %s.%s has an unsupported initializer of type %T", decl.Name, m.Name, m.Value)
		}
	}
	return values, nil
}
