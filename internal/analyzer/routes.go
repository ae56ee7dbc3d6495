package analyzer

import (
	"fmt"
	"strings"

	"github.com/HoldYourWaffle2/tsoa/internal/declaration"
	"github.com/HoldYourWaffle2/tsoa/internal/diagnostic"
	"github.com/HoldYourWaffle2/tsoa/internal/metadata"
)

var httpVerbs = map[string]bool{
	"get": true, "post": true, "put": true, "patch": true,
	"delete": true, "head": true, "options": true,
}

func (g *Generator) resolveController(c *declaration.Controller) (metadata.Controller, error) {
	out := metadata.Controller{Name: c.Name, Path: c.Path}
	for _, op := range c.Operations {
		if op.Annotations.HasTag(hiddenTag) {
			continue
		}
		m, err := g.resolveMethod(c, op)
		if err != nil {
			return metadata.Controller{}, fmt.Errorf("%s.%s: %w", c.Name, op.Name, err)
		}
		out.Methods = append(out.Methods, m)
	}
	return out, nil
}

func (g *Generator) resolveMethod(c *declaration.Controller, op *declaration.Operation) (metadata.Method, error) {
	verb := strings.ToLower(op.Verb)
	if !httpVerbs[verb] {
		return metadata.Method{}, newError(ErrMalformedDeclaration, op.Name, "unsupported HTTP verb %q", op.Verb)
	}

	m := metadata.Method{
		Name:        op.Name,
		Verb:        verb,
		Path:        op.Path,
		Description: op.Annotations.Description,
		Deprecated:  op.Annotations.HasTag("deprecated"),
		Tags:        operationTags(c, op),
		Security:    operationSecurity(c, op),
		Type:        metadata.PrimitiveType(metadata.Void),
	}
	if m.Deprecated {
		g.opts.Diagnostics.Info(diagnostic.CategoryDeprecated, controllerOrigin(c), c.Name+"."+op.Name+" is deprecated")
	}

	if op.Returns != nil {
		t, err := g.resolver.resolve(*op.Returns, &resolveContext{ns: c.Scope()}, &op.Annotations, g.opts.ExtractEnumsAsReference)
		if err != nil {
			return metadata.Method{}, fmt.Errorf("return type: %w", err)
		}
		m.Type = t
	}

	for _, p := range op.Parameters {
		param, err := g.resolveParameter(c, op, p)
		if err != nil {
			return metadata.Method{}, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		m.Parameters = append(m.Parameters, param)
	}
	return m, nil
}

func (g *Generator) resolveParameter(c *declaration.Controller, op *declaration.Operation, p *declaration.Param) (metadata.Parameter, error) {
	in := metadata.Location(p.In)
	if !in.Valid() {
		return metadata.Parameter{}, newError(ErrMalformedDeclaration, p.Name, "unsupported parameter location %q", p.In)
	}
	if p.Type == nil {
		return metadata.Parameter{}, newError(ErrMalformedDeclaration, p.Name, "no valid type found for parameter %s", p.Name)
	}

	addressed := op.Annotations.AddressedTo(p.Name)
	merged := p.Annotations.Merge(addressed)

	t, err := g.resolver.resolve(*p.Type, &resolveContext{ns: c.Scope()}, &merged, g.opts.ExtractEnumsAsReference)
	if err != nil {
		return metadata.Parameter{}, err
	}

	own, err := FieldValidators(&p.Annotations)
	if err != nil {
		return metadata.Parameter{}, err
	}
	fromOp, err := ParameterValidators(&op.Annotations, p.Name)
	if err != nil {
		return metadata.Parameter{}, err
	}

	param := metadata.Parameter{
		Property: metadata.Property{
			Name:        p.Name,
			Type:        t,
			Required:    !p.Optional && p.Initializer == nil,
			Default:     p.Annotations.Default,
			Description: p.Annotations.Description,
			Format:      p.Annotations.Format,
			Validators:  own.Merge(fromOp),
		},
		In: in,
	}
	if isScalar(p.Initializer) {
		param.Default = p.Initializer
	}
	if param.Description == "" {
		if tag, ok := addressed.Tag("param"); ok {
			param.Description = tag.Text
		}
	}

	switch in {
	case metadata.InQueries:
		subs, err := g.aggregateParameters(p.Name, t)
		if err != nil {
			return metadata.Parameter{}, err
		}
		param.Parameters = subs
	case metadata.InPath, metadata.InHeader, metadata.InQuery:
		g.checkScalarParameter(c, param)
	}
	return param, nil
}

// aggregateParameters expands a `queries` parameter into one query
// sub-parameter per property of its object type.
func (g *Generator) aggregateParameters(name string, t metadata.Type) ([]metadata.Parameter, error) {
	if t.Kind != metadata.KindRef {
		return nil, newError(ErrMalformedDeclaration, name,
			"queries parameter %s must reference an object type", name)
	}
	ref := g.registry.Deref(t.Ref)
	if ref == nil || ref.Enum {
		return nil, newError(ErrMalformedDeclaration, name,
			"queries parameter %s must reference an object type, got %s", name, t.Ref)
	}
	subs := make([]metadata.Parameter, 0, len(ref.Properties))
	for _, prop := range ref.Properties {
		subs = append(subs, metadata.Parameter{Property: prop, In: metadata.InQuery})
	}
	return subs, nil
}

func (g *Generator) checkScalarParameter(c *declaration.Controller, p metadata.Parameter) {
	t := p.Type
	if t.Kind == metadata.KindArray && p.In == metadata.InQuery {
		t = *t.ElementType
	}
	switch t.Kind {
	case metadata.KindPrimitive, metadata.KindEnum:
		return
	case metadata.KindRef:
		if ref := g.registry.Deref(t.Ref); ref != nil && ref.Enum {
			return
		}
	}
	g.opts.Diagnostics.Warnf(diagnostic.CategoryParameterInvalid, controllerOrigin(c),
		"%s parameter %s of %s should be a scalar type", p.In, p.Name, c.Name)
}

func controllerOrigin(c *declaration.Controller) string {
	if c.Source == "" {
		return c.Name
	}
	return c.Source + "#" + c.Name
}

func operationTags(c *declaration.Controller, op *declaration.Operation) []string {
	var tags []string
	for _, ann := range []*declaration.Annotations{&c.Annotations, &op.Annotations} {
		for _, t := range ann.Tags {
			if t.Name == "tag" && t.Text != "" {
				tags = append(tags, t.Text)
			}
		}
	}
	if len(tags) == 0 {
		tags = []string{deriveTag(c.Name)}
	}
	return tags
}

// deriveTag derives a tag from a controller name.
// e.g., "UserController" → "User", "UsersController" → "Users"
func deriveTag(name string) string {
	if strings.HasSuffix(name, "Controller") && name != "Controller" {
		return name[:len(name)-len("Controller")]
	}
	return name
}

// operationSecurity returns the operation's own requirements, or the
// controller's when the operation declares none.
func operationSecurity(c *declaration.Controller, op *declaration.Operation) []metadata.Security {
	if sec := securityOf(op.Security, &op.Annotations); len(sec) > 0 {
		return sec
	}
	return securityOf(c.Security, &c.Annotations)
}

// securityOf combines explicit requirements with `@security name scope...`
// tags.
func securityOf(explicit []declaration.Security, ann *declaration.Annotations) []metadata.Security {
	out := append([]metadata.Security(nil), explicit...)
	for _, t := range ann.Tags {
		if t.Name != "security" {
			continue
		}
		name, rest := declaration.SplitFirst(t.Text)
		if name == "" {
			continue
		}
		out = append(out, metadata.Security{Name: name, Scopes: strings.Fields(rest)})
	}
	return out
}
