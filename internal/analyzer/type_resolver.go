package analyzer

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/HoldYourWaffle2/tsoa/internal/declaration"
	"github.com/HoldYourWaffle2/tsoa/internal/diagnostic"
	"github.com/HoldYourWaffle2/tsoa/internal/metadata"
)

// numericRefinements maps refinement tags on a numeric field to the
// resulting primitive. The first recognized tag wins.
var numericRefinements = map[string]metadata.Primitive{
	"isInt":    metadata.Integer,
	"isLong":   metadata.Long,
	"isFloat":  metadata.Float,
	"isDouble": metadata.Double,
}

var dateRefinements = map[string]metadata.Primitive{
	"isDate":     metadata.Date,
	"isDateTime": metadata.DateTime,
}

// TypeResolver turns type expressions into metadata.Type descriptors,
// registering every named object or enumeration it meets in the registry.
//
// A TypeResolver belongs to one generation run. It is not safe for
// concurrent use.
type TypeResolver struct {
	locator     *Locator
	registry    *metadata.Registry
	diagnostics *diagnostic.Collector
	logger      *slog.Logger
}

// NewTypeResolver creates a resolver. diagnostics and logger may be nil.
func NewTypeResolver(locator *Locator, registry *metadata.Registry, diagnostics *diagnostic.Collector, logger *slog.Logger) *TypeResolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TypeResolver{
		locator:     locator,
		registry:    registry,
		diagnostics: diagnostics,
		logger:      logger,
	}
}

// Registry returns the registry the resolver stores references in.
func (r *TypeResolver) Registry() *metadata.Registry {
	return r.registry
}

// resolveContext is the lexical environment of a type expression: the
// namespace names are looked up from and the generic arguments bound by the
// enclosing declaration.
type resolveContext struct {
	ns       *declaration.Namespace
	bindings map[string]metadata.Type
}

func (c *resolveContext) origin() string {
	if c == nil || c.ns == nil {
		return ""
	}
	return c.ns.Origin()
}

// Resolve resolves node as seen from scope. parent carries the annotations of
// the field or parameter the type is written on; they select numeric and
// date refinements. extractEnumAsReference chooses between inline enums and
// named enum references.
func (r *TypeResolver) Resolve(node declaration.TypeNode, scope *declaration.Namespace, parent *declaration.Annotations, extractEnumAsReference bool) (metadata.Type, error) {
	return r.resolve(node, &resolveContext{ns: scope}, parent, extractEnumAsReference)
}

func (r *TypeResolver) resolve(node declaration.TypeNode, ctx *resolveContext, parent *declaration.Annotations, extractEnum bool) (metadata.Type, error) {
	switch node.Kind {
	case declaration.NodeKeyword:
		return r.resolveKeyword(node.Keyword, parent)

	case declaration.NodeArray:
		elem, err := r.resolve(*node.Element, ctx, parent, extractEnum)
		if err != nil {
			return metadata.Type{}, err
		}
		return metadata.ArrayOf(elem), nil

	case declaration.NodeLiteral:
		return metadata.EnumOf([]string{literalString(node.Literal)}), nil

	case declaration.NodeUnion:
		return r.resolveUnion(node, ctx, parent, extractEnum)

	case declaration.NodeIntersection:
		members := make([]metadata.Type, 0, len(node.Types))
		for _, t := range node.Types {
			m, err := r.resolve(t, ctx, nil, extractEnum)
			if err != nil {
				return metadata.Type{}, err
			}
			members = append(members, m)
		}
		return metadata.IntersectionOf(members), nil

	case declaration.NodeObjectLiteral:
		return metadata.PrimitiveType(metadata.Any), nil

	case declaration.NodeReference:
		return r.resolveReference(node, ctx, parent, extractEnum)
	}
	return metadata.Type{}, newError(ErrUnknownTypeShape, node.String(), "unknown type: %s", node.String())
}

func (r *TypeResolver) resolveKeyword(keyword string, parent *declaration.Annotations) (metadata.Type, error) {
	switch keyword {
	case "string":
		return metadata.PrimitiveType(metadata.String), nil
	case "boolean":
		return metadata.PrimitiveType(metadata.Boolean), nil
	case "number", "bigint":
		return metadata.PrimitiveType(refine(parent, numericRefinements, metadata.Double)), nil
	case "any", "unknown":
		return metadata.PrimitiveType(metadata.Any), nil
	case "object":
		return metadata.PrimitiveType(metadata.Object), nil
	case "void", "undefined", "null":
		return metadata.PrimitiveType(metadata.Void), nil
	}
	return metadata.Type{}, newError(ErrUnknownTypeShape, keyword, "unknown type: %s", keyword)
}

// refine returns the primitive selected by the first refinement tag found in
// parent, or def.
func refine(parent *declaration.Annotations, table map[string]metadata.Primitive, def metadata.Primitive) metadata.Primitive {
	if parent == nil {
		return def
	}
	for _, tag := range parent.Tags {
		if p, ok := table[tag.Name]; ok {
			return p
		}
	}
	return def
}

func (r *TypeResolver) resolveUnion(node declaration.TypeNode, ctx *resolveContext, parent *declaration.Annotations, extractEnum bool) (metadata.Type, error) {
	var members []declaration.TypeNode
	for _, t := range node.Types {
		if !t.IsNullish() {
			members = append(members, t)
		}
	}
	switch len(members) {
	case 0:
		return metadata.PrimitiveType(metadata.Void), nil
	case 1:
		return r.resolve(members[0], ctx, parent, extractEnum)
	}

	if values, ok := literalValues(members); ok {
		return metadata.EnumOf(values), nil
	}
	for _, m := range members {
		if m.Kind == declaration.NodeObjectLiteral {
			r.diagnostics.WarnWithHint(diagnostic.CategoryTypeUnsupported, ctx.origin(),
				"union "+node.String()+" has an inline object member; using any",
				"declare the object member as a named type")
			return metadata.PrimitiveType(metadata.Any), nil
		}
	}

	// Literal members collapse into one enum member at the position of the
	// first literal.
	var literals []string
	enumAt := -1
	resolved := make([]metadata.Type, 0, len(members))
	for _, m := range members {
		if m.Kind == declaration.NodeLiteral {
			if enumAt < 0 {
				enumAt = len(resolved)
				resolved = append(resolved, metadata.Type{})
			}
			literals = append(literals, literalString(m.Literal))
			continue
		}
		t, err := r.resolve(m, ctx, parent, extractEnum)
		if err != nil {
			return metadata.Type{}, err
		}
		resolved = append(resolved, t)
	}
	if enumAt >= 0 {
		resolved[enumAt] = metadata.EnumOf(literals)
	}
	return metadata.UnionOf(resolved), nil
}

// literalValues returns the literal values of nodes if every node is a
// literal.
func literalValues(nodes []declaration.TypeNode) ([]string, bool) {
	values := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind != declaration.NodeLiteral {
			return nil, false
		}
		values = append(values, literalString(n.Literal))
	}
	return values, true
}

func literalString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	}
	return ""
}

func (r *TypeResolver) resolveReference(node declaration.TypeNode, ctx *resolveContext, parent *declaration.Annotations, extractEnum bool) (metadata.Type, error) {
	if len(node.TypeArguments) == 0 {
		if bound, ok := ctx.bindings[node.Name]; ok {
			return bound, nil
		}
	}

	switch node.Name {
	case "Array":
		if len(node.TypeArguments) != 1 {
			return metadata.Type{}, newError(ErrMalformedAnnotation, node.Name,
				"generic arity: Array expects 1 type argument, got %d", len(node.TypeArguments))
		}
		elem, err := r.resolve(node.TypeArguments[0], ctx, parent, extractEnum)
		if err != nil {
			return metadata.Type{}, err
		}
		return metadata.ArrayOf(elem), nil
	case "Promise":
		if len(node.TypeArguments) != 1 {
			return metadata.Type{}, newError(ErrMalformedAnnotation, node.Name,
				"generic arity: Promise expects 1 type argument, got %d", len(node.TypeArguments))
		}
		return r.resolve(node.TypeArguments[0], ctx, parent, extractEnum)
	case "Date":
		return metadata.PrimitiveType(refine(parent, dateRefinements, metadata.DateTime)), nil
	case "Buffer":
		return metadata.PrimitiveType(metadata.Buffer), nil
	case "String":
		return metadata.PrimitiveType(metadata.String), nil
	}

	decl, err := r.locator.Locate(node.Name, ctx.ns)
	if err != nil {
		return metadata.Type{}, err
	}

	switch decl.Kind {
	case declaration.KindAlias:
		if values, ok := literalAlias(decl); ok {
			return metadata.EnumOf(values), nil
		}
	case declaration.KindEnum:
		return r.resolveEnum(decl, extractEnum)
	}
	return r.resolveObjectReference(decl, node.TypeArguments, ctx, extractEnum)
}

// literalAlias reports whether decl aliases a literal or a union of literals.
func literalAlias(decl *declaration.Declaration) ([]string, bool) {
	if decl.Type == nil {
		return nil, false
	}
	switch decl.Type.Kind {
	case declaration.NodeLiteral:
		return []string{literalString(decl.Type.Literal)}, true
	case declaration.NodeUnion:
		return literalValues(decl.Type.Types)
	}
	return nil, false
}

func (r *TypeResolver) resolveEnum(decl *declaration.Declaration, extractEnum bool) (metadata.Type, error) {
	values, err := enumValues(decl)
	if err != nil {
		return metadata.Type{}, err
	}
	if !extractEnum {
		return metadata.EnumOf(values), nil
	}
	if err := r.claim(decl.Name, decl); err != nil {
		return metadata.Type{}, err
	}
	if !r.registry.Has(decl.Name) {
		r.registry.Store(&metadata.Reference{
			Name:        decl.Name,
			Description: decl.Annotations.Description,
			Example:     decl.Annotations.Example,
			Enum:        true,
			EnumValues:  values,
		})
		r.logger.Debug("registered enum reference", "name", decl.Name, "values", len(values))
	}
	return metadata.RefTo(decl.Name), nil
}

func (r *TypeResolver) resolveObjectReference(decl *declaration.Declaration, args []declaration.TypeNode, ctx *resolveContext, extractEnum bool) (metadata.Type, error) {
	if len(args) != len(decl.TypeParameters) {
		return metadata.Type{}, newError(ErrMalformedAnnotation, decl.Name,
			"generic arity: %s expects %d type argument(s), got %d", decl.Name, len(decl.TypeParameters), len(args))
	}

	var bindings map[string]metadata.Type
	var suffix strings.Builder
	if len(args) > 0 {
		bindings = make(map[string]metadata.Type, len(args))
		for i, arg := range args {
			t, err := r.resolve(arg, ctx, nil, extractEnum)
			if err != nil {
				return metadata.Type{}, err
			}
			bindings[decl.TypeParameters[i]] = t
			suffix.WriteString(shortName(t))
		}
	}
	name := decl.Name + suffix.String()
	if err := r.claim(name, decl); err != nil {
		return metadata.Type{}, err
	}

	if r.registry.Has(name) {
		return metadata.RefTo(name), nil
	}
	if r.registry.InProgress(name) {
		r.logger.Debug("cycle detected, returning placeholder", "name", name)
		return r.registry.Placeholder(name), nil
	}

	r.registry.MarkInProgress(name)
	defer r.registry.Unmark(name)

	ref, err := r.buildReference(decl, name, &resolveContext{ns: decl.Namespace(), bindings: bindings}, extractEnum)
	if err != nil {
		return metadata.Type{}, err
	}
	r.registry.Store(ref)
	r.logger.Debug("resolved reference", "name", name, "kind", decl.Kind.String(), "properties", len(ref.Properties))
	return metadata.RefTo(name), nil
}

// claim binds a canonical name to decl. Two declarations producing the same
// name in one run would share a record, so that is fatal.
func (r *TypeResolver) claim(name string, decl *declaration.Declaration) error {
	prev, ok := r.registry.Claim(name, decl)
	if ok {
		return nil
	}
	return &GenerateError{
		Kind:      ErrAmbiguous,
		TypeName:  name,
		Message:   "multiple declarations resolve to the reference name " + name,
		Conflicts: []string{prev.Origin(), decl.Origin()},
	}
}

// shortName derives the canonical-name fragment of a generic argument.
func shortName(t metadata.Type) string {
	switch t.Kind {
	case metadata.KindPrimitive:
		return string(t.Primitive)
	case metadata.KindArray:
		return shortName(*t.ElementType) + "Array"
	case metadata.KindRef:
		return t.Ref
	default:
		return "object"
	}
}
