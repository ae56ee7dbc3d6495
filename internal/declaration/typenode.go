package declaration

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// NodeKind identifies the shape of a type node.
type NodeKind int

const (
	NodeKeyword       NodeKind = iota + 1 // string, number, boolean, any, ...
	NodeLiteral                           // "a", 1, true
	NodeArray                             // T[]
	NodeUnion                             // A | B
	NodeIntersection                      // A & B
	NodeObjectLiteral                     // {}
	NodeReference                         // Name, Ns.Name, Name<A, B>
)

// TypeNode is an unresolved type expression as written in a declaration.
type TypeNode struct {
	Kind NodeKind
	// Keyword is set for NodeKeyword.
	Keyword string
	// Literal is a string, float64 or bool for NodeLiteral.
	Literal any
	// Element is set for NodeArray.
	Element *TypeNode
	// Types holds union and intersection members.
	Types []TypeNode
	// Name is the possibly qualified name of a NodeReference.
	Name          string
	TypeArguments []TypeNode
}

var keywords = map[string]bool{
	"string": true, "number": true, "bigint": true, "boolean": true,
	"any": true, "unknown": true, "object": true, "void": true,
	"undefined": true, "null": true, "never": true,
}

// Keyword returns a keyword node.
func Keyword(name string) TypeNode {
	return TypeNode{Kind: NodeKeyword, Keyword: name}
}

// Reference returns a reference node.
func Reference(name string, args ...TypeNode) TypeNode {
	return TypeNode{Kind: NodeReference, Name: name, TypeArguments: args}
}

// IsNullish reports whether the node is the null or undefined keyword.
func (n TypeNode) IsNullish() bool {
	return n.Kind == NodeKeyword && (n.Keyword == "null" || n.Keyword == "undefined")
}

// String renders the node back to type-expression syntax.
func (n TypeNode) String() string {
	switch n.Kind {
	case NodeKeyword:
		return n.Keyword
	case NodeLiteral:
		if s, ok := n.Literal.(string); ok {
			return strconv.Quote(s)
		}
		return fmt.Sprint(n.Literal)
	case NodeArray:
		elem := n.Element.String()
		if n.Element.Kind == NodeUnion || n.Element.Kind == NodeIntersection {
			elem = "(" + elem + ")"
		}
		return elem + "[]"
	case NodeUnion, NodeIntersection:
		sep := " | "
		if n.Kind == NodeIntersection {
			sep = " & "
		}
		parts := make([]string, len(n.Types))
		for i, t := range n.Types {
			parts[i] = t.String()
		}
		return strings.Join(parts, sep)
	case NodeObjectLiteral:
		return "{}"
	case NodeReference:
		if len(n.TypeArguments) == 0 {
			return n.Name
		}
		args := make([]string, len(n.TypeArguments))
		for i, a := range n.TypeArguments {
			args[i] = a.String()
		}
		return n.Name + "<" + strings.Join(args, ", ") + ">"
	default:
		return "<invalid>"
	}
}

// UnmarshalYAML parses the scalar type expression.
func (n *TypeNode) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: type must be a type expression string", value.Line)
	}
	parsed, err := ParseType(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*n = parsed
	return nil
}

// ParseType parses a type expression such as `Page<User[]> | null`.
func ParseType(src string) (TypeNode, error) {
	p := &typeParser{src: src}
	n, err := p.parseUnion()
	if err != nil {
		return TypeNode{}, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return TypeNode{}, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return n, nil
}

// MustParseType is like ParseType but panics on error.
func MustParseType(src string) TypeNode {
	n, err := ParseType(src)
	if err != nil {
		panic(err)
	}
	return n
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type expression %q at %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) accept(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) expect(c byte) error {
	if !p.accept(c) {
		return p.errorf("expected %q", c)
	}
	return nil
}

func (p *typeParser) parseUnion() (TypeNode, error) {
	p.accept('|')
	return p.parseList('|', NodeUnion, p.parseIntersection)
}

func (p *typeParser) parseIntersection() (TypeNode, error) {
	return p.parseList('&', NodeIntersection, p.parsePostfix)
}

func (p *typeParser) parseList(sep byte, kind NodeKind, next func() (TypeNode, error)) (TypeNode, error) {
	first, err := next()
	if err != nil {
		return TypeNode{}, err
	}
	types := []TypeNode{first}
	for p.accept(sep) {
		t, err := next()
		if err != nil {
			return TypeNode{}, err
		}
		types = append(types, t)
	}
	if len(types) == 1 {
		return first, nil
	}
	return TypeNode{Kind: kind, Types: types}, nil
}

func (p *typeParser) parsePostfix() (TypeNode, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return TypeNode{}, err
	}
	for p.accept('[') {
		if err := p.expect(']'); err != nil {
			return TypeNode{}, err
		}
		elem := n
		n = TypeNode{Kind: NodeArray, Element: &elem}
	}
	return n, nil
}

func (p *typeParser) parsePrimary() (TypeNode, error) {
	c := p.peek()
	switch {
	case c == 0:
		return TypeNode{}, p.errorf("unexpected end of expression")
	case c == '(':
		p.pos++
		n, err := p.parseUnion()
		if err != nil {
			return TypeNode{}, err
		}
		return n, p.expect(')')
	case c == '{':
		p.pos++
		if err := p.expect('}'); err != nil {
			return TypeNode{}, err
		}
		return TypeNode{Kind: NodeObjectLiteral}, nil
	case c == '"' || c == '\'':
		return p.parseString(c)
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case isIdentStart(c):
		return p.parseName()
	default:
		return TypeNode{}, p.errorf("unexpected %q", c)
	}
}

func (p *typeParser) parseString(quote byte) (TypeNode, error) {
	start := p.pos
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			sb.WriteByte(p.src[p.pos+1])
			p.pos += 2
		case c == quote:
			p.pos++
			return TypeNode{Kind: NodeLiteral, Literal: sb.String()}, nil
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	p.pos = start
	return TypeNode{}, p.errorf("unterminated string literal")
}

func (p *typeParser) parseNumber() (TypeNode, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && (p.src[p.pos] == '.' || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
		p.pos++
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		p.pos = start
		return TypeNode{}, p.errorf("invalid number literal")
	}
	return TypeNode{Kind: NodeLiteral, Literal: v}, nil
}

func (p *typeParser) parseName() (TypeNode, error) {
	name := p.ident()
	for p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		seg := p.ident()
		if seg == "" {
			return TypeNode{}, p.errorf("expected identifier after '.'")
		}
		name += "." + seg
	}

	switch {
	case name == "true" || name == "false":
		return TypeNode{Kind: NodeLiteral, Literal: name == "true"}, nil
	case keywords[name]:
		return Keyword(name), nil
	}

	n := Reference(name)
	if p.accept('<') {
		for {
			arg, err := p.parseUnion()
			if err != nil {
				return TypeNode{}, err
			}
			n.TypeArguments = append(n.TypeArguments, arg)
			if p.accept(',') {
				continue
			}
			if err := p.expect('>'); err != nil {
				return TypeNode{}, err
			}
			break
		}
	}
	return n, nil
}

func (p *typeParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && (isIdentStart(p.src[p.pos]) || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
