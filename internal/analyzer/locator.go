package analyzer

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/HoldYourWaffle2/tsoa/internal/declaration"
)

// locatorCacheSize bounds the memo of successful lookups. Declaration sets
// are immutable for the lifetime of a Locator, so entries never go stale.
const locatorCacheSize = 1024

// canonicalTag marks the declaration that wins a same-name tie.
const canonicalTag = "canonical"

type locatorKey struct {
	scope *declaration.Namespace
	name  string
}

// Locator finds the single declaration a type name refers to.
type Locator struct {
	set   *declaration.Set
	cache *lru.Cache[locatorKey, *declaration.Declaration]
}

// NewLocator creates a locator over a linked declaration set.
func NewLocator(set *declaration.Set) *Locator {
	cache, err := lru.New[locatorKey, *declaration.Declaration](locatorCacheSize)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &Locator{set: set, cache: cache}
}

// Locate resolves name, optionally dotted through namespaces ("Api.V1.User"),
// as seen from scope. A nil scope searches only the source roots.
func (l *Locator) Locate(name string, scope *declaration.Namespace) (*declaration.Declaration, error) {
	key := locatorKey{scope: scope, name: name}
	if d, ok := l.cache.Get(key); ok {
		return d, nil
	}
	d, err := l.locate(name, scope)
	if err != nil {
		return nil, err
	}
	l.cache.Add(key, d)
	return d, nil
}

func (l *Locator) locate(name string, scope *declaration.Namespace) (*declaration.Declaration, error) {
	var containers []*declaration.Namespace
	typeName := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ns, err := l.descend(name[:i], scope)
		if err != nil {
			return nil, err
		}
		containers = []*declaration.Namespace{ns}
		typeName = name[i+1:]
	} else {
		containers = l.reachable(scope)
	}

	var matches []*declaration.Declaration
	for _, ns := range containers {
		for _, d := range ns.Declarations {
			if d.Name == typeName && d.Exported() && locatable(d.Kind) {
				matches = append(matches, d)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, newError(ErrNotFound, name, "no matching model found for referenced type %s", name)
	case 1:
		return matches[0], nil
	}

	if own := withoutLibraries(matches); len(own) > 0 {
		matches = own
	}
	if len(matches) == 1 {
		return matches[0], nil
	}

	var marked []*declaration.Declaration
	for _, d := range matches {
		if d.Annotations.HasTag(canonicalTag) {
			marked = append(marked, d)
		}
	}
	switch len(marked) {
	case 1:
		return marked[0], nil
	case 0:
		return nil, &GenerateError{
			Kind:      ErrAmbiguous,
			TypeName:  name,
			Message:   "multiple matching models found for referenced type " + name,
			Conflicts: origins(matches),
		}
	default:
		return nil, &GenerateError{
			Kind:      ErrAmbiguous,
			TypeName:  name,
			Message:   "multiple models for " + name + " marked with '@" + canonicalTag + "'",
			Conflicts: origins(marked),
		}
	}
}

// reachable returns the scope's ancestor chain, innermost first, followed by
// every source root not already on the chain.
func (l *Locator) reachable(scope *declaration.Namespace) []*declaration.Namespace {
	seen := make(map[*declaration.Namespace]bool)
	var out []*declaration.Namespace
	for ns := scope; ns != nil; ns = ns.Parent() {
		seen[ns] = true
		out = append(out, ns)
	}
	for _, root := range l.set.Roots() {
		if !seen[root] {
			seen[root] = true
			out = append(out, root)
		}
	}
	return out
}

// descend walks a dotted namespace path one segment at a time. The first
// segment is looked up level by level: each ancestor of scope is one level,
// the source roots together form the last. The nearest level with a match
// wins; two matches on the same level are ambiguous.
func (l *Locator) descend(path string, scope *declaration.Namespace) (*declaration.Namespace, error) {
	segments := strings.Split(path, ".")

	var levels [][]*declaration.Namespace
	seen := make(map[*declaration.Namespace]bool)
	for ns := scope; ns != nil; ns = ns.Parent() {
		seen[ns] = true
		levels = append(levels, []*declaration.Namespace{ns})
	}
	var roots []*declaration.Namespace
	for _, root := range l.set.Roots() {
		if !seen[root] {
			roots = append(roots, root)
		}
	}
	levels = append(levels, roots)

	var current *declaration.Namespace
	for _, level := range levels {
		found, err := childNamed(level, segments[0], path)
		if err != nil {
			return nil, err
		}
		if found != nil {
			current = found
			break
		}
	}
	if current == nil {
		return nil, newError(ErrAmbiguous, path, "unresolved scope segment %q in %s", segments[0], path)
	}

	for _, seg := range segments[1:] {
		next, err := childNamed([]*declaration.Namespace{current}, seg, path)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, newError(ErrAmbiguous, path, "unresolved scope segment %q in %s", seg, path)
		}
		current = next
	}
	return current, nil
}

func childNamed(parents []*declaration.Namespace, name, path string) (*declaration.Namespace, error) {
	var found []*declaration.Namespace
	for _, p := range parents {
		for _, child := range p.Namespaces {
			if child.Name == name && child.Exported() {
				found = append(found, child)
			}
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	}
	conflicts := make([]string, len(found))
	for i, ns := range found {
		conflicts[i] = ns.Origin()
	}
	return nil, &GenerateError{
		Kind:      ErrAmbiguous,
		TypeName:  path,
		Message:   "multiple matching namespaces found for segment " + name + " of " + path,
		Conflicts: conflicts,
	}
}

func locatable(k declaration.Kind) bool {
	switch k {
	case declaration.KindRecord, declaration.KindClass, declaration.KindAlias, declaration.KindEnum:
		return true
	}
	return false
}

func withoutLibraries(decls []*declaration.Declaration) []*declaration.Declaration {
	var out []*declaration.Declaration
	for _, d := range decls {
		ns := d.Namespace()
		if ns != nil && ns.Source() != nil && ns.Source().Library {
			continue
		}
		out = append(out, d)
	}
	return out
}

func origins(decls []*declaration.Declaration) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.Origin()
	}
	return out
}
