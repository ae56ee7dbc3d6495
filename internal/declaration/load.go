package declaration

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a declaration set document from disk.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read declaration set %q: %w", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse declaration set %q: %w", path, err)
	}
	return set, nil
}

// Parse decodes a YAML (or JSON) declaration set document and links every
// namespace, declaration and controller to its lexical parent.
func Parse(data []byte) (*Set, error) {
	var set Set
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := set.Link(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Link wires parent pointers. Parse calls it; sets built in code must call
// it before use.
func (s *Set) Link() error {
	for _, src := range s.Sources {
		if src.Path == "" {
			return fmt.Errorf("source without a path")
		}
		linkNamespace(&src.Namespace, nil, src)
	}
	for _, c := range s.Controllers {
		scope, err := s.scopeOf(c.Source, c.Namespace)
		if err != nil {
			return fmt.Errorf("controller %s: %w", c.Name, err)
		}
		c.scope = scope
	}
	return nil
}

func linkNamespace(ns *Namespace, parent *Namespace, src *Source) {
	ns.parent = parent
	ns.source = src
	for _, d := range ns.Declarations {
		d.namespace = ns
	}
	for _, child := range ns.Namespaces {
		linkNamespace(child, ns, src)
	}
}

// Source returns the source with the given path.
func (s *Set) Source(path string) *Source {
	for _, src := range s.Sources {
		if src.Path == path {
			return src
		}
	}
	return nil
}

func (s *Set) scopeOf(path, namespace string) (*Namespace, error) {
	if path == "" {
		return nil, nil
	}
	src := s.Source(path)
	if src == nil {
		return nil, fmt.Errorf("unknown source %q", path)
	}
	ns := src.Root()
	if namespace == "" {
		return ns, nil
	}
	for _, seg := range strings.Split(namespace, ".") {
		next := ns.Child(seg)
		if next == nil {
			return nil, fmt.Errorf("namespace %q not found in %s", namespace, path)
		}
		ns = next
	}
	return ns, nil
}

// Roots returns the top-level namespace of every source, in source order.
func (s *Set) Roots() []*Namespace {
	roots := make([]*Namespace, 0, len(s.Sources))
	for _, src := range s.Sources {
		roots = append(roots, src.Root())
	}
	return roots
}
