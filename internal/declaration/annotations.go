package declaration

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Annotations is the typed documentation record attached to a declaration,
// field, parameter or operation.
type Annotations struct {
	Description string `yaml:"description"`
	Example     any    `yaml:"example"`
	Format      string `yaml:"format"`
	Default     any    `yaml:"default"`
	Tags        []Tag  `yaml:"tags"`
}

// Tag is a single documentation tag such as `@minimum 5 too small`.
type Tag struct {
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

// UnmarshalYAML accepts either the mapping form {name, text} or the scalar
// shorthand "minimum 5 too small" (a leading @ is allowed).
func (t *Tag) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		s := strings.TrimPrefix(strings.TrimSpace(value.Value), "@")
		t.Name, t.Text = SplitFirst(s)
		if t.Name == "" {
			return fmt.Errorf("line %d: empty tag", value.Line)
		}
		return nil
	case yaml.MappingNode:
		type plain Tag
		var p plain
		if err := value.Decode(&p); err != nil {
			return err
		}
		*t = Tag(p)
		return nil
	default:
		return fmt.Errorf("line %d: tag must be a string or a mapping", value.Line)
	}
}

// Tag returns the first tag with the given name.
func (a *Annotations) Tag(name string) (Tag, bool) {
	if a == nil {
		return Tag{}, false
	}
	for _, t := range a.Tags {
		if t.Name == name {
			return t, true
		}
	}
	return Tag{}, false
}

// HasTag reports whether a tag with the given name is present.
func (a *Annotations) HasTag(name string) bool {
	_, ok := a.Tag(name)
	return ok
}

// TagNames returns tag names in declaration order.
func (a *Annotations) TagNames() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		names = append(names, t.Name)
	}
	return names
}

// AddressedTo returns the tags whose text starts with the given parameter
// name, with the name stripped. One operation-level block can document
// several parameters this way (`@minimum limit 1`).
func (a *Annotations) AddressedTo(param string) Annotations {
	var out Annotations
	if a == nil || param == "" {
		return out
	}
	for _, t := range a.Tags {
		target, rest := SplitFirst(t.Text)
		if target != param {
			continue
		}
		out.Tags = append(out.Tags, Tag{Name: t.Name, Text: rest})
	}
	return out
}

// Merge returns a copy of a with the tags of other appended. Scalar fields
// of a win when set.
func (a Annotations) Merge(other Annotations) Annotations {
	out := a
	out.Tags = append(append([]Tag(nil), a.Tags...), other.Tags...)
	if out.Description == "" {
		out.Description = other.Description
	}
	if out.Format == "" {
		out.Format = other.Format
	}
	if out.Default == nil {
		out.Default = other.Default
	}
	if out.Example == nil {
		out.Example = other.Example
	}
	return out
}

// SplitFirst splits s at the first run of whitespace.
func SplitFirst(s string) (head, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t\n")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}
