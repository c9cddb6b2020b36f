package navigation

import (
	"fmt"
	"strings"
)

// Kind is the kind of a menu entry.
type Kind uint8

const (
	// KindLink is a leaf that navigates to Path.
	KindLink Kind = iota
	// KindGroup is a collapsible node holding Children.
	KindGroup
	// KindTitle is a section heading. It is always shown.
	KindTitle
)

func (k Kind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindGroup:
		return "group"
	case KindTitle:
		return "title"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MarshalText writes the kind name, so JSON output matches menu files.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKind parses the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "link", "item", "":
		return KindLink, nil
	case "group":
		return KindGroup, nil
	case "title":
		return KindTitle, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidMenu, s)
	}
}

// Entry is one node of a menu tree.
//
// Permissions lists alternative codes: a link is visible when the permission
// set holds at least one of them, or when the list is empty.
type Entry struct {
	Kind        Kind     `yaml:"kind" json:"kind"`
	Label       string   `yaml:"label" json:"label"`
	Path        string   `yaml:"path,omitempty" json:"path,omitempty"`
	Icon        string   `yaml:"icon,omitempty" json:"icon,omitempty"`
	Permissions []string `yaml:"permissions,omitempty" json:"permissions,omitempty"`
	Children    []Entry  `yaml:"children,omitempty" json:"children,omitempty"`
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	out := e
	if e.Permissions != nil {
		out.Permissions = append([]string(nil), e.Permissions...)
	}
	if e.Children != nil {
		out.Children = make([]Entry, len(e.Children))
		for i, c := range e.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Find returns the link whose Path is path, searching depth first in
// declaration order.
func Find(tree []Entry, path string) (Entry, bool) {
	for _, e := range tree {
		if e.Kind == KindLink && e.Path == path {
			return e, true
		}
		if e.Kind == KindGroup {
			if found, ok := Find(e.Children, path); ok {
				return found, true
			}
		}
	}
	return Entry{}, false
}

// Links returns every link in declaration order.
func Links(tree []Entry) []Entry {
	var out []Entry
	walk(tree, func(e Entry) {
		if e.Kind == KindLink {
			out = append(out, e)
		}
	})
	return out
}

// RequiredPermissions returns every distinct code referenced by the tree, in
// first-seen order.
func RequiredPermissions(tree []Entry) []string {
	seen := make(map[string]struct{})
	var out []string
	walk(tree, func(e Entry) {
		for _, p := range e.Permissions {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	})
	return out
}

func walk(tree []Entry, fn func(Entry)) {
	for _, e := range tree {
		fn(e)
		if len(e.Children) > 0 {
			walk(e.Children, fn)
		}
	}
}
