package navigation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MenuFileVersion is the only menu file version understood by [Load].
const MenuFileVersion = 1

// ErrInvalidMenu is returned for menu trees or files that fail validation.
var ErrInvalidMenu = errors.New("invalid menu")

type menuFile struct {
	Version int     `yaml:"version"`
	Menu    []Entry `yaml:"menu"`
}

// UnmarshalYAML reads a kind name.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("%w: kind: %v", ErrInvalidMenu, err)
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalYAML writes the kind name.
func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// Load decodes and validates a YAML menu document:
//
//	version: 1
//	menu:
//	  - kind: link
//	    label: Dashboard
//	    path: /dashboard
//	  - kind: group
//	    label: Admin Tools
//	    children:
//	      - {kind: link, label: Users, path: /management/users, permissions: [READ_USER]}
func Load(r io.Reader) ([]Entry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc menuFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidMenu)
		}
		if errors.Is(err, ErrInvalidMenu) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidMenu, err)
	}
	if doc.Version != MenuFileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidMenu, doc.Version)
	}
	if err := Validate(doc.Menu); err != nil {
		return nil, err
	}
	return doc.Menu, nil
}

// LoadFile reads a menu document from path.
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(bytes.NewReader(data))
}

// Marshal encodes tree as a versioned YAML menu document.
func Marshal(tree []Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(menuFile{Version: MenuFileVersion, Menu: tree}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks structural rules: labels are set, links have an absolute
// path and no children, titles carry only a label, and no path repeats.
func Validate(tree []Entry) error {
	seen := make(map[string]struct{})
	return validate(tree, seen, "")
}

func validate(tree []Entry, seen map[string]struct{}, parent string) error {
	for i, e := range tree {
		where := fmt.Sprintf("%s[%d]", parent, i)
		if strings.TrimSpace(e.Label) == "" {
			return fmt.Errorf("%w: %s: empty label", ErrInvalidMenu, where)
		}
		where = fmt.Sprintf("%s %q", where, e.Label)

		for _, p := range e.Permissions {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("%w: %s: empty permission code", ErrInvalidMenu, where)
			}
		}

		switch e.Kind {
		case KindLink:
			if !strings.HasPrefix(e.Path, "/") {
				return fmt.Errorf("%w: %s: link path must start with /", ErrInvalidMenu, where)
			}
			if len(e.Children) > 0 {
				return fmt.Errorf("%w: %s: link cannot have children", ErrInvalidMenu, where)
			}
			if _, dup := seen[e.Path]; dup {
				return fmt.Errorf("%w: %s: duplicate path %s", ErrInvalidMenu, where, e.Path)
			}
			seen[e.Path] = struct{}{}
		case KindGroup:
			if e.Path != "" {
				return fmt.Errorf("%w: %s: group cannot have a path", ErrInvalidMenu, where)
			}
			if err := validate(e.Children, seen, where); err != nil {
				return err
			}
		case KindTitle:
			if e.Path != "" || len(e.Children) > 0 || len(e.Permissions) > 0 {
				return fmt.Errorf("%w: %s: title carries only a label", ErrInvalidMenu, where)
			}
		default:
			return fmt.Errorf("%w: %s: unknown kind %s", ErrInvalidMenu, where, e.Kind)
		}
	}
	return nil
}
