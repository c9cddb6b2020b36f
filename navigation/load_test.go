package navigation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleMenu = `
version: 1
menu:
  - kind: link
    label: Dashboard
    path: /dashboard
  - kind: title
    label: Management
  - kind: group
    label: Admin Tools
    icon: settings
    children:
      - kind: link
        label: Users
        path: /management/users
        permissions: [READ_USER]
`

func TestLoad(t *testing.T) {
	got, err := Load(strings.NewReader(sampleMenu))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []Entry{
		{Kind: KindLink, Label: "Dashboard", Path: "/dashboard"},
		{Kind: KindTitle, Label: "Management"},
		{Kind: KindGroup, Label: "Admin Tools", Icon: "settings", Children: []Entry{
			{Kind: KindLink, Label: "Users", Path: "/management/users", Permissions: []string{"READ_USER"}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalLoadFarm2GoMenu(t *testing.T) {
	data, err := Marshal(Farm2GoMenu())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "menu.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if diff := cmp.Diff(Farm2GoMenu(), got); diff != "" {
		t.Fatalf("menu changed through YAML (-want +got):\n%s", diff)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "wrong version", doc: "version: 2\nmenu: []\n"},
		{name: "unknown field", doc: "version: 1\nmenu:\n  - {kind: link, label: A, path: /a, hidden: true}\n"},
		{name: "unknown kind", doc: "version: 1\nmenu:\n  - {kind: divider, label: A}\n"},
		{name: "relative path", doc: "version: 1\nmenu:\n  - {kind: link, label: A, path: a}\n"},
		{name: "missing label", doc: "version: 1\nmenu:\n  - {kind: link, path: /a}\n"},
		{name: "duplicate path", doc: "version: 1\nmenu:\n  - {kind: link, label: A, path: /a}\n  - {kind: group, label: G, children: [{kind: link, label: B, path: /a}]}\n"},
		{name: "title with path", doc: "version: 1\nmenu:\n  - {kind: title, label: T, path: /t}\n"},
		{name: "group with path", doc: "version: 1\nmenu:\n  - {kind: group, label: G, path: /g}\n"},
		{name: "empty permission", doc: "version: 1\nmenu:\n  - {kind: link, label: A, path: /a, permissions: ['']}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.doc)); !errors.Is(err, ErrInvalidMenu) {
				t.Fatalf("Load err = %v, want ErrInvalidMenu", err)
			}
		})
	}
}
