package navigation

import (
	"testing"

	"github.com/farm2go/adminguard/permission"
	"github.com/google/go-cmp/cmp"
)

func link(label, path string, perms ...string) Entry {
	return Entry{Kind: KindLink, Label: label, Path: path, Permissions: perms}
}

func TestFilterPreservesOrder(t *testing.T) {
	tree := []Entry{
		link("A", "/a", "X"),
		link("B", "/b"),
		link("C", "/c", "Y"),
	}

	got := Filter(tree, permission.NewSet("Y"))
	want := []Entry{link("B", "/b"), link("C", "/c", "Y")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Filter mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterAdminToolsScenario(t *testing.T) {
	got := Filter(Farm2GoMenu(), permission.NewSet(permission.ReadUser))

	var admin *Entry
	for i := range got {
		if got[i].Label == "Admin Tools" {
			admin = &got[i]
		}
	}
	if admin == nil {
		t.Fatal("expected Admin Tools group to be kept")
	}
	want := []Entry{{
		Kind:        KindLink,
		Label:       "Users",
		Path:        "/management/users",
		Icon:        "user",
		Permissions: []string{permission.ReadUser},
	}}
	if diff := cmp.Diff(want, admin.Children); diff != "" {
		t.Fatalf("Admin Tools children mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterEmptyPermissionSet(t *testing.T) {
	got := Filter(Farm2GoMenu(), permission.NewSet())

	want := []Entry{
		{Kind: KindLink, Label: "Dashboard", Path: "/dashboard", Icon: "speedometer"},
		{Kind: KindTitle, Label: "Management"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Filter mismatch (-want +got):\n%s", diff)
	}
	walk(got, func(e Entry) {
		if len(e.Permissions) > 0 {
			t.Fatalf("entry %q requires %v but was kept", e.Label, e.Permissions)
		}
	})
}

func TestFilterKeepsPermissionFreeGroup(t *testing.T) {
	tree := []Entry{
		{Kind: KindGroup, Label: "Help", Children: []Entry{link("Docs", "/docs")}},
		{Kind: KindGroup, Label: "Empty"},
	}
	got := Filter(tree, permission.NewSet())
	want := []Entry{{Kind: KindGroup, Label: "Help", Children: []Entry{link("Docs", "/docs")}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Filter mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterAtLeastOneOf(t *testing.T) {
	tree := []Entry{link("Both", "/both", "X", "Y")}
	if got := Filter(tree, permission.NewSet("Y")); len(got) != 1 {
		t.Fatalf("expected link kept with one of its codes, got %v", got)
	}
	if got := Filter(tree, permission.NewSet("Z")); len(got) != 0 {
		t.Fatalf("expected link hidden, got %v", got)
	}
}

func TestFilterGroupOwnPermissions(t *testing.T) {
	tree := []Entry{{
		Kind:        KindGroup,
		Label:       "Ops",
		Permissions: []string{"OPS"},
		Children:    []Entry{link("Status", "/status")},
	}}
	if got := Filter(tree, permission.NewSet()); len(got) != 0 {
		t.Fatalf("expected gated group hidden, got %v", got)
	}
	if got := Filter(tree, permission.NewSet("OPS")); len(got) != 1 {
		t.Fatalf("expected gated group kept, got %v", got)
	}
}

func TestFilterIdempotent(t *testing.T) {
	sets := []permission.Set{
		permission.NewSet(),
		permission.NewSet(permission.ReadUser),
		permission.NewSet(permission.ManageProducts, permission.ManageFarmers),
		permission.NewSet(permission.Farm2GoCodes()...),
	}
	for _, perms := range sets {
		once := Filter(Farm2GoMenu(), perms)
		twice := Filter(once, perms)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("Filter not idempotent for %s (-once +twice):\n%s", perms, diff)
		}
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	tree := Farm2GoMenu()
	before := make([]Entry, len(tree))
	for i, e := range tree {
		before[i] = e.Clone()
	}

	got := Filter(tree, permission.NewSet(permission.ReadUser, permission.ManageRole))
	if diff := cmp.Diff(before, tree); diff != "" {
		t.Fatalf("input mutated (-before +after):\n%s", diff)
	}

	got[2].Children[0].Label = "changed"
	got[2].Children[0].Permissions[0] = "changed"
	if diff := cmp.Diff(before, tree); diff != "" {
		t.Fatalf("result shares storage with input (-before +after):\n%s", diff)
	}
}

func TestFilterFullCatalogKeepsEverything(t *testing.T) {
	tree := Farm2GoMenu()
	got := Filter(tree, permission.NewSet(permission.Farm2GoCodes()...))
	if diff := cmp.Diff(tree, got); diff != "" {
		t.Fatalf("Filter mismatch (-want +got):\n%s", diff)
	}
}
