package navigation

import "github.com/farm2go/adminguard/permission"

// Filter returns the entries of tree that perms may see, in declaration order.
//
//   - A title is always kept.
//   - A link is kept when it requires nothing or perms holds one of its codes.
//   - A group is kept when its own codes (if any) are satisfied and at least
//     one child survives filtering.
//
// The result shares no slices with tree. Filter is pure and idempotent.
func Filter(tree []Entry, perms permission.Set) []Entry {
	out := make([]Entry, 0, len(tree))
	for _, e := range tree {
		if kept, ok := filterEntry(e, perms); ok {
			out = append(out, kept)
		}
	}
	return out
}

func filterEntry(e Entry, perms permission.Set) (Entry, bool) {
	switch e.Kind {
	case KindTitle:
		return e.Clone(), true
	case KindLink:
		if !perms.HasAny(e.Permissions...) {
			return Entry{}, false
		}
		return e.Clone(), true
	case KindGroup:
		if !perms.HasAny(e.Permissions...) {
			return Entry{}, false
		}
		children := Filter(e.Children, perms)
		if len(children) == 0 {
			return Entry{}, false
		}
		g := e.Clone()
		g.Children = children
		return g, true
	default:
		return Entry{}, false
	}
}
