package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/farm2go/adminguard/navigation"
)

// Well-known paths.
const (
	PathRoot     = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
	PathNotFound = "/404"
	PathError    = "/500"
)

// ErrInvalidRoute is returned by NewTable for malformed or duplicate routes.
var ErrInvalidRoute = errors.New("invalid route")

// Access says whether a route needs an authenticated session.
type Access uint8

const (
	Protected Access = iota
	Public
)

func (a Access) String() string {
	if a == Public {
		return "public"
	}
	return "protected"
}

// Route is one entry of the route table.
type Route struct {
	Path   string
	Name   string
	Access Access
	// Permissions lists alternative codes; empty means any authenticated session.
	Permissions []string
	// Redirect, when set, sends the navigation on to another path.
	Redirect string
}

// Table is an immutable set of routes.
type Table struct {
	routes map[string]Route
	order  []string
}

// NewTable validates routes and builds a table. Paths are normalized.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{routes: make(map[string]Route, len(routes))}
	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("%w: path %q must start with /", ErrInvalidRoute, r.Path)
		}
		r.Path = Normalize(r.Path)
		if _, dup := t.routes[r.Path]; dup {
			return nil, fmt.Errorf("%w: duplicate path %s", ErrInvalidRoute, r.Path)
		}
		if r.Redirect != "" {
			r.Redirect = Normalize(r.Redirect)
		}
		t.routes[r.Path] = r
		t.order = append(t.order, r.Path)
	}
	for _, p := range t.order {
		if to := t.routes[p].Redirect; to != "" {
			if _, ok := t.routes[to]; !ok {
				return nil, fmt.Errorf("%w: %s redirects to unknown path %s", ErrInvalidRoute, p, to)
			}
		}
	}
	return t, nil
}

// Farm2GoRoutes returns the console route table: the public pages, the root
// redirect to home, and one protected route per menu link carrying the
// link's permissions.
func Farm2GoRoutes(menu []navigation.Entry, home string) (*Table, error) {
	routes := []Route{
		{Path: PathLogin, Name: "Login", Access: Public},
		{Path: PathRegister, Name: "Register", Access: Public},
		{Path: PathNotFound, Name: "Page 404", Access: Public},
		{Path: PathError, Name: "Page 500", Access: Public},
		{Path: PathRoot, Name: "Home", Access: Protected, Redirect: home},
	}
	for _, l := range navigation.Links(menu) {
		routes = append(routes, Route{
			Path:        l.Path,
			Name:        l.Label,
			Access:      Protected,
			Permissions: append([]string(nil), l.Permissions...),
		})
	}
	return NewTable(routes...)
}

// Lookup returns the route registered for path.
func (t *Table) Lookup(path string) (Route, bool) {
	r, ok := t.routes[Normalize(path)]
	return r, ok
}

// Routes returns every route in registration order.
func (t *Table) Routes() []Route {
	out := make([]Route, 0, len(t.order))
	for _, p := range t.order {
		out = append(out, t.routes[p])
	}
	return out
}

// Normalize turns hash-style and sloppy paths into table keys:
// "#/users/" and "users" both become "/users".
func Normalize(path string) string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "#")
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
