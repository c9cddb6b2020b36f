package router

import (
	"context"
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/farm2go/adminguard"
	"github.com/farm2go/adminguard/navigation"
	"github.com/farm2go/adminguard/permission"
	"github.com/farm2go/adminguard/store"
)

func tokenExpiring(exp time.Time) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none"}`)) + "." +
		enc.EncodeToString([]byte(`{"exp":`+strconv.FormatInt(exp.Unix(), 10)+`}`)) + ".sig"
}

func saveSession(t *testing.T, s store.Store, exp time.Time, perms ...string) {
	t.Helper()
	encoded, err := permission.EncodeSet(permission.NewSet(perms...))
	if err != nil {
		t.Fatalf("EncodeSet: %v", err)
	}
	err = store.SaveSession(context.Background(), s, store.Credentials{
		Token:       tokenExpiring(exp),
		Username:    "alice",
		Roles:       `["ADMIN"]`,
		Permissions: encoded,
	})
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
}

func newTestRouter(t *testing.T) (*Router, *History, *store.MemoryStore, *adminguard.Engine) {
	t.Helper()
	s := store.NewMemoryStore()
	engine, err := adminguard.New().WithStore(s).WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() {
		engine.Close()
		_ = s.Close()
	})
	table, err := Farm2GoRoutes(engine.MenuDefinition(), engine.HomePath())
	if err != nil {
		t.Fatalf("Farm2GoRoutes: %v", err)
	}
	h := NewHistory(PathLogin)
	return New(table, engine, h, nil), h, s, engine
}

func TestResolvePublicRoutesSkipEvaluation(t *testing.T) {
	r, _, _, engine := newTestRouter(t)
	for _, p := range []string{PathLogin, PathRegister, PathNotFound, PathError} {
		d := r.Resolve(context.Background(), p)
		if d.Outcome != Render || d.Target != p {
			t.Fatalf("%s: got %+v", p, d)
		}
	}
	if n := engine.MetricsSnapshot().Counters[adminguard.MetricEvaluateMissingCredentials]; n != 0 {
		t.Fatalf("public routes evaluated the session %d times", n)
	}
}

func TestResolveProtectedWithoutSession(t *testing.T) {
	r, _, _, engine := newTestRouter(t)
	for _, p := range []string{"/", "/dashboard", "/management/users", "/no/such/page"} {
		d := r.Resolve(context.Background(), p)
		if d.Outcome != RedirectLogin || d.Target != PathLogin {
			t.Fatalf("%s: got %+v", p, d)
		}
		if d.Verdict.Reason != adminguard.ReasonMissingCredentials {
			t.Fatalf("%s: reason %s", p, d.Verdict.Reason)
		}
	}
	if n := engine.MetricsSnapshot().Counters[adminguard.MetricGuardRedirect]; n != 4 {
		t.Fatalf("guard redirect counter = %d, want 4", n)
	}
}

func TestResolveExpiredTokenCaughtOnNavigation(t *testing.T) {
	r, _, s, _ := newTestRouter(t)
	saveSession(t, s, time.Now().Add(-10*time.Minute), permission.ReadUser)

	d := r.Resolve(context.Background(), "/management/users")
	if d.Outcome != RedirectLogin || d.Verdict.Reason != adminguard.ReasonExpired {
		t.Fatalf("got %+v, want expired redirect", d)
	}
}

func TestResolveAuthenticated(t *testing.T) {
	r, _, s, _ := newTestRouter(t)
	saveSession(t, s, time.Now().Add(time.Hour), permission.ReadUser)
	ctx := context.Background()

	tests := []struct {
		path    string
		outcome Outcome
		target  string
	}{
		{path: "/", outcome: Render, target: "/dashboard"},
		{path: "#/dashboard", outcome: Render, target: "/dashboard"},
		{path: "/management/users/", outcome: Render, target: "/management/users"},
		{path: "/management/roles", outcome: Forbidden, target: ""},
		{path: "/management/unknown", outcome: NotFound, target: PathNotFound},
	}
	for _, tt := range tests {
		d := r.Resolve(ctx, tt.path)
		if d.Outcome != tt.outcome || d.Target != tt.target {
			t.Fatalf("%s: got %s -> %q, want %s -> %q", tt.path, d.Outcome, d.Target, tt.outcome, tt.target)
		}
	}
}

func TestNavigateMovesHistory(t *testing.T) {
	r, h, s, _ := newTestRouter(t)
	ctx := context.Background()

	if _, err := r.Navigate(ctx, "/dashboard"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if h.Current() != PathLogin {
		t.Fatalf("current = %s, want login", h.Current())
	}

	saveSession(t, s, time.Now().Add(time.Hour))
	if _, err := r.Navigate(ctx, "/dashboard"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if h.Current() != "/dashboard" {
		t.Fatalf("current = %s, want /dashboard", h.Current())
	}

	d, _ := r.Navigate(ctx, "/management/farmers")
	if d.Outcome != Forbidden || h.Current() != "/dashboard" {
		t.Fatalf("forbidden navigation moved history: %+v, current %s", d, h.Current())
	}
}

func TestFarm2GoRoutes(t *testing.T) {
	table, err := Farm2GoRoutes(navigation.Farm2GoMenu(), "/dashboard")
	if err != nil {
		t.Fatalf("Farm2GoRoutes: %v", err)
	}
	if got := len(table.Routes()); got != 15 {
		t.Fatalf("expected 15 routes, got %d", got)
	}
	r, ok := table.Lookup("/management/geo-locations")
	if !ok || r.Access != Protected || len(r.Permissions) != 1 || r.Permissions[0] != permission.ManageLocations {
		t.Fatalf("unexpected geo-locations route %+v", r)
	}
	if _, err := Farm2GoRoutes(navigation.Farm2GoMenu(), "/home"); err == nil {
		t.Fatal("expected error for a home path with no route")
	}
}

func TestNewTableRejects(t *testing.T) {
	if _, err := NewTable(Route{Path: "users"}); err == nil {
		t.Fatal("expected relative path error")
	}
	if _, err := NewTable(Route{Path: "/a"}, Route{Path: "/a/"}); err == nil {
		t.Fatal("expected duplicate path error")
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"":                   "/",
		"/":                  "/",
		"#/":                 "/",
		"#/management/users": "/management/users",
		"management/users//": "/management/users",
		" /dashboard?tab=1 ": "/dashboard",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory("/login")
	changed := h.Changed()
	_ = h.Navigate("/dashboard")
	select {
	case <-changed:
	default:
		t.Fatal("expected change notification")
	}
	_ = h.Navigate("/dashboard")
	if got := len(h.Entries()); got != 2 {
		t.Fatalf("expected duplicate navigation to be ignored, got %d entries", got)
	}
	prev, err := h.Back()
	if err != nil || prev != "/login" {
		t.Fatalf("Back = %q, %v", prev, err)
	}
	if _, err := h.Back(); err != ErrNoHistory {
		t.Fatalf("Back at start = %v", err)
	}
}
