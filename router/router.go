package router

import (
	"context"

	"github.com/farm2go/adminguard"
	"go.uber.org/zap"
)

// Guard evaluates sessions for the router. [adminguard.Engine] implements it.
type Guard interface {
	Evaluate(ctx context.Context) adminguard.Verdict
	LoginPath() string
	RecordGuardRedirect(ctx context.Context, path string, v adminguard.Verdict)
}

// Outcome is what a navigation resolves to.
type Outcome uint8

const (
	// Render shows the requested route.
	Render Outcome = iota
	// RedirectLogin sends a denied session to the login view.
	RedirectLogin
	// NotFound shows the not-found view to an authenticated session.
	NotFound
	// Forbidden keeps the current view: the session lacks the route's permissions.
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Decision is the resolved navigation.
type Decision struct {
	Outcome Outcome
	// Requested is the normalized path asked for.
	Requested string
	// Target is the view to show; empty for Forbidden.
	Target string
	// Route is the matched route, zero for unknown paths.
	Route Route
	// Verdict is set for every protected or unknown path.
	Verdict adminguard.Verdict
}

// Router resolves paths against a table and moves a navigator.
type Router struct {
	table  *Table
	guard  Guard
	nav    Navigator
	logger *zap.Logger
}

// New returns a router. A nil logger discards.
func New(table *Table, guard Guard, nav Navigator, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{table: table, guard: guard, nav: nav, logger: logger}
}

// Table returns the route table.
func (r *Router) Table() *Table {
	return r.table
}

// Navigator returns the navigator moved by Navigate.
func (r *Router) Navigator() Navigator {
	return r.nav
}

// Resolve decides what navigating to path shows. Public routes never evaluate
// the session; protected and unknown paths always do.
func (r *Router) Resolve(ctx context.Context, path string) Decision {
	path = Normalize(path)
	d := Decision{Requested: path}

	route, known := r.table.Lookup(path)
	if known && route.Access == Public {
		d.Outcome, d.Target, d.Route = Render, route.Path, route
		return d
	}

	d.Verdict = r.guard.Evaluate(ctx)
	if !d.Verdict.Authenticated {
		d.Outcome, d.Target = RedirectLogin, r.guard.LoginPath()
		r.guard.RecordGuardRedirect(ctx, path, d.Verdict)
		return d
	}

	if !known {
		d.Outcome, d.Target = NotFound, PathNotFound
		return d
	}
	d.Route = route

	if route.Redirect != "" {
		if to, ok := r.table.Lookup(route.Redirect); ok {
			route = to
			d.Route = to
		}
	}
	if !d.Verdict.Identity.Permissions.HasAny(route.Permissions...) {
		d.Outcome = Forbidden
		r.logger.Info("navigation forbidden",
			zap.String("path", route.Path),
			zap.String("username", d.Verdict.Identity.Username),
			zap.Strings("requires", route.Permissions),
		)
		return d
	}

	d.Outcome, d.Target = Render, route.Path
	return d
}

// Navigate resolves path and moves the navigator to the decision's target.
// A Forbidden decision leaves the navigator where it is.
func (r *Router) Navigate(ctx context.Context, path string) (Decision, error) {
	d := r.Resolve(ctx, path)
	if d.Target == "" {
		return d, nil
	}
	if err := r.nav.Navigate(d.Target); err != nil {
		return d, err
	}
	r.logger.Debug("navigated",
		zap.String("requested", d.Requested),
		zap.String("target", d.Target),
		zap.Stringer("outcome", d.Outcome),
	)
	return d, nil
}
