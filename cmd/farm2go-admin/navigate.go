package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/farm2go/adminguard/authapi"
	"github.com/farm2go/adminguard/management"
	"github.com/farm2go/adminguard/navigation"
	"github.com/farm2go/adminguard/router"
	"github.com/farm2go/adminguard/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) newRouter(start string) (*router.Router, *router.History, error) {
	table, err := router.Farm2GoRoutes(a.engine.MenuDefinition(), a.engine.HomePath())
	if err != nil {
		return nil, nil, err
	}
	nav := router.NewHistory(start)
	return router.New(table, a.engine, nav, a.logger.Named("router")), nav, nil
}

func (a *app) managementClient() (*management.Client, error) {
	if a.cfg.ProtectedURL == "" || a.cfg.ManagementURL == "" {
		return nil, errors.New("management APIs not configured: set --protected-url and --management-url")
	}
	return management.New(a.cfg.ProtectedURL, a.cfg.ManagementURL,
		authapi.StoreTokens{Store: a.st},
		management.WithLogger(a.logger.Named("management")),
		management.WithTimeout(a.cfg.Timeout),
	)
}

func printMenu(w io.Writer, tree []navigation.Entry, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, e := range tree {
		switch e.Kind {
		case navigation.KindTitle:
			fmt.Fprintf(w, "%s%s\n", indent, strings.ToUpper(e.Label))
		case navigation.KindGroup:
			fmt.Fprintf(w, "%s%s/\n", indent, e.Label)
			printMenu(w, e.Children, depth+1)
		default:
			fmt.Fprintf(w, "%s%-22s %s\n", indent, e.Label, e.Path)
		}
	}
}

func newMenuCmd(a *app) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Show the navigation menu for the current session",
		Long: `Show the menu entries the signed-in user may see. Entries whose
permissions are not granted are left out; --full prints the whole definition.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tree := a.engine.MenuDefinition()
			if !full {
				filtered, v := a.engine.Menu(cmd.Context())
				if !v.Authenticated {
					return fmt.Errorf("%w: %s", errNotAuthenticated, v.Reason)
				}
				tree = filtered
			}
			if a.cfg.Output == "yaml" {
				out, err := navigation.Marshal(tree)
				if err != nil {
					return err
				}
				_, err = a.out.Write(out)
				return err
			}
			return a.render(tree, func(w io.Writer) { printMenu(w, tree, 0) })
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "print the unfiltered menu definition")
	return cmd
}

// decisionView is the printable form of a navigation.
type decisionView struct {
	Requested string `json:"requested" yaml:"requested"`
	Outcome   string `json:"outcome" yaml:"outcome"`
	Target    string `json:"target,omitempty" yaml:"target,omitempty"`
	Route     string `json:"route,omitempty" yaml:"route,omitempty"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func viewOfDecision(d router.Decision) decisionView {
	out := decisionView{
		Requested: d.Requested,
		Outcome:   d.Outcome.String(),
		Target:    d.Target,
		Route:     d.Route.Name,
	}
	if d.Outcome == router.RedirectLogin {
		out.Reason = d.Verdict.Reason.String()
	}
	return out
}

func printDecision(w io.Writer, d decisionView) {
	switch d.Outcome {
	case router.Render.String():
		fmt.Fprintf(w, "%s -> %s\n", d.Requested, d.Route)
	case router.RedirectLogin.String():
		fmt.Fprintf(w, "%s -> %s (session %s)\n", d.Requested, d.Target, d.Reason)
	case router.NotFound.String():
		fmt.Fprintf(w, "%s -> %s (no such page)\n", d.Requested, d.Target)
	case router.Forbidden.String():
		fmt.Fprintf(w, "%s: not permitted for this account\n", d.Requested)
	}
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Navigate to a console view",
		Long: `Resolve a console path through the route guard and show where it leads.

Examples:
  farm2go-admin open /management/users
  farm2go-admin open '#/dashboard'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := a.newRouter(router.PathRoot)
			if err != nil {
				return err
			}
			d, err := r.Navigate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := viewOfDecision(d)
			return a.render(view, func(w io.Writer) { printDecision(w, view) })
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var opts management.ListOptions
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List a management resource",
		Long: fmt.Sprintf(`Open a management view and print its listing.

Resources: %s

Examples:
  farm2go-admin list users --page 1 --size 20
  farm2go-admin list geo-locations --parent 4`, strings.Join(management.Resources(), ", ")),
		Args:      cobra.ExactArgs(1),
		ValidArgs: management.Resources(),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource := args[0]
			path := resource
			if !strings.HasPrefix(path, "/") {
				path = "/management/" + resource
			}

			r, _, err := a.newRouter(router.PathRoot)
			if err != nil {
				return err
			}
			d := r.Resolve(cmd.Context(), path)
			if d.Outcome != router.Render {
				view := viewOfDecision(d)
				printDecision(a.errOut, view)
				return fmt.Errorf("cannot open %s: %s", d.Requested, d.Outcome)
			}

			client, err := a.managementClient()
			if err != nil {
				return err
			}
			raw, err := client.List(cmd.Context(), d.Route.Path, opts)
			if err != nil {
				var opErr *management.OpError
				if errors.As(err, &opErr) {
					fmt.Fprintln(a.errOut, opErr.Message())
				}
				return err
			}
			return a.writeRaw(raw)
		},
	}
	cmd.Flags().IntVar(&opts.Page, "page", management.DefaultPage, "page number (users)")
	cmd.Flags().IntVar(&opts.Size, "size", management.DefaultPageSize, "page size (users)")
	cmd.Flags().StringVar(&opts.ParentID, "parent", "", "parent location id (geo-locations)")
	return cmd
}

// writeRaw prints an API response. JSON output is indented; YAML output
// re-encodes the decoded value.
func (a *app) writeRaw(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	if a.cfg.Output == "yaml" {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		return a.render(v, nil)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = a.out.Write(raw)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(a.out)
	return err
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		at   string
		once bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Hold a console view and follow logouts from other processes",
		Long: `Open a view and keep it until interrupted. When the session is removed
from the shared store by another process, the view moves to the login page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, at, once)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "view to open (default: home)")
	cmd.Flags().BoolVar(&once, "once", false, "exit after the first forced redirect")
	return cmd
}

func (a *app) watch(ctx context.Context, at string, once bool) error {
	if at == "" {
		at = a.engine.HomePath()
	}
	r, nav, err := a.newRouter(router.PathRoot)
	if err != nil {
		return err
	}
	d, err := r.Navigate(ctx, at)
	if err != nil {
		return err
	}
	printDecision(a.out, viewOfDecision(d))

	w, err := watcher.New(a.st, nav, watcher.Config{
		LoginPath: a.engine.LoginPath(),
		Logger:    a.logger,
		Observer:  a.engine,
	})
	if err != nil {
		return err
	}
	changed := nav.Changed()
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()
	done := w.Done()
	fmt.Fprintf(a.out, "Watching %s (Ctrl-C to stop)\n", nav.Current())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return errors.New("session store closed")
		case <-changed:
			changed = nav.Changed()
			current := nav.Current()
			fmt.Fprintf(a.out, "Signed out elsewhere, now at %s\n", current)
			a.logger.Debug("view changed", zap.String("view", current))
			if once && current == a.engine.LoginPath() {
				return nil
			}
		}
	}
}
