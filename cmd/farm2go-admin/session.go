package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/farm2go/adminguard"
	"github.com/farm2go/adminguard/permission"
	"github.com/farm2go/adminguard/store"
	"github.com/farm2go/adminguard/token"
	"github.com/spf13/cobra"
)

// errNotAuthenticated is returned by status --check for a denied session.
var errNotAuthenticated = errors.New("not authenticated")

// sessionView is the printable form of a verdict.
type sessionView struct {
	Authenticated bool      `json:"authenticated" yaml:"authenticated"`
	Reason        string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Username      string    `json:"username,omitempty" yaml:"username,omitempty"`
	Subject       string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Roles         []string  `json:"roles,omitempty" yaml:"roles,omitempty"`
	Permissions   []string  `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

func viewOf(v adminguard.Verdict) sessionView {
	out := sessionView{Authenticated: v.Authenticated}
	if !v.Authenticated {
		out.Reason = v.Reason.String()
		return out
	}
	if id := v.Identity; id != nil {
		out.Username = id.Username
		out.Subject = id.Subject
		out.Roles = []string(id.Roles.Clone())
		out.Permissions = id.Permissions.Codes()
		out.ExpiresAt = id.ExpiresAt.UTC()
	}
	return out
}

func printSession(w io.Writer, s sessionView) {
	if !s.Authenticated {
		fmt.Fprintf(w, "Not signed in (%s)\n", s.Reason)
		return
	}
	fmt.Fprintf(w, "Signed in as %s\n", s.Username)
	if s.Subject != "" {
		fmt.Fprintf(w, "  Subject:     %s\n", s.Subject)
	}
	fmt.Fprintf(w, "  Expires:     %s (in %s)\n", s.ExpiresAt.Format(time.RFC3339), time.Until(s.ExpiresAt).Truncate(time.Second))
	fmt.Fprintf(w, "  Roles:       %s\n", joinOrNone(s.Roles))
	fmt.Fprintf(w, "  Permissions: %s\n", joinOrNone(s.Permissions))
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in through the Auth API",
		Long: `Sign in through the Auth API and store the session for every console
process sharing the store.

The password is read from --password, then FARM2GO_PASSWORD, then standard input.

Examples:
  farm2go-admin login ada
  echo "$PW" | farm2go-admin login ada --public-url https://auth.farm2go.lk/api/public`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				username = args[0]
			}
			if username == "" {
				return errors.New("username required")
			}
			if password == "" {
				password = os.Getenv("FARM2GO_PASSWORD")
			}
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			res, err := a.engine.Login(cmd.Context(), username, password)
			if err != nil {
				if errors.Is(err, adminguard.ErrAuthClientRequired) {
					return errors.New("no Auth API configured: set --public-url or FARM2GO_PUBLIC_URL")
				}
				if res.Message != "" {
					fmt.Fprintln(a.errOut, res.Message)
				}
				return err
			}
			if res.Message != "" {
				fmt.Fprintln(a.out, res.Message)
			}
			view := viewOf(res.Verdict)
			return a.render(view, func(w io.Writer) {
				printSession(w, view)
				if view.Authenticated {
					fmt.Fprintf(w, "Opening %s\n", a.engine.HomePath())
				}
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the shared session",
		Long: `End the session in the shared store. Every console process using the
same store is signed out, and running "watch" processes return to the login view.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.engine.Logout(cmd.Context())
			if errors.Is(err, adminguard.ErrNoToken) {
				fmt.Fprintln(a.out, res.Message)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, res.Message)
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := a.engine.Evaluate(cmd.Context())
			view := viewOf(v)
			if err := a.render(view, func(w io.Writer) { printSession(w, view) }); err != nil {
				return err
			}
			if check && !v.Authenticated {
				return fmt.Errorf("%w: %s", errNotAuthenticated, v.Reason)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "exit non-zero when not signed in")
	return cmd
}

func newDevLoginCmd(a *app) *cobra.Command {
	var (
		username    string
		subject     string
		roles       []string
		permissions []string
		all         bool
		ttl         time.Duration
		secret      string
		issuer      string
	)
	cmd := &cobra.Command{
		Use:   "dev-login",
		Short: "Store a locally signed session for development",
		Long: `Mint an HS256 session token and store it with the given roles and
permissions, for working without a running Auth API.

Examples:
  farm2go-admin dev-login -u ada --all --secret dev
  farm2go-admin dev-login -u viewer --perm READ_USER --ttl 5m --secret dev`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" {
				return errors.New("username required")
			}
			if secret == "" {
				secret = os.Getenv("FARM2GO_DEV_SECRET")
			}
			if secret == "" {
				return errors.New("signing secret required: set --secret or FARM2GO_DEV_SECRET")
			}
			if subject == "" {
				subject = username
			}
			if all {
				permissions = a.engine.Registry().Codes()
			}
			sort.Strings(permissions)

			iss, err := token.NewIssuer(token.Config{
				TTL:           ttl,
				SigningMethod: token.MethodHS256,
				PrivateKey:    []byte(secret),
				Issuer:        issuer,
			})
			if err != nil {
				return err
			}
			raw, err := iss.Issue(subject, username, roles, permissions)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			encRoles, err := permission.EncodeRoles(permission.Roles(roles))
			if err != nil {
				return err
			}
			encPerms, err := permission.EncodeSet(permission.NewSet(permissions...))
			if err != nil {
				return err
			}
			if err := store.SaveSession(cmd.Context(), a.st, store.Credentials{
				Token:       raw,
				Username:    username,
				Roles:       encRoles,
				Permissions: encPerms,
			}); err != nil {
				return err
			}

			view := viewOf(a.engine.Evaluate(cmd.Context()))
			return a.render(view, func(w io.Writer) { printSession(w, view) })
		},
	}
	f := cmd.Flags()
	f.StringVarP(&username, "username", "u", "", "username")
	f.StringVar(&subject, "subject", "", "sub claim (default: username)")
	f.StringSliceVar(&roles, "role", nil, "role name (repeatable)")
	f.StringSliceVar(&permissions, "perm", nil, "permission code (repeatable)")
	f.BoolVar(&all, "all", false, "grant every known permission")
	f.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	f.StringVar(&secret, "secret", "", "HS256 signing secret")
	f.StringVar(&issuer, "issuer", "farm2go-dev", "iss claim")
	return cmd
}

// tokenView is the printable form of a decoded token.
type tokenView struct {
	Subject   string         `json:"subject,omitempty" yaml:"subject,omitempty"`
	ExpiresAt time.Time      `json:"expires_at" yaml:"expires_at"`
	Expired   bool           `json:"expired" yaml:"expired"`
	Verified  *bool          `json:"verified,omitempty" yaml:"verified,omitempty"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
	Claims    map[string]any `json:"claims" yaml:"claims"`
}

func newInspectCmd(a *app) *cobra.Command {
	var secret, issuer string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Decode the stored session token",
		Long: `Decode the stored token's payload. The console never needs the signature
to guard views; pass --secret to check an HS256 signature as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, ok, err := a.st.Get(cmd.Context(), store.KeyToken)
			if err != nil {
				return err
			}
			if !ok || raw == "" {
				return errors.New("no token stored")
			}
			p, err := token.DecodePayload(raw)
			if err != nil {
				return err
			}

			exp := time.UnixMilli(int64(p.ExpiresAtMillis())).UTC()
			view := tokenView{
				Subject:   p.Subject(),
				ExpiresAt: exp,
				Expired:   !time.Now().Before(exp),
				Claims:    map[string]any(p.Claims),
			}
			if secret != "" {
				ver, err := token.NewVerifier(token.Config{
					SigningMethod: token.MethodHS256,
					PrivateKey:    []byte(secret),
					Issuer:        issuer,
				})
				if err != nil {
					return err
				}
				_, verr := ver.Verify(raw)
				valid := verr == nil
				view.Verified = &valid
				if verr != nil {
					view.Error = verr.Error()
				}
			}

			return a.render(view, func(w io.Writer) {
				fmt.Fprintf(w, "Subject:  %s\n", view.Subject)
				fmt.Fprintf(w, "Expires:  %s", view.ExpiresAt.Format(time.RFC3339))
				if view.Expired {
					fmt.Fprint(w, " (expired)")
				}
				fmt.Fprintln(w)
				if view.Verified != nil {
					if *view.Verified {
						fmt.Fprintln(w, "Signature: valid")
					} else {
						fmt.Fprintf(w, "Signature: invalid (%s)\n", view.Error)
					}
				}
				names := make([]string, 0, len(view.Claims))
				for k := range view.Claims {
					names = append(names, k)
				}
				sort.Strings(names)
				for _, k := range names {
					fmt.Fprintf(w, "  %s: %v\n", k, view.Claims[k])
				}
			})
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 secret to verify the signature")
	cmd.Flags().StringVar(&issuer, "issuer", "", "required iss claim when verifying")
	return cmd
}
