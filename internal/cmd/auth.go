package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/roster/internal/api"
	rerrors "github.com/felixgeelhaar/roster/internal/errors"
	"github.com/felixgeelhaar/roster/internal/session"
	"github.com/felixgeelhaar/roster/internal/tui"
	"github.com/felixgeelhaar/roster/internal/validate"
)

func newLoginCmd() *cobra.Command {
	var (
		email         string
		password      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Long: `Exchange an email and password for a session token. The token is stored
under --home (encrypted when ROSTER_SESSION_PASSPHRASE is set) and sent with
every later request.

Examples:
  roster login --email ana@example.com
  echo "$PASSWORD" | roster login --email ana@example.com --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			if passwordStdin {
				data, err := io.ReadAll(rt.in)
				if err != nil {
					return fmt.Errorf("read password from stdin: %w", err)
				}
				password = strings.TrimRight(string(data), "\r\n")
			}
			if (email == "" || password == "") && rt.canPrompt() {
				if email, password, err = tui.PromptCredentials(email, password); err != nil {
					return err
				}
			}

			if err := validate.Login(email, password); err != nil {
				return rt.fail(err, "login")
			}

			resp, err := rt.client.Login(cmd.Context(), api.Credentials{Email: email, Password: password})
			if err != nil {
				return rt.fail(loginError(err), "login")
			}
			if err := rt.session.SetToken(resp.Token); err != nil {
				return rerrors.Wrap(rerrors.ErrCodeSessionStoreFailed, "cannot store session", err)
			}

			return rt.print("Logged in as " + email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

// loginError collapses every server refusal into invalid credentials.
// Transport and server failures keep their own codes.
func loginError(err error) error {
	if kind, ok := api.KindOf(err); ok && kind != api.KindFailed {
		return rerrors.NewInvalidCredentialsError(err)
	}
	return err
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			if !rt.session.Authenticated() {
				return rt.print("Not logged in")
			}
			if err := rt.session.ClearToken(); err != nil {
				return rerrors.Wrap(rerrors.ErrCodeSessionStoreFailed, "cannot clear session", err)
			}
			return rt.print("Logged out")
		},
	}
}

// sessionStatus is what the status command reports.
type sessionStatus struct {
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	APIURL        string `json:"api_url" yaml:"api_url"`
	Subject       string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Email         string `json:"email,omitempty" yaml:"email,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

func (s sessionStatus) String() string {
	if !s.Authenticated {
		return "Not logged in (" + s.APIURL + ")"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Logged in to %s", s.APIURL)
	if s.Email != "" {
		fmt.Fprintf(&b, "\n  email:   %s", s.Email)
	}
	if s.Subject != "" {
		fmt.Fprintf(&b, "\n  subject: %s", s.Subject)
	}
	if s.ExpiresAt != "" {
		fmt.Fprintf(&b, "\n  expires: %s", s.ExpiresAt)
	}
	return b.String()
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session token is stored",
		Long: `Show whether a session token is stored. When the token is a JWT its
subject, email and expiry are shown; they are informational only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			st := sessionStatus{APIURL: rt.cfg.API.BaseURL}
			if token, ok := rt.session.Token(); ok {
				st.Authenticated = true
				if claims, ok := session.Inspect(token); ok {
					st.Subject = claims.Subject
					st.Email = claims.Email
					if claims.ExpiresAt != nil {
						st.ExpiresAt = claims.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z")
					}
				}
			}
			return rt.print(st)
		},
	}
}
