package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vedsharma/adminkit/internal/auth"
	"github.com/vedsharma/adminkit/internal/format"
	"github.com/vedsharma/adminkit/internal/notification"
)

var (
	loginUser     string
	loginPassword string
)

func init() {
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the tokens",
		Long: `Sign in with the configured auth provider.

Missing credentials are read from stdin, one per line.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}
	loginCmd.Flags().StringVarP(&loginUser, "user", "u", "", "Login name")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password")
	rootCmd.AddCommand(loginCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current.session.Logout(cmd.Context()); err != nil {
				return err
			}
			format.PrintSuccess("Signed out")
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether a session is stored",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if !current.session.IsAuthorized() {
				format.PrintInfo("Not signed in")
			} else {
				format.PrintSuccess("Signed in")
				printTokenClaims(current.session.State().Tokens.AccessToken)
			}
			format.PrintInfo(fmt.Sprintf("Provider: %s", current.cfg.Auth.Provider))
			if current.cfg.API.BaseURL != "" {
				format.PrintInfo(fmt.Sprintf("API: %s", current.cfg.API.BaseURL))
			}
		},
	})
}

func printTokenClaims(token string) {
	claims, err := auth.ParseTokenClaims(token)
	if err != nil {
		return
	}
	if claims.Subject != "" {
		format.PrintInfo(fmt.Sprintf("Subject: %s", claims.Subject))
	}
	if claims.ExpiresAt.IsZero() {
		return
	}
	state := "expires"
	if claims.Expired(time.Now()) {
		state = "expired"
	}
	format.PrintInfo(fmt.Sprintf("Access token %s at %s", state, claims.ExpiresAt.Local().Format(time.RFC3339)))
}

func runLogin(cmd *cobra.Command, args []string) error {
	in := bufio.NewReader(cmd.InOrStdin())
	creds := auth.Credentials{Login: loginUser, Password: loginPassword}

	var err error
	if creds.Login == "" {
		if creds.Login, err = prompt(cmd.ErrOrStderr(), in, current.trans.Get("login")+": "); err != nil {
			return err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = prompt(cmd.ErrOrStderr(), in, current.trans.Get("password")+": "); err != nil {
			return err
		}
	}

	if err := current.session.Authenticate(cmd.Context(), creds); err != nil {
		return err
	}
	if msg := current.session.Error(); msg != "" {
		current.notify(notification.TypeError, "", msg)
		return fmt.Errorf("login failed")
	}
	format.PrintSuccess(fmt.Sprintf("Signed in as %s", creds.Login))
	return nil
}

func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
