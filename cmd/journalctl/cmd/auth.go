package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
	loginSignUp   bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Long: `Sign in to the journal server. The password is read from --password,
then JOURNAL_PASSWORD, then standard input.

Example:
  journalctl login --email me@example.com
  journalctl login --email me@example.com --signup`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and forget the token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if api.Token() != "" {
			if err := api.Logout(ctx(cmd)); err != nil {
				return err
			}
		}
		return removeToken()
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email (required)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	loginCmd.Flags().BoolVar(&loginSignUp, "signup", false, "register the account first")
	loginCmd.MarkFlagRequired("email")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	password := loginPassword
	if password == "" {
		password = os.Getenv("JOURNAL_PASSWORD")
	}
	if password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if loginSignUp {
		if err := api.SignUp(ctx(cmd), loginEmail, password); err != nil {
			return err
		}
	}
	sess, err := api.Login(ctx(cmd), loginEmail, password)
	if err != nil {
		return err
	}
	if err := writeToken(api.Token()); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s until %s\n", sess.Email, sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}
