package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lostfilm/internal/config"
	"lostfilm/internal/ui"
)

var flagSaveCredentials bool

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in and store the session cookie",
	Args:  cobra.MaximumNArgs(1),
	RunE:  loginRun,
}

func init() {
	loginCmd.Flags().BoolVar(&flagSaveCredentials, "save", false, "Store the credentials in the config file")
}

func loginRun(cmd *cobra.Command, args []string) error {
	login := cfg.Login
	if len(args) > 0 {
		login = args[0]
	}
	if login == "" {
		var err error
		if login, err = ui.Input("Email"); err != nil {
			return err
		}
	}

	password := cfg.Password
	if password == "" || len(args) > 0 {
		var err error
		if password, err = readPassword(); err != nil {
			return err
		}
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.site.Login(ctx, login, password); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Logged in as %s\n", login)

		if !flagSaveCredentials {
			return nil
		}
		stored, err := config.Load()
		if err != nil {
			return err
		}
		stored.Login, stored.Password = login, password
		return config.Save(stored)
	})
}

// readPassword reads a password without echo from the terminal.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password not configured and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimSpace(string(b))
	if password == "" {
		return "", fmt.Errorf("no password provided")
	}
	return password, nil
}
