package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jrsteele09/go-hms-client/authmodel"
	"github.com/jrsteele09/go-hms-client/guards"
	"github.com/jrsteele09/go-hms-client/internal/utils"
	"github.com/spf13/cobra"
)

const (
	profileRoute = "/profile"
	passwordEnv  = "HMS_PASSWORD"
)

var (
	loginPassword    string
	registerRequest  authmodel.RegisterRequest
	registerPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login <username-or-email>",
	Short: "Log in and keep the session for later commands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFrom(cmd, loginPassword)
		if err != nil {
			return err
		}
		user, err := hms.Sessions.Login(cmd.Context(), authmodel.LoginRequest{
			UsernameOrEmail: args[0],
			Password:        password,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", user.FullName(), user.Email)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFrom(cmd, registerPassword)
		if err != nil {
			return err
		}
		req := registerRequest
		req.Email = args[0]
		req.Password = password
		resp, err := hms.Sessions.Register(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		route := hms.Router.Navigate(cmd.Context(), profileRoute)
		if route != profileRoute {
			fmt.Fprintf(cmd.OutOrStdout(), "Not logged in (redirected to %s)\n", route)
			return nil
		}
		user := hms.Sessions.CurrentUser()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s <%s>\n", user.FullName(), user.Email)
		for _, role := range user.Roles {
			fmt.Fprintf(out, "  role: %s\n", role.Name)
		}
		if hms.Sessions.IsTokenExpired() {
			fmt.Fprintln(out, "  access token expired, it will be renewed on the next request")
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hms.Sessions.Logout(cmd.Context())
		if returnURL := guards.ReturnURL(hms.Router.Current()); returnURL != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Log in again to return to %s\n", returnURL)
		}
		return nil
	},
}

// passwordFrom returns the flag value or $HMS_PASSWORD, and otherwise reads one line from stdin.
func passwordFrom(cmd *cobra.Command, flagValue string) (string, error) {
	if password := utils.FirstNonEmpty(flagValue, os.Getenv(passwordEnv)); password != "" {
		return password, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password, read from stdin when omitted")

	flags := registerCmd.Flags()
	flags.StringVarP(&registerPassword, "password", "p", "", "password, read from stdin when omitted")
	flags.StringVar(&registerRequest.FirstName, "first-name", "", "first name")
	flags.StringVar(&registerRequest.LastName, "last-name", "", "last name")
	flags.StringVar(&registerRequest.PhoneNumber, "phone", "", "phone number in E.164 format")
	_ = registerCmd.MarkFlagRequired("first-name")
	_ = registerCmd.MarkFlagRequired("last-name")
}
