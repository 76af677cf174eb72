package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bandchat/config"
)

func init() {
	loginCmd.Flags().StringP("user", "u", "", "username")
	loginCmd.Flags().Bool("register", false, "create the account first")
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print the settings to export",
	Long: `Log in and print environment settings for the token and viewer id.
The password is read from BANDCHAT_PASSWORD or the first line of stdin.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, stderrWriter())
		if err != nil {
			return err
		}
		defer e.Close()

		user, _ := cmd.Flags().GetString("user")
		if user == "" {
			return errors.New("--user is required")
		}
		password := os.Getenv("BANDCHAT_PASSWORD")
		if password == "" {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		register, _ := cmd.Flags().GetBool("register")
		auth := e.api.Login
		if register {
			auth = e.api.Register
		}
		s, err := auth(cmd.Context(), user, password)
		if err != nil {
			return err
		}
		e.log.Debug().Int64("user", s.User.ID).Msg("logged in")

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%sCLIENT__TOKEN=%s\n", config.EnvPrefix, s.Token)
		fmt.Fprintf(out, "%sCLIENT__VIEWER_ID=%s\n", config.EnvPrefix, s.User.SenderID())
		return nil
	},
}
