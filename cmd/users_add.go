package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var usersAddPassword string

// usersAddCmd represents the users add command
var usersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a user to the credential store (or reset their password)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]
		if username == "" {
			return fmt.Errorf("username cannot be empty")
		}

		password := usersAddPassword
		if password == "" {
			// also accept the password on stdin so it stays out of the
			// shell history
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading password from stdin: %w", err)
			}
			password = strings.TrimRight(string(data), "\r\n")
		}
		if password == "" {
			return fmt.Errorf("password cannot be empty (use --password or pipe it via stdin)")
		}

		store, err := openUserStore()
		if err != nil {
			return err
		}
		defer func() {
			_ = store.Close()
		}()

		if err := store.AddUser(cmd.Context(), username, password); err != nil {
			return logError(err, "", "failed to store user")
		}

		logSuccess("stored user %s", bold(username))
		return nil
	},
}

func init() {
	usersCmd.AddCommand(usersAddCmd)

	usersAddCmd.Flags().StringVar(&usersAddPassword, "password", "", "Password for the user (read from stdin when omitted)")
}
