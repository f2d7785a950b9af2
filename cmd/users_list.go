package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// usersListCmd represents the users list command
var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users in the credential store",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openUserStore()
		if err != nil {
			return err
		}
		defer func() {
			_ = store.Close()
		}()

		usernames, err := store.ListUsers(cmd.Context())
		if err != nil {
			return logError(err, "", "failed to list users")
		}

		log.Info().Msgf("Found %d users", len(usernames))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Username"})

		for _, username := range usernames {
			t.AppendRow(table.Row{truncate(username, 60)})
		}

		t.Render()
		return nil
	},
}

func init() {
	usersCmd.AddCommand(usersListCmd)
}
