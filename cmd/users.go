package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darmiel/keygate/internal/auth"
	"github.com/darmiel/keygate/internal/config"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users in the credential store",
	Long:  `Administrative commands for the sqlite credential backend configured in the server configuration.`,
}

func init() {
	rootCmd.AddCommand(usersCmd)
}

// openUserStore loads the server config and opens its sqlite backend.
// The users commands only make sense for a sqlite store; static users
// live directly in the config file.
func openUserStore() (*auth.SQLite, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Authenticator.Type != auth.TypeSQLite {
		return nil, fmt.Errorf("authenticator type is %q, user management requires %q", cfg.Authenticator.Type, auth.TypeSQLite)
	}
	return auth.NewSQLite(cfg.Authenticator)
}
