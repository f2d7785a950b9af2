package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/keygate/internal/cliconfig"
)

var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh [refresh-token]",
	Short: "Exchange a refresh token for a fresh access token",
	Long: "Exchange a refresh token for a fresh access token. " +
		"If no token is given on the command line, the refresh token previously saved " +
		"with 'token get --offline --save' is used.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := getClient()
		if err != nil {
			return err
		}

		var refreshToken string
		if len(args) > 0 {
			refreshToken = args[0]
		} else {
			refreshToken, err = savedRefreshToken()
			if err != nil {
				return err
			}
		}

		tok, correlationID, err := cli.Refresh(cmd.Context(), refreshToken)
		if err != nil {
			return logError(err, correlationID, "failed to refresh token")
		}

		expiresAt := time.Unix(tok.IssuedAt, 0).Add(time.Duration(tok.ExpiresIn) * time.Second)
		logSuccess("token refreshed, valid until %s", bold(expiresAt.Format(time.RFC3339)))

		fmt.Println(tok.Raw)
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenRefreshCmd)
}

func savedRefreshToken() (string, error) {
	cfg, err := cliconfig.Load()
	if err != nil {
		return "", fmt.Errorf("no refresh token given and none saved: %w", err)
	}
	cred, err := cfg.GetCredential(viper.GetString(ServerAddrKey))
	if err != nil {
		return "", fmt.Errorf("no saved refresh token for this server: %w", err)
	}
	return cred.RefreshToken, nil
}
