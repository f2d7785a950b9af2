package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/keygate/internal/cliconfig"
)

var (
	tokenGetUsername string
	tokenGetPassword string
	tokenGetOffline  bool
	tokenGetSave     bool
)

// tokenGetCmd represents the token get command
var tokenGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Authenticate with Basic credentials and print the issued token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := getClient()
		if err != nil {
			return err
		}

		tok, correlationID, err := cli.Token(cmd.Context(), tokenGetUsername, tokenGetPassword, tokenGetOffline)
		if err != nil {
			return logError(err, correlationID, "failed to get token")
		}

		expiresAt := time.Unix(tok.IssuedAt, 0).Add(time.Duration(tok.ExpiresIn) * time.Second)
		logSuccess("token issued, valid until %s", bold(expiresAt.Format(time.RFC3339)))

		fmt.Println(tok.Raw)
		if tok.RefreshToken != "" {
			fmt.Println(faint("refresh token:"))
			fmt.Println(tok.RefreshToken)

			if tokenGetSave {
				if err := saveRefreshToken(tok.RefreshToken); err != nil {
					return logError(err, "", "failed to save refresh token")
				}
				logSuccess("refresh token saved")
			}
		}
		return nil
	},
}

func saveRefreshToken(refreshToken string) error {
	cfg, err := cliconfig.Load()
	if err != nil {
		// a missing config file is fine, we create it on save
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		cfg = &cliconfig.CLIConfig{}
	}
	if err := cfg.SetCredential(viper.GetString(ServerAddrKey), &cliconfig.Credential{
		RefreshToken: refreshToken,
	}); err != nil {
		return err
	}
	return cliconfig.Save(cfg)
}

func init() {
	tokenCmd.AddCommand(tokenGetCmd)

	tokenGetCmd.Flags().StringVarP(&tokenGetUsername, "username", "u", "", "Username to authenticate as")
	tokenGetCmd.Flags().StringVarP(&tokenGetPassword, "password", "p", "", "Password to authenticate with")
	tokenGetCmd.Flags().BoolVar(&tokenGetOffline, "offline", false, "Request a refresh token alongside the access token")
	tokenGetCmd.Flags().BoolVar(&tokenGetSave, "save", false, "Persist the refresh token for later use with 'token refresh'")

	_ = tokenGetCmd.MarkFlagRequired("username")
	_ = tokenGetCmd.MarkFlagRequired("password")
}
