package cmd

import (
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Request tokens from a running Keygate server",
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
