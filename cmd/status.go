package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// statusCmd groups the status subcommands
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Read or change the status line",
}

var statusGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := logIn(cmd.Context())
		if err != nil {
			return err
		}

		status, err := client.GetStatus(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), status.Text)
		return nil
	},
}

var statusSetCmd = &cobra.Command{
	Use:   "set <text>",
	Short: "Replace the status",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := logIn(cmd.Context())
		if err != nil {
			return err
		}

		text := strings.Join(args, " ")
		if err := client.SetStatus(cmd.Context(), text); err != nil {
			return fmt.Errorf("failed to set status: %w", err)
		}
		logger.Info().Str("status", text).Msg("Status updated")
		return nil
	},
}

func init() {
	statusCmd.AddCommand(statusGetCmd)
	statusCmd.AddCommand(statusSetCmd)
}
