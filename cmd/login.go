package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/vkbot/auth"
)

var showToken bool

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to VK and print the access token",
	Long: `Run the full login flow with the configured credentials and print the
resulting access token. Store it as vk.token to skip the login next time.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().BoolVar(&showToken, "show-token", false, "print the full token instead of a masked one")
}

func runLogin(cmd *cobra.Command, args []string) error {
	client, err := logIn(cmd.Context())
	if err != nil {
		return err
	}

	selfID, err := client.GetSelfID(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}

	token := auth.MaskToken(client.Token())
	if showToken {
		token = client.Token()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged in as id%d\n", selfID)
	fmt.Fprintf(cmd.OutOrStdout(), "Access token: %s\n", token)
	return nil
}
