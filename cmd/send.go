package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/vkbot/api"
)

var (
	sendPeer     int64
	sendChat     int64
	sendForward  []int64
	sendAttach   []string
	sendRandomID int64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [flags] <text>",
	Short: "Send a message to a user or a chat",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().Int64Var(&sendPeer, "peer", 0, "peer id of the recipient")
	sendCmd.Flags().Int64Var(&sendChat, "chat", 0, "chat id of the recipient")
	sendCmd.Flags().Int64SliceVar(&sendForward, "forward", nil, "message ids to forward")
	sendCmd.Flags().StringSliceVar(&sendAttach, "attach", nil, "attachments such as photo1_2")
	sendCmd.Flags().Int64Var(&sendRandomID, "random-id", 0, "random id used by VK to drop duplicates")
	sendCmd.MarkFlagsOneRequired("peer", "chat")
	sendCmd.MarkFlagsMutuallyExclusive("peer", "chat")
}

func runSend(cmd *cobra.Command, args []string) error {
	client, err := logIn(cmd.Context())
	if err != nil {
		return err
	}

	id, err := client.SendMessage(cmd.Context(), api.OutgoingMessage{
		PeerID:      sendPeer,
		ChatID:      sendChat,
		Text:        strings.Join(args, " "),
		ForwardIDs:  sendForward,
		RandomID:    sendRandomID,
		Attachments: sendAttach,
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	logger.Info().Int64("message_id", id).Msg("Message sent")
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Message sent (id %d)\n", id)
	return nil
}
