package bot

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/s0up4200/vkbot/api"
)

// Sender is the part of the API reply handlers need.
type Sender interface {
	SendMessage(ctx context.Context, msg api.OutgoingMessage) (int64, error)
}

// LogHandler logs every message it receives.
func LogHandler(logger zerolog.Logger) Handler {
	return func(_ context.Context, msg api.Message) error {
		logger.Info().
			Int64("message_id", msg.ID).
			Int64("from_id", msg.Sender()).
			Int64("peer_id", msg.ReplyPeer()).
			Str("text", msg.Content()).
			Msg("Message received")
		return nil
	}
}

// ReplyHandler answers every message with text in the same conversation.
// The message id doubles as random_id so VK drops duplicate replies.
func ReplyHandler(sender Sender, text string) Handler {
	return func(ctx context.Context, msg api.Message) error {
		_, err := sender.SendMessage(ctx, api.OutgoingMessage{
			PeerID:   msg.ReplyPeer(),
			Text:     text,
			RandomID: msg.ID,
		})
		return err
	}
}

// Chain runs handlers in order and stops at the first error.
func Chain(handlers ...Handler) Handler {
	return func(ctx context.Context, msg api.Message) error {
		for _, h := range handlers {
			if err := h(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	}
}
