package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/vkbot/bot"
	"github.com/s0up4200/vkbot/config"
	"github.com/s0up4200/vkbot/filter"
)

var (
	filterExpr  string
	preset      string
	replyText   string
	pollWorkers int
)

// pollCmd represents the poll command
var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Follow incoming messages",
	Long: `Follow incoming messages through long-poll history and log them.
Messages can be narrowed with a filter expression, for example:

  vkbot poll --filter 'hasPrefix(text, "/") and not out'

and answered automatically with --reply.`,
	Args: cobra.NoArgs,
	RunE: runPoll,
}

func init() {
	pollCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	pollCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	pollCmd.Flags().StringVar(&replyText, "reply", "", "answer every matching message with this text")
	pollCmd.Flags().IntVar(&pollWorkers, "workers", 0, "number of messages handled at once (default from config)")
}

func runPoll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	msgFilter, err := selectFilter(cfg, filterExpr, preset)
	if err != nil {
		return err
	}

	client, err := logIn(ctx)
	if err != nil {
		return err
	}

	handler := bot.LogHandler(logger)
	if replyText != "" {
		handler = bot.Chain(handler, bot.ReplyHandler(client, replyText))
	}

	workers := cfg.Poll.Workers
	if pollWorkers > 0 {
		workers = pollWorkers
	}

	opts := []bot.PollerOption{
		bot.WithInterval(cfg.Poll.Interval),
		bot.WithWorkers(workers),
		bot.WithPollerLogger(logger),
	}
	if msgFilter != nil {
		opts = append(opts, bot.WithFilter(msgFilter))
	}

	logger.Info().Int("workers", workers).Msg("Polling for new messages")
	err = bot.NewPoller(client, handler, opts...).Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info().Msg("Polling stopped")
		return nil
	}
	return err
}

// selectFilter picks the message filter. Priority: command line expression,
// then preset, then poll.filter from config. No filter at all is valid.
func selectFilter(cfg *config.Config, expression, presetName string) (filter.Filter, error) {
	if expression != "" {
		f, err := filter.Compile(expression)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
		return f, nil
	}

	if presetName != "" {
		manager := filter.NewManager()
		if err := manager.RegisterFilters(cfg.Filter.Presets); err != nil {
			return nil, err
		}
		return manager.GetFilter(strings.ToLower(presetName))
	}

	if cfg.Poll.Filter != "" {
		f, err := filter.Compile(cfg.Poll.Filter)
		if err != nil {
			return nil, fmt.Errorf("invalid poll.filter: %w", err)
		}
		return f, nil
	}

	return nil, nil
}
