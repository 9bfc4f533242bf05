package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/vkbot/api"
	"github.com/s0up4200/vkbot/auth"
	"github.com/s0up4200/vkbot/bot"
	"github.com/s0up4200/vkbot/config"
)

var (
	cfgFile     string
	logLevel    string
	interactive bool
	cfg         *config.Config
	logger      zerolog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vkbot",
	Short: "A VK bot that logs in like a mobile browser and talks to the VK API",
	Long: `vkbot logs in to VK with a login and password (or a stored access token),
answers captcha and two-factor challenges, and then sends messages, manages the
status line or follows incoming messages through long-poll history.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion sets the version reported by --version
func SetVersion(version, buildTime string) {
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&interactive, "interactive", "i", false, "ask for captcha answers and auth check codes on the terminal")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pollCmd)
}

// initializeApp loads the configuration and sets up logging
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logger = setupLogger(cfg.Logging, os.Stderr)

	return nil
}

// setupLogger configures the zerolog logger. Colour is only used when out is
// a terminal.
func setupLogger(cfg config.LoggingConfig, out *os.File) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if cfg.Format == "json" {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(out.Fd()),
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// logIn authenticates with the configured credentials and returns a ready
// API client
func logIn(ctx context.Context) (*api.Client, error) {
	retrier := api.NewRetrier(
		api.WithMaxAttempts(cfg.Retry.MaxAttempts),
		api.WithRetryDelay(cfg.Retry.Delay),
		api.WithRetryLogger(logger),
	)

	authOpts := []auth.Option{
		auth.WithTimeout(cfg.VK.Timeout),
		auth.WithUserAgent(cfg.VK.UserAgent),
	}
	if interactive {
		authOpts = append(authOpts, auth.WithResolver(auth.NewPromptResolver(os.Stdin, os.Stderr, cfg.VK.TwoFactorKey)))
	}

	client, _, err := bot.LogIn(ctx, cfg.VK.Credentials(),
		bot.WithLogger(logger),
		bot.WithRetrier(retrier),
		bot.WithAuthOptions(authOpts...),
		bot.WithClientOptions(
			api.WithVersion(cfg.VK.APIVersion),
			api.WithTimeout(cfg.VK.Timeout),
			api.WithRateLimit(cfg.Retry.RateLimit),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return client, nil
}
