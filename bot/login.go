package bot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/s0up4200/vkbot/api"
	"github.com/s0up4200/vkbot/auth"
)

// LoginOption configures LogIn.
type LoginOption func(*loginConfig)

type loginConfig struct {
	authOpts   []auth.Option
	clientOpts []api.Option
	retrier    *api.Retrier
	logger     zerolog.Logger
}

// WithAuthOptions passes options through to the auth session.
func WithAuthOptions(opts ...auth.Option) LoginOption {
	return func(c *loginConfig) {
		c.authOpts = append(c.authOpts, opts...)
	}
}

// WithClientOptions passes options through to the API client.
func WithClientOptions(opts ...api.Option) LoginOption {
	return func(c *loginConfig) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// WithRetrier sets the retry policy shared by the login and the client.
func WithRetrier(retrier *api.Retrier) LoginOption {
	return func(c *loginConfig) {
		if retrier != nil {
			c.retrier = retrier
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) LoginOption {
	return func(c *loginConfig) {
		c.logger = logger
	}
}

// LogIn authenticates, builds an API client for the resulting token and
// records the visit. Timeouts during the login flow are retried like any
// other call; every other login failure is returned as a classified
// *api.Error.
func LogIn(ctx context.Context, creds auth.Credentials, opts ...LoginOption) (*api.Client, string, error) {
	cfg := loginConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.retrier == nil {
		cfg.retrier = api.NewRetrier(api.WithRetryLogger(cfg.logger))
	}

	authOpts := append([]auth.Option{auth.WithLogger(cfg.logger)}, cfg.authOpts...)
	session, err := auth.NewSession(creds, authOpts...)
	if err != nil {
		return nil, "", err
	}

	token, err := api.Do(ctx, cfg.retrier, session.Authenticate)
	if err != nil {
		return nil, "", err
	}

	clientOpts := append([]api.Option{api.WithLogger(cfg.logger), api.WithRetrier(cfg.retrier)}, cfg.clientOpts...)
	client, err := api.NewClient(token, clientOpts...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create API client: %w", err)
	}

	if err := client.TrackVisitor(ctx); err != nil {
		return nil, "", err
	}

	cfg.logger.Info().Str("token", auth.MaskToken(token)).Msg("Logged in to VK")

	return client, token, nil
}
