package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/vkbot/api"
	"github.com/s0up4200/vkbot/filter"
)

// Poller defaults.
const (
	DefaultPollInterval = time.Second
	DefaultWorkers      = 4
)

// Source is the part of the API the poller reads from. *api.Client
// satisfies it.
type Source interface {
	GetLongPollServer(ctx context.Context) (api.LongPollServer, error)
	GetLongPollHistory(ctx context.Context, ts, pts int64) (api.LongPollHistory, error)
}

// Handler processes one incoming message.
type Handler func(ctx context.Context, msg api.Message) error

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the pause between history requests.
func WithInterval(interval time.Duration) PollerOption {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithWorkers caps the number of handlers running at once.
func WithWorkers(workers int) PollerOption {
	return func(p *Poller) {
		if workers > 0 {
			p.workers = workers
		}
	}
}

// WithFilter only dispatches messages the filter matches.
func WithFilter(f filter.Filter) PollerOption {
	return func(p *Poller) {
		p.filter = f
	}
}

// WithPollerLogger sets the logger.
func WithPollerLogger(logger zerolog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// Poller follows new messages through long-poll history and hands the
// incoming ones to a Handler.
type Poller struct {
	source   Source
	handler  Handler
	filter   filter.Filter
	interval time.Duration
	workers  int
	logger   zerolog.Logger

	ready bool
	ts    int64
	pts   int64
}

// NewPoller creates a poller reading from source
func NewPoller(source Source, handler Handler, opts ...PollerOption) *Poller {
	p := &Poller{
		source:   source,
		handler:  handler,
		interval: DefaultPollInterval,
		workers:  DefaultWorkers,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PTS returns the last history position the poller has seen
func (p *Poller) PTS() int64 {
	return p.pts
}

// Run polls until ctx is done or a terminal error occurs. Invalid tokens and
// bad credentials are terminal; every other failure is logged and polling
// resumes after the interval.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if _, err := p.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isTerminal(err) {
				return err
			}
			p.logger.Warn().Err(err).Msg("Polling failed, will retry")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}
}

// PollOnce fetches one batch of history and waits for its handlers. It
// returns the number of messages dispatched.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	if !p.ready {
		server, err := p.source.GetLongPollServer(ctx)
		if err != nil {
			return 0, err
		}
		p.ts, p.pts, p.ready = server.TS, server.PTS, true
		p.logger.Debug().Int64("ts", p.ts).Int64("pts", p.pts).Msg("Long-poll server acquired")
	}

	history, err := p.source.GetLongPollHistory(ctx, p.ts, p.pts)
	if err != nil {
		return 0, err
	}
	if history.NewPTS != 0 {
		p.pts = history.NewPTS
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	dispatched := 0
	for _, msg := range history.Messages.Items {
		if msg.IsOutgoing() {
			continue
		}
		if p.filter != nil && !p.filter.Match(msg) {
			p.logger.Trace().Int64("message_id", msg.ID).Msg("Message filtered out")
			continue
		}

		dispatched++
		g.Go(func() error {
			if err := p.handler(gctx, msg); err != nil {
				p.logger.Error().
					Err(err).
					Int64("message_id", msg.ID).
					Int64("peer_id", msg.ReplyPeer()).
					Msg("Failed to handle message")
				if isTerminal(err) {
					return err
				}
			}
			return nil
		})
	}

	return dispatched, g.Wait()
}

func isTerminal(err error) bool {
	switch api.KindOf(err) {
	case api.KindInvalidToken, api.KindBadCredentials:
		return true
	}
	return false
}
