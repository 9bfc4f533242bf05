package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client defaults.
const (
	DefaultBaseURL           = "https://api.vk.com/method/"
	DefaultVersion           = "5.60"
	DefaultRequestsPerSecond = 3
)

// Client calls VK API methods on behalf of one access token. It holds no
// mutable state besides its rate limiter, so one Client may be shared.
type Client struct {
	token      string
	baseURL    string
	version    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retrier    *Retrier
	logger     zerolog.Logger
}

// NewClient creates a new VK API client
func NewClient(token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	c := &Client{
		token:      token,
		baseURL:    DefaultBaseURL,
		version:    DefaultVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retrier == nil {
		c.retrier = NewRetrier(WithRetryLogger(c.logger))
	}
	if !strings.HasSuffix(c.baseURL, "/") {
		c.baseURL += "/"
	}

	return c, nil
}

// Token returns the access token the client signs calls with
func (c *Client) Token() string {
	return c.token
}

// Retrier returns the retry policy of the client
func (c *Client) Retrier() *Retrier {
	return c.retrier
}

type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *VKError        `json:"error"`
}

// Call performs a single API method call without retrying or classifying.
// VK error payloads come back as *VKError, non-200 statuses as *HTTPStatusError.
func (c *Client) Call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	for key, values := range params {
		form[key] = append([]string(nil), values...)
	}
	form.Set("access_token", c.token)
	form.Set("v", c.version)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("method", method).Msg("Making VK API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if env.Error != nil {
		return nil, env.Error
	}
	if len(env.Response) == 0 {
		return nil, ErrEmptyResponse
	}

	return env.Response, nil
}

// invoke runs one method call under the client's retry policy and decodes
// the response into T.
func invoke[T any](ctx context.Context, c *Client, method string, params url.Values) (T, error) {
	return Do(ctx, c.retrier, func(ctx context.Context) (T, error) {
		var out T
		raw, err := c.Call(ctx, method, params)
		if err != nil {
			return out, err
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return out, fmt.Errorf("failed to decode %s response: %w", method, err)
		}
		return out, nil
	})
}
