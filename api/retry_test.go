package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(attempts int) *Retrier {
	return NewRetrier(WithMaxAttempts(attempts), WithRetryDelay(time.Millisecond))
}

func TestDoSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastRetrier(5), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesRateLimitAndTimeout(t *testing.T) {
	for _, message := range []string{"Too many requests per second", "too MANY requests", "request timed out"} {
		t.Run(message, func(t *testing.T) {
			var seen []int
			calls := 0
			got, err := Do(context.Background(), fastRetrier(5), func(ctx context.Context) (int, error) {
				calls++
				seen = append(seen, 42)
				if calls < 3 {
					return 0, errors.New(message)
				}
				return 7, nil
			})
			require.NoError(t, err)
			assert.Equal(t, 7, got)
			assert.Equal(t, 3, calls)
			assert.Equal(t, []int{42, 42, 42}, seen)
		})
	}
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastRetrier(4), func(ctx context.Context) (bool, error) {
		calls++
		return true, &VKError{Code: 6, Message: "Too many requests per second"}
	})
	require.Error(t, err)
	assert.False(t, got)
	assert.Equal(t, 4, calls)
	assert.Equal(t, KindRateLimited, KindOf(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 6, apiErr.Code)
}

func TestDoDoesNotRetryTerminalKinds(t *testing.T) {
	tests := []struct {
		message string
		want    ErrorKind
	}{
		{"Check your connection", KindConnectionFailed},
		{"Authorization error (incorrect password)", KindBadCredentials},
		{"invalid access_token", KindInvalidToken},
		{"Captcha needed", KindCaptchaRequired},
		{"auth check code is needed", KindTwoFactorRequired},
		{"something unexpected", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			calls := 0
			got, err := Do(context.Background(), fastRetrier(5), func(ctx context.Context) (string, error) {
				calls++
				return "ignored", errors.New(tt.message)
			})
			require.Error(t, err)
			assert.Empty(t, got)
			assert.Equal(t, 1, calls)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRetrier(WithMaxAttempts(5), WithRetryDelay(time.Hour))

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, r, func(ctx context.Context) (int, error) {
			calls++
			cancel()
			return 0, errors.New("too many requests")
		})
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not stop after context cancellation")
	}
}

func TestNewRetrierDefaults(t *testing.T) {
	r := NewRetrier(WithMaxAttempts(0), WithRetryDelay(-time.Second))
	assert.Equal(t, DefaultMaxAttempts, r.MaxAttempts())
	assert.Equal(t, DefaultRetryDelay, r.delay)

	calls := 0
	_, err := Do(context.Background(), nil, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
