package auth

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Default VK endpoints of the mobile login flow.
const (
	DefaultLoginURL     = "https://m.vk.com"
	DefaultAuthorizeURL = "https://oauth.vk.com/authorize"
	DefaultCaptchaURL   = "https://m.vk.com/captcha.php"

	// DefaultUserAgent identifies a recent Chrome build on Android.
	DefaultUserAgent = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.846.0 Mobile Safari/537.36"

	defaultOAuthVersion = "5.28"
	defaultTimeout      = 30 * time.Second
)

// Endpoints are the URLs the login flow talks to.
type Endpoints struct {
	Login     string
	Authorize string
	Captcha   string
}

// DefaultEndpoints returns the production VK endpoints
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:     DefaultLoginURL,
		Authorize: DefaultAuthorizeURL,
		Captcha:   DefaultCaptchaURL,
	}
}

// Option configures a Session.
type Option func(*Session)

// WithResolver sets the challenge resolver. The default is a StaticResolver
// holding the credentials' two-factor key.
func WithResolver(resolver Resolver) Option {
	return func(s *Session) {
		if resolver != nil {
			s.resolver = resolver
		}
	}
}

// WithHTTPClient sets the client the flow copies its transport and timeout
// from. Each login attempt still gets its own cookie jar.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) {
		if client != nil {
			s.baseClient = client
		}
	}
}

// WithTimeout sets the timeout of each HTTP round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(s *Session) {
		if userAgent != "" {
			s.userAgent = userAgent
		}
	}
}

// WithEndpoints overrides the VK URLs, mostly for tests.
func WithEndpoints(endpoints Endpoints) Option {
	return func(s *Session) {
		s.endpoints = endpoints
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}
