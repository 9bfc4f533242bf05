package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/s0up4200/vkbot/htmlform"
)

const maxPageSize = 4 << 20

var sessionCookieNames = []string{"remixsid", "remixsid6"}

// Session obtains an access token by driving the VK mobile login form and the
// OAuth2 implicit grant. It is not safe for concurrent use.
type Session struct {
	creds      Credentials
	resolver   Resolver
	endpoints  Endpoints
	baseClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     zerolog.Logger
}

// NewSession validates the credentials and creates a Session
func NewSession(creds Credentials, opts ...Option) (*Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if creds.Scope == "" {
		creds.Scope = DefaultScope
	}

	s := &Session{
		creds:     creds,
		resolver:  StaticResolver{TwoFactorKey: creds.TwoFactorKey},
		endpoints: DefaultEndpoints(),
		timeout:   defaultTimeout,
		userAgent: DefaultUserAgent,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Authenticate returns an access token. A configured token is returned as is.
// Otherwise a full login runs on a fresh cookie jar; any failure is an
// *AuthError and no partial state is kept.
func (s *Session) Authenticate(ctx context.Context) (string, error) {
	if s.creds.HasToken() {
		s.logger.Debug().Str("token", MaskToken(s.creds.Token)).Msg("Using configured access token")
		return s.creds.Token, nil
	}

	f, err := s.newFlow()
	if err != nil {
		return "", err
	}

	if err := f.login(ctx); err != nil {
		return "", err
	}

	token, err := f.authorize(ctx)
	if err != nil {
		return "", err
	}

	s.logger.Info().Str("token", MaskToken(token)).Msg("Obtained VK access token")
	return token, nil
}

// page is a fetched response after redirects.
type page struct {
	URL  string
	Body string
}

// flow is the state of one login attempt.
type flow struct {
	s      *Session
	client *http.Client
	jar    http.CookieJar
}

func (s *Session) newFlow() (*flow, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, transportError("create cookie jar", err)
	}

	client := &http.Client{Timeout: s.timeout}
	if s.baseClient != nil {
		copied := *s.baseClient
		client = &copied
		if client.Timeout == 0 {
			client.Timeout = s.timeout
		}
	}
	client.Jar = jar

	return &flow{s: s, client: client, jar: jar}, nil
}

func (f *flow) login(ctx context.Context) error {
	logger := f.s.logger

	landing, err := f.get(ctx, f.s.endpoints.Login)
	if err != nil {
		return err
	}

	action, ok := htmlform.ExtractFormAction(landing.Body)
	if !ok {
		return newAuthError(KindFlowChanged, "VK changed login flow")
	}
	target, err := resolveAction(landing.URL, action)
	if err != nil {
		return err
	}

	form := url.Values{
		"email": {f.s.creds.Login},
		"pass":  {f.s.creds.Password},
	}
	resp, err := f.post(ctx, target, form)
	if err != nil {
		return err
	}

	if f.loggedIn(resp.URL) {
		logger.Debug().Msg("Logged in without challenge")
		return nil
	}

	query := htmlform.DecodeURLQuery(resp.URL)
	challenge, ok := classifyChallenge(query, resp.Body, f.s.endpoints.Captcha)
	if !ok {
		logger.Error().Msg("Authorization error (incorrect password)")
		return newAuthError(KindBadCredentials, "authorization error (incorrect password)")
	}

	if err := f.resolve(ctx, challenge, resp, form); err != nil {
		return err
	}

	if !f.loggedIn(resp.URL) {
		return newAuthError(KindBadCredentials, "authorization error (incorrect password, captcha key or auth check code)")
	}
	return nil
}

func (f *flow) resolve(ctx context.Context, challenge Challenge, resp *page, form url.Values) error {
	logger := f.s.logger
	resolver := f.s.resolver

	switch c := challenge.(type) {
	case CaptchaChallenge:
		logger.Info().Str("captcha_sid", c.SID).Msg("Captcha is needed")
		if c.FormAction == "" {
			return newAuthError(KindFlowChanged, "cannot find captcha form url")
		}
		answer, err := resolver.ResolveCaptcha(ctx, c.ImageURL)
		if err != nil {
			return asAuthError(err, KindCaptchaRequired, "captcha is needed")
		}
		target, err := resolveAction(resp.URL, c.FormAction)
		if err != nil {
			return err
		}
		form.Set("captcha_sid", c.SID)
		form.Set("captcha_key", answer)
		_, err = f.post(ctx, target, form)
		return err

	case TwoFactorChallenge:
		logger.Debug().Msg("Two factor authorization enabled, auth check code is needed")
		code, err := resolver.ResolveTwoFactor(ctx)
		if err != nil {
			return asAuthError(err, KindTwoFactorRequired, "auth check code is needed")
		}
		if c.FormAction == "" {
			return newAuthError(KindFlowChanged, "cannot find auth check form url")
		}
		target, err := resolveAction(resp.URL, c.FormAction)
		if err != nil {
			return err
		}
		_, err = f.post(ctx, target, url.Values{
			"code":     {code},
			"_ajax":    {"1"},
			"remember": {"1"},
		})
		return err

	case PhoneChallenge:
		if err := resolver.ResolvePhone(ctx); err != nil {
			return asAuthError(err, KindPhoneNumberNeeded, "phone number is needed")
		}
		return newAuthError(KindPhoneNumberNeeded, "phone number is needed")

	default:
		return newAuthError(KindFlowChanged, fmt.Sprintf("unsupported challenge %T", challenge))
	}
}

func (f *flow) authorize(ctx context.Context) (string, error) {
	logger := f.s.logger

	resp, err := f.post(ctx, f.s.endpoints.Authorize, url.Values{
		"client_id":     {f.s.creds.AppID},
		"display":       {"mobile"},
		"response_type": {"token"},
		"scope":         {f.s.creds.Scope},
		"v":             {defaultOAuthVersion},
	})
	if err != nil {
		return "", err
	}
	if token := htmlform.DecodeURLQuery(resp.URL)["access_token"]; token != "" {
		return token, nil
	}

	// Permissions have to be granted first.
	action, ok := htmlform.ExtractFormAction(resp.Body)
	logger.Debug().Bool("found", ok).Msg("Looking for permissions grant form")
	if ok {
		target, err := resolveAction(resp.URL, action)
		if err != nil {
			return "", err
		}
		resp, err = f.get(ctx, target)
		if err != nil {
			return "", err
		}
		if token := htmlform.DecodeURLQuery(resp.URL)["access_token"]; token != "" {
			return token, nil
		}
	}

	authErr := grantError(resp.Body)
	logger.Error().Str("reason", authErr.Message).Msg("OAuth2 authorization failed")
	return "", authErr
}

func (f *flow) loggedIn(pageURL string) bool {
	for _, raw := range []string{f.s.endpoints.Login, pageURL} {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		for _, cookie := range f.jar.Cookies(u) {
			for _, name := range sessionCookieNames {
				if cookie.Name == name {
					return true
				}
			}
		}
	}
	return false
}

func (f *flow) get(ctx context.Context, target string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, transportError("build request", err)
	}
	return f.do(req)
}

func (f *flow) post(ctx context.Context, target string, form url.Values) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, transportError("build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

func (f *flow) do(req *http.Request) (*page, error) {
	req.Header.Set("User-Agent", f.s.userAgent)

	f.s.logger.Debug().Str("method", req.Method).Str("url", req.URL.Redacted()).Msg("VK auth request")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, transportError(req.Method+" "+req.URL.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, transportError("read response body", err)
	}

	return &page{URL: resp.Request.URL.String(), Body: string(body)}, nil
}

func resolveAction(base, action string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", &AuthError{Kind: KindFlowChanged, Message: "invalid page url", Err: err}
	}
	ref, err := url.Parse(action)
	if err != nil {
		return "", &AuthError{Kind: KindFlowChanged, Message: "invalid form action", Err: err}
	}
	return baseURL.ResolveReference(ref).String(), nil
}

func grantError(body string) *AuthError {
	var payload struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil || payload.Error == "" {
		return newAuthError(KindGrantAccess, "OAuth2 grant access error")
	}
	return newAuthError(KindGrantAccess, fmt.Sprintf("VK error: [%s] %s", payload.Error, payload.Description))
}

// asAuthError keeps resolver errors that already carry a kind.
func asAuthError(err error, kind ErrorKind, message string) error {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return err
	}
	return &AuthError{Kind: kind, Message: message, Err: err}
}
