package api

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/s0up4200/vkbot/auth"
)

// VK API error codes with a dedicated kind.
const (
	codeAuthorizationFailed = 5
	codeTooManyRequests     = 6
	codeFloodControl        = 9
	codeCaptchaNeeded       = 14
	codeValidationRequired  = 17
)

// legacyRules match on error text, in priority order. They cover errors that
// carry no structure, such as wrapped strings from older code paths.
var legacyRules = []struct {
	substrings []string
	kind       ErrorKind
}{
	{[]string{"too many requests"}, KindRateLimited},
	{[]string{"timed out"}, KindTimeout},
	{[]string{"connection"}, KindConnectionFailed},
	{[]string{"incorrect password"}, KindBadCredentials},
	{[]string{"invalid access_token"}, KindInvalidToken},
	{[]string{"captcha"}, KindCaptchaRequired},
	{[]string{"auth check code is needed"}, KindTwoFactorRequired},
}

// Classify maps any error into an *Error. Structured information (VK error
// codes, HTTP status, auth error kinds, net errors) is used first; the error
// text is only matched when nothing structured applies.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if kind, code, ok := structuredKind(err); ok {
		return &Error{Kind: kind, Code: code, Message: err.Error(), Err: err}
	}

	classified = &Error{Kind: legacyKind(err.Error()), Message: err.Error(), Err: err}
	var vkErr *VKError
	if errors.As(err, &vkErr) {
		classified.Code = vkErr.Code
	}
	return classified
}

func structuredKind(err error) (ErrorKind, int, bool) {
	var vkErr *VKError
	if errors.As(err, &vkErr) {
		switch vkErr.Code {
		case codeTooManyRequests, codeFloodControl:
			return KindRateLimited, vkErr.Code, true
		case codeAuthorizationFailed:
			return KindInvalidToken, vkErr.Code, true
		case codeCaptchaNeeded:
			return KindCaptchaRequired, vkErr.Code, true
		case codeValidationRequired:
			return KindTwoFactorRequired, vkErr.Code, true
		}
		return KindUnknown, vkErr.Code, false
	}

	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case auth.KindBadCredentials:
			return KindBadCredentials, 0, true
		case auth.KindTwoFactorRequired:
			return KindTwoFactorRequired, 0, true
		case auth.KindCaptchaRequired:
			return KindCaptchaRequired, 0, true
		case auth.KindFlowChanged, auth.KindPhoneNumberNeeded, auth.KindGrantAccess:
			return KindUnknown, 0, true
		}
		// Transport failures fall through to the network checks below.
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests:
			return KindRateLimited, statusErr.StatusCode, true
		case http.StatusGatewayTimeout, http.StatusRequestTimeout:
			return KindTimeout, statusErr.StatusCode, true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout, 0, true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnectionFailed, 0, true
	}

	return KindUnknown, 0, false
}

func legacyKind(message string) ErrorKind {
	lower := strings.ToLower(message)
	for _, rule := range legacyRules {
		for _, substring := range rule.substrings {
			if strings.Contains(lower, substring) {
				return rule.kind
			}
		}
	}
	return KindUnknown
}
