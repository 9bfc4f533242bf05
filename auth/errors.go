package auth

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidCredentials indicates the supplied credentials cannot start a login
	ErrInvalidCredentials = errors.New("invalid vk credentials")
	// ErrMissingAppID indicates no application id was configured
	ErrMissingAppID = errors.New("vk app id is required")
)

// ErrorKind classifies why an authentication attempt failed.
type ErrorKind int

const (
	// KindFlowChanged means the login page no longer has the expected shape.
	KindFlowChanged ErrorKind = iota
	// KindBadCredentials means the login or password was rejected.
	KindBadCredentials
	// KindPhoneNumberNeeded means VK asked to confirm the account phone number.
	KindPhoneNumberNeeded
	// KindTwoFactorRequired means an auth check code is needed but none is configured.
	KindTwoFactorRequired
	// KindCaptchaRequired means a captcha could not be answered.
	KindCaptchaRequired
	// KindGrantAccess means the OAuth2 authorize step did not yield a token.
	KindGrantAccess
	// KindTransport means an HTTP round trip of the flow failed.
	KindTransport
)

// String returns the name of the kind
func (k ErrorKind) String() string {
	switch k {
	case KindFlowChanged:
		return "FlowChanged"
	case KindBadCredentials:
		return "BadCredentials"
	case KindPhoneNumberNeeded:
		return "PhoneNumberNeeded"
	case KindTwoFactorRequired:
		return "TwoFactorRequired"
	case KindCaptchaRequired:
		return "CaptchaRequired"
	case KindGrantAccess:
		return "GrantAccess"
	case KindTransport:
		return "Transport"
	default:
		return "Unknown"
	}
}

// AuthError is the terminal failure of an authentication attempt.
type AuthError struct {
	Kind    ErrorKind
	Message string
	// Err is the underlying cause, e.g. a network error.
	Err error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vk auth error (%s): %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("vk auth error (%s): %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an AuthError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Kind == kind
}

func newAuthError(kind ErrorKind, message string) *AuthError {
	return &AuthError{Kind: kind, Message: message}
}

func transportError(step string, err error) *AuthError {
	return &AuthError{Kind: KindTransport, Message: step, Err: err}
}
