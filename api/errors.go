package api

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrMissingToken indicates a client was created without an access token
	ErrMissingToken = errors.New("vk access token is required")
	// ErrEmptyResponse indicates VK answered with neither a response nor an error
	ErrEmptyResponse = errors.New("empty response from VK API")
	// ErrNoRecipient indicates a message has neither a peer nor a chat id
	ErrNoRecipient = errors.New("message needs a peer id or a chat id")
)

// ErrorKind is the closed set of failure classes a call can end in.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindRateLimited
	KindTimeout
	KindConnectionFailed
	KindBadCredentials
	KindInvalidToken
	KindCaptchaRequired
	KindTwoFactorRequired
)

// String returns the name of the kind
func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "RateLimited"
	case KindTimeout:
		return "Timeout"
	case KindConnectionFailed:
		return "ConnectionFailed"
	case KindBadCredentials:
		return "BadCredentials"
	case KindInvalidToken:
		return "InvalidToken"
	case KindCaptchaRequired:
		return "CaptchaRequired"
	case KindTwoFactorRequired:
		return "TwoFactorRequired"
	default:
		return "Unknown"
	}
}

// Retryable reports whether the request wrapper retries this kind
func (k ErrorKind) Retryable() bool {
	return k == KindRateLimited || k == KindTimeout
}

// Error is the classified failure of a call made through Do.
type Error struct {
	Kind ErrorKind
	// Code is the VK error code or HTTP status when one was available.
	Code    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("vk api error (%s): %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a classified error, or KindUnknown
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// VKError is the error object VK returns inside a 200 response.
type VKError struct {
	Code       int    `json:"error_code"`
	Message    string `json:"error_msg"`
	CaptchaSID string `json:"captcha_sid,omitempty"`
	CaptchaImg string `json:"captcha_img,omitempty"`
}

// Error implements the error interface
func (e *VKError) Error() string {
	return fmt.Sprintf("%d. %s", e.Code, e.Message)
}

// HTTPStatusError is returned when the API answers with a non-200 status.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}
