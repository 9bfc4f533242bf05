package auth

import (
	"fmt"
	"strings"
)

// DefaultScope requests the messages, status and offline permissions.
const DefaultScope = "70656"

// Credentials holds everything needed to obtain an access token.
// Either Token or both Login and Password must be set.
type Credentials struct {
	AppID        string
	Scope        string
	Login        string
	Password     string
	Token        string
	TwoFactorKey string
}

// HasToken reports whether a long-lived token was supplied
func (c Credentials) HasToken() bool {
	return strings.TrimSpace(c.Token) != ""
}

// Validate checks that the credentials can start a login
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.AppID) == "" {
		return ErrMissingAppID
	}
	if c.HasToken() {
		return nil
	}
	if strings.TrimSpace(c.Login) == "" || c.Password == "" {
		return fmt.Errorf("%w: token or login and password are required", ErrInvalidCredentials)
	}
	return nil
}

// MaskToken shortens a token for logging.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
