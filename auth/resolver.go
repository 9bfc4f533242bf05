package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Resolver answers the challenges VK raises during login.
type Resolver interface {
	// ResolveCaptcha returns the text shown on the image at imageURL.
	ResolveCaptcha(ctx context.Context, imageURL string) (string, error)
	// ResolveTwoFactor returns an auth check code.
	ResolveTwoFactor(ctx context.Context) (string, error)
	// ResolvePhone confirms the account phone number. No implementation supports it.
	ResolvePhone(ctx context.Context) error
}

// StaticResolver answers from preconfigured values only and never prompts.
type StaticResolver struct {
	TwoFactorKey string
}

// ResolveCaptcha always fails: captchas need a human or an external solver.
func (r StaticResolver) ResolveCaptcha(_ context.Context, imageURL string) (string, error) {
	return "", newAuthError(KindCaptchaRequired, "captcha is needed: "+imageURL)
}

// ResolveTwoFactor returns the configured key.
func (r StaticResolver) ResolveTwoFactor(_ context.Context) (string, error) {
	if key := strings.TrimSpace(r.TwoFactorKey); key != "" {
		return key, nil
	}
	return "", newAuthError(KindTwoFactorRequired, "auth check code is needed")
}

// ResolvePhone always fails.
func (r StaticResolver) ResolvePhone(_ context.Context) error {
	return newAuthError(KindPhoneNumberNeeded, "phone number is needed")
}

// PromptResolver asks a human on a terminal. A configured TwoFactorKey is
// used without prompting.
type PromptResolver struct {
	In           io.Reader
	Out          io.Writer
	TwoFactorKey string

	reader *bufio.Reader
}

// NewPromptResolver creates a PromptResolver reading from in and writing prompts to out
func NewPromptResolver(in io.Reader, out io.Writer, twoFactorKey string) *PromptResolver {
	return &PromptResolver{In: in, Out: out, TwoFactorKey: twoFactorKey}
}

// ResolveCaptcha prints the captcha URL and reads the answer.
func (r *PromptResolver) ResolveCaptcha(ctx context.Context, imageURL string) (string, error) {
	fmt.Fprintf(r.Out, "Captcha is needed, open %s\n", imageURL)
	answer, err := r.ask(ctx, "Captcha: ")
	if err != nil || answer == "" {
		return "", &AuthError{Kind: KindCaptchaRequired, Message: "captcha is needed: " + imageURL, Err: err}
	}
	return answer, nil
}

// ResolveTwoFactor returns the configured key or reads a code.
func (r *PromptResolver) ResolveTwoFactor(ctx context.Context) (string, error) {
	if key := strings.TrimSpace(r.TwoFactorKey); key != "" {
		return key, nil
	}
	code, err := r.ask(ctx, "Auth check code: ")
	if err != nil || code == "" {
		return "", &AuthError{Kind: KindTwoFactorRequired, Message: "auth check code is needed", Err: err}
	}
	return code, nil
}

// ResolvePhone always fails.
func (r *PromptResolver) ResolvePhone(_ context.Context) error {
	return newAuthError(KindPhoneNumberNeeded, "phone number is needed")
}

func (r *PromptResolver) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.reader == nil {
		r.reader = bufio.NewReader(r.In)
	}

	fmt.Fprint(r.Out, prompt)
	line, err := r.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
