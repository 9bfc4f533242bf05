package auth

import (
	"net/url"

	"github.com/s0up4200/vkbot/htmlform"
)

// Challenge is an extra verification step VK inserts between the password
// POST and a logged-in session. The concrete types are CaptchaChallenge,
// TwoFactorChallenge and PhoneChallenge.
type Challenge interface {
	challenge()
}

// CaptchaChallenge asks for the text shown on a captcha image.
type CaptchaChallenge struct {
	ImageURL   string
	SID        string
	FormAction string
}

// TwoFactorChallenge asks for an auth check code.
type TwoFactorChallenge struct {
	FormAction string
}

// PhoneChallenge asks to confirm the phone number bound to the account.
type PhoneChallenge struct {
	FormAction string
}

func (CaptchaChallenge) challenge()   {}
func (TwoFactorChallenge) challenge() {}
func (PhoneChallenge) challenge()     {}

// classifyChallenge inspects the decoded URL of the login response and the
// page body. It returns false when the response carries no known challenge.
func classifyChallenge(query map[string]string, page, captchaEndpoint string) (Challenge, bool) {
	action, _ := htmlform.ExtractFormAction(page)

	if sid, ok := query["sid"]; ok {
		image := url.Values{}
		image.Set("s", query["s"])
		image.Set("sid", sid)
		return CaptchaChallenge{
			ImageURL:   captchaEndpoint + "?" + image.Encode(),
			SID:        sid,
			FormAction: action,
		}, true
	}

	if query["act"] == "authcheck" {
		return TwoFactorChallenge{FormAction: action}, true
	}

	if _, ok := query["security_check"]; ok {
		return PhoneChallenge{FormAction: action}, true
	}

	return nil, false
}
