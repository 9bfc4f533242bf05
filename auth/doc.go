// Package auth obtains a VK access token the way a mobile browser would.
//
// The Session posts the credentials to the m.vk.com login form, handles any
// challenge VK inserts, and then runs the OAuth2 implicit grant against
// oauth.vk.com to read the token from the final redirect URL.
//
// # Challenges
//
// After the password POST, VK either sets a session cookie (remixsid or
// remixsid6) or redirects to a page whose URL names a challenge:
//
//   - sid=...           captcha, answered by Resolver.ResolveCaptcha
//   - act=authcheck     two-factor code, answered by Resolver.ResolveTwoFactor
//   - security_check    phone confirmation, not supported
//
// A captcha or code is submitted once. The flow never retries on its own;
// retrying is the caller's decision.
//
// # Usage
//
//	session, err := auth.NewSession(auth.Credentials{
//		AppID:        "5746984",
//		Login:        login,
//		Password:     password,
//		TwoFactorKey: key,
//	}, auth.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	token, err := session.Authenticate(ctx)
//
// # Error Handling
//
// Every failure is an *AuthError with a Kind. Use IsKind or errors.As:
//
//	if auth.IsKind(err, auth.KindTwoFactorRequired) {
//		// ask the user for a code
//	}
package auth
