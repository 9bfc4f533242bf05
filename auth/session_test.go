package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body>
<form method="post" action="/login?act=login"><input name="email"><input name="pass"></form>
</body></html>`

// fakeVK scripts the VK mobile site and OAuth endpoint.
type fakeVK struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int

	landing   http.HandlerFunc
	login     http.HandlerFunc
	authorize http.HandlerFunc
	extra     map[string]http.HandlerFunc
}

func newFakeVK(t *testing.T) *fakeVK {
	t.Helper()

	f := &fakeVK{
		hits:  make(map[string]int),
		extra: make(map[string]http.HandlerFunc),
		landing: func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, loginPage)
		},
		authorize: func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/blank.html?access_token=XYZ&expires_in=0&user_id=1", http.StatusFound)
		},
	}

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.Method+" "+r.URL.Path]++
		f.mu.Unlock()

		switch {
		case r.URL.Path == "/" && r.Method == http.MethodGet:
			f.landing(w, r)
		case r.URL.Path == "/login" && r.Method == http.MethodPost && f.login != nil:
			f.login(w, r)
		case r.URL.Path == "/authorize":
			f.authorize(w, r)
		case r.URL.Path == "/blank.html":
			fmt.Fprint(w, "ok")
		default:
			if h, ok := f.extra[r.URL.Path]; ok {
				h(w, r)
				return
			}
			fmt.Fprint(w, "<html></html>")
		}
	}))
	t.Cleanup(f.Close)

	return f
}

func (f *fakeVK) endpoints() Endpoints {
	return Endpoints{
		Login:     f.URL + "/",
		Authorize: f.URL + "/authorize",
		Captcha:   f.URL + "/captcha.php",
	}
}

func (f *fakeVK) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func setSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "remixsid", Value: "session", Path: "/"})
}

// recordingResolver records which challenge methods the session invoked.
type recordingResolver struct {
	calls        []string
	captchaURL   string
	answer       string
	twoFactorKey string
}

func (r *recordingResolver) ResolveCaptcha(_ context.Context, imageURL string) (string, error) {
	r.calls = append(r.calls, "captcha")
	r.captchaURL = imageURL
	return r.answer, nil
}

func (r *recordingResolver) ResolveTwoFactor(ctx context.Context) (string, error) {
	r.calls = append(r.calls, "two_factor")
	return StaticResolver{TwoFactorKey: r.twoFactorKey}.ResolveTwoFactor(ctx)
}

func (r *recordingResolver) ResolvePhone(ctx context.Context) error {
	r.calls = append(r.calls, "phone")
	return StaticResolver{}.ResolvePhone(ctx)
}

func testCredentials() Credentials {
	return Credentials{AppID: "5746984", Login: "user@example.com", Password: "secret"}
}

func newTestSession(t *testing.T, vk *fakeVK, resolver Resolver) *Session {
	t.Helper()
	s, err := NewSession(testCredentials(), WithEndpoints(vk.endpoints()), WithResolver(resolver))
	require.NoError(t, err)
	return s
}

func TestNewSession(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr error
	}{
		{
			name:  "login and password",
			creds: testCredentials(),
		},
		{
			name:  "token only",
			creds: Credentials{AppID: "1", Token: "token"},
		},
		{
			name:    "missing app id",
			creds:   Credentials{Token: "token"},
			wantErr: ErrMissingAppID,
		},
		{
			name:    "missing password",
			creds:   Credentials{AppID: "1", Login: "user"},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "nothing",
			creds:   Credentials{AppID: "1"},
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSession(tt.creds)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultScope, s.creds.Scope)
		})
	}
}

func TestAuthenticateWithToken(t *testing.T) {
	vk := newFakeVK(t)
	s, err := NewSession(Credentials{AppID: "1", Token: "long-lived"}, WithEndpoints(vk.endpoints()))
	require.NoError(t, err)

	token, err := s.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "long-lived", token)
	assert.Zero(t, vk.count("GET /"))
}

func TestAuthenticateWithoutChallenge(t *testing.T) {
	vk := newFakeVK(t)
	vk.login = func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "user@example.com", r.PostForm.Get("email"))
		assert.Equal(t, "secret", r.PostForm.Get("pass"))
		setSessionCookie(w)
		http.Redirect(w, r, "/feed", http.StatusFound)
	}
	vk.authorize = func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "5746984", r.PostForm.Get("client_id"))
		assert.Equal(t, "token", r.PostForm.Get("response_type"))
		assert.Equal(t, DefaultScope, r.PostForm.Get("scope"))
		http.Redirect(w, r, "/blank.html?access_token=XYZ&expires_in=0", http.StatusFound)
	}
	resolver := &recordingResolver{}

	token, err := newTestSession(t, vk, resolver).Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "XYZ", token)
	assert.Empty(t, resolver.calls)
	assert.Zero(t, vk.count("GET /grant"))
}

func TestAuthenticateCaptcha(t *testing.T) {
	vk := newFakeVK(t)
	vk.login = func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("captcha_key") == "" {
			http.Redirect(w, r, "/challenge?act=login&sid=123&s=456", http.StatusFound)
			return
		}
		assert.Equal(t, "123", r.PostForm.Get("captcha_sid"))
		assert.Equal(t, "answer", r.PostForm.Get("captcha_key"))
		assert.Equal(t, "user@example.com", r.PostForm.Get("email"))
		setSessionCookie(w)
		http.Redirect(w, r, "/feed", http.StatusFound)
	}
	vk.extra["/challenge"] = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<form method="post" action="/login?act=login" novalidate><img src="/captcha.php"></form>`)
	}
	resolver := &recordingResolver{answer: "answer"}

	token, err := newTestSession(t, vk, resolver).Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "XYZ", token)
	assert.Equal(t, []string{"captcha"}, resolver.calls)
	assert.Contains(t, resolver.captchaURL, "sid=123")
	assert.Contains(t, resolver.captchaURL, "s=456")
	assert.Equal(t, 2, vk.count("POST /login"))
}

func TestAuthenticateCaptchaRejected(t *testing.T) {
	vk := newFakeVK(t)
	vk.login = func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/challenge?sid=1&s=2", http.StatusFound)
	}
	vk.extra["/challenge"] = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<form action="/login"></form>`)
	}
	resolver := &recordingResolver{answer: "wrong"}

	_, err := newTestSession(t, vk, resolver).Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBadCredentials))
	assert.Equal(t, []string{"captcha"}, resolver.calls)
	assert.Equal(t, 2, vk.count("POST /login"))
	assert.Zero(t, vk.count("POST /authorize"))
}

func TestAuthenticateCaptchaWithStaticResolver(t *testing.T) {
	vk := newFakeVK(t)
	vk.login = func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/challenge?sid=1&s=2", http.StatusFound)
	}
	vk.extra["/challenge"] = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<form action="/login"></form>`)
	}

	_, err := newTestSession(t, vk, StaticResolver{}).Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindCaptchaRequired))
	assert.Equal(t, 1, vk.count("POST /login"))
}

func TestAuthenticateTwoFactorWithoutKey(t *testing.T) {
	vk := newFakeVK(t)
	vk.login = func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/challenge?act=authcheck", http.StatusFound)
	}
	vk.extra["/challenge"] = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<form method="post" action="/authcheck_code?hash=abc"></form>`)
	}
	resolver := &recordingResolver{}

	_, err := newTestSession(t, vk, resolver).Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTwoFactorRequired))
	assert.Equal(t, []string{"two_factor"}, resolver.calls)
	assert.Zero(t, vk.count("POST /authcheck_code"))
	assert.Zero(t, vk.count("POST /authorize"))
}

func TestAuthenticateTwoFactorWithKey(t *testing.T) {
	vk := newFakeVK(t)
	vk.login = func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/challenge?act=authcheck", http.StatusFound)
	}
	vk.extra["/challenge"] = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<form method="post" action="/authcheck_code?hash=abc"></form>`)
	}
	vk.extra["/authcheck_code"] = func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "abc", r.URL.Query().Get("hash"))
		assert.Equal(t, "654321", r.PostForm.Get("code"))
		assert.Equal(t, "1", r.PostForm.Get("_ajax"))
		assert.Equal(t, "1", r.PostForm.Get("remember"))
		setSessionCookie(w)
		fmt.Fprint(w, `{"ok":true}`)
	}
	resolver := &recordingResolver{twoFactorKey: "654321"}

	token, err := newTestSession(t, vk, resolver).Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "XYZ", token)
	assert.Equal(t, []string{"two_factor"}, resolver.calls)
	assert.Equal(t, 1, vk.count("POST /authcheck_code"))
}

func TestAuthenticatePhoneConfirmation(t *testing.T) {
	vk := newFakeVK(t)
	vk.login = func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/challenge?security_check=1", http.StatusFound)
	}
	resolver := &recordingResolver{}

	_, err := newTestSession(t, vk, resolver).Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindPhoneNumberNeeded))
	assert.Equal(t, []string{"phone"}, resolver.calls)
}

func TestAuthenticateBadCredentials(t *testing.T) {
	vk := newFakeVK(t)
	vk.login = func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/challenge?act=login&email=user", http.StatusFound)
	}
	resolver := &recordingResolver{}

	_, err := newTestSession(t, vk, resolver).Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBadCredentials))
	assert.Contains(t, err.Error(), "incorrect password")
	assert.Empty(t, resolver.calls)
}

func TestAuthenticateFlowChanged(t *testing.T) {
	vk := newFakeVK(t)
	vk.landing = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>maintenance</body></html>")
	}

	_, err := newTestSession(t, vk, &recordingResolver{}).Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindFlowChanged))
	assert.Zero(t, vk.count("POST /login"))
}

func TestAuthenticateGrantsPermissions(t *testing.T) {
	vk := newFakeVK(t)
	vk.login = func(w http.ResponseWriter, r *http.Request) {
		setSessionCookie(w)
		http.Redirect(w, r, "/feed", http.StatusFound)
	}
	vk.authorize = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<form method="post" action="/grant?hash=1"><button>Allow</button></form>`)
	}
	vk.extra["/grant"] = func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/blank.html?access_token=GRANTED", http.StatusFound)
	}

	token, err := newTestSession(t, vk, &recordingResolver{}).Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "GRANTED", token)
	assert.Equal(t, 1, vk.count("GET /grant"))
}

func TestAuthenticateGrantErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			name:    "structured error",
			body:    `{"error":"invalid_request","error_description":"Invalid scope"}`,
			wantMsg: "VK error: [invalid_request] Invalid scope",
		},
		{
			name:    "unstructured body",
			body:    `<html><body>oops</body></html>`,
			wantMsg: "OAuth2 grant access error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vk := newFakeVK(t)
			vk.login = func(w http.ResponseWriter, r *http.Request) {
				setSessionCookie(w)
				http.Redirect(w, r, "/feed", http.StatusFound)
			}
			vk.authorize = func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}

			_, err := newTestSession(t, vk, &recordingResolver{}).Authenticate(context.Background())
			require.Error(t, err)

			var authErr *AuthError
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, KindGrantAccess, authErr.Kind)
			assert.Equal(t, tt.wantMsg, authErr.Message)
		})
	}
}

func TestAuthenticateTransportError(t *testing.T) {
	vk := newFakeVK(t)
	endpoints := vk.endpoints()
	vk.Close()

	s, err := NewSession(testCredentials(), WithEndpoints(endpoints))
	require.NoError(t, err)

	_, err = s.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.NotNil(t, authErr.Unwrap())
}

func TestAuthenticateUsesFreshCookieJar(t *testing.T) {
	vk := newFakeVK(t)
	vk.login = func(w http.ResponseWriter, r *http.Request) {
		if vk.count("POST /login") == 1 {
			setSessionCookie(w)
		}
		http.Redirect(w, r, "/feed", http.StatusFound)
	}

	s := newTestSession(t, vk, &recordingResolver{})

	_, err := s.Authenticate(context.Background())
	require.NoError(t, err)

	_, err = s.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBadCredentials))
}
