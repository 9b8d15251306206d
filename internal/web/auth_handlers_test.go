package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/evcraddock/portfolio/internal/auth"
	"github.com/evcraddock/portfolio/internal/config"
)

func TestLoginPageRendersForm(t *testing.T) {
	w := serve(testServer(t), httptest.NewRequest("GET", "/login", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Sign In") {
		t.Error("expected login page to contain 'Sign In'")
	}
	if !strings.Contains(body, `action="/auth/login"`) {
		t.Error("expected login form action")
	}
}

func TestLoginSubmitSendsLink(t *testing.T) {
	srv, d := testServerWithDB(t, nil)

	w := serve(srv, postForm("/auth/login", url.Values{"email": {"Visitor@Example.com"}}))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, "login link has been sent") {
		t.Error("expected success message")
	}
	if !strings.Contains(body, "/auth/verify?token=") {
		t.Error("expected dev mode link on the page")
	}

	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM auth_tokens WHERE email = ?", "visitor@example.com").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("tokens = %d, want 1", count)
	}
}

func TestLoginSubmitHidesLinkOutsideDevMode(t *testing.T) {
	srv, _ := testServerWithDB(t, func(c *config.Config) {
		c.DevMode = false
		c.SMTPHost = "127.0.0.1"
		c.SMTPPort = "1"
	})

	w := serve(srv, postForm("/auth/login", url.Values{"email": {"visitor@example.com"}}))

	body := w.Body.String()
	if !strings.Contains(body, "login link has been sent") {
		t.Error("expected the same message even when sending fails")
	}
	if strings.Contains(body, "/auth/verify?token=") {
		t.Error("link must not be shown outside dev mode")
	}
}

func TestLoginSubmitInvalidEmail(t *testing.T) {
	srv := testServer(t)

	for _, email := range []string{"", "not-an-email", "Name <a@example.com>"} {
		w := serve(srv, postForm("/auth/login", url.Values{"email": {email}}))
		if !strings.Contains(w.Body.String(), "A valid email is required") {
			t.Errorf("%q: expected validation error", email)
		}
	}
}

func TestVerifyCreatesSessionAndRedirects(t *testing.T) {
	srv, d := testServerWithDB(t, nil)

	token, err := auth.NewTokenStore(d).Create("visitor@example.com", "/")
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	w := serve(srv, httptest.NewRequest("GET", "/auth/verify?token="+token, nil))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if w.Header().Get("Location") != "/" {
		t.Errorf("location = %q, want /", w.Header().Get("Location"))
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "pf_session" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected session cookie")
	}

	r := httptest.NewRequest("GET", "/login-status", nil)
	r.AddCookie(cookie)
	if body := serve(srv, r).Body.String(); !strings.Contains(body, `"email":"visitor@example.com"`) {
		t.Errorf("login status = %s", body)
	}

	// Tokens are single use.
	w = serve(srv, httptest.NewRequest("GET", "/auth/verify?token="+token, nil))
	if !strings.Contains(w.Body.String(), "Invalid or expired") {
		t.Error("expected reused token to be rejected")
	}
}

func TestVerifyInvalidToken(t *testing.T) {
	srv := testServer(t)

	for _, q := range []string{"", "?token=bogus"} {
		w := serve(srv, httptest.NewRequest("GET", "/auth/verify"+q, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if !strings.Contains(w.Body.String(), "Invalid") {
			t.Errorf("%q: expected error message", q)
		}
	}
}

func TestLogout(t *testing.T) {
	srv, d := testServerWithDB(t, nil)
	cookie := sessionCookie(t, d, "visitor@example.com")

	r := httptest.NewRequest("GET", "/auth/logout", nil)
	r.AddCookie(cookie)
	w := serve(srv, r)

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("status = %d location = %q, want 303 /", w.Code, w.Header().Get("Location"))
	}

	r = httptest.NewRequest("GET", "/login-status", nil)
	r.AddCookie(cookie)
	if body := serve(srv, r).Body.String(); !strings.Contains(body, `"isUserLoggedIn":"false"`) {
		t.Errorf("login status after logout = %s", body)
	}
}

func TestLoginNextStaysOnSite(t *testing.T) {
	for _, next := range []string{"/\\evil.example", "/%5Cevil.example", "//evil.example", "https://evil.example"} {
		t.Run(next, func(t *testing.T) {
			srv, d := testServerWithDB(t, nil)

			page := serve(srv, httptest.NewRequest("GET", "/login?next="+url.QueryEscape(next), nil))
			if !strings.Contains(page.Body.String(), `name="next" value="/"`) {
				t.Errorf("login page should carry next=/, got:\n%s", page.Body.String())
			}

			serve(srv, postForm("/auth/login", url.Values{"email": {"visitor@example.com"}, "next": {next}}))

			var token string
			if err := d.QueryRow("SELECT token FROM auth_tokens WHERE email = ?", "visitor@example.com").Scan(&token); err != nil {
				t.Fatalf("find token: %v", err)
			}

			w := serve(srv, httptest.NewRequest("GET", "/auth/verify?token="+token, nil))
			if w.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
			}
			if loc := w.Header().Get("Location"); loc != "/" {
				t.Errorf("location = %q, want /", loc)
			}
		})
	}
}
