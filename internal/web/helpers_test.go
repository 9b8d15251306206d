package web

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evcraddock/portfolio/internal/auth"
	"github.com/evcraddock/portfolio/internal/comment"
	"github.com/evcraddock/portfolio/internal/config"
	"github.com/evcraddock/portfolio/internal/db"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	srv, _ := testServerWithDB(t, nil)
	return srv
}

// testServerWithDB builds a dev-mode server. mutate may adjust the config.
func testServerWithDB(t *testing.T, mutate func(*config.Config)) (*Server, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	cfg := config.DefaultConfig()
	cfg.DevMode = true
	if mutate != nil {
		mutate(cfg)
	}

	srv, err := NewServer(d, cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, d
}

// sessionCookie logs email in and returns the session cookie.
func sessionCookie(t *testing.T, d *sql.DB, email string) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	if err := auth.NewSessionStore(d, false).Create(w, email); err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "pf_session" {
			return c
		}
	}
	t.Fatal("expected pf_session cookie")
	return nil
}

func apiKeyFor(t *testing.T, d *sql.DB, email string) string {
	t.Helper()
	raw, _, err := auth.NewAPIKeyStore(d).Create("test", email)
	if err != nil {
		t.Fatalf("create api key: %v", err)
	}
	return raw
}

func addComment(t *testing.T, d *sql.DB, message, author string) *comment.Comment {
	t.Helper()
	c, err := comment.NewRepository(d).Add(comment.NewComment{
		Name:    "Visitor",
		Message: message,
		Mood:    comment.Happy,
	}, author)
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	return c
}

func postForm(path string, form url.Values) *http.Request {
	r := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func serve(srv *Server, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}
