package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/evcraddock/portfolio/internal/auth"
	"github.com/evcraddock/portfolio/internal/comment"
	"github.com/evcraddock/portfolio/internal/config"
	"github.com/evcraddock/portfolio/internal/site"
)

func TestHealthEndpoint(t *testing.T) {
	w := serve(testServer(t), httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q, want application/json", ct)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q, want status ok", w.Body.String())
	}
}

func TestListCommentsRequiresValidLimit(t *testing.T) {
	srv := testServer(t)

	for _, q := range []string{"", "?comment-limit=", "?comment-limit=abc", "?comment-limit=0", "?comment-limit=-3"} {
		w := serve(srv, httptest.NewRequest("GET", "/data"+q, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET /data%s: status = %d, want %d", q, w.Code, http.StatusBadRequest)
		}
	}
}

func TestListCommentsOldestFirstWithLimit(t *testing.T) {
	srv, d := testServerWithDB(t, nil)
	for i := 1; i <= 4; i++ {
		addComment(t, d, fmt.Sprintf("message %d", i), "a@example.com")
	}

	w := serve(srv, httptest.NewRequest("GET", "/data?comment-limit=3", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var got []comment.Comment
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d comments, want 3", len(got))
	}
	for i, c := range got {
		if want := fmt.Sprintf("message %d", i+1); c.Message != want {
			t.Errorf("comment %d = %q, want %q", i, c.Message, want)
		}
		if c.ID == "" {
			t.Errorf("comment %d has no id", i)
		}
	}
	if strings.Contains(w.Body.String(), "a@example.com") {
		t.Error("author must not be exposed on the wire")
	}
}

func TestListCommentsEmptyIsArray(t *testing.T) {
	w := serve(testServer(t), httptest.NewRequest("GET", "/data?comment-limit=5", nil))
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", w.Body.String())
	}
}

func TestListCommentsLimitCapped(t *testing.T) {
	srv, d := testServerWithDB(t, func(c *config.Config) { c.MaxCommentLimit = 2 })
	for i := 0; i < 5; i++ {
		addComment(t, d, "hi", "")
	}

	w := serve(srv, httptest.NewRequest("GET", "/data?comment-limit=50", nil))
	var got []comment.Comment
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d comments, want 2", len(got))
	}
}

func TestAddCommentRequiresLogin(t *testing.T) {
	srv := testServer(t)

	w := serve(srv, postForm("/data", url.Values{"message": {"hi"}, "mood": {"happy"}}))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	r := postForm("/data", url.Values{"message": {"hi"}})
	r.Header.Set("Accept", "text/html")
	w = serve(srv, r)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Errorf("status = %d location = %q, want 303 /login", w.Code, w.Header().Get("Location"))
	}
}

func TestAddCommentWithAPIKey(t *testing.T) {
	srv, d := testServerWithDB(t, nil)
	key := apiKeyFor(t, d, "pat@example.com")

	r := postForm("/data", url.Values{"name": {"Pat"}, "message": {"Hello from the CLI"}, "mood": {"excited"}})
	r.Header.Set("Authorization", "Bearer "+key)
	w := serve(srv, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	var created comment.Comment
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Name != "Pat" || created.Mood != comment.Excited {
		t.Errorf("created = %+v", created)
	}
	if created.Email != "pat@example.com" {
		t.Errorf("email = %q, want login email as default", created.Email)
	}

	stored, err := comment.NewRepository(d).Get(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Author != "pat@example.com" {
		t.Errorf("author = %q, want pat@example.com", stored.Author)
	}
}

func TestAddCommentDefaultsMood(t *testing.T) {
	srv, d := testServerWithDB(t, nil)
	r := postForm("/data", url.Values{"message": {"no mood"}})
	r.AddCookie(sessionCookie(t, d, "pat@example.com"))
	w := serve(srv, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if !strings.Contains(w.Body.String(), `"mood":"neutral"`) {
		t.Errorf("body = %s, want neutral mood", w.Body.String())
	}
}

func TestAddCommentValidation(t *testing.T) {
	srv, d := testServerWithDB(t, nil)
	cookie := sessionCookie(t, d, "pat@example.com")

	tests := []struct {
		name string
		form url.Values
	}{
		{"empty message", url.Values{"message": {"   "}, "mood": {"happy"}}},
		{"unknown mood", url.Values{"message": {"hi"}, "mood": {"ecstatic"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := postForm("/data", tt.form)
			r.AddCookie(cookie)
			w := serve(srv, r)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestAddCommentFromPage(t *testing.T) {
	srv, d := testServerWithDB(t, nil)
	cookie := sessionCookie(t, d, "pat@example.com")

	// Empty messages from the page are ignored.
	r := postForm("/data", url.Values{"message": {""}})
	r.Header.Set("Accept", "text/html")
	r.AddCookie(cookie)
	w := serve(srv, r)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("status = %d location = %q, want 303 /", w.Code, w.Header().Get("Location"))
	}

	r = postForm("/data", url.Values{"name": {"Pat"}, "message": {"Nice page"}, "mood": {"happy"}})
	r.Header.Set("Accept", "text/html")
	r.AddCookie(cookie)
	w = serve(srv, r)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}

	comments, err := comment.NewRepository(d).List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 1 || comments[0].Message != "Nice page" {
		t.Errorf("comments = %+v, want only the non-empty one", comments)
	}
}

func TestDeleteComment(t *testing.T) {
	srv, d := testServerWithDB(t, func(c *config.Config) { c.OwnerEmails = "owner@example.com" })
	mine := addComment(t, d, "mine", "pat@example.com")
	theirs := addComment(t, d, "theirs", "sam@example.com")
	patCookie := sessionCookie(t, d, "pat@example.com")

	tests := []struct {
		name   string
		id     string
		cookie *http.Cookie
		want   int
	}{
		{"anonymous", mine.ID, nil, http.StatusUnauthorized},
		{"missing id", "", patCookie, http.StatusBadRequest},
		{"someone else's", theirs.ID, patCookie, http.StatusForbidden},
		{"own", mine.ID, patCookie, http.StatusNoContent},
		{"unknown id", "does-not-exist", patCookie, http.StatusNoContent},
		{"already deleted", mine.ID, patCookie, http.StatusNoContent},
		{"owner deletes any", theirs.ID, sessionCookie(t, d, "owner@example.com"), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := postForm("/delete-data", url.Values{"id": {tt.id}})
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}
			w := serve(srv, r)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	left, err := comment.NewRepository(d).List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("got %d comments left, want 0", len(left))
	}
}

func TestLoginStatus(t *testing.T) {
	srv, d := testServerWithDB(t, nil)

	w := serve(srv, httptest.NewRequest("GET", "/login-status", nil))
	var anon auth.LoginStatus
	if err := json.NewDecoder(w.Body).Decode(&anon); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if anon.IsUserLoggedIn != "false" || anon.URL != "/login" || anon.Email != "" {
		t.Errorf("anonymous status = %+v", anon)
	}

	r := httptest.NewRequest("GET", "/login-status", nil)
	r.AddCookie(sessionCookie(t, d, "pat@example.com"))
	w = serve(srv, r)
	if !strings.Contains(w.Body.String(), `"isUserLoggedIn":"true"`) {
		t.Errorf("body = %s, want string flag true", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"url":"/auth/logout"`) {
		t.Errorf("body = %s, want logout url", w.Body.String())
	}
}

func TestChartData(t *testing.T) {
	w := serve(testServer(t), httptest.NewRequest("GET", "/chart-data", nil))

	var chart site.Chart
	if err := json.NewDecoder(w.Body).Decode(&chart); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if chart.Options.Title != "Favorite ways to make eggs" || len(chart.Rows) != 5 {
		t.Errorf("chart = %+v", chart)
	}
}

func TestRandomFact(t *testing.T) {
	w := serve(testServer(t), httptest.NewRequest("GET", "/random-fact", nil))

	var p site.Person
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := false
	for _, known := range site.People {
		if known == p {
			found = true
		}
	}
	if !found {
		t.Errorf("unexpected person %+v", p)
	}
}

func TestSurvey(t *testing.T) {
	srv := testServer(t)

	w := serve(srv, postForm("/survey-data", url.Values{"bfast-survey": {"Omelet"}}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	serve(srv, postForm("/survey-data", url.Values{"bfast-survey": {"Omelet"}}))

	w = serve(srv, httptest.NewRequest("GET", "/survey-data", nil))
	var counts map[string]int
	if err := json.NewDecoder(w.Body).Decode(&counts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if counts["Omelet"] != 2 {
		t.Errorf("counts = %v, want Omelet=2", counts)
	}

	w = serve(srv, postForm("/survey-data", url.Values{"bfast-survey": {"Raw"}}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	r := postForm("/survey-data", url.Values{"bfast-survey": {"Scrambled"}})
	r.Header.Set("Accept", "text/html")
	w = serve(srv, r)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Errorf("status = %d location = %q, want 303 /", w.Code, w.Header().Get("Location"))
	}
}

func TestCORS(t *testing.T) {
	srv, _ := testServerWithDB(t, func(c *config.Config) { c.CORSOrigins = "https://me.example.com" })

	r := httptest.NewRequest("OPTIONS", "/data", nil)
	r.Header.Set("Origin", "https://me.example.com")
	r.Header.Set("Access-Control-Request-Method", "GET")
	w := serve(srv, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://me.example.com" {
		t.Errorf("allow origin = %q", got)
	}

	r = httptest.NewRequest("GET", "/data?comment-limit=1", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	w = serve(srv, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow origin = %q, want none", got)
	}
}
