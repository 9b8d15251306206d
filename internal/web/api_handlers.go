package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/evcraddock/portfolio/internal/auth"
	"github.com/evcraddock/portfolio/internal/comment"
	"github.com/evcraddock/portfolio/internal/site"
	"github.com/evcraddock/portfolio/internal/survey"
)

// errForbidden is returned when a user tries to delete someone else's comment.
var errForbidden = errors.New("not allowed to delete this comment")

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// wantsHTML reports whether the caller is a browser form post rather than
// an API client.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// parseLimit reads comment-limit and caps it at the configured maximum.
func (s *Server) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("comment-limit")
	if raw == "" {
		return 0, errors.New("comment-limit is required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("comment-limit must be a positive integer")
	}
	if n > s.cfg.MaxCommentLimit {
		n = s.cfg.MaxCommentLimit
	}
	return n, nil
}

// listComments returns at most limit comments, oldest first.
func (s *Server) listComments(limit int) ([]comment.Comment, error) {
	stored, err := s.comments.List(limit)
	if err != nil {
		return nil, err
	}
	out := make([]comment.Comment, len(stored))
	for i, c := range stored {
		out[i] = *c
	}
	return out, nil
}

// deleteComment removes id on behalf of email. Owners may delete any
// comment, everyone else only their own. Unknown ids are a no-op.
func (s *Server) deleteComment(email, id string) error {
	c, err := s.comments.Get(id)
	if errors.Is(err, comment.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !s.authCfg.IsOwner(email) && !strings.EqualFold(c.Author, email) {
		return errForbidden
	}

	if err := s.comments.Delete(id); err != nil && !errors.Is(err, comment.ErrNotFound) {
		return err
	}
	log.Info().Str("id", id).Str("by", email).Msg("comment deleted")
	return nil
}

// handleListComments serves GET /data?comment-limit=N.
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	limit, err := s.parseLimit(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	comments, err := s.listComments(limit)
	if err != nil {
		log.Error().Err(err).Msg("listing comments")
		apiError(w, "failed to list comments", http.StatusInternalServerError)
		return
	}
	apiJSON(w, comments, http.StatusOK)
}

// handleAddComment serves POST /data.
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apiError(w, "invalid form", http.StatusBadRequest)
		return
	}

	author := auth.EmailFromContext(r.Context())
	in := comment.NewComment{
		Name:    r.PostForm.Get("name"),
		Email:   strings.TrimSpace(r.PostForm.Get("email")),
		Message: r.PostForm.Get("message"),
		Mood:    comment.Mood(r.PostForm.Get("mood")),
	}
	if in.Email == "" {
		in.Email = author
	}
	if in.Mood == "" {
		in.Mood = comment.Neutral
	}

	created, err := s.comments.Add(in, author)
	switch {
	case errors.Is(err, comment.ErrEmptyMessage) && wantsHTML(r):
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	case errors.Is(err, comment.ErrEmptyMessage), errors.Is(err, comment.ErrInvalidMood):
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Error().Err(err).Msg("adding comment")
		apiError(w, "failed to add comment", http.StatusInternalServerError)
		return
	}

	log.Info().Str("id", created.ID).Str("author", author).Msg("comment added")
	if wantsHTML(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	apiJSON(w, created, http.StatusCreated)
}

// handleDeleteComment serves POST /delete-data.
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apiError(w, "invalid form", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(r.PostForm.Get("id"))
	if id == "" {
		apiError(w, "id is required", http.StatusBadRequest)
		return
	}

	err := s.deleteComment(auth.EmailFromContext(r.Context()), id)
	switch {
	case errors.Is(err, errForbidden):
		apiError(w, err.Error(), http.StatusForbidden)
		return
	case err != nil:
		log.Error().Err(err).Str("id", id).Msg("deleting comment")
		apiError(w, "failed to delete comment", http.StatusInternalServerError)
		return
	}

	if wantsHTML(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLoginStatus serves GET /login-status.
func (s *Server) handleLoginStatus(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, auth.StatusFor(auth.EmailFromContext(r.Context())), http.StatusOK)
}

// handleRandomFact serves GET /random-fact.
func (s *Server) handleRandomFact(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, site.RandomFact(nil).Person, http.StatusOK)
}

// handleChartData serves GET /chart-data.
func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, site.EggChart(), http.StatusOK)
}

// handleSurveyCounts serves GET /survey-data.
func (s *Server) handleSurveyCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.votes.Counts()
	if err != nil {
		log.Error().Err(err).Msg("reading survey")
		apiError(w, "failed to read survey", http.StatusInternalServerError)
		return
	}
	apiJSON(w, counts, http.StatusOK)
}

// handleSurveyVote serves POST /survey-data.
func (s *Server) handleSurveyVote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apiError(w, "invalid form", http.StatusBadRequest)
		return
	}

	option := r.PostForm.Get("bfast-survey")
	if !survey.IsOption(option) {
		if wantsHTML(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		apiError(w, "unknown survey option", http.StatusBadRequest)
		return
	}

	if _, err := s.votes.Vote(option); err != nil {
		log.Error().Err(err).Msg("recording vote")
		apiError(w, "failed to record vote", http.StatusInternalServerError)
		return
	}

	if wantsHTML(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.handleSurveyCounts(w, r)
}

// localAPI serves the comment sync controller from inside the server,
// acting as the user identified on the request.
type localAPI struct {
	s     *Server
	email string
}

func (a localAPI) Comments(_ context.Context, limit int) ([]comment.Comment, error) {
	return a.s.listComments(limit)
}

func (a localAPI) DeleteComment(_ context.Context, id string) error {
	return a.s.deleteComment(a.email, id)
}

func (a localAPI) LoginStatus(context.Context) (*auth.LoginStatus, error) {
	status := auth.StatusFor(a.email)
	return &status, nil
}
