package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/evcraddock/portfolio/internal/auth"
	"github.com/evcraddock/portfolio/internal/comment"
	"github.com/evcraddock/portfolio/internal/commentsync"
	"github.com/evcraddock/portfolio/internal/site"
	"github.com/evcraddock/portfolio/internal/survey"
)

// limitChoices are the options of the comment limit select.
var limitChoices = []int{1, 5, 10, 20, 50}

type surveyRow struct {
	Option string
	Votes  int
}

type commentsData struct {
	IDs    site.Bindings
	View   commentsync.View
	Limits []int
	Moods  []comment.Mood
}

type pageData struct {
	IDs      site.Bindings
	Comments commentsData
	Fact     site.Fact
	Gallery  []site.Image
	Popup    site.Popup
	Chart    site.Chart
	Survey   []surveyRow
}

// handleIndex renders the full page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cd, ok := s.loadComments(w, r)
	if !ok {
		return
	}

	counts, err := s.votes.Counts()
	if err != nil {
		log.Warn().Err(err).Msg("reading survey counts")
	}
	rows := make([]surveyRow, len(survey.Options))
	for i, o := range survey.Options {
		rows[i] = surveyRow{Option: o, Votes: counts[o]}
	}

	s.render(w, "index.html", pageData{
		IDs:      s.ids,
		Comments: cd,
		Fact:     factFor(r),
		Gallery:  site.Gallery,
		Popup:    popupFor(r),
		Chart:    site.EggChart(),
		Survey:   rows,
	})
}

// factFor picks a fact for the card. The card stays closed unless the
// visitor asked for one with ?fact; script.js opens it in place otherwise.
func factFor(r *http.Request) site.Fact {
	f := site.RandomFact(nil)
	if !r.URL.Query().Has("fact") {
		f.Close()
	}
	return f
}

// popupFor opens the gallery image named by ?photo=N, if any.
func popupFor(r *http.Request) site.Popup {
	var p site.Popup
	n, err := strconv.Atoi(r.URL.Query().Get("photo"))
	if err == nil && n >= 0 && n < len(site.Gallery) {
		p.Open(site.Gallery[n])
	}
	return p
}

// handleCommentsPartial renders only the comments section, for swapping
// into the page when the limit changes or after a delete.
func (s *Server) handleCommentsPartial(w http.ResponseWriter, r *http.Request) {
	cd, ok := s.loadComments(w, r)
	if !ok {
		return
	}
	s.render(w, "comments", cd)
}

// loadComments runs one refresh of the comment sync controller against
// the local store, as the requesting user.
func (s *Server) loadComments(w http.ResponseWriter, r *http.Request) (commentsData, bool) {
	limit := s.cfg.DefaultCommentLimit
	if raw := r.URL.Query().Get("comment-limit"); raw != "" {
		n, err := s.parseLimit(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return commentsData{}, false
		}
		limit = n
	}

	email := auth.EmailFromContext(r.Context())
	ctrl := commentsync.NewController(localAPI{s: s, email: email}, &commentsync.View{}, commentsync.FixedLimit(limit))
	if err := ctrl.Refresh(r.Context()); err != nil && !errors.Is(err, commentsync.ErrSuperseded) {
		log.Error().Err(err).Msg("refreshing comments")
	}

	return commentsData{
		IDs:    s.ids,
		View:   ctrl.View(),
		Limits: limitsWith(limit),
		Moods:  comment.ValidMoods,
	}, true
}

// limitsWith returns the select options, including the current limit.
func limitsWith(current int) []int {
	for _, l := range limitChoices {
		if l == current {
			return limitChoices
		}
	}
	out := make([]int, 0, len(limitChoices)+1)
	added := false
	for _, l := range limitChoices {
		if !added && current < l {
			out = append(out, current)
			added = true
		}
		out = append(out, l)
	}
	if !added {
		out = append(out, current)
	}
	return out
}
