package web

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/evcraddock/portfolio/internal/auth"
)

// authHandlers holds auth-related HTTP handlers.
type authHandlers struct {
	config   auth.Config
	tokens   *auth.TokenStore
	sessions *auth.SessionStore
	mailer   *auth.Mailer
	render   func(w http.ResponseWriter, name string, data interface{})
}

type loginData struct {
	Message string
	Error   string
	Next    string
	DevLink string
}

const linkSentMsg = "A login link has been sent. Check your inbox."

// handleLoginPage renders the login form.
func (h *authHandlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", loginData{Next: auth.LocalPath(r.URL.Query().Get("next"))})
}

// handleLoginSubmit emails a magic link to any valid address. Commenting
// is open to everyone who can prove they own an email address.
func (h *authHandlers) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	next := auth.LocalPath(r.FormValue("next"))
	email, ok := normalizeEmail(r.FormValue("email"))
	if !ok {
		h.render(w, "login.html", loginData{Error: "A valid email is required", Next: next})
		return
	}

	data := loginData{Message: linkSentMsg, Next: next}
	link, err := sendLoginLink(h.tokens, h.mailer, email, next)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("sending login link")
	}
	if h.config.DevMode {
		data.DevLink = link
	}
	h.render(w, "login.html", data)
}

// handleVerify redeems a magic link token, creates a session and sends the
// user where the link was requested from.
func (h *authHandlers) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.render(w, "login.html", loginData{Error: "Invalid login link"})
		return
	}

	email, next, err := h.tokens.Redeem(token)
	if err != nil {
		h.render(w, "login.html", loginData{Error: "Invalid or expired login link. Please request a new one."})
		return
	}

	if err := h.sessions.Create(w, email); err != nil {
		log.Error().Err(err).Msg("creating session")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	log.Info().Str("email", email).Str("method", "magic_link").Msg("login success")
	http.Redirect(w, r, auth.LocalPath(next), http.StatusSeeOther)
}

// handleLogout destroys the session and returns to the page.
func (h *authHandlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(w, r); err != nil {
		log.Warn().Err(err).Msg("destroying session")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func sendLoginLink(tokens *auth.TokenStore, mailer *auth.Mailer, email, next string) (string, error) {
	token, err := tokens.Create(email, next)
	if err != nil {
		return "", err
	}
	return mailer.SendLoginLink(email, token)
}

func normalizeEmail(raw string) (string, bool) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}
