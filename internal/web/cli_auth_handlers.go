package web

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/evcraddock/portfolio/internal/auth"
)

const cliCompletePath = "/cli/auth/complete"

// cliAuthHandlers handles the /cli/auth flow that hands an API key to `pf login`.
type cliAuthHandlers struct {
	tokens  *auth.TokenStore
	apiKeys *auth.APIKeyStore
	mailer  *auth.Mailer
	devMode bool
	render  func(w http.ResponseWriter, name string, data interface{})
}

type cliAuthData struct {
	APIKey  string
	Message string
	Error   string
	DevLink string
}

// handleCLIAuthPage shows the email form, or skips straight to the key
// when the browser is already logged in.
func (h *cliAuthHandlers) handleCLIAuthPage(w http.ResponseWriter, r *http.Request) {
	if auth.EmailFromContext(r.Context()) != "" {
		http.Redirect(w, r, cliCompletePath, http.StatusSeeOther)
		return
	}
	h.render(w, "cli_auth.html", cliAuthData{})
}

// handleCLIAuthSubmit emails a magic link that lands on the completion page.
func (h *cliAuthHandlers) handleCLIAuthSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email, ok := normalizeEmail(r.FormValue("email"))
	if !ok {
		h.render(w, "cli_auth.html", cliAuthData{Error: "A valid email is required"})
		return
	}

	data := cliAuthData{Message: linkSentMsg}
	link, err := sendLoginLink(h.tokens, h.mailer, email, cliCompletePath)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("sending cli login link")
	}
	if h.devMode {
		data.DevLink = link
	}
	h.render(w, "cli_auth.html", data)
}

// handleCLIAuthComplete generates an API key and displays it once.
func (h *cliAuthHandlers) handleCLIAuthComplete(w http.ResponseWriter, r *http.Request) {
	email := auth.EmailFromContext(r.Context())
	if email == "" {
		http.Redirect(w, r, "/cli/auth", http.StatusSeeOther)
		return
	}

	rawKey, _, err := h.apiKeys.Create("CLI", email)
	if err != nil {
		log.Error().Err(err).Msg("creating api key")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	log.Info().Str("email", email).Msg("cli api key issued")
	h.render(w, "cli_auth.html", cliAuthData{APIKey: rawKey})
}
