package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/evcraddock/portfolio/internal/auth"
)

const (
	ceremonyCookie = "pf_passkey"
	ceremonyTTL    = 5 * time.Minute
)

// passkeyHandlers holds WebAuthn-related HTTP handlers.
type passkeyHandlers struct {
	wan      *webauthn.WebAuthn
	passkeys *auth.PasskeyStore
	sessions *auth.SessionStore
	secure   bool

	// In-flight ceremonies. Registration is keyed by email, login by a
	// random id carried in a short-lived cookie.
	mu            sync.Mutex
	regSessions   map[string]*webauthn.SessionData
	loginSessions map[string]*webauthn.SessionData
}

func newPasskeyHandlers(cfg auth.Config, passkeys *auth.PasskeyStore, sessions *auth.SessionStore) (*passkeyHandlers, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Portfolio",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{baseURL},
	})
	if err != nil {
		return nil, err
	}

	return &passkeyHandlers{
		wan:           wan,
		passkeys:      passkeys,
		sessions:      sessions,
		secure:        cfg.SecureCookies(),
		regSessions:   make(map[string]*webauthn.SessionData),
		loginSessions: make(map[string]*webauthn.SessionData),
	}, nil
}

// handleBeginRegistration starts passkey registration for the logged in user.
func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	email := auth.EmailFromContext(r.Context())

	creds, err := h.passkeys.WebAuthnCredentials(email)
	if err != nil {
		log.Error().Err(err).Msg("loading credentials")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	user := auth.NewPasskeyUser(email, creds)

	// Exclude existing credentials so the same authenticator is not registered twice.
	excludeList := make([]protocol.CredentialDescriptor, len(creds))
	for i, c := range creds {
		excludeList[i] = c.Descriptor()
	}

	creation, session, err := h.wan.BeginRegistration(user,
		webauthn.WithExclusions(excludeList),
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
	)
	if err != nil {
		log.Error().Err(err).Msg("beginning registration")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	h.regSessions[email] = session
	h.mu.Unlock()

	apiJSON(w, creation, http.StatusOK)
}

// handleFinishRegistration completes passkey registration.
func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	email := auth.EmailFromContext(r.Context())

	h.mu.Lock()
	session, ok := h.regSessions[email]
	delete(h.regSessions, email)
	h.mu.Unlock()

	if !ok {
		http.Error(w, "No registration in progress", http.StatusBadRequest)
		return
	}

	creds, err := h.passkeys.WebAuthnCredentials(email)
	if err != nil {
		log.Error().Err(err).Msg("loading credentials")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	credential, err := h.wan.FinishRegistration(auth.NewPasskeyUser(email, creds), *session, r)
	if err != nil {
		log.Warn().Err(err).Msg("finishing registration")
		http.Error(w, "Registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}

	if err := h.passkeys.Save(email, name, credential); err != nil {
		log.Error().Err(err).Msg("saving credential")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	log.Info().Str("email", email).Str("name", name).Msg("passkey registered")
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleBeginLogin starts a discoverable passkey login.
func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	assertion, session, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		log.Error().Err(err).Msg("beginning passkey login")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.pruneLogins()
	h.loginSessions[id] = session
	h.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     ceremonyCookie,
		Value:    id,
		Path:     "/passkey/",
		MaxAge:   int(ceremonyTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
	apiJSON(w, assertion, http.StatusOK)
}

// handleFinishLogin completes passkey login and creates a session.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(ceremonyCookie)
	if err != nil {
		http.Error(w, "No login in progress", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	session, ok := h.loginSessions[cookie.Value]
	delete(h.loginSessions, cookie.Value)
	h.mu.Unlock()

	if !ok || (!session.Expires.IsZero() && time.Now().After(session.Expires)) {
		http.Error(w, "No login in progress", http.StatusBadRequest)
		return
	}

	var user *auth.PasskeyUser
	handler := func(rawID, userHandle []byte) (webauthn.User, error) {
		u, err := h.passkeys.FindByUserHandle(userHandle)
		if errors.Is(err, auth.ErrUnknownPasskey) {
			return nil, protocol.ErrBadRequest.WithDetails("unknown user")
		}
		if err != nil {
			return nil, err
		}
		user = u
		return u, nil
	}

	_, credential, err := h.wan.FinishPasskeyLogin(handler, *session, r)
	if err != nil {
		log.Warn().Err(err).Msg("finishing passkey login")
		http.Error(w, "Login failed", http.StatusUnauthorized)
		return
	}

	if err := h.passkeys.UpdateCredential(credential); err != nil {
		log.Warn().Err(err).Msg("updating passkey counter")
	}

	email := user.WebAuthnName()
	if err := h.sessions.Create(w, email); err != nil {
		log.Error().Err(err).Msg("creating session")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	log.Info().Str("email", email).Str("method", "passkey").Msg("login success")
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// pruneLogins drops abandoned login ceremonies. Callers hold h.mu.
func (h *passkeyHandlers) pruneLogins() {
	now := time.Now()
	for id, s := range h.loginSessions {
		if !s.Expires.IsZero() && now.After(s.Expires) {
			delete(h.loginSessions, id)
		}
	}
}
