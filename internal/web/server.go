// Package web provides the HTTP server for the portfolio page and its
// comment, survey and login endpoints.
package web

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/evcraddock/portfolio/internal/auth"
	"github.com/evcraddock/portfolio/internal/comment"
	"github.com/evcraddock/portfolio/internal/config"
	"github.com/evcraddock/portfolio/internal/logging"
	"github.com/evcraddock/portfolio/internal/site"
	"github.com/evcraddock/portfolio/internal/survey"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const cleanupInterval = time.Hour

// Server is the portfolio HTTP server.
type Server struct {
	cfg      *config.Config
	authCfg  auth.Config
	comments *comment.Repository
	votes    *survey.Repository
	sessions *auth.SessionStore
	tokens   *auth.TokenStore
	apiKeys  *auth.APIKeyStore
	passkeys *auth.PasskeyStore
	ids      site.Bindings

	templates *template.Template
	router    chi.Router
}

// NewServer creates a server backed by db.
func NewServer(db *sql.DB, cfg *config.Config) (*Server, error) {
	funcMap := template.FuncMap{
		"moodLabel": tmplMoodLabel,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	authCfg := auth.ConfigFrom(cfg)
	s := &Server{
		cfg:       cfg,
		authCfg:   authCfg,
		comments:  comment.NewRepository(db),
		votes:     survey.NewRepository(db),
		sessions:  auth.NewSessionStore(db, authCfg.SecureCookies()),
		tokens:    auth.NewTokenStore(db),
		apiKeys:   auth.NewAPIKeyStore(db),
		passkeys:  auth.NewPasskeyStore(db),
		ids:       site.DefaultBindings(),
		templates: tmpl,
	}

	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() error {
	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static sub-fs: %w", err)
	}
	imageContent, err := fs.Sub(staticFS, "static/images")
	if err != nil {
		return fmt.Errorf("creating images sub-fs: %w", err)
	}

	ah := &authHandlers{
		config:   s.authCfg,
		tokens:   s.tokens,
		sessions: s.sessions,
		mailer:   auth.NewMailer(s.authCfg),
		render:   s.render,
	}
	ph, err := newPasskeyHandlers(s.authCfg, s.passkeys, s.sessions)
	if err != nil {
		return fmt.Errorf("configuring passkeys: %w", err)
	}
	ch := &cliAuthHandlers{
		tokens:  s.tokens,
		apiKeys: s.apiKeys,
		mailer:  ah.mailer,
		devMode: s.authCfg.DevMode,
		render:  s.render,
	}
	kh := &apikeyHandlers{apiKeys: s.apiKeys}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	// cors treats an empty origin list as "allow all", so only install it when configured.
	if origins := s.cfg.AllowedOrigins(); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(func(next http.Handler) http.Handler {
		return auth.Identify(s.sessions, s.apiKeys, next)
	})

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.FS(imageContent))))
	r.Get("/health", s.handleHealth)

	// Page
	r.Get("/", s.handleIndex)
	r.Get("/comments", s.handleCommentsPartial)

	// Wire contract
	r.Get("/data", s.handleListComments)
	r.Get("/login-status", s.handleLoginStatus)
	r.Get("/chart-data", s.handleChartData)
	r.Get("/random-fact", s.handleRandomFact)
	r.Get("/survey-data", s.handleSurveyCounts)
	r.Post("/survey-data", s.handleSurveyVote)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin)
		r.Post("/data", s.handleAddComment)
		r.Post("/delete-data", s.handleDeleteComment)
		r.Get("/api/keys", kh.handleListKeys)
		r.Delete("/api/keys/{id}", kh.handleDeleteKey)
		r.Post("/passkey/register/begin", ph.handleBeginRegistration)
		r.Post("/passkey/register/finish", ph.handleFinishRegistration)
	})

	// Login
	r.Get("/login", ah.handleLoginPage)
	r.Post("/auth/login", ah.handleLoginSubmit)
	r.Get("/auth/verify", ah.handleVerify)
	r.Get("/auth/logout", ah.handleLogout)
	r.Post("/auth/logout", ah.handleLogout)
	r.Post("/passkey/login/begin", ph.handleBeginLogin)
	r.Post("/passkey/login/finish", ph.handleFinishLogin)
	r.Get("/cli/auth", ch.handleCLIAuthPage)
	r.Post("/cli/auth", ch.handleCLIAuthSubmit)
	r.Get("/cli/auth/complete", ch.handleCLIAuthComplete)

	s.router = r
	return nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured port until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.cleanupLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_url", s.cfg.BaseURL).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// cleanupLoop periodically removes expired sessions and login tokens.
func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sessions.Cleanup(); err != nil {
				log.Warn().Err(err).Msg("cleaning up sessions")
			}
			if err := s.tokens.Cleanup(); err != nil {
				log.Warn().Err(err).Msg("cleaning up tokens")
			}
		}
	}
}

// render executes a template into a buffer so a failure never sends a
// half-written page.
func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("rendering template")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn().Err(err).Msg("writing response")
	}
}

func tmplMoodLabel(m comment.Mood) string {
	if m == "" {
		return ""
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}
