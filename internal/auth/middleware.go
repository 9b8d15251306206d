package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type contextKey struct{}

// EmailFromContext returns the email attached by Identify, or "".
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(contextKey{}).(string)
	return email
}

// WithEmail returns a copy of ctx carrying email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, contextKey{}, email)
}

// Identify attaches the caller's email to the request context. A bearer API
// key takes precedence over the session cookie. Anonymous requests pass
// through; an invalid bearer key is rejected with 401, and repeated failures
// from one IP with 429.
func Identify(sessions *SessionStore, apiKeys *APIKeyStore, next http.Handler) http.Handler {
	return identify(sessions, apiKeys, apiKeyLimiter, next)
}

func identify(sessions *SessionStore, apiKeys *APIKeyStore, rl *rateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Authorization required", http.StatusUnauthorized)
				return
			}

			ip := clientIP(r)
			if rl.limited(ip) {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}

			email, err := apiKeys.Validate(strings.TrimPrefix(authHeader, "Bearer "))
			if errors.Is(err, ErrInvalidAPIKey) {
				rl.recordFailure(ip)
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}
			if err != nil {
				log.Error().Err(err).Msg("validating api key")
				http.Error(w, "Internal error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
			return
		}

		email, err := sessions.Validate(r)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				log.Error().Err(err).Msg("validating session")
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
	})
}

// RequireLogin rejects requests without an identified user. Browser form
// posts are redirected to the login page, everything else gets a 401.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if EmailFromContext(r.Context()) != "" {
			next.ServeHTTP(w, r)
			return
		}
		if wantsHTML(r) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimiter tracks failed API key attempts per IP.
type rateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{attempts: make(map[string][]time.Time)}
}

var apiKeyLimiter = newRateLimiter()

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// recordFailure records a failed attempt.
func (rl *rateLimiter) recordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.attempts[ip] = append(rl.prune(ip, time.Now()), time.Now())
}

// limited reports whether ip has exhausted its failures in the current window.
func (rl *rateLimiter) limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := rl.prune(ip, time.Now())
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return false
	}
	rl.attempts[ip] = valid
	return len(valid) >= rateLimitMaxFail
}

func (rl *rateLimiter) prune(ip string, now time.Time) []time.Time {
	cutoff := now.Add(-rateLimitWindow)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	return valid
}
