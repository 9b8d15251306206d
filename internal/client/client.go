// Package client provides an HTTP client for the portfolio comment API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/evcraddock/portfolio/internal/auth"
	"github.com/evcraddock/portfolio/internal/comment"
)

const defaultMaxRetries = 3

// Client is an HTTP client for the portfolio API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	newBackOff func() backoff.BackOff
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets how often transient failures are retried and the first
// wait between attempts. maxRetries 0 disables retries.
func WithRetry(maxRetries uint64, initial time.Duration) Option {
	return func(c *Client) {
		c.newBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initial
			b.MaxElapsedTime = 0
			return backoff.WithMaxRetries(b, maxRetries)
		}
	}
}

// New creates a new API client.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	WithRetry(defaultMaxRetries, 250*time.Millisecond)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Comments returns at most limit comments, oldest first.
func (c *Client) Comments(ctx context.Context, limit int) ([]comment.Comment, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("comment limit must be positive, got %d", limit)
	}

	var comments []comment.Comment
	path := "/data?comment-limit=" + strconv.Itoa(limit)
	if err := c.get(ctx, path, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment posts a new comment and returns the stored record.
func (c *Client) AddComment(ctx context.Context, in comment.NewComment) (*comment.Comment, error) {
	form := url.Values{
		"name":    {in.Name},
		"email":   {in.Email},
		"message": {in.Message},
		"mood":    {string(in.Mood)},
	}

	var created comment.Comment
	if err := c.postForm(ctx, "/data", form, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteComment asks the server to remove the comment with id.
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.postForm(ctx, "/delete-data", url.Values{"id": {id}}, nil)
}

// LoginStatus reports whether the caller is logged in.
func (c *Client) LoginStatus(ctx context.Context) (*auth.LoginStatus, error) {
	var status auth.LoginStatus
	if err := c.get(ctx, "/login-status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Survey returns the breakfast survey vote counts.
func (c *Client) Survey(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	if err := c.get(ctx, "/survey-data", &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// Vote records one survey vote and returns the updated counts.
func (c *Client) Vote(ctx context.Context, option string) (map[string]int, error) {
	counts := map[string]int{}
	if err := c.postForm(ctx, "/survey-data", url.Values{"bfast-survey": {option}}, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// APIKey is one of the caller's keys as listed by the server. The raw
// key is never sent back; KeyPrefix identifies it.
type APIKey struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	KeyPrefix  string  `json:"key_prefix"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
}

// APIKeys lists the caller's API keys.
func (c *Client) APIKeys(ctx context.Context) ([]APIKey, error) {
	var keys []APIKey
	if err := c.get(ctx, "/api/keys", &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// RevokeAPIKey deletes one of the caller's API keys.
func (c *Client) RevokeAPIKey(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/keys/"+strconv.FormatInt(id, 10), nil, nil)
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// postForm performs a form-encoded POST and decodes the response.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, form, result)
}

// do executes a request, retrying transient failures with exponential backoff.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, result interface{}) error {
	op := method + " " + strings.SplitN(path, "?", 2)[0]

	attempt := func() error {
		err := c.once(ctx, method, path, form, result)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrTransient) && ctx.Err() == nil {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, wait time.Duration) {
		log.Debug().Err(err).Dur("wait", wait).Str("op", op).Msg("retrying request")
	}

	return backoff.RetryNotify(attempt, backoff.WithContext(c.newBackOff(), ctx), notify)
}

// once executes a single request with the auth header and classifies failures.
func (c *Client) once(ctx context.Context, method, path string, form url.Values, result interface{}) error {
	op := method + " " + strings.SplitN(path, "?", 2)[0]

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &Error{Op: op, Kind: ErrTransient, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("closing response body")
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Kind: ErrTransient, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		var cause error
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			cause = errors.New(errResp.Error)
		}
		return &Error{Op: op, Status: resp.StatusCode, Kind: kindForStatus(resp.StatusCode), Err: cause}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &Error{Op: op, Status: resp.StatusCode, Kind: ErrMalformed, Err: fmt.Errorf("decoding response: %w", err)}
		}
	}

	return nil
}
