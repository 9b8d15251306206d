// Package commentsync keeps a comment list view-model in sync with the
// comment API: fetch, render, mutate, re-fetch.
package commentsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/evcraddock/portfolio/internal/auth"
	"github.com/evcraddock/portfolio/internal/comment"
)

// ErrSuperseded is returned by a refresh whose result was discarded
// because a newer refresh started.
var ErrSuperseded = errors.New("refresh superseded by a newer one")

// API is the subset of the comment API the controller drives.
type API interface {
	Comments(ctx context.Context, limit int) ([]comment.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	LoginStatus(ctx context.Context) (*auth.LoginStatus, error)
}

// LimitSource yields the current comment limit.
type LimitSource interface {
	CommentLimit() int
}

// FixedLimit is a LimitSource that never changes.
type FixedLimit int

// CommentLimit returns the limit.
func (l FixedLimit) CommentLimit() int { return int(l) }

// Controller owns a View and the refreshes that update it. View mutation
// is serialized; network calls run outside the lock.
type Controller struct {
	api   API
	limit LimitSource

	mu     sync.Mutex
	view   *View
	seq    uint64
	cancel context.CancelFunc
}

// NewController creates a controller that renders into view.
func NewController(api API, view *View, limit LimitSource) *Controller {
	return &Controller{api: api, view: view, limit: limit}
}

// View returns a snapshot of the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.clone()
}

// Refresh re-checks the login status, then replaces the list with the
// latest comments. Starting a refresh cancels the one in flight; a
// refresh that lost the race returns ErrSuperseded and leaves the view alone.
func (c *Controller) Refresh(ctx context.Context) error {
	ctx, seq, done := c.begin(ctx)
	defer done()

	if _, err := c.checkLogin(ctx, seq); err != nil && !errors.Is(err, ErrSuperseded) {
		log.Warn().Err(err).Msg("checking login status")
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.view.Entries = nil
	c.mu.Unlock()

	limit := c.limit.CommentLimit()
	if limit <= 0 {
		return c.fail(seq, limit, fmt.Errorf("comment limit must be positive, got %d", limit))
	}

	comments, err := c.api.Comments(ctx, limit)
	if err != nil {
		return c.fail(seq, limit, fmt.Errorf("fetching comments: %w", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return ErrSuperseded
	}

	if len(comments) > limit {
		comments = comments[:limit]
	}
	entries := make([]Entry, 0, len(comments))
	for _, cm := range comments {
		entries = append(entries, RenderComment(cm))
	}

	c.view.Entries = entries
	c.view.Limit = limit
	c.view.Err = nil
	if len(entries) == 0 {
		c.view.State, c.view.Message = StateEmpty, MessageEmpty
	} else {
		c.view.State, c.view.Message = StateLoaded, ""
	}
	return nil
}

// Delete removes the entry for id from the view right away, asks the
// server to delete it and then refreshes once, whatever the delete returned.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	for i, e := range c.view.Entries {
		if e.ID == id {
			c.view.Entries = append(c.view.Entries[:i:i], c.view.Entries[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	var delErr error
	if err := c.api.DeleteComment(ctx, id); err != nil {
		delErr = fmt.Errorf("deleting comment %s: %w", id, err)
		log.Warn().Err(err).Str("id", id).Msg("deleting comment")
	}

	refreshErr := c.Refresh(ctx)
	if errors.Is(refreshErr, ErrSuperseded) {
		refreshErr = nil
	}
	return errors.Join(delErr, refreshErr)
}

// CheckLoginStatus fetches the login status and toggles the comment form
// and the login link. It returns whether the user is logged in.
func (c *Controller) CheckLoginStatus(ctx context.Context) (bool, error) {
	c.mu.Lock()
	seq := c.seq
	c.mu.Unlock()
	return c.checkLogin(ctx, seq)
}

func (c *Controller) checkLogin(ctx context.Context, seq uint64) (bool, error) {
	status, err := c.api.LoginStatus(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return false, ErrSuperseded
	}

	if err != nil {
		c.view.Login = LoginView{}
		return false, fmt.Errorf("fetching login status: %w", err)
	}

	loggedIn := status.LoggedIn()
	link := &Link{Label: LabelLogin, URL: status.URL}
	if loggedIn {
		link.Label = LabelLogout
	}
	c.view.Login = LoginView{FormVisible: loggedIn, Link: link, Email: status.Email}
	return loggedIn, nil
}

// begin starts a new refresh generation, cancelling the previous one.
func (c *Controller) begin(parent context.Context) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(parent)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	c.cancel = cancel
	c.view.State, c.view.Message = StateLoading, MessageLoading

	return ctx, seq, func() {
		cancel()
		c.mu.Lock()
		if c.seq == seq {
			c.cancel = nil
		}
		c.mu.Unlock()
	}
}

func (c *Controller) fail(seq uint64, limit int, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return ErrSuperseded
	}
	c.view.Entries = nil
	c.view.Limit = limit
	c.view.State, c.view.Message = StateFailed, MessageFailed
	c.view.Err = err
	return err
}
