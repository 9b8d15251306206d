package comment

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned when no comment has the requested id.
	ErrNotFound = errors.New("comment not found")
	// ErrEmptyMessage is returned when a comment has no text.
	ErrEmptyMessage = errors.New("comment message is required")
	// ErrInvalidMood is returned for a mood outside ValidMoods.
	ErrInvalidMood = errors.New("invalid mood")
)

const anonymousName = "Anonymous"

// Repository provides CRUD operations for comments.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a comment repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add stores a new comment. author is the login email of the submitter and
// is kept server-side only.
func (r *Repository) Add(in NewComment, author string) (*Comment, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if !in.Mood.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMood, in.Mood)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = anonymousName
	}

	id := uuid.NewString()
	if _, err := r.db.Exec(
		"INSERT INTO comments (id, name, email, message, mood, author) VALUES (?, ?, ?, ?, ?, ?)",
		id, name, strings.TrimSpace(in.Email), message, in.Mood, author,
	); err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}

	c, err := r.Get(id)
	if err != nil {
		return nil, fmt.Errorf("reading back comment: %w", err)
	}
	return c, nil
}

// Get returns a single comment by id.
func (r *Repository) Get(id string) (*Comment, error) {
	var c Comment
	err := r.db.QueryRow(
		"SELECT id, name, email, message, mood, author, created_at FROM comments WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.Mood, &c.Author, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying comment: %w", err)
	}
	return &c, nil
}

// List returns at most limit comments, oldest first.
func (r *Repository) List(limit int) ([]*Comment, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := r.db.Query(
		"SELECT id, name, email, message, mood, author, created_at FROM comments ORDER BY created_at ASC, rowid ASC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("closing comment rows")
		}
	}()

	comments := make([]*Comment, 0, limit)
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.Mood, &c.Author, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}

	return comments, nil
}

// Delete removes a comment by id.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
