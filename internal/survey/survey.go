// Package survey records votes for the breakfast survey shown on the page.
package survey

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Options are the answers the survey form offers.
var Options = []string{
	"Scrambled",
	"Sunny side up",
	"Hard boiled",
	"In a breakfast sandwich",
	"Omelet",
}

// IsOption reports whether s is one of the survey answers.
func IsOption(s string) bool {
	for _, o := range Options {
		if s == o {
			return true
		}
	}
	return false
}

// Repository stores vote counts per option.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a survey repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Vote adds one vote for option and returns the new count.
func (r *Repository) Vote(option string) (int, error) {
	option = strings.TrimSpace(option)
	if !IsOption(option) {
		return 0, fmt.Errorf("invalid survey option: %q", option)
	}

	if _, err := r.db.Exec(
		`INSERT INTO survey_votes (option, votes) VALUES (?, 1)
		 ON CONFLICT(option) DO UPDATE SET votes = votes + 1, updated_at = CURRENT_TIMESTAMP`,
		option,
	); err != nil {
		return 0, fmt.Errorf("recording vote: %w", err)
	}

	var votes int
	if err := r.db.QueryRow("SELECT votes FROM survey_votes WHERE option = ?", option).Scan(&votes); err != nil {
		return 0, fmt.Errorf("reading back votes: %w", err)
	}
	return votes, nil
}

// Counts returns the vote count for every option that has at least one vote.
func (r *Repository) Counts() (map[string]int, error) {
	rows, err := r.db.Query("SELECT option, votes FROM survey_votes")
	if err != nil {
		return nil, fmt.Errorf("listing votes: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("closing vote rows")
		}
	}()

	counts := make(map[string]int)
	for rows.Next() {
		var option string
		var votes int
		if err := rows.Scan(&option, &votes); err != nil {
			return nil, fmt.Errorf("scanning vote: %w", err)
		}
		counts[option] = votes
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating votes: %w", err)
	}

	return counts, nil
}
