package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/evcraddock/portfolio/internal/comment"
	"github.com/evcraddock/portfolio/internal/commentsync"
	"github.com/evcraddock/portfolio/internal/survey"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// viewJSON is the --format json shape of the comment list.
type viewJSON struct {
	State    commentsync.State `json:"state"`
	LoggedIn bool              `json:"loggedIn"`
	Email    string            `json:"email,omitempty"`
	Comments []entryJSON       `json:"comments"`
}

type entryJSON struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Email   string       `json:"email,omitempty"`
	Message string       `json:"message"`
	Mood    comment.Mood `json:"mood"`
}

// printView prints the comment list and the login line.
func printView(w io.Writer, v commentsync.View) error {
	if isJSON() {
		out := viewJSON{
			State:    v.State,
			LoggedIn: v.Login.FormVisible,
			Email:    v.Login.Email,
			Comments: make([]entryJSON, 0, len(v.Entries)),
		}
		for _, e := range v.Entries {
			out.Comments = append(out.Comments, entryJSON{
				ID: e.ID, Name: e.Name, Email: e.Email, Message: e.Message, Mood: e.Mood,
			})
		}
		return printJSON(w, out)
	}

	switch {
	case v.Login.FormVisible:
		fmt.Fprintf(w, "Logged in as %s\n\n", v.Login.Email)
	case v.Login.Link != nil:
		fmt.Fprintln(w, "Not logged in (run 'pf login' to comment)")
		fmt.Fprintln(w)
	}

	if len(v.Entries) == 0 {
		fmt.Fprintln(w, v.Message)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tNAME\tMOOD\tMESSAGE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t----\t----\t-------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, e := range v.Entries {
		name := e.Name
		if name == "" {
			name = "anonymous"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.ID, truncate(name, 20), e.Mood, truncate(e.Message, 60)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(w, "\nShowing %d of at most %d comments\n", len(v.Entries), v.Limit)
	return nil
}

// printCommentSingle prints a newly added comment in text format.
func printCommentSingle(w io.Writer, c *comment.Comment) {
	fmt.Fprintf(w, "Comment %s added.\n  %s\n", c.ID, c.Message)
}

// printCounts prints survey results, known options first.
func printCounts(w io.Writer, counts map[string]int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	seen := make(map[string]bool, len(counts))
	for _, o := range survey.Options {
		seen[o] = true
		if _, err := fmt.Fprintf(tw, "%s\t%d\n", o, counts[o]); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
	}

	var extra []string
	for o := range counts {
		if !seen[o] {
			extra = append(extra, o)
		}
	}
	sort.Strings(extra)
	for _, o := range extra {
		if _, err := fmt.Fprintf(tw, "%s\t%d\n", o, counts[o]); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
	}

	return tw.Flush()
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
