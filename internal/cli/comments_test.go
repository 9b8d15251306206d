package cli

import (
	"database/sql"
	"encoding/json"
	"strings"
	"testing"

	"github.com/evcraddock/portfolio/internal/comment"
)

func seedComment(t *testing.T, d *sql.DB, message, author string) *comment.Comment {
	t.Helper()
	c, err := comment.NewRepository(d).Add(comment.NewComment{
		Name:    "Visitor",
		Message: message,
		Mood:    comment.Happy,
	}, author)
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	return c
}

func TestCommentsListsWithinLimit(t *testing.T) {
	d := startServer(t)
	seedComment(t, d, "first", "a@example.com")
	seedComment(t, d, "second", "a@example.com")
	seedComment(t, d, "third", "a@example.com")

	out, err := executeCommand("comments", "--limit", "2")
	if err != nil {
		t.Fatalf("comments: %v", err)
	}
	if strings.Count(out, "Visitor") != 2 {
		t.Errorf("output = %q, want exactly 2 rows", out)
	}
	if !strings.Contains(out, "Not logged in") {
		t.Errorf("output = %q, want login hint", out)
	}
	if !strings.Contains(out, "Showing 2 of at most 2 comments") {
		t.Errorf("output = %q, want summary line", out)
	}
}

func TestCommentsEmpty(t *testing.T) {
	startServer(t)

	out, err := executeCommand("comments")
	if err != nil {
		t.Fatalf("comments: %v", err)
	}
	if !strings.Contains(out, "No comments yet.") {
		t.Errorf("output = %q, want empty message", out)
	}
}

func TestCommentsJSON(t *testing.T) {
	d := startServer(t)
	seedComment(t, d, "hello", "a@example.com")
	loginAs(t, d, "a@example.com")

	out, err := executeCommand("comments", "--format", "json")
	if err != nil {
		t.Fatalf("comments: %v", err)
	}

	var got viewJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.State != "loaded" || !got.LoggedIn || got.Email != "a@example.com" {
		t.Errorf("view = %+v", got)
	}
	if len(got.Comments) != 1 || got.Comments[0].Message != "hello" || got.Comments[0].Mood != comment.Happy {
		t.Errorf("comments = %+v", got.Comments)
	}
}

func TestCommentsInvalidLimit(t *testing.T) {
	startServer(t)

	if _, err := executeCommand("comments", "--limit", "0"); err == nil {
		t.Fatal("expected error for zero limit")
	}
}

func TestCommentPostsAsLoggedInUser(t *testing.T) {
	d := startServer(t)
	loginAs(t, d, "visitor@example.com")

	out, err := executeCommand("comment", "nice", "site", "--name", "Vee", "--mood", "excited")
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if !strings.Contains(out, "added.") || !strings.Contains(out, "nice site") {
		t.Errorf("output = %q", out)
	}

	list, err := comment.NewRepository(d).List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("comments = %d, want 1", len(list))
	}
	c := list[0]
	if c.Name != "Vee" || c.Mood != comment.Excited || c.Author != "visitor@example.com" || c.Email != "visitor@example.com" {
		t.Errorf("comment = %+v", c)
	}
}

func TestCommentRequiresLogin(t *testing.T) {
	startServer(t)

	if _, err := executeCommand("comment", "hello"); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestDeleteOwnComment(t *testing.T) {
	d := startServer(t)
	mine := seedComment(t, d, "mine", "visitor@example.com")
	seedComment(t, d, "theirs", "other@example.com")
	loginAs(t, d, "visitor@example.com")

	out, err := executeCommand("delete", mine.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if strings.Contains(out, "mine") || !strings.Contains(out, "theirs") {
		t.Errorf("output = %q, want only the other comment", out)
	}

	if _, err := comment.NewRepository(d).Get(mine.ID); err == nil {
		t.Error("expected comment to be gone")
	}
}

func TestDeleteOthersCommentForbidden(t *testing.T) {
	d := startServer(t)
	theirs := seedComment(t, d, "theirs", "other@example.com")
	loginAs(t, d, "visitor@example.com")

	if _, err := executeCommand("delete", theirs.ID); err == nil {
		t.Fatal("expected error deleting someone else's comment")
	}

	if _, err := comment.NewRepository(d).Get(theirs.ID); err != nil {
		t.Errorf("comment should still exist: %v", err)
	}
}

func TestDeleteAsOwner(t *testing.T) {
	d := startServer(t)
	theirs := seedComment(t, d, "theirs", "other@example.com")
	loginAs(t, d, "owner@example.com")

	out, err := executeCommand("delete", theirs.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "No comments yet.") {
		t.Errorf("output = %q, want empty list", out)
	}
}

func TestSurveyAndVote(t *testing.T) {
	startServer(t)

	out, err := executeCommand("vote", "Omelet")
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if !strings.Contains(out, "Voted for Omelet") {
		t.Errorf("output = %q", out)
	}

	out, err = executeCommand("survey", "--format", "json")
	if err != nil {
		t.Fatalf("survey: %v", err)
	}
	var counts map[string]int
	if err := json.Unmarshal([]byte(out), &counts); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if counts["Omelet"] != 1 {
		t.Errorf("counts = %v, want one Omelet vote", counts)
	}
}

func TestFact(t *testing.T) {
	out, err := executeCommand("fact", "--format", "text")
	if err != nil {
		t.Fatalf("fact: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Error("expected a fact")
	}
}
