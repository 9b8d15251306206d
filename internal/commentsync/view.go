package commentsync

import "github.com/evcraddock/portfolio/internal/comment"

// State is the visible state of the comment list.
type State string

const (
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateEmpty   State = "empty"
	StateFailed  State = "failed"
)

// Messages shown for the non-loaded states.
const (
	MessageLoading = "Loading comments..."
	MessageEmpty   = "No comments yet."
	MessageFailed  = "Failed to load comments."
)

// Link labels for the login container.
const (
	LabelLogout = "Logout here"
	LabelLogin  = "Login here"
)

// MoodIconDir is the URL prefix of the mood icons.
const MoodIconDir = "/images/moods/"

// DeleteControl is the delete button of one entry.
type DeleteControl struct {
	CommentID string
	Action    string
}

// Entry is one rendered comment.
type Entry struct {
	ID      string
	Name    string
	Email   string
	Message string
	Mood    comment.Mood
	IconSrc string
	IconAlt string
	Delete  DeleteControl
}

// Link is the login or logout link.
type Link struct {
	Label string
	URL   string
}

// LoginView is the login container plus the comment form toggle.
type LoginView struct {
	FormVisible bool
	Link        *Link // nil when the status could not be determined
	Email       string
}

// View is the comment list view-model.
type View struct {
	State   State
	Message string
	Entries []Entry
	Login   LoginView
	Limit   int
	Err     error
}

// clone returns a copy that shares no slices or pointers with v.
func (v View) clone() View {
	out := v
	out.Entries = append([]Entry(nil), v.Entries...)
	if v.Login.Link != nil {
		l := *v.Login.Link
		out.Login.Link = &l
	}
	return out
}

// RenderComment turns a comment into a list entry. It has no side
// effects, so rendering the same comment twice yields equal, independent entries.
func RenderComment(c comment.Comment) Entry {
	return Entry{
		ID:      c.ID,
		Name:    c.Name,
		Email:   c.Email,
		Message: c.Message,
		Mood:    c.Mood,
		IconSrc: MoodIconDir + string(c.Mood) + ".png",
		IconAlt: string(c.Mood),
		Delete:  DeleteControl{CommentID: c.ID, Action: "/delete-data"},
	}
}
