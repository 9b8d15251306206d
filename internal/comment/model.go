// Package comment provides the comment domain model and data access.
package comment

import "time"

// Mood is the tag a visitor picks when leaving a comment. It selects the
// icon shown next to the comment.
type Mood string

const (
	Happy   Mood = "happy"
	Sad     Mood = "sad"
	Excited Mood = "excited"
	Angry   Mood = "angry"
	Neutral Mood = "neutral"
)

// ValidMoods is the set of moods accepted on create.
var ValidMoods = []Mood{Happy, Sad, Excited, Angry, Neutral}

// IsValid checks if a mood is recognized.
func (m Mood) IsValid() bool {
	for _, v := range ValidMoods {
		if m == v {
			return true
		}
	}
	return false
}

// Comment is a visitor comment as stored on the server and sent over the wire.
type Comment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Message   string    `json:"message"`
	Mood      Mood      `json:"mood"`
	Author    string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewComment holds the fields a visitor submits.
type NewComment struct {
	Name    string
	Email   string
	Message string
	Mood    Mood
}
