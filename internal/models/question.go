package models

import (
	"time"

	"github.com/google/uuid"
)

// Question is a forum question. Upvotes and Downvotes are the voter sets and
// are only populated when a single question is loaded; list views carry the
// counts alone.
type Question struct {
	ID            uuid.UUID   `json:"id"`
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	AuthorID      uuid.UUID   `json:"author_id"`
	Author        *Author     `json:"author,omitempty"`
	Tags          []TagRef    `json:"tags"`
	Upvotes       []uuid.UUID `json:"upvotes,omitempty"`
	Downvotes     []uuid.UUID `json:"downvotes,omitempty"`
	UpvoteCount   int         `json:"upvote_count"`
	DownvoteCount int         `json:"downvote_count"`
	Views         int         `json:"views"`
	AnswerCount   int         `json:"answer_count"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// QuestionPage is one page of a question listing.
type QuestionPage struct {
	Questions []*Question `json:"questions"`
	IsNext    bool        `json:"is_next"`
}

// TagNames returns the display names of the question's tags.
func (q *Question) TagNames() []string {
	names := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		names = append(names, t.Name)
	}
	return names
}

// TagIDs returns the identities of the question's tags.
func (q *Question) TagIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(q.Tags))
	for _, t := range q.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}
