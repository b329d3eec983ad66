package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a topic label. Names are unique ignoring case; the stored Name keeps
// the spelling it was first created with.
type Tag struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// TagRef is the identity and display name of a tag attached to a question.
type TagRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// TagPage is one page of the questions carrying a tag.
type TagPage struct {
	Tag       *Tag        `json:"tag"`
	Questions []*Question `json:"questions"`
	IsNext    bool        `json:"is_next"`
}
