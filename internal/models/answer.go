package models

import (
	"time"

	"github.com/google/uuid"
)

// Answer belongs to exactly one question.
type Answer struct {
	ID            uuid.UUID   `json:"id"`
	QuestionID    uuid.UUID   `json:"question_id"`
	AuthorID      uuid.UUID   `json:"author_id"`
	Author        *Author     `json:"author,omitempty"`
	Content       string      `json:"content"`
	Upvotes       []uuid.UUID `json:"upvotes,omitempty"`
	Downvotes     []uuid.UUID `json:"downvotes,omitempty"`
	UpvoteCount   int         `json:"upvote_count"`
	DownvoteCount int         `json:"downvote_count"`
	CreatedAt     time.Time   `json:"created_at"`
}

type AnswerPage struct {
	Answers []*Answer `json:"answers"`
	IsNext  bool      `json:"is_next"`
}
