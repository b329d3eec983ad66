package models

import (
	"time"

	"github.com/google/uuid"
)

// InteractionAction names what a user did.
type InteractionAction string

const (
	ActionAskQuestion InteractionAction = "ask_question"
	ActionAnswer      InteractionAction = "answer"
	ActionView        InteractionAction = "view"
	ActionUpvote      InteractionAction = "upvote"
	ActionDownvote    InteractionAction = "downvote"
)

// Interaction is an append-only record of user activity. The tag ids are the
// signal the recommendation filter reads.
type Interaction struct {
	ID         uuid.UUID         `json:"id"`
	UserID     uuid.UUID         `json:"user_id"`
	Action     InteractionAction `json:"action"`
	QuestionID *uuid.UUID        `json:"question_id,omitempty"`
	AnswerID   *uuid.UUID        `json:"answer_id,omitempty"`
	TagIDs     []uuid.UUID       `json:"tag_ids"`
	CreatedAt  time.Time         `json:"created_at"`
}
