package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	domain "github.com/benvon/codemate/internal/forum"
	"github.com/benvon/codemate/internal/models"
	forumsvc "github.com/benvon/codemate/internal/services/forum"
)

// ForumService is the application layer the forum handlers call.
type ForumService interface {
	ListQuestions(ctx context.Context, viewer *uuid.UUID, spec domain.QuerySpec) (*models.QuestionPage, error)
	CreateQuestion(ctx context.Context, authorID uuid.UUID, in forumsvc.QuestionInput) (*models.Question, []string, error)
	GetQuestion(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*models.Question, error)
	EditQuestion(ctx context.Context, actorID, id uuid.UUID, in forumsvc.QuestionInput) (*models.Question, []string, error)
	DeleteQuestion(ctx context.Context, actorID, id uuid.UUID) ([]string, error)
	HotQuestions(ctx context.Context) ([]*models.Question, error)
	VoteQuestion(ctx context.Context, actorID, questionID uuid.UUID, in forumsvc.VoteInput) (*models.VoteTally, []string, error)
	ToggleSave(ctx context.Context, userID, questionID uuid.UUID) (bool, []string, error)

	CreateAnswer(ctx context.Context, authorID, questionID uuid.UUID, in forumsvc.AnswerInput) (*models.Answer, []string, error)
	ListAnswers(ctx context.Context, questionID uuid.UUID, sort domain.AnswerSort, page int) (*models.AnswerPage, error)
	DeleteAnswer(ctx context.Context, actorID, id uuid.UUID) ([]string, error)
	VoteAnswer(ctx context.Context, actorID, answerID uuid.UUID, in forumsvc.VoteInput) (*models.VoteTally, []string, error)

	GlobalSearch(ctx context.Context, query, typ string) ([]models.SearchResult, error)
	PopularTags(ctx context.Context) ([]*models.Tag, error)
	TagQuestions(ctx context.Context, tagID uuid.UUID, search string, page int) (*models.TagPage, error)
	DescribeTag(ctx context.Context, name string) (string, error)
	GenerateAnswer(ctx context.Context, question string) (string, error)
}

var _ ForumService = (*forumsvc.Service)(nil)

// Auth wraps handlers with authentication.
type Auth interface {
	Required(next http.Handler) http.Handler
	Optional(next http.Handler) http.Handler
}

// public is the identity wrapper for routes without authentication.
func public(next http.Handler) http.Handler { return next }
