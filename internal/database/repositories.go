package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/benvon/codemate/internal/forum"
	"github.com/benvon/codemate/internal/models"
)

// QuestionStore is the question side of the storage port.
type QuestionStore interface {
	List(ctx context.Context, spec forum.QuerySpec) ([]*models.Question, int, error)
	Hot(ctx context.Context, limit int) ([]*models.Question, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error)
	Create(ctx context.Context, q *models.Question, tagNames []string, authorReward int) ([]models.TagRef, error)
	Update(ctx context.Context, q *models.Question, diff forum.TagDiff, pruneEmpty bool) ([]models.TagRef, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecordView(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) error
}

// AnswerStore is the answer side of the storage port.
type AnswerStore interface {
	Create(ctx context.Context, a *models.Answer, authorReward int) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Answer, error)
	ListByQuestion(ctx context.Context, questionID uuid.UUID, sort forum.AnswerSort, page, pageSize int) ([]*models.Answer, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TagStore interface {
	FindOrCreate(ctx context.Context, name string) (models.TagRef, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	GetByName(ctx context.Context, name string) (*models.Tag, error)
	Popular(ctx context.Context, limit int) ([]*models.Tag, error)
	SetDescription(ctx context.Context, id uuid.UUID, description string) error
	PruneEmpty(ctx context.Context) (int64, error)
}

type UserStore interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	ToggleSaved(ctx context.Context, userID, questionID uuid.UUID) (bool, error)
}

type InteractionStore interface {
	Record(ctx context.Context, in *models.Interaction) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Interaction, error)
}

// AppliedVote is the result of one vote: the actor's stored state before
// the vote, what was applied and the item's new tally.
type AppliedVote struct {
	Previous forum.VoteState
	Outcome  forum.VoteOutcome
	Tally    *models.VoteTally
}

// VoteStore reconciles a vote against the actor's stored vote and applies
// it atomically.
type VoteStore interface {
	ApplyQuestionVote(ctx context.Context, questionID, actorID uuid.UUID, action forum.VoteAction) (*AppliedVote, error)
	ApplyAnswerVote(ctx context.Context, answerID, actorID uuid.UUID, action forum.VoteAction) (*AppliedVote, error)
}

type SearchStore interface {
	Search(ctx context.Context, t forum.SearchType, query string, limit int) ([]forum.SearchHit, error)
}

type SettingsStore interface {
	RateLimit(ctx context.Context) (*models.RateLimitSetting, error)
	SetRateLimit(ctx context.Context, rate string) error
	CORS(ctx context.Context) (*models.CORSSetting, error)
	SetCORS(ctx context.Context, s *models.CORSSetting) error
}

// Ensure concrete types implement the interfaces
var (
	_ QuestionStore    = (*QuestionRepository)(nil)
	_ AnswerStore      = (*AnswerRepository)(nil)
	_ TagStore         = (*TagRepository)(nil)
	_ UserStore        = (*UserRepository)(nil)
	_ InteractionStore = (*InteractionRepository)(nil)
	_ VoteStore        = (*VoteRepository)(nil)
	_ SearchStore      = (*SearchRepository)(nil)
	_ SettingsStore    = (*SettingsRepository)(nil)
)
