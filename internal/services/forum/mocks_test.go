package forum

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/benvon/codemate/internal/database"
	domain "github.com/benvon/codemate/internal/forum"
	"github.com/benvon/codemate/internal/models"
	"github.com/benvon/codemate/internal/queue"
)

type mockQuestionStore struct {
	ListFunc       func(ctx context.Context, spec domain.QuerySpec) ([]*models.Question, int, error)
	HotFunc        func(ctx context.Context, limit int) ([]*models.Question, error)
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*models.Question, error)
	CreateFunc     func(ctx context.Context, q *models.Question, tagNames []string, authorReward int) ([]models.TagRef, error)
	UpdateFunc     func(ctx context.Context, q *models.Question, diff domain.TagDiff, pruneEmpty bool) ([]models.TagRef, error)
	DeleteFunc     func(ctx context.Context, id uuid.UUID) error
	RecordViewFunc func(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) error
}

func (m *mockQuestionStore) List(ctx context.Context, spec domain.QuerySpec) ([]*models.Question, int, error) {
	return m.ListFunc(ctx, spec)
}

func (m *mockQuestionStore) Hot(ctx context.Context, limit int) ([]*models.Question, error) {
	return m.HotFunc(ctx, limit)
}

func (m *mockQuestionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockQuestionStore) Create(ctx context.Context, q *models.Question, tagNames []string, authorReward int) ([]models.TagRef, error) {
	return m.CreateFunc(ctx, q, tagNames, authorReward)
}

func (m *mockQuestionStore) Update(ctx context.Context, q *models.Question, diff domain.TagDiff, pruneEmpty bool) ([]models.TagRef, error) {
	return m.UpdateFunc(ctx, q, diff, pruneEmpty)
}

func (m *mockQuestionStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockQuestionStore) RecordView(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) error {
	return m.RecordViewFunc(ctx, id, viewer)
}

type mockAnswerStore struct {
	CreateFunc         func(ctx context.Context, a *models.Answer, authorReward int) error
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*models.Answer, error)
	ListByQuestionFunc func(ctx context.Context, questionID uuid.UUID, sort domain.AnswerSort, page, pageSize int) ([]*models.Answer, int, error)
	DeleteFunc         func(ctx context.Context, id uuid.UUID) error
}

func (m *mockAnswerStore) Create(ctx context.Context, a *models.Answer, authorReward int) error {
	return m.CreateFunc(ctx, a, authorReward)
}

func (m *mockAnswerStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Answer, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockAnswerStore) ListByQuestion(ctx context.Context, questionID uuid.UUID, sort domain.AnswerSort, page, pageSize int) ([]*models.Answer, int, error) {
	return m.ListByQuestionFunc(ctx, questionID, sort, page, pageSize)
}

func (m *mockAnswerStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

type mockTagStore struct {
	FindOrCreateFunc   func(ctx context.Context, name string) (models.TagRef, bool, error)
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	GetByNameFunc      func(ctx context.Context, name string) (*models.Tag, error)
	PopularFunc        func(ctx context.Context, limit int) ([]*models.Tag, error)
	SetDescriptionFunc func(ctx context.Context, id uuid.UUID, description string) error
	PruneEmptyFunc     func(ctx context.Context) (int64, error)
}

func (m *mockTagStore) FindOrCreate(ctx context.Context, name string) (models.TagRef, bool, error) {
	return m.FindOrCreateFunc(ctx, name)
}

func (m *mockTagStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockTagStore) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	return m.GetByNameFunc(ctx, name)
}

func (m *mockTagStore) Popular(ctx context.Context, limit int) ([]*models.Tag, error) {
	return m.PopularFunc(ctx, limit)
}

func (m *mockTagStore) SetDescription(ctx context.Context, id uuid.UUID, description string) error {
	return m.SetDescriptionFunc(ctx, id, description)
}

func (m *mockTagStore) PruneEmpty(ctx context.Context) (int64, error) {
	return m.PruneEmptyFunc(ctx)
}

type mockUserStore struct {
	UpsertFunc          func(ctx context.Context, user *models.User) error
	GetByIDFunc         func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByProviderIDFunc func(ctx context.Context, providerID string) (*models.User, error)
	ToggleSavedFunc     func(ctx context.Context, userID, questionID uuid.UUID) (bool, error)
}

func (m *mockUserStore) Upsert(ctx context.Context, user *models.User) error {
	return m.UpsertFunc(ctx, user)
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockUserStore) GetByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	return m.GetByProviderIDFunc(ctx, providerID)
}

func (m *mockUserStore) ToggleSaved(ctx context.Context, userID, questionID uuid.UUID) (bool, error) {
	return m.ToggleSavedFunc(ctx, userID, questionID)
}

type mockInteractionStore struct {
	RecordFunc     func(ctx context.Context, in *models.Interaction) error
	ListByUserFunc func(ctx context.Context, userID uuid.UUID) ([]models.Interaction, error)
}

func (m *mockInteractionStore) Record(ctx context.Context, in *models.Interaction) error {
	return m.RecordFunc(ctx, in)
}

func (m *mockInteractionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Interaction, error) {
	return m.ListByUserFunc(ctx, userID)
}

type mockVoteStore struct {
	ApplyQuestionVoteFunc func(ctx context.Context, questionID, actorID uuid.UUID, action domain.VoteAction) (*database.AppliedVote, error)
	ApplyAnswerVoteFunc   func(ctx context.Context, answerID, actorID uuid.UUID, action domain.VoteAction) (*database.AppliedVote, error)
}

func (m *mockVoteStore) ApplyQuestionVote(ctx context.Context, questionID, actorID uuid.UUID, action domain.VoteAction) (*database.AppliedVote, error) {
	return m.ApplyQuestionVoteFunc(ctx, questionID, actorID, action)
}

func (m *mockVoteStore) ApplyAnswerVote(ctx context.Context, answerID, actorID uuid.UUID, action domain.VoteAction) (*database.AppliedVote, error) {
	return m.ApplyAnswerVoteFunc(ctx, answerID, actorID, action)
}

type mockSearchStore struct {
	SearchFunc func(ctx context.Context, t domain.SearchType, query string, limit int) ([]domain.SearchHit, error)
}

func (m *mockSearchStore) Search(ctx context.Context, t domain.SearchType, query string, limit int) ([]domain.SearchHit, error) {
	return m.SearchFunc(ctx, t, query, limit)
}

// memCache is an in-process Cache that records invalidations.
type memCache struct {
	mu          sync.Mutex
	entries     map[string]any
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]any)}
}

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, assign(dst, v)
}

func (c *memCache) SetJSON(_ context.Context, key string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
	return nil
}

func (c *memCache) Invalidate(_ context.Context, paths ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, paths...)
	c.entries = make(map[string]any)
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []*queue.Job
}

func (p *recordingPublisher) Enqueue(_ context.Context, job *queue.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

type mockAssistant struct {
	DescribeTagFunc    func(ctx context.Context, tag string) (string, error)
	AnswerQuestionFunc func(ctx context.Context, question string) (string, error)
}

func (m *mockAssistant) DescribeTag(ctx context.Context, tag string) (string, error) {
	return m.DescribeTagFunc(ctx, tag)
}

func (m *mockAssistant) AnswerQuestion(ctx context.Context, question string) (string, error) {
	return m.AnswerQuestionFunc(ctx, question)
}

// assign copies v into dst through JSON, as the Redis cache would.
func assign(dst, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
