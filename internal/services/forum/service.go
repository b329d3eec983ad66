// Package forum is the application layer of the Q&A forum. It validates
// input, runs the pure rules from internal/forum and drives the stores, the
// read cache and the job queue.
package forum

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benvon/codemate/internal/cache"
	"github.com/benvon/codemate/internal/database"
	domain "github.com/benvon/codemate/internal/forum"
	"github.com/benvon/codemate/internal/queue"
)

const (
	QuestionReward  = 5
	AnswerReward    = 10
	HotLimit        = 5
	PopularTagLimit = 5
)

// Stores groups the storage ports the service depends on.
type Stores struct {
	Questions    database.QuestionStore
	Answers      database.AnswerStore
	Tags         database.TagStore
	Users        database.UserStore
	Interactions database.InteractionStore
	Votes        database.VoteStore
	Search       database.SearchStore
}

// Cache is the read cache keyed by API path.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Invalidate(ctx context.Context, paths ...string) error
}

// Assistant generates text with an AI provider.
type Assistant interface {
	DescribeTag(ctx context.Context, tag string) (string, error)
	AnswerQuestion(ctx context.Context, question string) (string, error)
}

type Options struct {
	PageSize       int
	PruneEmptyTags bool
}

// Service implements the forum operations.
type Service struct {
	stores    Stores
	cache     Cache
	jobs      queue.Publisher
	assistant Assistant
	opts      Options
	log       *zap.Logger
}

// NewService wires the service. cache, jobs and assistant may be nil: reads
// then go straight to storage, jobs are skipped and AI operations fail.
func NewService(stores Stores, c Cache, jobs queue.Publisher, assistant Assistant, opts Options, log *zap.Logger) *Service {
	if c == nil {
		c = noopCache{}
	}
	if opts.PageSize < 1 {
		opts.PageSize = domain.DefaultPageSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		stores:    stores,
		cache:     c,
		jobs:      jobs,
		assistant: assistant,
		opts:      opts,
		log:       log,
	}
}

const (
	pathQuestions      = "/questions"
	pathHotQuestions   = "/questions/hot"
	pathPopularTags    = "/tags/popular"
	pathSearch         = "/search"
	pathTagDescription = "/ai/tag-description"
)

func questionPath(id uuid.UUID) string     { return pathQuestions + "/" + id.String() }
func answersPath(id uuid.UUID) string      { return questionPath(id) + "/answers" }
func tagQuestionsPath(id uuid.UUID) string { return "/tags/" + id.String() + "/questions" }

// cached serves key from the cache or fills it with load. Cache failures are
// logged and never fail the read.
func cached[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, error) {
	var v T
	found, err := s.cache.GetJSON(ctx, key, &v)
	if err != nil {
		s.log.Warn("cache_read_failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		return v, nil
	}

	v, err = load()
	if err != nil {
		return v, err
	}
	if err := s.cache.SetJSON(ctx, key, v); err != nil {
		s.log.Warn("cache_write_failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

// questionListingPaths returns the listings a question's counters appear on:
// the home and hot lists and each of its tags. A failed lookup only narrows
// the invalidation to the lists that need no tags.
func (s *Service) questionListingPaths(ctx context.Context, questionID uuid.UUID) []string {
	paths := []string{pathQuestions, pathHotQuestions}
	q, err := s.stores.Questions.GetByID(ctx, questionID)
	if err != nil {
		s.log.Warn("question_lookup_for_invalidation_failed",
			zap.String("question_id", questionID.String()),
			zap.Error(err),
		)
		return paths
	}
	for _, t := range q.Tags {
		paths = append(paths, tagQuestionsPath(t.ID))
	}
	return paths
}

// invalidate drops the cached variants of paths and returns them.
func (s *Service) invalidate(ctx context.Context, paths ...string) []string {
	paths = dedupe(paths)
	if err := s.cache.Invalidate(ctx, paths...); err != nil {
		s.log.Warn("cache_invalidation_failed", zap.Strings("paths", paths), zap.Error(err))
	}
	return paths
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0:0]
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// enqueue publishes a background job. The request has already succeeded, so
// a publish failure is only logged.
func (s *Service) enqueue(ctx context.Context, job *queue.Job) {
	if s.jobs == nil {
		s.log.Debug("job_skipped_no_queue", zap.String("job_type", string(job.Type)))
		return
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		s.log.Warn("job_enqueue_failed",
			zap.String("job_type", string(job.Type)),
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
}

type noopCache struct{}

func (noopCache) GetJSON(context.Context, string, any) (bool, error) { return false, nil }
func (noopCache) SetJSON(context.Context, string, any) error         { return nil }
func (noopCache) Invalidate(context.Context, ...string) error        { return nil }

var _ Cache = (*cache.Cache)(nil)
