package forum

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/cache"
	domain "github.com/benvon/codemate/internal/forum"
	"github.com/benvon/codemate/internal/models"
	"github.com/benvon/codemate/internal/queue"
	"github.com/benvon/codemate/internal/telemetry"
	"github.com/benvon/codemate/internal/validation"
)

// QuestionInput is the body of a create or edit.
type QuestionInput struct {
	Title   string   `json:"title" validate:"required,min=5,max=130"`
	Content string   `json:"content" validate:"required,min=20"`
	Tags    []string `json:"tags" validate:"min=1,max=3,dive,tag_name"`
}

func (in QuestionInput) normalize() (QuestionInput, error) {
	in.Title = validation.SanitizeText(in.Title)
	in.Content = validation.SanitizeText(in.Content)
	if err := validation.Struct(in); err != nil {
		return in, err
	}
	in.Tags = domain.NormalizeTagNames(in.Tags)
	return in, nil
}

// ListQuestions serves the home listing. The recommended filter needs a
// viewer; anonymous callers get an empty page.
func (s *Service) ListQuestions(ctx context.Context, viewer *uuid.UUID, spec domain.QuerySpec) (*models.QuestionPage, error) {
	if spec.Filter == domain.FilterRecommended {
		if viewer == nil {
			return emptyPage(), nil
		}
		return s.RecommendedQuestions(ctx, *viewer, spec.Search, spec.Page)
	}

	if spec.PageSize < 1 {
		spec.PageSize = s.opts.PageSize
	}
	spec = spec.Normalize()
	key := cache.Key(pathQuestions, string(spec.Filter), spec.Search, strconv.Itoa(spec.Page), strconv.Itoa(spec.PageSize))
	return cached(ctx, s, key, func() (*models.QuestionPage, error) {
		return s.listPage(ctx, spec)
	})
}

func (s *Service) listPage(ctx context.Context, spec domain.QuerySpec) (*models.QuestionPage, error) {
	questions, total, err := s.stores.Questions.List(ctx, spec)
	if err != nil {
		return nil, err
	}
	return &models.QuestionPage{
		Questions: questions,
		IsNext:    domain.HasNext(total, spec.Skip(), len(questions)),
	}, nil
}

// RecommendedQuestions lists questions sharing tags with the user's history,
// excluding the user's own. Unknown users are NotFound.
func (s *Service) RecommendedQuestions(ctx context.Context, userID uuid.UUID, search string, page int) (result *models.QuestionPage, err error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.recommended_questions")
	defer func() { telemetry.EndSpan(span, err) }()

	if _, err := s.stores.Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	interactions, err := s.stores.Interactions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	spec, ok := domain.RecommendationQuery(userID, interactions, search, page)
	if !ok {
		return emptyPage(), nil
	}
	span.SetAttributes(attribute.Int("tag_count", len(spec.TagIDs)))
	return s.listPage(ctx, spec)
}

// CreateQuestion stores a question, rewards its author and queues AI
// descriptions for tags the question introduced.
func (s *Service) CreateQuestion(ctx context.Context, authorID uuid.UUID, in QuestionInput) (q *models.Question, paths []string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.create_question")
	defer func() { telemetry.EndSpan(span, err) }()

	in, err = in.normalize()
	if err != nil {
		return nil, nil, err
	}

	q = &models.Question{AuthorID: authorID, Title: in.Title, Content: in.Content}
	created, err := s.stores.Questions.Create(ctx, q, in.Tags, QuestionReward)
	if err != nil {
		return nil, nil, err
	}
	s.describeNewTags(ctx, created)

	s.log.Info("question_created",
		zap.String("question_id", q.ID.String()),
		zap.String("author_id", authorID.String()),
		zap.Int("tag_count", len(q.Tags)),
		zap.Int("new_tags", len(created)),
	)

	paths = []string{pathQuestions, pathHotQuestions, pathPopularTags, pathSearch}
	for _, t := range q.Tags {
		paths = append(paths, tagQuestionsPath(t.ID))
	}
	return q, s.invalidate(ctx, paths...), nil
}

// GetQuestion counts a view, recording a view interaction for known viewers,
// and returns the question with its voter sets.
func (s *Service) GetQuestion(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*models.Question, error) {
	if err := s.stores.Questions.RecordView(ctx, id, viewer); err != nil {
		return nil, err
	}
	return s.stores.Questions.GetByID(ctx, id)
}

// EditQuestion lets the author change text and tags. Tag changes go through
// the tag diff so unchanged tags keep their identity.
func (s *Service) EditQuestion(ctx context.Context, actorID, id uuid.UUID, in QuestionInput) (q *models.Question, paths []string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.edit_question", attribute.String("question_id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	in, err = in.normalize()
	if err != nil {
		return nil, nil, err
	}

	q, err = s.stores.Questions.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if q.AuthorID != actorID {
		return nil, nil, apperror.Forbidden("only the author can edit this question")
	}

	before := q.TagIDs()
	diff := domain.DiffTags(q.Tags, in.Tags)
	q.Title, q.Content = in.Title, in.Content

	created, err := s.stores.Questions.Update(ctx, q, diff, s.opts.PruneEmptyTags)
	if err != nil {
		return nil, nil, err
	}
	s.describeNewTags(ctx, created)

	s.log.Info("question_updated",
		zap.String("question_id", id.String()),
		zap.Int("tags_added", len(diff.ToAdd)),
		zap.Int("tags_removed", len(diff.ToRemove)),
	)

	paths = []string{pathQuestions, questionPath(id), pathHotQuestions, pathSearch}
	if !diff.Empty() {
		paths = append(paths, pathPopularTags)
	}
	for _, tagID := range append(before, q.TagIDs()...) {
		paths = append(paths, tagQuestionsPath(tagID))
	}
	return q, s.invalidate(ctx, paths...), nil
}

// DeleteQuestion removes the author's question with its answers and
// interactions.
func (s *Service) DeleteQuestion(ctx context.Context, actorID, id uuid.UUID) (paths []string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.delete_question", attribute.String("question_id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	q, err := s.stores.Questions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.AuthorID != actorID {
		return nil, apperror.Forbidden("only the author can delete this question")
	}
	if err := s.stores.Questions.Delete(ctx, id); err != nil {
		return nil, err
	}
	if s.opts.PruneEmptyTags && len(q.Tags) > 0 {
		s.enqueue(ctx, queue.NewTagPruneJob())
	}

	s.log.Info("question_deleted", zap.String("question_id", id.String()))

	paths = []string{pathQuestions, questionPath(id), answersPath(id), pathHotQuestions, pathPopularTags, pathSearch}
	for _, t := range q.Tags {
		paths = append(paths, tagQuestionsPath(t.ID))
	}
	return s.invalidate(ctx, paths...), nil
}

// HotQuestions returns the most viewed questions.
func (s *Service) HotQuestions(ctx context.Context) ([]*models.Question, error) {
	return cached(ctx, s, cache.Key(pathHotQuestions), func() ([]*models.Question, error) {
		return s.stores.Questions.Hot(ctx, HotLimit)
	})
}

// TagQuestions lists the questions carrying a tag.
func (s *Service) TagQuestions(ctx context.Context, tagID uuid.UUID, search string, page int) (*models.TagPage, error) {
	spec := domain.QuerySpec{
		Search:   search,
		Page:     page,
		PageSize: s.opts.PageSize,
		TagIDs:   []uuid.UUID{tagID},
	}.Normalize()

	key := cache.Key(tagQuestionsPath(tagID), spec.Search, strconv.Itoa(spec.Page))
	return cached(ctx, s, key, func() (*models.TagPage, error) {
		tag, err := s.stores.Tags.GetByID(ctx, tagID)
		if err != nil {
			return nil, err
		}
		p, err := s.listPage(ctx, spec)
		if err != nil {
			return nil, err
		}
		return &models.TagPage{Tag: tag, Questions: p.Questions, IsNext: p.IsNext}, nil
	})
}

func (s *Service) describeNewTags(ctx context.Context, created []models.TagRef) {
	for _, t := range created {
		s.enqueue(ctx, queue.NewTagDescriptionJob(t.ID, t.Name))
	}
}

func emptyPage() *models.QuestionPage {
	return &models.QuestionPage{Questions: []*models.Question{}, IsNext: false}
}
