package forum

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/cache"
	domain "github.com/benvon/codemate/internal/forum"
	"github.com/benvon/codemate/internal/models"
	"github.com/benvon/codemate/internal/telemetry"
	"github.com/benvon/codemate/internal/validation"
)

type AnswerInput struct {
	Content string `json:"content" validate:"required,min=100"`
}

// CreateAnswer posts an answer and rewards its author.
func (s *Service) CreateAnswer(ctx context.Context, authorID, questionID uuid.UUID, in AnswerInput) (a *models.Answer, paths []string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.create_answer")
	defer func() { telemetry.EndSpan(span, err) }()

	in.Content = validation.SanitizeText(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, nil, err
	}

	a = &models.Answer{QuestionID: questionID, AuthorID: authorID, Content: in.Content}
	if err := s.stores.Answers.Create(ctx, a, AnswerReward); err != nil {
		return nil, nil, err
	}

	s.log.Info("answer_created",
		zap.String("answer_id", a.ID.String()),
		zap.String("question_id", questionID.String()),
		zap.String("author_id", authorID.String()),
	)
	paths = append(s.questionListingPaths(ctx, questionID), questionPath(questionID), answersPath(questionID), pathSearch)
	return a, s.invalidate(ctx, paths...), nil
}

// ListAnswers pages through the answers of a question.
func (s *Service) ListAnswers(ctx context.Context, questionID uuid.UUID, sort domain.AnswerSort, page int) (*models.AnswerPage, error) {
	if page < 1 {
		page = 1
	}
	pageSize := s.opts.PageSize
	key := cache.Key(answersPath(questionID), string(sort), strconv.Itoa(page))

	return cached(ctx, s, key, func() (*models.AnswerPage, error) {
		answers, total, err := s.stores.Answers.ListByQuestion(ctx, questionID, sort, page, pageSize)
		if err != nil {
			return nil, err
		}
		return &models.AnswerPage{
			Answers: answers,
			IsNext:  domain.HasNext(total, (page-1)*pageSize, len(answers)),
		}, nil
	})
}

// DeleteAnswer removes the author's answer and its interactions.
func (s *Service) DeleteAnswer(ctx context.Context, actorID, id uuid.UUID) (paths []string, err error) {
	a, err := s.stores.Answers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.AuthorID != actorID {
		return nil, apperror.Forbidden("only the author can delete this answer")
	}
	if err := s.stores.Answers.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.log.Info("answer_deleted",
		zap.String("answer_id", id.String()),
		zap.String("question_id", a.QuestionID.String()),
	)
	paths = append(s.questionListingPaths(ctx, a.QuestionID), questionPath(a.QuestionID), answersPath(a.QuestionID), pathSearch)
	return s.invalidate(ctx, paths...), nil
}
