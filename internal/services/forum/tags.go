package forum

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/cache"
	domain "github.com/benvon/codemate/internal/forum"
	"github.com/benvon/codemate/internal/models"
	"github.com/benvon/codemate/internal/telemetry"
)

// ErrAssistantUnavailable is returned by AI operations when no provider is
// configured.
var ErrAssistantUnavailable = errors.New("AI assistant is not configured")

// PopularTags returns the tags used by the most questions.
func (s *Service) PopularTags(ctx context.Context) ([]*models.Tag, error) {
	return cached(ctx, s, cache.Key(pathPopularTags), func() ([]*models.Tag, error) {
		return s.stores.Tags.Popular(ctx, PopularTagLimit)
	})
}

// DescribeTag returns a description of the tag. A stored description wins;
// otherwise one is generated, cached and stored on the tag when it exists.
func (s *Service) DescribeTag(ctx context.Context, name string) (reply string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.describe_tag")
	defer func() { telemetry.EndSpan(span, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.InvalidInput("tag", "tag is required")
	}

	key := cache.Key(pathTagDescription, domain.CanonicalTagName(name))
	return cached(ctx, s, key, func() (string, error) {
		tag, err := s.stores.Tags.GetByName(ctx, name)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			tag = nil
		case err != nil:
			return "", err
		}
		if tag != nil && tag.Description != nil && *tag.Description != "" {
			return *tag.Description, nil
		}

		if s.assistant == nil {
			return "", ErrAssistantUnavailable
		}
		text, err := s.assistant.DescribeTag(ctx, name)
		if err != nil {
			return "", err
		}
		if tag != nil {
			if err := s.stores.Tags.SetDescription(ctx, tag.ID, text); err != nil {
				s.log.Warn("tag_description_store_failed", zap.String("tag_id", tag.ID.String()), zap.Error(err))
			}
		}
		return text, nil
	})
}

// GenerateAnswer drafts an AI answer to a question text.
func (s *Service) GenerateAnswer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperror.InvalidInput("question", "question is required")
	}
	if s.assistant == nil {
		return "", ErrAssistantUnavailable
	}
	return s.assistant.AnswerQuestion(ctx, question)
}
