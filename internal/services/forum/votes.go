package forum

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/benvon/codemate/internal/database"
	domain "github.com/benvon/codemate/internal/forum"
	"github.com/benvon/codemate/internal/models"
	"github.com/benvon/codemate/internal/telemetry"
	"github.com/benvon/codemate/internal/validation"
)

// VoteInput is the caller's action. The flags are the client's view of its
// current vote; the stored vote decides the outcome and the flags are only
// compared against it.
type VoteInput struct {
	Action       string `json:"action" validate:"required,vote_action"`
	HasUpvoted   bool   `json:"has_upvoted"`
	HasDownvoted bool   `json:"has_downvoted"`
}

type voteApplier func(ctx context.Context, itemID, actorID uuid.UUID, action domain.VoteAction) (*database.AppliedVote, error)

// VoteQuestion toggles the actor's vote on a question.
func (s *Service) VoteQuestion(ctx context.Context, actorID, questionID uuid.UUID, in VoteInput) (*models.VoteTally, []string, error) {
	tally, err := s.vote(ctx, "question", actorID, questionID, in, s.stores.Votes.ApplyQuestionVote)
	if err != nil {
		return nil, nil, err
	}
	paths := append(s.questionListingPaths(ctx, questionID), questionPath(questionID))
	return tally, s.invalidate(ctx, paths...), nil
}

// VoteAnswer toggles the actor's vote on an answer.
func (s *Service) VoteAnswer(ctx context.Context, actorID, answerID uuid.UUID, in VoteInput) (*models.VoteTally, []string, error) {
	tally, err := s.vote(ctx, "answer", actorID, answerID, in, s.stores.Votes.ApplyAnswerVote)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.stores.Answers.GetByID(ctx, answerID)
	if err != nil {
		// The vote is committed; only cache scoping is lost.
		s.log.Warn("answer_lookup_after_vote_failed", zap.String("answer_id", answerID.String()), zap.Error(err))
		return tally, s.invalidate(ctx, pathQuestions), nil
	}
	return tally, s.invalidate(ctx, answersPath(a.QuestionID), questionPath(a.QuestionID)), nil
}

func (s *Service) vote(ctx context.Context, kind string, actorID, itemID uuid.UUID, in VoteInput, apply voteApplier) (tally *models.VoteTally, err error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.vote_"+kind,
		attribute.String("item_id", itemID.String()),
		attribute.String("action", in.Action),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	action, err := domain.ParseVoteAction(in.Action)
	if err != nil {
		return nil, err
	}

	applied, err := apply(ctx, itemID, actorID, action)
	if err != nil {
		return nil, err
	}
	outcome := applied.Outcome

	claimed := domain.VoteState{HasUpvoted: in.HasUpvoted, HasDownvoted: in.HasDownvoted}
	if claimed != applied.Previous {
		s.log.Debug("vote_state_stale",
			zap.String("item_id", itemID.String()),
			zap.String("actor_id", actorID.String()),
			zap.Bool("claimed_upvoted", claimed.HasUpvoted),
			zap.Bool("claimed_downvoted", claimed.HasDownvoted),
			zap.Bool("stored_upvoted", applied.Previous.HasUpvoted),
			zap.Bool("stored_downvoted", applied.Previous.HasDownvoted),
		)
	}

	s.log.Info("vote_applied",
		zap.String("item_type", kind),
		zap.String("item_id", itemID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("action", string(action)),
		zap.Int("actor_delta", outcome.ActorDelta),
		zap.Int("author_delta", outcome.AuthorDelta),
	)
	return applied.Tally, nil
}

// ToggleSave adds the question to the user's saved set or removes it and
// reports whether it is now saved.
func (s *Service) ToggleSave(ctx context.Context, userID, questionID uuid.UUID) (bool, []string, error) {
	saved, err := s.stores.Users.ToggleSaved(ctx, userID, questionID)
	if err != nil {
		return false, nil, err
	}
	s.log.Info("question_save_toggled",
		zap.String("user_id", userID.String()),
		zap.String("question_id", questionID.String()),
		zap.Bool("saved", saved),
	)
	return saved, s.invalidate(ctx, questionPath(questionID)), nil
}
