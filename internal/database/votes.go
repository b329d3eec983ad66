package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/forum"
	"github.com/benvon/codemate/internal/models"
)

// voteTable describes where votes on one kind of content live.
type voteTable struct {
	resource string
	votes    string // vote table
	items    string // content table
	column   string // content id column in the vote table
	tagQuery string // tag ids signalled by a vote on the item
}

var (
	questionVotes = voteTable{
		resource: "question",
		votes:    "question_votes",
		items:    "questions",
		column:   "question_id",
		tagQuery: `SELECT tag_id FROM question_tags WHERE question_id = $1 ORDER BY position`,
	}
	answerVotes = voteTable{
		resource: "answer",
		votes:    "answer_votes",
		items:    "answers",
		column:   "answer_id",
		tagQuery: `SELECT qt.tag_id FROM answers a JOIN question_tags qt ON qt.question_id = a.question_id WHERE a.id = $1 ORDER BY qt.position`,
	}
)

const (
	directionUp   = 1
	directionDown = -1
)

// VoteRepository reconciles and applies votes.
type VoteRepository struct {
	db *DB
}

func NewVoteRepository(db *DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// ApplyQuestionVote casts action on a question in one transaction.
func (r *VoteRepository) ApplyQuestionVote(ctx context.Context, questionID, actorID uuid.UUID, action forum.VoteAction) (*AppliedVote, error) {
	return r.apply(ctx, questionVotes, questionID, actorID, action)
}

// ApplyAnswerVote casts action on an answer in one transaction.
func (r *VoteRepository) ApplyAnswerVote(ctx context.Context, answerID, actorID uuid.UUID, action forum.VoteAction) (*AppliedVote, error) {
	return r.apply(ctx, answerVotes, answerID, actorID, action)
}

// apply locks the content row, reads the actor's vote row, reconciles the
// action against it, then changes the vote row, adjusts both reputations and
// records the interaction. Either all of it lands or none.
// A voter owns at most one row per item, so an added vote replaces the
// opposite one.
func (r *VoteRepository) apply(ctx context.Context, t voteTable, itemID, actorID uuid.UUID, action forum.VoteAction) (*AppliedVote, error) {
	result := &AppliedVote{Tally: &models.VoteTally{}}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var authorID uuid.UUID
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT author_id FROM %s WHERE id = $1 FOR UPDATE`, t.items), itemID,
		).Scan(&authorID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound(t.resource, itemID.String())
		}
		if err != nil {
			return apperror.FromStorage("lock "+t.resource, err)
		}

		state, err := currentVote(ctx, tx, t, itemID, actorID)
		if err != nil {
			return err
		}
		outcome, err := forum.Reconcile(state, action)
		if err != nil {
			return err
		}
		result.Previous = state
		result.Outcome = outcome

		ops := outcome.Ops
		remove := func(direction int) error {
			_, err := tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND user_id = $2 AND direction = $3`, t.votes, t.column),
				itemID, actorID, direction,
			)
			return apperror.FromStorage("remove vote", err)
		}
		add := func(direction int) error {
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`
				INSERT INTO %s (%s, user_id, direction) VALUES ($1, $2, $3)
				ON CONFLICT (%s, user_id) DO UPDATE SET direction = EXCLUDED.direction, created_at = now()
			`, t.votes, t.column, t.column), itemID, actorID, direction)
			return apperror.FromStorage("add vote", err)
		}

		if ops.RemoveUpvote {
			if err := remove(directionUp); err != nil {
				return err
			}
		}
		if ops.RemoveDownvote {
			if err := remove(directionDown); err != nil {
				return err
			}
		}
		if ops.AddUpvote {
			if err := add(directionUp); err != nil {
				return err
			}
		}
		if ops.AddDownvote {
			if err := add(directionDown); err != nil {
				return err
			}
		}

		if err := adjustReputation(ctx, tx, actorID, outcome.ActorDelta); err != nil {
			return err
		}
		if err := adjustReputation(ctx, tx, authorID, outcome.AuthorDelta); err != nil {
			return err
		}

		tagIDs, err := queryUUIDs(ctx, tx, t.tagQuery, itemID)
		if err != nil {
			return err
		}
		in := &models.Interaction{
			UserID: actorID,
			Action: models.InteractionAction(action),
			TagIDs: tagIDs,
		}
		id := itemID
		if t.resource == "answer" {
			in.AnswerID = &id
		} else {
			in.QuestionID = &id
		}
		if err := insertInteraction(ctx, tx, in); err != nil {
			return err
		}

		return tx.QueryRowContext(ctx, fmt.Sprintf(`
			SELECT
				COUNT(*) FILTER (WHERE direction = 1),
				COUNT(*) FILTER (WHERE direction = -1),
				COALESCE(BOOL_OR(user_id = $2 AND direction = 1), false),
				COALESCE(BOOL_OR(user_id = $2 AND direction = -1), false)
			FROM %s WHERE %s = $1
		`, t.votes, t.column), itemID, actorID).Scan(
			&result.Tally.UpvoteCount, &result.Tally.DownvoteCount, &result.Tally.HasUpvoted, &result.Tally.HasDownvoted,
		)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// currentVote reads the actor's stored vote on an item. The caller holds the
// content row lock, so the row cannot change underneath it.
func currentVote(ctx context.Context, tx *sql.Tx, t voteTable, itemID, actorID uuid.UUID) (forum.VoteState, error) {
	var direction int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT direction FROM %s WHERE %s = $1 AND user_id = $2 FOR UPDATE`, t.votes, t.column),
		itemID, actorID,
	).Scan(&direction)
	if errors.Is(err, sql.ErrNoRows) {
		return forum.VoteState{}, nil
	}
	if err != nil {
		return forum.VoteState{}, apperror.FromStorage("read vote", err)
	}
	return forum.VoteState{
		HasUpvoted:   direction == directionUp,
		HasDownvoted: direction == directionDown,
	}, nil
}

// loadVoters returns the upvoter and downvoter sets of an item.
func loadVoters(ctx context.Context, q querier, t voteTable, itemID uuid.UUID) (up, down []uuid.UUID, err error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(`SELECT user_id, direction FROM %s WHERE %s = $1 ORDER BY created_at ASC`, t.votes, t.column),
		itemID,
	)
	if err != nil {
		return nil, nil, apperror.FromStorage("query voters", err)
	}
	defer rows.Close()

	up, down = []uuid.UUID{}, []uuid.UUID{}
	for rows.Next() {
		var userID uuid.UUID
		var direction int
		if err := rows.Scan(&userID, &direction); err != nil {
			return nil, nil, apperror.FromStorage("scan voter", err)
		}
		if direction == directionUp {
			up = append(up, userID)
		} else {
			down = append(down, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperror.FromStorage("iterate voters", err)
	}
	return up, down, nil
}

func queryUUIDs(ctx context.Context, q querier, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.FromStorage("query ids", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperror.FromStorage("scan id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.FromStorage("iterate ids", err)
	}
	return ids, nil
}
