package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/forum"
	"github.com/benvon/codemate/internal/models"
)

// AnswerRepository handles answer database operations
type AnswerRepository struct {
	db *DB
}

// NewAnswerRepository creates a new answer repository
func NewAnswerRepository(db *DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

const answerSelect = `
	SELECT a.id, a.question_id, a.author_id, u.provider_id, u.name, u.picture, a.content, a.created_at,
	       (SELECT COUNT(*) FROM answer_votes v WHERE v.answer_id = a.id AND v.direction = 1) AS upvote_count,
	       (SELECT COUNT(*) FROM answer_votes v WHERE v.answer_id = a.id AND v.direction = -1) AS downvote_count
	FROM answers a
	JOIN users u ON u.id = a.author_id`

func scanAnswer(row interface{ Scan(...any) error }) (*models.Answer, error) {
	a := &models.Answer{Author: &models.Author{}}
	var picture sql.NullString
	err := row.Scan(
		&a.ID, &a.QuestionID, &a.AuthorID, &a.Author.ProviderID, &a.Author.Name, &picture,
		&a.Content, &a.CreatedAt, &a.UpvoteCount, &a.DownvoteCount,
	)
	if err != nil {
		return nil, err
	}
	a.Author.ID = a.AuthorID
	if picture.Valid {
		a.Author.Picture = &picture.String
	}
	return a, nil
}

func answerOrder(s forum.AnswerSort) string {
	switch s {
	case forum.AnswerSortHighestUpvotes:
		return " ORDER BY upvote_count DESC, a.created_at DESC, a.id DESC"
	case forum.AnswerSortLowestUpvotes:
		return " ORDER BY upvote_count ASC, a.created_at DESC, a.id DESC"
	case forum.AnswerSortOld:
		return " ORDER BY a.created_at ASC, a.id ASC"
	default:
		return " ORDER BY a.created_at DESC, a.id DESC"
	}
}

// Create inserts the answer, records the answer interaction with the
// question's tags and rewards the author in one transaction.
func (r *AnswerRepository) Create(ctx context.Context, a *models.Answer, authorReward int) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM questions WHERE id = $1)`, a.QuestionID,
		).Scan(&exists); err != nil {
			return apperror.FromStorage("check question", err)
		}
		if !exists {
			return apperror.NotFound("question", a.QuestionID.String())
		}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO answers (id, question_id, author_id, content, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at
		`, a.ID, a.QuestionID, a.AuthorID, a.Content, time.Now()).Scan(&a.CreatedAt)
		if err != nil {
			return apperror.FromStorage("create answer", err)
		}

		tagIDs, err := questionTagIDs(ctx, tx, a.QuestionID)
		if err != nil {
			return err
		}
		questionID, answerID := a.QuestionID, a.ID
		if err := insertInteraction(ctx, tx, &models.Interaction{
			UserID:     a.AuthorID,
			Action:     models.ActionAnswer,
			QuestionID: &questionID,
			AnswerID:   &answerID,
			TagIDs:     tagIDs,
		}); err != nil {
			return err
		}

		return adjustReputation(ctx, tx, a.AuthorID, authorReward)
	})
}

// GetByID loads an answer with its voter sets.
func (r *AnswerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Answer, error) {
	a, err := scanAnswer(r.db.QueryRowContext(ctx, answerSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("answer", id.String())
	}
	if err != nil {
		return nil, apperror.FromStorage("get answer", err)
	}
	a.Upvotes, a.Downvotes, err = loadVoters(ctx, r.db, answerVotes, id)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListByQuestion returns one page of a question's answers and the total count.
func (r *AnswerRepository) ListByQuestion(ctx context.Context, questionID uuid.UUID, sort forum.AnswerSort, page, pageSize int) ([]*models.Answer, int, error) {
	spec := forum.QuerySpec{Page: page, PageSize: pageSize}.Normalize()

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM answers WHERE question_id = $1`, questionID,
	).Scan(&total); err != nil {
		return nil, 0, apperror.FromStorage("count answers", err)
	}

	query := answerSelect + ` WHERE a.question_id = $1` + answerOrder(sort) + ` LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, questionID, spec.PageSize, spec.Skip())
	if err != nil {
		return nil, 0, apperror.FromStorage("query answers", err)
	}
	defer rows.Close()

	answers := []*models.Answer{}
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, 0, apperror.FromStorage("scan answer", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.FromStorage("iterate answers", err)
	}
	return answers, total, nil
}

// Delete removes the answer and the interactions that reference it.
func (r *AnswerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM interactions WHERE answer_id = $1`, id); err != nil {
			return apperror.FromStorage("delete answer interactions", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE id = $1`, id)
		if err != nil {
			return apperror.FromStorage("delete answer", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperror.NotFound("answer", id.String())
		}
		return nil
	})
}
