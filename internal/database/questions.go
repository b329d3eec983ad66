package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/forum"
	"github.com/benvon/codemate/internal/models"
)

// QuestionRepository handles question database operations
type QuestionRepository struct {
	db *DB
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionSelect = `
	SELECT q.id, q.title, q.content, q.author_id, u.provider_id, u.name, u.picture,
	       q.views, q.created_at, q.updated_at,
	       (SELECT COUNT(*) FROM answers a WHERE a.question_id = q.id) AS answer_count,
	       (SELECT COUNT(*) FROM question_votes v WHERE v.question_id = q.id AND v.direction = 1) AS upvote_count,
	       (SELECT COUNT(*) FROM question_votes v WHERE v.question_id = q.id AND v.direction = -1) AS downvote_count
	FROM questions q
	JOIN users u ON u.id = q.author_id`

func scanQuestion(row interface{ Scan(...any) error }) (*models.Question, error) {
	q := &models.Question{Author: &models.Author{}}
	var picture sql.NullString
	err := row.Scan(
		&q.ID, &q.Title, &q.Content, &q.AuthorID, &q.Author.ProviderID, &q.Author.Name, &picture,
		&q.Views, &q.CreatedAt, &q.UpdatedAt,
		&q.AnswerCount, &q.UpvoteCount, &q.DownvoteCount,
	)
	if err != nil {
		return nil, err
	}
	q.Author.ID = q.AuthorID
	if picture.Valid {
		q.Author.Picture = &picture.String
	}
	q.Tags = []models.TagRef{}
	return q, nil
}

// questionFilter renders the WHERE clause for a listing. Placeholders are
// numbered from 1.
func questionFilter(spec forum.QuerySpec) (string, []any) {
	var conds []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if spec.Search != "" {
		p := next(likePattern(spec.Search))
		conds = append(conds, fmt.Sprintf("(q.title ILIKE %s OR q.content ILIKE %s)", p, p))
	}
	if len(spec.TagIDs) > 0 {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM question_tags qt WHERE qt.question_id = q.id AND qt.tag_id = ANY(%s::uuid[]))",
			next(uuidArray(spec.TagIDs)),
		))
	}
	if spec.ExcludeAuthor != nil {
		conds = append(conds, "q.author_id <> "+next(*spec.ExcludeAuthor))
	}
	if spec.Filter == forum.FilterUnanswered {
		conds = append(conds, "NOT EXISTS (SELECT 1 FROM answers a WHERE a.question_id = q.id)")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// questionOrder is the ORDER BY for a filter. Every order ends with the id so
// pages are deterministic.
func questionOrder(f forum.Filter) string {
	switch f {
	case forum.FilterFrequent:
		return " ORDER BY q.views DESC, q.created_at DESC, q.id DESC"
	default:
		return " ORDER BY q.created_at DESC, q.id DESC"
	}
}

// List returns one page of questions matching spec and the total match count.
func (r *QuestionRepository) List(ctx context.Context, spec forum.QuerySpec) ([]*models.Question, int, error) {
	spec = spec.Normalize()
	where, args := questionFilter(spec)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions q`+where, args...).Scan(&total); err != nil {
		return nil, 0, apperror.FromStorage("count questions", err)
	}

	query := questionSelect + where + questionOrder(spec.Filter) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, spec.PageSize, spec.Skip())

	questions, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

// Hot returns the most viewed questions, breaking ties by upvotes.
func (r *QuestionRepository) Hot(ctx context.Context, limit int) ([]*models.Question, error) {
	return r.query(ctx, questionSelect+` ORDER BY q.views DESC, upvote_count DESC, q.created_at DESC, q.id DESC LIMIT $1`, limit)
}

func (r *QuestionRepository) query(ctx context.Context, query string, args ...any) ([]*models.Question, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.FromStorage("query questions", err)
	}
	defer rows.Close()

	questions := []*models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, apperror.FromStorage("scan question", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.FromStorage("iterate questions", err)
	}

	if err := attachTags(ctx, r.db, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// attachTags loads the tags of all questions in one round trip.
func attachTags(ctx context.Context, q querier, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Question, len(questions))
	ids := make([]uuid.UUID, 0, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
		ids = append(ids, question.ID)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT qt.question_id, t.id, t.name
		FROM question_tags qt
		JOIN tags t ON t.id = qt.tag_id
		WHERE qt.question_id = ANY($1::uuid[])
		ORDER BY qt.position ASC, t.name ASC
	`, uuidArray(ids))
	if err != nil {
		return apperror.FromStorage("query question tags", err)
	}
	defer rows.Close()

	for rows.Next() {
		var questionID uuid.UUID
		var ref models.TagRef
		if err := rows.Scan(&questionID, &ref.ID, &ref.Name); err != nil {
			return apperror.FromStorage("scan question tag", err)
		}
		if question, ok := byID[questionID]; ok {
			question.Tags = append(question.Tags, ref)
		}
	}
	if err := rows.Err(); err != nil {
		return apperror.FromStorage("iterate question tags", err)
	}
	return nil
}

// GetByID loads a question with its tags and voter sets.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	q, err := scanQuestion(r.db.QueryRowContext(ctx, questionSelect+` WHERE q.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("question", id.String())
	}
	if err != nil {
		return nil, apperror.FromStorage("get question", err)
	}

	if err := attachTags(ctx, r.db, []*models.Question{q}); err != nil {
		return nil, err
	}
	q.Upvotes, q.Downvotes, err = loadVoters(ctx, r.db, questionVotes, id)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Create inserts the question, resolves each tag name through find-or-create,
// records the ask_question interaction and rewards the author, all in one
// transaction. It returns the tags this call created.
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question, tagNames []string, authorReward int) ([]models.TagRef, error) {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	var created []models.TagRef

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		err := tx.QueryRowContext(ctx, `
			INSERT INTO questions (id, author_id, title, content, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			RETURNING created_at, updated_at
		`, q.ID, q.AuthorID, q.Title, q.Content, now).Scan(&q.CreatedAt, &q.UpdatedAt)
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", q.AuthorID.String())
		}
		if err != nil {
			return apperror.FromStorage("create question", err)
		}

		q.Tags = []models.TagRef{}
		for i, name := range tagNames {
			ref, inserted, err := linkTag(ctx, tx, q.ID, name, i)
			if err != nil {
				return err
			}
			q.Tags = append(q.Tags, ref)
			if inserted {
				created = append(created, ref)
			}
		}

		questionID := q.ID
		if err := insertInteraction(ctx, tx, &models.Interaction{
			UserID:     q.AuthorID,
			Action:     models.ActionAskQuestion,
			QuestionID: &questionID,
			TagIDs:     q.TagIDs(),
		}); err != nil {
			return err
		}

		return adjustReputation(ctx, tx, q.AuthorID, authorReward)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// linkTag resolves name and attaches it to the question at position.
func linkTag(ctx context.Context, tx *sql.Tx, questionID uuid.UUID, name string, position int) (models.TagRef, bool, error) {
	ref, inserted, err := findOrCreateTag(ctx, tx, name)
	if err != nil {
		return models.TagRef{}, false, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO question_tags (question_id, tag_id, position)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, questionID, ref.ID, position)
	if err != nil {
		return models.TagRef{}, false, apperror.FromStorage("link tag", err)
	}
	return ref, inserted, nil
}

// Update saves the title and content and applies the tag diff. Removed tags
// lose the question reference in the same statement that drops them from the
// question. With pruneEmpty, removed tags left without questions are deleted.
// It returns the tags this call created.
func (r *QuestionRepository) Update(ctx context.Context, q *models.Question, diff forum.TagDiff, pruneEmpty bool) ([]models.TagRef, error) {
	var created []models.TagRef

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE questions SET title = $2, content = $3, updated_at = $4
			WHERE id = $1
			RETURNING updated_at
		`, q.ID, q.Title, q.Content, time.Now()).Scan(&q.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("question", q.ID.String())
		}
		if err != nil {
			return apperror.FromStorage("update question", err)
		}

		if len(diff.ToRemove) > 0 {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM question_tags WHERE question_id = $1 AND tag_id = ANY($2::uuid[])`,
				q.ID, uuidArray(diff.ToRemove),
			)
			if err != nil {
				return apperror.FromStorage("unlink tags", err)
			}
		}

		var position int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position) + 1, 0) FROM question_tags WHERE question_id = $1`, q.ID,
		).Scan(&position); err != nil {
			return apperror.FromStorage("read tag positions", err)
		}
		for i, name := range diff.ToAdd {
			ref, inserted, err := linkTag(ctx, tx, q.ID, name, position+i)
			if err != nil {
				return err
			}
			if inserted {
				created = append(created, ref)
			}
		}

		if pruneEmpty {
			if err := pruneTags(ctx, tx, diff.ToRemove); err != nil {
				return err
			}
		}

		q.Tags = []models.TagRef{}
		return attachTags(ctx, tx, []*models.Question{q})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Delete removes the question with its answers, their interactions and the
// question's tag references in one transaction.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		steps := []struct {
			op    string
			query string
		}{
			{"delete answer interactions", `DELETE FROM interactions WHERE answer_id IN (SELECT id FROM answers WHERE question_id = $1)`},
			{"delete question interactions", `DELETE FROM interactions WHERE question_id = $1`},
			{"delete answers", `DELETE FROM answers WHERE question_id = $1`},
			{"delete question tags", `DELETE FROM question_tags WHERE question_id = $1`},
		}
		for _, s := range steps {
			if _, err := tx.ExecContext(ctx, s.query, id); err != nil {
				return apperror.FromStorage(s.op, err)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
		if err != nil {
			return apperror.FromStorage("delete question", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperror.NotFound("question", id.String())
		}
		return nil
	})
}

// RecordView increments the view counter and, for a known viewer, records a
// view interaction carrying the question's tags.
func (r *QuestionRepository) RecordView(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE questions SET views = views + 1 WHERE id = $1`, id)
		if err != nil {
			return apperror.FromStorage("increment views", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperror.NotFound("question", id.String())
		}
		if viewer == nil {
			return nil
		}

		tagIDs, err := questionTagIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		questionID := id
		return insertInteraction(ctx, tx, &models.Interaction{
			UserID:     *viewer,
			Action:     models.ActionView,
			QuestionID: &questionID,
			TagIDs:     tagIDs,
		})
	})
}

func questionTagIDs(ctx context.Context, q querier, questionID uuid.UUID) ([]uuid.UUID, error) {
	return queryUUIDs(ctx, q, questionVotes.tagQuery, questionID)
}
