package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/models"
)

// InteractionRepository reads and appends interaction records. There is no
// update path; rows only go away with the question or answer they reference.
type InteractionRepository struct {
	db *DB
}

func NewInteractionRepository(db *DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

func insertInteraction(ctx context.Context, q querier, in *models.Interaction) error {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO interactions (id, user_id, action, question_id, answer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, in.ID, in.UserID, string(in.Action), in.QuestionID, in.AnswerID, in.CreatedAt)
	if err != nil {
		return apperror.FromStorage("insert interaction", err)
	}

	for i, tagID := range in.TagIDs {
		_, err := q.ExecContext(ctx, `
			INSERT INTO interaction_tags (interaction_id, tag_id, position)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, in.ID, tagID, i)
		if err != nil {
			return apperror.FromStorage("insert interaction tag", err)
		}
	}
	return nil
}

// Record appends one interaction.
func (r *InteractionRepository) Record(ctx context.Context, in *models.Interaction) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return insertInteraction(ctx, tx, in)
	})
}

// ListByUser returns a user's interactions oldest first with their tag ids
// in recorded order.
func (r *InteractionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Interaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.action, i.question_id, i.answer_id, i.created_at,
		       COALESCE(array_agg(it.tag_id::text ORDER BY it.position)
		                FILTER (WHERE it.tag_id IS NOT NULL), '{}')
		FROM interactions i
		LEFT JOIN interaction_tags it ON it.interaction_id = i.id
		WHERE i.user_id = $1
		GROUP BY i.id
		ORDER BY i.created_at ASC, i.id ASC
	`, userID)
	if err != nil {
		return nil, apperror.FromStorage("query interactions", err)
	}
	defer rows.Close()

	var out []models.Interaction
	for rows.Next() {
		in := models.Interaction{UserID: userID}
		var action string
		var questionID, answerID uuid.NullUUID
		var tagIDs []string
		if err := rows.Scan(&in.ID, &action, &questionID, &answerID, &in.CreatedAt, pq.Array(&tagIDs)); err != nil {
			return nil, apperror.FromStorage("scan interaction", err)
		}
		in.Action = models.InteractionAction(action)
		if questionID.Valid {
			in.QuestionID = &questionID.UUID
		}
		if answerID.Valid {
			in.AnswerID = &answerID.UUID
		}
		if in.TagIDs, err = parseUUIDs(tagIDs); err != nil {
			return nil, apperror.FromStorage("parse interaction tags", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.FromStorage("iterate interactions", err)
	}
	return out, nil
}
