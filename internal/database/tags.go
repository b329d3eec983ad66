package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/models"
)

// TagRepository handles tag database operations
type TagRepository struct {
	db *DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *DB) *TagRepository {
	return &TagRepository{db: db}
}

// findOrCreateTag resolves a tag name in a single statement. The unique index
// on lower(name) makes concurrent callers converge on one row; the no-op
// update lets RETURNING yield the existing row. inserted is true when this
// call created the tag.
func findOrCreateTag(ctx context.Context, q querier, name string) (models.TagRef, bool, error) {
	var ref models.TagRef
	var inserted bool
	err := q.QueryRowContext(ctx, `
		INSERT INTO tags (id, name)
		VALUES ($1, $2)
		ON CONFLICT ((lower(name))) DO UPDATE SET name = tags.name
		RETURNING id, name, (xmax = 0) AS inserted
	`, uuid.New(), name).Scan(&ref.ID, &ref.Name, &inserted)
	if err != nil {
		return models.TagRef{}, false, apperror.FromStorage("find or create tag", err)
	}
	return ref, inserted, nil
}

// FindOrCreate returns the tag named name ignoring case, creating it with the
// given spelling when absent.
func (r *TagRepository) FindOrCreate(ctx context.Context, name string) (models.TagRef, bool, error) {
	return findOrCreateTag(ctx, r.db, name)
}

const tagColumns = `t.id, t.name, t.description, t.created_at,
	(SELECT COUNT(*) FROM question_tags qt WHERE qt.tag_id = t.id) AS question_count`

func scanTag(row interface{ Scan(...any) error }) (*models.Tag, error) {
	t := &models.Tag{}
	var description sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &description, &t.CreatedAt, &t.QuestionCount); err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	return t, nil
}

// GetByID retrieves a tag by ID
func (r *TagRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	t, err := scanTag(r.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags t WHERE t.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("tag", id.String())
	}
	if err != nil {
		return nil, apperror.FromStorage("get tag", err)
	}
	return t, nil
}

// GetByName looks a tag up ignoring case.
func (r *TagRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	t, err := scanTag(r.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags t WHERE lower(t.name) = lower($1)`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("tag", name)
	}
	if err != nil {
		return nil, apperror.FromStorage("get tag by name", err)
	}
	return t, nil
}

// Popular returns the tags attached to the most questions.
func (r *TagRepository) Popular(ctx context.Context, limit int) ([]*models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tagColumns+`
		FROM tags t
		ORDER BY question_count DESC, t.name ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperror.FromStorage("query popular tags", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, apperror.FromStorage("scan tag", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.FromStorage("iterate tags", err)
	}
	return tags, nil
}

// SetDescription stores an AI generated description.
func (r *TagRepository) SetDescription(ctx context.Context, id uuid.UUID, description string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tags SET description = $2 WHERE id = $1`, id, description)
	if err != nil {
		return apperror.FromStorage("set tag description", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("tag", id.String())
	}
	return nil
}

// PruneEmpty deletes every tag no question references.
func (r *TagRepository) PruneEmpty(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM tags t
		WHERE NOT EXISTS (SELECT 1 FROM question_tags qt WHERE qt.tag_id = t.id)
	`)
	if err != nil {
		return 0, apperror.FromStorage("prune tags", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperror.FromStorage("prune tags", err)
	}
	return n, nil
}

// pruneTags deletes the given tags when they no longer reference a question.
func pruneTags(ctx context.Context, q querier, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx, `
		DELETE FROM tags t
		WHERE t.id = ANY($1::uuid[])
		  AND NOT EXISTS (SELECT 1 FROM question_tags qt WHERE qt.tag_id = t.id)
	`, uuidArray(ids))
	if err != nil {
		return apperror.FromStorage("prune removed tags", err)
	}
	return nil
}
