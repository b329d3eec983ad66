package database

import (
	"context"
	"fmt"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/forum"
)

// SearchRepository runs the per class substring queries behind global search.
type SearchRepository struct {
	db *DB
}

func NewSearchRepository(db *DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// searchQueries select id, matched text, external id and parent question id
// for each class, newest first.
var searchQueries = map[forum.SearchType]string{
	forum.SearchQuestion: `SELECT id, title, '', id FROM questions WHERE title ILIKE $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
	forum.SearchAnswer:   `SELECT id, content, '', question_id FROM answers WHERE content ILIKE $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
	forum.SearchUser:     `SELECT id, name, provider_id, id FROM users WHERE name ILIKE $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
	forum.SearchTag:      `SELECT id, name, '', id FROM tags WHERE name ILIKE $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
}

// Search returns up to limit hits of one class whose searchable field
// contains query, ignoring case.
func (r *SearchRepository) Search(ctx context.Context, t forum.SearchType, query string, limit int) ([]forum.SearchHit, error) {
	sqlQuery, ok := searchQueries[t]
	if !ok {
		return nil, apperror.InvalidInput("type", fmt.Sprintf("unsupported search type %q", t))
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, likePattern(query), limit)
	if err != nil {
		return nil, apperror.FromStorage("search "+string(t), err)
	}
	defer rows.Close()

	var hits []forum.SearchHit
	for rows.Next() {
		var h forum.SearchHit
		if err := rows.Scan(&h.ID, &h.Text, &h.ExternalID, &h.QuestionID); err != nil {
			return nil, apperror.FromStorage("scan search hit", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.FromStorage("iterate search hits", err)
	}
	return hits, nil
}
