package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, provider_id, email, name, username, picture, reputation, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var picture sql.NullString
	err := row.Scan(&u.ID, &u.ProviderID, &u.Email, &u.Name, &u.Username, &picture, &u.Reputation, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if picture.Valid {
		u.Picture = &picture.String
	}
	return u, nil
}

// Upsert creates the user on first sight of a provider identity and refreshes
// the profile fields on later sign ins. Reputation is never touched here.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	query := `
		INSERT INTO users (id, provider_id, email, name, username, picture, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (provider_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			username = EXCLUDED.username,
			picture = EXCLUDED.picture,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns

	got, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.ProviderID, user.Email, user.Name, user.Username, user.Picture, now,
	))
	if err != nil {
		return apperror.FromStorage("upsert user", err)
	}
	*user = *got
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id.String())
	}
	if err != nil {
		return nil, apperror.FromStorage("get user", err)
	}
	return u, nil
}

// GetByProviderID looks a user up by the identity provider subject.
func (r *UserRepository) GetByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE provider_id = $1`, providerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", providerID)
	}
	if err != nil {
		return nil, apperror.FromStorage("get user by provider id", err)
	}
	return u, nil
}

// adjustReputation applies delta atomically in SQL so concurrent votes never
// lose an update.
func adjustReputation(ctx context.Context, q querier, userID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	res, err := q.ExecContext(ctx,
		`UPDATE users SET reputation = reputation + $2, updated_at = now() WHERE id = $1`,
		userID, delta,
	)
	if err != nil {
		return apperror.FromStorage("adjust reputation", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("user", userID.String())
	}
	return nil
}

// ToggleSaved adds the question to the user's saved set, or removes it when
// already saved. It returns whether the question is saved afterwards.
func (r *UserRepository) ToggleSaved(ctx context.Context, userID, questionID uuid.UUID) (bool, error) {
	var saved bool
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM saved_questions WHERE user_id = $1 AND question_id = $2`,
			userID, questionID,
		)
		if err != nil {
			return apperror.FromStorage("unsave question", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			saved = false
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO saved_questions (user_id, question_id) VALUES ($1, $2)`,
			userID, questionID,
		)
		if isForeignKeyViolation(err) {
			return apperror.NotFound("question", questionID.String())
		}
		if err != nil {
			return apperror.FromStorage("save question", err)
		}
		saved = true
		return nil
	})
	return saved, err
}
