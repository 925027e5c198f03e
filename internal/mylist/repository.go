package mylist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/movieflix/backend/internal/models"
)

// Repository is the Postgres-backed account my list.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context, accountID uuid.UUID) ([]models.AccountListEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, movie_id, title, poster_path, media_type, added_at
		FROM account_mylist
		WHERE account_id = $1
		ORDER BY added_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.AccountListEntry{}
	for rows.Next() {
		var e models.AccountListEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.MovieID, &e.Title, &e.PosterPath,
			&e.MediaType, &e.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) Insert(ctx context.Context, e *models.AccountListEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO account_mylist (id, account_id, movie_id, title, poster_path, media_type, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.AccountID, e.MovieID, e.Title, e.PosterPath, e.MediaType, e.AddedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyInList
	}
	return err
}

func (r *Repository) Remove(ctx context.Context, accountID uuid.UUID, movieID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM account_mylist WHERE account_id = $1 AND movie_id = $2`, accountID, movieID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) Contains(ctx context.Context, accountID uuid.UUID, movieID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM account_mylist WHERE account_id = $1 AND movie_id = $2)`,
		accountID, movieID).Scan(&exists)
	return exists, err
}

func (r *Repository) Clear(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM account_mylist WHERE account_id = $1`, accountID)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
