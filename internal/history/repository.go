package history

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/movieflix/backend/internal/models"
)

// Repository is the Postgres-backed account watch history.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *Repository) List(ctx context.Context, accountID uuid.UUID) ([]models.AccountHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, movie_id, title, poster_path, genres, duration, vote_average, watched_at
		FROM watch_history
		WHERE account_id = $1
		ORDER BY watched_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.AccountHistoryEntry{}
	for rows.Next() {
		var e models.AccountHistoryEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.MovieID, &e.Title, &e.PosterPath,
			&e.Genres, &e.Duration, &e.VoteAverage, &e.WatchedAt); err != nil {
			return nil, err
		}
		if e.Genres == nil {
			e.Genres = []string{}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) Upsert(ctx context.Context, tx pgx.Tx, e *models.AccountHistoryEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO watch_history (id, account_id, movie_id, title, poster_path, genres, duration, vote_average, watched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (account_id, movie_id) DO UPDATE
		SET title = EXCLUDED.title,
			poster_path = EXCLUDED.poster_path,
			genres = EXCLUDED.genres,
			duration = EXCLUDED.duration,
			vote_average = EXCLUDED.vote_average,
			watched_at = EXCLUDED.watched_at`,
		e.ID, e.AccountID, e.MovieID, e.Title, e.PosterPath, e.Genres, e.Duration, e.VoteAverage, e.WatchedAt,
	)
	return err
}

func (r *Repository) Trim(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, keep int) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM watch_history
		WHERE account_id = $1 AND id NOT IN (
			SELECT id FROM watch_history
			WHERE account_id = $1
			ORDER BY watched_at DESC
			LIMIT $2
		)`, accountID, keep)
	return err
}

func (r *Repository) Clear(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM watch_history WHERE account_id = $1`, accountID)
	return err
}
