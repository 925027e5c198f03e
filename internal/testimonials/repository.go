package testimonials

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/movieflix/backend/internal/models"
)

const testimonialColumns = `id, name, role, rating, text, avatar, is_approved, created_at`

// Repository is the Postgres-backed testimonial store.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanTestimonial(row pgx.Row) (*models.Testimonial, error) {
	var t models.Testimonial
	err := row.Scan(&t.ID, &t.Name, &t.Role, &t.Rating, &t.Text, &t.Avatar, &t.IsApproved, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) collect(ctx context.Context, query string, args ...any) ([]*models.Testimonial, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Testimonial
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) ListApproved(ctx context.Context, limit int) ([]*models.Testimonial, error) {
	return r.collect(ctx,
		`SELECT `+testimonialColumns+` FROM testimonials
		WHERE is_approved ORDER BY created_at DESC LIMIT $1`, limit)
}

func (r *Repository) ListAll(ctx context.Context) ([]*models.Testimonial, error) {
	return r.collect(ctx,
		`SELECT `+testimonialColumns+` FROM testimonials ORDER BY created_at DESC`)
}

func (r *Repository) Insert(ctx context.Context, t *models.Testimonial) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO testimonials (id, name, role, rating, text, avatar, is_approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Name, t.Role, t.Rating, t.Text, t.Avatar, t.IsApproved, t.CreatedAt,
	)
	return err
}

func (r *Repository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) (*models.Testimonial, error) {
	return scanTestimonial(r.pool.QueryRow(ctx, `
		UPDATE testimonials SET is_approved = $2 WHERE id = $1
		RETURNING `+testimonialColumns, id, approved))
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
