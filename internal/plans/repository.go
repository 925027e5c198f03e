package plans

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/movieflix/backend/internal/models"
)

const planColumns = `id, name, display_name, price_monthly, price_yearly,
	features, quality, resolution, devices, is_active, created_at, updated_at`

// Repository is the Postgres-backed plan catalog.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPlan(row pgx.Row) (*models.Plan, error) {
	var p models.Plan
	err := row.Scan(
		&p.ID, &p.Name, &p.DisplayName, &p.Price.Monthly, &p.Price.Yearly,
		&p.Features, &p.Quality, &p.Resolution, &p.Devices, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	return &p, nil
}

func (r *Repository) ListActive(ctx context.Context) ([]*models.Plan, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+planColumns+` FROM plans WHERE is_active ORDER BY price_monthly ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) GetByName(ctx context.Context, name string) (*models.Plan, error) {
	return scanPlan(r.pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE name = $1 AND is_active`, name))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	return scanPlan(r.pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM plans`).Scan(&n)
	return n, err
}

func (r *Repository) Insert(ctx context.Context, p *models.Plan) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO plans (id, name, display_name, price_monthly, price_yearly,
			features, quality, resolution, devices, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.DisplayName, p.Price.Monthly, p.Price.Yearly,
		p.Features, p.Quality, p.Resolution, p.Devices, p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrNameTaken
	}
	return err
}

func (r *Repository) Update(ctx context.Context, p *models.Plan) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE plans
		SET display_name = $2, price_monthly = $3, price_yearly = $4,
			features = $5, quality = $6, resolution = $7, devices = $8,
			is_active = $9, updated_at = now()
		WHERE id = $1`,
		p.ID, p.DisplayName, p.Price.Monthly, p.Price.Yearly,
		p.Features, p.Quality, p.Resolution, p.Devices, p.IsActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
