package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/movieflix/backend/internal/models"
)

const accountColumns = `id, subject_id, email, display_name, photo_url, role, is_active, email_verified,
	sub_plan, sub_status, sub_billing_cycle, sub_start_date, sub_end_date, trial_start, trial_end,
	max_profiles, active_profile_id, last_login_at, created_at, updated_at`

// Repository persists accounts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID, &a.SubjectID, &a.Email, &a.DisplayName, &a.PhotoURL, &a.Role, &a.IsActive, &a.EmailVerified,
		&a.Subscription.Plan, &a.Subscription.Status, &a.Subscription.BillingCycle,
		&a.Subscription.StartDate, &a.Subscription.EndDate, &a.Subscription.TrialStart, &a.Subscription.TrialEnd,
		&a.MaxProfiles, &a.ActiveProfileID, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) GetBySubject(ctx context.Context, subject string) (*models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE subject_id = $1`, subject))
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = lower($1)`, email))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (r *Repository) Insert(ctx context.Context, a *models.Account) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, subject_id, email, display_name, photo_url, role, is_active, email_verified,
			sub_plan, sub_status, sub_billing_cycle, sub_start_date, sub_end_date, trial_start, trial_end,
			max_profiles, active_profile_id, last_login_at)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at
	`, a.ID, a.SubjectID, a.Email, a.DisplayName, a.PhotoURL, a.Role, a.IsActive, a.EmailVerified,
		a.Subscription.Plan, a.Subscription.Status, a.Subscription.BillingCycle,
		a.Subscription.StartDate, a.Subscription.EndDate, a.Subscription.TrialStart, a.Subscription.TrialEnd,
		a.MaxProfiles, a.ActiveProfileID, a.LastLoginAt).Scan(&a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *Repository) Update(ctx context.Context, a *models.Account) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE accounts SET subject_id = $2, email = lower($3), display_name = $4, photo_url = $5,
			role = $6, is_active = $7, email_verified = $8,
			sub_plan = $9, sub_status = $10, sub_billing_cycle = $11, sub_start_date = $12, sub_end_date = $13,
			trial_start = $14, trial_end = $15, max_profiles = $16, active_profile_id = $17,
			last_login_at = $18, updated_at = now()
		WHERE id = $1
	`, a.ID, a.SubjectID, a.Email, a.DisplayName, a.PhotoURL, a.Role, a.IsActive, a.EmailVerified,
		a.Subscription.Plan, a.Subscription.Status, a.Subscription.BillingCycle,
		a.Subscription.StartDate, a.Subscription.EndDate, a.Subscription.TrialStart, a.Subscription.TrialEnd,
		a.MaxProfiles, a.ActiveProfileID, a.LastLoginAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, role string, limit, offset int) ([]*models.Account, int, error) {
	where := ""
	args := []any{limit, offset}
	if role != "" {
		where = "WHERE role = $3"
		args = append(args, role)
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM accounts %s ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, accountColumns, where), args...)
	if err != nil {
		return nil, 0, err
	}
	list, err := collectAccounts(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countArgs := []any{}
	countWhere := ""
	if role != "" {
		countWhere = "WHERE role = $1"
		countArgs = append(countArgs, role)
	}
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM accounts "+countWhere, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *Repository) Search(ctx context.Context, q string, limit, offset int) ([]*models.Account, int, error) {
	pattern := "%" + q + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE email ILIKE $1 OR display_name ILIKE $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	list, err := collectAccounts(rows)
	if err != nil {
		return nil, 0, err
	}
	var total int
	err = r.pool.QueryRow(ctx,
		`SELECT count(*) FROM accounts WHERE email ILIKE $1 OR display_name ILIKE $1`, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func collectAccounts(rows pgx.Rows) ([]*models.Account, error) {
	defer rows.Close()
	var list []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
