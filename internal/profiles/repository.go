package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/movieflix/backend/internal/models"
)

const profileColumns = `p.id, p.account_id, p.name, p.avatar, p.type, p.is_active,
	p.pref_language, p.pref_maturity_rating, p.pref_autoplay, p.pref_subtitles, p.pref_subtitle_language,
	p.pin_hash, p.total_watch_time, p.last_activity_at, p.created_at, p.updated_at`

// Repository persists profiles and their embedded lists in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func scanProfile(row pgx.Row, withCounts bool) (*ProfileWithCounts, error) {
	var p ProfileWithCounts
	dest := []any{
		&p.ID, &p.AccountID, &p.Name, &p.Avatar, &p.Type, &p.IsActive,
		&p.Preferences.Language, &p.Preferences.MaturityRating, &p.Preferences.Autoplay,
		&p.Preferences.Subtitles, &p.Preferences.SubtitleLanguage,
		&p.PINHash, &p.TotalWatchTime, &p.LastActivityAt, &p.CreatedAt, &p.UpdatedAt,
	}
	if withCounts {
		dest = append(dest, &p.WatchHistoryCount, &p.MyListCount)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

const countsSelect = `,
	(SELECT count(*) FROM profile_watch_history h WHERE h.profile_id = p.id),
	(SELECT count(*) FROM profile_mylist m WHERE m.profile_id = p.id)`

func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*ProfileWithCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+countsSelect+`
		FROM profiles p WHERE p.account_id = $1 ORDER BY p.created_at ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*ProfileWithCounts
	for rows.Next() {
		p, err := scanProfile(rows, true)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, accountID, profileID uuid.UUID) (*ProfileWithCounts, error) {
	return scanProfile(r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+countsSelect+`
		FROM profiles p WHERE p.id = $1 AND p.account_id = $2
	`, profileID, accountID), true)
}

func (r *Repository) GetActive(ctx context.Context, accountID uuid.UUID) (*ProfileWithCounts, error) {
	return scanProfile(r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+countsSelect+`
		FROM profiles p WHERE p.account_id = $1 AND p.is_active ORDER BY p.created_at ASC LIMIT 1
	`, accountID), true)
}

func (r *Repository) Count(ctx context.Context, accountID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM profiles WHERE account_id = $1`, accountID).Scan(&n)
	return n, err
}

// CountForUpdate locks the parent account row before counting, serializing
// the capacity check against concurrent creates and deletes.
func (r *Repository) CountForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int, error) {
	var id uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	var n int
	err := tx.QueryRow(ctx, `SELECT count(*) FROM profiles WHERE account_id = $1`, accountID).Scan(&n)
	return n, err
}

func (r *Repository) GetByIDTx(ctx context.Context, tx pgx.Tx, accountID, profileID uuid.UUID) (*models.Profile, error) {
	p, err := scanProfile(tx.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles p WHERE p.id = $1 AND p.account_id = $2
	`, profileID, accountID), false)
	if err != nil {
		return nil, err
	}
	return &p.Profile, nil
}

func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, p *models.Profile) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO profiles (id, account_id, name, avatar, type, is_active,
			pref_language, pref_maturity_rating, pref_autoplay, pref_subtitles, pref_subtitle_language,
			pin_hash, total_watch_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0)
		RETURNING last_activity_at, created_at, updated_at
	`, p.ID, p.AccountID, p.Name, p.Avatar, p.Type, p.IsActive,
		p.Preferences.Language, p.Preferences.MaturityRating, p.Preferences.Autoplay,
		p.Preferences.Subtitles, p.Preferences.SubtitleLanguage,
		p.PINHash).Scan(&p.LastActivityAt, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrNameTaken
	}
	return err
}

func (r *Repository) Update(ctx context.Context, p *models.Profile) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE profiles SET name = $3, avatar = $4, type = $5,
			pref_language = $6, pref_maturity_rating = $7, pref_autoplay = $8,
			pref_subtitles = $9, pref_subtitle_language = $10, pin_hash = $11, updated_at = now()
		WHERE id = $1 AND account_id = $2
	`, p.ID, p.AccountID, p.Name, p.Avatar, p.Type,
		p.Preferences.Language, p.Preferences.MaturityRating, p.Preferences.Autoplay,
		p.Preferences.Subtitles, p.Preferences.SubtitleLanguage, p.PINHash)
	if isUniqueViolation(err) {
		return ErrNameTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteProfile(ctx context.Context, tx pgx.Tx, profileID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, profileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) EarliestOther(ctx context.Context, tx pgx.Tx, accountID, exclude uuid.UUID) (*models.Profile, error) {
	p, err := scanProfile(tx.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles p WHERE p.account_id = $1 AND p.id <> $2
		ORDER BY p.created_at ASC LIMIT 1
	`, accountID, exclude), false)
	if err != nil {
		return nil, err
	}
	return &p.Profile, nil
}

func (r *Repository) DeactivateAll(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE profiles SET is_active = false, updated_at = now() WHERE account_id = $1`, accountID)
	return err
}

func (r *Repository) Activate(ctx context.Context, tx pgx.Tx, accountID, profileID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `
		UPDATE profiles SET is_active = true, last_activity_at = now(), updated_at = now()
		WHERE id = $1 AND account_id = $2
	`, profileID, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetAccountActiveProfile(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, profileID *uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE accounts SET active_profile_id = $2, updated_at = now() WHERE id = $1`, accountID, profileID)
	return err
}

func (r *Repository) UpsertHistory(ctx context.Context, tx pgx.Tx, profileID uuid.UUID, e *models.WatchHistoryEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO profile_watch_history (profile_id, content_id, content_type, title, poster_path,
			backdrop_path, progress, duration, completed, watched_at, season, episode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (profile_id, content_id, content_type) DO UPDATE SET
			progress = EXCLUDED.progress,
			duration = EXCLUDED.duration,
			completed = EXCLUDED.completed,
			watched_at = EXCLUDED.watched_at,
			season = COALESCE(EXCLUDED.season, profile_watch_history.season),
			episode = COALESCE(EXCLUDED.episode, profile_watch_history.episode)
	`, profileID, e.ContentID, e.ContentType, e.Title, e.PosterPath, e.BackdropPath,
		e.Progress, e.Duration, e.Completed, e.WatchedAt, e.Season, e.Episode)
	return err
}

func (r *Repository) SumHistoryProgress(ctx context.Context, tx pgx.Tx, profileID uuid.UUID) (int, error) {
	var total int
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(sum(progress), 0) FROM profile_watch_history WHERE profile_id = $1`, profileID).Scan(&total)
	return total, err
}

func (r *Repository) SetWatchStats(ctx context.Context, tx pgx.Tx, profileID uuid.UUID, totalMinutes int) error {
	_, err := tx.Exec(ctx, `
		UPDATE profiles SET total_watch_time = $2, last_activity_at = now(), updated_at = now() WHERE id = $1
	`, profileID, totalMinutes)
	return err
}

func (r *Repository) TrimHistory(ctx context.Context, tx pgx.Tx, profileID uuid.UUID, keep int) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM profile_watch_history
		WHERE profile_id = $1 AND id NOT IN (
			SELECT id FROM profile_watch_history
			WHERE profile_id = $1 ORDER BY watched_at DESC LIMIT $2
		)
	`, profileID, keep)
	return err
}

func (r *Repository) ListHistory(ctx context.Context, profileID uuid.UUID) ([]models.WatchHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT content_id, content_type, title, poster_path, backdrop_path,
			progress, duration, completed, watched_at, season, episode
		FROM profile_watch_history WHERE profile_id = $1 ORDER BY watched_at DESC
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.WatchHistoryEntry
	for rows.Next() {
		var e models.WatchHistoryEntry
		if err := rows.Scan(&e.ContentID, &e.ContentType, &e.Title, &e.PosterPath, &e.BackdropPath,
			&e.Progress, &e.Duration, &e.Completed, &e.WatchedAt, &e.Season, &e.Episode); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *Repository) ClearHistory(ctx context.Context, profileID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM profile_watch_history WHERE profile_id = $1`, profileID)
	return err
}

func (r *Repository) InsertListEntry(ctx context.Context, profileID uuid.UUID, e *models.MyListEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profile_mylist (profile_id, content_id, content_type, title, poster_path,
			backdrop_path, overview, vote_average, release_date, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, profileID, e.ContentID, e.ContentType, e.Title, e.PosterPath, e.BackdropPath,
		e.Overview, e.VoteAverage, e.ReleaseDate, e.AddedAt)
	if isUniqueViolation(err) {
		return ErrAlreadyInList
	}
	return err
}

func (r *Repository) RemoveListEntry(ctx context.Context, profileID uuid.UUID, contentID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM profile_mylist WHERE profile_id = $1 AND content_id = $2`, profileID, contentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) ListEntries(ctx context.Context, profileID uuid.UUID) ([]models.MyListEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT content_id, content_type, title, poster_path, backdrop_path,
			overview, vote_average, release_date, added_at
		FROM profile_mylist WHERE profile_id = $1 ORDER BY added_at DESC
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.MyListEntry
	for rows.Next() {
		var e models.MyListEntry
		if err := rows.Scan(&e.ContentID, &e.ContentType, &e.Title, &e.PosterPath, &e.BackdropPath,
			&e.Overview, &e.VoteAverage, &e.ReleaseDate, &e.AddedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
