package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/movieflix/backend/internal/models"
)

var (
	// ErrNotFound is returned when the profile does not exist or belongs
	// to a different account.
	ErrNotFound = errors.New("profile not found")
	// ErrNameTaken is returned when another profile of the same account
	// already uses the name.
	ErrNameTaken = errors.New("profile name already exists")
	// ErrLastProfile guards the account's only remaining profile.
	ErrLastProfile = errors.New("cannot delete the last profile")
	// ErrInvalidName is returned for an empty or over-long name.
	ErrInvalidName = errors.New("profile name must be 1-50 characters")
	// ErrInvalidPIN is returned for a PIN outside 4-6 characters.
	ErrInvalidPIN = errors.New("pin must be 4-6 characters")
	// ErrWrongPIN is returned when the supplied PIN does not match.
	ErrWrongPIN = errors.New("invalid pin")
	// ErrAlreadyInList is returned for a duplicate my-list add.
	ErrAlreadyInList = errors.New("content already in list")
	// ErrNotInList is returned when removing content that is not listed.
	ErrNotInList = errors.New("content not found in list")
	// ErrNoActiveProfile is returned when the account has no active profile.
	ErrNoActiveProfile = errors.New("no active profile found")
)

// LimitError rejects a create once the account's profile count reaches its
// ceiling; it carries the counts so clients can render the message.
type LimitError struct {
	Current int
	Max     int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("profile limit reached (%d of %d)", e.Current, e.Max)
}

// ProfileWithCounts is a profile plus the sizes of its embedded lists, for
// read endpoints that exclude the lists themselves.
type ProfileWithCounts struct {
	models.Profile
	WatchHistoryCount int `json:"watchHistoryCount"`
	MyListCount       int `json:"myListCount"`
}

// Store is the persistence surface of the profile service. Methods taking a
// pgx.Tx participate in the multi-statement invariant sequences; the
// service owns the transaction boundaries.
type Store interface {
	Begin(ctx context.Context) (pgx.Tx, error)

	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*ProfileWithCounts, error)
	GetByID(ctx context.Context, accountID, profileID uuid.UUID) (*ProfileWithCounts, error)
	GetActive(ctx context.Context, accountID uuid.UUID) (*ProfileWithCounts, error)
	Count(ctx context.Context, accountID uuid.UUID) (int, error)

	// CountForUpdate locks the account row so concurrent creates, deletes,
	// and switches serialize on it.
	CountForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int, error)
	// GetByIDTx reads the profile inside the transaction, after the account
	// lock, so activity state is not a stale pre-transaction snapshot.
	GetByIDTx(ctx context.Context, tx pgx.Tx, accountID, profileID uuid.UUID) (*models.Profile, error)
	Insert(ctx context.Context, tx pgx.Tx, p *models.Profile) error
	Update(ctx context.Context, p *models.Profile) error
	DeleteProfile(ctx context.Context, tx pgx.Tx, profileID uuid.UUID) error
	EarliestOther(ctx context.Context, tx pgx.Tx, accountID, exclude uuid.UUID) (*models.Profile, error)

	DeactivateAll(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) error
	Activate(ctx context.Context, tx pgx.Tx, accountID, profileID uuid.UUID) error
	SetAccountActiveProfile(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, profileID *uuid.UUID) error

	UpsertHistory(ctx context.Context, tx pgx.Tx, profileID uuid.UUID, e *models.WatchHistoryEntry) error
	SumHistoryProgress(ctx context.Context, tx pgx.Tx, profileID uuid.UUID) (int, error)
	SetWatchStats(ctx context.Context, tx pgx.Tx, profileID uuid.UUID, totalMinutes int) error
	TrimHistory(ctx context.Context, tx pgx.Tx, profileID uuid.UUID, keep int) error
	ListHistory(ctx context.Context, profileID uuid.UUID) ([]models.WatchHistoryEntry, error)
	ClearHistory(ctx context.Context, profileID uuid.UUID) error

	InsertListEntry(ctx context.Context, profileID uuid.UUID, e *models.MyListEntry) error
	RemoveListEntry(ctx context.Context, profileID uuid.UUID, contentID string) (bool, error)
	ListEntries(ctx context.Context, profileID uuid.UUID) ([]models.MyListEntry, error)
}

// Service owns viewer-profile lifecycle: capacity limits, active-profile
// selection, and the embedded watch-history and my-list collections.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Ceiling returns the account's profile ceiling: the per-account override
// when set, otherwise the plan-derived default.
func (s *Service) Ceiling(acc *models.Account) int {
	if acc.MaxProfiles != nil && *acc.MaxProfiles > 0 {
		return *acc.MaxProfiles
	}
	return models.MaxProfilesForPlan(acc.Subscription.Plan)
}

// Limits reports current count against the ceiling.
type Limits struct {
	CurrentCount int  `json:"currentCount"`
	MaxAllowed   int  `json:"maxAllowed"`
	CanCreate    bool `json:"canCreate"`
	Remaining    int  `json:"remaining"`
}

func (s *Service) Limits(ctx context.Context, acc *models.Account) (*Limits, error) {
	count, err := s.store.Count(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	max := s.Ceiling(acc)
	remaining := max - count
	if remaining < 0 {
		remaining = 0
	}
	return &Limits{CurrentCount: count, MaxAllowed: max, CanCreate: count < max, Remaining: remaining}, nil
}

func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]*ProfileWithCounts, error) {
	return s.store.ListByAccount(ctx, accountID)
}

func (s *Service) Get(ctx context.Context, accountID, profileID uuid.UUID) (*ProfileWithCounts, error) {
	return s.store.GetByID(ctx, accountID, profileID)
}

func (s *Service) Active(ctx context.Context, accountID uuid.UUID) (*ProfileWithCounts, error) {
	p, err := s.store.GetActive(ctx, accountID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoActiveProfile
	}
	return p, err
}

// PreferencesPatch is a shallow merge over the stored preference bundle;
// nil fields are untouched.
type PreferencesPatch struct {
	Language         *string `json:"language" validate:"omitempty,min=2,max=8"`
	MaturityRating   *string `json:"maturityRating" validate:"omitempty,oneof=all 7+ 13+ 16+ 18+"`
	Autoplay         *bool   `json:"autoplay"`
	Subtitles        *bool   `json:"subtitles"`
	SubtitleLanguage *string `json:"subtitleLanguage" validate:"omitempty,min=2,max=8"`
}

func (p *PreferencesPatch) apply(prefs *models.Preferences) {
	if p == nil {
		return
	}
	if p.Language != nil {
		prefs.Language = *p.Language
	}
	if p.MaturityRating != nil {
		prefs.MaturityRating = *p.MaturityRating
	}
	if p.Autoplay != nil {
		prefs.Autoplay = *p.Autoplay
	}
	if p.Subtitles != nil {
		prefs.Subtitles = *p.Subtitles
	}
	if p.SubtitleLanguage != nil {
		prefs.SubtitleLanguage = *p.SubtitleLanguage
	}
}

// CreateInput is the validated create request.
type CreateInput struct {
	Name        string
	Avatar      string
	Type        string
	Preferences *PreferencesPatch
	PIN         string
}

// Create adds a profile, enforcing the name and capacity invariants. The
// count check and insert run in one transaction with the account row locked
// so two concurrent creates cannot both pass at the ceiling. The account's
// first profile is activated automatically.
func (s *Service) Create(ctx context.Context, acc *models.Account, in CreateInput) (*models.Profile, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}
	profileType := in.Type
	if profileType == "" {
		profileType = models.ProfileTypeAdult
	}
	if profileType != models.ProfileTypeAdult && profileType != models.ProfileTypeKids {
		return nil, fmt.Errorf("invalid profile type %q", in.Type)
	}

	p := &models.Profile{
		ID:          uuid.New(),
		AccountID:   acc.ID,
		Name:        name,
		Type:        profileType,
		Avatar:      in.Avatar,
		Preferences: models.DefaultPreferences(profileType),
	}
	if p.Avatar == "" {
		p.Avatar = DefaultAvatar(profileType)
	}
	in.Preferences.apply(&p.Preferences)

	if in.PIN != "" {
		hash, err := hashPIN(in.PIN)
		if err != nil {
			return nil, err
		}
		p.PINHash = hash
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	count, err := s.store.CountForUpdate(ctx, tx, acc.ID)
	if err != nil {
		return nil, err
	}
	max := s.Ceiling(acc)
	if count >= max {
		return nil, &LimitError{Current: count, Max: max}
	}

	p.IsActive = count == 0
	if err := s.store.Insert(ctx, tx, p); err != nil {
		return nil, err
	}
	if p.IsActive {
		if err := s.store.SetAccountActiveProfile(ctx, tx, acc.ID, &p.ID); err != nil {
			return nil, err
		}
		acc.ActiveProfileID = &p.ID
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateInput carries partial profile changes. PIN semantics: nil leaves it
// alone, empty string clears it, anything else re-hashes and stores it.
type UpdateInput struct {
	Name        *string
	Avatar      *string
	Type        *string
	Preferences *PreferencesPatch
	PIN         *string
}

func (s *Service) Update(ctx context.Context, accountID, profileID uuid.UUID, in UpdateInput) (*models.Profile, error) {
	cur, err := s.store.GetByID(ctx, accountID, profileID)
	if err != nil {
		return nil, err
	}
	p := cur.Profile

	if in.Name != nil {
		name, err := validateName(*in.Name)
		if err != nil {
			return nil, err
		}
		p.Name = name
	}
	if in.Avatar != nil {
		p.Avatar = *in.Avatar
	}
	if in.Type != nil && (*in.Type == models.ProfileTypeAdult || *in.Type == models.ProfileTypeKids) {
		p.Type = *in.Type
		// Switching to kids drops the rating to 7+ only from unset or 18+;
		// an intentionally chosen intermediate rating is kept.
		if p.Type == models.ProfileTypeKids &&
			(p.Preferences.MaturityRating == "" || p.Preferences.MaturityRating == models.Maturity18) {
			p.Preferences.MaturityRating = models.Maturity7
		}
	}
	in.Preferences.apply(&p.Preferences)

	if in.PIN != nil {
		if *in.PIN == "" {
			p.PINHash = ""
		} else {
			hash, err := hashPIN(*in.PIN)
			if err != nil {
				return nil, err
			}
			p.PINHash = hash
		}
	}

	if err := s.store.Update(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a profile. The last profile is protected; deleting the
// active one promotes the earliest-created survivor and repoints the
// account reference, all within one transaction. The target's activity
// state is read under the account lock, so a switch committed just before
// cannot leave two profiles active.
func (s *Service) Delete(ctx context.Context, acc *models.Account, profileID uuid.UUID) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	count, err := s.store.CountForUpdate(ctx, tx, acc.ID)
	if err != nil {
		return err
	}
	target, err := s.store.GetByIDTx(ctx, tx, acc.ID, profileID)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastProfile
	}

	if target.IsActive {
		next, err := s.store.EarliestOther(ctx, tx, acc.ID, profileID)
		if err != nil {
			return err
		}
		if err := s.store.Activate(ctx, tx, acc.ID, next.ID); err != nil {
			return err
		}
		if err := s.store.SetAccountActiveProfile(ctx, tx, acc.ID, &next.ID); err != nil {
			return err
		}
		acc.ActiveProfileID = &next.ID
	}

	if err := s.store.DeleteProfile(ctx, tx, profileID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Switch makes the target profile the account's active one. All sibling
// deactivation, target activation, and the account back-reference update
// happen in a single transaction under the account lock, so at most one
// profile is active at any commit point and a racing delete cannot promote
// a second one.
func (s *Service) Switch(ctx context.Context, acc *models.Account, profileID uuid.UUID, pin string) (*models.Profile, error) {
	target, err := s.store.GetByID(ctx, acc.ID, profileID)
	if err != nil {
		return nil, err
	}
	if target.PINHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(target.PINHash), []byte(pin)) != nil {
			return nil, ErrWrongPIN
		}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.store.CountForUpdate(ctx, tx, acc.ID); err != nil {
		return nil, err
	}
	// Confirm the target still exists now that the lock is held.
	if _, err := s.store.GetByIDTx(ctx, tx, acc.ID, profileID); err != nil {
		return nil, err
	}
	if err := s.store.DeactivateAll(ctx, tx, acc.ID); err != nil {
		return nil, err
	}
	if err := s.store.Activate(ctx, tx, acc.ID, profileID); err != nil {
		return nil, err
	}
	if err := s.store.SetAccountActiveProfile(ctx, tx, acc.ID, &profileID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	acc.ActiveProfileID = &profileID
	p := target.Profile
	p.IsActive = true
	p.LastActivityAt = s.now()
	return &p, nil
}

// HistoryInput is a validated watch-history add.
type HistoryInput struct {
	ContentID    string
	ContentType  string
	Title        string
	PosterPath   string
	BackdropPath string
	Progress     int
	Duration     int
	Season       *int
	Episode      *int
}

// AddHistory upserts a history entry keyed by (contentId, contentType):
// a repeat of the same pair updates in place and refreshes watchedAt.
// totalWatchTime is recomputed from all entries and the list trimmed to the
// most recent 100. Returns whether the entry counts as completed
// (progress at or past 90% of duration).
func (s *Service) AddHistory(ctx context.Context, accountID, profileID uuid.UUID, in HistoryInput) (bool, error) {
	if _, err := s.store.GetByID(ctx, accountID, profileID); err != nil {
		return false, err
	}

	completed := in.Duration > 0 && float64(in.Progress) >= 0.9*float64(in.Duration)
	entry := &models.WatchHistoryEntry{
		ContentID:    in.ContentID,
		ContentType:  in.ContentType,
		Title:        in.Title,
		PosterPath:   in.PosterPath,
		BackdropPath: in.BackdropPath,
		Progress:     in.Progress,
		Duration:     in.Duration,
		Completed:    completed,
		WatchedAt:    s.now(),
		Season:       in.Season,
		Episode:      in.Episode,
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if err := s.store.UpsertHistory(ctx, tx, profileID, entry); err != nil {
		return false, err
	}
	if err := s.store.TrimHistory(ctx, tx, profileID, models.WatchHistoryCap); err != nil {
		return false, err
	}
	total, err := s.store.SumHistoryProgress(ctx, tx, profileID)
	if err != nil {
		return false, err
	}
	if err := s.store.SetWatchStats(ctx, tx, profileID, total/60); err != nil {
		return false, err
	}
	return completed, tx.Commit(ctx)
}

func (s *Service) History(ctx context.Context, accountID, profileID uuid.UUID) ([]models.WatchHistoryEntry, error) {
	if _, err := s.store.GetByID(ctx, accountID, profileID); err != nil {
		return nil, err
	}
	return s.store.ListHistory(ctx, profileID)
}

// ContinueWatching returns the most recent incomplete entries with actual
// progress, capped at 20.
func (s *Service) ContinueWatching(ctx context.Context, accountID, profileID uuid.UUID) ([]models.WatchHistoryEntry, error) {
	history, err := s.History(ctx, accountID, profileID)
	if err != nil {
		return nil, err
	}
	out := make([]models.WatchHistoryEntry, 0, 20)
	for _, e := range history {
		if !e.Completed && e.Progress > 0 {
			out = append(out, e)
			if len(out) == 20 {
				break
			}
		}
	}
	return out, nil
}

func (s *Service) ClearHistory(ctx context.Context, accountID, profileID uuid.UUID) error {
	if _, err := s.store.GetByID(ctx, accountID, profileID); err != nil {
		return err
	}
	return s.store.ClearHistory(ctx, profileID)
}

// ListInput is a validated my-list add.
type ListInput struct {
	ContentID    string
	ContentType  string
	Title        string
	PosterPath   string
	BackdropPath string
	Overview     string
	VoteAverage  *float64
	ReleaseDate  string
}

func (s *Service) AddToList(ctx context.Context, accountID, profileID uuid.UUID, in ListInput) error {
	if _, err := s.store.GetByID(ctx, accountID, profileID); err != nil {
		return err
	}
	return s.store.InsertListEntry(ctx, profileID, &models.MyListEntry{
		ContentID:    in.ContentID,
		ContentType:  in.ContentType,
		Title:        in.Title,
		PosterPath:   in.PosterPath,
		BackdropPath: in.BackdropPath,
		Overview:     in.Overview,
		VoteAverage:  in.VoteAverage,
		ReleaseDate:  in.ReleaseDate,
		AddedAt:      s.now(),
	})
}

func (s *Service) RemoveFromList(ctx context.Context, accountID, profileID uuid.UUID, contentID string) error {
	if _, err := s.store.GetByID(ctx, accountID, profileID); err != nil {
		return err
	}
	removed, err := s.store.RemoveListEntry(ctx, profileID, contentID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotInList
	}
	return nil
}

func (s *Service) MyList(ctx context.Context, accountID, profileID uuid.UUID) ([]models.MyListEntry, error) {
	if _, err := s.store.GetByID(ctx, accountID, profileID); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, profileID)
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || len(name) > models.MaxProfileNameLen {
		return "", ErrInvalidName
	}
	return name, nil
}

func hashPIN(pin string) (string, error) {
	if len(pin) < 4 || len(pin) > 6 {
		return "", ErrInvalidPIN
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
