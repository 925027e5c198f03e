package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile types.
const (
	ProfileTypeAdult = "adult"
	ProfileTypeKids  = "kids"
)

// Maturity ratings, most to least restrictive.
const (
	MaturityAll = "all"
	Maturity7   = "7+"
	Maturity13  = "13+"
	Maturity16  = "16+"
	Maturity18  = "18+"
)

// MaxProfileNameLen caps a profile name.
const MaxProfileNameLen = 50

// WatchHistoryCap is the maximum number of embedded watch-history entries a
// profile keeps; the oldest by watchedAt are evicted past this bound.
const WatchHistoryCap = 100

// Preferences is the per-profile viewing preference bundle.
type Preferences struct {
	Language         string `json:"language"`
	MaturityRating   string `json:"maturityRating"`
	Autoplay         bool   `json:"autoplay"`
	Subtitles        bool   `json:"subtitles"`
	SubtitleLanguage string `json:"subtitleLanguage"`
}

// DefaultPreferences returns the preference bundle a new profile of the
// given type starts with.
func DefaultPreferences(profileType string) Preferences {
	rating := Maturity18
	if profileType == ProfileTypeKids {
		rating = Maturity7
	}
	return Preferences{
		Language:         "en",
		MaturityRating:   rating,
		Autoplay:         true,
		Subtitles:        true,
		SubtitleLanguage: "en",
	}
}

// Profile is a viewer slot owned by exactly one account. Name is unique per
// account; at most one profile per account has IsActive set.
type Profile struct {
	ID          uuid.UUID   `json:"id"`
	AccountID   uuid.UUID   `json:"userId"`
	Name        string      `json:"name"`
	Avatar      string      `json:"avatar"`
	Type        string      `json:"type"`
	IsActive    bool        `json:"isActive"`
	Preferences Preferences `json:"preferences"`

	// PINHash is a bcrypt hash of the optional 4-6 character PIN, or empty.
	PINHash string `json:"-"`

	// TotalWatchTime is minutes watched, derived from history progress.
	TotalWatchTime int `json:"totalWatchTime"`

	LastActivityAt time.Time `json:"lastActivityAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// WatchHistoryEntry is one embedded history row; (ContentID, ContentType)
// is unique within a profile.
type WatchHistoryEntry struct {
	ContentID    string    `json:"contentId"`
	ContentType  string    `json:"contentType"`
	Title        string    `json:"title"`
	PosterPath   string    `json:"posterPath,omitempty"`
	BackdropPath string    `json:"backdropPath,omitempty"`
	Progress     int       `json:"progress"`
	Duration     int       `json:"duration"`
	Completed    bool      `json:"completed"`
	WatchedAt    time.Time `json:"watchedAt"`
	Season       *int      `json:"season,omitempty"`
	Episode      *int      `json:"episode,omitempty"`
}

// MyListEntry is one embedded my-list row; ContentID is unique within a
// profile.
type MyListEntry struct {
	ContentID    string    `json:"contentId"`
	ContentType  string    `json:"contentType"`
	Title        string    `json:"title"`
	PosterPath   string    `json:"posterPath,omitempty"`
	BackdropPath string    `json:"backdropPath,omitempty"`
	Overview     string    `json:"overview,omitempty"`
	VoteAverage  *float64  `json:"voteAverage,omitempty"`
	ReleaseDate  string    `json:"releaseDate,omitempty"`
	AddedAt      time.Time `json:"addedAt"`
}

// MaxProfilesForPlan maps a plan name to its profile ceiling. Unrecognized
// plans (including none/trial) fall back to 4.
func MaxProfilesForPlan(plan string) int {
	switch plan {
	case PlanBasic:
		return 2
	case PlanStandard:
		return 4
	case PlanPremium:
		return 6
	case "mobile":
		return 1
	default:
		return 4
	}
}
