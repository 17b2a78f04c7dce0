package model

import (
	"time"

	"github.com/google/uuid"
)

// ID prefixes make ids self-describing in logs and links.
const (
	HabitIDPrefix       = "h_"
	TagIDPrefix         = "t_"
	UserIDPrefix        = "u_"
	GitHubTokenIDPrefix = "gh_"
)

func NewID(prefix string) string {
	return prefix + uuid.NewString()
}

type Frequency struct {
	TimesPerPeriod int           `json:"timesPerPeriod" xml:"timesPerPeriod"`
	Type           FrequencyType `json:"type" xml:"type"`
}

type Target struct {
	Value int    `json:"value" xml:"value"`
	Unit  string `json:"unit" xml:"unit"`
}

type Milestone struct {
	Target  int `json:"target" xml:"target"`
	Current int `json:"current" xml:"current"`
}

type Habit struct {
	ID              string
	UserID          string
	Name            string
	Description     *string
	Type            HabitType
	Frequency       Frequency
	Target          Target
	Status          HabitStatus
	IsArchived      bool
	EndDate         *time.Time
	Milestone       *Milestone
	CreatedAtUTC    time.Time
	UpdatedAtUTC    *time.Time
	LastCompletedAt *time.Time
	Tags            []string
}

type Tag struct {
	ID           string
	UserID       string
	Name         string
	Description  *string
	CreatedAtUTC time.Time
	UpdatedAtUTC *time.Time
}

type HabitTag struct {
	HabitID      string
	TagID        string
	CreatedAtUTC time.Time
}

type User struct {
	ID           string
	Email        string
	Name         string
	IdentityID   string
	CreatedAtUTC time.Time
	UpdatedAtUTC *time.Time
}

// Identity holds login credentials; a User is created alongside it on registration.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
}

type RefreshToken struct {
	ID           string
	IdentityID   string
	Token        string
	ExpiresAtUTC time.Time
}

type GitHubAccessToken struct {
	ID           string
	UserID       string
	Token        string
	ExpiresAtUTC time.Time
	CreatedAtUTC time.Time
}
