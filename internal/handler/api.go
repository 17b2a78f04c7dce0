package handler

import (
	"context"
	"net/http"
	"time"

	"DevHabit/internal/auth"
	"DevHabit/internal/github"
	"DevHabit/internal/links"
	"DevHabit/internal/model"
	"DevHabit/internal/sorting"
	"DevHabit/internal/store"
)

type HabitStore interface {
	ListHabits(ctx context.Context, q store.HabitQuery) ([]model.Habit, int64, error)
	GetHabit(ctx context.Context, userID, id string, withTags bool) (model.Habit, error)
	CreateHabit(ctx context.Context, h model.Habit) error
	UpdateHabit(ctx context.Context, h model.Habit) error
	DeleteHabit(ctx context.Context, userID, id string) error
	ReplaceHabitTags(ctx context.Context, userID, habitID string, tagIDs []string) (bool, error)
	DeleteHabitTag(ctx context.Context, userID, habitID, tagID string) error
}

type TagStore interface {
	ListTags(ctx context.Context, q store.TagQuery) ([]model.Tag, int64, error)
	GetTag(ctx context.Context, userID, id string) (model.Tag, error)
	CreateTag(ctx context.Context, t model.Tag) error
	UpdateTag(ctx context.Context, t model.Tag) error
	DeleteTag(ctx context.Context, userID, id string) error
}

type AccountStore interface {
	Register(ctx context.Context, identity model.Identity, user model.User) error
	GetIdentityByEmail(ctx context.Context, email string) (model.Identity, error)
	GetIdentity(ctx context.Context, id string) (model.Identity, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	CreateRefreshToken(ctx context.Context, t model.RefreshToken) error
	ConsumeRefreshToken(ctx context.Context, token string) (model.RefreshToken, error)
	UpsertGitHubToken(ctx context.Context, t model.GitHubAccessToken) error
	GitHubToken(ctx context.Context, userID string) (string, error)
	DeleteGitHubToken(ctx context.Context, userID string) error
	Seed(ctx context.Context, userID string, tags []model.Tag, habits []model.Habit, habitTags []model.HabitTag) error
}

// UserResolver maps the authenticated caller to a user id.
type UserResolver interface {
	UserID(ctx context.Context) (string, error)
}

type ProfileFetcher interface {
	GetProfile(ctx context.Context, accessToken string) *github.Profile
}

// API holds the dependencies shared by all handlers.
type API struct {
	Habits    HabitStore
	Tags      TagStore
	Accounts  AccountStore
	Users     UserResolver
	GitHub    ProfileFetcher
	Tokens    *auth.TokenProvider // nil when tokens come from an external issuer
	Sorts     *sorting.Registry
	Links     *links.Table
	Validator *model.Validator
	Now       func() time.Time
}

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

// Route is one named operation. Public routes skip authentication.
type Route struct {
	Group   string
	Name    string
	Method  string
	Pattern string
	Public  bool
	Handler http.HandlerFunc
}

const (
	groupHabits    = "habits"
	groupHabitTags = "habittags"
	groupTags      = "tags"
	groupAuth      = "auth"
	groupUsers     = "users"
	groupGitHub    = "github"
	groupSeed      = "seed"
)

// Routes lists every operation the API serves.
func (a *API) Routes() []Route {
	routes := []Route{
		{groupHabits, "GetHabits", http.MethodGet, "/habits", false, a.ListHabits},
		{groupHabits, "GetHabit", http.MethodGet, "/habits/{id}", false, a.GetHabit},
		{groupHabits, "CreateHabit", http.MethodPost, "/habits", false, a.CreateHabit},
		{groupHabits, "UpdateHabit", http.MethodPut, "/habits/{id}", false, a.UpdateHabit},
		{groupHabits, "DeleteHabit", http.MethodDelete, "/habits/{id}", false, a.DeleteHabit},

		{groupHabitTags, "UpsertHabitTags", http.MethodPut, "/habits/{habitId}/tags", false, a.UpsertHabitTags},
		{groupHabitTags, "DeleteHabitTag", http.MethodDelete, "/habits/{habitId}/tags/{tagId}", false, a.DeleteHabitTag},

		{groupTags, "GetTags", http.MethodGet, "/tags", false, a.ListTags},
		{groupTags, "GetTag", http.MethodGet, "/tags/{id}", false, a.GetTag},
		{groupTags, "CreateTag", http.MethodPost, "/tags", false, a.CreateTag},
		{groupTags, "UpdateTag", http.MethodPut, "/tags/{id}", false, a.UpdateTag},
		{groupTags, "DeleteTag", http.MethodDelete, "/tags/{id}", false, a.DeleteTag},

		{groupUsers, "GetCurrentUser", http.MethodGet, "/users/me", false, a.GetCurrentUser},
		{groupUsers, "GetUser", http.MethodGet, "/users/{id}", false, a.GetUser},

		{groupGitHub, "StoreAccessToken", http.MethodPut, "/users/me/github/personal-access-token", false, a.StoreGitHubToken},
		{groupGitHub, "RevokeAccessToken", http.MethodDelete, "/users/me/github/personal-access-token", false, a.RevokeGitHubToken},
		{groupGitHub, "GetProfile", http.MethodGet, "/users/me/github/profile", false, a.GetGitHubProfile},

		{groupSeed, "Seed", http.MethodPost, "/seed", false, a.Seed},
	}
	if a.Tokens != nil {
		routes = append(routes,
			Route{groupAuth, "Register", http.MethodPost, "/auth/register", true, a.Register},
			Route{groupAuth, "Login", http.MethodPost, "/auth/login", true, a.Login},
			Route{groupAuth, "Refresh", http.MethodPost, "/auth/refresh", true, a.Refresh},
		)
	}
	return routes
}
