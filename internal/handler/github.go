package handler

import (
	"net/http"
	"time"

	"DevHabit/internal/model"
	"DevHabit/internal/shaping"
)

var profileShape = shaping.NewShape(
	shaping.Field[githubProfileView]{Name: "login", Get: func(p githubProfileView) any { return p.Login }},
	shaping.Field[githubProfileView]{Name: "name", Get: func(p githubProfileView) any { return p.Name }},
	shaping.Field[githubProfileView]{Name: "avatarUrl", Get: func(p githubProfileView) any { return p.AvatarURL }},
	shaping.Field[githubProfileView]{Name: "bio", Get: func(p githubProfileView) any { return p.Bio }},
	shaping.Field[githubProfileView]{Name: "publicRepos", Get: func(p githubProfileView) any { return p.PublicRepos }},
	shaping.Field[githubProfileView]{Name: "followers", Get: func(p githubProfileView) any { return p.Followers }},
	shaping.Field[githubProfileView]{Name: "following", Get: func(p githubProfileView) any { return p.Following }},
)

type githubProfileView struct {
	Login       string
	Name        *string
	AvatarURL   string
	Bio         *string
	PublicRepos int
	Followers   int
	Following   int
}

func (a *API) StoreGitHubToken(w http.ResponseWriter, r *http.Request) {
	userID, err := a.userID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var in model.GitHubTokenInput
	if err := decode(r, &in); err != nil {
		handleError(w, r, badBody(err))
		return
	}
	if err := a.Validator.Struct(in); err != nil {
		handleError(w, r, err)
		return
	}

	now := a.now()
	err = a.Accounts.UpsertGitHubToken(r.Context(), model.GitHubAccessToken{
		ID:           model.NewID(model.GitHubTokenIDPrefix),
		UserID:       userID,
		Token:        in.AccessToken,
		ExpiresAtUTC: now.Add(time.Duration(in.ExpiresInDays) * 24 * time.Hour),
		CreatedAtUTC: now,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) RevokeGitHubToken(w http.ResponseWriter, r *http.Request) {
	userID, err := a.userID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := a.Accounts.DeleteGitHubToken(r.Context(), userID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGitHubProfile proxies the profile of the stored token's owner.
// A missing token and an upstream failure both answer 404.
func (a *API) GetGitHubProfile(w http.ResponseWriter, r *http.Request) {
	n, err := negotiate(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	userID, err := a.userID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	token, err := a.Accounts.GitHubToken(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	profile := a.GitHub.GetProfile(r.Context(), token)
	if profile == nil {
		Fail(w, r, http.StatusNotFound, "GitHub profile unavailable.")
		return
	}

	record := profileShape.ShapeOne(githubProfileView(*profile), "")
	if n.HATEOAS {
		l, err := githubLinks(a.Links.ForRequest(r, groupGitHub))
		if err != nil {
			handleError(w, r, err)
			return
		}
		record = record.With(shaping.LinksField, l)
	}
	write(w, n, http.StatusOK, "profile", record)
}
