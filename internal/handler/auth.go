package handler

import (
	"errors"
	"net/http"
	"strings"

	"DevHabit/internal/auth"
	"DevHabit/internal/logger"
	"DevHabit/internal/model"
	"DevHabit/internal/store"

	"github.com/google/uuid"
)

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var in model.RegisterInput
	if err := decode(r, &in); err != nil {
		handleError(w, r, badBody(err))
		return
	}
	if err := a.Validator.Struct(in); err != nil {
		handleError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}
	email := strings.TrimSpace(in.Email)
	identity := model.Identity{ID: uuid.NewString(), Email: email, PasswordHash: hash}
	user := model.User{
		ID:           model.NewID(model.UserIDPrefix),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		IdentityID:   identity.ID,
		CreatedAtUTC: a.now(),
	}
	if err := a.Accounts.Register(r.Context(), identity, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			p := newProblem(r, http.StatusBadRequest, "Registration failed.")
			p.Extensions = map[string]any{"DuplicateEmail": "Email '" + email + "' is already taken."}
			writeProblem(w, p)
			return
		}
		handleError(w, r, err)
		return
	}
	logger.Info("user_registered", map[string]any{"user_id": user.ID})
	a.issueTokens(w, r, identity)
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var in model.LoginInput
	if err := decode(r, &in); err != nil {
		handleError(w, r, badBody(err))
		return
	}
	if err := a.Validator.Struct(in); err != nil {
		handleError(w, r, err)
		return
	}

	identity, err := a.Accounts.GetIdentityByEmail(r.Context(), in.Email)
	if errors.Is(err, store.ErrNotFound) {
		Fail(w, r, http.StatusUnauthorized, "")
		return
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := auth.CheckPassword(identity.PasswordHash, in.Password); err != nil {
		Fail(w, r, http.StatusUnauthorized, "")
		return
	}
	a.issueTokens(w, r, identity)
}

// Refresh trades a refresh token for a new pair. The old token is consumed.
func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	var in model.RefreshInput
	if err := decode(r, &in); err != nil {
		handleError(w, r, badBody(err))
		return
	}
	if err := a.Validator.Struct(in); err != nil {
		handleError(w, r, err)
		return
	}

	stored, err := a.Accounts.ConsumeRefreshToken(r.Context(), in.RefreshToken)
	if errors.Is(err, store.ErrNotFound) {
		Fail(w, r, http.StatusUnauthorized, "")
		return
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !stored.ExpiresAtUTC.After(a.now()) {
		Fail(w, r, http.StatusUnauthorized, "")
		return
	}
	identity, err := a.Accounts.GetIdentity(r.Context(), stored.IdentityID)
	if errors.Is(err, store.ErrNotFound) {
		Fail(w, r, http.StatusUnauthorized, "")
		return
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	a.issueTokens(w, r, identity)
}

func (a *API) issueTokens(w http.ResponseWriter, r *http.Request, identity model.Identity) {
	tokens, err := a.Tokens.Create(identity.ID, identity.Email)
	if err != nil {
		handleError(w, r, err)
		return
	}
	err = a.Accounts.CreateRefreshToken(r.Context(), model.RefreshToken{
		ID:           uuid.NewString(),
		IdentityID:   identity.ID,
		Token:        tokens.RefreshToken,
		ExpiresAtUTC: a.Tokens.RefreshExpiry(),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	write(w, Negotiated{ContentType: mediaJSON}, http.StatusOK, "tokens", tokens)
}
