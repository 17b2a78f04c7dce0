package handler

import (
	"net/http"

	"DevHabit/internal/model"
	"DevHabit/internal/shaping"
	"DevHabit/internal/store"

	"github.com/go-chi/chi/v5"
)

var userShape = shaping.FromStruct[model.UserDTO]()

func (a *API) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, err := a.userID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	a.writeUser(w, r, userID)
}

// GetUser only serves the caller's own record.
func (a *API) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := a.userID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if chi.URLParam(r, "id") != userID {
		handleError(w, r, store.ErrNotFound)
		return
	}
	a.writeUser(w, r, userID)
}

func (a *API) writeUser(w http.ResponseWriter, r *http.Request, userID string) {
	n, err := negotiate(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	user, err := a.Accounts.GetUser(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	record := userShape.ShapeOne(user.ToDTO(), "")
	if n.HATEOAS {
		l, err := userLinks(a.Links.ForRequest(r, groupUsers), user.ID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		record = record.With(shaping.LinksField, l)
	}
	write(w, n, http.StatusOK, "user", record)
}
