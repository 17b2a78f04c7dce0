package handler

import (
	"errors"
	"net/http"

	"DevHabit/internal/logger"
	"DevHabit/internal/model"
	"DevHabit/internal/store"

	"github.com/go-chi/chi/v5"
)

// UpsertHabitTags replaces the habit's tag set. Resending the current set is a no-op.
func (a *API) UpsertHabitTags(w http.ResponseWriter, r *http.Request) {
	userID, err := a.userID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var in model.UpsertHabitTagsInput
	if err := decode(r, &in); err != nil {
		handleError(w, r, badBody(err))
		return
	}
	if err := a.Validator.Struct(in); err != nil {
		handleError(w, r, err)
		return
	}

	habitID := chi.URLParam(r, "habitId")
	changed, err := a.Habits.ReplaceHabitTags(r.Context(), userID, habitID, in.TagIDs)
	if errors.Is(err, store.ErrUnknownTag) {
		Fail(w, r, http.StatusBadRequest, "One or more tag IDs is invalid.")
		return
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	if changed {
		logger.Info("habit_tags_replaced", map[string]any{"habit_id": habitID, "tags": len(in.TagIDs)})
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) DeleteHabitTag(w http.ResponseWriter, r *http.Request) {
	userID, err := a.userID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	err = a.Habits.DeleteHabitTag(r.Context(), userID, chi.URLParam(r, "habitId"), chi.URLParam(r, "tagId"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
