package handler

import (
	"errors"
	"net/http"

	"DevHabit/internal/logger"
	"DevHabit/internal/seed"
	"DevHabit/internal/store"
)

type seedResult struct {
	Message       string `json:"message"`
	Tags          int    `json:"tags"`
	Habits        int    `json:"habits"`
	Relationships int    `json:"relationships"`
}

// Seed loads the demo tags and habits for a caller that owns none yet.
func (a *API) Seed(w http.ResponseWriter, r *http.Request) {
	userID, err := a.userID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	data, err := seed.Build(userID, a.now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	err = a.Accounts.Seed(r.Context(), userID, data.Tags, data.Habits, data.HabitTags)
	if errors.Is(err, store.ErrAlreadySeeded) {
		Fail(w, r, http.StatusBadRequest, "Database already contains data. Clear the database first if you want to reseed.")
		return
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.Info("seeded", map[string]any{
		"user_id": userID,
		"tags":    len(data.Tags),
		"habits":  len(data.Habits),
	})
	write(w, Negotiated{ContentType: mediaJSON}, http.StatusOK, "seed", seedResult{
		Message:       "Database seeded successfully",
		Tags:          len(data.Tags),
		Habits:        len(data.Habits),
		Relationships: len(data.HabitTags),
	})
}
