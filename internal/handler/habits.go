package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"DevHabit/internal/logger"
	"DevHabit/internal/model"
	"DevHabit/internal/pagination"
	"DevHabit/internal/shaping"
	"DevHabit/internal/sorting"
	"DevHabit/internal/store"

	"github.com/go-chi/chi/v5"
)

// userID resolves the caller. An identity without a user row is unauthorized.
func (a *API) userID(r *http.Request) (string, error) {
	id, err := a.Users.UserID(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		return "", errors.Join(errNoUser, err)
	}
	return id, err
}

var errNoUser = errors.New("no user for identity")

func (a *API) ListHabits(w http.ResponseWriter, r *http.Request) {
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
	p, err := parseListParams(r.URL.Query())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := sorting.ValidateMappings[model.HabitDTO, model.Habit](a.Sorts, p.Sort); err != nil {
		handleError(w, r, err)
		return
	}
	shape := model.HabitShape(n.Version, false)
	if err := shape.Validate(p.Fields); err != nil {
		handleError(w, r, err)
		return
	}

	habits, total, err := a.Habits.ListHabits(r.Context(), store.HabitQuery{
		UserID: userID,
		Search: p.Search,
		Type:   p.Type,
		Status: p.Status,
		Page:   store.Page{Sort: p.Sort, Page: p.Page, PageSize: p.PageSize},
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	dtos := make([]model.HabitDTO, len(habits))
	for i, h := range habits {
		dtos[i] = h.ToDTO()
	}
	gen := a.Links.ForRequest(r, groupHabits)
	var factory shaping.LinkFactory[model.HabitDTO]
	if n.HATEOAS {
		factory = func(h model.HabitDTO, fields string) (any, error) {
			return habitLinks(gen, h.ID, fields)
		}
	}
	records, err := shape.ShapeData(dtos, p.Fields, factory)
	if err != nil {
		handleError(w, r, err)
		return
	}

	result := pagination.New(records, p.Page, p.PageSize, total)
	if n.HATEOAS {
		result.Links, err = collectionLinks(gen, "GetHabits", "CreateHabit", p, result.HasPreviousPage(), result.HasNextPage())
		if err != nil {
			handleError(w, r, err)
			return
		}
	}
	write(w, n, http.StatusOK, "habits", result)
}

func (a *API) GetHabit(w http.ResponseWriter, r *http.Request) {
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
	fields := strings.TrimSpace(r.URL.Query().Get("fields"))
	shape := model.HabitShape(n.Version, true)
	if err := shape.Validate(fields); err != nil {
		handleError(w, r, err)
		return
	}

	habit, err := a.Habits.GetHabit(r.Context(), userID, chi.URLParam(r, "id"), true)
	if err != nil {
		handleError(w, r, err)
		return
	}

	record := shape.ShapeOne(habit.ToDTO(), fields)
	if n.HATEOAS {
		l, err := habitLinks(a.Links.ForRequest(r, groupHabits), habit.ID, fields)
		if err != nil {
			handleError(w, r, err)
			return
		}
		record = record.With(shaping.LinksField, l)
	}
	write(w, n, http.StatusOK, "habit", record)
}

func (a *API) CreateHabit(w http.ResponseWriter, r *http.Request) {
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
	var in model.CreateHabitInput
	if err := decode(r, &in); err != nil {
		handleError(w, r, badBody(err))
		return
	}
	if err := a.Validator.Habit(in); err != nil {
		handleError(w, r, err)
		return
	}

	now := a.now()
	habit := model.Habit{
		ID:           model.NewID(model.HabitIDPrefix),
		UserID:       userID,
		Status:       model.HabitStatusOngoing,
		CreatedAtUTC: now,
	}
	applyHabitInput(&habit, in)
	if err := a.Habits.CreateHabit(r.Context(), habit); err != nil {
		handleError(w, r, err)
		return
	}
	logger.Info("habit_created", map[string]any{"habit_id": habit.ID, "user_id": userID})

	gen := a.Links.ForRequest(r, groupHabits)
	self, err := gen.CreateLink("GetHabit", "self", http.MethodGet, map[string]string{"id": habit.ID})
	if err != nil {
		handleError(w, r, err)
		return
	}
	record := model.HabitShape(n.Version, false).ShapeOne(habit.ToDTO(), "")
	if n.HATEOAS {
		l, err := habitLinks(gen, habit.ID, "")
		if err != nil {
			handleError(w, r, err)
			return
		}
		record = record.With(shaping.LinksField, l)
	}
	w.Header().Set("Location", self.Href)
	write(w, n, http.StatusCreated, "habit", record)
}

func (a *API) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	userID, err := a.userID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var in model.UpdateHabitInput
	if err := decode(r, &in); err != nil {
		handleError(w, r, badBody(err))
		return
	}
	if err := a.Validator.Habit(in); err != nil {
		handleError(w, r, err)
		return
	}

	habit, err := a.Habits.GetHabit(r.Context(), userID, chi.URLParam(r, "id"), false)
	if err != nil {
		handleError(w, r, err)
		return
	}
	applyHabitInput(&habit, in)
	now := a.now()
	habit.UpdatedAtUTC = &now
	if err := a.Habits.UpdateHabit(r.Context(), habit); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, err := a.userID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := a.Habits.DeleteHabit(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applyHabitInput copies a validated body onto h. An omitted milestone keeps
// the existing one; a provided one keeps its progress.
func applyHabitInput(h *model.Habit, in model.CreateHabitInput) {
	h.Name = in.Name
	h.Description = in.Description
	h.Type = in.Type
	h.Frequency = model.Frequency{TimesPerPeriod: in.Frequency.TimesPerPeriod, Type: in.Frequency.Type}
	h.Target = model.Target{Value: in.Target.Value, Unit: strings.ToUpper(strings.TrimSpace(in.Target.Unit))}

	h.EndDate = nil
	if in.EndDate != nil {
		if d, err := time.Parse(model.DateLayout, *in.EndDate); err == nil {
			h.EndDate = &d
		}
	}
	if in.Milestone != nil {
		if h.Milestone == nil {
			h.Milestone = &model.Milestone{}
		}
		h.Milestone.Target = in.Milestone.Target
	}
}
