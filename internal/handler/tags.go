package handler

import (
	"errors"
	"net/http"
	"strings"

	"DevHabit/internal/model"
	"DevHabit/internal/pagination"
	"DevHabit/internal/shaping"
	"DevHabit/internal/sorting"
	"DevHabit/internal/store"

	"github.com/go-chi/chi/v5"
)

func (a *API) ListTags(w http.ResponseWriter, r *http.Request) {
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
	if err := sorting.ValidateMappings[model.TagDTO, model.Tag](a.Sorts, p.Sort); err != nil {
		handleError(w, r, err)
		return
	}
	if err := model.TagShape.Validate(p.Fields); err != nil {
		handleError(w, r, err)
		return
	}

	tags, total, err := a.Tags.ListTags(r.Context(), store.TagQuery{
		UserID: userID,
		Search: p.Search,
		Page:   store.Page{Sort: p.Sort, Page: p.Page, PageSize: p.PageSize},
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	dtos := make([]model.TagDTO, len(tags))
	for i, t := range tags {
		dtos[i] = t.ToDTO()
	}
	gen := a.Links.ForRequest(r, groupTags)
	var factory shaping.LinkFactory[model.TagDTO]
	if n.HATEOAS {
		factory = func(t model.TagDTO, fields string) (any, error) {
			return tagLinks(gen, t.ID, fields)
		}
	}
	records, err := model.TagShape.ShapeData(dtos, p.Fields, factory)
	if err != nil {
		handleError(w, r, err)
		return
	}

	result := pagination.New(records, p.Page, p.PageSize, total)
	if n.HATEOAS {
		result.Links, err = collectionLinks(gen, "GetTags", "CreateTag", p, result.HasPreviousPage(), result.HasNextPage())
		if err != nil {
			handleError(w, r, err)
			return
		}
	}
	write(w, n, http.StatusOK, "tags", result)
}

func (a *API) GetTag(w http.ResponseWriter, r *http.Request) {
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
	if err := model.TagShape.Validate(fields); err != nil {
		handleError(w, r, err)
		return
	}

	tag, err := a.Tags.GetTag(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	record, err := a.tagRecord(r, n, tag, fields)
	if err != nil {
		handleError(w, r, err)
		return
	}
	write(w, n, http.StatusOK, "tag", record)
}

func (a *API) tagRecord(r *http.Request, n Negotiated, tag model.Tag, fields string) (shaping.Record, error) {
	record := model.TagShape.ShapeOne(tag.ToDTO(), fields)
	if !n.HATEOAS {
		return record, nil
	}
	l, err := tagLinks(a.Links.ForRequest(r, groupTags), tag.ID, fields)
	if err != nil {
		return nil, err
	}
	return record.With(shaping.LinksField, l), nil
}

func (a *API) CreateTag(w http.ResponseWriter, r *http.Request) {
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
	var in model.TagInput
	if err := decode(r, &in); err != nil {
		handleError(w, r, badBody(err))
		return
	}
	if err := a.Validator.Struct(in); err != nil {
		handleError(w, r, err)
		return
	}

	tag := model.Tag{
		ID:           model.NewID(model.TagIDPrefix),
		UserID:       userID,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		CreatedAtUTC: a.now(),
	}
	if err := a.Tags.CreateTag(r.Context(), tag); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			duplicateTag(w, r, tag.Name)
			return
		}
		handleError(w, r, err)
		return
	}

	self, err := a.Links.ForRequest(r, groupTags).CreateLink("GetTag", "self", http.MethodGet, map[string]string{"id": tag.ID})
	if err != nil {
		handleError(w, r, err)
		return
	}
	record, err := a.tagRecord(r, n, tag, "")
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set("Location", self.Href)
	write(w, n, http.StatusCreated, "tag", record)
}

func (a *API) UpdateTag(w http.ResponseWriter, r *http.Request) {
	userID, err := a.userID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var in model.TagInput
	if err := decode(r, &in); err != nil {
		handleError(w, r, badBody(err))
		return
	}
	if err := a.Validator.Struct(in); err != nil {
		handleError(w, r, err)
		return
	}

	tag, err := a.Tags.GetTag(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	tag.Name = strings.TrimSpace(in.Name)
	tag.Description = in.Description
	now := a.now()
	tag.UpdatedAtUTC = &now
	if err := a.Tags.UpdateTag(r.Context(), tag); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			duplicateTag(w, r, tag.Name)
			return
		}
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) DeleteTag(w http.ResponseWriter, r *http.Request) {
	userID, err := a.userID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := a.Tags.DeleteTag(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func duplicateTag(w http.ResponseWriter, r *http.Request, name string) {
	p := newProblem(r, http.StatusBadRequest, "The tag '"+name+"' already exists")
	p.Extensions = map[string]any{"name": name}
	writeProblem(w, p)
}
