package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"DevHabit/internal/model"
	"DevHabit/internal/pagination"
)

const maxBodyBytes = 1 << 20

// listParams are the shared query parameters of collection endpoints.
type listParams struct {
	Search   string
	Type     *model.HabitType
	Status   *model.HabitStatus
	Sort     string
	Fields   string
	Page     int
	PageSize int
}

func parseListParams(q url.Values) (listParams, error) {
	p := listParams{
		Search:   strings.ToLower(strings.TrimSpace(q.Get("q"))),
		Sort:     strings.TrimSpace(q.Get("sort")),
		Fields:   strings.TrimSpace(q.Get("fields")),
		Page:     pagination.DefaultPage,
		PageSize: pagination.DefaultPageSize,
	}
	errs := model.ValidationErrors{}

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs["page"] = append(errs["page"], "page must be a positive integer.")
		} else {
			p.Page = n
		}
	}
	if raw := q.Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs["pageSize"] = append(errs["pageSize"], "pageSize must be a positive integer.")
		} else {
			p.PageSize = min(n, pagination.MaxPageSize)
		}
	}
	if raw := q.Get("type"); raw != "" {
		t, err := model.ParseHabitType(raw)
		if err != nil {
			errs["type"] = append(errs["type"], err.Error())
		} else {
			p.Type = &t
		}
	}
	if raw := q.Get("status"); raw != "" {
		s, err := model.ParseHabitStatus(raw)
		if err != nil {
			errs["status"] = append(errs["status"], err.Error())
		} else {
			p.Status = &s
		}
	}

	if len(errs) > 0 {
		return p, errs
	}
	return p, nil
}

// values renders the params back into link query values.
func (p listParams) values(page int) map[string]string {
	v := map[string]string{
		"q":        p.Search,
		"sort":     p.Sort,
		"fields":   p.Fields,
		"page":     strconv.Itoa(page),
		"pageSize": strconv.Itoa(p.PageSize),
	}
	if p.Type != nil {
		v["type"] = strconv.Itoa(int(*p.Type))
	}
	if p.Status != nil {
		v["status"] = strconv.Itoa(int(*p.Status))
	}
	return v
}

var errBadBody = errors.New("malformed request body")

// decode reads a JSON body into dst.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

func badBody(err error) model.ValidationErrors {
	return model.ValidationErrors{"": {err.Error()}}
}
