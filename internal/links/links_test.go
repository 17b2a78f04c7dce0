package links

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func newTable(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable()
	for _, r := range []Route{
		{Group: "habits", Name: "GetHabits", Method: "GET", Pattern: "/habits"},
		{Group: "habits", Name: "GetHabit", Method: "GET", Pattern: "/habits/{id}"},
		{Group: "habittags", Name: "DeleteHabitTag", Method: "DELETE", Pattern: "/habits/{habitId}/tags/{tagId}"},
	} {
		if err := tbl.Add(r); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	return tbl
}

func TestCreateLinkFillsPathAndQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "http://api.local/habits", nil)
	g := newTable(t).ForRequest(req, "habits")

	l, err := g.CreateLink("GetHabit", "self", "GET", map[string]string{"id": "h_1", "fields": "name,id"})
	if err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}
	want := Link{Href: "http://api.local/habits/h_1?fields=name%2Cid", Rel: "self", Method: "GET"}
	if l != want {
		t.Fatalf("unexpected link:\n got %+v\nwant %+v", l, want)
	}
}

func TestCreateLinkGroupOverride(t *testing.T) {
	req := httptest.NewRequest("GET", "http://api.local/habits", nil)
	g := newTable(t).ForRequest(req, "habits")

	l, err := g.CreateLink("DeleteHabitTag", "remove-tag", "DELETE", map[string]string{"habitId": "h_1", "tagId": "t_2"}, "habittags")
	if err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}
	if l.Href != "http://api.local/habits/h_1/tags/t_2" {
		t.Fatalf("unexpected href: %s", l.Href)
	}
}

func TestCreateLinkUnknownOperation(t *testing.T) {
	req := httptest.NewRequest("GET", "http://api.local/", nil)
	_, err := newTable(t).ForRequest(req, "habits").CreateLink("Nope", "self", "GET", nil)
	var nf *RouteNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected RouteNotFoundError, got %v", err)
	}
	if nf.Error() != "route not found for operation habits.Nope" {
		t.Fatalf("unexpected message: %s", nf.Error())
	}
}

func TestCreateLinkMissingValue(t *testing.T) {
	req := httptest.NewRequest("GET", "http://api.local/", nil)
	_, err := newTable(t).ForRequest(req, "habits").CreateLink("GetHabit", "self", "GET", nil)
	if !errors.Is(err, ErrMissingRouteValue) {
		t.Fatalf("expected ErrMissingRouteValue, got %v", err)
	}
}

func TestBaseURLForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "http://internal:8080/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "api.example.com, proxy")
	if got := BaseURL(req); got != "https://api.example.com" {
		t.Fatalf("unexpected base url: %s", got)
	}
}

func TestAddRejectsDuplicate(t *testing.T) {
	tbl := newTable(t)
	if err := tbl.Add(Route{Group: "Habits", Name: "gethabits", Method: "GET", Pattern: "/x"}); err == nil {
		t.Fatalf("expected duplicate route to fail")
	}
}
