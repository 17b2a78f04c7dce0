package handler

import (
	"net/http"

	"DevHabit/internal/links"
)

// linkSet accumulates links and keeps the first error.
type linkSet struct {
	gen *links.Generator
	out []links.Link
	err error
}

func newLinkSet(gen *links.Generator) *linkSet {
	return &linkSet{gen: gen, out: []links.Link{}}
}

func (s *linkSet) add(name, rel, method string, values map[string]string, group ...string) {
	if s.err != nil {
		return
	}
	l, err := s.gen.CreateLink(name, rel, method, values, group...)
	if err != nil {
		s.err = err
		return
	}
	s.out = append(s.out, l)
}

func (s *linkSet) result() ([]links.Link, error) {
	return s.out, s.err
}

func habitLinks(gen *links.Generator, id, fields string) ([]links.Link, error) {
	s := newLinkSet(gen)
	s.add("GetHabit", "self", http.MethodGet, map[string]string{"id": id, "fields": fields})
	s.add("UpdateHabit", "update", http.MethodPut, map[string]string{"id": id})
	s.add("DeleteHabit", "delete", http.MethodDelete, map[string]string{"id": id})
	s.add("UpsertHabitTags", "upsert-tags", http.MethodPut, map[string]string{"habitId": id}, groupHabitTags)
	return s.result()
}

func tagLinks(gen *links.Generator, id, fields string) ([]links.Link, error) {
	s := newLinkSet(gen)
	s.add("GetTag", "self", http.MethodGet, map[string]string{"id": id, "fields": fields})
	s.add("UpdateTag", "update", http.MethodPut, map[string]string{"id": id})
	s.add("DeleteTag", "delete", http.MethodDelete, map[string]string{"id": id})
	return s.result()
}

// collectionLinks builds self/create plus the neighbouring page links.
func collectionLinks(gen *links.Generator, listName, createName string, p listParams, hasPrev, hasNext bool) ([]links.Link, error) {
	s := newLinkSet(gen)
	s.add(listName, "self", http.MethodGet, p.values(p.Page))
	s.add(createName, "create", http.MethodPost, nil)
	if hasNext {
		s.add(listName, "next-page", http.MethodGet, p.values(p.Page+1))
	}
	if hasPrev {
		s.add(listName, "previous-page", http.MethodGet, p.values(p.Page-1))
	}
	return s.result()
}

func userLinks(gen *links.Generator, id string) ([]links.Link, error) {
	s := newLinkSet(gen)
	s.add("GetUser", "self", http.MethodGet, map[string]string{"id": id})
	s.add("GetProfile", "github-profile", http.MethodGet, nil, groupGitHub)
	return s.result()
}

func githubLinks(gen *links.Generator) ([]links.Link, error) {
	s := newLinkSet(gen)
	s.add("GetProfile", "self", http.MethodGet, nil)
	s.add("StoreAccessToken", "store-token", http.MethodPut, nil)
	s.add("RevokeAccessToken", "revoke-token", http.MethodDelete, nil)
	return s.result()
}
