package handler

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"DevHabit/internal/github"
	"DevHabit/internal/model"
	"DevHabit/internal/sorting"
	"DevHabit/internal/store"
)

// memStore keeps everything in maps and mimics the owner scoping and
// error contract of store.Store.
type memStore struct {
	mu         sync.Mutex
	sorts      *sorting.Registry
	habits     map[string]model.Habit
	tags       map[string]model.Tag
	habitTags  map[string][]string
	identities map[string]model.Identity
	users      map[string]model.User
	refresh    map[string]model.RefreshToken
	github     map[string]model.GitHubAccessToken
	now        func() time.Time
}

func newMemStore(sorts *sorting.Registry) *memStore {
	return &memStore{
		sorts:      sorts,
		habits:     map[string]model.Habit{},
		tags:       map[string]model.Tag{},
		habitTags:  map[string][]string{},
		identities: map[string]model.Identity{},
		users:      map[string]model.User{},
		refresh:    map[string]model.RefreshToken{},
		github:     map[string]model.GitHubAccessToken{},
		now:        time.Now,
	}
}

func matches(search string, name string, desc *string) bool {
	if search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(name), search) {
		return true
	}
	return desc != nil && strings.Contains(strings.ToLower(*desc), search)
}

func sortKey(path string, name, id string, created time.Time) string {
	switch path {
	case "Name":
		return strings.ToLower(name)
	case "CreatedAtUtc":
		return created.Format(time.RFC3339Nano)
	default:
		return id
	}
}

func orderBy[T any](items []T, orders []sorting.Order, key func(T, string) string) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, o := range orders {
			a, b := key(items[i], o.Path), key(items[j], o.Path)
			if a == b {
				continue
			}
			if o.Descending {
				return a > b
			}
			return a < b
		}
		return false
	})
}

func page[T any](items []T, p store.Page) []T {
	start := (p.Page - 1) * p.PageSize
	if start >= len(items) {
		return nil
	}
	return items[start:min(start+p.PageSize, len(items))]
}

func (s *memStore) ListHabits(ctx context.Context, q store.HabitQuery) ([]model.Habit, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Habit
	for _, h := range s.habits {
		if h.UserID != q.UserID || !matches(q.Search, h.Name, h.Description) {
			continue
		}
		if q.Type != nil && h.Type != *q.Type {
			continue
		}
		if q.Status != nil && h.Status != *q.Status {
			continue
		}
		out = append(out, h)
	}
	mappings, err := sorting.GetMappings[model.HabitDTO, model.Habit](s.sorts)
	if err != nil {
		return nil, 0, err
	}
	orders, err := sorting.Parse(q.Sort, mappings, model.DefaultSortPath)
	if err != nil {
		return nil, 0, err
	}
	orderBy(out, orders, func(h model.Habit, path string) string { return sortKey(path, h.Name, h.ID, h.CreatedAtUTC) })
	return page(out, q.Page), int64(len(out)), nil
}

func (s *memStore) GetHabit(ctx context.Context, userID, id string, withTags bool) (model.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[id]
	if !ok || h.UserID != userID {
		return model.Habit{}, store.ErrNotFound
	}
	if withTags {
		h.Tags = []string{}
		for _, tagID := range s.habitTags[id] {
			h.Tags = append(h.Tags, s.tags[tagID].Name)
		}
	}
	return h, nil
}

func (s *memStore) CreateHabit(ctx context.Context, h model.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.habits[h.ID] = h
	return nil
}

func (s *memStore) UpdateHabit(ctx context.Context, h model.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.habits[h.ID]; !ok || old.UserID != h.UserID {
		return store.ErrNotFound
	}
	s.habits[h.ID] = h
	return nil
}

func (s *memStore) DeleteHabit(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.habits[id]; !ok || h.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.habits, id)
	delete(s.habitTags, id)
	return nil
}

func (s *memStore) ReplaceHabitTags(ctx context.Context, userID, habitID string, tagIDs []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.habits[habitID]; !ok || h.UserID != userID {
		return false, store.ErrNotFound
	}
	for _, id := range tagIDs {
		if t, ok := s.tags[id]; !ok || t.UserID != userID {
			return false, store.ErrUnknownTag
		}
	}
	have := slices.Clone(s.habitTags[habitID])
	want := slices.Clone(tagIDs)
	slices.Sort(have)
	slices.Sort(want)
	if slices.Equal(have, want) {
		return false, nil
	}
	s.habitTags[habitID] = want
	return true, nil
}

func (s *memStore) DeleteHabitTag(ctx context.Context, userID, habitID, tagID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.habits[habitID]; !ok || h.UserID != userID {
		return store.ErrNotFound
	}
	ids := s.habitTags[habitID]
	i := slices.Index(ids, tagID)
	if i < 0 {
		return store.ErrNotFound
	}
	s.habitTags[habitID] = slices.Delete(ids, i, i+1)
	return nil
}

func (s *memStore) ListTags(ctx context.Context, q store.TagQuery) ([]model.Tag, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Tag
	for _, t := range s.tags {
		if t.UserID == q.UserID && matches(q.Search, t.Name, t.Description) {
			out = append(out, t)
		}
	}
	mappings, err := sorting.GetMappings[model.TagDTO, model.Tag](s.sorts)
	if err != nil {
		return nil, 0, err
	}
	orders, err := sorting.Parse(q.Sort, mappings, model.DefaultSortPath)
	if err != nil {
		return nil, 0, err
	}
	orderBy(out, orders, func(t model.Tag, path string) string { return sortKey(path, t.Name, t.ID, t.CreatedAtUTC) })
	return page(out, q.Page), int64(len(out)), nil
}

func (s *memStore) GetTag(ctx context.Context, userID, id string) (model.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tags[id]
	if !ok || t.UserID != userID {
		return model.Tag{}, store.ErrNotFound
	}
	return t, nil
}

func (s *memStore) nameTaken(t model.Tag) bool {
	for _, other := range s.tags {
		if other.ID != t.ID && other.UserID == t.UserID && strings.EqualFold(other.Name, t.Name) {
			return true
		}
	}
	return false
}

func (s *memStore) CreateTag(ctx context.Context, t model.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(t) {
		return store.ErrDuplicate
	}
	s.tags[t.ID] = t
	return nil
}

func (s *memStore) UpdateTag(ctx context.Context, t model.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(t) {
		return store.ErrDuplicate
	}
	s.tags[t.ID] = t
	return nil
}

func (s *memStore) DeleteTag(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tags[id]; !ok || t.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.tags, id)
	return nil
}

func (s *memStore) Register(ctx context.Context, identity model.Identity, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.identities {
		if strings.EqualFold(other.Email, identity.Email) {
			return store.ErrDuplicate
		}
	}
	s.identities[identity.ID] = identity
	s.users[user.ID] = user
	return nil
}

func (s *memStore) GetIdentityByEmail(ctx context.Context, email string) (model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, identity := range s.identities {
		if strings.EqualFold(identity.Email, email) {
			return identity, nil
		}
	}
	return model.Identity{}, store.ErrNotFound
}

func (s *memStore) GetIdentity(ctx context.Context, id string) (model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[id]
	if !ok {
		return model.Identity{}, store.ErrNotFound
	}
	return identity, nil
}

func (s *memStore) GetUser(ctx context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *memStore) CreateRefreshToken(ctx context.Context, t model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[t.Token] = t
	return nil
}

func (s *memStore) ConsumeRefreshToken(ctx context.Context, token string) (model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.refresh[token]
	if !ok {
		return model.RefreshToken{}, store.ErrNotFound
	}
	delete(s.refresh, token)
	return t, nil
}

func (s *memStore) UpsertGitHubToken(ctx context.Context, t model.GitHubAccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.github[t.UserID] = t
	return nil
}

func (s *memStore) GitHubToken(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.github[userID]
	if !ok || !t.ExpiresAtUTC.After(s.now()) {
		return "", store.ErrNotFound
	}
	return t.Token, nil
}

func (s *memStore) DeleteGitHubToken(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.github[userID]; !ok {
		return store.ErrNotFound
	}
	delete(s.github, userID)
	return nil
}

func (s *memStore) Seed(ctx context.Context, userID string, tags []model.Tag, habits []model.Habit, habitTags []model.HabitTag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tags {
		if t.UserID == userID {
			return store.ErrAlreadySeeded
		}
	}
	for _, t := range tags {
		s.tags[t.ID] = t
	}
	for _, h := range habits {
		s.habits[h.ID] = h
	}
	for _, ht := range habitTags {
		s.habitTags[ht.HabitID] = append(s.habitTags[ht.HabitID], ht.TagID)
	}
	return nil
}

// fixedUser always resolves to the same caller.
type fixedUser struct {
	id  string
	err error
}

func (f fixedUser) UserID(ctx context.Context) (string, error) {
	return f.id, f.err
}

type fakeGitHub struct {
	profile *github.Profile
	tokens  []string
}

func (f *fakeGitHub) GetProfile(ctx context.Context, accessToken string) *github.Profile {
	f.tokens = append(f.tokens, accessToken)
	return f.profile
}
