package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"mealtracker/internal/model"
	"mealtracker/internal/repository"
)

type fakeUserStore struct {
	mu        sync.Mutex
	users     []model.User
	calls     int
	createErr error
}

func (f *fakeUserStore) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email || u.SessionID == user.SessionID {
			return fmt.Errorf("create user failed: %w", repository.ErrDuplicate)
		}
	}
	f.users = append(f.users, *user)
	return nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, u := range f.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) ListBySessionID(ctx context.Context, sessionID string) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []model.User
	for _, u := range f.users {
		if u.SessionID == sessionID {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeMealStore struct {
	mu        sync.Mutex
	meals     map[string]model.Meal
	listCalls int
	failWith  error
}

func newFakeMealStore() *fakeMealStore {
	return &fakeMealStore{meals: map[string]model.Meal{}}
}

func (f *fakeMealStore) Create(ctx context.Context, meal *model.Meal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.meals[meal.ID] = *meal
	return nil
}

func (f *fakeMealStore) GetByID(ctx context.Context, id string) (*model.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	meal, ok := f.meals[id]
	if !ok {
		return nil, nil
	}
	return &meal, nil
}

func (f *fakeMealStore) ListByUserID(ctx context.Context, userID string) ([]model.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []model.Meal
	for _, m := range f.meals {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (f *fakeMealStore) Update(ctx context.Context, meal *model.Meal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.meals[meal.ID] = *meal
	return nil
}

func (f *fakeMealStore) Delete(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	_, ok := f.meals[id]
	delete(f.meals, id)
	return ok, nil
}

type fakeMetricsCache struct {
	mu      sync.Mutex
	entries map[string]model.MealMetrics
	dirty   map[string]bool
	sets    int
}

func newFakeMetricsCache() *fakeMetricsCache {
	return &fakeMetricsCache{entries: map[string]model.MealMetrics{}, dirty: map[string]bool{}}
}

func (f *fakeMetricsCache) GetMetrics(ctx context.Context, userID string) (model.MealMetrics, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.entries[userID]
	return m, ok, nil
}

func (f *fakeMetricsCache) SetMetrics(ctx context.Context, userID string, metrics model.MealMetrics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.entries[userID] = metrics
	return nil
}

func (f *fakeMetricsCache) DeleteMetrics(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, userID)
	return nil
}

func (f *fakeMetricsCache) MarkDirty(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirty[userID] = true
	return nil
}

func (f *fakeMetricsCache) IsDirty(ctx context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty[userID], nil
}

func (f *fakeMetricsCache) clearDirty(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.dirty, userID)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.MealEvent
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, event model.MealEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Action)
	}
	return out
}

type fakeActivityReader struct {
	rows      []model.MealActivity
	lastLimit int
}

func (f *fakeActivityReader) ListByUserID(ctx context.Context, userID string, limit int) ([]model.MealActivity, error) {
	f.lastLimit = limit
	var out []model.MealActivity
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

var errStoreDown = errors.New("store unavailable")

// gatedMealStore holds its first list call open until release is closed,
// after having read the store. The held call honours its context.
type gatedMealStore struct {
	*fakeMealStore
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedMealStore() *gatedMealStore {
	return &gatedMealStore{
		fakeMealStore: newFakeMealStore(),
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (g *gatedMealStore) ListByUserID(ctx context.Context, userID string) ([]model.Meal, error) {
	meals, err := g.fakeMealStore.ListByUserID(ctx, userID)
	first := false
	g.once.Do(func() { first = true })
	if !first {
		return meals, err
	}

	close(g.started)
	select {
	case <-g.release:
		return meals, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
