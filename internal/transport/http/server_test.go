package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mealtracker/internal/bootstrap"
	"mealtracker/internal/config"
	"mealtracker/internal/model"
	"mealtracker/internal/platform/database"
	httptransport "mealtracker/internal/transport/http"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	} `json:"errors"`
}

type mealBody struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	IsOnDiet    bool   `json:"isOnDiet"`
}

type testServer struct {
	t      *testing.T
	app    *bootstrap.App
	router *gin.Engine
}

func newTestServer(t *testing.T, withRedis bool) *testServer {
	t.Helper()

	db, err := database.New(context.Background(), config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	app := &bootstrap.App{
		Config: &config.Config{
			App:     config.AppConfig{Name: "mealtracker", Env: "test", GinMode: gin.TestMode},
			Session: config.SessionConfig{CookieName: "sessionId", MaxAgeDays: 7},
			Redis:   config.RedisConfig{MetricsTTLSeconds: 300, MetricsDirtyTTLSeconds: 5},
		},
		Logger:    zap.NewNop(),
		DB:        db,
		StartedAt: time.Now(),
	}
	if withRedis {
		mr := miniredis.RunT(t)
		app.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}
	t.Cleanup(func() { _ = app.Close() })

	return &testServer{t: t, app: app, router: httptransport.NewRouter(app)}
}

func (s *testServer) do(method, path, cookie string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "sessionId", Value: cookie})
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

// register creates a user and returns the session cookie value.
func (s *testServer) register(name, email string) string {
	s.t.Helper()
	rec, _ := s.do(http.MethodPost, "/users", "", map[string]string{"name": name, "email": email})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == "sessionId" {
			assert.True(s.t, c.HttpOnly)
			assert.Equal(s.t, "/", c.Path)
			assert.Equal(s.t, 7*24*60*60, c.MaxAge)
			return c.Value
		}
	}
	s.t.Fatalf("no session cookie issued")
	return ""
}

func (s *testServer) createMeal(cookie, name, date string, onDiet bool) {
	s.t.Helper()
	rec, _ := s.do(http.MethodPost, "/meals", cookie, map[string]any{
		"name":        name,
		"description": name + " plate",
		"date":        date,
		"isOnDiet":    onDiet,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Zero(s.t, rec.Body.Len())
}

func (s *testServer) listMeals(cookie string) []mealBody {
	s.t.Helper()
	rec, env := s.do(http.MethodGet, "/meals", cookie, nil)
	require.Equal(s.t, http.StatusOK, rec.Code)
	var data struct {
		Meals []mealBody `json:"meals"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.Meals
}

func (s *testServer) metrics(cookie string) model.MealMetrics {
	s.t.Helper()
	rec, env := s.do(http.MethodGet, "/meals/metrics", cookie, nil)
	require.Equal(s.t, http.StatusOK, rec.Code)
	var data struct {
		Metrics model.MealMetrics `json:"metrics"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.Metrics
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t, true)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Meal Tracker API"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":{"ok":true}`)
	assert.Contains(t, rec.Body.String(), `"redis":{"ok":true}`)
}

func TestRegisterValidationAndDuplicates(t *testing.T) {
	s := newTestServer(t, false)

	rec, env := s.do(http.MethodPost, "/users", "", map[string]any{"name": "", "email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.Errors, 2)
	assert.Equal(t, "name", env.Errors[0].Path)
	assert.Equal(t, "Required", env.Errors[0].Message)
	assert.Equal(t, "email", env.Errors[1].Path)
	assert.Equal(t, "Invalid email", env.Errors[1].Message)

	first := s.register("Ana", "ana@example.com")
	second := s.register("Ben", "ben@example.com")
	assert.NotEqual(t, first, second)

	rec, env = s.do(http.MethodPost, "/users", "", map[string]string{"name": "Ana again", "email": "ana@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 40002, env.Code)
	assert.Equal(t, "Email already exists", env.Message)
	assert.Empty(t, rec.Result().Cookies())
}

func TestMealRoutesRequireSession(t *testing.T) {
	s := newTestServer(t, false)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/meals"},
		{http.MethodGet, "/meals"},
		{http.MethodGet, "/meals/metrics"},
		{http.MethodGet, "/meals/activity"},
		{http.MethodGet, "/meals/" + uuid.NewString()},
		{http.MethodPut, "/meals/" + uuid.NewString()},
		{http.MethodDelete, "/meals/" + uuid.NewString()},
	}
	for _, route := range routes {
		rec, env := s.do(route.method, route.path, "", `{"name":""}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
		assert.Equal(t, "Unauthorized", env.Message, route.path)
		assert.Empty(t, env.Errors, route.path)

		rec, _ = s.do(route.method, route.path, "forged-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
	}
}

func TestMealRoundTrip(t *testing.T) {
	s := newTestServer(t, false)
	cookie := s.register("Ana", "ana@example.com")

	s.createMeal(cookie, "Lunch", "2024-02-03T13:30:00-03:00", false)

	meals := s.listMeals(cookie)
	require.Len(t, meals, 1)
	meal := meals[0]
	assert.Equal(t, "Lunch", meal.Name)
	assert.Equal(t, "Lunch plate", meal.Description)
	assert.Equal(t, "2024-02-03T16:30:00.000Z", meal.Date)
	assert.False(t, meal.IsOnDiet)

	rec, env := s.do(http.MethodGet, "/meals/"+meal.ID, cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Meal mealBody `json:"meal"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, meal, got.Meal)

	rec, _ = s.do(http.MethodPut, "/meals/"+meal.ID, cookie, map[string]any{
		"name":        "Late lunch",
		"description": "Salad",
		"date":        "2024-02-03T15:00:00.000Z",
		"isOnDiet":    true,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	meals = s.listMeals(cookie)
	require.Len(t, meals, 1)
	assert.Equal(t, "Late lunch", meals[0].Name)
	assert.Equal(t, "2024-02-03T15:00:00.000Z", meals[0].Date)
	assert.True(t, meals[0].IsOnDiet)

	rec, _ = s.do(http.MethodDelete, "/meals/"+meal.ID, cookie, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, s.listMeals(cookie))

	rec, env = s.do(http.MethodGet, "/meals/"+meal.ID, cookie, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Meal not found", env.Message)
}

func TestMealOwnershipIsolation(t *testing.T) {
	s := newTestServer(t, false)
	ana := s.register("Ana", "ana@example.com")
	ben := s.register("Ben", "ben@example.com")

	s.createMeal(ana, "Ana breakfast", "2024-02-01T08:00:00Z", true)
	anaMeal := s.listMeals(ana)[0]

	assert.Empty(t, s.listMeals(ben))

	update := map[string]any{
		"name":        "Stolen",
		"description": "Not mine",
		"date":        "2024-02-01T08:00:00Z",
		"isOnDiet":    false,
	}
	for _, tc := range []struct {
		method string
		body   any
	}{
		{http.MethodGet, nil},
		{http.MethodPut, update},
		{http.MethodDelete, nil},
	} {
		foreign, env := s.do(tc.method, "/meals/"+anaMeal.ID, ben, tc.body)
		missing, _ := s.do(tc.method, "/meals/"+uuid.NewString(), ben, tc.body)
		assert.Equal(t, http.StatusNotFound, foreign.Code, tc.method)
		assert.Equal(t, missing.Code, foreign.Code, tc.method)
		assert.Equal(t, "Meal not found", env.Message, tc.method)
	}

	meals := s.listMeals(ana)
	require.Len(t, meals, 1)
	assert.Equal(t, anaMeal, meals[0])
}

func TestMealValidationReportsEveryField(t *testing.T) {
	s := newTestServer(t, false)
	cookie := s.register("Ana", "ana@example.com")

	rec, env := s.do(http.MethodPost, "/meals", cookie, map[string]any{
		"name":     "Dinner",
		"date":     "yesterday-ish",
		"isOnDiet": "yes",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.Errors, 3)
	assert.Equal(t, "description", env.Errors[0].Path)
	assert.Equal(t, "Required", env.Errors[0].Message)
	assert.Equal(t, "date", env.Errors[1].Path)
	assert.Equal(t, "Invalid date", env.Errors[1].Message)
	assert.Equal(t, "isOnDiet", env.Errors[2].Path)
	assert.Equal(t, "Expected boolean, received string", env.Errors[2].Message)
	assert.Empty(t, s.listMeals(cookie))

	rec, env = s.do(http.MethodPut, "/meals/not-a-uuid", cookie, map[string]any{"name": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	paths := make([]string, 0, len(env.Errors))
	for _, fe := range env.Errors {
		paths = append(paths, fe.Path)
	}
	assert.Equal(t, []string{"mealId", "description", "date", "isOnDiet"}, paths)

	rec, env = s.do(http.MethodGet, "/meals/not-a-uuid", cookie, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "Invalid uuid", env.Errors[0].Message)
}

func TestMealMetrics(t *testing.T) {
	for _, withRedis := range []bool{false, true} {
		s := newTestServer(t, withRedis)
		cookie := s.register("Ana", "ana@example.com")

		assert.Equal(t, model.MealMetrics{}, s.metrics(cookie))

		// newest first: on, on, off, on, on, on
		days := []struct {
			date   string
			onDiet bool
		}{
			{"2024-02-01T08:00:00Z", true},
			{"2024-02-02T08:00:00Z", true},
			{"2024-02-03T08:00:00Z", true},
			{"2024-02-04T08:00:00Z", false},
			{"2024-02-05T08:00:00Z", true},
			{"2024-02-06T08:00:00Z", true},
		}
		for _, d := range days {
			s.createMeal(cookie, "Meal", d.date, d.onDiet)
		}

		assert.Equal(t, model.MealMetrics{
			TotalMeals:            6,
			TotalMealsWithinDiet:  5,
			TotalMealsOutsideDiet: 1,
			BestDietSequence:      3,
		}, s.metrics(cookie), "redis=%v", withRedis)

		// a write after the first read must not be hidden by a cached value
		s.createMeal(cookie, "Cheat", "2024-02-07T08:00:00Z", false)
		assert.Equal(t, 7, s.metrics(cookie).TotalMeals, "redis=%v", withRedis)
		assert.Equal(t, 2, s.metrics(cookie).TotalMealsOutsideDiet, "redis=%v", withRedis)
	}
}

func TestMealActivityWithoutBroker(t *testing.T) {
	s := newTestServer(t, false)
	cookie := s.register("Ana", "ana@example.com")
	s.createMeal(cookie, "Lunch", "2024-02-03T13:30:00Z", true)

	rec, env := s.do(http.MethodGet, "/meals/activity", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"activity":[]}`, string(env.Data))

	rec, env = s.do(http.MethodGet, "/meals/activity?limit=500", cookie, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "limit", env.Errors[0].Path)
}
