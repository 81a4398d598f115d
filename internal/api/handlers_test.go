package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/weatherscent/internal/ai"
	"github.com/edgard/weatherscent/internal/cache"
	"github.com/edgard/weatherscent/internal/config"
	"github.com/edgard/weatherscent/internal/database"
	"github.com/edgard/weatherscent/internal/logger"
	"github.com/edgard/weatherscent/internal/model"
	"github.com/edgard/weatherscent/internal/weather"
)

type stubWeather struct {
	reading model.WeatherReading
}

func (s stubWeather) Fetch(context.Context, float64, float64) model.WeatherReading {
	return s.reading
}

type stubCompleter struct {
	mu    sync.Mutex
	resp  string
	err   error
	calls int
}

func (s *stubCompleter) Complete(context.Context, ai.Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.resp, s.err
}

// brokenStore fails every catalog read and preference write.
type brokenStore struct {
	database.Store
}

func (brokenStore) GetAllPerfumes(context.Context) ([]model.Perfume, error) {
	return nil, errors.New("connection reset")
}

func (brokenStore) SavePreferenceResult(context.Context, *model.PreferenceTest, *model.UserPreferences) (*model.PreferenceTest, error) {
	return nil, errors.New("connection reset")
}

type testServer struct {
	handler http.Handler
	store   database.Store
	results *cache.MemoryStore[model.CombinedResult]
}

func newTestServer(t *testing.T, store database.Store, completer ai.Completer) *testServer {
	t.Helper()

	log := logger.Discard()
	if store == nil {
		store = database.NewMemoryStore(log)
	}
	advisor := ai.NewAdvisor(completer, config.AIConfig{Temperature: 0.7, Timeout: 5 * time.Second}, log)
	results := cache.NewMemoryStore[model.CombinedResult](time.Hour)
	h := NewHandler(store, stubWeather{reading: weather.FallbackReading()}, advisor, results, log)

	ids := 0
	h.newID = func() string {
		ids++
		return fmt.Sprintf("result-%d", ids)
	}

	return &testServer{
		handler: NewRouter(h, MiddlewareConfig{CORSAllowedOrigins: []string{"*"}}, log),
		store:   store,
		results: results,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestWeatherRoutes(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{name: "post with coordinates", method: http.MethodPost, path: "/api/weather", body: map[string]float64{"lat": 37.56, "lon": 126.97}, wantStatus: http.StatusOK},
		{name: "get with coordinates", method: http.MethodGet, path: "/api/weather?lat=37.56&lon=126.97", wantStatus: http.StatusOK},
		{name: "zero coordinates are valid", method: http.MethodPost, path: "/api/weather", body: map[string]float64{"lat": 0, "lon": 0}, wantStatus: http.StatusOK},
		{name: "post missing lon", method: http.MethodPost, path: "/api/weather", body: map[string]float64{"lat": 37.56}, wantStatus: http.StatusBadRequest},
		{name: "post empty body", method: http.MethodPost, path: "/api/weather", wantStatus: http.StatusBadRequest},
		{name: "get missing lat", method: http.MethodGet, path: "/api/weather?lon=126.97", wantStatus: http.StatusBadRequest},
		{name: "post out of range", method: http.MethodPost, path: "/api/weather", body: map[string]float64{"lat": 120, "lon": 10}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := srv.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus == http.StatusOK {
				got := decode[weatherResponse](t, rec)
				assert.Equal(t, "서울", got.Location)
				assert.Equal(t, 20, got.Temperature)
				assert.Equal(t, weather.MoodMildClear, got.MoodText)
			} else {
				got := decode[messageResponse](t, rec)
				assert.Equal(t, msgCoordinatesRequired, got.Message)
			}
		})
	}
}

func TestGetPerfume(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil, nil)
	ctx := context.Background()

	before, err := srv.store.GetPerfumeByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, before)

	rec := srv.do(t, http.MethodGet, "/api/perfumes/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[model.Perfume](t, rec)
	assert.Equal(t, before.Views, got.Views)

	stored, err := srv.store.GetPerfumeByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, before.Views+1, stored.Views)

	rec = srv.do(t, http.MethodGet, "/api/perfumes/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before.Views+1, decode[model.Perfume](t, rec).Views)

	t.Run("unknown id has no side effect", func(t *testing.T) {
		all, err := srv.store.GetAllPerfumes(ctx)
		require.NoError(t, err)

		rec := srv.do(t, http.MethodGet, "/api/perfumes/999", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Perfume not found", decode[messageResponse](t, rec).Message)

		after, err := srv.store.GetAllPerfumes(ctx)
		require.NoError(t, err)
		assert.Equal(t, all, after)
	})

	t.Run("non numeric id", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/perfumes/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListAndSimilarPerfumes(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil, nil)

	rec := srv.do(t, http.MethodGet, "/api/perfumes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Perfume](t, rec), len(database.SamplePerfumes()))

	rec = srv.do(t, http.MethodGet, "/api/perfumes/1/similar", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.Perfume](t, rec))

	rec = srv.do(t, http.MethodGet, "/api/perfumes/42/similar", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPerfumesStoreFailure(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, brokenStore{Store: database.NewMemoryStore(logger.Discard())}, nil)

	rec := srv.do(t, http.MethodGet, "/api/perfumes", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch perfumes", decode[messageResponse](t, rec).Message)
}

func TestCombinedRecommendationWithoutModel(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil, nil)

	rec := srv.do(t, http.MethodPost, "/api/recommendations", map[string]any{
		"gender":          "female",
		"ageRange":        "20대",
		"mood":            "차분함",
		"purpose":         "데이트",
		"preferredScents": []string{"우디"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[model.CombinedResult](t, rec)
	require.NotEmpty(t, got.Perfumes)
	assert.LessOrEqual(t, len(got.Perfumes), 3)
	assert.Equal(t, "우디", got.Perfumes[0].Category)
	assert.Equal(t, "Neroli Portofino", got.Perfumes[0].Name)
	assert.NotEmpty(t, got.Perfumes[0].Reason)
	assert.NotEmpty(t, got.MoodText)
	assert.NotEmpty(t, got.Summary)
	require.NotEmpty(t, got.ID)

	t.Run("result can be shared", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/recommendations/shared/"+got.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, got, decode[model.CombinedResult](t, rec))
	})

	t.Run("unknown share id", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/recommendations/shared/nope", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Recommendation not found", decode[messageResponse](t, rec).Message)
	})
}

func TestCombinedRecommendationWithModel(t *testing.T) {
	t.Parallel()
	completer := &stubCompleter{resp: `{
		"moodText": "비 오는 날의 포근함",
		"summary": "따뜻한 향을 골랐어요",
		"recommendedPerfumes": [
			{"name": "English Pear & Freesia", "brand": "JO MALONE", "reason": "부드러운 과일향"},
			{"name": "Unknown Perfume", "brand": "NOBODY", "reason": "없는 향수"}
		]
	}`}
	srv := newTestServer(t, nil, completer)

	rec := srv.do(t, http.MethodPost, "/api/recommendations", map[string]any{
		"mood":    "포근함",
		"purpose": "일상",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[model.CombinedResult](t, rec)
	require.Len(t, got.Perfumes, 1)
	assert.Equal(t, "English Pear & Freesia", got.Perfumes[0].Name)
	assert.Equal(t, "부드러운 과일향", got.Perfumes[0].Reason)
	assert.Equal(t, "비 오는 날의 포근함", got.MoodText)
	assert.Equal(t, 1, completer.calls)
}

func TestCombinedRecommendationValidation(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil, nil)

	tests := []struct {
		name string
		body any
	}{
		{name: "missing mood", body: map[string]any{"purpose": "데이트"}},
		{name: "missing purpose", body: map[string]any{"mood": "설렘"}},
		{name: "malformed json", body: `{"mood":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := srv.do(t, http.MethodPost, "/api/recommendations", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestWeatherRecommendations(t *testing.T) {
	t.Parallel()
	reading := map[string]any{"temperature": 12, "condition": "Rain", "humidity": 80, "windSpeed": 3.1, "location": "부산"}

	t.Run("without model", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t, nil, nil)
		rec := srv.do(t, http.MethodPost, "/api/recommendations/weather", map[string]any{"weatherData": reading})
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, ai.ErrUnavailable.Error(), decode[messageResponse](t, rec).Message)
	})

	t.Run("missing weather", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t, nil, nil)
		rec := srv.do(t, http.MethodPost, "/api/recommendations/weather", map[string]any{})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Weather data is required", decode[messageResponse](t, rec).Message)
	})

	t.Run("model failure", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t, nil, &stubCompleter{err: errors.New("upstream 500")})
		rec := srv.do(t, http.MethodPost, "/api/recommendations/weather", map[string]any{"weatherData": reading})
		require.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "Failed to get recommendations", decode[messageResponse](t, rec).Message)
	})

	t.Run("logs suggestions for user", func(t *testing.T) {
		t.Parallel()
		completer := &stubCompleter{resp: `{"recommendations": [
			{"name": "Neroli Portofino", "brand": "TOM FORD", "category": "우디", "notes": ["네롤리"], "reason": "비 오는 날", "moodText": "차분함", "confidence": 0.9},
			{"name": "Rain Drop", "brand": "NEW HOUSE", "category": "프레시", "notes": ["오존"], "reason": "빗소리", "moodText": "상쾌함", "confidence": 0.6}
		]}`}
		srv := newTestServer(t, nil, completer)

		rec := srv.do(t, http.MethodPost, "/api/recommendations/weather", map[string]any{"weatherData": reading, "userId": 7})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got := decode[weatherRecommendationResponse](t, rec)
		assert.Len(t, got.Recommendations, 2)
		assert.Equal(t, weather.MoodRain, got.MoodText)
		assert.Equal(t, "부산", got.WeatherData.Location)

		rec = srv.do(t, http.MethodGet, "/api/recommendations/7", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		logged := decode[[]model.RecommendationWithPerfume](t, rec)
		require.Len(t, logged, 2)
		for _, row := range logged {
			require.NotNil(t, row.Perfume)
			assert.Equal(t, "Rain", row.WeatherCondition)
		}

		created, err := srv.store.FindPerfume(context.Background(), "Rain Drop", "NEW HOUSE")
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, 30, created.Rating)
	})
}

func TestWishlistFlow(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil, nil)
	body := map[string]int64{"userId": 1, "perfumeId": 2}

	rec := srv.do(t, http.MethodPost, "/api/wishlist", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	item := decode[model.WishlistItem](t, rec)
	assert.Equal(t, int64(1), item.UserID)
	assert.Equal(t, int64(2), item.PerfumeID)

	rec = srv.do(t, http.MethodPost, "/api/wishlist", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Item already in wishlist", decode[messageResponse](t, rec).Message)

	rec = srv.do(t, http.MethodGet, "/api/wishlist/1/2/check", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[wishlistCheckResponse](t, rec).IsWishlisted)

	rec = srv.do(t, http.MethodGet, "/api/wishlist/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]model.WishlistItemWithPerfume](t, rec)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Perfume)
	assert.Equal(t, "Neroli Portofino", items[0].Perfume.Name)

	rec = srv.do(t, http.MethodDelete, "/api/wishlist/1/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Removed from wishlist", decode[messageResponse](t, rec).Message)

	rec = srv.do(t, http.MethodDelete, "/api/wishlist/1/2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/wishlist/1/2/check", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[wishlistCheckResponse](t, rec).IsWishlisted)

	rec = srv.do(t, http.MethodPost, "/api/wishlist", map[string]int64{"userId": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat(t *testing.T) {
	t.Parallel()

	t.Run("without model", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t, nil, nil)
		rec := srv.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "안녕"})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("empty message", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t, nil, &stubCompleter{resp: `{"message":"hi"}`})
		rec := srv.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "  "})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Message is required", decode[messageResponse](t, rec).Message)
	})

	t.Run("persists one row per exchange", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t, nil, &stubCompleter{resp: `{"message":"비 오는 날엔 우디 향을 추천해요"}`})

		rec := srv.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "추천해줘", "userId": 3})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		reply := decode[model.ChatReply](t, rec)
		assert.Equal(t, "비 오는 날엔 우디 향을 추천해요", reply.Message)
		assert.Nil(t, reply.Recommendations)

		rec = srv.do(t, http.MethodGet, "/api/chat/3/history", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		history := decode[[]model.ChatMessage](t, rec)
		require.Len(t, history, 1)
		assert.Equal(t, "추천해줘", history[0].Message)
		require.NotNil(t, history[0].Response)
		assert.Equal(t, reply.Message, *history[0].Response)
	})
}

func TestPreferences(t *testing.T) {
	t.Parallel()
	completer := &stubCompleter{resp: `{
		"profile": {"favoriteCategories": ["우디"], "intensity": "medium", "occasion": ["daily"]},
		"recommendations": {"topCategories": ["우디"], "avoidCategories": [], "bestTimes": ["evening"], "seasonality": ["autumn"]},
		"explanation": "차분한 향을 좋아합니다"
	}`}
	srv := newTestServer(t, nil, completer)

	rec := srv.do(t, http.MethodPost, "/api/users", map[string]string{"username": "minji", "email": "minji@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := decode[model.User](t, rec)

	rec = srv.do(t, http.MethodPost, "/api/preferences/analyze", map[string]any{"answers": []any{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Valid answers array is required", decode[messageResponse](t, rec).Message)

	answers := []map[string]any{{"questionId": 1, "question": "좋아하는 계절은?", "answer": "autumn", "label": "가을"}}
	rec = srv.do(t, http.MethodPost, "/api/preferences/analyze", map[string]any{"answers": answers, "userId": user.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	analysis := decode[model.PreferenceAnalysis](t, rec)
	require.NotNil(t, analysis.Profile)
	assert.Equal(t, []string{"우디"}, analysis.Profile.FavoriteCategories)

	rec = srv.do(t, http.MethodGet, "/api/preferences/"+formatID(user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	test := decode[*model.PreferenceTest](t, rec)
	require.NotNil(t, test)
	assert.Len(t, test.Answers, 1)

	rec = srv.do(t, http.MethodGet, "/api/users/"+formatID(user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[model.User](t, rec)
	require.NotNil(t, updated.Preferences)
	assert.Equal(t, "medium", updated.Preferences.Intensity)

	rec = srv.do(t, http.MethodGet, "/api/preferences/999", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestAnalyzePreferencesKeepsExistingPreferences(t *testing.T) {
	t.Parallel()

	answers := []map[string]any{{"questionId": 1, "question": "좋아하는 강도는?", "answer": "strong", "label": "진하게"}}
	tests := []struct {
		name          string
		response      string
		wantIntensity string
	}{
		{name: "analysis without profile", response: `{"explanation":"분석 결과"}`, wantIntensity: "strong"},
		{name: "null profile", response: `{"profile":null,"explanation":"분석 결과"}`, wantIntensity: "strong"},
		{name: "analysis with profile", response: `{"profile":{"intensity":"light"},"explanation":"분석 결과"}`, wantIntensity: "light"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(t, nil, &stubCompleter{resp: tt.response})

			rec := srv.do(t, http.MethodPost, "/api/users", map[string]any{
				"username":    "seoyeon",
				"email":       "seoyeon@example.com",
				"preferences": map[string]any{"intensity": "strong"},
			})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			user := decode[model.User](t, rec)

			rec = srv.do(t, http.MethodPost, "/api/preferences/analyze", map[string]any{"answers": answers, "userId": user.ID})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "분석 결과", decode[model.PreferenceAnalysis](t, rec).Explanation)

			rec = srv.do(t, http.MethodGet, "/api/users/"+formatID(user.ID), nil)
			require.Equal(t, http.StatusOK, rec.Code)
			updated := decode[model.User](t, rec)
			require.NotNil(t, updated.Preferences)
			assert.Equal(t, tt.wantIntensity, updated.Preferences.Intensity)

			rec = srv.do(t, http.MethodGet, "/api/preferences/"+formatID(user.ID), nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.NotNil(t, decode[*model.PreferenceTest](t, rec))
		})
	}
}

func TestAnalyzePreferencesStoreFailure(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, brokenStore{Store: database.NewMemoryStore(logger.Discard())},
		&stubCompleter{resp: `{"profile":{"intensity":"light"},"explanation":"분석 결과"}`})

	answers := []map[string]any{{"questionId": 1, "question": "좋아하는 강도는?", "answer": "light", "label": "가볍게"}}
	rec := srv.do(t, http.MethodPost, "/api/preferences/analyze", map[string]any{"answers": answers, "userId": 1})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to analyze preferences", decode[messageResponse](t, rec).Message)

	rec = srv.do(t, http.MethodPost, "/api/preferences/analyze", map[string]any{"answers": answers})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUsers(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil, nil)

	rec := srv.do(t, http.MethodPost, "/api/users", map[string]string{"username": "jun", "email": "jun@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{name: "duplicate email", body: map[string]string{"username": "jun2", "email": "jun@example.com"}, wantStatus: http.StatusBadRequest},
		{name: "duplicate username", body: map[string]string{"username": "jun", "email": "other@example.com"}, wantStatus: http.StatusBadRequest},
		{name: "invalid email", body: map[string]string{"username": "kim", "email": "not-an-email"}, wantStatus: http.StatusBadRequest},
		{name: "missing username", body: map[string]string{"email": "kim@example.com"}, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/users", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	rec = srv.do(t, http.MethodGet, "/api/users/12345", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decode[messageResponse](t, rec).Message)
}

func TestHealthAndFallbackRoutes(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil, nil)

	rec := srv.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, healthResponse{Status: "ok", Storage: "memory"}, decode[healthResponse](t, rec))

	rec = srv.do(t, http.MethodGet, "/api/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodPut, "/api/perfumes", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	log := logger.Discard()
	h := NewHandler(database.NewMemoryStore(log), stubWeather{reading: weather.FallbackReading()},
		ai.NewAdvisor(nil, config.AIConfig{Timeout: time.Second}, log),
		cache.NewMemoryStore[model.CombinedResult](time.Hour), log)
	router := NewRouter(h, MiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute}, log)

	statuses := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/perfumes", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
