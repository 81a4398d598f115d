package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/weatherscent/internal/config"
	"github.com/edgard/weatherscent/internal/model"
)

type fakeCompleter struct {
	mu      sync.Mutex
	resp    string
	err     error
	prompts []Prompt
}

func (f *fakeCompleter) Complete(_ context.Context, p Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)
	return f.resp, f.err
}

func (f *fakeCompleter) lastPrompt() Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[len(f.prompts)-1]
}

func newTestAdvisor(c Completer) *Advisor {
	return NewAdvisor(c, config.AIConfig{Temperature: 0.7, Timeout: 5 * time.Second}, nil)
}

func samplePerfumes() []model.Perfume {
	return []model.Perfume{
		{ID: 1, Name: "English Pear & Freesia", Brand: "JO MALONE", Category: "플로럴", Rating: 49},
		{ID: 2, Name: "Chance Eau Tendre", Brand: "CHANEL", Category: "프레시", Rating: 48},
		{ID: 3, Name: "Black Opium", Brand: "YVES SAINT LAURENT", Category: "오리엔탈", Rating: 47},
		{ID: 4, Name: "Neroli Portofino", Brand: "TOM FORD", Category: "우디", Rating: 46},
	}
}

func TestWeatherRecommendations(t *testing.T) {
	t.Parallel()

	reading := model.WeatherReading{Temperature: 22, Condition: "Clear", Humidity: 40, Location: "서울"}

	tests := []struct {
		name      string
		resp      string
		err       error
		wantLen   int
		wantErr   error
		checkConf bool
	}{
		{
			name: "parses and truncates to three",
			resp: `{"recommendations":[
				{"name":"A","brand":"X","confidence":1.4},
				{"name":"B","brand":"X","confidence":-0.2},
				{"name":"C","brand":"X","confidence":0.5},
				{"name":"D","brand":"X","confidence":0.5}]}`,
			wantLen:   3,
			checkConf: true,
		},
		{
			name:    "code fenced json",
			resp:    "```json\n{\"recommendations\":[{\"name\":\"A\",\"brand\":\"X\"}]}\n```",
			wantLen: 1,
		},
		{name: "unparseable output yields empty list", resp: "sorry, I cannot help", wantLen: 0},
		{name: "missing key yields empty list", resp: `{"other":[]}`, wantLen: 0},
		{name: "call failure is surfaced", err: errors.New("boom"), wantErr: errors.New("boom")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fake := &fakeCompleter{resp: tc.resp, err: tc.err}
			got, err := newTestAdvisor(fake).WeatherRecommendations(context.Background(), reading, nil)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr.Error())
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, tc.wantLen)
			if tc.checkConf {
				assert.InDelta(t, 1.0, got[0].Confidence, 1e-9)
				assert.InDelta(t, 0.0, got[1].Confidence, 1e-9)
			}
			prompt := fake.lastPrompt()
			assert.Contains(t, prompt.User, "22°C")
			assert.Contains(t, prompt.User, noPreferences)
			assert.InDelta(t, 0.7, prompt.Temperature, 1e-6)
		})
	}
}

func TestOperationsWithoutCompleter(t *testing.T) {
	t.Parallel()

	advisor := newTestAdvisor(nil)
	assert.False(t, advisor.Available())

	_, err := advisor.WeatherRecommendations(context.Background(), model.WeatherReading{Condition: "Clear"}, nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = advisor.AnalyzePreferences(context.Background(), model.PreferenceAnswers{{QuestionID: 1}})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = advisor.ChatReply(context.Background(), "안녕하세요", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAnalyzePreferences(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{resp: `{
		"profile":{"favoriteCategories":["플로럴"],"intensity":"light","occasion":["daily"],"personality":"차분함"},
		"recommendations":{"topCategories":["플로럴"],"avoidCategories":["오리엔탈"],"bestTimes":["morning"],"seasonality":["spring"]},
		"explanation":"가벼운 향을 선호합니다."}`}

	got, err := newTestAdvisor(fake).AnalyzePreferences(context.Background(), model.PreferenceAnswers{
		{QuestionID: 1, Question: "선호하는 계절은?", Answer: "spring", Label: "봄"},
	})
	require.NoError(t, err)
	require.NotNil(t, got.Profile)
	assert.Equal(t, []string{"플로럴"}, got.Profile.FavoriteCategories)
	assert.Equal(t, "light", got.Profile.Intensity)
	assert.Equal(t, []string{"spring"}, got.Recommendations.Seasonality)
	assert.Contains(t, fake.lastPrompt().User, "선호하는 계절은?")

	_, err = newTestAdvisor(&fakeCompleter{resp: "not json"}).AnalyzePreferences(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestChatReply(t *testing.T) {
	t.Parallel()

	t.Run("without recommendations", func(t *testing.T) {
		t.Parallel()
		fake := &fakeCompleter{resp: `{"message":"안녕하세요, 무엇을 도와드릴까요?","recommendations":[]}`}
		got, err := newTestAdvisor(fake).ChatReply(context.Background(), "안녕", map[string]string{"weather": "Rain"})
		require.NoError(t, err)
		assert.Equal(t, "안녕하세요, 무엇을 도와드릴까요?", got.Message)
		assert.Nil(t, got.Recommendations)

		prompt := fake.lastPrompt()
		assert.Equal(t, ChatSystemInstruction, prompt.System)
		assert.Contains(t, prompt.User, `"weather": "Rain"`)
		assert.InDelta(t, chatTemperature, prompt.Temperature, 1e-6)
	})

	t.Run("with recommendations", func(t *testing.T) {
		t.Parallel()
		fake := &fakeCompleter{resp: `{"message":"추천드려요","recommendations":[{"name":"Flowerbomb","brand":"VIKTOR & ROLF"}]}`}
		got, err := newTestAdvisor(fake).ChatReply(context.Background(), "향수 추천해줘", nil)
		require.NoError(t, err)
		require.Len(t, got.Recommendations, 1)
		assert.Equal(t, "Flowerbomb", got.Recommendations[0].Name)
		assert.Contains(t, fake.lastPrompt().User, noContext)
	})

	t.Run("empty message is malformed", func(t *testing.T) {
		t.Parallel()
		_, err := newTestAdvisor(&fakeCompleter{resp: `{}`}).ChatReply(context.Background(), "hi", nil)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestCombinedRecommendationFallback(t *testing.T) {
	t.Parallel()

	req := model.CombinedRequest{Mood: "설렘", Purpose: "데이트"}

	tests := []struct {
		name       string
		completer  Completer
		candidates []model.Perfume
		wantPicks  int
	}{
		{name: "no completer", completer: nil, candidates: samplePerfumes(), wantPicks: 3},
		{name: "call failure", completer: &fakeCompleter{err: errors.New("timeout")}, candidates: samplePerfumes(), wantPicks: 3},
		{name: "unusable output", completer: &fakeCompleter{resp: `{"recommendedPerfumes":[]}`}, candidates: samplePerfumes(), wantPicks: 3},
		{name: "fewer candidates", completer: nil, candidates: samplePerfumes()[:2], wantPicks: 2},
		{name: "no candidates", completer: nil, candidates: nil, wantPicks: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := newTestAdvisor(tc.completer).CombinedRecommendation(context.Background(), req, tc.candidates)
			require.NotNil(t, got)
			assert.True(t, got.Fallback)
			require.Len(t, got.Picks, tc.wantPicks)
			for i, p := range got.Picks {
				assert.Equal(t, tc.candidates[i].Name, p.Name)
				assert.NotEmpty(t, p.Reason)
				assert.Contains(t, p.Reason, "설렘")
				assert.Contains(t, p.Reason, tc.candidates[i].Category)
			}
			assert.Equal(t, "설렘 기분과 데이트 목적에 어울리는 향수를 추천합니다.", got.MoodText)
			assert.Equal(t, "설렘 기분에 데이트 목적으로 추천한 향수입니다.", got.Summary)
		})
	}
}

func TestFallbackMoodTextWithWeather(t *testing.T) {
	t.Parallel()

	req := model.CombinedRequest{Mood: "차분함", Purpose: "출근", Weather: &model.WeatherReading{Temperature: 12, Condition: "Rain", Description: "가벼운 비"}}
	assert.Equal(t, "12°C 가벼운 비 날씨에 차분함 기분으로 보내는 하루를 위한 향수를 추천합니다.", fallbackMoodText(req))

	req.Weather.Description = ""
	assert.Equal(t, "12°C Rain 날씨에 차분함 기분으로 보내는 하루를 위한 향수를 추천합니다.", fallbackMoodText(req))
}

func TestCombinedRecommendationFromModel(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{resp: `{"moodText":"맑은 날의 설렘","recommendedPerfumes":[
		{"name":"Black Opium","brand":"YVES SAINT LAURENT","reason":"달콤함"},
		{"name":"","brand":"X","reason":"skip"},
		{"name":"Chance","brand":"CHANEL","reason":"상쾌함"}]}`}
	req := model.CombinedRequest{Mood: "설렘", Purpose: "데이트", PreferredScents: []string{"플로럴"}}

	got := newTestAdvisor(fake).CombinedRecommendation(context.Background(), req, samplePerfumes())
	assert.False(t, got.Fallback)
	require.Len(t, got.Picks, 2)
	assert.Equal(t, "Black Opium", got.Picks[0].Name)
	assert.Equal(t, "맑은 날의 설렘", got.MoodText)
	assert.Equal(t, fallbackSummary(req), got.Summary)

	prompt := fake.lastPrompt().User
	assert.Contains(t, prompt, "Neroli Portofino")
	assert.Contains(t, prompt, "플로럴")
	assert.True(t, strings.Contains(prompt, "Weather: unknown"))
}

func TestCircuitOpensAfterFailures(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{err: errors.New("upstream down")}
	advisor := newTestAdvisor(fake)
	for range 5 {
		_, err := advisor.ChatReply(context.Background(), "hi", nil)
		require.Error(t, err)
	}
	fake.mu.Lock()
	calls := len(fake.prompts)
	fake.mu.Unlock()
	assert.Equal(t, 3, calls)
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var v struct {
		A int `json:"a"`
	}
	require.NoError(t, decodeJSON("prefix {\"a\": 1} suffix", &v))
	assert.Equal(t, 1, v.A)
	assert.ErrorIs(t, decodeJSON("no braces", &v), ErrMalformedResponse)
	assert.ErrorIs(t, decodeJSON("{broken", &v), ErrMalformedResponse)
}
