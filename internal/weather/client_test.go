package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/weatherscent/internal/config"
	"github.com/edgard/weatherscent/internal/model"
)

func newTestClient(t *testing.T, apiKey string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.WeatherConfig{
		APIKey:  apiKey,
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, nil)
}

func TestClientFetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		apiKey  string
		status  int
		body    string
		want    model.WeatherReading
		wantHit bool
	}{
		{
			name:   "success",
			apiKey: "key",
			status: http.StatusOK,
			body: `{"name":"Seoul","main":{"temp":27.6,"humidity":64},"wind":{"speed":3.2},
				"weather":[{"main":"Clouds","description":"구름 많음"}]}`,
			want: model.WeatherReading{
				Temperature: 28, Condition: "Clouds", Humidity: 64, WindSpeed: 3.2,
				Location: "Seoul", Description: "구름 많음",
			},
			wantHit: true,
		},
		{
			name:   "missing name uses current location",
			apiKey: "key",
			status: http.StatusOK,
			body:   `{"main":{"temp":-0.4,"humidity":90},"wind":{"speed":1},"weather":[{"main":"Snow","description":"눈"}]}`,
			want: model.WeatherReading{
				Temperature: 0, Condition: "Snow", Humidity: 90, WindSpeed: 1,
				Location: "현재 위치", Description: "눈",
			},
			wantHit: true,
		},
		{
			name:    "server error falls back",
			apiKey:  "key",
			status:  http.StatusInternalServerError,
			body:    `{"message":"boom"}`,
			want:    FallbackReading(),
			wantHit: true,
		},
		{
			name:    "bad json falls back",
			apiKey:  "key",
			status:  http.StatusOK,
			body:    `{not json`,
			want:    FallbackReading(),
			wantHit: true,
		},
		{
			name:    "empty conditions fall back",
			apiKey:  "key",
			status:  http.StatusOK,
			body:    `{"name":"Seoul","main":{"temp":10},"weather":[]}`,
			want:    FallbackReading(),
			wantHit: true,
		},
		{
			name:    "no api key skips the call",
			apiKey:  "",
			want:    FallbackReading(),
			wantHit: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var hit atomic.Bool
			client := newTestClient(t, tc.apiKey, func(w http.ResponseWriter, r *http.Request) {
				hit.Store(true)
				assert.Equal(t, "/data/2.5/weather", r.URL.Path)
				assert.Equal(t, "37.5665", r.URL.Query().Get("lat"))
				assert.Equal(t, "126.978", r.URL.Query().Get("lon"))
				assert.Equal(t, "metric", r.URL.Query().Get("units"))
				assert.Equal(t, "kr", r.URL.Query().Get("lang"))
				assert.Equal(t, tc.apiKey, r.URL.Query().Get("appid"))
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			got := client.Fetch(context.Background(), 37.5665, 126.978)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantHit, hit.Load())
		})
	}
}

func TestClientFetchCircuitOpens(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, "key", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for range 8 {
		require.Equal(t, FallbackReading(), client.Fetch(context.Background(), 1, 2))
	}
	assert.Equal(t, int32(5), calls.Load(), "breaker should stop calling after consecutive failures")
}
