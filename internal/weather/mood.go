package weather

import (
	"strings"

	"github.com/edgard/weatherscent/internal/model"
)

const (
	MoodRain      = "비 오는 날, 촉촉한 공기와 어우러지는 차분하고 포근한 향이 어울려요."
	MoodSnow      = "눈 내리는 날, 포근하고 달콤한 오리엔탈 향이 감성을 채워줘요."
	MoodCloudy    = "흐린 하늘 아래, 부드럽고 따뜻한 향으로 기분을 밝혀보세요."
	MoodHotClear  = "뜨거운 햇살 아래, 시원하고 상쾌한 시트러스 향이 생기를 더해줘요."
	MoodMildClear = "맑고 화창한 날, 가볍고 산뜻한 플로럴 향이 잘 어울려요."
	MoodColdClear = "맑지만 쌀쌀한 날, 따뜻한 우디 향으로 포근함을 더해보세요."
	MoodDefault   = "오늘의 날씨에 어울리는 특별한 향을 찾아보세요."
)

// DeriveMood maps a reading to a fixed mood sentence. Conditions are
// matched by case-insensitive substring, first match wins.
func DeriveMood(r model.WeatherReading) string {
	condition := strings.ToLower(r.Condition)
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(condition, s) {
				return true
			}
		}
		return false
	}

	switch {
	case has("rain", "storm"):
		return MoodRain
	case has("snow"):
		return MoodSnow
	case has("cloud"):
		return MoodCloudy
	case has("clear", "sun"):
		switch {
		case r.Temperature > 25:
			return MoodHotClear
		case r.Temperature > 15:
			return MoodMildClear
		default:
			return MoodColdClear
		}
	default:
		return MoodDefault
	}
}
