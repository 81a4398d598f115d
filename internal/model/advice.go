package model

// WeatherReading is the normalized weather at a coordinate.
type WeatherReading struct {
	Temperature int     `json:"temperature"`
	Condition   string  `json:"condition"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Location    string  `json:"location"`
	Description string  `json:"description,omitempty"`
}

// Suggestion is a perfume proposed by the language model. It is not a
// stored Perfume until matched or persisted.
type Suggestion struct {
	Name       string   `json:"name"`
	Brand      string   `json:"brand"`
	Category   string   `json:"category"`
	Notes      []string `json:"notes"`
	Reason     string   `json:"reason"`
	MoodText   string   `json:"moodText"`
	Confidence float64  `json:"confidence"`
}

// PreferenceAnalysis is the result of analyzing quiz answers.
type PreferenceAnalysis struct {
	Profile         *UserPreferences `json:"profile,omitempty"`
	Recommendations CategoryGuidance `json:"recommendations"`
	Explanation     string           `json:"explanation"`
}

// CategoryGuidance groups the category advice of a PreferenceAnalysis.
type CategoryGuidance struct {
	TopCategories   []string `json:"topCategories"`
	AvoidCategories []string `json:"avoidCategories"`
	BestTimes       []string `json:"bestTimes"`
	Seasonality     []string `json:"seasonality"`
}

// ChatReply is the assistant's answer to a chat message. Recommendations is
// only set when the user asked for perfumes.
type ChatReply struct {
	Message         string       `json:"message"`
	Recommendations []Suggestion `json:"recommendations,omitempty"`
}

// CombinedRequest carries the answers of the recommendation wizard.
type CombinedRequest struct {
	Gender          string          `json:"gender"`
	AgeRange        string          `json:"ageRange"`
	Mood            string          `json:"mood"    validate:"required"`
	Purpose         string          `json:"purpose" validate:"required"`
	PreferredScents []string        `json:"preferredScents"`
	Weather         *WeatherReading `json:"weather,omitempty"`
}

// ScoredPerfume is a stored perfume together with the reason it was picked.
type ScoredPerfume struct {
	Perfume
	Reason string `json:"reason"`
}

// CombinedResult is a finished combined recommendation. It is kept in the
// result cache under ID so it can be shared.
type CombinedResult struct {
	ID       string          `json:"id"`
	Mood     string          `json:"mood"`
	Weather  *WeatherReading `json:"weather"`
	Perfumes []ScoredPerfume `json:"perfumes"`
	MoodText string          `json:"moodText"`
	Summary  string          `json:"summary"`
}
