package ai

// ConsultantSystemInstruction frames every recommendation request.
const ConsultantSystemInstruction = `You are an expert perfume consultant for WeatherScent, a service that matches fragrances to the weather and the user's mood. Always answer with a single JSON object and nothing else. Write user-facing text in Korean. Use these fragrance categories: 프레시, 플로럴, 우디, 오리엔탈.`

// WeatherRecommendationPrompt expects the temperature, condition, humidity,
// location and the user's preferences as JSON.
const WeatherRecommendationPrompt = `Based on the following weather conditions and user preferences, recommend 3 perfumes that would be perfect for today.

Weather Information:
- Temperature: %d°C
- Condition: %s
- Humidity: %d%%
- Location: %s

User Preferences:
%s

Respond in JSON with the following structure:
{
  "recommendations": [
    {
      "name": "perfume name",
      "brand": "brand name",
      "category": "fragrance category (프레시/플로럴/우디/오리엔탈)",
      "notes": ["note1", "note2", "note3"],
      "reason": "detailed explanation why this perfume suits the weather and preferences",
      "moodText": "poetic description of how this perfume matches the day's mood",
      "confidence": 0.95
    }
  ]
}

Focus on how the weather conditions (temperature, humidity) affect how fragrances perform and how they should complement the day's mood.`

// PreferenceAnalysisPrompt expects the quiz answers as JSON.
const PreferenceAnalysisPrompt = `You are analyzing a user's perfume preferences. Based on the following quiz answers, provide a detailed analysis and fragrance profile.

Quiz Answers:
%s

Respond in JSON:
{
  "profile": {
    "favoriteCategories": ["category1", "category2"],
    "intensity": "light/medium/strong",
    "occasion": ["daily", "special", "romantic", "professional"],
    "personality": "brief personality description"
  },
  "recommendations": {
    "topCategories": ["recommended fragrance families"],
    "avoidCategories": ["categories to avoid"],
    "bestTimes": ["morning", "evening", "special occasions"],
    "seasonality": ["spring", "summer", "fall", "winter"]
  },
  "explanation": "detailed explanation of the analysis"
}`

// ChatSystemInstruction is the persona used for free-form chat.
const ChatSystemInstruction = `You are WeatherScent AI, an expert perfume consultant. Respond to the user's question about perfumes, fragrances, or scent-related topics. Always be helpful and knowledgeable, and keep a luxurious, sophisticated tone that matches a premium perfume brand. Answer with a single JSON object.`

// ChatPrompt expects the user's message and the conversation context as JSON.
const ChatPrompt = `User Message: %q

Context: %s

Respond in JSON:
{
  "message": "your response to the user",
  "recommendations": [
    {
      "name": "perfume name",
      "brand": "brand name",
      "category": "category",
      "notes": ["note1", "note2"],
      "reason": "why this fits their request"
    }
  ]
}

Only include recommendations if the user is specifically asking for perfume suggestions.`

// CombinedRecommendationPrompt expects the user's answers, the weather line
// and the candidate list as JSON.
const CombinedRecommendationPrompt = `A user is looking for a perfume.

Gender: %s
Age range: %s
Mood: %s
Purpose: %s
Preferred scents: %s
Weather: %s

Choose up to 3 perfumes from the candidates below and explain each choice. Only pick perfumes from this list and copy their name and brand exactly.

Candidates:
%s

Respond in JSON:
{
  "moodText": "one sentence connecting the weather and mood to the picks",
  "summary": "one sentence summarizing the recommendation",
  "recommendedPerfumes": [
    {"name": "perfume name", "brand": "brand name", "reason": "why it fits"}
  ]
}`

const (
	noPreferences = "No specific preferences provided"
	noContext     = "No additional context"
	unknownValue  = "unknown"
)
