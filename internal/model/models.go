// Package model defines the records persisted by the storage layer and the
// value types exchanged with the weather and recommendation adapters.
package model

import "time"

// User is a registered account. Preferences is nil until the preference
// analysis flow stores a profile.
type User struct {
	ID          int64            `db:"id"          json:"id"`
	Username    string           `db:"username"    json:"username"`
	Email       string           `db:"email"       json:"email"`
	Preferences *UserPreferences `db:"preferences" json:"preferences"`
	CreatedAt   time.Time        `db:"created_at"  json:"createdAt"`
}

// UserPreferences is the scent profile attached to a user.
type UserPreferences struct {
	FavoriteCategories []string `json:"favoriteCategories"`
	Intensity          string   `json:"intensity"`
	Occasion           []string `json:"occasion"`
	AgeRange           string   `json:"ageRange,omitempty"`
	Gender             string   `json:"gender,omitempty"`
	Personality        string   `json:"personality,omitempty"`
}

// Perfume is a catalog entry. Rating is set at creation and never
// recomputed; Views counts detail-page fetches.
type Perfume struct {
	ID          int64      `db:"id"          json:"id"`
	Name        string     `db:"name"        json:"name"`
	Brand       string     `db:"brand"       json:"brand"`
	Category    string     `db:"category"    json:"category"`
	Notes       StringList `db:"notes"       json:"notes"`
	Description *string    `db:"description" json:"description"`
	Image       *string    `db:"image"       json:"image"`
	Rating      int        `db:"rating"      json:"rating"`
	Views       int        `db:"views"       json:"views"`
}

// Recommendation is a log row written for every perfume surfaced to a user
// by a weather-based recommendation call.
type Recommendation struct {
	ID               int64     `db:"id"                json:"id"`
	UserID           *int64    `db:"user_id"           json:"userId"`
	PerfumeID        *int64    `db:"perfume_id"        json:"perfumeId"`
	WeatherCondition string    `db:"weather_condition" json:"weatherCondition"`
	Temperature      *int      `db:"temperature"       json:"temperature"`
	Reason           string    `db:"reason"            json:"reason"`
	MoodText         string    `db:"mood_text"         json:"moodText"`
	CreatedAt        time.Time `db:"created_at"        json:"createdAt"`
}

// RecommendationWithPerfume is a Recommendation with its perfume attached.
// Perfume is nil when the referenced row no longer exists.
type RecommendationWithPerfume struct {
	Recommendation
	Perfume *Perfume `json:"perfume"`
}

// WishlistItem marks a perfume saved by a user. At most one exists per
// (UserID, PerfumeID).
type WishlistItem struct {
	ID        int64     `db:"id"         json:"id"`
	UserID    int64     `db:"user_id"    json:"userId"    validate:"required,gt=0"`
	PerfumeID int64     `db:"perfume_id" json:"perfumeId" validate:"required,gt=0"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// WishlistItemWithPerfume is a WishlistItem with its perfume attached.
type WishlistItemWithPerfume struct {
	WishlistItem
	Perfume *Perfume `json:"perfume"`
}

// ChatMessage is one chat turn. Message holds the user's text and Response
// the assistant's reply.
type ChatMessage struct {
	ID        int64     `db:"id"         json:"id"`
	UserID    int64     `db:"user_id"    json:"userId"`
	Message   string    `db:"message"    json:"message"`
	Response  *string   `db:"response"   json:"response"`
	IsUser    bool      `db:"is_user"    json:"isUser"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// PreferenceTest is the stored outcome of a preference quiz.
type PreferenceTest struct {
	ID          int64               `db:"id"           json:"id"`
	UserID      int64               `db:"user_id"      json:"userId"`
	Answers     PreferenceAnswers   `db:"answers"      json:"answers"`
	Results     *PreferenceAnalysis `db:"results"      json:"results"`
	CompletedAt time.Time           `db:"completed_at" json:"completedAt"`
}

// PreferenceAnswer is a single quiz answer.
type PreferenceAnswer struct {
	QuestionID int    `json:"questionId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Label      string `json:"label"`
}

// PreferenceAnswers is the ordered answer list of a quiz.
type PreferenceAnswers []PreferenceAnswer
