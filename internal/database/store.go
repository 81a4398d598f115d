package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edgard/weatherscent/internal/config"
	"github.com/edgard/weatherscent/internal/model"
)

var (
	// ErrAlreadyInWishlist is returned by AddToWishlist for an existing
	// (user, perfume) pair.
	ErrAlreadyInWishlist = errors.New("item already in wishlist")
	// ErrDuplicateUser is returned by CreateUser when the username or email
	// is taken.
	ErrDuplicateUser = errors.New("username or email already exists")
)

// Store defines the interface for storage operations.
// Single-record getters return nil, nil when the record does not exist.
// List getters return an empty, non-nil slice when nothing matches.
type Store interface {
	// Ping checks the storage connection.
	Ping(ctx context.Context) error

	// Kind names the backend: "memory", "sqlite" or "postgres".
	Kind() string

	// RunMaintenance performs backend housekeeping such as VACUUM.
	RunMaintenance(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error

	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateUserPreferences replaces the user's preferences and returns the
	// updated user, or nil, nil when the user does not exist.
	UpdateUserPreferences(ctx context.Context, id int64, prefs model.UserPreferences) (*model.User, error)

	CreatePerfume(ctx context.Context, perfume *model.Perfume) (*model.Perfume, error)
	// GetAllPerfumes returns every perfume in ascending id order.
	GetAllPerfumes(ctx context.Context) ([]model.Perfume, error)
	GetPerfumeByID(ctx context.Context, id int64) (*model.Perfume, error)
	// FindPerfume looks a perfume up by case-insensitive name and brand.
	FindPerfume(ctx context.Context, name, brand string) (*model.Perfume, error)
	// IncrementPerfumeViews atomically adds one view and reports whether the
	// perfume exists.
	IncrementPerfumeViews(ctx context.Context, id int64) (bool, error)

	CreateRecommendation(ctx context.Context, rec *model.Recommendation) (*model.Recommendation, error)
	GetRecommendationsByUserID(ctx context.Context, userID int64) ([]model.Recommendation, error)
	GetRecommendationsWithPerfumes(ctx context.Context, userID int64) ([]model.RecommendationWithPerfume, error)
	// SaveSuggestions finds or creates a perfume for every suggestion and
	// logs one recommendation per suggestion. The batch is atomic.
	SaveSuggestions(ctx context.Context, userID int64, reading model.WeatherReading, suggestions []model.Suggestion) ([]model.Recommendation, error)

	// AddToWishlist returns ErrAlreadyInWishlist for a duplicate pair.
	AddToWishlist(ctx context.Context, userID, perfumeID int64) (*model.WishlistItem, error)
	// RemoveFromWishlist deletes the first matching item and reports whether
	// one existed.
	RemoveFromWishlist(ctx context.Context, userID, perfumeID int64) (bool, error)
	GetWishlistByUserID(ctx context.Context, userID int64) ([]model.WishlistItem, error)
	GetWishlistWithPerfumes(ctx context.Context, userID int64) ([]model.WishlistItemWithPerfume, error)
	IsInWishlist(ctx context.Context, userID, perfumeID int64) (bool, error)

	SaveChatMessage(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error)
	// GetChatHistory returns the user's messages oldest first.
	GetChatHistory(ctx context.Context, userID int64) ([]model.ChatMessage, error)

	// SavePreferenceTest stores the user's test, replacing any earlier one.
	SavePreferenceTest(ctx context.Context, test *model.PreferenceTest) (*model.PreferenceTest, error)
	// SavePreferenceResult stores the test like SavePreferenceTest and, when
	// profile is non-nil, replaces the user's preferences. Both writes are
	// applied or neither is.
	SavePreferenceResult(ctx context.Context, test *model.PreferenceTest, profile *model.UserPreferences) (*model.PreferenceTest, error)
	GetPreferenceTestByUserID(ctx context.Context, userID int64) (*model.PreferenceTest, error)
}

// Open selects the storage backend once at startup: an empty database URL
// yields a seeded MemoryStore, anything else a migrated SQLStore.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (Store, error) {
	if cfg.URL == "" {
		logger.InfoContext(ctx, "No database URL configured, using in-memory storage")
		return NewMemoryStore(logger), nil
	}

	db, dialect, err := NewDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db, dialect, logger, cfg.QueryTimeout), nil
}

// perfumeLookup resolves perfume ids for the application-level joins.
type perfumeLookup func(ctx context.Context, id int64) (*model.Perfume, error)

func joinRecommendations(ctx context.Context, rows []model.Recommendation, lookup perfumeLookup) ([]model.RecommendationWithPerfume, error) {
	out := make([]model.RecommendationWithPerfume, 0, len(rows))
	for _, row := range rows {
		joined := model.RecommendationWithPerfume{Recommendation: row}
		if row.PerfumeID != nil {
			p, err := lookup(ctx, *row.PerfumeID)
			if err != nil {
				return nil, fmt.Errorf("failed to load perfume %d for recommendation %d: %w", *row.PerfumeID, row.ID, err)
			}
			joined.Perfume = p
		}
		out = append(out, joined)
	}
	return out, nil
}

func joinWishlist(ctx context.Context, rows []model.WishlistItem, lookup perfumeLookup) ([]model.WishlistItemWithPerfume, error) {
	out := make([]model.WishlistItemWithPerfume, 0, len(rows))
	for _, row := range rows {
		p, err := lookup(ctx, row.PerfumeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load perfume %d for wishlist item %d: %w", row.PerfumeID, row.ID, err)
		}
		out = append(out, model.WishlistItemWithPerfume{WishlistItem: row, Perfume: p})
	}
	return out, nil
}

// perfumeFromSuggestion builds the catalog entry created for an unmatched
// suggestion. Confidence maps onto the 0-50 rating scale.
func perfumeFromSuggestion(s model.Suggestion) *model.Perfume {
	reason := s.Reason
	return &model.Perfume{
		Name:        s.Name,
		Brand:       s.Brand,
		Category:    s.Category,
		Notes:       model.StringList(s.Notes),
		Description: &reason,
		Rating:      int(s.Confidence * 50),
	}
}

func recommendationFromSuggestion(userID, perfumeID int64, reading model.WeatherReading, s model.Suggestion) *model.Recommendation {
	temp := reading.Temperature
	return &model.Recommendation{
		UserID:           &userID,
		PerfumeID:        &perfumeID,
		WeatherCondition: reading.Condition,
		Temperature:      &temp,
		Reason:           s.Reason,
		MoodText:         s.MoodText,
	}
}
