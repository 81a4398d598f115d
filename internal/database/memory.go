package database

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/edgard/weatherscent/internal/logger"
	"github.com/edgard/weatherscent/internal/model"
)

// MemoryStore keeps every record in process memory. All state, including
// the id counters, belongs to the instance and is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	logger *slog.Logger
	now    func() time.Time

	users           map[int64]model.User
	perfumes        map[int64]model.Perfume
	recommendations map[int64]model.Recommendation
	wishlist        map[int64]model.WishlistItem
	chatMessages    map[int64]model.ChatMessage
	preferenceTests map[int64]model.PreferenceTest

	nextUserID           int64
	nextPerfumeID        int64
	nextRecommendationID int64
	nextWishlistID       int64
	nextChatMessageID    int64
	nextPreferenceTestID int64
}

// NewMemoryStore creates an in-memory store seeded with the sample perfumes.
func NewMemoryStore(log *slog.Logger) *MemoryStore {
	s := newEmptyMemoryStore(log)
	for _, p := range SamplePerfumes() {
		s.insertPerfume(p)
	}
	return s
}

func newEmptyMemoryStore(log *slog.Logger) *MemoryStore {
	if log == nil {
		log = logger.Discard()
	}
	return &MemoryStore{
		logger:          log.With("component", "memory_store"),
		now:             func() time.Time { return time.Now().UTC() },
		users:           make(map[int64]model.User),
		perfumes:        make(map[int64]model.Perfume),
		recommendations: make(map[int64]model.Recommendation),
		wishlist:        make(map[int64]model.WishlistItem),
		chatMessages:    make(map[int64]model.ChatMessage),
		preferenceTests: make(map[int64]model.PreferenceTest),
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Kind() string { return "memory" }

// RunMaintenance has nothing to do for the in-memory store.
func (s *MemoryStore) RunMaintenance(ctx context.Context) error {
	s.logger.DebugContext(ctx, "Skipping maintenance for in-memory storage")
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// sortedValues returns the map values ordered by id.
func sortedValues[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func clonePerfume(p model.Perfume) *model.Perfume {
	p.Notes = slices.Clone(p.Notes)
	return &p
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, ErrDuplicateUser
		}
	}

	s.nextUserID++
	stored := *user
	stored.ID = s.nextUserID
	stored.CreatedAt = s.now()
	s.users[stored.ID] = stored

	s.logger.DebugContext(ctx, "User created", "user_id", stored.ID)
	return &stored, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range sortedValues(s.users, nil) {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) UpdateUserPreferences(_ context.Context, id int64, prefs model.UserPreferences) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	u.Preferences = &prefs
	s.users[id] = u
	return &u, nil
}

func (s *MemoryStore) CreatePerfume(_ context.Context, perfume *model.Perfume) (*model.Perfume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertPerfume(*perfume), nil
}

// insertPerfume requires s.mu to be held for writing.
func (s *MemoryStore) insertPerfume(p model.Perfume) *model.Perfume {
	s.nextPerfumeID++
	p.ID = s.nextPerfumeID
	if p.Notes == nil {
		p.Notes = model.StringList{}
	}
	s.perfumes[p.ID] = p
	return clonePerfume(p)
}

func (s *MemoryStore) GetAllPerfumes(context.Context) ([]model.Perfume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := sortedValues(s.perfumes, nil)
	for i := range out {
		out[i].Notes = slices.Clone(out[i].Notes)
	}
	return out, nil
}

func (s *MemoryStore) GetPerfumeByID(_ context.Context, id int64) (*model.Perfume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.perfumes[id]
	if !ok {
		return nil, nil
	}
	return clonePerfume(p), nil
}

func (s *MemoryStore) FindPerfume(_ context.Context, name, brand string) (*model.Perfume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findPerfume(name, brand), nil
}

// findPerfume requires s.mu to be held.
func (s *MemoryStore) findPerfume(name, brand string) *model.Perfume {
	for _, p := range sortedValues(s.perfumes, nil) {
		if strings.EqualFold(p.Name, name) && strings.EqualFold(p.Brand, brand) {
			return clonePerfume(p)
		}
	}
	return nil
}

func (s *MemoryStore) IncrementPerfumeViews(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.perfumes[id]
	if !ok {
		return false, nil
	}
	p.Views++
	s.perfumes[id] = p
	return true, nil
}

func (s *MemoryStore) CreateRecommendation(_ context.Context, rec *model.Recommendation) (*model.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertRecommendation(*rec), nil
}

// insertRecommendation requires s.mu to be held for writing.
func (s *MemoryStore) insertRecommendation(r model.Recommendation) *model.Recommendation {
	s.nextRecommendationID++
	r.ID = s.nextRecommendationID
	r.CreatedAt = s.now()
	s.recommendations[r.ID] = r
	return &r
}

func (s *MemoryStore) GetRecommendationsByUserID(_ context.Context, userID int64) ([]model.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.recommendations, func(r model.Recommendation) bool {
		return r.UserID != nil && *r.UserID == userID
	}), nil
}

func (s *MemoryStore) GetRecommendationsWithPerfumes(ctx context.Context, userID int64) ([]model.RecommendationWithPerfume, error) {
	rows, err := s.GetRecommendationsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return joinRecommendations(ctx, rows, s.GetPerfumeByID)
}

// SaveSuggestions holds the write lock for the whole batch so it is applied
// all at once.
func (s *MemoryStore) SaveSuggestions(ctx context.Context, userID int64, reading model.WeatherReading, suggestions []model.Suggestion) ([]model.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Recommendation, 0, len(suggestions))
	for _, sug := range suggestions {
		perfume := s.findPerfume(sug.Name, sug.Brand)
		if perfume == nil {
			perfume = s.insertPerfume(*perfumeFromSuggestion(sug))
			s.logger.DebugContext(ctx, "Created perfume from suggestion", "perfume_id", perfume.ID, "name", perfume.Name)
		}
		out = append(out, *s.insertRecommendation(*recommendationFromSuggestion(userID, perfume.ID, reading, sug)))
	}
	return out, nil
}

func (s *MemoryStore) AddToWishlist(_ context.Context, userID, perfumeID int64) (*model.WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inWishlist(userID, perfumeID) {
		return nil, ErrAlreadyInWishlist
	}
	s.nextWishlistID++
	item := model.WishlistItem{
		ID:        s.nextWishlistID,
		UserID:    userID,
		PerfumeID: perfumeID,
		CreatedAt: s.now(),
	}
	s.wishlist[item.ID] = item
	return &item, nil
}

func (s *MemoryStore) RemoveFromWishlist(_ context.Context, userID, perfumeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range sortedValues(s.wishlist, nil) {
		if item.UserID == userID && item.PerfumeID == perfumeID {
			delete(s.wishlist, item.ID)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) GetWishlistByUserID(_ context.Context, userID int64) ([]model.WishlistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.wishlist, func(w model.WishlistItem) bool {
		return w.UserID == userID
	}), nil
}

func (s *MemoryStore) GetWishlistWithPerfumes(ctx context.Context, userID int64) ([]model.WishlistItemWithPerfume, error) {
	rows, err := s.GetWishlistByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return joinWishlist(ctx, rows, s.GetPerfumeByID)
}

func (s *MemoryStore) IsInWishlist(_ context.Context, userID, perfumeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inWishlist(userID, perfumeID), nil
}

// inWishlist requires s.mu to be held.
func (s *MemoryStore) inWishlist(userID, perfumeID int64) bool {
	for _, item := range s.wishlist {
		if item.UserID == userID && item.PerfumeID == perfumeID {
			return true
		}
	}
	return false
}

func (s *MemoryStore) SaveChatMessage(_ context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextChatMessageID++
	stored := *msg
	stored.ID = s.nextChatMessageID
	stored.CreatedAt = s.now()
	s.chatMessages[stored.ID] = stored
	return &stored, nil
}

func (s *MemoryStore) GetChatHistory(_ context.Context, userID int64) ([]model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := sortedValues(s.chatMessages, func(m model.ChatMessage) bool {
		return m.UserID == userID
	})
	slices.SortStableFunc(out, func(a, b model.ChatMessage) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) SavePreferenceTest(_ context.Context, test *model.PreferenceTest) (*model.PreferenceTest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertPreferenceTest(*test), nil
}

// SavePreferenceResult holds s.mu across both writes.
func (s *MemoryStore) SavePreferenceResult(ctx context.Context, test *model.PreferenceTest, profile *model.UserPreferences) (*model.PreferenceTest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.upsertPreferenceTest(*test)
	if profile == nil {
		return stored, nil
	}
	u, ok := s.users[test.UserID]
	if !ok {
		s.logger.WarnContext(ctx, "Preference test saved for unknown user", "user_id", test.UserID)
		return stored, nil
	}
	prefs := *profile
	u.Preferences = &prefs
	s.users[u.ID] = u
	return stored, nil
}

// upsertPreferenceTest requires s.mu to be held.
func (s *MemoryStore) upsertPreferenceTest(stored model.PreferenceTest) *model.PreferenceTest {
	stored.CompletedAt = s.now()
	for id, existing := range s.preferenceTests {
		if existing.UserID == stored.UserID {
			stored.ID = id
			s.preferenceTests[id] = stored
			return &stored
		}
	}

	s.nextPreferenceTestID++
	stored.ID = s.nextPreferenceTestID
	s.preferenceTests[stored.ID] = stored
	return &stored
}

func (s *MemoryStore) GetPreferenceTestByUserID(_ context.Context, userID int64) (*model.PreferenceTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range sortedValues(s.preferenceTests, nil) {
		if t.UserID == userID {
			return &t, nil
		}
	}
	return nil, nil
}
