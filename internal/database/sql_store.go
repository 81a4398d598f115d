package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/edgard/weatherscent/internal/logger"
	"github.com/edgard/weatherscent/internal/model"
)

const (
	userColumns           = `id, username, email, preferences, created_at`
	perfumeColumns        = `id, name, brand, category, notes, description, image, rating, views`
	recommendationColumns = `id, user_id, perfume_id, weather_condition, temperature, reason, mood_text, created_at`
	wishlistColumns       = `id, user_id, perfume_id, created_at`
	chatMessageColumns    = `id, user_id, message, response, is_user, created_at`
	preferenceTestColumns = `id, user_id, answers, results, completed_at`
)

// SQLStore implements Store on SQLite or PostgreSQL through sqlx.
// Queries are written with ? placeholders and rebound for the driver.
type SQLStore struct {
	db      *sqlx.DB
	dialect Dialect
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewSQLStore creates a Store backed by a connected, migrated database.
func NewSQLStore(db *sqlx.DB, dialect Dialect, log *slog.Logger, queryTimeout time.Duration) *SQLStore {
	if log == nil {
		log = logger.Discard()
	}
	return &SQLStore{
		db:      db,
		dialect: dialect,
		timeout: queryTimeout,
		logger:  log.With("component", "sql_store", "dialect", string(dialect)),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// DB exposes the connection pool for tooling such as the migrate command.
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

func (s *SQLStore) Kind() string { return string(s.dialect) }

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// RunMaintenance runs VACUUM on SQLite and ANALYZE on PostgreSQL.
func (s *SQLStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	stmt := "VACUUM;"
	if s.dialect == DialectPostgres {
		stmt = "ANALYZE;"
	}

	s.logger.InfoContext(ctx, "Starting database maintenance", "statement", stmt)
	_, err := s.db.ExecContext(ctx, stmt)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Database maintenance timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance failed", "error", err)
		return fmt.Errorf("failed to execute %s: %w", stmt, err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed successfully")
	return nil
}

// withTx runs fn in a transaction that is committed only if fn succeeds.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil
	return nil
}

// getOne runs a single-row query; sql.ErrNoRows becomes found == false.
func (s *SQLStore) getOne(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) (bool, error) {
	err := sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// --- Users ---

func (s *SQLStore) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	stored := *user
	stored.CreatedAt = s.now()

	query := s.db.Rebind(`INSERT INTO users (username, email, preferences, created_at)
		VALUES (?, ?, ?, ?) RETURNING id`)
	err := s.db.GetContext(ctx, &stored.ID, query, stored.Username, stored.Email, stored.Preferences, stored.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateUser
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating user", "username", stored.Username, "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.DebugContext(ctx, "User created", "user_id", stored.ID)
	return &stored, nil
}

func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	var u model.User
	found, err := s.getOne(ctx, s.db, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	var u model.User
	found, err := s.getOne(ctx, s.db, &u, `SELECT `+userColumns+` FROM users WHERE email = ? ORDER BY id LIMIT 1`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

func (s *SQLStore) UpdateUserPreferences(ctx context.Context, id int64, prefs model.UserPreferences) (*model.User, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()
	return s.updatePreferences(ctx, s.db, id, prefs)
}

func (s *SQLStore) updatePreferences(ctx context.Context, q sqlx.ExtContext, id int64, prefs model.UserPreferences) (*model.User, error) {
	var u model.User
	found, err := s.getOne(ctx, q, &u,
		`UPDATE users SET preferences = ? WHERE id = ? RETURNING `+userColumns, prefs, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating user preferences", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to update preferences for user %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

// --- Perfumes ---

func (s *SQLStore) CreatePerfume(ctx context.Context, perfume *model.Perfume) (*model.Perfume, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()
	return s.insertPerfume(ctx, s.db, *perfume)
}

func (s *SQLStore) insertPerfume(ctx context.Context, q sqlx.ExtContext, p model.Perfume) (*model.Perfume, error) {
	if p.Notes == nil {
		p.Notes = model.StringList{}
	}
	query := q.Rebind(`INSERT INTO perfumes (name, brand, category, notes, description, image, rating, views)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	if err := sqlx.GetContext(ctx, q, &p.ID, query,
		p.Name, p.Brand, p.Category, p.Notes, p.Description, p.Image, p.Rating, p.Views); err != nil {
		s.logger.ErrorContext(ctx, "Error creating perfume", "name", p.Name, "error", err)
		return nil, fmt.Errorf("failed to create perfume %q: %w", p.Name, err)
	}
	return &p, nil
}

func (s *SQLStore) GetAllPerfumes(ctx context.Context) ([]model.Perfume, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	perfumes := []model.Perfume{}
	if err := s.db.SelectContext(ctx, &perfumes, `SELECT `+perfumeColumns+` FROM perfumes ORDER BY id`); err != nil {
		s.logger.ErrorContext(ctx, "Error getting perfumes", "error", err)
		return nil, fmt.Errorf("failed to get perfumes: %w", err)
	}
	return perfumes, nil
}

func (s *SQLStore) GetPerfumeByID(ctx context.Context, id int64) (*model.Perfume, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	var p model.Perfume
	found, err := s.getOne(ctx, s.db, &p, `SELECT `+perfumeColumns+` FROM perfumes WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get perfume %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

func (s *SQLStore) FindPerfume(ctx context.Context, name, brand string) (*model.Perfume, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()
	return s.findPerfume(ctx, s.db, name, brand)
}

// findPerfume folds case in Go, as MemoryStore does. SQLite's lower()
// only folds ASCII.
func (s *SQLStore) findPerfume(ctx context.Context, q sqlx.ExtContext, name, brand string) (*model.Perfume, error) {
	var rows []model.Perfume
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT `+perfumeColumns+` FROM perfumes ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to find perfume %q by %q: %w", name, brand, err)
	}
	for i := range rows {
		if strings.EqualFold(rows[i].Name, name) && strings.EqualFold(rows[i].Brand, brand) {
			return &rows[i], nil
		}
	}
	return nil, nil
}

// IncrementPerfumeViews issues a single UPDATE so concurrent views are
// never lost.
func (s *SQLStore) IncrementPerfumeViews(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE perfumes SET views = views + 1 WHERE id = ?`), id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error incrementing perfume views", "perfume_id", id, "error", err)
		return false, fmt.Errorf("failed to increment views for perfume %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// --- Recommendations ---

func (s *SQLStore) CreateRecommendation(ctx context.Context, rec *model.Recommendation) (*model.Recommendation, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()
	return s.insertRecommendation(ctx, s.db, *rec)
}

func (s *SQLStore) insertRecommendation(ctx context.Context, q sqlx.ExtContext, r model.Recommendation) (*model.Recommendation, error) {
	r.CreatedAt = s.now()
	query := q.Rebind(`INSERT INTO recommendations (user_id, perfume_id, weather_condition, temperature, reason, mood_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	if err := sqlx.GetContext(ctx, q, &r.ID, query,
		r.UserID, r.PerfumeID, r.WeatherCondition, r.Temperature, r.Reason, r.MoodText, r.CreatedAt); err != nil {
		s.logger.ErrorContext(ctx, "Error creating recommendation", "error", err)
		return nil, fmt.Errorf("failed to create recommendation: %w", err)
	}
	return &r, nil
}

func (s *SQLStore) GetRecommendationsByUserID(ctx context.Context, userID int64) ([]model.Recommendation, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	recs := []model.Recommendation{}
	query := s.db.Rebind(`SELECT ` + recommendationColumns + ` FROM recommendations WHERE user_id = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &recs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get recommendations for user %d: %w", userID, err)
	}
	return recs, nil
}

func (s *SQLStore) GetRecommendationsWithPerfumes(ctx context.Context, userID int64) ([]model.RecommendationWithPerfume, error) {
	rows, err := s.GetRecommendationsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return joinRecommendations(ctx, rows, s.GetPerfumeByID)
}

// SaveSuggestions writes the whole batch in one transaction; any failure
// leaves the database untouched.
func (s *SQLStore) SaveSuggestions(ctx context.Context, userID int64, reading model.WeatherReading, suggestions []model.Suggestion) ([]model.Recommendation, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	out := make([]model.Recommendation, 0, len(suggestions))
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, sug := range suggestions {
			perfume, err := s.findPerfume(ctx, tx, sug.Name, sug.Brand)
			if err != nil {
				return err
			}
			if perfume == nil {
				if perfume, err = s.insertPerfume(ctx, tx, *perfumeFromSuggestion(sug)); err != nil {
					return err
				}
				s.logger.DebugContext(ctx, "Created perfume from suggestion", "perfume_id", perfume.ID, "name", perfume.Name)
			}
			rec, err := s.insertRecommendation(ctx, tx, *recommendationFromSuggestion(userID, perfume.ID, reading, sug))
			if err != nil {
				return err
			}
			out = append(out, *rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save suggestions for user %d: %w", userID, err)
	}
	return out, nil
}

// --- Wishlist ---

// AddToWishlist relies on the (user_id, perfume_id) unique index: a
// conflicting insert returns no row.
func (s *SQLStore) AddToWishlist(ctx context.Context, userID, perfumeID int64) (*model.WishlistItem, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	item := model.WishlistItem{UserID: userID, PerfumeID: perfumeID, CreatedAt: s.now()}
	found, err := s.getOne(ctx, s.db, &item.ID,
		`INSERT INTO wishlist (user_id, perfume_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, perfume_id) DO NOTHING RETURNING id`,
		item.UserID, item.PerfumeID, item.CreatedAt)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding to wishlist", "user_id", userID, "perfume_id", perfumeID, "error", err)
		return nil, fmt.Errorf("failed to add perfume %d to wishlist of user %d: %w", perfumeID, userID, err)
	}
	if !found {
		return nil, ErrAlreadyInWishlist
	}
	return &item, nil
}

func (s *SQLStore) RemoveFromWishlist(ctx context.Context, userID, perfumeID int64) (bool, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.Rebind(`DELETE FROM wishlist WHERE id = (
		SELECT id FROM wishlist WHERE user_id = ? AND perfume_id = ? ORDER BY id LIMIT 1)`)
	res, err := s.db.ExecContext(ctx, query, userID, perfumeID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error removing from wishlist", "user_id", userID, "perfume_id", perfumeID, "error", err)
		return false, fmt.Errorf("failed to remove perfume %d from wishlist of user %d: %w", perfumeID, userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

func (s *SQLStore) GetWishlistByUserID(ctx context.Context, userID int64) ([]model.WishlistItem, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	items := []model.WishlistItem{}
	query := s.db.Rebind(`SELECT ` + wishlistColumns + ` FROM wishlist WHERE user_id = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get wishlist for user %d: %w", userID, err)
	}
	return items, nil
}

func (s *SQLStore) GetWishlistWithPerfumes(ctx context.Context, userID int64) ([]model.WishlistItemWithPerfume, error) {
	rows, err := s.GetWishlistByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return joinWishlist(ctx, rows, s.GetPerfumeByID)
}

func (s *SQLStore) IsInWishlist(ctx context.Context, userID, perfumeID int64) (bool, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	var id int64
	found, err := s.getOne(ctx, s.db, &id,
		`SELECT id FROM wishlist WHERE user_id = ? AND perfume_id = ? LIMIT 1`, userID, perfumeID)
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist of user %d: %w", userID, err)
	}
	return found, nil
}

// --- Chat ---

func (s *SQLStore) SaveChatMessage(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	stored := *msg
	stored.CreatedAt = s.now()
	query := s.db.Rebind(`INSERT INTO chat_messages (user_id, message, response, is_user, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	if err := s.db.GetContext(ctx, &stored.ID, query,
		stored.UserID, stored.Message, stored.Response, stored.IsUser, stored.CreatedAt); err != nil {
		s.logger.ErrorContext(ctx, "Error saving chat message", "user_id", stored.UserID, "error", err)
		return nil, fmt.Errorf("failed to save chat message: %w", err)
	}
	return &stored, nil
}

func (s *SQLStore) GetChatHistory(ctx context.Context, userID int64) ([]model.ChatMessage, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	msgs := []model.ChatMessage{}
	query := s.db.Rebind(`SELECT ` + chatMessageColumns + ` FROM chat_messages WHERE user_id = ? ORDER BY created_at, id`)
	if err := s.db.SelectContext(ctx, &msgs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get chat history for user %d: %w", userID, err)
	}
	return msgs, nil
}

// --- Preference tests ---

// SavePreferenceTest upserts on the unique user_id so a user keeps only the
// latest test.
func (s *SQLStore) SavePreferenceTest(ctx context.Context, test *model.PreferenceTest) (*model.PreferenceTest, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()
	return s.upsertPreferenceTest(ctx, s.db, *test)
}

// SavePreferenceResult runs the test upsert and the preference update in
// one transaction.
func (s *SQLStore) SavePreferenceResult(ctx context.Context, test *model.PreferenceTest, profile *model.UserPreferences) (*model.PreferenceTest, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	var stored *model.PreferenceTest
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		if stored, err = s.upsertPreferenceTest(ctx, tx, *test); err != nil {
			return err
		}
		if profile == nil {
			return nil
		}
		user, err := s.updatePreferences(ctx, tx, test.UserID, *profile)
		if err != nil {
			return err
		}
		if user == nil {
			s.logger.WarnContext(ctx, "Preference test saved for unknown user", "user_id", test.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save preference result for user %d: %w", test.UserID, err)
	}
	return stored, nil
}

func (s *SQLStore) upsertPreferenceTest(ctx context.Context, q sqlx.ExtContext, stored model.PreferenceTest) (*model.PreferenceTest, error) {
	if stored.Answers == nil {
		stored.Answers = model.PreferenceAnswers{}
	}
	stored.CompletedAt = s.now()
	query := q.Rebind(`INSERT INTO preference_tests (user_id, answers, results, completed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			answers = excluded.answers,
			results = excluded.results,
			completed_at = excluded.completed_at
		RETURNING id`)
	if err := sqlx.GetContext(ctx, q, &stored.ID, query,
		stored.UserID, stored.Answers, stored.Results, stored.CompletedAt); err != nil {
		s.logger.ErrorContext(ctx, "Error saving preference test", "user_id", stored.UserID, "error", err)
		return nil, fmt.Errorf("failed to save preference test: %w", err)
	}
	return &stored, nil
}

func (s *SQLStore) GetPreferenceTestByUserID(ctx context.Context, userID int64) (*model.PreferenceTest, error) {
	ctx, cancel := queryTimeout(ctx, s.timeout)
	defer cancel()

	var t model.PreferenceTest
	found, err := s.getOne(ctx, s.db, &t,
		`SELECT `+preferenceTestColumns+` FROM preference_tests WHERE user_id = ? ORDER BY id LIMIT 1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get preference test for user %d: %w", userID, err)
	}
	if !found {
		return nil, nil
	}
	return &t, nil
}
