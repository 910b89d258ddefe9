package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"rewatch/database"
	"rewatch/models"

	"github.com/rs/zerolog"
)

// EmotionRepository handles database operations for emotion tags.
type EmotionRepository struct {
	db     *database.DB
	logger zerolog.Logger
}

// NewEmotionRepository creates a new emotion repository.
func NewEmotionRepository(db *database.DB, logger zerolog.Logger) *EmotionRepository {
	return &EmotionRepository{db: db, logger: logger}
}

// normalize fills in the default intensity for inputs that omit it.
func normalize(in models.EmotionInput) models.EmotionInput {
	if in.Intensity == 0 {
		in.Intensity = models.DefaultIntensity
	}
	return in
}

// ReplaceForMovie replaces the movie's entire emotion set with tags, as a
// single transaction: either the new set is fully in place or the old set is
// untouched. An empty tags list is a valid terminal state that clears the
// set. Returns ErrNotFound when the movie does not belong to userID.
func (r *EmotionRepository) ReplaceForMovie(movieID int, userID string, tags []models.EmotionInput) ([]models.Emotion, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			r.logger.Warn().Err(err).Msg("Failed to roll back transaction")
		}
	}()

	// Ownership check before any write.
	var exists int
	err = tx.QueryRow(`SELECT 1 FROM movies WHERE id = ? AND user_id = ?`, movieID, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("movie %d: %w", movieID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to verify movie ownership: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM emotions WHERE movie_id = ?`, movieID); err != nil {
		return nil, fmt.Errorf("failed to delete old emotions: %w", err)
	}

	inserted := make([]models.Emotion, 0, len(tags))
	for _, tag := range tags {
		tag = normalize(tag)
		result, err := tx.Exec(
			`INSERT INTO emotions (movie_id, user_id, emotion_type, intensity, description)
			 VALUES (?, ?, ?, ?, ?)`,
			movieID, userID, tag.Type, tag.Intensity, nullString(tag.Description),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert emotion %q: %w", tag.Type, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get last insert id: %w", err)
		}
		inserted = append(inserted, models.Emotion{
			ID:          int(id),
			MovieID:     movieID,
			Type:        models.EmotionType(tag.Type),
			Intensity:   tag.Intensity,
			Description: tag.Description,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit emotion replace: %w", err)
	}

	return inserted, nil
}

// Add inserts a single emotion tag after verifying the movie belongs to the
// user. This is a reconciliation primitive; the edit session uses
// ReplaceForMovie instead.
func (r *EmotionRepository) Add(movieID int, userID string, in models.EmotionInput) (*models.Emotion, error) {
	var exists int
	err := r.db.QueryRow(`SELECT 1 FROM movies WHERE id = ? AND user_id = ?`, movieID, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("movie %d: %w", movieID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to verify movie ownership: %w", err)
	}

	in = normalize(in)
	result, err := r.db.Exec(
		`INSERT INTO emotions (movie_id, user_id, emotion_type, intensity, description)
		 VALUES (?, ?, ?, ?, ?)`,
		movieID, userID, in.Type, in.Intensity, nullString(in.Description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add emotion: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return &models.Emotion{
		ID:          int(id),
		MovieID:     movieID,
		Type:        models.EmotionType(in.Type),
		Intensity:   in.Intensity,
		Description: in.Description,
	}, nil
}

// ListByMovie returns the emotion tags for one movie, newest first.
func (r *EmotionRepository) ListByMovie(movieID int, userID string) ([]models.Emotion, error) {
	rows, err := r.db.Query(
		`SELECT id, movie_id, emotion_type, intensity, description, created_at
		 FROM emotions WHERE movie_id = ? AND user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		movieID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query emotions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close rows")
		}
	}()

	emotions := []models.Emotion{}
	for rows.Next() {
		var e models.Emotion
		var description sql.NullString
		if err := rows.Scan(&e.ID, &e.MovieID, &e.Type, &e.Intensity, &description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan emotion: %w", err)
		}
		if description.Valid {
			e.Description = description.String
		}
		emotions = append(emotions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return emotions, nil
}

// ListAll returns the user's emotions across all movies, optionally filtered
// by type, joined with each movie's display fields.
func (r *EmotionRepository) ListAll(userID, emotionType string, limit int) ([]models.EmotionWithMovie, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT e.id, e.movie_id, e.emotion_type, e.intensity, e.description, e.created_at,
			   m.title, m.poster_path, m.watched_date
		FROM emotions e
		JOIN movies m ON e.movie_id = m.id
		WHERE e.user_id = ? AND m.user_id = ?`
	args := []any{userID, userID}

	if emotionType != "" {
		query += ` AND e.emotion_type = ?`
		args = append(args, emotionType)
	}
	query += ` ORDER BY e.created_at DESC, e.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query emotions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close rows")
		}
	}()

	out := []models.EmotionWithMovie{}
	for rows.Next() {
		var e models.EmotionWithMovie
		var description, posterPath sql.NullString
		if err := rows.Scan(&e.ID, &e.MovieID, &e.Type, &e.Intensity, &description,
			&e.CreatedAt, &e.MovieTitle, &posterPath, &e.WatchedDate); err != nil {
			return nil, fmt.Errorf("failed to scan emotion: %w", err)
		}
		if description.Valid {
			e.Description = description.String
		}
		if posterPath.Valid {
			e.PosterPath = posterPath.String
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return out, nil
}

// Update modifies a single emotion tag in place.
func (r *EmotionRepository) Update(id int, userID string, in models.EmotionInput) error {
	in = normalize(in)
	result, err := r.db.Exec(
		`UPDATE emotions SET emotion_type = ?, intensity = ?, description = ?
		 WHERE id = ? AND user_id = ?`,
		in.Type, in.Intensity, nullString(in.Description), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update emotion: %w", err)
	}

	changed, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if changed == 0 {
		return fmt.Errorf("emotion %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a single emotion tag.
func (r *EmotionRepository) Delete(id int, userID string) error {
	result, err := r.db.Exec(`DELETE FROM emotions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete emotion: %w", err)
	}

	changed, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if changed == 0 {
		return fmt.Errorf("emotion %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteAllForMovie removes every emotion tag for a movie and reports how
// many were deleted. Zero is not an error; the empty set is a valid state.
func (r *EmotionRepository) DeleteAllForMovie(movieID int, userID string) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM emotions WHERE movie_id = ? AND user_id = ?`, movieID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete emotions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// StatsOverview aggregates the user's emotions by type.
func (r *EmotionRepository) StatsOverview(userID string) ([]models.EmotionTypeStats, error) {
	rows, err := r.db.Query(
		`SELECT emotion_type, COUNT(*), AVG(intensity), MAX(intensity), MIN(intensity)
		 FROM emotions WHERE user_id = ?
		 GROUP BY emotion_type ORDER BY COUNT(*) DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query emotion stats: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close rows")
		}
	}()

	stats := []models.EmotionTypeStats{}
	for rows.Next() {
		var s models.EmotionTypeStats
		if err := rows.Scan(&s.Type, &s.Count, &s.AvgIntensity, &s.MaxIntensity, &s.MinIntensity); err != nil {
			return nil, fmt.Errorf("failed to scan emotion stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return stats, nil
}
