package repository

import (
	"database/sql"
	"fmt"
	"time"

	"rewatch/database"
	"rewatch/models"

	"github.com/rs/zerolog"
)

// StatsRepository computes aggregate views over a user's diary.
type StatsRepository struct {
	db     *database.DB
	logger zerolog.Logger
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(db *database.DB, logger zerolog.Logger) *StatsRepository {
	return &StatsRepository{db: db, logger: logger}
}

// Overview returns headline numbers for the user's diary and emotions.
func (r *StatsRepository) Overview(userID string) (*models.OverviewStats, error) {
	var out models.OverviewStats
	var avgRating sql.NullFloat64
	var firstWatch, lastWatch sql.NullString

	err := r.db.QueryRow(
		`SELECT COUNT(*), AVG(user_rating), COUNT(DISTINCT DATE(watched_date)),
				MIN(watched_date), MAX(watched_date)
		 FROM movies WHERE user_id = ?`,
		userID,
	).Scan(&out.Movies.TotalMovies, &avgRating, &out.Movies.UniqueWatchDays, &firstWatch, &lastWatch)
	if err != nil {
		return nil, fmt.Errorf("failed to query movie stats: %w", err)
	}
	if avgRating.Valid {
		out.Movies.AvgUserRating = avgRating.Float64
	}
	if firstWatch.Valid {
		out.Movies.FirstWatch = firstWatch.String
	}
	if lastWatch.Valid {
		out.Movies.LastWatch = lastWatch.String
	}

	var avgIntensity sql.NullFloat64
	err = r.db.QueryRow(
		`SELECT COUNT(*), COUNT(DISTINCT emotion_type), AVG(intensity)
		 FROM emotions WHERE user_id = ?`,
		userID,
	).Scan(&out.Emotions.TotalEmotions, &out.Emotions.UniqueEmotions, &avgIntensity)
	if err != nil {
		return nil, fmt.Errorf("failed to query emotion stats: %w", err)
	}
	if avgIntensity.Valid {
		out.Emotions.AvgIntensity = avgIntensity.Float64
	}

	return &out, nil
}

// Monthly returns per-month diary activity for the last twelve active months.
func (r *StatsRepository) Monthly(userID string) ([]models.MonthlyStats, error) {
	rows, err := r.db.Query(
		`SELECT strftime('%Y-%m', watched_date), COUNT(*),
				COALESCE(AVG(user_rating), 0), COUNT(DISTINCT DATE(watched_date))
		 FROM movies
		 WHERE user_id = ? AND watched_date IS NOT NULL
		 GROUP BY strftime('%Y-%m', watched_date)
		 ORDER BY strftime('%Y-%m', watched_date) DESC
		 LIMIT 12`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly stats: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close rows")
		}
	}()

	stats := []models.MonthlyStats{}
	for rows.Next() {
		var s models.MonthlyStats
		if err := rows.Scan(&s.Month, &s.MoviesWatched, &s.AvgRating, &s.WatchDays); err != nil {
			return nil, fmt.Errorf("failed to scan monthly stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return stats, nil
}

// Genres aggregates diary entries by genre name, expanded from the serialized
// genre list on each movie row (the authoritative copy).
func (r *StatsRepository) Genres(userID string) ([]models.GenreStats, error) {
	rows, err := r.db.Query(
		`SELECT json_extract(g.value, '$.name'), COUNT(*), COALESCE(AVG(m.user_rating), 0)
		 FROM movies m, json_each(m.genres) AS g
		 WHERE m.user_id = ? AND m.genres IS NOT NULL AND m.genres != '[]' AND m.genres != 'null'
		 GROUP BY json_extract(g.value, '$.name')
		 ORDER BY COUNT(*) DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query genre stats: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close rows")
		}
	}()

	stats := []models.GenreStats{}
	for rows.Next() {
		var s models.GenreStats
		if err := rows.Scan(&s.GenreName, &s.Count, &s.AvgRating); err != nil {
			return nil, fmt.Errorf("failed to scan genre stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return stats, nil
}

// EmotionTrends buckets the user's emotions by watch month and type.
func (r *StatsRepository) EmotionTrends(userID string) ([]models.EmotionTrend, error) {
	rows, err := r.db.Query(
		`SELECT strftime('%Y-%m', m.watched_date), e.emotion_type, COUNT(*), AVG(e.intensity)
		 FROM emotions e
		 JOIN movies m ON e.movie_id = m.id
		 WHERE e.user_id = ? AND m.user_id = ? AND m.watched_date IS NOT NULL
		 GROUP BY strftime('%Y-%m', m.watched_date), e.emotion_type
		 ORDER BY strftime('%Y-%m', m.watched_date) DESC, COUNT(*) DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query emotion trends: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close rows")
		}
	}()

	trends := []models.EmotionTrend{}
	for rows.Next() {
		var t models.EmotionTrend
		if err := rows.Scan(&t.Month, &t.Type, &t.Count, &t.AvgIntensity); err != nil {
			return nil, fmt.Errorf("failed to scan emotion trend: %w", err)
		}
		trends = append(trends, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return trends, nil
}

// TopEmotional ranks the user's movies by average emotion intensity,
// optionally restricted to one emotion type.
func (r *StatsRepository) TopEmotional(userID, emotionType string, limit int) ([]models.TopEmotionalMovie, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	query := `
		SELECT m.id, m.title, m.poster_path, m.watched_date, e.emotion_type,
			   AVG(e.intensity), COUNT(e.id)
		FROM movies m
		JOIN emotions e ON m.id = e.movie_id
		WHERE e.user_id = ? AND m.user_id = ?`
	args := []any{userID, userID}

	if emotionType != "" {
		query += ` AND e.emotion_type = ?`
		args = append(args, emotionType)
	}
	query += `
		GROUP BY m.id, e.emotion_type
		ORDER BY AVG(e.intensity) DESC, COUNT(e.id) DESC
		LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top emotional movies: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close rows")
		}
	}()

	movies := []models.TopEmotionalMovie{}
	for rows.Next() {
		var m models.TopEmotionalMovie
		var posterPath sql.NullString
		if err := rows.Scan(&m.MovieID, &m.Title, &posterPath, &m.WatchedDate,
			&m.Type, &m.AvgIntensity, &m.EmotionCount); err != nil {
			return nil, fmt.Errorf("failed to scan top emotional movie: %w", err)
		}
		if posterPath.Valid {
			m.PosterPath = posterPath.String
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return movies, nil
}

// Streak reports the user's most recent run of consecutive watch days within
// the last 30 days.
func (r *StatsRepository) Streak(userID string) (*models.StreakStats, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT DATE(watched_date)
		 FROM movies
		 WHERE user_id = ? AND watched_date IS NOT NULL
		   AND DATE(watched_date) >= DATE('now', '-30 days')
		 ORDER BY DATE(watched_date) DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query watch dates: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close rows")
		}
	}()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan watch date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	streak := &models.StreakStats{}
	if len(dates) == 0 {
		return streak, nil
	}

	// Walk backwards from the most recent watch day until a gap larger than
	// one day appears.
	streak.CurrentStreak = 1
	streak.StreakEnd = dates[0]
	streak.StreakStart = dates[0]
	prev, err := time.Parse("2006-01-02", dates[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse watch date %q: %w", dates[0], err)
	}
	for i := 1; i < len(dates); i++ {
		day, err := time.Parse("2006-01-02", dates[i])
		if err != nil {
			return nil, fmt.Errorf("failed to parse watch date %q: %w", dates[i], err)
		}
		if prev.Sub(day) > 24*time.Hour {
			break
		}
		streak.CurrentStreak++
		streak.StreakStart = dates[i]
		prev = day
	}

	return streak, nil
}
