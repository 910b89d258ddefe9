// Package repository provides the data access layer for the diary.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rewatch/database"
	"rewatch/models"

	json "github.com/goccy/go-json"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// allowedSortFields is the allow-list for list ordering. Anything else falls
// back to the default to keep user input out of the ORDER BY clause.
var allowedSortFields = map[string]bool{
	"watched_date": true,
	"title":        true,
	"user_rating":  true,
	"created_at":   true,
}

// ListOptions controls pagination and ordering of a diary listing.
type ListOptions struct {
	Page      int
	PageSize  int
	SortField string
	SortOrder string
}

// MovieRepository handles database operations for diary entries.
type MovieRepository struct {
	db     *database.DB
	logger zerolog.Logger
}

// NewMovieRepository creates a new movie repository.
func NewMovieRepository(db *database.DB, logger zerolog.Logger) *MovieRepository {
	return &MovieRepository{db: db, logger: logger}
}

const movieColumns = `id, user_id, tmdb_id, title, overview, release_date, poster_path,
	backdrop_path, genres, rating, runtime, watched_date, user_rating, notes,
	version, created_at, updated_at`

// Create inserts a new diary entry and fills in its assigned id. A duplicate
// (user, catalog movie) pair returns ErrConflict: the movie is already in the
// diary and the caller should not retry.
func (r *MovieRepository) Create(movie *models.Movie) error {
	genresJSON, err := json.Marshal(movie.Genres)
	if err != nil {
		return fmt.Errorf("failed to serialize genres: %w", err)
	}

	query := `
		INSERT INTO movies (user_id, tmdb_id, title, overview, release_date, poster_path,
							backdrop_path, genres, rating, runtime, watched_date, user_rating, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		movie.UserID, nullInt(movie.TMDBID), movie.Title, nullString(movie.Overview),
		nullString(movie.ReleaseDate), nullString(movie.PosterPath),
		nullString(movie.BackdropPath), string(genresJSON), nullFloat64(movie.Rating),
		nullInt(movie.Runtime), movie.WatchedDate, nullInt(movie.UserRating),
		nullString(movie.Notes),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("movie with tmdb_id %d already in diary: %w", movie.TMDBID, ErrConflict)
		}
		return fmt.Errorf("failed to create movie: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	movie.ID = int(id)
	movie.Version = 1

	// Genre links are a best-effort secondary index for aggregate queries;
	// the serialized list on the movie row stays authoritative.
	for _, g := range movie.Genres {
		if _, err := r.db.Exec(
			`INSERT INTO movie_genres (movie_id, genre_name) VALUES (?, ?)`,
			movie.ID, g.Name,
		); err != nil {
			r.logger.Warn().Err(err).Int("movie_id", movie.ID).Msg("Failed to write genre link")
		}
	}

	return nil
}

// GetByID retrieves one diary entry with its emotion tags. Returns
// ErrNotFound when the id does not exist or belongs to another user.
func (r *MovieRepository) GetByID(id int, userID string) (*models.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = ? AND user_id = ?`

	movie, err := scanMovie(r.db.QueryRow(query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("movie %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	emotions, err := r.emotionsForMovies(userID, movie.ID)
	if err != nil {
		return nil, err
	}
	movie.Emotions = emotions[movie.ID]
	if movie.Emotions == nil {
		movie.Emotions = []models.Emotion{}
	}

	return movie, nil
}

// List retrieves a page of the user's diary, most recently watched first by
// default, with emotion tags attached to each entry.
func (r *MovieRepository) List(userID string, opts ListOptions) ([]models.Movie, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 || opts.PageSize > 100 {
		opts.PageSize = 20
	}
	sortField := opts.SortField
	if !allowedSortFields[sortField] {
		sortField = "watched_date"
	}
	sortOrder := "DESC"
	if strings.EqualFold(opts.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	query := `SELECT ` + movieColumns + ` FROM movies WHERE user_id = ?
		ORDER BY ` + sortField + ` ` + sortOrder + ` LIMIT ? OFFSET ?`

	rows, err := r.db.Query(query, userID, opts.PageSize, (opts.Page-1)*opts.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close rows")
		}
	}()

	var movies []models.Movie
	var ids []int
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, *movie)
		ids = append(ids, movie.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	if len(ids) > 0 {
		byMovie, err := r.emotionsForMovies(userID, ids...)
		if err != nil {
			return nil, err
		}
		for i := range movies {
			movies[i].Emotions = byMovie[movies[i].ID]
			if movies[i].Emotions == nil {
				movies[i].Emotions = []models.Emotion{}
			}
		}
	}

	return movies, nil
}

// TopRated returns the user's highest-rated catalog entries, used to seed
// similar-movie recommendations.
func (r *MovieRepository) TopRated(userID string, limit int) ([]models.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies
		WHERE user_id = ? AND tmdb_id IS NOT NULL AND user_rating IS NOT NULL
		ORDER BY user_rating DESC, id DESC LIMIT ?`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top rated movies: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close rows")
		}
	}()

	var movies []models.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, *movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return movies, nil
}

// Update applies a partial update to the three mutable user fields. The
// catalog snapshot is immutable after creation. When upd.Version is set, a
// mismatch with the stored version returns ErrConflict instead of silently
// overwriting a concurrent edit.
func (r *MovieRepository) Update(id int, userID string, upd models.MovieUpdate) error {
	var sets []string
	var args []any

	if upd.UserRating != nil {
		sets = append(sets, "user_rating = ?")
		args = append(args, nullInt(*upd.UserRating))
	}
	if upd.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, nullString(*upd.Notes))
	}
	if upd.WatchedDate != nil {
		sets = append(sets, "watched_date = ?")
		args = append(args, *upd.WatchedDate)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "version = version + 1", "updated_at = CURRENT_TIMESTAMP")

	query := "UPDATE movies SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
	args = append(args, id, userID)
	if upd.Version != nil {
		query += " AND version = ?"
		args = append(args, *upd.Version)
	}

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update movie: %w", err)
	}

	changed, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if changed == 0 {
		// Distinguish a stale version from a missing row so the edit
		// session can refetch instead of treating its entry as deleted.
		if upd.Version != nil {
			var exists int
			err := r.db.QueryRow(
				`SELECT 1 FROM movies WHERE id = ? AND user_id = ?`, id, userID,
			).Scan(&exists)
			if err == nil {
				return fmt.Errorf("movie %d version %d is stale: %w", id, *upd.Version, ErrConflict)
			}
		}
		return fmt.Errorf("movie %d: %w", id, ErrNotFound)
	}

	return nil
}

// Delete removes a diary entry; emotions and genre links cascade.
func (r *MovieRepository) Delete(id int, userID string) error {
	result, err := r.db.Exec(`DELETE FROM movies WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	changed, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if changed == 0 {
		return fmt.Errorf("movie %d: %w", id, ErrNotFound)
	}

	return nil
}

// emotionsForMovies loads the emotion tags for a set of movie ids in one
// query, keyed by movie id.
func (r *MovieRepository) emotionsForMovies(userID string, movieIDs ...int) (map[int][]models.Emotion, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(movieIDs)), ",")
	query := `SELECT id, movie_id, emotion_type, intensity, description, created_at
		FROM emotions WHERE user_id = ? AND movie_id IN (` + placeholders + `)
		ORDER BY created_at DESC, id DESC`

	args := make([]any, 0, len(movieIDs)+1)
	args = append(args, userID)
	for _, id := range movieIDs {
		args = append(args, id)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query emotions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close rows")
		}
	}()

	byMovie := make(map[int][]models.Emotion)
	for rows.Next() {
		var e models.Emotion
		var description sql.NullString
		if err := rows.Scan(&e.ID, &e.MovieID, &e.Type, &e.Intensity, &description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan emotion: %w", err)
		}
		if description.Valid {
			e.Description = description.String
		}
		byMovie[e.MovieID] = append(byMovie[e.MovieID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return byMovie, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*models.Movie, error) {
	var movie models.Movie
	var tmdbID, runtime, userRating, version sql.NullInt64
	var overview, releaseDate, posterPath, backdropPath, genres, notes sql.NullString
	var rating sql.NullFloat64

	err := row.Scan(
		&movie.ID, &movie.UserID, &tmdbID, &movie.Title, &overview, &releaseDate,
		&posterPath, &backdropPath, &genres, &rating, &runtime, &movie.WatchedDate,
		&userRating, &notes, &version, &movie.CreatedAt, &movie.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tmdbID.Valid {
		movie.TMDBID = int(tmdbID.Int64)
	}
	if overview.Valid {
		movie.Overview = overview.String
	}
	if releaseDate.Valid {
		movie.ReleaseDate = releaseDate.String
	}
	if posterPath.Valid {
		movie.PosterPath = posterPath.String
	}
	if backdropPath.Valid {
		movie.BackdropPath = backdropPath.String
	}
	if rating.Valid {
		movie.Rating = rating.Float64
	}
	if runtime.Valid {
		movie.Runtime = int(runtime.Int64)
	}
	if userRating.Valid {
		movie.UserRating = int(userRating.Int64)
	}
	if notes.Valid {
		movie.Notes = notes.String
	}
	if version.Valid {
		movie.Version = int(version.Int64)
	}

	movie.Genres = []models.Genre{}
	if genres.Valid && genres.String != "" {
		if err := json.Unmarshal([]byte(genres.String), &movie.Genres); err != nil {
			return nil, fmt.Errorf("failed to parse genres: %w", err)
		}
	}
	movie.Emotions = []models.Emotion{}

	return &movie, nil
}

// Helper functions for handling null values
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(i int) sql.NullInt64 {
	if i == 0 {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(i), Valid: true}
}

func nullFloat64(f float64) sql.NullFloat64 {
	if f == 0.0 {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
