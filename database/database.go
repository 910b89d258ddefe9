// Package database provides database connectivity and schema management.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // Import sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the SQL database connection.
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection. Foreign keys are enabled so that
// deleting a movie cascades to its emotions and genre links.
func NewDB(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// InitSchema initializes the database schema. It is safe to call on every
// startup: table creation is idempotent and migrations on existing databases
// are additive.
func (db *DB) InitSchema(logger zerolog.Logger) error {
	schema := `
	CREATE TABLE IF NOT EXISTS movies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL DEFAULT 'anonymous',
		tmdb_id INTEGER,
		title TEXT NOT NULL,
		overview TEXT,
		release_date TEXT,
		poster_path TEXT,
		backdrop_path TEXT,
		genres TEXT,
		rating REAL,
		runtime INTEGER,
		watched_date TEXT NOT NULL,
		user_rating INTEGER,
		notes TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_movies_user_id ON movies(user_id);
	CREATE INDEX IF NOT EXISTS idx_movies_watched_date ON movies(watched_date);
	CREATE INDEX IF NOT EXISTS idx_movies_tmdb_id ON movies(tmdb_id);

	CREATE TABLE IF NOT EXISTS emotions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		movie_id INTEGER NOT NULL,
		user_id TEXT NOT NULL DEFAULT 'anonymous',
		emotion_type TEXT NOT NULL,
		intensity INTEGER NOT NULL CHECK (intensity >= 1 AND intensity <= 10),
		description TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (movie_id) REFERENCES movies (id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_emotions_movie_id ON emotions(movie_id);
	CREATE INDEX IF NOT EXISTS idx_emotions_type ON emotions(emotion_type);

	CREATE TABLE IF NOT EXISTS movie_genres (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		movie_id INTEGER NOT NULL,
		genre_name TEXT NOT NULL,
		FOREIGN KEY (movie_id) REFERENCES movies (id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_movie_genres_movie_id ON movie_genres(movie_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Migrations for databases created before these columns existed. The
	// ALTER statements fail when the column is already there; that error is
	// expected and ignored. Backfills only touch rows left NULL by the ALTER.
	migrations := []string{
		`ALTER TABLE movies ADD COLUMN user_id TEXT`,
		`UPDATE movies SET user_id = 'anonymous' WHERE user_id IS NULL`,
		`ALTER TABLE movies ADD COLUMN version INTEGER`,
		`UPDATE movies SET version = 1 WHERE version IS NULL`,
		`ALTER TABLE emotions ADD COLUMN user_id TEXT`,
		`UPDATE emotions SET user_id = 'anonymous' WHERE user_id IS NULL`,
	}
	for _, m := range migrations {
		db.Exec(m)
	}

	// The per-user uniqueness of catalog entries lives in its own index so
	// migrated databases pick it up too. Manual entries (NULL tmdb_id) never
	// collide.
	unique := `CREATE UNIQUE INDEX IF NOT EXISTS idx_movies_user_tmdb
		ON movies(user_id, tmdb_id) WHERE tmdb_id IS NOT NULL`
	if _, err := db.Exec(unique); err != nil {
		return fmt.Errorf("failed to create unique index: %w", err)
	}

	logger.Info().Msg("Database schema initialized")
	return nil
}
