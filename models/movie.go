// Package models defines the data structures used throughout the application.
package models

import "time"

// Genre is a catalog genre as stored in the movie's serialized genre list.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Movie represents one diary entry: a catalog snapshot taken at insert time
// plus the user-entered fields. The snapshot is not kept live; on read the
// localizer may overlay Title and OriginalTitleEN with current catalog values.
type Movie struct {
	ID     int    `json:"id"`
	UserID string `json:"-"`

	// Catalog snapshot. TMDBID of 0 marks a manually entered movie.
	TMDBID       int     `json:"tmdb_id,omitempty"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	Genres       []Genre `json:"genres"`
	Rating       float64 `json:"rating,omitempty"`
	Runtime      int     `json:"runtime,omitempty"` // in minutes

	// OriginalTitleEN is overlay-only: populated on read when the requested
	// language is not English and the catalog's original title differs.
	OriginalTitleEN string `json:"original_title_en,omitempty"`

	// User data.
	WatchedDate string `json:"watched_date"`
	UserRating  int    `json:"user_rating,omitempty"` // 1-10, 0 until set
	Notes       string `json:"notes,omitempty"`

	// Version increments on every successful update.
	Version int `json:"version"`

	Emotions  []Emotion `json:"emotions"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MovieUpdate carries the three mutable fields of a diary entry. Nil fields
// are left unchanged. Version, when set, enables an optimistic-concurrency
// check against the stored row.
type MovieUpdate struct {
	UserRating  *int    `json:"user_rating" validate:"omitempty,min=1,max=10"`
	Notes       *string `json:"notes"`
	WatchedDate *string `json:"watched_date"`
	Version     *int    `json:"version"`
}

// CreateMovieRequest is the POST /api/movies body: the catalog snapshot plus
// the user-entered fields.
type CreateMovieRequest struct {
	TMDBID       int     `json:"tmdb_id"`
	Title        string  `json:"title" validate:"required"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Genres       []Genre `json:"genres"`
	Rating       float64 `json:"rating"`
	Runtime      int     `json:"runtime"`
	WatchedDate  string  `json:"watched_date" validate:"required"`
	UserRating   int     `json:"user_rating" validate:"omitempty,min=1,max=10"`
	Notes        string  `json:"notes"`
}
