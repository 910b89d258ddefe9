package models

// MovieStats summarizes a user's diary.
type MovieStats struct {
	TotalMovies     int     `json:"total_movies"`
	AvgUserRating   float64 `json:"avg_user_rating"`
	UniqueWatchDays int     `json:"unique_watch_days"`
	FirstWatch      string  `json:"first_watch,omitempty"`
	LastWatch       string  `json:"last_watch,omitempty"`
}

// EmotionStats summarizes a user's emotion tags.
type EmotionStats struct {
	TotalEmotions  int     `json:"total_emotions"`
	UniqueEmotions int     `json:"unique_emotions"`
	AvgIntensity   float64 `json:"avg_intensity"`
}

// OverviewStats is the /api/stats/overview response.
type OverviewStats struct {
	Movies   MovieStats   `json:"movies"`
	Emotions EmotionStats `json:"emotions"`
}

// MonthlyStats aggregates diary activity for one calendar month.
type MonthlyStats struct {
	Month         string  `json:"month"` // YYYY-MM
	MoviesWatched int     `json:"movies_watched"`
	AvgRating     float64 `json:"avg_rating"`
	WatchDays     int     `json:"watch_days"`
}

// GenreStats aggregates diary entries by genre name.
type GenreStats struct {
	GenreName string  `json:"genre_name"`
	Count     int     `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}

// EmotionTypeStats aggregates stored emotions by type.
type EmotionTypeStats struct {
	Type         EmotionType `json:"emotion_type"`
	Count        int         `json:"count"`
	AvgIntensity float64     `json:"avg_intensity"`
	MaxIntensity int         `json:"max_intensity"`
	MinIntensity int         `json:"min_intensity"`
}

// EmotionTrend is one (month, emotion type) bucket.
type EmotionTrend struct {
	Month        string      `json:"month"`
	Type         EmotionType `json:"emotion_type"`
	Count        int         `json:"count"`
	AvgIntensity float64     `json:"avg_intensity"`
}

// TopEmotionalMovie is a diary entry ranked by average emotion intensity.
type TopEmotionalMovie struct {
	MovieID      int         `json:"id"`
	Title        string      `json:"title"`
	PosterPath   string      `json:"poster_path,omitempty"`
	WatchedDate  string      `json:"watched_date"`
	Type         EmotionType `json:"emotion_type"`
	AvgIntensity float64     `json:"avg_intensity"`
	EmotionCount int         `json:"emotion_count"`
}

// StreakStats describes the user's most recent run of consecutive watch days.
type StreakStats struct {
	CurrentStreak int    `json:"current_streak"`
	StreakStart   string `json:"streak_start,omitempty"`
	StreakEnd     string `json:"streak_end,omitempty"`
}
