package repository

import (
	"testing"
	"time"

	"rewatch/database"
	"rewatch/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStatsTest(t *testing.T) (*StatsRepository, *MovieRepository, *EmotionRepository, func()) {
	testDB, err := database.NewDB(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	logger := zerolog.Nop()
	if err := testDB.InitSchema(logger); err != nil {
		t.Fatalf("Failed to initialize test schema: %v", err)
	}

	cleanup := func() {
		if err := testDB.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	}

	return NewStatsRepository(testDB, logger), NewMovieRepository(testDB, logger), NewEmotionRepository(testDB, logger), cleanup
}

func addDiaryEntry(t *testing.T, movies *MovieRepository, userID, title, watched string, rating int, genres []models.Genre) *models.Movie {
	t.Helper()
	movie := &models.Movie{
		UserID:      userID,
		Title:       title,
		Genres:      genres,
		WatchedDate: watched,
		UserRating:  rating,
	}
	require.NoError(t, movies.Create(movie))
	return movie
}

func TestStatsRepository_Overview(t *testing.T) {
	stats, movies, emotions, cleanup := setupStatsTest(t)
	defer cleanup()

	a := addDiaryEntry(t, movies, "user-1", "The Matrix", "2024-06-15", 9, nil)
	addDiaryEntry(t, movies, "user-1", "Alien", "2024-06-16", 7, nil)
	addDiaryEntry(t, movies, "user-2", "Heat", "2024-06-15", 8, nil)

	_, err := emotions.Add(a.ID, "user-1", models.EmotionInput{Type: "excited", Intensity: 8})
	require.NoError(t, err)

	overview, err := stats.Overview("user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, overview.Movies.TotalMovies)
	assert.InDelta(t, 8.0, overview.Movies.AvgUserRating, 0.001)
	assert.Equal(t, 2, overview.Movies.UniqueWatchDays)
	assert.Equal(t, "2024-06-15", overview.Movies.FirstWatch)
	assert.Equal(t, "2024-06-16", overview.Movies.LastWatch)
	assert.Equal(t, 1, overview.Emotions.TotalEmotions)
	assert.Equal(t, 1, overview.Emotions.UniqueEmotions)
}

func TestStatsRepository_Overview_EmptyDiary(t *testing.T) {
	stats, _, _, cleanup := setupStatsTest(t)
	defer cleanup()

	overview, err := stats.Overview("user-1")
	require.NoError(t, err)
	assert.Zero(t, overview.Movies.TotalMovies)
	assert.Zero(t, overview.Emotions.TotalEmotions)
}

func TestStatsRepository_Monthly(t *testing.T) {
	stats, movies, _, cleanup := setupStatsTest(t)
	defer cleanup()

	addDiaryEntry(t, movies, "user-1", "The Matrix", "2024-06-15", 9, nil)
	addDiaryEntry(t, movies, "user-1", "Alien", "2024-06-20", 7, nil)
	addDiaryEntry(t, movies, "user-1", "Heat", "2024-05-01", 8, nil)

	monthly, err := stats.Monthly("user-1")
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	// Most recent month first
	assert.Equal(t, "2024-06", monthly[0].Month)
	assert.Equal(t, 2, monthly[0].MoviesWatched)
	assert.InDelta(t, 8.0, monthly[0].AvgRating, 0.001)
	assert.Equal(t, "2024-05", monthly[1].Month)
}

func TestStatsRepository_Genres(t *testing.T) {
	stats, movies, _, cleanup := setupStatsTest(t)
	defer cleanup()

	action := []models.Genre{{ID: 28, Name: "Action"}}
	both := []models.Genre{{ID: 28, Name: "Action"}, {ID: 27, Name: "Horror"}}
	addDiaryEntry(t, movies, "user-1", "The Matrix", "2024-06-15", 9, action)
	addDiaryEntry(t, movies, "user-1", "Alien", "2024-06-16", 7, both)
	addDiaryEntry(t, movies, "user-1", "Home Video", "2024-06-17", 5, nil)

	genres, err := stats.Genres("user-1")
	require.NoError(t, err)
	require.Len(t, genres, 2)
	assert.Equal(t, "Action", genres[0].GenreName)
	assert.Equal(t, 2, genres[0].Count)
	assert.Equal(t, "Horror", genres[1].GenreName)
	assert.Equal(t, 1, genres[1].Count)
}

func TestStatsRepository_TopEmotional(t *testing.T) {
	stats, movies, emotions, cleanup := setupStatsTest(t)
	defer cleanup()

	matrix := addDiaryEntry(t, movies, "user-1", "The Matrix", "2024-06-15", 9, nil)
	alien := addDiaryEntry(t, movies, "user-1", "Alien", "2024-06-16", 7, nil)

	_, err := emotions.Add(matrix.ID, "user-1", models.EmotionInput{Type: "excited", Intensity: 6})
	require.NoError(t, err)
	_, err = emotions.Add(alien.ID, "user-1", models.EmotionInput{Type: "scared", Intensity: 10})
	require.NoError(t, err)

	top, err := stats.TopEmotional("user-1", "", 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Alien", top[0].Title)

	scared, err := stats.TopEmotional("user-1", "scared", 0)
	require.NoError(t, err)
	require.Len(t, scared, 1)
	assert.Equal(t, "Alien", scared[0].Title)
}

func TestStatsRepository_Streak(t *testing.T) {
	stats, movies, _, cleanup := setupStatsTest(t)
	defer cleanup()

	today := time.Now()
	day := func(offset int) string { return today.AddDate(0, 0, offset).Format("2006-01-02") }

	addDiaryEntry(t, movies, "user-1", "Day 0", day(0), 7, nil)
	addDiaryEntry(t, movies, "user-1", "Day -1", day(-1), 7, nil)
	addDiaryEntry(t, movies, "user-1", "Day -2", day(-2), 7, nil)
	// Gap, then an older watch that must not count
	addDiaryEntry(t, movies, "user-1", "Day -5", day(-5), 7, nil)

	streak, err := stats.Streak("user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, streak.CurrentStreak)
	assert.Equal(t, day(-2), streak.StreakStart)
	assert.Equal(t, day(0), streak.StreakEnd)
}

func TestStatsRepository_Streak_EmptyDiary(t *testing.T) {
	stats, _, _, cleanup := setupStatsTest(t)
	defer cleanup()

	streak, err := stats.Streak("user-1")
	require.NoError(t, err)
	assert.Zero(t, streak.CurrentStreak)
}
