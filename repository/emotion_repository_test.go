package repository

import (
	"testing"

	"rewatch/database"
	"rewatch/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEmotionTest(t *testing.T) (*EmotionRepository, *MovieRepository, func()) {
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

	return NewEmotionRepository(testDB, logger), NewMovieRepository(testDB, logger), cleanup
}

func TestEmotionRepository_Add_DefaultIntensity(t *testing.T) {
	emotions, movies, cleanup := setupEmotionTest(t)
	defer cleanup()

	movie, err := createTestMovie(movies, "user-1", "The Matrix", 603)
	require.NoError(t, err)

	added, err := emotions.Add(movie.ID, "user-1", models.EmotionInput{Type: "nostalgic"})
	require.NoError(t, err)
	assert.Equal(t, models.EmotionNostalgic, added.Type)
	assert.Equal(t, models.DefaultIntensity, added.Intensity)
}

func TestEmotionRepository_Add_OtherUsersMovie(t *testing.T) {
	emotions, movies, cleanup := setupEmotionTest(t)
	defer cleanup()

	movie, err := createTestMovie(movies, "user-1", "The Matrix", 603)
	require.NoError(t, err)

	_, err = emotions.Add(movie.ID, "user-2", models.EmotionInput{Type: "happy"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmotionRepository_ReplaceForMovie_SwapsWholeSet(t *testing.T) {
	emotions, movies, cleanup := setupEmotionTest(t)
	defer cleanup()

	movie, err := createTestMovie(movies, "user-1", "The Matrix", 603)
	require.NoError(t, err)

	_, err = emotions.ReplaceForMovie(movie.ID, "user-1", []models.EmotionInput{
		{Type: "happy", Intensity: 7},
		{Type: "excited", Intensity: 9},
	})
	require.NoError(t, err)

	// Replacing with a different set leaves exactly that set, nothing merged
	replaced, err := emotions.ReplaceForMovie(movie.ID, "user-1", []models.EmotionInput{
		{Type: "melancholic", Intensity: 4},
	})
	require.NoError(t, err)
	require.Len(t, replaced, 1)
	assert.Equal(t, models.EmotionMelancholic, replaced[0].Type)

	stored, err := emotions.ListByMovie(movie.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.EmotionMelancholic, stored[0].Type)
	assert.Equal(t, 4, stored[0].Intensity)
}

func TestEmotionRepository_ReplaceForMovie_EmptyClears(t *testing.T) {
	emotions, movies, cleanup := setupEmotionTest(t)
	defer cleanup()

	movie, err := createTestMovie(movies, "user-1", "The Matrix", 603)
	require.NoError(t, err)

	_, err = emotions.ReplaceForMovie(movie.ID, "user-1", []models.EmotionInput{{Type: "tense"}})
	require.NoError(t, err)

	replaced, err := emotions.ReplaceForMovie(movie.ID, "user-1", nil)
	require.NoError(t, err)
	assert.Empty(t, replaced)

	stored, err := emotions.ListByMovie(movie.ID, "user-1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestEmotionRepository_ReplaceForMovie_OtherUser(t *testing.T) {
	emotions, movies, cleanup := setupEmotionTest(t)
	defer cleanup()

	movie, err := createTestMovie(movies, "user-1", "The Matrix", 603)
	require.NoError(t, err)

	_, err = emotions.ReplaceForMovie(movie.ID, "user-1", []models.EmotionInput{{Type: "happy"}})
	require.NoError(t, err)

	_, err = emotions.ReplaceForMovie(movie.ID, "user-2", []models.EmotionInput{{Type: "angry"}})
	assert.ErrorIs(t, err, ErrNotFound)

	// The owner's tags are untouched
	stored, err := emotions.ListByMovie(movie.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.EmotionHappy, stored[0].Type)
}

func TestEmotionRepository_Update_Success(t *testing.T) {
	emotions, movies, cleanup := setupEmotionTest(t)
	defer cleanup()

	movie, err := createTestMovie(movies, "user-1", "The Matrix", 603)
	require.NoError(t, err)

	added, err := emotions.Add(movie.ID, "user-1", models.EmotionInput{Type: "happy", Intensity: 3})
	require.NoError(t, err)

	err = emotions.Update(added.ID, "user-1", models.EmotionInput{Type: "thrilled", Intensity: 8, Description: "the lobby scene"})
	require.NoError(t, err)

	stored, err := emotions.ListByMovie(movie.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.EmotionThrilled, stored[0].Type)
	assert.Equal(t, 8, stored[0].Intensity)
	assert.Equal(t, "the lobby scene", stored[0].Description)
}

func TestEmotionRepository_Delete_OtherUser(t *testing.T) {
	emotions, movies, cleanup := setupEmotionTest(t)
	defer cleanup()

	movie, err := createTestMovie(movies, "user-1", "The Matrix", 603)
	require.NoError(t, err)

	added, err := emotions.Add(movie.ID, "user-1", models.EmotionInput{Type: "happy"})
	require.NoError(t, err)

	err = emotions.Delete(added.ID, "user-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmotionRepository_DeleteAllForMovie_ZeroIsNotAnError(t *testing.T) {
	emotions, movies, cleanup := setupEmotionTest(t)
	defer cleanup()

	movie, err := createTestMovie(movies, "user-1", "The Matrix", 603)
	require.NoError(t, err)

	deleted, err := emotions.DeleteAllForMovie(movie.ID, "user-1")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestEmotionRepository_ListAll_FiltersByType(t *testing.T) {
	emotions, movies, cleanup := setupEmotionTest(t)
	defer cleanup()

	matrix, err := createTestMovie(movies, "user-1", "The Matrix", 603)
	require.NoError(t, err)
	alien, err := createTestMovie(movies, "user-1", "Alien", 348)
	require.NoError(t, err)

	_, err = emotions.Add(matrix.ID, "user-1", models.EmotionInput{Type: "excited"})
	require.NoError(t, err)
	_, err = emotions.Add(alien.ID, "user-1", models.EmotionInput{Type: "scared", Intensity: 10})
	require.NoError(t, err)

	scared, err := emotions.ListAll("user-1", "scared", 0)
	require.NoError(t, err)
	require.Len(t, scared, 1)
	assert.Equal(t, "Alien", scared[0].MovieTitle)

	all, err := emotions.ListAll("user-1", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEmotionRepository_StatsOverview(t *testing.T) {
	emotions, movies, cleanup := setupEmotionTest(t)
	defer cleanup()

	matrix, err := createTestMovie(movies, "user-1", "The Matrix", 603)
	require.NoError(t, err)
	alien, err := createTestMovie(movies, "user-1", "Alien", 348)
	require.NoError(t, err)

	_, err = emotions.Add(matrix.ID, "user-1", models.EmotionInput{Type: "excited", Intensity: 6})
	require.NoError(t, err)
	_, err = emotions.Add(alien.ID, "user-1", models.EmotionInput{Type: "excited", Intensity: 10})
	require.NoError(t, err)

	stats, err := emotions.StatsOverview("user-1")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, models.EmotionExcited, stats[0].Type)
	assert.Equal(t, 2, stats[0].Count)
	assert.InDelta(t, 8.0, stats[0].AvgIntensity, 0.001)
}
