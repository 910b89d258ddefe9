package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rewatch/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiaryAPI struct {
	mu            sync.Mutex
	updates       []models.MovieUpdate
	replaces      [][]models.EmotionInput
	updateErr     error
	replaceErr    error
	version       int
	strictVersion bool
}

func (f *fakeDiaryAPI) UpdateMovie(ctx context.Context, id int, upd models.MovieUpdate) (*models.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.strictVersion && (upd.Version == nil || *upd.Version != f.version) {
		return nil, errors.New("version conflict")
	}
	f.updates = append(f.updates, upd)
	f.version++
	return &models.Movie{ID: id, Version: f.version}, nil
}

func (f *fakeDiaryAPI) ReplaceEmotions(ctx context.Context, movieID int, emotions []models.EmotionInput) ([]models.Emotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return nil, f.replaceErr
	}
	snapshot := make([]models.EmotionInput, len(emotions))
	copy(snapshot, emotions)
	f.replaces = append(f.replaces, snapshot)
	return nil, nil
}

func (f *fakeDiaryAPI) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func (f *fakeDiaryAPI) replaceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replaces)
}

func testMovie() *models.Movie {
	return &models.Movie{
		ID:          42,
		Title:       "The Matrix",
		WatchedDate: "2024-06-15",
		UserRating:  8,
		Notes:       "original notes",
		Version:     1,
	}
}

func TestEditSession_DebounceCollapsesRapidEdits(t *testing.T) {
	api := &fakeDiaryAPI{version: 1}
	session := NewEditSession(api, testMovie(), 30*time.Millisecond, zerolog.Nop())
	defer session.Close()

	// Five edits inside one debounce window produce one save
	session.SetNotes("a")
	session.SetNotes("ab")
	session.SetNotes("abc")
	session.SetRating(9)
	session.SetNotes("abcd")

	require.Eventually(t, func() bool { return api.updateCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, api.updateCount())

	api.mu.Lock()
	upd := api.updates[0]
	api.mu.Unlock()
	require.NotNil(t, upd.Notes)
	assert.Equal(t, "abcd", *upd.Notes)
	require.NotNil(t, upd.UserRating)
	assert.Equal(t, 9, *upd.UserRating)
	// Unchanged fields are omitted from the save
	assert.Nil(t, upd.WatchedDate)

	assert.False(t, session.Dirty())
}

func TestEditSession_ToggleEmotionSavesImmediately(t *testing.T) {
	api := &fakeDiaryAPI{version: 1}
	session := NewEditSession(api, testMovie(), time.Hour, zerolog.Nop())
	defer session.Close()

	session.ToggleEmotion("excited")

	// The debounce window is an hour; the save must not wait for it
	require.Eventually(t, func() bool { return api.replaceCount() == 1 }, time.Second, 5*time.Millisecond)

	api.mu.Lock()
	replaced := api.replaces[0]
	api.mu.Unlock()
	require.Len(t, replaced, 1)
	assert.Equal(t, "excited", replaced[0].Type)
	assert.Equal(t, models.DefaultIntensity, replaced[0].Intensity)
	// No entry fields changed, so no movie update goes out
	assert.Zero(t, api.updateCount())
}

func TestEditSession_ToggleEmotionOffRemoves(t *testing.T) {
	api := &fakeDiaryAPI{version: 1}
	movie := testMovie()
	movie.Emotions = []models.Emotion{{Type: models.EmotionExcited, Intensity: 5}}
	session := NewEditSession(api, movie, time.Hour, zerolog.Nop())
	defer session.Close()

	session.ToggleEmotion("excited")

	require.Eventually(t, func() bool { return api.replaceCount() == 1 }, time.Second, 5*time.Millisecond)
	api.mu.Lock()
	replaced := api.replaces[0]
	api.mu.Unlock()
	assert.Empty(t, replaced)
}

func TestEditSession_NoOpEditSkipsSave(t *testing.T) {
	api := &fakeDiaryAPI{version: 1}
	session := NewEditSession(api, testMovie(), 20*time.Millisecond, zerolog.Nop())
	defer session.Close()

	// Drift away and back inside the window
	session.SetNotes("changed")
	session.SetNotes("original notes")

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, api.updateCount())
	assert.False(t, session.Dirty())
}

func TestEditSession_FailedSaveStaysDirty(t *testing.T) {
	api := &fakeDiaryAPI{version: 1, updateErr: errors.New("server down")}
	session := NewEditSession(api, testMovie(), 20*time.Millisecond, zerolog.Nop())
	defer session.Close()

	session.SetNotes("unsaved")

	time.Sleep(100 * time.Millisecond)
	// The edit survives the failure and no retry fires on its own
	assert.True(t, session.Dirty())
	assert.Zero(t, api.updateCount())

	// The next edit schedules another attempt
	api.mu.Lock()
	api.updateErr = nil
	api.mu.Unlock()
	session.SetNotes("unsaved again")
	require.Eventually(t, func() bool { return api.updateCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, session.Dirty())
}

func TestEditSession_FlushSavesNow(t *testing.T) {
	api := &fakeDiaryAPI{version: 1}
	session := NewEditSession(api, testMovie(), time.Hour, zerolog.Nop())
	defer session.Close()

	session.SetNotes("flush me")
	require.NoError(t, session.Flush(context.Background()))
	assert.Equal(t, 1, api.updateCount())
	assert.False(t, session.Dirty())

	// A clean session flushes to nothing
	require.NoError(t, session.Flush(context.Background()))
	assert.Equal(t, 1, api.updateCount())
}

func TestEditSession_CloseDropsPendingEdits(t *testing.T) {
	api := &fakeDiaryAPI{version: 1}
	session := NewEditSession(api, testMovie(), 20*time.Millisecond, zerolog.Nop())

	session.SetNotes("never saved")
	session.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, api.updateCount())

	// Mutations after close are ignored
	session.SetNotes("still nothing")
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, api.updateCount())
}

func TestEditSession_RetryAfterPartialSaveFailure(t *testing.T) {
	api := &fakeDiaryAPI{version: 1, strictVersion: true, replaceErr: errors.New("server down")}
	session := NewEditSession(api, testMovie(), time.Hour, zerolog.Nop())
	defer session.Close()

	session.SetNotes("with feeling")
	session.ToggleEmotion("excited")

	// The field update lands and bumps the server version; the emotion
	// replace fails, leaving only the emotions dirty.
	require.Eventually(t, func() bool { return api.updateCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Error(t, session.Flush(context.Background()))
	assert.True(t, session.Dirty())

	api.mu.Lock()
	api.replaceErr = nil
	api.mu.Unlock()

	// The retry carries the bumped version, not the one it started with
	require.NoError(t, session.Flush(context.Background()))
	assert.False(t, session.Dirty())
	assert.Equal(t, 1, api.updateCount())
	require.Equal(t, 1, api.replaceCount())

	api.mu.Lock()
	replaced := api.replaces[0]
	api.mu.Unlock()
	require.Len(t, replaced, 1)
	assert.Equal(t, "excited", replaced[0].Type)
}

func TestEditSession_VersionFollowsSaves(t *testing.T) {
	api := &fakeDiaryAPI{version: 3}
	movie := testMovie()
	movie.Version = 3
	session := NewEditSession(api, movie, time.Hour, zerolog.Nop())
	defer session.Close()

	session.SetNotes("first")
	require.NoError(t, session.Flush(context.Background()))
	session.SetNotes("second")
	require.NoError(t, session.Flush(context.Background()))

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.updates, 2)
	require.NotNil(t, api.updates[0].Version)
	assert.Equal(t, 3, *api.updates[0].Version)
	// The second save carries the version returned by the first
	require.NotNil(t, api.updates[1].Version)
	assert.Equal(t, 4, *api.updates[1].Version)
}
