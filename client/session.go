package client

import (
	"context"
	"sync"
	"time"

	"rewatch/models"

	"github.com/rs/zerolog"
)

// DefaultDebounce is how long an edit session waits after the last field
// change before saving.
const DefaultDebounce = 3 * time.Second

// diaryAPI is the slice of Client an edit session needs.
type diaryAPI interface {
	UpdateMovie(ctx context.Context, id int, upd models.MovieUpdate) (*models.Movie, error)
	ReplaceEmotions(ctx context.Context, movieID int, emotions []models.EmotionInput) ([]models.Emotion, error)
}

// FormState is the editable slice of a diary entry.
type FormState struct {
	UserRating  int
	Notes       string
	WatchedDate string
	Emotions    []models.EmotionInput
}

func (f FormState) equal(other FormState) bool {
	if f.UserRating != other.UserRating || f.Notes != other.Notes || f.WatchedDate != other.WatchedDate {
		return false
	}
	if len(f.Emotions) != len(other.Emotions) {
		return false
	}
	for i := range f.Emotions {
		if f.Emotions[i] != other.Emotions[i] {
			return false
		}
	}
	return true
}

func (f FormState) clone() FormState {
	out := f
	out.Emotions = make([]models.EmotionInput, len(f.Emotions))
	copy(out.Emotions, f.Emotions)
	return out
}

// EditSession tracks edits against one diary entry and auto-saves them.
// Field changes are debounced; emotion toggles save immediately. A save
// writes only what drifted from the last saved state, so rapid edits
// collapse into one request. A failed save leaves the session dirty; the
// next change schedules another attempt.
type EditSession struct {
	api      diaryAPI
	movieID  int
	debounce time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	state    FormState
	baseline FormState
	version  int
	timer    *time.Timer
	closed   bool

	// saveMu serializes saves so at most one request chain is in flight.
	saveMu sync.Mutex
}

// NewEditSession starts a session seeded from the entry's current state.
// A debounce of 0 uses the default.
func NewEditSession(api diaryAPI, movie *models.Movie, debounce time.Duration, logger zerolog.Logger) *EditSession {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	seed := FormState{
		UserRating:  movie.UserRating,
		Notes:       movie.Notes,
		WatchedDate: movie.WatchedDate,
	}
	for _, e := range movie.Emotions {
		seed.Emotions = append(seed.Emotions, models.EmotionInput{
			Type:        string(e.Type),
			Intensity:   e.Intensity,
			Description: e.Description,
		})
	}
	return &EditSession{
		api:      api,
		movieID:  movie.ID,
		debounce: debounce,
		logger:   logger,
		state:    seed,
		baseline: seed.clone(),
		version:  movie.Version,
	}
}

// SetRating records a rating change and restarts the save timer.
func (s *EditSession) SetRating(rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state.UserRating = rating
	s.scheduleLocked()
}

// SetNotes records a notes change and restarts the save timer.
func (s *EditSession) SetNotes(notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state.Notes = notes
	s.scheduleLocked()
}

// SetWatchedDate records a watched-date change and restarts the save timer.
func (s *EditSession) SetWatchedDate(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state.WatchedDate = date
	s.scheduleLocked()
}

// ToggleEmotion adds the emotion if absent and removes it if present, then
// saves without waiting for the debounce window.
func (s *EditSession) ToggleEmotion(emotionType string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	found := false
	kept := s.state.Emotions[:0]
	for _, e := range s.state.Emotions {
		if e.Type == emotionType {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if found {
		s.state.Emotions = kept
	} else {
		s.state.Emotions = append(s.state.Emotions, models.EmotionInput{
			Type:      emotionType,
			Intensity: models.DefaultIntensity,
		})
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	go s.saveAsync()
}

// Dirty reports whether there are unsaved edits.
func (s *EditSession) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.state.equal(s.baseline)
}

// Flush saves any unsaved edits now, waiting for an in-flight save first.
func (s *EditSession) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return s.save(ctx)
}

// Close stops the session. Pending edits are dropped and the outcome of any
// in-flight save is discarded.
func (s *EditSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// scheduleLocked restarts the debounce timer. Callers hold mu.
func (s *EditSession) scheduleLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.saveAsync)
}

func (s *EditSession) saveAsync() {
	if err := s.save(context.Background()); err != nil {
		s.logger.Warn().Err(err).Int("movie_id", s.movieID).Msg("Failed to auto-save diary entry")
	}
}

// save pushes the drift between state and baseline: the entry fields first,
// then the emotion set. Each step commits its slice of the baseline as soon
// as it succeeds, so a failure partway through keeps the session's version
// current and only the unsaved drift stays dirty.
func (s *EditSession) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.state.clone()
	baseline := s.baseline
	version := s.version
	s.mu.Unlock()

	if snapshot.equal(baseline) {
		return nil
	}

	if snapshot.UserRating != baseline.UserRating ||
		snapshot.Notes != baseline.Notes ||
		snapshot.WatchedDate != baseline.WatchedDate {
		upd := models.MovieUpdate{Version: &version}
		if snapshot.UserRating != baseline.UserRating {
			upd.UserRating = &snapshot.UserRating
		}
		if snapshot.Notes != baseline.Notes {
			upd.Notes = &snapshot.Notes
		}
		if snapshot.WatchedDate != baseline.WatchedDate {
			upd.WatchedDate = &snapshot.WatchedDate
		}
		movie, err := s.api.UpdateMovie(ctx, s.movieID, upd)
		if err != nil {
			return err
		}
		s.mu.Lock()
		if !s.closed {
			s.version = movie.Version
			s.baseline.UserRating = snapshot.UserRating
			s.baseline.Notes = snapshot.Notes
			s.baseline.WatchedDate = snapshot.WatchedDate
		}
		s.mu.Unlock()
	}

	if !emotionsEqual(snapshot.Emotions, baseline.Emotions) {
		if _, err := s.api.ReplaceEmotions(ctx, s.movieID, snapshot.Emotions); err != nil {
			return err
		}
		s.mu.Lock()
		if !s.closed {
			s.baseline.Emotions = append([]models.EmotionInput(nil), snapshot.Emotions...)
		}
		s.mu.Unlock()
	}
	return nil
}

func emotionsEqual(a, b []models.EmotionInput) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
