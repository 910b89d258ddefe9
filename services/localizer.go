package services

import (
	"context"
	"sync"
	"time"

	"rewatch/models"

	"github.com/rs/zerolog"
)

// TitleSource is the slice of the catalog the localizer needs.
type TitleSource interface {
	GetMovie(ctx context.Context, tmdbID int, lang string) (*MovieDetails, error)
}

type titleKey struct {
	tmdbID int
	lang   string
}

type titleEntry struct {
	title            string
	originalTitle    string
	originalLanguage string
	expires          time.Time
}

// Localizer overlays catalog-sourced localized titles onto stored diary
// entries. The stored snapshot is never mutated in the database; the overlay
// happens per read. Lookups are cached per (movie, language) with a TTL, so
// "always current" becomes "current within TTL".
type Localizer struct {
	source TitleSource
	ttl    time.Duration
	logger zerolog.Logger

	mu      sync.RWMutex
	entries map[titleKey]titleEntry

	done     chan struct{}
	stopOnce sync.Once
}

// NewLocalizer creates a localizer and starts its cache janitor.
func NewLocalizer(source TitleSource, ttl time.Duration, logger zerolog.Logger) *Localizer {
	l := &Localizer{
		source:  source,
		ttl:     ttl,
		logger:  logger,
		entries: make(map[titleKey]titleEntry),
		done:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Apply overlays the localized title onto one diary entry. Manual entries
// (no catalog id) pass through untouched. Catalog failures are soft: the
// stored snapshot's title stands, because localization is a display
// enhancement, not a correctness requirement.
func (l *Localizer) Apply(ctx context.Context, movie *models.Movie, lang string) {
	if movie.TMDBID == 0 {
		return
	}
	lang = NormalizeLanguage(lang)

	entry, ok := l.lookup(movie.TMDBID, lang)
	if !ok {
		details, err := l.source.GetMovie(ctx, movie.TMDBID, lang)
		if err != nil {
			l.logger.Debug().Err(err).Int("tmdb_id", movie.TMDBID).Str("language", lang).
				Msg("Falling back to stored title")
			return
		}
		entry = titleEntry{
			title:            details.Title,
			originalTitle:    details.OriginalTitle,
			originalLanguage: details.OriginalLanguage,
			expires:          time.Now().Add(l.ttl),
		}
		l.store(movie.TMDBID, lang, entry)
	}

	movie.Title = entry.title
	if !IsEnglish(lang) && entry.originalLanguage == "en" && entry.title != entry.originalTitle {
		movie.OriginalTitleEN = entry.originalTitle
	}
}

// ApplyAll overlays localized titles onto a list of diary entries.
func (l *Localizer) ApplyAll(ctx context.Context, movies []models.Movie, lang string) {
	for i := range movies {
		l.Apply(ctx, &movies[i], lang)
	}
}

// Stop shuts down the cache janitor.
func (l *Localizer) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

func (l *Localizer) lookup(tmdbID int, lang string) (titleEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.entries[titleKey{tmdbID, lang}]
	if !ok || time.Now().After(entry.expires) {
		return titleEntry{}, false
	}
	return entry, true
}

func (l *Localizer) store(tmdbID int, lang string, entry titleEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[titleKey{tmdbID, lang}] = entry
}

// cleanup prunes expired entries periodically.
func (l *Localizer) cleanup() {
	interval := l.ttl
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			now := time.Now()
			l.mu.Lock()
			for key, entry := range l.entries {
				if now.After(entry.expires) {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
