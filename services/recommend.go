package services

import (
	"context"
	"math/rand"
	"strings"

	"rewatch/config"
	"rewatch/models"

	"github.com/rs/zerolog"
)

// genreIDsByName maps catalog genre names to their well-known ids, used to
// translate the configured exclusion list into catalog query parameters and
// to post-filter results.
var genreIDsByName = map[string]int{
	"Action":          28,
	"Adventure":       12,
	"Animation":       16,
	"Comedy":          35,
	"Crime":           80,
	"Documentary":     99,
	"Drama":           18,
	"Family":          10751,
	"Fantasy":         14,
	"History":         36,
	"Horror":          27,
	"Music":           10402,
	"Mystery":         9648,
	"Romance":         10749,
	"Science Fiction": 878,
	"Thriller":        53,
	"War":             10752,
	"Western":         37,
}

// Filters selects and parameterizes one recommendation mode. Zero values
// fall back to the configured defaults.
type Filters struct {
	Mode                  string
	MinRating             float64
	MinVoteCount          int
	MaxVoteCount          int
	MinReleaseDate        string
	ExcludeGenres         []string
	RequireLocalizedTitle bool
}

// DiaryTopRated is the slice of the diary store the recommender needs for
// similar-movie seeding.
type DiaryTopRated interface {
	TopRated(userID string, limit int) ([]models.Movie, error)
}

// Recommender issues the canned catalog queries behind the recommendations
// feed: the popular feed, the weekly trending feed, or the "gems" discover
// query with strict post-filtering.
type Recommender struct {
	catalog  *TMDBService
	diary    DiaryTopRated
	defaults config.RecommendConfig
	logger   zerolog.Logger
}

// NewRecommender creates a new recommender.
func NewRecommender(catalog *TMDBService, diary DiaryTopRated, defaults config.RecommendConfig, logger zerolog.Logger) *Recommender {
	return &Recommender{catalog: catalog, diary: diary, defaults: defaults, logger: logger}
}

// Recommend returns up to the configured number of movies for the selected
// mode. The catalog's own filters are best-effort, so gems results are
// re-checked here before anything is returned.
func (r *Recommender) Recommend(ctx context.Context, lang string, f Filters) ([]CatalogMovie, error) {
	f = r.withDefaults(f)

	var page *MoviePage
	var err error

	switch f.Mode {
	case "gems":
		excludeIDs := genreIDs(f.ExcludeGenres)
		if f.RequireLocalizedTitle {
			// A movie without a localization in the requested language
			// cannot pass the title check, so ask for that language
			// outright.
			lang = NormalizeLanguage(lang)
		}
		page, err = r.catalog.Discover(ctx, DiscoverQuery{
			Language:        lang,
			Page:            rand.Intn(5) + 1, // random page for variety
			MinRating:       f.MinRating,
			MinVoteCount:    f.MinVoteCount,
			MaxVoteCount:    f.MaxVoteCount,
			MinReleaseDate:  f.MinReleaseDate,
			WithoutGenreIDs: excludeIDs,
		})
	case "trend":
		page, err = r.catalog.GetTrending(ctx, lang)
	default:
		page, err = r.catalog.GetPopular(ctx, lang, 1)
	}
	if err != nil {
		return nil, err
	}

	movies := page.Results
	if f.Mode == "gems" {
		before := len(movies)
		movies = filterGems(movies, f, lang)
		if removed := before - len(movies); removed > 0 {
			r.logger.Debug().Int("removed", removed).Msg("Dropped gems the catalog filter let through")
		}
	}

	if len(movies) > r.defaults.ResultCount {
		movies = movies[:r.defaults.ResultCount]
	}
	return movies, nil
}

// SimilarToDiary seeds catalog recommendations from the user's top-rated
// diary entries, deduplicated and excluding movies already in the diary.
// Returns nil when the diary has no rated catalog entries.
func (r *Recommender) SimilarToDiary(ctx context.Context, userID, lang string, limit int) ([]CatalogMovie, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	rated, err := r.diary.TopRated(userID, 10)
	if err != nil {
		return nil, err
	}
	if len(rated) == 0 {
		return nil, nil
	}

	seen := make(map[int]bool)
	for _, m := range rated {
		seen[m.TMDBID] = true
	}

	// Only the top few seeds; each costs a catalog round trip.
	seeds := rated
	if len(seeds) > 5 {
		seeds = seeds[:5]
	}

	var out []CatalogMovie
	for _, seed := range seeds {
		page, err := r.catalog.GetRecommendations(ctx, seed.TMDBID, lang)
		if err != nil {
			r.logger.Warn().Err(err).Int("tmdb_id", seed.TMDBID).Msg("Failed to fetch recommendations for seed")
			continue
		}
		for _, m := range page.Results {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			out = append(out, m)
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Recommender) withDefaults(f Filters) Filters {
	d := r.defaults
	if f.Mode == "" {
		f.Mode = d.Mode
	}
	if f.MinRating == 0 {
		f.MinRating = d.MinRating
	}
	if f.MinVoteCount == 0 {
		f.MinVoteCount = d.MinVoteCount
	}
	if f.MaxVoteCount == 0 {
		f.MaxVoteCount = d.MaxVoteCount
	}
	if f.MinReleaseDate == "" {
		f.MinReleaseDate = d.MinReleaseDate
	}
	if f.ExcludeGenres == nil {
		f.ExcludeGenres = d.ExcludeGenres
	}
	return f
}

func genreIDs(names []string) []int {
	var ids []int
	for _, name := range names {
		if id, ok := genreIDsByName[strings.TrimSpace(name)]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// filterGems re-applies the gems criteria the catalog was asked for. The
// catalog's filter parameters are not contractually exact, and the excluded
// genres in particular must not leak through.
func filterGems(movies []CatalogMovie, f Filters, lang string) []CatalogMovie {
	excludeIDs := genreIDs(f.ExcludeGenres)
	base := baseLanguage(lang)

	out := movies[:0]
	for _, m := range movies {
		if m.VoteAverage > 0 && m.VoteAverage < f.MinRating {
			continue
		}
		if m.VoteCount < f.MinVoteCount || m.VoteCount > f.MaxVoteCount {
			continue
		}
		if m.ReleaseDate != "" && m.ReleaseDate < f.MinReleaseDate {
			continue
		}
		if hasAnyGenre(m.GenreIDs, excludeIDs) {
			continue
		}
		if f.RequireLocalizedTitle {
			// A real localization exists when the movie is natively in the
			// requested language or the catalog returned a translated title.
			localized := m.OriginalLanguage == base ||
				(m.Title != "" && m.OriginalTitle != "" && m.Title != m.OriginalTitle)
			if !localized {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// hasAnyGenre reports whether ids and excluded intersect. Movies with no
// genre ids are kept; exclusion cannot be verified for them.
func hasAnyGenre(ids, excluded []int) bool {
	if len(excluded) == 0 || len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		for _, ex := range excluded {
			if id == ex {
				return true
			}
		}
	}
	return false
}

func baseLanguage(tag string) string {
	norm := NormalizeLanguage(tag)
	if i := strings.IndexByte(norm, '-'); i > 0 {
		return norm[:i]
	}
	return norm
}
