package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rewatch/config"
	"rewatch/models"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"
)

// CatalogMovie is a movie as it appears in catalog list responses.
type CatalogMovie struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	OriginalTitleEN  string  `json:"original_title_en,omitempty"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	GenreIDs         []int   `json:"genre_ids"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
}

// MoviePage is one page of catalog list results.
type MoviePage struct {
	Page         int            `json:"page"`
	Results      []CatalogMovie `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// CrewMember represents a crew member in a movie's credits.
type CrewMember struct {
	Job  string `json:"job"`
	Name string `json:"name"`
}

// MovieDetails is a full catalog record for one movie.
type MovieDetails struct {
	ID               int            `json:"id"`
	Title            string         `json:"title"`
	OriginalTitle    string         `json:"original_title"`
	OriginalLanguage string         `json:"original_language"`
	Overview         string         `json:"overview"`
	ReleaseDate      string         `json:"release_date"`
	PosterPath       string         `json:"poster_path"`
	BackdropPath     string         `json:"backdrop_path"`
	Runtime          int            `json:"runtime"`
	Genres           []models.Genre `json:"genres"`
	VoteAverage      float64        `json:"vote_average"`
	VoteCount        int            `json:"vote_count"`
	Director         string         `json:"director,omitempty"`
	Crew             []CrewMember   `json:"crew,omitempty"`
}

type creditsResponse struct {
	Crew []CrewMember `json:"crew"`
}

// TMDBService handles interactions with The Movie Database API. Outbound
// calls are rate limited and pass through a circuit breaker so a slow or
// failing catalog degrades reads instead of stalling them.
type TMDBService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  zerolog.Logger
}

// NewTMDBService creates a new TMDB service instance.
func NewTMDBService(cfg config.TMDBConfig, logger zerolog.Logger) *TMDBService {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Catalog circuit breaker state change")
		},
	})

	return &TMDBService{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker,
		logger:  logger,
	}
}

// NormalizeLanguage canonicalizes a caller-supplied language tag, defaulting
// to en-US when the tag is empty or unparseable.
func NormalizeLanguage(tag string) string {
	if tag == "" {
		return "en-US"
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "en-US"
	}
	return t.String()
}

// IsEnglish reports whether the tag's base language is English.
func IsEnglish(tag string) bool {
	t, err := language.Parse(tag)
	if err != nil {
		return false
	}
	base, _ := t.Base()
	return base.String() == "en"
}

// get performs one catalog request through the limiter and breaker.
func (t *TMDBService) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", t.apiKey)
	requestURL := fmt.Sprintf("%s/%s?%s", t.baseURL, endpoint, params.Encode())

	body, err := t.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := t.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				t.logger.Warn().Err(err).Msg("Failed to close response body")
			}
		}()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%s: %w", endpoint, ErrUnavailable)
		}
		return nil, fmt.Errorf("%s: %v: %w", endpoint, err, ErrUpstream)
	}

	return body, nil
}

// SearchMovies searches the catalog. For non-English requests the English
// original title is copied onto each result so clients can show it alongside
// the localized one.
func (t *TMDBService) SearchMovies(ctx context.Context, query string, page int, lang string) (*MoviePage, error) {
	if page < 1 {
		page = 1
	}
	lang = NormalizeLanguage(lang)

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("language", lang)

	body, err := t.get(ctx, "search/movie", params)
	if err != nil {
		return nil, err
	}

	var result MoviePage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if !IsEnglish(lang) {
		for i := range result.Results {
			m := &result.Results[i]
			if m.OriginalLanguage == "en" && m.Title != m.OriginalTitle {
				m.OriginalTitleEN = m.OriginalTitle
			}
		}
	}

	return &result, nil
}

// GetMovie fetches the catalog record for one movie in the given language,
// without credits. This is the call the localizer rides on.
func (t *TMDBService) GetMovie(ctx context.Context, tmdbID int, lang string) (*MovieDetails, error) {
	params := url.Values{}
	params.Set("language", NormalizeLanguage(lang))

	body, err := t.get(ctx, fmt.Sprintf("movie/%d", tmdbID), params)
	if err != nil {
		return nil, err
	}

	var details MovieDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("failed to decode movie details: %w", err)
	}
	return &details, nil
}

// GetDetails fetches full details plus credits, extracting the director.
// Missing credits are tolerated; the details still come back.
func (t *TMDBService) GetDetails(ctx context.Context, tmdbID int, lang string) (*MovieDetails, error) {
	details, err := t.GetMovie(ctx, tmdbID, lang)
	if err != nil {
		return nil, err
	}

	body, err := t.get(ctx, fmt.Sprintf("movie/%d/credits", tmdbID), nil)
	if err != nil {
		t.logger.Warn().Err(err).Int("tmdb_id", tmdbID).Msg("Failed to fetch credits")
		return details, nil
	}

	var credits creditsResponse
	if err := json.Unmarshal(body, &credits); err != nil {
		t.logger.Warn().Err(err).Int("tmdb_id", tmdbID).Msg("Failed to decode credits")
		return details, nil
	}

	details.Crew = credits.Crew
	for _, crew := range credits.Crew {
		if crew.Job == "Director" {
			details.Director = crew.Name
			break
		}
	}

	return details, nil
}

// GetRecommendations fetches the catalog's recommendations for one movie.
func (t *TMDBService) GetRecommendations(ctx context.Context, tmdbID int, lang string) (*MoviePage, error) {
	params := url.Values{}
	params.Set("language", NormalizeLanguage(lang))
	params.Set("page", "1")

	body, err := t.get(ctx, fmt.Sprintf("movie/%d/recommendations", tmdbID), params)
	if err != nil {
		return nil, err
	}

	var result MoviePage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode recommendations: %w", err)
	}
	return &result, nil
}

// GetTrending fetches this week's trending movies.
func (t *TMDBService) GetTrending(ctx context.Context, lang string) (*MoviePage, error) {
	params := url.Values{}
	params.Set("language", NormalizeLanguage(lang))

	body, err := t.get(ctx, "trending/movie/week", params)
	if err != nil {
		return nil, err
	}

	var result MoviePage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode trending response: %w", err)
	}
	return &result, nil
}

// GetPopular fetches the catalog's popular-movies feed.
func (t *TMDBService) GetPopular(ctx context.Context, lang string, page int) (*MoviePage, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("language", NormalizeLanguage(lang))
	params.Set("page", strconv.Itoa(page))

	body, err := t.get(ctx, "movie/popular", params)
	if err != nil {
		return nil, err
	}

	var result MoviePage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode popular response: %w", err)
	}
	return &result, nil
}

// DiscoverQuery holds the filter parameters for a discover call.
type DiscoverQuery struct {
	Language        string
	Page            int
	MinRating       float64
	MinVoteCount    int
	MaxVoteCount    int
	MinReleaseDate  string
	WithoutGenreIDs []int
}

// Discover runs a filtered discovery query, sorted by rating. The catalog's
// filters are best-effort; callers re-check the results themselves.
func (t *TMDBService) Discover(ctx context.Context, q DiscoverQuery) (*MoviePage, error) {
	if q.Page < 1 {
		q.Page = 1
	}

	params := url.Values{}
	params.Set("language", NormalizeLanguage(q.Language))
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("sort_by", "vote_average.desc")
	params.Set("vote_average.gte", strconv.FormatFloat(q.MinRating, 'f', -1, 64))
	params.Set("vote_count.gte", strconv.Itoa(q.MinVoteCount))
	params.Set("vote_count.lte", strconv.Itoa(q.MaxVoteCount))
	if q.MinReleaseDate != "" {
		params.Set("release_date.gte", q.MinReleaseDate)
	}
	if len(q.WithoutGenreIDs) > 0 {
		ids := make([]string, len(q.WithoutGenreIDs))
		for i, id := range q.WithoutGenreIDs {
			ids[i] = strconv.Itoa(id)
		}
		params.Set("without_genres", strings.Join(ids, ","))
	}

	body, err := t.get(ctx, "discover/movie", params)
	if err != nil {
		return nil, err
	}

	var result MoviePage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode discover response: %w", err)
	}
	return &result, nil
}
