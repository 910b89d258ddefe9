package main

import (
	"net/http"
	"strconv"
	"strings"

	"rewatch/services"

	"github.com/gorilla/mux"
)

func (a *App) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("query"))
	if query == "" {
		a.respondError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	page := 1
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		page = n
	}

	results, err := a.tmdb.SearchMovies(r.Context(), query, page, q.Get("language"))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, results)
}

func (a *App) handleDetails(w http.ResponseWriter, r *http.Request) {
	tmdbID, err := strconv.Atoi(mux.Vars(r)["tmdbId"])
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid TMDB ID")
		return
	}

	details, err := a.tmdb.GetDetails(r.Context(), tmdbID, r.URL.Query().Get("language"))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, details)
}

// handlePopular serves the recommendation feed. The type parameter selects
// the mode; the remaining parameters tune the gems filter.
func (a *App) handlePopular(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := services.Filters{Mode: q.Get("type")}
	if v, err := strconv.ParseFloat(q.Get("minRating"), 64); err == nil {
		f.MinRating = v
	}
	if v, err := strconv.Atoi(q.Get("minVoteCount")); err == nil {
		f.MinVoteCount = v
	}
	if v, err := strconv.Atoi(q.Get("maxVoteCount")); err == nil {
		f.MaxVoteCount = v
	}
	if v := q.Get("minReleaseDate"); v != "" {
		f.MinReleaseDate = v
	}
	if v := q.Get("excludeGenres"); v != "" {
		f.ExcludeGenres = strings.Split(v, ",")
	}
	if v, err := strconv.ParseBool(q.Get("requireLocalizedTitle")); err == nil {
		f.RequireLocalizedTitle = v
	}

	movies, err := a.recommender.Recommend(r.Context(), q.Get("language"), f)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	if movies == nil {
		movies = []services.CatalogMovie{}
	}
	a.respondJSON(w, http.StatusOK, movies)
}

func (a *App) handleSimilarToDiary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		limit = n
	}

	movies, err := a.recommender.SimilarToDiary(r.Context(), userIDFrom(r), q.Get("language"), limit)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	if movies == nil {
		movies = []services.CatalogMovie{}
	}
	a.respondJSON(w, http.StatusOK, movies)
}

// handleSimilarToMovie returns catalog recommendations seeded from one diary
// entry. Manually entered movies have no catalog presence to seed from.
func (a *App) handleSimilarToMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid movie ID")
		return
	}

	movie, err := a.movieRepo.GetByID(id, userIDFrom(r))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	if movie.TMDBID == 0 {
		a.respondJSON(w, http.StatusOK, []services.CatalogMovie{})
		return
	}

	page, err := a.tmdb.GetRecommendations(r.Context(), movie.TMDBID, r.URL.Query().Get("language"))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, page.Results)
}
