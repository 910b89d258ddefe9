package main

import (
	"net/http"
	"strconv"

	"rewatch/models"
	"rewatch/repository"

	"github.com/gorilla/mux"
)

func (a *App) handleListMovies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := repository.ListOptions{
		SortField: q.Get("sort"),
		SortOrder: q.Get("order"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		opts.Page = page
	}
	if size, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.PageSize = size
	}

	movies, err := a.movieRepo.List(userIDFrom(r), opts)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}

	a.localizer.ApplyAll(r.Context(), movies, q.Get("language"))
	a.respondJSON(w, http.StatusOK, movies)
}

func (a *App) handleGetMovie(w http.ResponseWriter, r *http.Request) {
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

	a.localizer.Apply(r.Context(), movie, r.URL.Query().Get("language"))
	a.respondJSON(w, http.StatusOK, movie)
}

func (a *App) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMovieRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.respondServiceError(w, err)
		return
	}

	movie := &models.Movie{
		UserID:       userIDFrom(r),
		TMDBID:       req.TMDBID,
		Title:        req.Title,
		Overview:     req.Overview,
		ReleaseDate:  req.ReleaseDate,
		PosterPath:   req.PosterPath,
		BackdropPath: req.BackdropPath,
		Genres:       req.Genres,
		Rating:       req.Rating,
		Runtime:      req.Runtime,
		WatchedDate:  req.WatchedDate,
		UserRating:   req.UserRating,
		Notes:        req.Notes,
	}
	if movie.Genres == nil {
		movie.Genres = []models.Genre{}
	}

	if err := a.movieRepo.Create(movie); err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, movie)
}

// handleUpdateMovie accepts only the user-owned fields. Catalog snapshot
// fields are fixed at creation.
func (a *App) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid movie ID")
		return
	}

	var upd models.MovieUpdate
	if err := decodeJSON(r, &upd); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(upd); err != nil {
		a.respondServiceError(w, err)
		return
	}

	userID := userIDFrom(r)
	if err := a.movieRepo.Update(id, userID, upd); err != nil {
		a.respondServiceError(w, err)
		return
	}

	movie, err := a.movieRepo.GetByID(id, userID)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, movie)
}

func (a *App) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid movie ID")
		return
	}

	if err := a.movieRepo.Delete(id, userIDFrom(r)); err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]string{"message": "Movie deleted successfully"})
}
