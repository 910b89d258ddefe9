package main

import (
	"errors"
	"net/http"

	"rewatch/repository"
	"rewatch/services"

	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (a *App) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (a *App) respondError(w http.ResponseWriter, status int, message string) {
	a.respondJSON(w, status, errorResponse{Error: message})
}

// respondServiceError maps domain errors onto HTTP statuses. Not-found covers
// both missing rows and rows owned by another user.
func (a *App) respondServiceError(w http.ResponseWriter, err error) {
	var verr validator.ValidationErrors
	switch {
	case errors.Is(err, repository.ErrNotFound):
		a.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrConflict):
		a.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnavailable):
		a.respondError(w, http.StatusServiceUnavailable, "catalog temporarily unavailable")
	case errors.Is(err, services.ErrUpstream):
		a.respondError(w, http.StatusBadGateway, "catalog request failed")
	case errors.As(err, &verr):
		a.respondError(w, http.StatusBadRequest, verr.Error())
	default:
		a.logger.Error().Err(err).Msg("Unhandled request error")
		a.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
