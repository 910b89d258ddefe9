package main

import (
	"net/http"
	"strconv"

	"rewatch/models"

	"github.com/gorilla/mux"
)

func (a *App) handleAddEmotion(w http.ResponseWriter, r *http.Request) {
	var req models.AddEmotionRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.respondServiceError(w, err)
		return
	}
	if !models.IsValidEmotion(req.Type) {
		a.respondError(w, http.StatusBadRequest, "unknown emotion type: "+req.Type)
		return
	}

	emotion, err := a.emotionRepo.Add(req.MovieID, userIDFrom(r), models.EmotionInput{
		Type:        req.Type,
		Intensity:   req.Intensity,
		Description: req.Description,
	})
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, emotion)
}

func (a *App) handleListEmotions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		limit = n
	}
	if t := q.Get("emotion_type"); t != "" && !models.IsValidEmotion(t) {
		a.respondError(w, http.StatusBadRequest, "unknown emotion type: "+t)
		return
	}

	emotions, err := a.emotionRepo.ListAll(userIDFrom(r), q.Get("emotion_type"), limit)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, emotions)
}

func (a *App) handleMovieEmotions(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.Atoi(mux.Vars(r)["movieId"])
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid movie ID")
		return
	}

	emotions, err := a.emotionRepo.ListByMovie(movieID, userIDFrom(r))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, emotions)
}

// handleReplaceEmotions swaps the movie's whole tag set in one transaction.
// An empty list clears it.
func (a *App) handleReplaceEmotions(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.Atoi(mux.Vars(r)["movieId"])
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid movie ID")
		return
	}

	var req models.ReplaceEmotionsRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.respondServiceError(w, err)
		return
	}
	for _, e := range req.Emotions {
		if !models.IsValidEmotion(e.Type) {
			a.respondError(w, http.StatusBadRequest, "unknown emotion type: "+e.Type)
			return
		}
	}

	emotions, err := a.emotionRepo.ReplaceForMovie(movieID, userIDFrom(r), req.Emotions)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, emotions)
}

func (a *App) handleDeleteMovieEmotions(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.Atoi(mux.Vars(r)["movieId"])
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid movie ID")
		return
	}

	deleted, err := a.emotionRepo.DeleteAllForMovie(movieID, userIDFrom(r))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (a *App) handleUpdateEmotion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid emotion ID")
		return
	}

	var in models.EmotionInput
	if err := decodeJSON(r, &in); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(in); err != nil {
		a.respondServiceError(w, err)
		return
	}
	if !models.IsValidEmotion(in.Type) {
		a.respondError(w, http.StatusBadRequest, "unknown emotion type: "+in.Type)
		return
	}

	if err := a.emotionRepo.Update(id, userIDFrom(r), in); err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]string{"message": "Emotion updated successfully"})
}

func (a *App) handleDeleteEmotion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid emotion ID")
		return
	}

	if err := a.emotionRepo.Delete(id, userIDFrom(r)); err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]string{"message": "Emotion deleted successfully"})
}

func (a *App) handleEmotionOverview(w http.ResponseWriter, r *http.Request) {
	stats, err := a.emotionRepo.StatsOverview(userIDFrom(r))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, stats)
}
