package main

import (
	"net/http"
	"strconv"

	"rewatch/models"
)

func (a *App) handleStatsOverview(w http.ResponseWriter, r *http.Request) {
	stats, err := a.statsRepo.Overview(userIDFrom(r))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, stats)
}

func (a *App) handleStatsMonthly(w http.ResponseWriter, r *http.Request) {
	stats, err := a.statsRepo.Monthly(userIDFrom(r))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, stats)
}

func (a *App) handleStatsGenres(w http.ResponseWriter, r *http.Request) {
	stats, err := a.statsRepo.Genres(userIDFrom(r))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, stats)
}

func (a *App) handleEmotionTrends(w http.ResponseWriter, r *http.Request) {
	stats, err := a.statsRepo.EmotionTrends(userIDFrom(r))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, stats)
}

func (a *App) handleTopEmotional(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		limit = n
	}
	if t := q.Get("emotion_type"); t != "" && !models.IsValidEmotion(t) {
		a.respondError(w, http.StatusBadRequest, "unknown emotion type: "+t)
		return
	}

	stats, err := a.statsRepo.TopEmotional(userIDFrom(r), q.Get("emotion_type"), limit)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, stats)
}

func (a *App) handleStreak(w http.ResponseWriter, r *http.Request) {
	stats, err := a.statsRepo.Streak(userIDFrom(r))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, stats)
}
