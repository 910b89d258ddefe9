package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rewatch/config"
	"rewatch/database"
	"rewatch/repository"
	"rewatch/services"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// App holds the application dependencies.
type App struct {
	config      *config.Config
	logger      zerolog.Logger
	validate    *validator.Validate
	limiter     *rateLimiter
	movieRepo   *repository.MovieRepository
	emotionRepo *repository.EmotionRepository
	statsRepo   *repository.StatsRepository
	tmdb        *services.TMDBService
	localizer   *services.Localizer
	recommender *services.Recommender
}

// NewApp wires repositories and services together.
func NewApp(cfg *config.Config, db *database.DB, logger zerolog.Logger) *App {
	movieRepo := repository.NewMovieRepository(db, logger)
	tmdb := services.NewTMDBService(cfg.TMDB, logger)
	return &App{
		config:      cfg,
		logger:      logger,
		validate:    validator.New(),
		limiter:     newRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
		movieRepo:   movieRepo,
		emotionRepo: repository.NewEmotionRepository(db, logger),
		statsRepo:   repository.NewStatsRepository(db, logger),
		tmdb:        tmdb,
		localizer:   services.NewLocalizer(tmdb, cfg.Localize.TitleTTL, logger),
		recommender: services.NewRecommender(tmdb, movieRepo, cfg.Recommend, logger),
	}
}

func (a *App) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware(a.config.Server.AllowedOrigins))
	r.Use(a.userIDMiddleware)
	r.Use(a.loggingMiddleware)
	r.Use(a.rateLimitMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	// Catalog.
	api.HandleFunc("/movies/popular", a.handlePopular).Methods("GET")
	api.HandleFunc("/movies/search", a.handleSearch).Methods("GET")
	api.HandleFunc("/movies/recommendations/similar", a.handleSimilarToDiary).Methods("GET")
	api.HandleFunc("/movies/details/{tmdbId:[0-9]+}", a.handleDetails).Methods("GET")

	// Diary.
	api.HandleFunc("/movies", a.handleListMovies).Methods("GET")
	api.HandleFunc("/movies", a.handleCreateMovie).Methods("POST")
	api.HandleFunc("/movies/{id:[0-9]+}", a.handleGetMovie).Methods("GET")
	api.HandleFunc("/movies/{id:[0-9]+}", a.handleUpdateMovie).Methods("PUT")
	api.HandleFunc("/movies/{id:[0-9]+}", a.handleDeleteMovie).Methods("DELETE")
	api.HandleFunc("/movies/{id:[0-9]+}/similar", a.handleSimilarToMovie).Methods("GET")

	// Emotion tags.
	api.HandleFunc("/emotions", a.handleListEmotions).Methods("GET")
	api.HandleFunc("/emotions", a.handleAddEmotion).Methods("POST")
	api.HandleFunc("/emotions/stats/overview", a.handleEmotionOverview).Methods("GET")
	api.HandleFunc("/emotions/movie/{movieId:[0-9]+}", a.handleMovieEmotions).Methods("GET")
	api.HandleFunc("/emotions/movie/{movieId:[0-9]+}", a.handleReplaceEmotions).Methods("PUT")
	api.HandleFunc("/emotions/movie/{movieId:[0-9]+}", a.handleDeleteMovieEmotions).Methods("DELETE")
	api.HandleFunc("/emotions/{id:[0-9]+}", a.handleUpdateEmotion).Methods("PUT")
	api.HandleFunc("/emotions/{id:[0-9]+}", a.handleDeleteEmotion).Methods("DELETE")

	// Stats.
	api.HandleFunc("/stats/overview", a.handleStatsOverview).Methods("GET")
	api.HandleFunc("/stats/monthly", a.handleStatsMonthly).Methods("GET")
	api.HandleFunc("/stats/genres", a.handleStatsGenres).Methods("GET")
	api.HandleFunc("/stats/emotion-trends", a.handleEmotionTrends).Methods("GET")
	api.HandleFunc("/stats/top-emotional", a.handleTopEmotional).Methods("GET")
	api.HandleFunc("/stats/streak", a.handleStreak).Methods("GET")

	return r
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func main() {
	// Load .env file if it exists
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger := newLogger(cfg.LogLevel)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.InitSchema(logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database schema")
	}

	app := NewApp(cfg, db, logger)
	defer app.localizer.Stop()
	defer app.limiter.stop()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      app.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to shut down cleanly")
	}
}
