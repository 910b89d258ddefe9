package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"rewatch/config"
	"rewatch/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRecommendDefaults = config.RecommendConfig{
	Mode:           "popular",
	MinRating:      7.2,
	MinVoteCount:   500,
	MaxVoteCount:   5000,
	MinReleaseDate: "2010-01-01",
	ExcludeGenres:  []string{"Animation", "Music", "Documentary"},
	ResultCount:    12,
}

type fakeDiary struct {
	movies []models.Movie
	err    error
}

func (f *fakeDiary) TopRated(userID string, limit int) ([]models.Movie, error) {
	return f.movies, f.err
}

func newTestRecommender(t *testing.T, handler http.Handler, diary DiaryTopRated) *Recommender {
	t.Helper()
	svc, _ := newTestTMDB(t, handler)
	if diary == nil {
		diary = &fakeDiary{}
	}
	return NewRecommender(svc, diary, testRecommendDefaults, zerolog.Nop())
}

func TestRecommender_Recommend_PopularByDefault(t *testing.T) {
	var gotPath string
	rec := newTestRecommender(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"page":1,"results":[{"id":1,"title":"A"}],"total_pages":1,"total_results":1}`)
	}), nil)

	movies, err := rec.Recommend(context.Background(), "", Filters{})
	require.NoError(t, err)
	assert.Equal(t, "/movie/popular", gotPath)
	assert.Len(t, movies, 1)
}

func TestRecommender_Recommend_Trend(t *testing.T) {
	var gotPath string
	rec := newTestRecommender(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"page":1,"results":[],"total_pages":1,"total_results":0}`)
	}), nil)

	_, err := rec.Recommend(context.Background(), "", Filters{Mode: "trend"})
	require.NoError(t, err)
	assert.Equal(t, "/trending/movie/week", gotPath)
}

func TestRecommender_Recommend_GemsPostFilter(t *testing.T) {
	// The catalog ignores the filter parameters and returns violators of
	// every criterion plus one movie that passes
	rec := newTestRecommender(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.URL.Path, "/discover/movie"))
		fmt.Fprint(w, `{"page":1,"results":[
			{"id":1,"title":"Keeper","vote_average":7.8,"vote_count":900,"release_date":"2015-04-01","genre_ids":[18]},
			{"id":2,"title":"Documentary That Leaked","vote_average":8.5,"vote_count":900,"release_date":"2015-04-01","genre_ids":[99,18]},
			{"id":3,"title":"Too Obscure","vote_average":8.0,"vote_count":120,"release_date":"2015-04-01","genre_ids":[18]},
			{"id":4,"title":"Too Mainstream","vote_average":8.0,"vote_count":90000,"release_date":"2015-04-01","genre_ids":[18]},
			{"id":5,"title":"Too Old","vote_average":8.0,"vote_count":900,"release_date":"1999-04-01","genre_ids":[18]},
			{"id":6,"title":"Too Low","vote_average":6.0,"vote_count":900,"release_date":"2015-04-01","genre_ids":[18]}
		],"total_pages":1,"total_results":6}`)
	}), nil)

	movies, err := rec.Recommend(context.Background(), "", Filters{Mode: "gems"})
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "Keeper", movies[0].Title)
}

func TestRecommender_Recommend_GemsKeepsUnknownGenres(t *testing.T) {
	rec := newTestRecommender(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"page":1,"results":[
			{"id":1,"title":"No Genres","vote_average":7.8,"vote_count":900,"release_date":"2015-04-01"}
		],"total_pages":1,"total_results":1}`)
	}), nil)

	movies, err := rec.Recommend(context.Background(), "", Filters{Mode: "gems"})
	require.NoError(t, err)
	// Genre exclusion cannot be verified without genre ids; keep the movie
	require.Len(t, movies, 1)
}

func TestRecommender_Recommend_GemsLocalizedTitleRequirement(t *testing.T) {
	rec := newTestRecommender(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"page":1,"results":[
			{"id":1,"title":"Einheimisch","original_title":"Einheimisch","original_language":"de","vote_average":7.8,"vote_count":900,"release_date":"2015-04-01","genre_ids":[18]},
			{"id":2,"title":"Übersetzt","original_title":"Translated","original_language":"en","vote_average":7.8,"vote_count":900,"release_date":"2015-04-01","genre_ids":[18]},
			{"id":3,"title":"Untranslated","original_title":"Untranslated","original_language":"en","vote_average":7.8,"vote_count":900,"release_date":"2015-04-01","genre_ids":[18]}
		],"total_pages":1,"total_results":3}`)
	}), nil)

	movies, err := rec.Recommend(context.Background(), "de", Filters{Mode: "gems", RequireLocalizedTitle: true})
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "Einheimisch", movies[0].Title)
	assert.Equal(t, "Übersetzt", movies[1].Title)
}

func TestRecommender_Recommend_TruncatesToResultCount(t *testing.T) {
	rec := newTestRecommender(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sb strings.Builder
		sb.WriteString(`{"page":1,"results":[`)
		for i := 0; i < 20; i++ {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, `{"id":%d,"title":"Movie %d"}`, i+1, i+1)
		}
		sb.WriteString(`],"total_pages":1,"total_results":20}`)
		fmt.Fprint(w, sb.String())
	}), nil)

	movies, err := rec.Recommend(context.Background(), "", Filters{})
	require.NoError(t, err)
	assert.Len(t, movies, 12)
}

func TestRecommender_SimilarToDiary(t *testing.T) {
	diary := &fakeDiary{movies: []models.Movie{
		{ID: 1, TMDBID: 603, UserRating: 10},
		{ID: 2, TMDBID: 348, UserRating: 9},
	}}
	rec := newTestRecommender(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/603/recommendations":
			// 348 is already in the diary and must be dropped
			fmt.Fprint(w, `{"page":1,"results":[{"id":604,"title":"The Matrix Reloaded"},{"id":348,"title":"Alien"}],"total_pages":1,"total_results":2}`)
		case "/movie/348/recommendations":
			// 604 was already collected from the first seed
			fmt.Fprint(w, `{"page":1,"results":[{"id":679,"title":"Aliens"},{"id":604,"title":"The Matrix Reloaded"}],"total_pages":1,"total_results":2}`)
		default:
			http.NotFound(w, r)
		}
	}), diary)

	movies, err := rec.SimilarToDiary(context.Background(), "user-1", "", 0)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, 604, movies[0].ID)
	assert.Equal(t, 679, movies[1].ID)
}

func TestRecommender_SimilarToDiary_EmptyDiary(t *testing.T) {
	rec := newTestRecommender(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("catalog should not be called")
	}), &fakeDiary{})

	movies, err := rec.SimilarToDiary(context.Background(), "user-1", "", 0)
	require.NoError(t, err)
	assert.Empty(t, movies)
}
