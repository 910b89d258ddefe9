package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rewatch/models"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound means the diary entry does not exist for this identity.
	ErrNotFound = errors.New("client: not found")
	// ErrConflict means the server rejected a write, either a duplicate
	// catalog entry or a stale version.
	ErrConflict = errors.New("client: conflict")
)

// Client talks to the diary server on behalf of one stored identity.
type Client struct {
	baseURL string
	store   ProfileStore
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a client for the server at baseURL. The profile store
// supplies the X-User-ID sent with every request.
func NewClient(baseURL string, store ProfileStore, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		store:   store,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

func (c *Client) ListMovies(ctx context.Context, page, pageSize int) ([]models.Movie, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("limit", strconv.Itoa(pageSize))
	}
	path := "/api/movies"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var movies []models.Movie
	if err := c.do(ctx, http.MethodGet, path, nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (c *Client) GetMovie(ctx context.Context, id int) (*models.Movie, error) {
	var movie models.Movie
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/movies/%d", id), nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *Client) CreateMovie(ctx context.Context, req models.CreateMovieRequest) (*models.Movie, error) {
	var movie models.Movie
	if err := c.do(ctx, http.MethodPost, "/api/movies", req, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *Client) UpdateMovie(ctx context.Context, id int, upd models.MovieUpdate) (*models.Movie, error) {
	var movie models.Movie
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/movies/%d", id), upd, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *Client) DeleteMovie(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/movies/%d", id), nil, nil)
}

func (c *Client) ReplaceEmotions(ctx context.Context, movieID int, emotions []models.EmotionInput) ([]models.Emotion, error) {
	if emotions == nil {
		emotions = []models.EmotionInput{}
	}
	var out []models.Emotion
	req := models.ReplaceEmotionsRequest{Emotions: emotions}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/emotions/movie/%d", movieID), req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	userID, err := c.store.UserID()
	if err != nil {
		return fmt.Errorf("failed to resolve user identity: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-User-ID", userID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	case resp.StatusCode >= 400:
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
