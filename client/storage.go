package client

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// WatchlistItem is a catalog movie saved for later.
type WatchlistItem struct {
	TMDBID     int       `json:"tmdb_id"`
	Title      string    `json:"title"`
	PosterPath string    `json:"poster_path,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}

// Profile is the locally persisted client state.
type Profile struct {
	UserID    string          `json:"user_id"`
	Watchlist []WatchlistItem `json:"watchlist"`
}

// ProfileStore persists the client identity and watchlist.
type ProfileStore interface {
	// UserID returns the stored identity, minting one on first access.
	UserID() (string, error)
	AddToWatchlist(item WatchlistItem) error
	RemoveFromWatchlist(tmdbID int) error
	Watchlist() ([]WatchlistItem, error)
}

// FileProfileStore keeps the profile in a JSON file.
type FileProfileStore struct {
	path string

	mu      sync.Mutex
	profile *Profile
}

// NewFileProfileStore creates a store backed by the given file path. The file
// is created on first write.
func NewFileProfileStore(path string) *FileProfileStore {
	return &FileProfileStore{path: path}
}

func (s *FileProfileStore) UserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return "", err
	}
	if s.profile.UserID == "" {
		s.profile.UserID = uuid.NewString()
		if err := s.persist(); err != nil {
			return "", err
		}
	}
	return s.profile.UserID, nil
}

func (s *FileProfileStore) AddToWatchlist(item WatchlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	for _, existing := range s.profile.Watchlist {
		if existing.TMDBID == item.TMDBID {
			return nil
		}
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}
	s.profile.Watchlist = append(s.profile.Watchlist, item)
	return s.persist()
}

func (s *FileProfileStore) RemoveFromWatchlist(tmdbID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	kept := s.profile.Watchlist[:0]
	for _, item := range s.profile.Watchlist {
		if item.TMDBID != tmdbID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(s.profile.Watchlist) {
		return nil
	}
	s.profile.Watchlist = kept
	return s.persist()
}

func (s *FileProfileStore) Watchlist() ([]WatchlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}
	out := make([]WatchlistItem, len(s.profile.Watchlist))
	copy(out, s.profile.Watchlist)
	return out, nil
}

// load reads the profile file once; a missing file starts an empty profile.
func (s *FileProfileStore) load() error {
	if s.profile != nil {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.profile = &Profile{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse profile: %w", err)
	}
	s.profile = &p
	return nil
}

// persist writes atomically via a temp file rename.
func (s *FileProfileStore) persist() error {
	data, err := json.MarshalIndent(s.profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create profile directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// MemoryProfileStore is an in-memory ProfileStore for tests and throwaway
// sessions.
type MemoryProfileStore struct {
	mu      sync.Mutex
	profile Profile
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{}
}

func (s *MemoryProfileStore) UserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile.UserID == "" {
		s.profile.UserID = uuid.NewString()
	}
	return s.profile.UserID, nil
}

func (s *MemoryProfileStore) AddToWatchlist(item WatchlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profile.Watchlist {
		if existing.TMDBID == item.TMDBID {
			return nil
		}
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}
	s.profile.Watchlist = append(s.profile.Watchlist, item)
	return nil
}

func (s *MemoryProfileStore) RemoveFromWatchlist(tmdbID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.profile.Watchlist[:0]
	for _, item := range s.profile.Watchlist {
		if item.TMDBID != tmdbID {
			kept = append(kept, item)
		}
	}
	s.profile.Watchlist = kept
	return nil
}

func (s *MemoryProfileStore) Watchlist() ([]WatchlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WatchlistItem, len(s.profile.Watchlist))
	copy(out, s.profile.Watchlist)
	return out, nil
}
