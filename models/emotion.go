package models

import "time"

// EmotionType labels a feeling associated with a diary entry.
type EmotionType string

// The fixed set of emotion types the UI offers.
const (
	EmotionHappy       EmotionType = "happy"
	EmotionSad         EmotionType = "sad"
	EmotionExcited     EmotionType = "excited"
	EmotionNostalgic   EmotionType = "nostalgic"
	EmotionThoughtful  EmotionType = "thoughtful"
	EmotionScared      EmotionType = "scared"
	EmotionRomantic    EmotionType = "romantic"
	EmotionAngry       EmotionType = "angry"
	EmotionSurprised   EmotionType = "surprised"
	EmotionDisgusted   EmotionType = "disgusted"
	EmotionTense       EmotionType = "tense"
	EmotionShocked     EmotionType = "shocked"
	EmotionThrilled    EmotionType = "thrilled"
	EmotionMelancholic EmotionType = "melancholic"
	EmotionPeaceful    EmotionType = "peaceful"
)

// DefaultIntensity is used when a caller omits intensity; the edit form does
// not expose per-tag intensity editing, so callers consistently omit it.
const DefaultIntensity = 5

// EmotionTypes lists every valid emotion type.
var EmotionTypes = []EmotionType{
	EmotionHappy, EmotionSad, EmotionExcited, EmotionNostalgic,
	EmotionThoughtful, EmotionScared, EmotionRomantic, EmotionAngry,
	EmotionSurprised, EmotionDisgusted, EmotionTense, EmotionShocked,
	EmotionThrilled, EmotionMelancholic, EmotionPeaceful,
}

// IsValidEmotion reports whether s names a known emotion type.
func IsValidEmotion(s string) bool {
	for _, t := range EmotionTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Emotion is one stored tag on a diary entry.
type Emotion struct {
	ID          int         `json:"id"`
	MovieID     int         `json:"movie_id"`
	Type        EmotionType `json:"emotion_type"`
	Intensity   int         `json:"intensity"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// EmotionInput is one tag as submitted by a caller. Intensity of 0 means
// "use the default".
type EmotionInput struct {
	Type        string `json:"emotion_type" validate:"required"`
	Intensity   int    `json:"intensity" validate:"omitempty,min=1,max=10"`
	Description string `json:"description"`
}

// AddEmotionRequest is the POST /api/emotions body.
type AddEmotionRequest struct {
	MovieID     int    `json:"movie_id" validate:"required"`
	Type        string `json:"emotion_type" validate:"required"`
	Intensity   int    `json:"intensity" validate:"omitempty,min=1,max=10"`
	Description string `json:"description"`
}

// ReplaceEmotionsRequest is the PUT /api/emotions/movie/:movieId body. An
// empty list is valid and clears the set.
type ReplaceEmotionsRequest struct {
	Emotions []EmotionInput `json:"emotions" validate:"dive"`
}

// EmotionWithMovie is an emotion joined with its movie's display fields, used
// by the cross-movie emotion listing.
type EmotionWithMovie struct {
	Emotion
	MovieTitle  string `json:"title"`
	PosterPath  string `json:"poster_path,omitempty"`
	WatchedDate string `json:"watched_date"`
}
