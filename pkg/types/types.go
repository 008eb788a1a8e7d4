// Package domain defines the core business types for podcast-mirror.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Show represents a tracked podcast show mirrored from the upstream catalog.
type Show struct {
	ID          string `json:"id"                    db:"id"`
	Title       string `json:"title"                 db:"title"`
	Publisher   string `json:"publisher"             db:"publisher"`
	Description string `json:"description,omitempty" db:"description"`
	ImageURL    string `json:"image_url,omitempty"   db:"image_url"`

	// Sync bookkeeping
	EpisodeCount           int        `json:"episode_count"                       db:"episode_count"`
	InfoHash               string     `json:"info_hash,omitempty"                 db:"info_hash"`
	LastRefreshedAt        *time.Time `json:"last_refreshed_at,omitempty"         db:"last_refreshed_at"`
	LastEpisodePublishedAt *time.Time `json:"last_episode_published_at,omitempty" db:"last_episode_published_at"`
}

// Hash returns a content hash over the show's mutable display fields.
// Recomputed and stored on every sync pass.
func (s *Show) Hash() string {
	h := sha256.New()
	h.Write([]byte(s.Title))
	h.Write([]byte{0})
	h.Write([]byte(s.Publisher))
	h.Write([]byte{0})
	h.Write([]byte(s.Description))
	h.Write([]byte{0})
	h.Write([]byte(s.ImageURL))
	return hex.EncodeToString(h.Sum(nil))
}

// Episode represents a single episode belonging to a show.
// Uniquely identified by (ShowID, ID).
type Episode struct {
	ID          string `json:"id"                     db:"id"`
	ShowID      string `json:"show_id"                db:"show_id"`
	Title       string `json:"title"                  db:"title"`
	Description string `json:"description,omitempty"  db:"description"`
	AudioURL    string `json:"audio_url,omitempty"    db:"audio_url"`
	ImageURL    string `json:"image_url,omitempty"    db:"image_url"`
	ExternalURL string `json:"external_url,omitempty" db:"external_url"`

	DurationSec int        `json:"duration_sec"           db:"duration_sec"`
	Explicit    bool       `json:"explicit"               db:"explicit"`
	Language    string     `json:"language,omitempty"     db:"language"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
}

// Subscription links a user to a show they follow.
type Subscription struct {
	UserID    string    `json:"user_id"    db:"user_id"`
	ShowID    string    `json:"show_id"    db:"show_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Progress records a user's playback position within an episode.
type Progress struct {
	UserID      string    `json:"user_id"      db:"user_id"`
	EpisodeID   string    `json:"episode_id"   db:"episode_id"`
	PositionSec int       `json:"position_sec" db:"position_sec"`
	UpdatedAt   time.Time `json:"updated_at"   db:"updated_at"`
}

// AnnotatedShow is a show search result annotated with the caller's
// subscription state. Personalized; never cached.
type AnnotatedShow struct {
	Show
	Subscribed bool `json:"subscribed"`
}

// SyncFailure records a per-show failure within a sync pass.
type SyncFailure struct {
	ShowID string `json:"show_id"`
	Error  string `json:"error"`
}

// SyncSummary reports the outcome of one full sync pass.
type SyncSummary struct {
	CollectionsProcessed int           `json:"collections_processed"`
	ItemsUpserted        int           `json:"items_upserted"`
	DurationMs           int64         `json:"duration_ms"`
	Failures             []SyncFailure `json:"failures,omitempty"`
}
