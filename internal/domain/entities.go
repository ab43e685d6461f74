package domain

import (
	"fmt"
	"time"
)

// MediaType distinguishes content types
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeShow  MediaType = "show"
)

// MediaItem is one browsable catalog entry (a movie or a show)
type MediaItem struct {
	RatingKey       string    `json:"RatingKey"`       // Server-specific unique identifier
	Type            MediaType `json:"Type"`            // "movie" or "show"
	Title           string    `json:"Title"`           // Display title
	SortTitle       string    `json:"SortTitle"`       // Title used for sorting
	Year            int       `json:"Year"`            // Release year
	LibraryTitle    string    `json:"LibraryTitle"`    // Owning section title
	ExistInDatabase bool      `json:"ExistInDatabase"` // Already tracked by the backend database
	AddedAt         int64     `json:"AddedAt"`         // Unix timestamp when added to library
	UpdatedAt       int64     `json:"UpdatedAt"`       // Unix timestamp when last updated

	// Structural data carried through untouched by ingestion
	Movie  *MovieInfo  `json:"Movie,omitempty"`
	Series *SeriesInfo `json:"Series,omitempty"`
}

// MovieInfo holds file metadata for a movie
type MovieInfo struct {
	File MediaFile `json:"File"`
}

// SeriesInfo holds structural counts for a show
type SeriesInfo struct {
	SeasonCount  int `json:"SeasonCount"`
	EpisodeCount int `json:"EpisodeCount"`
}

// MediaFile describes a file on the media server
type MediaFile struct {
	Path     string `json:"Path"`
	Size     int64  `json:"Size"`
	Duration int64  `json:"Duration"` // milliseconds
}

// GetSortTitle returns the title used for alphabetical sorting
func (m *MediaItem) GetSortTitle() string {
	if m.SortTitle != "" {
		return m.SortTitle
	}
	return m.Title
}

// Description returns secondary info for display
func (m *MediaItem) Description() string {
	switch {
	case m.Series != nil && m.Series.SeasonCount == 1:
		return "1 Season"
	case m.Series != nil && m.Series.SeasonCount > 1:
		return fmt.Sprintf("%d Seasons", m.Series.SeasonCount)
	case m.Year > 0:
		return fmt.Sprintf("%d", m.Year)
	default:
		return ""
	}
}

// LibrarySection is one browsable partition of the media server's catalog.
// MediaItems is appended to in place while the section is fetched.
type LibrarySection struct {
	ID         string       `json:"ID"`
	Title      string       `json:"Title"`
	Type       string       `json:"Type"` // "movie" or "show"
	TotalSize  int          `json:"TotalSize"`
	MediaItems []*MediaItem `json:"MediaItems"`
}

// CacheEnvelope wraps a section snapshot with its capture time
type CacheEnvelope struct {
	Data      LibrarySection `json:"data"`
	Timestamp int64          `json:"timestamp"` // epoch milliseconds
}

// NewCacheEnvelope captures a section at the given time
func NewCacheEnvelope(section LibrarySection, at time.Time) CacheEnvelope {
	return CacheEnvelope{Data: section, Timestamp: at.UnixMilli()}
}

// Age returns how long ago the envelope was captured
func (e CacheEnvelope) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-e.Timestamp) * time.Millisecond
}
