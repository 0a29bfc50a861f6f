// Package youtube fetches recent uploads and their statistics from the
// YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for fetch operations.
var (
	ErrChannelNotFound = errors.New("youtube: channel not found")
	ErrRateLimited     = errors.New("youtube: rate limited")
	ErrQuotaExceeded   = errors.New("youtube: daily quota exceeded")
	ErrNetworkTimeout  = errors.New("youtube: network timeout")
	ErrInvalidRequest  = errors.New("youtube: invalid request")
)

// Fetcher returns the most recent uploads of a channel with current statistics.
type Fetcher interface {
	// ListRecentMediaItems returns at most limit videos, newest first.
	ListRecentMediaItems(ctx context.Context, channelID string, limit int) ([]Video, error)
}

// Video is one upload as reported by the API in a single fetch.
type Video struct {
	// ID is the YouTube video ID (e.g., "dQw4w9WgXcQ").
	ID string `json:"id"`
	// Title is the video title.
	Title string `json:"title"`
	// PublishedAt is the publish time. Zero if the API value did not parse.
	PublishedAt time.Time `json:"published_at"`
	// Duration is the raw ISO-8601 duration, e.g. "PT4M13S".
	Duration string `json:"duration"`

	ViewCount    uint64 `json:"view_count"`
	LikeCount    uint64 `json:"like_count"`
	CommentCount uint64 `json:"comment_count"`
}

// URL returns the watch URL of the video.
func (v Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// FetchError wraps fetch errors with the failing step and channel.
// Use errors.As() to extract it:
//
//	var fetchErr *youtube.FetchError
//	if errors.As(err, &fetchErr) {
//		fmt.Printf("%s failed for %s: %v\n", fetchErr.Op, fetchErr.Channel, fetchErr.Err)
//	}
type FetchError struct {
	// Op is the API step that failed ("channels", "playlistItems", "videos").
	Op string
	// Channel is the channel ID being fetched.
	Channel string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the fetch error.
func (e *FetchError) Error() string {
	return "youtube: " + e.Op + " for " + e.Channel + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *FetchError) Unwrap() error { return e.Err }
