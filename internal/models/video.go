package models

import "time"

// Video is one YouTube search result as returned to the frontend.
type Video struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ChannelName  string `json:"channel_name"`
	ThumbnailURL string `json:"thumbnail_url"`
	PublishedAt  string `json:"published_at,omitempty"`
}

// VideoSearchResult is a cached search response plus its provenance, so
// handlers can mark stale cache hits.
type VideoSearchResult struct {
	Query     string    `json:"query"`
	Videos    []Video   `json:"videos"`
	CachedAt  time.Time `json:"cached_at"`
	FromCache bool      `json:"from_cache"`
	Stale     bool      `json:"stale,omitempty"`
}
