package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"estudai-backend/internal/models"
)

const (
	maxQueryLen       = 160
	defaultMaxResults = 6
	maxMaxResults     = 12
)

type YouTubeService struct {
	apiKey string
}

func NewYouTubeService(apiKey string) *YouTubeService {
	return &YouTubeService{apiKey: apiKey}
}

func (s *YouTubeService) Enabled() bool {
	return s.apiKey != ""
}

// Search runs a YouTube Data API video search for the given query. The query
// is truncated to keep cache keys and quota usage bounded, and maxResults is
// clamped to the API page limits we allow.
func (s *YouTubeService) Search(ctx context.Context, query string, maxResults int) ([]models.Video, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("YouTube API key not configured")
	}
	query = NormalizeQuery(query)
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	maxResults = ClampMaxResults(maxResults)

	svc, err := youtube.NewService(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}

	call := svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		SafeSearch("moderate").
		MaxResults(int64(maxResults)).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("YouTube search failed: %w", err)
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		v := models.Video{
			VideoID:     item.Id.VideoId,
			Title:       item.Snippet.Title,
			ChannelName: item.Snippet.ChannelTitle,
			PublishedAt: item.Snippet.PublishedAt,
		}
		if item.Snippet.Thumbnails != nil {
			switch {
			case item.Snippet.Thumbnails.Medium != nil:
				v.ThumbnailURL = item.Snippet.Thumbnails.Medium.Url
			case item.Snippet.Thumbnails.Default != nil:
				v.ThumbnailURL = item.Snippet.Thumbnails.Default.Url
			}
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// NormalizeQuery trims and truncates a raw search query.
func NormalizeQuery(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	runes := []rune(q)
	if len(runes) > maxQueryLen {
		q = strings.TrimSpace(string(runes[:maxQueryLen]))
	}
	return q
}

// ClampMaxResults applies the default and upper bound for result counts.
func ClampMaxResults(n int) int {
	if n <= 0 {
		return defaultMaxResults
	}
	if n > maxMaxResults {
		return maxMaxResults
	}
	return n
}
