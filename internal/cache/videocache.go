package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"estudai-backend/internal/models"
	"estudai-backend/internal/repository"
	"estudai-backend/internal/services"
)

// VideoCache layers a Redis fast tier over the Postgres youtube_cache table.
// Redis entries expire at the TTL; Postgres rows outlive it so a stale result
// can still be served while a background refresh runs.
type VideoCache struct {
	redis   *redis.Client
	repo    *repository.VideoCacheRepo
	youtube *services.YouTubeService
	ttl     time.Duration
	maxRows int
	now     func() time.Time
}

type Stats struct {
	Rows       int64  `json:"rows"`
	MaxRows    int    `json:"max_rows"`
	TTLSeconds int    `json:"ttl_seconds"`
	Backend    string `json:"backend"`
}

func NewVideoCache(
	redisClient *redis.Client,
	repo *repository.VideoCacheRepo,
	youtube *services.YouTubeService,
	ttl time.Duration,
	maxRows int,
) *VideoCache {
	return &VideoCache{
		redis:   redisClient,
		repo:    repo,
		youtube: youtube,
		ttl:     ttl,
		maxRows: maxRows,
		now:     time.Now,
	}
}

func cacheKey(query string, maxResults int) string {
	return fmt.Sprintf("ytsearch:%s|%d", query, maxResults)
}

// Search resolves a video search through the cache tiers: Redis, then the
// Postgres table, then the YouTube API. A stale Postgres row is served
// immediately while a goroutine refreshes it.
func (c *VideoCache) Search(ctx context.Context, query string, maxResults int) (*models.VideoSearchResult, error) {
	query = services.NormalizeQuery(query)
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	maxResults = services.ClampMaxResults(maxResults)
	key := cacheKey(query, maxResults)

	if raw, err := c.redis.Get(ctx, key).Result(); err == nil {
		var videos []models.Video
		if err := json.Unmarshal([]byte(raw), &videos); err == nil {
			return &models.VideoSearchResult{
				Query:     query,
				Videos:    videos,
				CachedAt:  c.now().UTC(),
				FromCache: true,
			}, nil
		}
	}

	raw, cachedAt, err := c.repo.Latest(ctx, query, maxResults)
	if err != nil {
		log.Printf("video cache: durable tier lookup failed for %q: %v", query, err)
	}
	if raw != nil {
		var videos []models.Video
		if err := json.Unmarshal(raw, &videos); err == nil {
			age := c.now().UTC().Sub(cachedAt)
			if age < c.ttl {
				// Backfill the fast tier for the remaining lifetime.
				c.redis.Set(ctx, key, string(raw), c.ttl-age)
				return &models.VideoSearchResult{
					Query:     query,
					Videos:    videos,
					CachedAt:  cachedAt,
					FromCache: true,
				}, nil
			}

			// Stale row: serve it now, refresh in the background.
			go c.refresh(query, maxResults)
			return &models.VideoSearchResult{
				Query:     query,
				Videos:    videos,
				CachedAt:  cachedAt,
				FromCache: true,
				Stale:     true,
			}, nil
		}
	}

	videos, err := c.fetchAndStore(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	return &models.VideoSearchResult{
		Query:    query,
		Videos:   videos,
		CachedAt: c.now().UTC(),
	}, nil
}

func (c *VideoCache) fetchAndStore(ctx context.Context, query string, maxResults int) ([]models.Video, error) {
	videos, err := c.youtube.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(videos)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search results: %w", err)
	}

	c.redis.Set(ctx, cacheKey(query, maxResults), string(data), c.ttl)
	if err := c.repo.Insert(ctx, query, maxResults, data); err != nil {
		log.Printf("video cache: failed to persist results for %q: %v", query, err)
	} else if pruned, err := c.repo.Prune(ctx, c.maxRows); err != nil {
		log.Printf("video cache: prune failed: %v", err)
	} else if pruned > 0 {
		log.Printf("video cache: pruned %d rows beyond %d", pruned, c.maxRows)
	}

	return videos, nil
}

func (c *VideoCache) refresh(query string, maxResults int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := c.fetchAndStore(ctx, query, maxResults); err != nil {
		log.Printf("video cache: background refresh failed for %q: %v", query, err)
	}
}

func (c *VideoCache) Stats(ctx context.Context) (*Stats, error) {
	rows, err := c.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Rows:       rows,
		MaxRows:    c.maxRows,
		TTLSeconds: int(c.ttl / time.Second),
		Backend:    "redis+postgres",
	}, nil
}

// Purge drops durable cache rows older than the cutoff. Redis entries are
// left to expire on their own TTL.
func (c *VideoCache) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	return c.repo.PurgeOlderThan(ctx, cutoff)
}
