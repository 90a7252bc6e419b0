package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"estudai-backend/internal/cache"
	"estudai-backend/internal/models"
)

const maxBatchQueries = 12

type VideosHandler struct {
	cache *cache.VideoCache
}

func NewVideosHandler(videoCache *cache.VideoCache) *VideosHandler {
	return &VideosHandler{cache: videoCache}
}

// Search answers GET /videos?q=...&maxResults=N through the cache tiers.
// An empty query is not an error; it yields an empty result set.
func (h *VideosHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, &models.VideoSearchResult{Query: "", Videos: []models.Video{}})
		return
	}

	raw := r.URL.Query().Get("maxResults")
	if raw == "" {
		raw = r.URL.Query().Get("max_results")
	}
	maxResults := 0
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "maxResults must be an integer", r))
			return
		}
		maxResults = n
	}

	result, err := h.cache.Search(r.Context(), query, maxResults)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", "Video search failed", r))
		return
	}

	w.Header().Set("Cache-Control", "max-age=300")
	writeJSON(w, http.StatusOK, result)
}

type batchSearchRequest struct {
	Queries    []string `json:"queries"`
	MaxResults int      `json:"max_results"`
}

// Batch resolves several queries in one call, one cache lookup each. Queries
// that fail upstream come back as empty entries rather than failing the
// whole batch.
func (h *VideosHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Queries) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "queries is required", r))
		return
	}
	if len(req.Queries) > maxBatchQueries {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Too many queries in one batch", r))
		return
	}

	results := make([]*models.VideoSearchResult, 0, len(req.Queries))
	for _, q := range req.Queries {
		result, err := h.cache.Search(r.Context(), q, req.MaxResults)
		if err != nil {
			result = &models.VideoSearchResult{Query: q, Videos: []models.Video{}}
		}
		results = append(results, result)
	}

	w.Header().Set("Cache-Control", "max-age=300")
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (h *VideosHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cache.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to read cache stats", r))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type purgeRequest struct {
	OlderThanSeconds int `json:"older_than_seconds"`
}

func (h *VideosHandler) CachePurge(w http.ResponseWriter, r *http.Request) {
	var req purgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OlderThanSeconds <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "older_than_seconds must be positive", r))
		return
	}

	cutoff := time.Now().UTC().Add(-time.Duration(req.OlderThanSeconds) * time.Second)
	purged, err := h.cache.Purge(r.Context(), cutoff)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to purge cache", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"purged": purged})
}
