package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"estudai-backend/internal/middleware"
	"estudai-backend/internal/models"
	"estudai-backend/internal/quizgen"
	"estudai-backend/internal/repository"
	"estudai-backend/internal/services"
	"estudai-backend/internal/worker"
)

type QuizHandler struct {
	quizRepo    *repository.WeeklyQuizRepo
	contentRepo *repository.SubjectContentRepo
	pool        *worker.Pool
	gemini      *services.GeminiService
}

func NewQuizHandler(
	quizRepo *repository.WeeklyQuizRepo,
	contentRepo *repository.SubjectContentRepo,
	pool *worker.Pool,
	gemini *services.GeminiService,
) *QuizHandler {
	return &QuizHandler{
		quizRepo:    quizRepo,
		contentRepo: contentRepo,
		pool:        pool,
		gemini:      gemini,
	}
}

// GenerateWeekly is the synchronous path: it builds the caller's quiz for
// the current week in-request. Without regenerate=true an already ready quiz
// is returned as-is.
func (h *QuizHandler) GenerateWeekly(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	weekStart := quizgen.WeekStart(time.Now().UTC())

	quiz, err := h.quizRepo.Get(r.Context(), userID, weekStart)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load quiz", r))
		return
	}

	if quiz != nil && quiz.Status == models.QuizStatusReady && !req.Regenerate {
		writeJSON(w, http.StatusOK, models.WeeklyQuizResponse{
			Quiz:      quiz,
			Status:    quiz.Status,
			WeekStart: weekStart.Format("2006-01-02"),
		})
		return
	}

	quiz, err = h.pool.BuildWeeklyQuiz(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Quiz generation failed", r))
		return
	}

	writeJSON(w, http.StatusOK, models.WeeklyQuizResponse{
		Quiz:      quiz,
		Status:    models.QuizStatusReady,
		WeekStart: weekStart.Format("2006-01-02"),
	})
}

// GetLatest returns the caller's most recent quiz regardless of week.
func (h *QuizHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	quiz, err := h.quizRepo.GetLatest(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load quiz", r))
		return
	}
	if quiz == nil {
		writeJSON(w, http.StatusNotFound, models.WeeklyQuizResponse{Status: "missing"})
		return
	}

	status := http.StatusOK
	resp := models.WeeklyQuizResponse{
		Status:    quiz.Status,
		WeekStart: quiz.WeekStart.Format("2006-01-02"),
	}
	if quiz.Status == models.QuizStatusReady {
		resp.Quiz = quiz
	} else {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

// GetCurrent is the polling endpoint for this week's quiz. A missing quiz
// triggers generation and answers 202 until the worker finishes.
func (h *QuizHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	weekStart := quizgen.WeekStart(time.Now().UTC())

	quiz, err := h.quizRepo.Get(r.Context(), userID, weekStart)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load quiz", r))
		return
	}

	if quiz == nil {
		if _, err := h.pool.Enqueue(r.Context(), userID); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue quiz generation", r))
			return
		}
		writeJSON(w, http.StatusAccepted, models.WeeklyQuizResponse{
			Status:    models.QuizStatusPending,
			WeekStart: weekStart.Format("2006-01-02"),
		})
		return
	}

	status := http.StatusOK
	resp := models.WeeklyQuizResponse{
		Status:    quiz.Status,
		WeekStart: weekStart.Format("2006-01-02"),
	}
	switch quiz.Status {
	case models.QuizStatusReady:
		resp.Quiz = quiz
	case models.QuizStatusPending, models.QuizStatusProcessing:
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

// ContentCompleted records that the caller finished a content item and
// enqueues a regeneration of the current week's quiz to pick it up.
func (h *QuizHandler) ContentCompleted(w http.ResponseWriter, r *http.Request) {
	var req models.ContentCompletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContentID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "content_id is required", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.contentRepo.MarkCompleted(r.Context(), userID, req.ContentID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record completion", r))
		return
	}

	job, err := h.pool.Enqueue(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue quiz regeneration", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": "Completion recorded",
		"job_id":  job.ID,
	})
}

// AIHealth reports the LLM configuration and probes the model.
func (h *QuizHandler) AIHealth(w http.ResponseWriter, r *http.Request) {
	if h.gemini == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "disabled",
			"polish_enabled": false,
			"details":        "No API key configured; template fallback active",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.gemini.Healthy(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":         "unavailable",
			"model":          h.gemini.ModelName(),
			"polish_enabled": quizgen.IsPolishEnabled(),
			"details":        err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"model":          h.gemini.ModelName(),
		"polish_enabled": quizgen.IsPolishEnabled(),
	})
}

type JobHandler struct {
	jobRepo *repository.JobRepo
}

func NewJobHandler(jobRepo *repository.JobRepo) *JobHandler {
	return &JobHandler{jobRepo: jobRepo}
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if job.UserID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	writeJSON(w, http.StatusOK, job)
}
