package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"estudai-backend/internal/models"
	"estudai-backend/internal/quizgen"
	"estudai-backend/internal/repository"
	"estudai-backend/internal/services"
)

const quizQueue = "queue:" + models.JobTypeWeeklyQuiz

type Pool struct {
	redis       *redis.Client
	gemini      *services.GeminiService
	jobRepo     *repository.JobRepo
	quizRepo    *repository.WeeklyQuizRepo
	contentRepo *repository.SubjectContentRepo
	perContent  int
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	gemini *services.GeminiService,
	jobRepo *repository.JobRepo,
	quizRepo *repository.WeeklyQuizRepo,
	contentRepo *repository.SubjectContentRepo,
	perContent int,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		gemini:      gemini,
		jobRepo:     jobRepo,
		quizRepo:    quizRepo,
		contentRepo: contentRepo,
		perContent:  perContent,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

// Enqueue creates a pending generation job for the user and pushes it onto
// the quiz queue.
func (p *Pool) Enqueue(ctx context.Context, userID int64) (*models.Job, error) {
	job := &models.Job{
		UserID: userID,
		Type:   models.JobTypeWeeklyQuiz,
	}
	if err := p.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	jobBytes, _ := json.Marshal(job)
	if err := p.redis.LPush(ctx, quizQueue, string(jobBytes)).Err(); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}
	return job, nil
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, quizQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, models.JobStatusProcessing)

		var processErr error
		switch job.Type {
		case models.JobTypeWeeklyQuiz:
			processErr = p.processWeeklyQuiz(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) processWeeklyQuiz(ctx context.Context, job *models.Job) error {
	_, err := p.BuildWeeklyQuiz(ctx, job.UserID)
	return err
}

// completionCutoff bounds the quiz input to completions from the current ISO
// week, i.e. from Monday on.
func completionCutoff(now time.Time) time.Time {
	return quizgen.WeekStart(now)
}

// BuildWeeklyQuiz builds the user's quiz for the current ISO week from the
// contents they completed this week and stores it ready. When no content
// survives generation the quiz falls back to topic-templated items so the
// week is never empty. Shared by the queue workers and the synchronous
// generation endpoint.
func (p *Pool) BuildWeeklyQuiz(ctx context.Context, userID int64) (*models.WeeklyQuiz, error) {
	weekStart := quizgen.WeekStart(time.Now().UTC())

	if err := p.quizRepo.MarkPending(ctx, userID, weekStart); err != nil {
		return nil, fmt.Errorf("failed to mark quiz pending: %w", err)
	}

	contents, err := p.contentRepo.FetchCompletedSince(ctx, userID, completionCutoff(time.Now().UTC()))
	if err != nil {
		p.quizRepo.MarkFailed(ctx, userID, weekStart)
		return nil, fmt.Errorf("failed to load completed contents: %w", err)
	}
	if len(contents) == 0 {
		contents, err = p.contentRepo.FetchRecent(ctx, userID, 6)
		if err != nil {
			p.quizRepo.MarkFailed(ctx, userID, weekStart)
			return nil, fmt.Errorf("failed to load recent contents: %w", err)
		}
	}

	gen := quizgen.New(userID, weekStart)
	input := make([]quizgen.Content, 0, len(contents))
	for _, c := range contents {
		input = append(input, quizgen.Content{
			ID:      c.ID,
			Subject: c.Subject,
			Title:   c.Title,
			Text:    c.Body,
		})
	}
	items := gen.Generate(input, p.perContent)

	if len(items) == 0 {
		topics, topicErr := p.contentRepo.Subjects(ctx, userID)
		if topicErr != nil || len(topics) == 0 {
			topics = []string{"Estudos Gerais"}
		}
		if p.gemini != nil {
			items = p.gemini.GenerateTopicQuiz(ctx, topics, 8)
		} else {
			items = quizgen.FallbackTF(topics, 8)
		}
	} else if p.gemini != nil && quizgen.IsPolishEnabled() {
		items = quizgen.Polish(ctx, p.gemini, items)
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		p.quizRepo.MarkFailed(ctx, userID, weekStart)
		return nil, fmt.Errorf("failed to marshal quiz items: %w", err)
	}

	if err := p.quizRepo.SaveItems(ctx, userID, weekStart, itemsJSON); err != nil {
		p.quizRepo.MarkFailed(ctx, userID, weekStart)
		return nil, fmt.Errorf("failed to save quiz: %w", err)
	}

	log.Printf("Generated weekly quiz for user %d (%d items, week %s)",
		userID, len(items), weekStart.Format("2006-01-02"))

	return p.quizRepo.Get(ctx, userID, weekStart)
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.jobRepo.UpdateStatus(ctx, job.ID, models.JobStatusCompleted)

	if p.gemini != nil {
		weekStart := quizgen.WeekStart(time.Now().UTC())
		p.gemini.PublishUpdate(ctx, job.UserID, models.QuizReadyEvent{
			Type:      "quiz_ready",
			UserID:    job.UserID,
			WeekStart: weekStart.Format("2006-01-02"),
			Status:    models.QuizStatusReady,
		})
	}

	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < job.MaxRetries {
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, models.JobStatusPending)
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		// Re-queue after backoff
		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), quizQueue, string(jobBytes))
		})
		return
	}

	log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
	p.jobRepo.UpdateStatus(ctx, job.ID, models.JobStatusFailed)
	p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

	if p.gemini != nil {
		weekStart := quizgen.WeekStart(time.Now().UTC())
		p.gemini.PublishUpdate(ctx, job.UserID, models.QuizReadyEvent{
			Type:      "quiz_failed",
			UserID:    job.UserID,
			WeekStart: weekStart.Format("2006-01-02"),
			Status:    models.QuizStatusFailed,
		})
	}
}
