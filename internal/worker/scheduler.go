package worker

import (
	"context"
	"log"
	"time"

	"estudai-backend/internal/quizgen"
	"estudai-backend/internal/repository"
)

const schedulerPollInterval = 1 * time.Hour

// Scheduler enqueues one weekly quiz job per active user at the start of each
// week. Users who already have a quiz row for the current week are skipped,
// so the hourly poll is idempotent.
type Scheduler struct {
	pool     *Pool
	userRepo *repository.UserRepo
	quizRepo *repository.WeeklyQuizRepo
	stopChan chan struct{}
}

func NewScheduler(pool *Pool, userRepo *repository.UserRepo, quizRepo *repository.WeeklyQuizRepo) *Scheduler {
	return &Scheduler{
		pool:     pool,
		userRepo: userRepo,
		quizRepo: quizRepo,
		stopChan: make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	if s.pool == nil || s.userRepo == nil || s.quizRepo == nil {
		return
	}

	go s.loop()

	log.Printf("Weekly quiz scheduler started")
}

func (s *Scheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *Scheduler) loop() {
	// Run on startup as well as by interval.
	s.enqueueMissing(context.Background(), time.Now().UTC())

	ticker := time.NewTicker(schedulerPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.enqueueMissing(context.Background(), time.Now().UTC())
		}
	}
}

func (s *Scheduler) enqueueMissing(ctx context.Context, now time.Time) {
	weekStart := quizgen.WeekStart(now)

	userIDs, err := s.userRepo.ListActiveIDs(ctx)
	if err != nil {
		log.Printf("quiz scheduler: failed to list active users: %v", err)
		return
	}

	for _, userID := range userIDs {
		quiz, err := s.quizRepo.Get(ctx, userID, weekStart)
		if err != nil {
			log.Printf("quiz scheduler: failed to check quiz for user %d: %v", userID, err)
			continue
		}
		if quiz != nil {
			continue
		}

		if _, err := s.pool.Enqueue(ctx, userID); err != nil {
			log.Printf("quiz scheduler: failed to enqueue quiz job for user %d: %v", userID, err)
		}
	}
}
