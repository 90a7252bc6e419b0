package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estudai-backend/internal/cache"
	"estudai-backend/internal/config"
	"estudai-backend/internal/database"
	"estudai-backend/internal/handlers"
	"estudai-backend/internal/middleware"
	"estudai-backend/internal/repository"
	"estudai-backend/internal/router"
	"estudai-backend/internal/services"
	"estudai-backend/internal/websocket"
	"estudai-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting EstudAI Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	contentRepo := repository.NewSubjectContentRepo(pool)
	quizRepo := repository.NewWeeklyQuizRepo(pool)
	jobRepo := repository.NewJobRepo(pool)
	videoCacheRepo := repository.NewVideoCacheRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	// Without an API key the quiz pipeline still works: generation is
	// rule-based and the polish pass is skipped.
	var geminiService *services.GeminiService
	if cfg.GoogleAPIKey != "" {
		geminiService, err = services.NewGeminiService(
			cfg.GoogleAPIKey,
			cfg.GoogleDefaultModel,
			cfg.GeminiConcurrentReqs,
			redisClients.Queue,
		)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		defer geminiService.Close()
		log.Println("✓ Gemini client initialized")
	} else {
		log.Println("– Gemini disabled (no GOOGLE_API_KEY)")
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	youtubeService := services.NewYouTubeService(cfg.YouTubeAPIKey)
	videoCache := cache.NewVideoCache(
		redisClients.Queue,
		videoCacheRepo,
		youtubeService,
		time.Duration(cfg.VideoCacheTTL)*time.Second,
		cfg.VideoCacheMaxRows,
	)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		geminiService,
		jobRepo,
		quizRepo,
		contentRepo,
		cfg.QuizPerContent,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	quizScheduler := worker.NewScheduler(workerPool, userRepo, quizRepo)
	quizScheduler.Start()
	log.Println("✓ Weekly quiz scheduler started")

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	quizHandler := handlers.NewQuizHandler(quizRepo, contentRepo, workerPool, geminiService)
	jobHandler := handlers.NewJobHandler(jobRepo)
	videosHandler := handlers.NewVideosHandler(videoCache)

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		quizHandler,
		jobHandler,
		videosHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		quizScheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ EstudAI Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
