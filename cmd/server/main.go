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

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"portfolio-backend/internal/config"
	"portfolio-backend/internal/database"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/motion"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/router"
	"portfolio-backend/internal/services"
	"portfolio-backend/internal/websocket"
	"portfolio-backend/internal/widget"
	"portfolio-backend/internal/worker"
	"portfolio-backend/web"
)

func main() {
	log.Println("🚀 Starting Portfolio Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// Cancelled on shutdown; every chat send runs under it.
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// ──── Step 2: Initialize Redis Client (optional) ────
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer client.Close()
		redisClient = client
		log.Println("✓ Redis connected (widget events fan out via pub/sub)")
	} else {
		log.Println("• REDIS_URL not set; widget events stay in-process")
	}

	// ──── Step 3: Initialize Gemini Client ────
	generator, closeGenerator, err := services.NewGenerator(rootCtx, services.GeneratorOptions{
		Transport: cfg.GeminiTransport,
		APIKey:    cfg.GeminiAPIKey,
		Model:     cfg.GeminiModel,
		BaseURL:   cfg.GeminiBaseURL,
	})
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer closeGenerator()
	if cfg.HasGeminiKey() {
		log.Printf("✓ Gemini client initialized (%s, %s)", cfg.GeminiModel, cfg.GeminiTransport)
	} else {
		log.Println("• GEMINI_API_KEY not set; chat sends will report a configuration error")
	}

	// ──── Step 4: Initialize Sessions & WebSocket Hub ────
	sessionRepo := repository.NewSessionRepo()
	sessionAuth := middleware.NewSessionAuth(cfg.SessionSecret, cfg.SessionIdleTTL)
	workerPool := worker.NewPool(cfg.GeminiConcurrentReqs, 64)
	workerPool.Start()
	wsHub := websocket.NewHub(redisClient, sessionAuth, sessionRepo, workerPool)

	newSession := func(id uuid.UUID) *widget.Session {
		return widget.NewSession(id, generator, wsHub.RendererFor(id), widget.Options{
			SystemPrompt: cfg.SystemPrompt,
		})
	}
	log.Printf("✓ WebSocket hub started (%d submit workers)", cfg.GeminiConcurrentReqs)

	// ──── Step 5: Start Session Janitor ────
	janitor := worker.NewJanitor(sessionRepo, wsHub, cfg.SessionIdleTTL)
	janitor.Start()
	log.Printf("✓ Session janitor started (idle TTL %s)", cfg.SessionIdleTTL)

	// ──── Step 6: Load Static Site ────
	site, err := web.Site(cfg.StaticDir)
	if err != nil {
		log.Fatalf("✗ Static site unavailable: %v", err)
	}
	log.Println("✓ Static site loaded")

	// ──── Initialize Handlers ────
	widgetHandler := handlers.NewWidgetHandler(rootCtx, sessionRepo, sessionAuth, newSession, cfg.SessionIdleTTL)
	motionHandler := handlers.NewMotionHandler(motion.DefaultConfig())
	sessionLimiter := middleware.NewRateLimiter(cfg.SessionRateLimit, time.Minute)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		sessionAuth,
		widgetHandler,
		motionHandler,
		wsHub,
		sessionLimiter,
		site,
		cfg.FrontendURL,
	)

	// No WriteTimeout: a chat send holds its response until Gemini answers.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		janitor.Stop()
		sessionLimiter.Stop()

		// Sends still waiting on Gemini are abandoned here so pending
		// message requests can finish inside the shutdown window.
		cancelRoot()
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Portfolio Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/widget/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
