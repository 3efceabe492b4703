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

	"studyhall-backend/internal/annotations"
	"studyhall-backend/internal/config"
	"studyhall-backend/internal/database"
	"studyhall-backend/internal/handlers"
	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/repository"
	"studyhall-backend/internal/router"
	"studyhall-backend/internal/services"
	"studyhall-backend/internal/session"
	"studyhall-backend/internal/syncer"
	"studyhall-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting StudyHall Backend...")

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
	lessonRepo := repository.NewLessonRepo(pool)
	progressRepo := repository.NewProgressRepo(pool)
	snapshotRepo := repository.NewSnapshotRepo(pool)
	attemptRepo := repository.NewAttemptRepo(pool)
	syncLogRepo := repository.NewSyncLogRepo(pool)
	noteRepo := repository.NewNoteRepo(pool)
	annotationRepo := repository.NewAnnotationRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, annotationRepo, jwtAuth)
	catalog := services.NewCatalog(lessonRepo, userRepo, progressRepo, cfg.CatalogCacheTTL)
	annotationService := annotations.NewService(annotationRepo)
	reconciler := syncer.New(redisClients.General, syncLogRepo)
	notifier := websocket.NewPublisher(redisClients.General)

	// ──── Step 5: Start Session Engine ────
	store := session.NewStore(progressRepo, snapshotRepo, attemptRepo, noteRepo)
	engine := session.NewEngine(store, catalog, reconciler, notifier, cfg.TickInterval, cfg.CompletionDelay)
	log.Println("✓ Session engine started")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	lessonHandler := handlers.NewLessonHandler(catalog)
	sessionHandler := handlers.NewSessionHandler(engine, reconciler)
	annotationHandler := handlers.NewAnnotationHandler(engine, annotationService)
	noteHandler := handlers.NewNoteHandler(engine, noteRepo)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		lessonHandler,
		sessionHandler,
		annotationHandler,
		noteHandler,
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

	// Graceful shutdown: live sessions flush before the listener closes.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		engine.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ StudyHall Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
