package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SATYAJEET323/EduBot/internal/api"
	"github.com/SATYAJEET323/EduBot/internal/config"
	"github.com/SATYAJEET323/EduBot/internal/core"
	"github.com/SATYAJEET323/EduBot/internal/face"
	"github.com/SATYAJEET323/EduBot/internal/logger"
	"github.com/SATYAJEET323/EduBot/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	log := logger.NewLogger("server", config.AppConfig.LogLevel)

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer dbStore.Close()

	// Initialize LLM service
	llmService := core.NewLLMService()
	defer llmService.Close()

	// The embedder is the simulation; swap in a real model here if one ever
	// materializes.
	embedder := face.NewRandomEmbedder()

	// Initialize domain services
	userService := core.NewUserService(dbStore, log)
	subjectService := core.NewSubjectService(dbStore, log)
	questionService := core.NewQuestionService(dbStore, llmService, log)
	grader := core.NewGrader(dbStore, llmService, log, config.AppConfig.PointsPerAnswer)
	faceService := core.NewFaceService(dbStore, embedder, log)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(
		userService, subjectService, questionService, grader, faceService,
		log, config.AppConfig.MaxUploadBytes,
	)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Info().Str("addr", serverAddr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Str("addr", serverAddr).Msg("server failed")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited gracefully")
}
