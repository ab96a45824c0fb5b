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

	"github.com/studybeam/studybeam-api/internal/api"
	"github.com/studybeam/studybeam-api/internal/config"
	"github.com/studybeam/studybeam-api/internal/core"
	"github.com/studybeam/studybeam-api/internal/storage"
	"github.com/studybeam/studybeam-api/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Initialize LLM service
	llmService := core.NewLLMService()
	defer llmService.Close()

	// Initialize avatar blob store
	blobStore, err := storage.NewDiskStore(config.AppConfig.AvatarDir, config.AppConfig.BaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize avatar storage: %v", err)
	}

	// Initialize services
	studyService := core.NewStudyService(dbStore, llmService)
	chatService := core.NewChatService(dbStore, llmService)
	notesService := core.NewNotesService(dbStore)
	progressService := core.NewProgressService(dbStore)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(dbStore, studyService, chatService, notesService, progressService, llmService, blobStore)
	router := api.NewRouter(apiHandler, blobStore.Dir())

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second, // Adjusted for potentially slower LLM handshakes
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish before forcing the exit.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
