package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/program-engine/internal/api"
	"alcyxob/program-engine/internal/config"
	"alcyxob/program-engine/internal/consistency"
	"alcyxob/program-engine/internal/generation"
	"alcyxob/program-engine/internal/repository/mongo"
	"alcyxob/program-engine/internal/service"
	"alcyxob/program-engine/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Program Engine Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureJobIndexes(ctx, appDB.Collection("generation_jobs"))
		mongo.EnsureProgramIndexes(ctx, appDB.Collection("training_programs"))
		log.Println("Index creation process completed.")
	}()

	// --- Consistency Router ---
	router := consistency.NewRouter(
		consistency.WithWindow(cfg.Consistency.Window),
		consistency.WithCapacity(cfg.Consistency.Capacity),
	)
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	router.StartSweeper(sweepCtx, cfg.Consistency.SweepInterval)

	// --- Candidate Archive (optional) ---
	var archive storage.CandidateArchive = storage.NoopArchive{}
	if cfg.S3.BucketName != "" {
		log.Println("Initializing candidate archive...")
		archive, err = storage.NewS3Archive(cfg.S3)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 candidate archive: %v", err)
		}
	} else {
		log.Println("No archive bucket configured; raw candidates will not be retained.")
	}

	// --- Model Completer (optional; template pipeline covers its absence) ---
	var completer generation.ModelCompleter
	if cfg.Generator.APIKey != "" {
		completer, err = generation.NewOpenAICompleter(
			cfg.Generator.APIKey, cfg.Generator.BaseURL, cfg.Generator.Model, cfg.Generator.CallTimeout)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize model client: %v", err)
		}
		log.Printf("Model client initialized (model: %s)", cfg.Generator.Model)
	} else {
		log.Println("No model API key configured; all jobs will use the template pipeline.")
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	jobRepo := mongo.NewMongoJobRepository(appDB)
	programRepo := mongo.NewMongoProgramRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	persister := service.NewProgramPersister(programRepo, jobRepo, router)
	orchestrator := service.NewOrchestrator(jobRepo, programRepo, persister, archive, completer, cfg.Rollout, cfg.Worker)
	programService := service.NewProgramService(programRepo, router)

	// --- Initialize Gin Engine ---
	engine := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(engine, orchestrator, programService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
