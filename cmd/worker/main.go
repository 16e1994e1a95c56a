/**
 * Document Scan Worker - Main Entry Point
 *
 * Go worker for identity and academic document extraction.
 *
 * Architecture:
 * - Asynq consumer for the Redis-backed scan queue
 * - Two-tier backend orchestration: remote scan service first,
 *   local Tesseract pipeline as fallback
 * - Classification, field extraction and hybrid confidence scoring
 *   for PAN, Aadhaar, Voter ID, Driving Licence and Marksheet
 * - PostgreSQL persistence for scan results
 * - Redis file cache so rescans reuse the original upload
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/docuverify/docscan-worker/internal/config"
	"github.com/docuverify/docscan-worker/internal/processor"
	"github.com/docuverify/docscan-worker/internal/queue"
	"github.com/docuverify/docscan-worker/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Document scan worker starting...")
	log.Printf("Configuration loaded: Redis=%s, Remote=%s, Workers=%d",
		cfg.RedisAddr, cfg.RemoteAPIURL, cfg.WorkerConcurrency)

	// Storage: PostgreSQL for results, Redis for the rescan file cache.
	log.Printf("Connecting to storage (PostgreSQL + Redis)...")
	storageManager, err := storage.NewManager(&storage.ManagerConfig{
		PostgresURL:   cfg.DatabaseURL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisCacheDB,
		FileRetention: cfg.FileRetention,
	})
	if err != nil {
		log.Fatalf("Failed to initialize storage manager: %v", err)
	}
	log.Printf("Storage manager initialized")

	log.Printf("Initializing scan processor...")
	proc, err := processor.NewScanProcessor(&processor.ProcessorConfig{
		RemoteAPIURL:  cfg.RemoteAPIURL,
		RemoteTimeout: cfg.RemoteTimeout,
		OCRLanguage:   cfg.OCRLanguage,
		MaxFileSize:   cfg.MaxFileSize,
		Storage:       storageManager,
	})
	if err != nil {
		log.Fatalf("Failed to initialize scan processor: %v", err)
	}
	log.Printf("Scan processor initialized (remote-first, local fallback)")

	log.Printf("Connecting to Redis queue...")
	queueConsumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:          cfg.RedisURL,
		QueueName:         cfg.QueueName,
		Concurrency:       cfg.WorkerConcurrency,
		Processor:         proc,
		ProcessingTimeout: cfg.ProcessingTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to initialize queue consumer: %v", err)
	}
	log.Printf("Queue consumer initialized with concurrency=%d", cfg.WorkerConcurrency)

	ctx := context.Background()
	if err := queueConsumer.Start(ctx); err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}

	log.Printf("===========================================")
	log.Printf("Document Scan Worker is READY")
	log.Printf("===========================================")
	log.Printf("Queue: %s", cfg.QueueName)
	log.Printf("Workers: %d", cfg.WorkerConcurrency)
	log.Printf("Remote timeout: %v (one retry on retryable failures)", cfg.RemoteTimeout)
	log.Printf("Rescan file retention: %v", cfg.FileRetention)
	log.Printf("Supported documents: PAN, Aadhaar, Voter ID, Driving Licence, Marksheet")
	log.Printf("===========================================")
	log.Printf("Waiting for jobs...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	if err := queueConsumer.Stop(ctx); err != nil {
		log.Printf("Error stopping queue consumer: %v", err)
	}

	if err := storageManager.Close(); err != nil {
		log.Printf("Error closing storage manager: %v", err)
	}

	log.Printf("Shutdown complete")
}
