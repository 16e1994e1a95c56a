/**
 * Queue Consumer for the document scan worker
 *
 * Consumes scan jobs from the Redis queue via Asynq. Two task types:
 * docscan:scan for fresh uploads and docscan:rescan for reprocessing
 * a cached file. File bytes arrive base64-encoded from the API layer;
 * legacy producers still send Node.js Buffer objects, so both shapes
 * decode.
 */

package queue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/docuverify/docscan-worker/internal/processor"
)

// Task type names registered with the queue.
const (
	TaskScan   = "docscan:scan"
	TaskRescan = "docscan:rescan"
)

// ScanJobProcessor is the processing dependency of the consumer.
type ScanJobProcessor interface {
	ProcessDocument(ctx context.Context, req *processor.ScanRequest) (*processor.ScanOutcome, error)
}

// JobData represents the structure of job data from the API queue
type JobData struct {
	JobID      string `json:"jobId"`
	UserID     string `json:"userId"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mimeType,omitempty"`
	FileSize   int64  `json:"fileSize,omitempty"`
	FileURL    string `json:"fileUrl,omitempty"`
	FileBuffer []byte // set by custom UnmarshalJSON
	RescanOf   string `json:"rescanOf,omitempty"`
}

// UnmarshalJSON handles the two fileBuffer encodings producers use:
// a base64 string, or a legacy Node.js Buffer object.
func (d *JobData) UnmarshalJSON(data []byte) error {
	type Alias JobData
	aux := &struct {
		FileBuffer interface{} `json:"fileBuffer,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(d),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	if aux.FileBuffer == nil {
		return nil
	}
	switch v := aux.FileBuffer.(type) {
	case string:
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return fmt.Errorf("failed to decode base64 fileBuffer: %w", err)
		}
		d.FileBuffer = decoded

	case map[string]interface{}:
		if bufferType, ok := v["type"].(string); !ok || bufferType != "Buffer" {
			return fmt.Errorf("invalid Buffer object format (missing or incorrect 'type' field)")
		}
		dataArray, ok := v["data"].([]interface{})
		if !ok {
			return fmt.Errorf("Buffer object missing 'data' array")
		}
		d.FileBuffer = make([]byte, len(dataArray))
		for i, val := range dataArray {
			byteVal, ok := val.(float64)
			if !ok {
				return fmt.Errorf("invalid byte value in Buffer data array at index %d", i)
			}
			d.FileBuffer[i] = byte(byteVal)
		}

	default:
		return fmt.Errorf("fileBuffer must be either base64 string or Buffer object, got %T", v)
	}
	return nil
}

// Consumer handles job consumption from the Redis queue
type Consumer struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor ScanJobProcessor
	config    *ConsumerConfig
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Processor         ScanJobProcessor
	ProcessingTimeout time.Duration // per-job budget across both tiers
}

// NewConsumer creates a new queue consumer
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10,
				"default":     1,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// Exponential backoff: 5s, 10s, 20s
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task processing error: type=%s, error=%v", task.Type(), err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		client:    client,
		server:    server,
		mux:       mux,
		processor: cfg.Processor,
		config:    cfg,
	}

	mux.HandleFunc(TaskScan, consumer.handleScan)
	mux.HandleFunc(TaskRescan, consumer.handleRescan)

	return consumer, nil
}

// Start starts the queue consumer
func (c *Consumer) Start(ctx context.Context) error {
	log.Printf("Starting queue consumer (concurrency=%d, queue=%s)...",
		c.config.Concurrency, c.config.QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			log.Printf("Queue consumer error: %v", err)
		}
	}()

	return nil
}

// Stop stops the queue consumer gracefully
func (c *Consumer) Stop(ctx context.Context) error {
	log.Printf("Stopping queue consumer...")

	c.server.Shutdown()

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}

	log.Printf("Queue consumer stopped")
	return nil
}

// handleScan processes a fresh upload.
func (c *Consumer) handleScan(ctx context.Context, task *asynq.Task) error {
	var jobData JobData
	if err := json.Unmarshal(task.Payload(), &jobData); err != nil {
		return fmt.Errorf("failed to unmarshal job data: %w", err)
	}
	return c.process(ctx, &jobData)
}

// handleRescan reprocesses a previous scan's cached file. The payload
// may omit the file entirely; the processor resolves it from the
// cache via rescanOf.
func (c *Consumer) handleRescan(ctx context.Context, task *asynq.Task) error {
	var jobData JobData
	if err := json.Unmarshal(task.Payload(), &jobData); err != nil {
		return fmt.Errorf("failed to unmarshal job data: %w", err)
	}
	if jobData.RescanOf == "" && len(jobData.FileBuffer) == 0 && jobData.FileURL == "" {
		return fmt.Errorf("rescan task missing rescanOf and file source")
	}
	return c.process(ctx, &jobData)
}

func (c *Consumer) process(ctx context.Context, jobData *JobData) error {
	startTime := time.Now()

	// Some producers enqueue rescans without a job ID; every persisted
	// row still needs one.
	if jobData.JobID == "" {
		jobData.JobID = uuid.NewString()
	}

	log.Printf("[Job %s] Processing document: filename=%s, size=%d bytes, user=%s, rescanOf=%s",
		jobData.JobID, jobData.Filename, jobData.FileSize, jobData.UserID, jobData.RescanOf)

	timeout := 5 * time.Minute
	if c.config.ProcessingTimeout > 0 {
		timeout = c.config.ProcessingTimeout
	}
	processCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome, err := c.processor.ProcessDocument(processCtx, &processor.ScanRequest{
		JobID:      jobData.JobID,
		UserID:     jobData.UserID,
		Filename:   jobData.Filename,
		MimeType:   jobData.MimeType,
		FileSize:   jobData.FileSize,
		FileURL:    jobData.FileURL,
		FileBuffer: jobData.FileBuffer,
		RescanOf:   jobData.RescanOf,
	})

	duration := time.Since(startTime)

	if err != nil {
		if processCtx.Err() == context.DeadlineExceeded {
			log.Printf("[Job %s] Processing timed out after %v (timeout: %v)", jobData.JobID, duration, timeout)
			return fmt.Errorf("processing timeout after %v: %w", timeout, err)
		}
		log.Printf("[Job %s] Processing failed after %v: %v", jobData.JobID, duration, err)
		return fmt.Errorf("document scan failed: %w", err)
	}

	log.Printf("[Job %s] Processing completed in %v: type=%s, confidence=%.1f, backend=%s, attempts=%d",
		jobData.JobID, duration,
		outcome.Result.DocumentType, outcome.Result.Confidence,
		outcome.Result.SourceBackend, len(outcome.Attempts))

	return nil
}

// GetStatistics returns consumer statistics
func (c *Consumer) GetStatistics() map[string]interface{} {
	return map[string]interface{}{
		"concurrency": c.config.Concurrency,
		"queue":       c.config.QueueName,
		"redisURL":    c.config.RedisURL,
	}
}
