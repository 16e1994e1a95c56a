/**
 * Scan Processor - Two-tier backend orchestration
 *
 * Every scan tries the remote backend first: one attempt under a hard
 * per-attempt timeout, one retry when the failure is retryable, then
 * the local Tesseract pipeline. Remote results are trusted as-is and
 * only normalized into the schema-complete shape; local results come
 * out of the pipeline already complete. Only when both tiers fail
 * does the job itself fail.
 */

package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docuverify/docscan-worker/internal/clients"
	"github.com/docuverify/docscan-worker/internal/engine"
	scanerrors "github.com/docuverify/docscan-worker/internal/errors"
	"github.com/docuverify/docscan-worker/internal/logging"
	"github.com/docuverify/docscan-worker/internal/ocr"
	"github.com/docuverify/docscan-worker/internal/storage"
)

// maxRemoteAttempts covers the first try plus exactly one retry.
const maxRemoteAttempts = 2

// ScanRequest is one document to process.
type ScanRequest struct {
	JobID      string
	UserID     string
	Filename   string
	MimeType   string
	FileSize   int64
	FileURL    string
	FileBuffer []byte
	RescanOf   string
}

// BackendAttempt records one tier attempt for diagnostics.
type BackendAttempt struct {
	Backend  engine.Backend
	Attempt  int
	Duration time.Duration
	Err      string
}

// ScanOutcome is the processor's answer for one job.
type ScanOutcome struct {
	Result           *engine.ExtractionResult
	Attempts         []BackendAttempt
	ProcessingTimeMs int64
}

// ProcessorConfig holds processor wiring.
type ProcessorConfig struct {
	RemoteAPIURL  string
	RemoteTimeout time.Duration
	OCRLanguage   string
	MaxFileSize   int64
	Storage       *storage.Manager
	Scoring       *engine.ScoringConfig
}

// ScanProcessor orchestrates the remote and local tiers.
type ScanProcessor struct {
	config   *ProcessorConfig
	remote   *clients.RemoteClient
	ocr      *ocr.Tesseract
	pipeline *engine.Pipeline
	storage  *storage.Manager
	logger   *logging.Logger
}

// NewScanProcessor builds the processor. The remote tier is optional:
// without a configured URL every scan goes straight to the local
// pipeline.
func NewScanProcessor(cfg *ProcessorConfig) (*ScanProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := logging.NewLogger("ScanProcessor")

	var remote *clients.RemoteClient
	if cfg.RemoteAPIURL != "" {
		remote = clients.NewRemoteClient(cfg.RemoteAPIURL, cfg.RemoteTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := remote.HealthCheck(ctx); err != nil {
			logger.Warn("Remote backend health check failed, scans will fall back to local pipeline",
				"url", cfg.RemoteAPIURL,
				"error", err)
		} else {
			logger.Info("Remote backend connection verified", "url", cfg.RemoteAPIURL)
		}
	} else {
		logger.Warn("Remote backend not configured, all scans use local pipeline")
	}

	return &ScanProcessor{
		config:   cfg,
		remote:   remote,
		ocr:      ocr.NewTesseract(&ocr.Config{Language: cfg.OCRLanguage}),
		pipeline: engine.NewPipeline(cfg.Scoring),
		storage:  cfg.Storage,
		logger:   logger,
	}, nil
}

// ProcessDocument runs one scan through both tiers.
func (p *ScanProcessor) ProcessDocument(ctx context.Context, req *ScanRequest) (*ScanOutcome, error) {
	start := time.Now()
	p.logger.Info("Starting scan", "jobId", req.JobID, "filename", req.Filename)

	fileData, err := p.loadFile(ctx, req)
	if err != nil {
		return nil, scanerrors.NewPipelineFailedError(req.JobID, "load", err)
	}
	if len(fileData) == 0 {
		return nil, scanerrors.NewEmptyDocumentError(req.JobID, req.Filename)
	}
	if req.MimeType == "" || req.MimeType == "application/octet-stream" {
		if mt := DetectMimeType(fileData); mt != "" {
			req.MimeType = mt
		} else if IsPDF(fileData, req.Filename) {
			req.MimeType = "application/pdf"
		}
	}

	outcome := &ScanOutcome{}

	// Tier 1: remote backend.
	var remoteErr error
	if p.remote != nil {
		result, attempts, err := p.tryRemote(ctx, req, fileData)
		outcome.Attempts = append(outcome.Attempts, attempts...)
		if err == nil {
			normalizeRemote(p.pipeline.Config(), result)
			outcome.Result = result
			outcome.ProcessingTimeMs = time.Since(start).Milliseconds()
			p.persist(ctx, req, outcome, fileData, nil)
			p.logger.Info("Scan complete via remote backend",
				"jobId", req.JobID,
				"documentType", result.DocumentType,
				"confidence", result.Confidence)
			return outcome, nil
		}
		remoteErr = err
		p.logger.Warn("Remote backend failed, falling back to local pipeline",
			"jobId", req.JobID,
			"error", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Tier 2: local pipeline.
	localStart := time.Now()
	result, localErr := p.runLocal(ctx, fileData)
	attempt := BackendAttempt{
		Backend:  engine.BackendLocal,
		Attempt:  1,
		Duration: time.Since(localStart),
	}
	if localErr != nil {
		attempt.Err = localErr.Error()
		outcome.Attempts = append(outcome.Attempts, attempt)

		failure := scanerrors.NewAllTiersFailedError(req.JobID, remoteErr, localErr)
		p.persist(ctx, req, outcome, fileData, failure)
		return nil, failure
	}
	outcome.Attempts = append(outcome.Attempts, attempt)
	outcome.Result = result
	outcome.ProcessingTimeMs = time.Since(start).Milliseconds()
	p.persist(ctx, req, outcome, fileData, nil)

	p.logger.Info("Scan complete via local pipeline",
		"jobId", req.JobID,
		"documentType", result.DocumentType,
		"confidence", result.Confidence)
	return outcome, nil
}

// tryRemote runs the remote tier with the single-retry policy. Each
// attempt gets its own deadline; a cancelled parent context stops the
// retry.
func (p *ScanProcessor) tryRemote(ctx context.Context, req *ScanRequest, fileData []byte) (*engine.ExtractionResult, []BackendAttempt, error) {
	var attempts []BackendAttempt
	var lastErr error

	for attempt := 1; attempt <= maxRemoteAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.config.RemoteTimeout)
		attemptStart := time.Now()
		result, err := p.remote.Scan(attemptCtx, req.Filename, fileData)
		cancel()

		record := BackendAttempt{
			Backend:  engine.BackendRemote,
			Attempt:  attempt,
			Duration: time.Since(attemptStart),
		}
		if err == nil {
			attempts = append(attempts, record)
			return result, attempts, nil
		}
		record.Err = err.Error()
		attempts = append(attempts, record)
		lastErr = err

		if ctx.Err() != nil {
			return nil, attempts, ctx.Err()
		}
		if !clients.IsRetryable(err) {
			p.logger.Info("Remote failure is terminal, skipping retry",
				"jobId", req.JobID,
				"attempt", attempt,
				"error", err)
			break
		}
		if attempt < maxRemoteAttempts {
			p.logger.Info("Retrying remote backend",
				"jobId", req.JobID,
				"attempt", attempt+1)
		}
	}

	return nil, attempts, scanerrors.NewRemoteFailedError(req.JobID, len(attempts), lastErr)
}

// runLocal executes the OCR passes and the extraction pipeline.
func (p *ScanProcessor) runLocal(ctx context.Context, fileData []byte) (*engine.ExtractionResult, error) {
	passes, err := p.ocr.Passes(ctx, fileData)
	if err != nil {
		return nil, err
	}
	result := p.pipeline.Run(passes...)
	return &result, nil
}

// normalizeRemote completes the remote answer against the field
// schema without re-scoring it: remote confidences are authoritative,
// the worker only guarantees shape. A present field missing its
// status or threshold gets them derived from its reported confidence
// via the canonical thresholds.
func normalizeRemote(cfg *engine.ScoringConfig, result *engine.ExtractionResult) {
	if result.Fields == nil {
		result.Fields = map[string]engine.FieldValue{}
	}
	for name, f := range result.Fields {
		if f.Threshold == 0 {
			f.Threshold = cfg.Threshold(name)
		}
		if f.Status == "" {
			f.Status = engine.StatusFor(f.Confidence, f.Threshold)
		}
		result.Fields[name] = f
	}
	for _, name := range result.DocumentType.Schema() {
		if _, ok := result.Fields[name]; ok {
			continue
		}
		result.Fields[name] = engine.FieldValue{
			Value:     nil,
			Threshold: cfg.Threshold(name),
			Status:    engine.StatusFail,
		}
	}
	result.SourceBackend = engine.BackendRemote
}

// persist writes the job row and caches the upload for rescans.
// Storage failures are logged, not surfaced: the scan answer is
// already in hand.
func (p *ScanProcessor) persist(ctx context.Context, req *ScanRequest, outcome *ScanOutcome, fileData []byte, failure *scanerrors.ScanError) {
	if p.storage == nil {
		return
	}

	rec := &storage.ScanRecord{
		JobID:            req.JobID,
		UserID:           req.UserID,
		Filename:         req.Filename,
		MimeType:         req.MimeType,
		FileSize:         int64(len(fileData)),
		ProcessingTimeMs: outcome.ProcessingTimeMs,
		RescanOf:         req.RescanOf,
	}
	if failure != nil {
		rec.Status = "failed"
		rec.ErrorCode = string(failure.Code)
		rec.ErrorMessage = failure.Message
	} else {
		rec.Status = "completed"
		rec.DocumentType = string(outcome.Result.DocumentType)
		rec.Confidence = outcome.Result.Confidence
		rec.SourceBackend = string(outcome.Result.SourceBackend)
		rec.SuggestRescan = outcome.Result.SuggestRescan
		rec.Result = outcome.Result
	}

	if err := p.storage.SaveScan(ctx, rec); err != nil {
		p.logger.Error("Failed to persist scan", "jobId", req.JobID, "error", err)
	}
	if failure == nil {
		p.storage.CacheFile(ctx, req.JobID, req.Filename, fileData)
	}
}

// loadFile resolves the request to raw bytes: inline buffer first,
// then the rescan cache, then a URL download.
func (p *ScanProcessor) loadFile(ctx context.Context, req *ScanRequest) ([]byte, error) {
	if len(req.FileBuffer) > 0 {
		return req.FileBuffer, nil
	}

	if req.RescanOf != "" && p.storage != nil {
		filename, data, err := p.storage.FetchCachedFile(ctx, req.RescanOf)
		if err != nil {
			return nil, err
		}
		if req.Filename == "" {
			req.Filename = filename
		}
		p.logger.Info("Loaded file from rescan cache",
			"jobId", req.JobID,
			"rescanOf", req.RescanOf,
			"bytes", len(data))
		return data, nil
	}

	if req.FileURL != "" {
		return p.downloadFile(ctx, req)
	}

	return nil, scanerrors.NewEmptyDocumentError(req.JobID, req.Filename)
}

// downloadFile fetches the upload from a URL with bounded retries.
func (p *ScanProcessor) downloadFile(ctx context.Context, req *ScanRequest) ([]byte, error) {
	const (
		maxRetries     = 3
		initialBackoff = time.Second
	)

	client := &http.Client{Timeout: 2 * time.Minute}
	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.FileURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(httpReq)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			maxRead := p.config.MaxFileSize
			if maxRead <= 0 {
				maxRead = 50 * 1024 * 1024
			}
			data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxRead))
			resp.Body.Close()
			if readErr == nil {
				p.logger.Info("File downloaded",
					"jobId", req.JobID,
					"attempt", attempt,
					"bytes", len(data))
				return data, nil
			}
			lastErr = readErr
		} else if err != nil {
			lastErr = err
		} else {
			lastErr = &clients.RemoteError{StatusCode: resp.StatusCode, Body: resp.Status}
			resp.Body.Close()
		}

		p.logger.Warn("Download attempt failed",
			"jobId", req.JobID,
			"attempt", attempt,
			"error", lastErr)

		if attempt < maxRetries {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// DetectMimeType reads the magic bytes of the supported scan formats.
// Sources like mobile uploads often send application/octet-stream.
func DetectMimeType(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return "application/pdf"
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47}):
		return "image/png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case len(data) > 12 && bytes.HasPrefix(data, []byte("RIFF")) && string(data[8:12]) == "WEBP":
		return "image/webp"
	case bytes.HasPrefix(data, []byte{0x49, 0x49, 0x2A, 0x00}), bytes.HasPrefix(data, []byte{0x4D, 0x4D, 0x00, 0x2A}):
		return "image/tiff"
	case bytes.HasPrefix(data, []byte("BM")):
		return "image/bmp"
	}
	return ""
}

// IsPDF reports whether the payload is a PDF by magic bytes or name.
func IsPDF(data []byte, filename string) bool {
	return bytes.HasPrefix(data, []byte("%PDF")) ||
		strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
