/**
 * PostgreSQL Client for the document scan worker
 *
 * Persists scan jobs and their extraction results. Results are stored
 * as JSONB in the shape the API serves, so a finished job can be
 * returned without re-assembly.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/docuverify/docscan-worker/internal/engine"
)

// PostgresClient handles database operations
type PostgresClient struct {
	db *sql.DB
}

// ScanRecord is one persisted scan job row.
type ScanRecord struct {
	JobID            string
	UserID           string
	Filename         string
	MimeType         string
	FileSize         int64
	Status           string
	DocumentType     string
	Confidence       float64
	SourceBackend    string
	SuggestRescan    bool
	Result           *engine.ExtractionResult
	ErrorCode        string
	ErrorMessage     string
	ProcessingTimeMs int64
	RescanOf         string
}

// sanitizeConfidence rounds to 1 decimal and clamps to [0, 100] so
// float artifacts like 96.32000000000001 never hit the NUMERIC cast.
func sanitizeConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return float64(int(confidence*10+0.5)) / 10
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// SaveScan upserts a scan job row. The worker may observe a job
// before the API created it, so the insert path fills the identity
// columns too.
func (p *PostgresClient) SaveScan(ctx context.Context, rec *ScanRecord) error {
	if rec.JobID == "" {
		return fmt.Errorf("job ID is required")
	}
	if rec.Status == "" {
		return fmt.Errorf("status is required")
	}

	var resultJSON []byte
	if rec.Result != nil {
		var err error
		resultJSON, err = json.Marshal(rec.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
	}

	query := `
		INSERT INTO docscan.scan_jobs (
			id, user_id, filename, mime_type, file_size,
			status, document_type, confidence, source_backend, suggest_rescan,
			result, error_code, error_message, processing_time_ms, rescan_of,
			created_at, updated_at
		) VALUES (
			$1::uuid, COALESCE(NULLIF($2, ''), 'anonymous'), COALESCE(NULLIF($3, ''), 'unknown'),
			COALESCE(NULLIF($4, ''), 'application/octet-stream'), COALESCE($5, 0),
			$6, NULLIF($7, ''), NULLIF($8::NUMERIC(5,1), 0), NULLIF($9, ''), $10,
			$11::jsonb, NULLIF($12, ''), NULLIF($13, ''), NULLIF($14, 0),
			CASE WHEN $15 = '' THEN NULL ELSE $15::uuid END,
			NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			document_type = COALESCE(EXCLUDED.document_type, docscan.scan_jobs.document_type),
			confidence = COALESCE(EXCLUDED.confidence, docscan.scan_jobs.confidence),
			source_backend = COALESCE(EXCLUDED.source_backend, docscan.scan_jobs.source_backend),
			suggest_rescan = EXCLUDED.suggest_rescan,
			result = COALESCE(EXCLUDED.result, docscan.scan_jobs.result),
			error_code = NULLIF(EXCLUDED.error_code, ''),
			error_message = NULLIF(EXCLUDED.error_message, ''),
			processing_time_ms = COALESCE(EXCLUDED.processing_time_ms, docscan.scan_jobs.processing_time_ms),
			rescan_of = COALESCE(EXCLUDED.rescan_of, docscan.scan_jobs.rescan_of),
			updated_at = NOW()
		RETURNING id
	`

	var returnedID string
	err := p.db.QueryRowContext(
		ctx,
		query,
		rec.JobID,
		rec.UserID,
		rec.Filename,
		rec.MimeType,
		rec.FileSize,
		rec.Status,
		rec.DocumentType,
		sanitizeConfidence(rec.Confidence),
		rec.SourceBackend,
		rec.SuggestRescan,
		nullableJSON(resultJSON),
		rec.ErrorCode,
		rec.ErrorMessage,
		rec.ProcessingTimeMs,
		rec.RescanOf,
	).Scan(&returnedID)

	if err != nil {
		return fmt.Errorf("failed to save scan (job=%s, status=%s): %w", rec.JobID, rec.Status, err)
	}
	return nil
}

// GetScan retrieves a scan job by ID.
func (p *PostgresClient) GetScan(ctx context.Context, jobID string) (*ScanRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	query := `
		SELECT
			id, user_id, filename, mime_type, file_size,
			status, document_type, confidence, source_backend, suggest_rescan,
			result, error_code, error_message, processing_time_ms, rescan_of
		FROM docscan.scan_jobs
		WHERE id = $1::uuid
	`

	var (
		rec                       ScanRecord
		mimeType, documentType    sql.NullString
		sourceBackend, errorCode  sql.NullString
		errorMessage, rescanOf    sql.NullString
		fileSize, processingTime  sql.NullInt64
		confidence                sql.NullFloat64
		resultJSON                []byte
	)

	err := p.db.QueryRowContext(ctx, query, jobID).Scan(
		&rec.JobID, &rec.UserID, &rec.Filename, &mimeType, &fileSize,
		&rec.Status, &documentType, &confidence, &sourceBackend, &rec.SuggestRescan,
		&resultJSON, &errorCode, &errorMessage, &processingTime, &rescanOf,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scan job not found: %s", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan job: %w", err)
	}

	rec.MimeType = mimeType.String
	rec.FileSize = fileSize.Int64
	rec.DocumentType = documentType.String
	rec.Confidence = confidence.Float64
	rec.SourceBackend = sourceBackend.String
	rec.ErrorCode = errorCode.String
	rec.ErrorMessage = errorMessage.String
	rec.ProcessingTimeMs = processingTime.Int64
	rec.RescanOf = rescanOf.String

	if len(resultJSON) > 0 {
		var result engine.ExtractionResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		rec.Result = &result
	}

	return &rec, nil
}

// Ping checks database connectivity
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresClient) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// GetStats returns connection pool statistics
func (p *PostgresClient) GetStats() sql.DBStats {
	return p.db.Stats()
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
