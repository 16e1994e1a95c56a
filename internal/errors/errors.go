package errors

import (
	"fmt"
	"time"
)

/**
 * Custom error types for the document scan worker
 *
 * Structured errors with stable codes so the API layer and the jobs
 * table can report failures without string matching.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Backend errors
	ErrorRemoteFailed    ErrorCode = "REMOTE_BACKEND_FAILED"
	ErrorRemoteTimeout   ErrorCode = "REMOTE_BACKEND_TIMEOUT"
	ErrorPipelineFailed  ErrorCode = "LOCAL_PIPELINE_FAILED"
	ErrorAllTiersFailed  ErrorCode = "ALL_BACKENDS_FAILED"

	// Input errors
	ErrorEmptyDocument     ErrorCode = "EMPTY_DOCUMENT"
	ErrorUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"

	// Storage errors
	ErrorStorageFailed  ErrorCode = "STORAGE_FAILED"
	ErrorDatabaseFailed ErrorCode = "DATABASE_FAILED"
	ErrorCacheMiss      ErrorCode = "CACHE_MISS"
)

// ScanError represents a structured scan failure
type ScanError struct {
	Code      ErrorCode
	Message   string
	JobID     string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewRemoteFailedError(jobID string, attempts int, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorRemoteFailed,
		Message:   fmt.Sprintf("Remote backend failed after %d attempt(s)", attempts),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"attempts": attempts,
		},
		Cause: cause,
	}
}

func NewRemoteTimeoutError(jobID string, timeout time.Duration, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorRemoteTimeout,
		Message:   fmt.Sprintf("Remote backend timed out after %v", timeout),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"timeout_duration": timeout.String(),
		},
		Cause: cause,
	}
}

func NewPipelineFailedError(jobID string, stage string, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorPipelineFailed,
		Message:   fmt.Sprintf("Local pipeline failed at stage: %s", stage),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"stage": stage,
		},
		Cause: cause,
	}
}

func NewAllTiersFailedError(jobID string, remoteErr, localErr error) *ScanError {
	return &ScanError{
		Code:      ErrorAllTiersFailed,
		Message:   "Both remote backend and local pipeline failed",
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"remote_error": fmt.Sprint(remoteErr),
			"local_error":  fmt.Sprint(localErr),
		},
		Cause: localErr,
	}
}

func NewEmptyDocumentError(jobID string, filename string) *ScanError {
	return &ScanError{
		Code:      ErrorEmptyDocument,
		Message:   fmt.Sprintf("Document produced no readable content: %s", filename),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"filename": filename,
		},
	}
}

func NewUnsupportedFormatError(jobID string, mimeType string) *ScanError {
	return &ScanError{
		Code:      ErrorUnsupportedFormat,
		Message:   fmt.Sprintf("Unsupported file format: %s", mimeType),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"mime_type": mimeType,
		},
	}
}

func NewStorageFailedError(jobID string, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorStorageFailed,
		Message:   "Failed to store scan results",
		JobID:     jobID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// ToMap converts error to map for database storage
func (e *ScanError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
