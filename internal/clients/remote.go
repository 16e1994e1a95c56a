/**
 * Remote Scan Client
 *
 * Talks to the hosted extraction service. Each scan is a multipart
 * upload of the original file; the service answers with the same
 * result shape the local pipeline produces, so the orchestrator can
 * treat both tiers uniformly. Errors are classified into retryable
 * (transport failures, timeouts, 5xx) and terminal (4xx), which
 * drives the single-retry policy upstream.
 */

package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/docuverify/docscan-worker/internal/engine"
	"github.com/docuverify/docscan-worker/internal/logging"
)

// RemoteClient handles communication with the remote scan service.
type RemoteClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// RemoteError is a non-2xx answer from the remote service.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote service returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the failure is worth one more attempt.
// Client errors are terminal: resending the same file cannot fix a
// rejected request.
func (e *RemoteError) Retryable() bool {
	return e.StatusCode >= 500
}

// IsRetryable classifies any scan error for the retry policy.
func IsRetryable(err error) bool {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// url.Error and friends wrap transport failures.
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// NewRemoteClient creates a client for the remote scan service. The
// timeout caps one attempt end to end, upload included.
func NewRemoteClient(baseURL string, timeout time.Duration) *RemoteClient {
	return &RemoteClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logging.NewLogger("RemoteClient"),
	}
}

// Scan uploads a document and returns the remote extraction result.
func (c *RemoteClient) Scan(ctx context.Context, filename string, fileData []byte) (*engine.ExtractionResult, error) {
	c.logger.Info("Uploading document to remote scan service",
		"filename", filename,
		"fileSize", len(fileData))

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(fileData); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/scan", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("X-Source", "docscan-worker")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to remote scan service failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	var result engine.ExtractionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse remote result: %w", err)
	}

	c.logger.Info("Remote scan complete",
		"documentType", result.DocumentType,
		"confidence", result.Confidence,
		"fields", len(result.Fields))

	return &result, nil
}

// HealthCheck verifies the remote scan service is reachable.
func (c *RemoteClient) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/api/health", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	req.Header.Set("X-Source", "docscan-worker")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &RemoteError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
