/**
 * Remote Scan Client Tests
 *
 * Covers the multipart upload, result decoding, health checks and the
 * retryable/terminal error classification.
 */

package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docuverify/docscan-worker/internal/engine"
)

func TestScanUploadsMultipartAndDecodesResult(t *testing.T) {
	fileBytes := []byte("fake image bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/scan" {
			t.Errorf("path = %s, want /api/scan", r.URL.Path)
		}
		if r.Header.Get("X-Source") != "docscan-worker" {
			t.Errorf("X-Source = %q, want docscan-worker", r.Header.Get("X-Source"))
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "pan.jpg" {
			t.Errorf("filename = %q, want pan.jpg", header.Filename)
		}

		v := "ABCDE1234F"
		json.NewEncoder(w).Encode(engine.ExtractionResult{
			DocumentType: engine.DocTypePAN,
			Fields: map[string]engine.FieldValue{
				"pan": {Value: &v, Confidence: 96, Status: engine.StatusPass},
			},
			Confidence:    92.5,
			SourceBackend: engine.BackendRemote,
		})
	}))
	defer server.Close()

	client := NewRemoteClient(server.URL, 5*time.Second)
	result, err := client.Scan(context.Background(), "pan.jpg", fileBytes)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if result.DocumentType != engine.DocTypePAN {
		t.Errorf("document type = %s, want PAN", result.DocumentType)
	}
	if result.Confidence != 92.5 {
		t.Errorf("confidence = %v, want 92.5", result.Confidence)
	}
	if result.Fields["pan"].Value == nil || *result.Fields["pan"].Value != "ABCDE1234F" {
		t.Errorf("pan field = %+v, want ABCDE1234F", result.Fields["pan"])
	}
}

func TestScanNon200IsRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "over capacity", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewRemoteClient(server.URL, 5*time.Second)
	_, err := client.Scan(context.Background(), "pan.jpg", []byte("data"))

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("error type = %T, want *RemoteError", err)
	}
	if remoteErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", remoteErr.StatusCode)
	}
	if !remoteErr.Retryable() {
		t.Error("503 should be retryable")
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("path = %s, want /api/health", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	client := NewRemoteClient(healthy.URL, 5*time.Second)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("healthy service reported error: %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	client = NewRemoteClient(down.URL, 5*time.Second)
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Error("down service reported healthy")
	}
}

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "connection reset" }
func (fakeNetError) Timeout() bool   { return true }
func (fakeNetError) Temporary() bool { return true }

func TestIsRetryable(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{"Server error", &RemoteError{StatusCode: 500}, true},
		{"Gateway timeout", &RemoteError{StatusCode: 504}, true},
		{"Client error", &RemoteError{StatusCode: 400}, false},
		{"Unsupported media", &RemoteError{StatusCode: 415}, false},
		{"Deadline exceeded", context.DeadlineExceeded, true},
		{"Wrapped deadline", errors.Join(errors.New("scan failed"), context.DeadlineExceeded), true},
		{"Net error", fakeNetError{}, true},
		{"Op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"Plain error", errors.New("bad payload"), false},
		{"Nil-adjacent error", errors.New(""), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
