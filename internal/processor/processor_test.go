/**
 * Scan Processor Tests
 *
 * Exercises the two-tier orchestration policy against stub HTTP
 * backends: single retry on retryable failures, no retry on client
 * errors, and schema completion of remote answers.
 */

package processor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/docuverify/docscan-worker/internal/clients"
	"github.com/docuverify/docscan-worker/internal/engine"
	"github.com/docuverify/docscan-worker/internal/logging"
)

func newTestProcessor(remoteURL string) *ScanProcessor {
	cfg := &ProcessorConfig{
		RemoteAPIURL:  remoteURL,
		RemoteTimeout: 5 * time.Second,
	}
	return &ScanProcessor{
		config:   cfg,
		remote:   clients.NewRemoteClient(remoteURL, cfg.RemoteTimeout),
		pipeline: engine.NewPipeline(nil),
		logger:   logging.NewLogger("ScanProcessorTest"),
	}
}

func remoteAnswer() *engine.ExtractionResult {
	v := "ABCDE1234F"
	return &engine.ExtractionResult{
		DocumentType: engine.DocTypePAN,
		Fields: map[string]engine.FieldValue{
			"pan": {Value: &v, Confidence: 96, Status: engine.StatusPass, Threshold: 75},
		},
		Confidence: 92.5,
	}
}

func TestTryRemoteRetriesOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "temporarily overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(remoteAnswer())
	}))
	defer server.Close()

	p := newTestProcessor(server.URL)
	req := &ScanRequest{JobID: "job-1", Filename: "pan.jpg"}

	result, attempts, err := p.tryRemote(context.Background(), req, []byte("fake image"))
	if err != nil {
		t.Fatalf("tryRemote failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("backend called %d times, want 2", got)
	}
	if len(attempts) != 2 {
		t.Errorf("recorded %d attempts, want 2", len(attempts))
	}
	if attempts[0].Err == "" || attempts[1].Err != "" {
		t.Errorf("attempt records = %+v, want failed then clean", attempts)
	}
	if result.DocumentType != engine.DocTypePAN {
		t.Errorf("document type = %s, want PAN", result.DocumentType)
	}
}

func TestTryRemoteGivesUpAfterOneRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "still broken", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := newTestProcessor(server.URL)
	req := &ScanRequest{JobID: "job-2", Filename: "pan.jpg"}

	_, attempts, err := p.tryRemote(context.Background(), req, []byte("fake image"))
	if err == nil {
		t.Fatal("expected an error after both attempts failed")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("backend called %d times, want exactly 2", got)
	}
	if len(attempts) != 2 {
		t.Errorf("recorded %d attempts, want 2", len(attempts))
	}
}

func TestTryRemoteClientErrorIsTerminal(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unsupported file", http.StatusBadRequest)
	}))
	defer server.Close()

	p := newTestProcessor(server.URL)
	req := &ScanRequest{JobID: "job-3", Filename: "pan.jpg"}

	_, attempts, err := p.tryRemote(context.Background(), req, []byte("fake image"))
	if err == nil {
		t.Fatal("expected an error for a rejected request")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("backend called %d times, want 1 (no retry on 4xx)", got)
	}
	if len(attempts) != 1 {
		t.Errorf("recorded %d attempts, want 1", len(attempts))
	}
}

func TestTryRemoteStopsOnCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := newTestProcessor(server.URL)
	req := &ScanRequest{JobID: "job-4", Filename: "pan.jpg"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.tryRemote(ctx, req, []byte("fake image"))
	if err == nil {
		t.Fatal("expected an error with a cancelled context")
	}
}

func TestNormalizeRemoteCompletesSchema(t *testing.T) {
	cfg := engine.DefaultScoringConfig()
	result := remoteAnswer()

	normalizeRemote(cfg, result)

	if result.SourceBackend != engine.BackendRemote {
		t.Errorf("source backend = %s, want remote", result.SourceBackend)
	}
	if len(result.Fields) != len(engine.DocTypePAN.Schema()) {
		t.Fatalf("got %d fields, want full schema of %d",
			len(result.Fields), len(engine.DocTypePAN.Schema()))
	}

	// The remote field stays exactly as sent.
	pan := result.Fields["pan"]
	if pan.Value == nil || *pan.Value != "ABCDE1234F" || pan.Confidence != 96 {
		t.Errorf("pan field rewritten: %+v", pan)
	}

	// Backfilled fields are null with their configured thresholds.
	dob := result.Fields["dob"]
	if dob.Value != nil || dob.Status != engine.StatusFail || dob.Threshold != cfg.Threshold("dob") {
		t.Errorf("dob backfill = %+v, want null/FAIL/%v", dob, cfg.Threshold("dob"))
	}
}

func TestNormalizeRemoteDerivesMissingStatus(t *testing.T) {
	cfg := engine.DefaultScoringConfig()
	pan := "ABCDE1234F"
	name := "RAHUL SHARMA"
	result := &engine.ExtractionResult{
		DocumentType: engine.DocTypePAN,
		Fields: map[string]engine.FieldValue{
			"pan":  {Value: &pan, Confidence: 96},
			"name": {Value: &name, Confidence: 68},
		},
	}

	normalizeRemote(cfg, result)

	panField := result.Fields["pan"]
	if panField.Threshold != cfg.Threshold("pan") {
		t.Errorf("pan threshold = %v, want %v", panField.Threshold, cfg.Threshold("pan"))
	}
	if panField.Status != engine.StatusPass {
		t.Errorf("pan status = %s, want PASS for 96 against %v", panField.Status, panField.Threshold)
	}

	nameField := result.Fields["name"]
	if nameField.Status != engine.StatusReview {
		t.Errorf("name status = %s, want REVIEW for 68 against %v", nameField.Status, nameField.Threshold)
	}
}

func TestNormalizeRemoteKeepsReportedStatus(t *testing.T) {
	cfg := engine.DefaultScoringConfig()
	v := "ABCDE1234F"
	result := &engine.ExtractionResult{
		DocumentType: engine.DocTypePAN,
		Fields: map[string]engine.FieldValue{
			"pan": {Value: &v, Confidence: 50, Status: engine.StatusPass, Threshold: 40},
		},
	}

	normalizeRemote(cfg, result)

	pan := result.Fields["pan"]
	if pan.Status != engine.StatusPass || pan.Threshold != 40 {
		t.Errorf("remote verdict rewritten: %+v", pan)
	}
}

func TestNormalizeRemoteNilFields(t *testing.T) {
	result := &engine.ExtractionResult{DocumentType: engine.DocTypeAadhaar}
	normalizeRemote(engine.DefaultScoringConfig(), result)
	if len(result.Fields) != len(engine.DocTypeAadhaar.Schema()) {
		t.Errorf("got %d fields, want %d", len(result.Fields), len(engine.DocTypeAadhaar.Schema()))
	}
}

func TestProcessDocumentSniffsMimeType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(remoteAnswer())
	}))
	defer server.Close()

	p := newTestProcessor(server.URL)
	req := &ScanRequest{
		JobID:      "job-5",
		Filename:   "scan.bin",
		MimeType:   "application/octet-stream",
		FileBuffer: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	}

	if _, err := p.ProcessDocument(context.Background(), req); err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}
	if req.MimeType != "image/png" {
		t.Errorf("mime type = %q, want image/png from magic bytes", req.MimeType)
	}
}

func TestProcessDocumentFallsBackToPDFByName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(remoteAnswer())
	}))
	defer server.Close()

	p := newTestProcessor(server.URL)
	req := &ScanRequest{
		JobID:      "job-6",
		Filename:   "marksheet.pdf",
		FileBuffer: []byte("no recognizable magic"),
	}

	if _, err := p.ProcessDocument(context.Background(), req); err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}
	if req.MimeType != "application/pdf" {
		t.Errorf("mime type = %q, want application/pdf from the filename", req.MimeType)
	}
}

func TestDetectMimeType(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		want string
	}{
		{"PDF", []byte("%PDF-1.7 rest"), "application/pdf"},
		{"PNG", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, "image/png"},
		{"JPEG", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg"},
		{"WEBP", []byte("RIFF....WEBPVP8 data"), "image/webp"},
		{"TIFF little endian", []byte{0x49, 0x49, 0x2A, 0x00, 0x01}, "image/tiff"},
		{"TIFF big endian", []byte{0x4D, 0x4D, 0x00, 0x2A, 0x01}, "image/tiff"},
		{"BMP", []byte("BM\x00\x00\x00\x00"), "image/bmp"},
		{"Unknown", []byte("plain text file"), ""},
		{"Too short", []byte{0x01}, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectMimeType(tc.data); got != tc.want {
				t.Errorf("DetectMimeType = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsPDF(t *testing.T) {
	if !IsPDF([]byte("%PDF-1.4"), "scan.jpg") {
		t.Error("magic bytes not recognized")
	}
	if !IsPDF([]byte("binary"), "Document.PDF") {
		t.Error("filename extension not recognized")
	}
	if IsPDF([]byte("binary"), "scan.jpg") {
		t.Error("plain image misidentified as PDF")
	}
}
