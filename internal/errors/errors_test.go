package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestScanErrorFormatting(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewRemoteFailedError("job-1", 2, cause)

	msg := err.Error()
	if !strings.Contains(msg, string(ErrorRemoteFailed)) {
		t.Errorf("message %q missing error code", msg)
	}
	if !strings.Contains(msg, "2 attempt(s)") {
		t.Errorf("message %q missing attempt count", msg)
	}
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("message %q missing cause", msg)
	}
}

func TestScanErrorUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewStorageFailedError("job-1", cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is does not reach the cause")
	}

	var scanErr *ScanError
	if !stderrors.As(error(err), &scanErr) {
		t.Error("errors.As does not recover the ScanError")
	}
}

func TestAllTiersFailedCarriesBothErrors(t *testing.T) {
	remoteErr := stderrors.New("remote 503")
	localErr := stderrors.New("tesseract crashed")
	err := NewAllTiersFailedError("job-1", remoteErr, localErr)

	if err.Details["remote_error"] != "remote 503" {
		t.Errorf("remote_error = %v", err.Details["remote_error"])
	}
	if err.Details["local_error"] != "tesseract crashed" {
		t.Errorf("local_error = %v", err.Details["local_error"])
	}
	if !stderrors.Is(err, localErr) {
		t.Error("cause should unwrap to the local error")
	}
}

func TestToMap(t *testing.T) {
	err := NewEmptyDocumentError("job-1", "scan.jpg")
	m := err.ToMap()

	if m["error_code"] != string(ErrorEmptyDocument) {
		t.Errorf("error_code = %v", m["error_code"])
	}
	if m["filename"] != "scan.jpg" {
		t.Errorf("filename detail = %v", m["filename"])
	}
	if _, ok := m["cause"]; ok {
		t.Error("cause key present without a cause")
	}
}
