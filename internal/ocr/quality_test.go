/**
 * Image Quality Assessment Tests
 *
 * Runs the scorer over synthetic PNGs: sharp high-contrast scans,
 * flat blurry ones, and undecodable payloads.
 */

package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func checkerboard(size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func uniformGray(size int, value uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetGray(x, y, color.Gray{Y: value})
		}
	}
	return img
}

func TestAssessQualitySharpImage(t *testing.T) {
	// A checkerboard maxes out sharpness and contrast and sits at the
	// ideal mid brightness.
	report := AssessQuality(encodePNG(t, checkerboard(700)))

	if report.Grade != "good" {
		t.Errorf("grade = %q (score %v, issues %v), want good",
			report.Grade, report.Score, report.Issues)
	}
	if report.Score < 80 {
		t.Errorf("score = %v, want >= 80", report.Score)
	}
	if len(report.Issues) != 0 {
		t.Errorf("issues = %v, want none", report.Issues)
	}
}

func TestAssessQualityFlatImage(t *testing.T) {
	report := AssessQuality(encodePNG(t, uniformGray(50, 127)))

	if report.Grade != "blurry" {
		t.Errorf("grade = %q, want blurry", report.Grade)
	}
	if report.Score > 50 {
		t.Errorf("score = %v, want <= 50", report.Score)
	}

	// Flat 50x50: no detail and far below the usable resolution.
	if len(report.Issues) != 2 {
		t.Errorf("issues = %v, want blur and resolution warnings", report.Issues)
	}
}

func TestAssessQualityUndecodableInput(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"Garbage bytes", []byte("definitely not an image")},
		{"Empty input", nil},
		{"PDF payload", []byte("%PDF-1.7 ...")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report := AssessQuality(tc.data)
			if report.Score != 75 || report.Grade != "unknown" {
				t.Errorf("report = %+v, want neutral 75/unknown", report)
			}
		})
	}
}

func TestResolutionScore(t *testing.T) {
	testCases := []struct {
		w, h int
		want float64
	}{
		{1200, 1600, 100},
		{2400, 1200, 100},
		{600, 800, 40},
		{900, 1200, 70},
		{300, 400, 20},
	}
	for _, tc := range testCases {
		if got := resolutionScore(tc.w, tc.h); got != tc.want {
			t.Errorf("resolutionScore(%d, %d) = %v, want %v", tc.w, tc.h, got, tc.want)
		}
	}
}
