/**
 * Tesseract OCR Adapter
 *
 * Local OCR for the fallback pipeline. Each document gets two passes
 * with different page segmentation modes: block-oriented (PSM 6) as
 * primary and column-oriented (PSM 4) as secondary, so layouts the
 * first mode garbles still yield field candidates. Word-level boxes
 * feed the token confidence statistics behind the scoring formula.
 */

package ocr

import (
	"bytes"
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/docuverify/docscan-worker/internal/engine"
)

// lowConfCutoff and highConfCutoff bucket word confidences for the
// token statistics.
const (
	lowConfCutoff  = 40.0
	highConfCutoff = 80.0
)

// Tesseract wraps gosseract for document scans.
type Tesseract struct {
	language string
}

// Config holds the OCR adapter configuration.
type Config struct {
	Language string
}

// NewTesseract creates an OCR adapter. Language defaults to English.
func NewTesseract(cfg *Config) *Tesseract {
	lang := "eng"
	if cfg != nil && cfg.Language != "" {
		lang = cfg.Language
	}
	return &Tesseract{language: lang}
}

// Passes runs the primary and secondary OCR pass over one image.
// The secondary pass is best-effort: its failure is swallowed and the
// primary pass alone is returned.
func (t *Tesseract) Passes(ctx context.Context, fileData []byte) ([]engine.RawOcrResult, error) {
	primary, err := t.runPass(ctx, fileData, gosseract.PSM_SINGLE_BLOCK)
	if err != nil {
		return nil, err
	}

	passes := []engine.RawOcrResult{primary}
	if secondary, err := t.runPass(ctx, fileData, gosseract.PSM_SINGLE_COLUMN); err == nil {
		passes = append(passes, secondary)
	}
	return passes, nil
}

func (t *Tesseract) runPass(ctx context.Context, fileData []byte, psm gosseract.PageSegMode) (engine.RawOcrResult, error) {
	if err := ctx.Err(); err != nil {
		return engine.RawOcrResult{}, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return engine.RawOcrResult{}, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(psm); err != nil {
		return engine.RawOcrResult{}, fmt.Errorf("failed to set page seg mode: %w", err)
	}
	if err := client.SetImageFromBytes(fileData); err != nil {
		return engine.RawOcrResult{}, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return engine.RawOcrResult{}, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Text without word boxes is still usable; the OCR sub-score
		// just reads zero.
		boxes = nil
	}

	result := engine.RawOcrResult{
		Text:    text,
		Tokens:  tokenStats(boxes),
		Quality: AssessQuality(fileData),
		Tables:  DetectTables(text),
		IsPDF:   bytes.HasPrefix(fileData, []byte("%PDF")),
	}
	return result, nil
}

// tokenStats summarizes word-level confidences.
func tokenStats(boxes []gosseract.BoundingBox) engine.TokenStats {
	stats := engine.TokenStats{}
	if len(boxes) == 0 {
		return stats
	}

	stats.Min = boxes[0].Confidence
	stats.Max = boxes[0].Confidence
	sum := 0.0
	for _, b := range boxes {
		c := b.Confidence
		sum += c
		if c < stats.Min {
			stats.Min = c
		}
		if c > stats.Max {
			stats.Max = c
		}
		if c < lowConfCutoff {
			stats.LowConfWords++
		}
		if c >= highConfCutoff {
			stats.HighConfWords++
		}
	}
	stats.WordCount = len(boxes)
	stats.Average = sum / float64(len(boxes))
	return stats
}
