/**
 * Image Quality Assessment
 *
 * Scores a scan before extraction so the confidence formula can
 * discount fields read from bad images. Four signals, weighted:
 * sharpness (Laplacian variance) 0.4, brightness 0.3, contrast 0.2,
 * resolution 0.1. PDFs and undecodable inputs get a neutral report
 * instead of failing the scan.
 */

package ocr

import (
	"bytes"
	"image"
	"math"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/docuverify/docscan-worker/internal/engine"
)

const (
	sharpnessWeight  = 0.4
	brightnessWeight = 0.3
	contrastWeight   = 0.2
	resolutionWeight = 0.1

	// Variance of the Laplacian at which a scan counts as fully sharp.
	sharpnessCeiling = 500.0

	minUsableDim = 600
	goodDim      = 1200
)

// neutralQuality stands in when the image cannot be decoded, so one
// bad header never zeroes a whole document's quality sub-score.
func neutralQuality() engine.QualityReport {
	return engine.QualityReport{Score: 75, Grade: "unknown"}
}

// AssessQuality decodes the image and scores it 0-100.
func AssessQuality(fileData []byte) engine.QualityReport {
	img, _, err := image.Decode(bytes.NewReader(fileData))
	if err != nil {
		return neutralQuality()
	}

	gray := toGray(img)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 3 || h < 3 {
		return neutralQuality()
	}

	sharpness := sharpnessScore(gray)
	brightness, contrast := brightnessContrastScores(gray)
	resolution := resolutionScore(w, h)

	score := sharpness*sharpnessWeight +
		brightness*brightnessWeight +
		contrast*contrastWeight +
		resolution*resolutionWeight

	report := engine.QualityReport{Score: math.Round(score*10) / 10}
	switch {
	case sharpness < 40:
		report.Grade = "blurry"
		report.Issues = append(report.Issues, "image appears blurry")
	case brightness < 40:
		report.Grade = "poor_lighting"
		report.Issues = append(report.Issues, "image too dark or too bright")
	case contrast < 40:
		report.Grade = "low_contrast"
		report.Issues = append(report.Issues, "low contrast between text and background")
	default:
		report.Grade = "good"
	}
	if resolution < 40 {
		report.Issues = append(report.Issues, "resolution too low for reliable OCR")
	}
	return report
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

// sharpnessScore is the variance of the 4-neighbour Laplacian, scaled
// against the ceiling.
func sharpnessScore(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var sum, sumSq float64
	n := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			lap := 4*c -
				float64(gray.GrayAt(bounds.Min.X+x-1, bounds.Min.Y+y).Y) -
				float64(gray.GrayAt(bounds.Min.X+x+1, bounds.Min.Y+y).Y) -
				float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y-1).Y) -
				float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y+1).Y)
			sum += lap
			sumSq += lap * lap
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	return clamp100(variance / sharpnessCeiling * 100)
}

// brightnessContrastScores reads mean luminance and its standard
// deviation. Mid-range brightness scores best; contrast scales with
// the spread.
func brightnessContrastScores(gray *image.Gray) (float64, float64) {
	bounds := gray.Bounds()
	var sum, sumSq float64
	n := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := float64(gray.GrayAt(x, y).Y)
			sum += v
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	stddev := math.Sqrt(math.Max(0, variance))

	brightness := 100 - math.Abs(mean-127.5)/127.5*100
	contrast := clamp100(stddev / 64 * 100)
	return clamp100(brightness), contrast
}

func resolutionScore(w, h int) float64 {
	short := w
	if h < short {
		short = h
	}
	switch {
	case short >= goodDim:
		return 100
	case short < minUsableDim:
		return float64(short) / minUsableDim * 40
	default:
		return 40 + float64(short-minUsableDim)/float64(goodDim-minUsableDim)*60
	}
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
