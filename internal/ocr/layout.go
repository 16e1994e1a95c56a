/**
 * Layout Analysis - Table region detection
 *
 * Heuristic table recovery from OCR text: consecutive lines sharing a
 * delimiter (pipe, tab, comma) with a stable column count form a
 * table region; each region becomes a structured cell grid for the
 * downstream parsers.
 */

package ocr

import (
	"strings"

	"github.com/docuverify/docscan-worker/internal/engine"
)

var tableDelimiters = []string{"|", "\t", ","}

// DetectTables finds delimiter-structured regions in OCR text.
func DetectTables(text string) []engine.TableBlock {
	var lines []string
	for _, ln := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if strings.TrimSpace(ln) != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) < 2 {
		return nil
	}

	var tables []engine.TableBlock
	i := 0
	for i < len(lines) {
		delim := detectDelimiter(lines[i])
		if delim == "" {
			i++
			continue
		}

		start := i
		expectedCols := strings.Count(lines[i], delim)
		i++
		for i < len(lines) {
			if detectDelimiter(lines[i]) != delim {
				break
			}
			// Allow one column of drift for ragged OCR rows.
			if diff := strings.Count(lines[i], delim) - expectedCols; diff < -1 || diff > 1 {
				break
			}
			i++
		}

		// Header plus at least one data row.
		if i-start >= 2 {
			block := make(engine.TableBlock, 0, i-start)
			for _, ln := range lines[start:i] {
				block = append(block, splitCells(ln, delim))
			}
			tables = append(tables, block)
		}
	}
	return tables
}

func detectDelimiter(line string) string {
	for _, d := range tableDelimiters {
		if strings.Count(line, d) >= 2 {
			return d
		}
	}
	return ""
}

func splitCells(line, delim string) []string {
	cells := strings.Split(line, delim)
	if delim == "|" {
		if len(cells) > 0 && strings.TrimSpace(cells[0]) == "" {
			cells = cells[1:]
		}
		if len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" {
			cells = cells[:len(cells)-1]
		}
	}
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}
