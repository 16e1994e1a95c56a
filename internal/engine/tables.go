package engine

import (
	"regexp"
	"strings"
)

/**
 * Marksheet subject tables are recovered in three tiers. Structured
 * table blocks from the PDF layer are parsed first; if none yield a
 * row, a grid heuristic runs over the same blocks, and finally a
 * stream heuristic over the raw text lines. The first tier producing
 * at least one row wins.
 */

var (
	tableHeaderHints = []string{"SUBJECT", "GRADE", "MARKS", "POINT", "SCORE"}
	gradeRe          = regexp.MustCompile(`(?i)\bA[1-4]\b|\bB[12]?\b|\bC[12]?\b|\bD\b|\bE\b|\bF\b`)
	marksRe          = regexp.MustCompile(`\b([0-9]{1,3})(?:\.\d+)?\b`)
	subjectNoiseRe   = regexp.MustCompile(`\b(FIRST|SECOND|THIRD|FOURTH|FIFTH|LANGUAGE|CURRICULAR|CO-CURRICULAR|AREA|VALUE|EDUCATION|WORK|&|AND|THE|SUBJECT|SUBJECTS|GRADE|POINT|CODE)\b`)
	subjectPunctRe   = regexp.MustCompile(`[():\-|,.\\/]`)
	subjectSpaceRe   = regexp.MustCompile(`\s+`)
	alphaTokenRe     = regexp.MustCompile(`^[A-Z]{3,}$`)
)

// ExtractTable runs the tiered table recovery for a marksheet.
func ExtractTable(tables []TableBlock, text string) []TableRow {
	if rows := parseStructuredTables(tables); len(rows) > 0 {
		return rows
	}
	if rows := parseGridTables(tables); len(rows) > 0 {
		return rows
	}
	return parseStreamLines(splitLines(text))
}

// parseStructuredTables maps header cells to subject/grade/marks
// columns and reads the rows below the header.
func parseStructuredTables(tables []TableBlock) []TableRow {
	var rows []TableRow
	for _, tbl := range tables {
		headerIdx := -1
		for i, row := range tbl {
			if i >= 5 {
				break
			}
			joined := strings.ToUpper(strings.Join(row, " "))
			for _, h := range tableHeaderHints {
				if strings.Contains(joined, h) {
					headerIdx = i
					break
				}
			}
			if headerIdx >= 0 {
				break
			}
		}
		if headerIdx < 0 {
			continue
		}

		subjectCol, gradeCol, marksCol := -1, -1, -1
		for ci, h := range tbl[headerIdx] {
			h = strings.ToLower(strings.TrimSpace(h))
			switch {
			case strings.Contains(h, "subject") || strings.Contains(h, "course") || strings.Contains(h, "paper"):
				subjectCol = ci
			case strings.Contains(h, "grade"):
				gradeCol = ci
			case strings.Contains(h, "point") || strings.Contains(h, "marks") ||
				strings.Contains(h, "score") || strings.Contains(h, "total"):
				marksCol = ci
			}
		}

		for _, row := range tbl[headerIdx+1:] {
			r := TableRow{
				Subject: cleanSubject(cellAt(row, subjectCol)),
				Grade:   cellAt(row, gradeCol),
				Marks:   cellAt(row, marksCol),
			}
			if r.Subject != "" || r.Grade != "" || r.Marks != "" {
				rows = append(rows, r)
			}
		}
	}
	return rows
}

// parseGridTables handles blocks without a recognizable header: any
// row carrying both a grade token and a small number is taken as a
// subject row, with the leading text as the subject.
func parseGridTables(tables []TableBlock) []TableRow {
	var rows []TableRow
	for _, tbl := range tables {
		for _, row := range tbl {
			joined := strings.TrimSpace(strings.Join(row, " "))
			if joined == "" {
				continue
			}
			g := gradeRe.FindStringIndex(joined)
			m := marksRe.FindStringSubmatch(joined)
			if g == nil || m == nil {
				continue
			}
			rows = append(rows, TableRow{
				Subject: cleanSubject(joined[:g[0]]),
				Grade:   strings.TrimSpace(joined[g[0]:g[1]]),
				Marks:   m[1],
			})
		}
	}
	return rows
}

// parseStreamLines recovers rows from raw OCR text. A four line
// window is scanned for subject-grade-marks in one stretch; failing
// that, a vertical subject / grade / marks triple is tried.
func parseStreamLines(lines []string) []TableRow {
	var rows []TableRow
	used := make(map[int]bool)
	n := len(lines)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}
		end := i + 4
		if end > n {
			end = n
		}
		window := strings.Join(lines[i:end], " ")
		g := gradeRe.FindStringIndex(window)
		m := marksRe.FindStringSubmatch(window)
		if g != nil && m != nil {
			if subj := cleanSubject(window[:g[0]]); subj != "" {
				rows = append(rows, TableRow{
					Subject: subj,
					Grade:   strings.TrimSpace(window[g[0]:g[1]]),
					Marks:   m[1],
				})
				for k := i; k < end; k++ {
					used[k] = true
				}
				continue
			}
		}

		if i+2 < n {
			g2 := gradeRe.FindString(lines[i+1])
			m2 := marksRe.FindStringSubmatch(lines[i+2])
			if g2 != "" && m2 != nil {
				if subj := cleanSubject(lines[i]); subj != "" {
					rows = append(rows, TableRow{
						Subject: subj,
						Grade:   strings.TrimSpace(g2),
						Marks:   m2[1],
					})
					used[i], used[i+1], used[i+2] = true, true, true
				}
			}
		}
	}
	return dedupeRows(rows)
}

// cleanSubject strips boilerplate tokens and keeps the last real
// word, so "FIRST LANGUAGE - ENGLISH (184)" becomes "English".
func cleanSubject(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	s = strings.ToUpper(s)
	s = subjectNoiseRe.ReplaceAllString(s, " ")
	s = subjectPunctRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(subjectSpaceRe.ReplaceAllString(s, " "))
	if s == "" {
		return ""
	}
	tokens := strings.Split(s, " ")
	for i := len(tokens) - 1; i >= 0; i-- {
		if alphaTokenRe.MatchString(tokens[i]) {
			return titleCase(tokens[i])
		}
	}
	return titleCase(s)
}

func dedupeRows(rows []TableRow) []TableRow {
	seen := make(map[string]bool)
	out := rows[:0]
	for _, r := range rows {
		key := strings.ToUpper(r.Subject) + "|" + r.Grade + "|" + r.Marks
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
