package partition

import (
	"regexp"
	"strings"
)

// maxCellWords keeps prose with double spacing from being read as columns.
const maxCellWords = 8

var (
	wideGapRe      = regexp.MustCompile(`\s{2,}`)
	separatorRowRe = regexp.MustCompile(`^[\s|:+=-]+$`)
)

// splitCells breaks a line into columns on pipes, tabs or runs of two or more
// spaces, in that order of preference.
func splitCells(line string) []string {
	line = strings.TrimSpace(line)
	var raw []string
	switch {
	case strings.Contains(line, "|"):
		raw = strings.Split(strings.Trim(line, "|"), "|")
	case strings.Contains(line, "\t"):
		raw = strings.Split(line, "\t")
	default:
		raw = wideGapRe.Split(line, -1)
	}
	cells := make([]string, 0, len(raw))
	for _, c := range raw {
		cells = append(cells, strings.TrimSpace(c))
	}
	return cells
}

// isSeparatorRow reports lines like "---|:---:" that only frame a table.
func isSeparatorRow(line string) bool {
	return strings.Contains(line, "-") && separatorRowRe.MatchString(line)
}

// looksLikeTable reports whether a block of plain text is column structured:
// at least two data rows, every row with two or more cells, and a column
// count that varies by at most one between rows.
func looksLikeTable(block string) bool {
	rows := 0
	minCols, maxCols := 0, 0
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) == "" || isSeparatorRow(line) {
			continue
		}
		cells := splitCells(line)
		n := len(cells)
		if n < 2 {
			return false
		}
		for _, c := range cells {
			if len(strings.Fields(c)) > maxCellWords {
				return false
			}
		}
		if rows == 0 || n < minCols {
			minCols = n
		}
		if n > maxCols {
			maxCols = n
		}
		rows++
	}
	return rows >= 2 && maxCols-minCols <= 1
}

// renderRows formats structured table rows one per line with pipe separators.
func renderRows(rows [][]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		empty := true
		for _, c := range row {
			if c != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n")
}

// looksLikeTitle reports a short single line without sentence punctuation.
func looksLikeTitle(block string) bool {
	block = strings.TrimSpace(block)
	if block == "" || strings.Contains(block, "\n") || len(block) > 80 {
		return false
	}
	if strings.ContainsAny(block[len(block)-1:], ".!?,;:") {
		return false
	}
	return len(strings.Fields(block)) <= 10
}
