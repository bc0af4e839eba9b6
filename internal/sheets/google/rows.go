package google

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	colID         = 6 // G
	colCategoryID = 7 // H
)

// cellInt reads an integer cell; Sheets may hand numbers back as strings or floats.
func cellInt(row []any, col int) (int64, bool) {
	if col >= len(row) {
		return 0, false
	}
	s := strings.TrimSpace(fmt.Sprint(row[col]))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return int64(f), true
	}
	return 0, false
}

// rowsMatching returns the 1-based row numbers whose col holds id.
func rowsMatching(values [][]any, col int, id int64) []int {
	var rows []int
	for i, row := range values {
		if n, ok := cellInt(row, col); ok && n == id {
			rows = append(rows, i+1)
		}
	}
	return rows
}

// targetRow is the row to write id into: its existing row, or the first row
// after the data.
func targetRow(values [][]any, id int64) int {
	if rows := rowsMatching(values, colID, id); len(rows) > 0 {
		return rows[0]
	}
	return len(values) + 1
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:H%d", sheet, row, row)
}
