package importer

import (
	"sort"
	"strings"
	"time"

	"github.com/gecr-dev/campus-api/internal/models"
)

// GridRecord is one attendance cell resolved against a calendar date.
type GridRecord struct {
	RollNo string
	Date   time.Time
	Status models.AttendanceStatus
}

// GridResult is the outcome of parsing an attendance grid: the dates
// recognized in the header, every resolvable cell, and row errors.
type GridResult struct {
	Dates   []time.Time
	Records []GridRecord
	Errors  []RowError
}

// Date layouts tried in order against header cells. Day-first formats
// take precedence over month-first.
var gridDateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"01/02/2006",
}

// Cell values mapped to a status, compared after uppercasing. Anything
// outside the vocabulary is skipped without error so stray markers in a
// sheet do not poison the import.
var gridStatusVocab = map[string]models.AttendanceStatus{
	"P": models.AttendanceStatusPresent, "PRESENT": models.AttendanceStatusPresent,
	"1": models.AttendanceStatusPresent, "Y": models.AttendanceStatusPresent, "YES": models.AttendanceStatusPresent,
	"A": models.AttendanceStatusAbsent, "ABSENT": models.AttendanceStatusAbsent,
	"0": models.AttendanceStatusAbsent, "N": models.AttendanceStatusAbsent, "NO": models.AttendanceStatusAbsent,
	"L": models.AttendanceStatusLate, "LATE": models.AttendanceStatusLate,
	"T": models.AttendanceStatusLate, "TARDY": models.AttendanceStatusLate,
}

// ParseAttendanceGrid parses a roll-by-date attendance sheet. The first
// row is the header: one column holds roll numbers, every other column
// whose header parses as a date becomes an attendance date. The parse
// aborts with a single error when no roll column or no date column can
// be found.
func ParseAttendanceGrid(rows [][]string) GridResult {
	var res GridResult
	if len(rows) == 0 {
		res.Errors = append(res.Errors, RowError{Row: 1, Message: "file is empty"})
		return res
	}

	header := rows[0]
	rollCol := -1
	dateCols := make(map[int]time.Time)
	for i, raw := range header {
		h := strings.TrimSpace(raw)
		if h == "" {
			continue
		}
		if rollCol == -1 && isHeaderEcho(h, rosterHeaders["roll_no"]) {
			rollCol = i
			continue
		}
		if d, ok := parseGridDate(h); ok {
			dateCols[i] = d
		}
	}

	if rollCol == -1 {
		res.Errors = append(res.Errors, RowError{Row: 1, Message: "no roll number column found"})
		return res
	}
	if len(dateCols) == 0 {
		res.Errors = append(res.Errors, RowError{Row: 1, Message: "no date columns found"})
		return res
	}

	cols := make([]int, 0, len(dateCols))
	for i := range dateCols {
		cols = append(cols, i)
		res.Dates = append(res.Dates, dateCols[i])
	}
	sort.Ints(cols)
	sort.Slice(res.Dates, func(a, b int) bool { return res.Dates[a].Before(res.Dates[b]) })

	for _, row := range rows[1:] {
		rollNo := strings.TrimSpace(cell(row, rollCol))
		if rollNo == "" || isHeaderEcho(rollNo, rosterHeaders["roll_no"]) {
			continue
		}
		for _, col := range cols {
			date := dateCols[col]
			raw := strings.ToUpper(strings.TrimSpace(cell(row, col)))
			if raw == "" {
				continue
			}
			status, ok := gridStatusVocab[raw]
			if !ok {
				continue
			}
			res.Records = append(res.Records, GridRecord{RollNo: rollNo, Date: date, Status: status})
		}
	}
	return res
}

func parseGridDate(s string) (time.Time, bool) {
	for _, layout := range gridDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
