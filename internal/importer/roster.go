package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RosterStudent is one parsed row of a student roster upload. Row is
// the 1-based spreadsheet row it came from, for reporting failures that
// happen after parsing.
type RosterStudent struct {
	Row        int
	RollNo     string
	Name       string
	Email      string
	Password   string
	Department *string
	Semester   *int
	Phone      *string
}

// RowError ties a parse failure to the 1-based spreadsheet row it came
// from, counting the header as row 1.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// RosterResult is the outcome of a roster parse. Students holds the rows
// that parsed cleanly; Errors holds per-row failures. A file-level
// failure (missing required columns) yields zero students and a single
// error with Row 1.
type RosterResult struct {
	Students    []RosterStudent
	Errors      []RowError
	TotalRows   int
	TotalParsed int
}

var emailRe = regexp.MustCompile(`^[\w\.-]+@[\w\.-]+\.\w+$`)

// Column header synonyms accepted for each roster field, compared after
// lowercasing and trimming.
var rosterHeaders = map[string][]string{
	"roll_no":    {"roll no", "roll_no", "rollno", "roll number", "roll"},
	"name":       {"name", "student name", "full name"},
	"email":      {"email", "e-mail", "email id"},
	"password":   {"password", "pwd", "pass"},
	"department": {"department", "dept", "branch"},
	"semester":   {"semester", "sem"},
	"phone":      {"phone", "mobile", "contact", "phone number", "mobile number"},
}

var rosterRequired = []string{"roll_no", "name", "email"}

// RosterOptions tune a roster parse.
type RosterOptions struct {
	// DefaultPassword fills rows whose password cell is blank or whose
	// file has no password column.
	DefaultPassword string
	// MaxRows caps how many data rows are considered; 0 means no cap.
	// When the cap trips a row error is appended noting the truncation.
	MaxRows int
}

// ParseRoster parses raw spreadsheet rows into roster students. The
// first row is the header; fields are located by synonym match, so
// column order does not matter. Rows with a blank roll number, or ones
// that merely repeat the header, are skipped silently. Rows with a
// blank name, blank email or malformed email produce a row error and
// parsing continues.
func ParseRoster(rows [][]string, opts RosterOptions) RosterResult {
	var res RosterResult
	if len(rows) == 0 {
		res.Errors = append(res.Errors, RowError{Row: 1, Message: "file is empty"})
		return res
	}

	cols := mapColumns(rows[0], rosterHeaders)
	var missing []string
	for _, req := range rosterRequired {
		if _, ok := cols[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		res.Errors = append(res.Errors, RowError{
			Row:     1,
			Message: "Missing required columns: " + strings.Join(missing, ", "),
		})
		return res
	}

	data := rows[1:]
	res.TotalRows = len(data)
	if opts.MaxRows > 0 && len(data) > opts.MaxRows {
		data = data[:opts.MaxRows]
		res.Errors = append(res.Errors, RowError{
			Row:     opts.MaxRows + 1,
			Message: fmt.Sprintf("truncated after %d rows", opts.MaxRows),
		})
	}

	for idx, row := range data {
		rowNum := idx + 2

		rollNo := strings.TrimSpace(cell(row, cols["roll_no"]))
		if rollNo == "" || isHeaderEcho(rollNo, rosterHeaders["roll_no"]) {
			continue
		}

		name := strings.TrimSpace(cell(row, cols["name"]))
		email := strings.ToLower(strings.TrimSpace(cell(row, cols["email"])))
		if name == "" {
			res.Errors = append(res.Errors, RowError{Row: rowNum, Message: "name is required"})
			continue
		}
		if email == "" {
			res.Errors = append(res.Errors, RowError{Row: rowNum, Message: "email is required"})
			continue
		}
		if !emailRe.MatchString(email) {
			res.Errors = append(res.Errors, RowError{Row: rowNum, Message: fmt.Sprintf("invalid email %q", email)})
			continue
		}

		s := RosterStudent{
			Row:      rowNum,
			RollNo:   rollNo,
			Name:     name,
			Email:    email,
			Password: opts.DefaultPassword,
		}
		if c, ok := cols["password"]; ok {
			if pw := strings.TrimSpace(cell(row, c)); pw != "" {
				s.Password = pw
			}
		}
		if c, ok := cols["department"]; ok {
			if dept := strings.TrimSpace(cell(row, c)); dept != "" {
				s.Department = &dept
			}
		}
		if c, ok := cols["semester"]; ok {
			if raw := strings.TrimSpace(cell(row, c)); raw != "" {
				if sem, err := strconv.Atoi(raw); err == nil {
					s.Semester = &sem
				}
			}
		}
		if c, ok := cols["phone"]; ok {
			if ph := strings.TrimSpace(cell(row, c)); ph != "" {
				s.Phone = &ph
			}
		}

		res.Students = append(res.Students, s)
		res.TotalParsed++
	}
	return res
}

// mapColumns resolves each logical field to its column index by synonym
// match against the header row. First match wins.
func mapColumns(header []string, synonyms map[string][]string) map[string]int {
	cols := make(map[string]int, len(synonyms))
	for i, raw := range header {
		h := strings.ToLower(strings.TrimSpace(raw))
		if h == "" {
			continue
		}
		for field, names := range synonyms {
			if _, taken := cols[field]; taken {
				continue
			}
			for _, n := range names {
				if h == n {
					cols[field] = i
					break
				}
			}
		}
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isHeaderEcho(value string, names []string) bool {
	v := strings.ToLower(value)
	for _, n := range names {
		if v == n {
			return true
		}
	}
	return false
}
