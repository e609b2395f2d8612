// Package export renders downloadable artifacts for faculty: the
// attendance register PDF and the roster upload template.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RegisterRow is one student line in the attendance register.
type RegisterRow struct {
	RollNo  string
	Name    string
	Present int
	Absent  int
	Late    int
	Percent float64
}

// AttendanceRegisterPDF renders the per-subject attendance register.
func AttendanceRegisterPDF(subjectName string, rows []RegisterRow) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Attendance Register - "+subjectName, "", 1, "C", false, 0, "")
	pdf.Ln(5)

	headers := []string{"Roll No", "Name", "Present", "Absent", "Late", "%"}
	widths := []float64{30, 70, 22, 22, 22, 24}

	pdf.SetFont("Arial", "B", 10)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		pdf.CellFormat(widths[0], 7, row.RollNo, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 7, row.Name, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", row.Present), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%d", row.Absent), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, fmt.Sprintf("%d", row.Late), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 7, fmt.Sprintf("%.2f", row.Percent), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render attendance register: %w", err)
	}
	return buf.Bytes(), nil
}

// RosterTemplateCSV produces the header-only template faculty fill in
// before a bulk student upload.
func RosterTemplateCSV() ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write([]string{"Roll No", "Name", "Email", "Password", "Department", "Semester", "Phone"}); err != nil {
		return nil, fmt.Errorf("write roster template: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush roster template: %w", err)
	}
	return buf.Bytes(), nil
}
