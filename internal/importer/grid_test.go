package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gecr-dev/campus-api/internal/models"
)

func TestParseAttendanceGrid_Basic(t *testing.T) {
	rows := [][]string{
		{"Roll No", "01/02/2026", "02/02/2026"},
		{"CS101", "P", "A"},
		{"CS102", "L", "P"},
	}
	res := ParseAttendanceGrid(rows)

	require.Empty(t, res.Errors)
	require.Len(t, res.Dates, 2)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), res.Dates[0])
	assert.Equal(t, time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), res.Dates[1])

	require.Len(t, res.Records, 4)
	assert.Equal(t, models.AttendanceStatusPresent, res.Records[0].Status)
	assert.Equal(t, models.AttendanceStatusAbsent, res.Records[1].Status)
	assert.Equal(t, models.AttendanceStatusLate, res.Records[2].Status)
}

func TestParseAttendanceGrid_RecordsFollowColumnOrder(t *testing.T) {
	rows := [][]string{
		{"Roll No", "01/02/2026", "02/02/2026", "03/02/2026"},
		{"CS101", "P", "A", "L"},
	}
	want := []GridRecord{
		{RollNo: "CS101", Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Status: models.AttendanceStatusPresent},
		{RollNo: "CS101", Date: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), Status: models.AttendanceStatusAbsent},
		{RollNo: "CS101", Date: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), Status: models.AttendanceStatusLate},
	}

	// Cells must come out in header column order on every run, not in
	// whatever order the column map iterates.
	for i := 0; i < 20; i++ {
		res := ParseAttendanceGrid(rows)
		require.Empty(t, res.Errors)
		require.Equal(t, want, res.Records)
	}
}

func TestParseAttendanceGrid_DateFormats(t *testing.T) {
	want := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		header string
	}{
		{"day first slash", "05/03/2026"},
		{"iso", "2026-03-05"},
		{"day first dash", "05-03-2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := [][]string{
				{"Roll No", tt.header},
				{"CS101", "P"},
			}
			res := ParseAttendanceGrid(rows)
			require.Len(t, res.Dates, 1)
			assert.True(t, res.Dates[0].Equal(want), "got %s", res.Dates[0])
		})
	}
}

func TestParseAttendanceGrid_DayFirstWinsOverMonthFirst(t *testing.T) {
	// 03/04/2026 is ambiguous; day-first layout is tried before
	// month-first, so this is April 3rd.
	rows := [][]string{
		{"Roll No", "03/04/2026"},
		{"CS101", "P"},
	}
	res := ParseAttendanceGrid(rows)
	require.Len(t, res.Dates, 1)
	assert.Equal(t, time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC), res.Dates[0])
}

func TestParseAttendanceGrid_StatusVocabulary(t *testing.T) {
	tests := []struct {
		cell string
		want models.AttendanceStatus
	}{
		{"P", models.AttendanceStatusPresent},
		{"present", models.AttendanceStatusPresent},
		{"1", models.AttendanceStatusPresent},
		{"y", models.AttendanceStatusPresent},
		{"YES", models.AttendanceStatusPresent},
		{"A", models.AttendanceStatusAbsent},
		{"absent", models.AttendanceStatusAbsent},
		{"0", models.AttendanceStatusAbsent},
		{"n", models.AttendanceStatusAbsent},
		{"NO", models.AttendanceStatusAbsent},
		{"L", models.AttendanceStatusLate},
		{"late", models.AttendanceStatusLate},
		{"t", models.AttendanceStatusLate},
		{"TARDY", models.AttendanceStatusLate},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			rows := [][]string{
				{"Roll No", "2026-01-10"},
				{"CS101", tt.cell},
			}
			res := ParseAttendanceGrid(rows)
			require.Len(t, res.Records, 1)
			assert.Equal(t, tt.want, res.Records[0].Status)
		})
	}
}

func TestParseAttendanceGrid_UnknownCellsSkipped(t *testing.T) {
	rows := [][]string{
		{"Roll No", "2026-01-10", "2026-01-11"},
		{"CS101", "holiday", "P"},
		{"CS102", "", "?"},
	}
	res := ParseAttendanceGrid(rows)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "CS101", res.Records[0].RollNo)
}

func TestParseAttendanceGrid_AbortsWithoutRollColumn(t *testing.T) {
	rows := [][]string{
		{"Student", "2026-01-10"},
		{"CS101", "P"},
	}
	res := ParseAttendanceGrid(rows)
	assert.Empty(t, res.Records)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "roll number column")
}

func TestParseAttendanceGrid_AbortsWithoutDateColumns(t *testing.T) {
	rows := [][]string{
		{"Roll No", "Name", "Remarks"},
		{"CS101", "Asha Rao", "P"},
	}
	res := ParseAttendanceGrid(rows)
	assert.Empty(t, res.Records)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "no date columns")
}
