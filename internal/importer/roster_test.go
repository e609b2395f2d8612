package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoster_PartialSuccess(t *testing.T) {
	rows := [][]string{
		{"Roll No", "Name", "Email", "Semester"},
		{"CS101", "Asha Rao", "asha@college.edu", "3"},
		{"CS102", "", "blank.name@college.edu", "3"},
		{"CS103", "Vikram Shah", "not-an-email", "3"},
		{"CS104", "Meera Iyer", "meera@college.edu", ""},
		{"CS105", "Rahul Jain", "rahul@college.edu", "4"},
	}

	res := ParseRoster(rows, RosterOptions{DefaultPassword: "student123"})

	require.Len(t, res.Students, 3)
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, 5, res.TotalRows)
	assert.Equal(t, 3, res.TotalParsed)

	assert.Equal(t, "CS101", res.Students[0].RollNo)
	assert.Equal(t, 2, res.Students[0].Row)
	assert.Equal(t, 5, res.Students[1].Row)
	require.NotNil(t, res.Students[0].Semester)
	assert.Equal(t, 3, *res.Students[0].Semester)
	assert.Nil(t, res.Students[1].Semester)
	assert.Equal(t, "student123", res.Students[0].Password)

	// Row numbers count the header as row 1.
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Message, "name")
	assert.Equal(t, 4, res.Errors[1].Row)
	assert.Contains(t, res.Errors[1].Message, "invalid email")
}

func TestParseRoster_HeaderSynonyms(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{"canonical", []string{"Roll No", "Name", "Email"}},
		{"compact", []string{"rollno", "student name", "e-mail"}},
		{"verbose", []string{"Roll Number", "Full Name", "Email ID"}},
		{"short", []string{"roll", "name", "email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := [][]string{tt.header, {"CS201", "Devi Nair", "devi@college.edu"}}
			res := ParseRoster(rows, RosterOptions{DefaultPassword: "student123"})
			require.Len(t, res.Students, 1)
			assert.Empty(t, res.Errors)
			assert.Equal(t, "CS201", res.Students[0].RollNo)
		})
	}
}

func TestParseRoster_ColumnOrderIrrelevant(t *testing.T) {
	rows := [][]string{
		{"Email", "Phone", "Name", "Roll No", "Dept"},
		{"kiran@college.edu", "9876543210", "Kiran Kumar", "EC301", "ECE"},
	}
	res := ParseRoster(rows, RosterOptions{DefaultPassword: "student123"})
	require.Len(t, res.Students, 1)
	s := res.Students[0]
	assert.Equal(t, "EC301", s.RollNo)
	assert.Equal(t, "kiran@college.edu", s.Email)
	require.NotNil(t, s.Phone)
	assert.Equal(t, "9876543210", *s.Phone)
	require.NotNil(t, s.Department)
	assert.Equal(t, "ECE", *s.Department)
}

func TestParseRoster_MissingRequiredColumns(t *testing.T) {
	rows := [][]string{
		{"Name", "Phone"},
		{"Lost Student", "1234567890"},
	}
	res := ParseRoster(rows, RosterOptions{})
	assert.Empty(t, res.Students)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Message, "Missing required columns")
	assert.Contains(t, res.Errors[0].Message, "roll_no")
	assert.Contains(t, res.Errors[0].Message, "email")
}

func TestParseRoster_SilentSkips(t *testing.T) {
	rows := [][]string{
		{"Roll No", "Name", "Email"},
		{"", "Ghost Row", "ghost@college.edu"},
		{"Roll No", "Name", "Email"}, // header pasted again mid-sheet
		{"ME401", "Sana Khan", "sana@college.edu"},
	}
	res := ParseRoster(rows, RosterOptions{DefaultPassword: "student123"})
	require.Len(t, res.Students, 1)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "ME401", res.Students[0].RollNo)
}

func TestParseRoster_PasswordColumnOverridesDefault(t *testing.T) {
	rows := [][]string{
		{"Roll No", "Name", "Email", "Password"},
		{"CS501", "Tara Menon", "tara@college.edu", "s3cret"},
		{"CS502", "Nikhil Das", "nikhil@college.edu", ""},
	}
	res := ParseRoster(rows, RosterOptions{DefaultPassword: "student123"})
	require.Len(t, res.Students, 2)
	assert.Equal(t, "s3cret", res.Students[0].Password)
	assert.Equal(t, "student123", res.Students[1].Password)
}

func TestParseRoster_MaxRowsTruncates(t *testing.T) {
	rows := [][]string{{"Roll No", "Name", "Email"}}
	for i := 0; i < 10; i++ {
		rows = append(rows, []string{
			"R" + string(rune('0'+i)), "Student", "s" + string(rune('0'+i)) + "@college.edu",
		})
	}
	res := ParseRoster(rows, RosterOptions{DefaultPassword: "pw", MaxRows: 4})
	assert.Len(t, res.Students, 4)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "truncated after 4 rows")
}

func TestReadCSV_RaggedRows(t *testing.T) {
	in := "Roll No,Name,Email\nCS601,Short Row,short@college.edu\nCS602,Long Row,long@college.edu,extra\n"
	rows, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	res := ParseRoster(rows, RosterOptions{DefaultPassword: "student123"})
	assert.Len(t, res.Students, 2)
	assert.Empty(t, res.Errors)
}
