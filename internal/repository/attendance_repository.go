package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gecr-dev/campus-api/internal/models"
)

// AttendanceRepository handles persistence of attendance records. One
// row exists per (student, subject, date); writes go through upserts so
// re-imports correct earlier marks instead of duplicating them.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceUpsertTail = ` ON CONFLICT (student_id, subject_id, date)
        DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
        RETURNING (xmax = 0) AS inserted`

// BulkUpsert writes a batch of marks in one transaction, one multi-row
// statement per chunk, and reports how many rows were inserted versus
// updated. When the batch marks the same (student, subject, date) more
// than once the last mark wins; a multi-row upsert cannot touch the
// same row twice. An empty batch is a no-op.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) (inserted, updated int, err error) {
	records = dedupeMarks(records)
	if len(records) == 0 {
		return 0, 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin attendance tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const chunkSize = 500
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		placeholders := make([]string, 0, len(chunk))
		args := make([]interface{}, 0, len(chunk)*6)
		for i := range chunk {
			rec := &chunk[i]
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			base := len(args)
			placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+6))
			args = append(args, rec.ID, rec.StudentID, rec.SubjectID, rec.Date, rec.Status, now)
		}

		query := `INSERT INTO attendance_records (id, student_id, subject_id, date, status, created_at, updated_at) VALUES ` +
			strings.Join(placeholders, ", ") + attendanceUpsertTail
		var flags []bool
		if err := tx.SelectContext(ctx, &flags, query, args...); err != nil {
			return 0, 0, fmt.Errorf("upsert attendance chunk: %w", err)
		}
		for _, isInsert := range flags {
			if isInsert {
				inserted++
			} else {
				updated++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit attendance batch: %w", err)
	}
	committed = true
	return inserted, updated, nil
}

// dedupeMarks collapses repeated (student, subject, date) marks to the
// last one, preserving first-seen order. The input slice is untouched.
func dedupeMarks(records []models.AttendanceRecord) []models.AttendanceRecord {
	index := make(map[string]int, len(records))
	deduped := make([]models.AttendanceRecord, 0, len(records))
	for _, rec := range records {
		key := rec.StudentID + "|" + rec.SubjectID + "|" + rec.Date.Format("2006-01-02")
		if at, ok := index[key]; ok {
			deduped[at].Status = rec.Status
			continue
		}
		index[key] = len(deduped)
		deduped = append(deduped, rec)
	}
	return deduped
}

// List returns attendance records matching the filter with subject
// names, newest first.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, error) {
	base := `SELECT a.id, a.student_id, a.subject_id, a.date, a.status, a.created_at, a.updated_at,
        s.name AS subject_name
        FROM attendance_records a
        LEFT JOIN subjects s ON s.id = a.subject_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("a.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	query := base
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.date DESC"

	var records []models.AttendanceRecordDetail
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// AggregateByStudent returns per-subject raw counts over the student's
// active enrollments. Date bounds narrow which records are counted
// without dropping subjects that have none in range. Percentages are
// computed by the caller.
func (r *AttendanceRepository) AggregateByStudent(ctx context.Context, studentID string, filter models.AttendanceFilter) ([]models.SubjectAttendance, error) {
	join := "LEFT JOIN attendance_records a ON a.subject_id = e.subject_id AND a.student_id = e.student_id"
	args := []interface{}{studentID}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		join += fmt.Sprintf(" AND a.date >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		join += fmt.Sprintf(" AND a.date <= $%d", len(args))
	}
	where := "WHERE e.student_id = $1 AND e.status = 'active'"
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		where += fmt.Sprintf(" AND e.subject_id = $%d", len(args))
	}

	query := `SELECT su.id AS subject_id, su.name AS subject_name,
        COUNT(a.id) AS total_classes,
        COUNT(a.id) FILTER (WHERE a.status = 'present') AS present,
        COUNT(a.id) FILTER (WHERE a.status = 'absent') AS absent,
        COUNT(a.id) FILTER (WHERE a.status = 'late') AS late
        FROM enrollments e
        JOIN subjects su ON su.id = e.subject_id
        ` + join + `
        ` + where + `
        GROUP BY su.id, su.name
        ORDER BY su.name ASC`
	var rows []models.SubjectAttendance
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate attendance: %w", err)
	}
	return rows, nil
}

// AggregateBySubject returns per-student raw counts for one subject's
// roster, used for the register export.
func (r *AttendanceRepository) AggregateBySubject(ctx context.Context, subjectID string) ([]models.StudentAttendanceTotals, error) {
	const query = `SELECT st.id AS student_id, st.roll_no, st.name,
        COUNT(a.id) AS total_classes,
        COUNT(a.id) FILTER (WHERE a.status = 'present') AS present,
        COUNT(a.id) FILTER (WHERE a.status = 'absent') AS absent,
        COUNT(a.id) FILTER (WHERE a.status = 'late') AS late
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        LEFT JOIN attendance_records a ON a.student_id = e.student_id AND a.subject_id = e.subject_id
        WHERE e.subject_id = $1 AND e.status = 'active'
        GROUP BY st.id, st.roll_no, st.name
        ORDER BY st.roll_no ASC`
	var rows []models.StudentAttendanceTotals
	if err := r.db.SelectContext(ctx, &rows, query, subjectID); err != nil {
		return nil, fmt.Errorf("aggregate subject attendance: %w", err)
	}
	return rows, nil
}

// Recent returns the student's newest attendance records under the same
// optional filters as the aggregate, capped at limit.
func (r *AttendanceRepository) Recent(ctx context.Context, studentID string, filter models.AttendanceFilter, limit int) ([]models.AttendanceRecordDetail, error) {
	if limit <= 0 {
		limit = 10
	}
	where := "WHERE a.student_id = $1"
	args := []interface{}{studentID}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		where += fmt.Sprintf(" AND a.subject_id = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		where += fmt.Sprintf(" AND a.date >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		where += fmt.Sprintf(" AND a.date <= $%d", len(args))
	}
	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.subject_id, a.date, a.status, a.created_at, a.updated_at,
        s.name AS subject_name
        FROM attendance_records a
        LEFT JOIN subjects s ON s.id = a.subject_id
        %s
        ORDER BY a.date DESC
        LIMIT %d`, where, limit)
	var records []models.AttendanceRecordDetail
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("recent attendance: %w", err)
	}
	return records, nil
}
